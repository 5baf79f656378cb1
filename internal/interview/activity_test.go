package interview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	types "github.com/yungbote/interview-backend/internal/domain/interview"
)

func TestDailyActivity(t *testing.T) {
	now := time.Date(2026, 6, 30, 15, 0, 0, 0, time.UTC)

	empty := DailyActivity(nil, now)
	require.Len(t, empty, ActivityWindowDays)
	require.Equal(t, "2026-06-30", empty[len(empty)-1].Date)
	require.Equal(t, now.AddDate(0, 0, -(ActivityWindowDays-1)).Format("2006-01-02"), empty[0].Date)
	for _, b := range empty {
		require.Zero(t, b.Count)
		require.Zero(t, b.AvgScore)
	}

	s70, s81 := 70, 81
	sessions := []*types.Session{
		{Status: types.StatusCompleted, Score: &s70, StartedAt: now.Add(-2 * time.Hour)},
		{Status: types.StatusCompleted, Score: &s81, StartedAt: now.Add(-3 * time.Hour)},
		{Status: types.StatusCompleted, StartedAt: now.Add(-4 * time.Hour)},
		{Status: types.StatusActive, Score: &s70, StartedAt: now.Add(-time.Hour)},
		{Status: types.StatusCompleted, Score: &s70, StartedAt: now.AddDate(0, 0, -1)},
		{Status: types.StatusCompleted, Score: &s70, StartedAt: now.AddDate(-1, 0, 0)},
	}
	got := DailyActivity(sessions, now)
	require.Len(t, got, ActivityWindowDays)

	today := got[len(got)-1]
	require.Equal(t, 3, today.Count)
	require.Equal(t, 76, today.AvgScore)

	yesterday := got[len(got)-2]
	require.Equal(t, "2026-06-29", yesterday.Date)
	require.Equal(t, 1, yesterday.Count)

	total := 0
	for _, b := range got {
		total += b.Count
	}
	require.Equal(t, 4, total)
}
