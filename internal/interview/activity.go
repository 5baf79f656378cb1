package interview

import (
	"math"
	"time"

	types "github.com/yungbote/interview-backend/internal/domain/interview"
)

// ActivityWindowDays is the length of the trailing daily activity window.
const ActivityWindowDays = 182

const dayLayout = "2006-01-02"

type DayBucket struct {
	Date     string `json:"date"`
	Count    int    `json:"count"`
	AvgScore int    `json:"avg_score"`
}

// DailyActivity buckets completed sessions by the UTC date they started,
// over the window ending on now's UTC date. Every day is present, oldest
// first; days without sessions have zero count and zero average.
func DailyActivity(sessions []*types.Session, now time.Time) []DayBucket {
	today := now.UTC().Truncate(24 * time.Hour)
	first := today.AddDate(0, 0, -(ActivityWindowDays - 1))

	type acc struct{ count, total, scored int }
	accs := make([]acc, ActivityWindowDays)
	for _, s := range sessions {
		if s == nil || s.Status != types.StatusCompleted {
			continue
		}
		idx := int(s.StartedAt.UTC().Truncate(24*time.Hour).Sub(first) / (24 * time.Hour))
		if s.StartedAt.UTC().Before(first) || idx < 0 || idx >= ActivityWindowDays {
			continue
		}
		accs[idx].count++
		if s.Score != nil {
			accs[idx].total += *s.Score
			accs[idx].scored++
		}
	}

	out := make([]DayBucket, ActivityWindowDays)
	for i := range out {
		out[i] = DayBucket{Date: first.AddDate(0, 0, i).Format(dayLayout), Count: accs[i].count}
		if accs[i].scored > 0 {
			out[i].AvgScore = int(math.Round(float64(accs[i].total) / float64(accs[i].scored)))
		}
	}
	return out
}
