package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/interview-backend/internal/data/repos/testutil"
	types "github.com/yungbote/interview-backend/internal/domain/interview"
	"github.com/yungbote/interview-backend/internal/platform/apierr"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
)

func TestMasteryUpsertCaseVariants(t *testing.T) {
	f := newFixture(t, nil)
	dbc := dbctx.Context{Ctx: context.Background()}

	first, err := f.mastery.Upsert(dbc, "owner-a", "closures", "JavaScript", 80)
	require.NoError(t, err)
	assert.Equal(t, "Closures", first.Topic)
	assert.Equal(t, 80, first.MasteryLevel)
	assert.Equal(t, 1, first.SessionsCount)

	second, err := f.mastery.Upsert(dbc, "owner-a", "  CLOSURES ", "", 40)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 68, second.MasteryLevel)
	assert.Equal(t, 2, second.SessionsCount)

	view, err := f.mastery.List(dbc, "owner-a")
	require.NoError(t, err)
	require.Len(t, view.Topics, 1)
	assert.Equal(t, 68, view.Topics[0].MasteryLevel)

	_, err = f.mastery.Upsert(dbc, "owner-a", "   ", "", 10)
	assert.True(t, errors.Is(err, apierr.ErrInvalidArgument))
}

func TestMasteryUnknownTopicPassesThrough(t *testing.T) {
	f := newFixture(t, nil)
	dbc := dbctx.Context{Ctx: context.Background()}

	row, err := f.mastery.Upsert(dbc, "owner-a", " Rust Lifetimes ", "", 150)
	require.NoError(t, err)
	assert.Equal(t, "Rust Lifetimes", row.Topic)
	assert.Equal(t, "General", row.Category)
	assert.Equal(t, 100, row.MasteryLevel)
}

func TestMasteryReconstructFallback(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	empty, err := f.mastery.List(dbc, "owner-a")
	require.NoError(t, err)
	assert.Empty(t, empty.Topics)
	assert.NotNil(t, empty.Topics)
	assert.False(t, empty.Reconstructed)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	testutil.SeedCompletedSession(t, ctx, f.db, "owner-a", "theory", base.Add(48*time.Hour), 40,
		[]types.TopicScore{{Topic: "closures", Category: "JavaScript", Score: 40}})
	testutil.SeedCompletedSession(t, ctx, f.db, "owner-a", "theory", base, 80,
		[]types.TopicScore{{Topic: "Closures", Category: "JavaScript", Score: 80}})

	view, err := f.mastery.List(dbc, "owner-a")
	require.NoError(t, err)
	require.True(t, view.Reconstructed)
	require.Len(t, view.Topics, 1)
	assert.Equal(t, "Closures", view.Topics[0].Topic)
	assert.Equal(t, 68, view.Topics[0].MasteryLevel)
	assert.Equal(t, 2, view.Topics[0].SessionsCount)

	rows, err := f.repos.TopicMastery.ListByOwner(dbc, "owner-a")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
