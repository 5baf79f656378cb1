package interview

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/interview-backend/internal/data/repos/testutil"
	types "github.com/yungbote/interview-backend/internal/domain/interview"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
)

func TestSessionRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewSessionRepo(db, testutil.Logger(t))

	row := &types.Session{ID: "sess-1", OwnerID: "owner-a", Track: "backend", Type: "theory", Difficulty: "senior"}
	created, err := repo.Create(dbc, row)
	if err != nil || !created {
		t.Fatalf("Create: created=%v err=%v", created, err)
	}
	dup := &types.Session{ID: "sess-1", OwnerID: "owner-a", Track: "frontend"}
	created, err = repo.Create(dbc, dup)
	if err != nil || created {
		t.Fatalf("Create(duplicate): created=%v err=%v", created, err)
	}

	got, err := repo.GetByID(dbc, "sess-1")
	if err != nil || got == nil {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got.Track != "backend" || got.Status != types.StatusActive {
		t.Fatalf("GetByID: track=%q status=%q", got.Track, got.Status)
	}
	if missing, err := repo.GetByID(dbc, "nope"); err != nil || missing != nil {
		t.Fatalf("GetByID(missing): got=%v err=%v", missing, err)
	}

	dur := 600
	at := time.Now().UTC()
	report := types.Report{
		Score:           72,
		Strengths:       []string{"structured answers"},
		Improvements:    []string{"complexity analysis"},
		Summary:         "solid",
		TopicsEvaluated: []types.TopicScore{{Topic: "Closures", Category: "JavaScript", Score: 80}},
	}
	ok, err := repo.Complete(dbc, "sess-1", report, &dur, at)
	if err != nil || !ok {
		t.Fatalf("Complete: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Complete(dbc, "sess-1", report, &dur, at)
	if err != nil || ok {
		t.Fatalf("Complete(again): ok=%v err=%v", ok, err)
	}

	got, err = repo.GetByID(dbc, "sess-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	stored := got.StoredReport()
	if stored == nil || stored.Score != 72 || len(stored.TopicsEvaluated) != 1 || stored.TopicsEvaluated[0].Topic != "Closures" {
		t.Fatalf("StoredReport: %+v", stored)
	}
	if got.DurationSeconds == nil || *got.DurationSeconds != 600 || got.CompletedAt == nil {
		t.Fatalf("completion fields not written: %+v", got)
	}
}

func TestSessionRepoListing(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewSessionRepo(db, testutil.Logger(t))

	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	first := testutil.SeedCompletedSession(t, ctx, db, "owner-a", "theory", base, 60, nil)
	second := testutil.SeedCompletedSession(t, ctx, db, "owner-a", "live-coding", base.Add(24*time.Hour), 80, nil)
	active := testutil.SeedSession(t, ctx, db, "owner-a", base.Add(48*time.Hour))
	testutil.SeedSession(t, ctx, db, "owner-b", base)

	all, err := repo.ListByOwner(dbc, "owner-a", SessionFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("ListByOwner: err=%v len=%d", err, len(all))
	}
	if all[0].ID != active.ID {
		t.Fatalf("ListByOwner: expected newest first, got %s", all[0].ID)
	}

	page, err := repo.ListByOwner(dbc, "owner-a", SessionFilter{Status: types.StatusCompleted, Limit: 1, Offset: 1})
	if err != nil || len(page) != 1 || page[0].ID != first.ID {
		t.Fatalf("ListByOwner(page): err=%v rows=%v", err, page)
	}

	done, err := repo.ListCompletedByOwner(dbc, "owner-a")
	if err != nil || len(done) != 2 || done[0].ID != first.ID || done[1].ID != second.ID {
		t.Fatalf("ListCompletedByOwner: err=%v rows=%v", err, done)
	}

	ok, err := repo.TransitionStatus(dbc, active.ID, types.StatusActive, types.StatusAbandoned)
	if err != nil || !ok {
		t.Fatalf("TransitionStatus: ok=%v err=%v", ok, err)
	}
	ok, err = repo.TransitionStatus(dbc, first.ID, types.StatusActive, types.StatusAbandoned)
	if err != nil || ok {
		t.Fatalf("TransitionStatus(completed): ok=%v err=%v", ok, err)
	}
}
