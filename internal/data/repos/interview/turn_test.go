package interview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/interview-backend/internal/data/repos/testutil"
	types "github.com/yungbote/interview-backend/internal/domain/interview"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
)

func TestTurnRepoAppendAssignsSequence(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewTurnRepo(db, testutil.Logger(t))
	s := testutil.SeedSession(t, ctx, db, "owner-a", time.Now().UTC())

	code := "function f() {}"
	for i, turn := range []*types.Turn{
		{SessionID: s.ID, Role: types.RoleCandidate, Content: "hello"},
		{SessionID: s.ID, Role: types.RoleInterviewer, Content: "first question"},
		{SessionID: s.ID, Role: types.RoleCandidate, Content: "answer", CodeSnapshot: &code},
	} {
		if err := repo.Append(dbc, turn); err != nil {
			t.Fatalf("Append[%d]: %v", i, err)
		}
		if turn.Seq != int64(i+1) {
			t.Fatalf("Append[%d]: seq=%d", i, turn.Seq)
		}
	}

	rows, err := repo.ListBySession(dbc, s.ID)
	if err != nil || len(rows) != 3 {
		t.Fatalf("ListBySession: err=%v len=%d", err, len(rows))
	}
	if rows[0].Content != "hello" || rows[2].CodeSnapshot == nil || *rows[2].CodeSnapshot != code {
		t.Fatalf("ListBySession: unexpected rows %+v", rows)
	}
}

func TestTurnRepoConcurrentAppendsStayUnique(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewTurnRepo(db, testutil.Logger(t))
	s := testutil.SeedSession(t, ctx, db, "owner-a", time.Now().UTC())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Append(dbc, &types.Turn{SessionID: s.ID, Role: types.RoleCandidate, Content: "x"})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	rows, err := repo.ListBySession(dbc, s.ID)
	if err != nil || len(rows) != 8 {
		t.Fatalf("ListBySession: err=%v len=%d", err, len(rows))
	}
	for i, r := range rows {
		if r.Seq != int64(i+1) {
			t.Fatalf("seq gap at %d: %d", i, r.Seq)
		}
	}
}
