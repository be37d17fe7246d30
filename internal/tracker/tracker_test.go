package tracker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"freelancehub/internal/model"
	"freelancehub/internal/tracker"

	"go.uber.org/zap"
)

// memStore is a single-process stand-in for the Postgres interval
// store. The mutex gives it the same atomic check-and-create semantics
// the real store gets from its conditional insert.
type memStore struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]model.TimeInterval
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[int]model.TimeInterval)}
}

func (s *memStore) InsertOpen(ctx context.Context, iv *model.TimeInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.ProjectID == iv.ProjectID && row.UserID == iv.UserID && row.EndTime == nil {
			return &tracker.ConflictError{ProjectID: row.ProjectID}
		}
	}
	s.nextID++
	iv.ID = s.nextID
	iv.CreatedAt = iv.StartTime
	s.rows[iv.ID] = *iv
	return nil
}

func (s *memStore) Get(ctx context.Context, id, projectID, userID int) (*model.TimeInterval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || row.ProjectID != projectID || row.UserID != userID {
		return nil, &tracker.NotFoundError{Resource: "time interval", ID: id}
	}
	out := row
	return &out, nil
}

func (s *memStore) CloseOpen(ctx context.Context, id, projectID, userID int, end time.Time, durationMinutes int, note *string) (*model.TimeInterval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || row.ProjectID != projectID || row.UserID != userID || row.EndTime != nil {
		return nil, &tracker.NotFoundError{Resource: "open time interval", ID: id}
	}
	row.EndTime = &end
	row.DurationMinutes = &durationMinutes
	if note != nil {
		row.Note = note
	}
	s.rows[id] = row
	out := row
	return &out, nil
}

func (s *memStore) Update(ctx context.Context, iv *model.TimeInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[iv.ID]
	if !ok || row.ProjectID != iv.ProjectID || row.UserID != iv.UserID {
		return &tracker.NotFoundError{Resource: "time interval", ID: iv.ID}
	}
	s.rows[iv.ID] = *iv
	return nil
}

func (s *memStore) Delete(ctx context.Context, id, projectID, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || row.ProjectID != projectID || row.UserID != userID {
		return &tracker.NotFoundError{Resource: "time interval", ID: id}
	}
	delete(s.rows, id)
	return nil
}

// testClock provides a fixed, manually advanced time.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture() (*tracker.Service, *memStore, *testClock) {
	store := newMemStore()
	clock := &testClock{now: time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)}
	return tracker.NewService(store, clock, zap.NewNop()), store, clock
}

func strptr(s string) *string { return &s }

func TestStartStopRoundTrip(t *testing.T) {
	svc, _, clock := newFixture()
	ctx := context.Background()

	iv, err := svc.Start(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !iv.Open() || iv.DurationMinutes != nil {
		t.Fatalf("started interval should be open with nil duration, got %+v", iv)
	}

	clock.Advance(95 * time.Minute)
	stopped, err := svc.Stop(ctx, iv.ID, 1, 10, strptr("wrote spec"))
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if stopped.EndTime == nil || stopped.DurationMinutes == nil {
		t.Fatal("stopped interval must have end and duration set")
	}
	if *stopped.DurationMinutes != 95 {
		t.Errorf("duration = %d, want 95", *stopped.DurationMinutes)
	}
	if stopped.Note == nil || *stopped.Note != "wrote spec" {
		t.Errorf("note = %v, want %q", stopped.Note, "wrote spec")
	}

	// The scope is free again right after close: no residual lock.
	if _, err := svc.Start(ctx, 1, 10); err != nil {
		t.Errorf("Start() after Stop() error = %v, want nil", err)
	}
}

func TestStopZeroDurationIsValid(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()

	iv, err := svc.Start(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Clock not advanced: end == start.
	stopped, err := svc.Stop(ctx, iv.ID, 1, 10, nil)
	if err != nil {
		t.Fatalf("Stop() with zero elapsed time error = %v, want nil", err)
	}
	if stopped.DurationMinutes == nil || *stopped.DurationMinutes != 0 {
		t.Errorf("duration = %v, want 0", stopped.DurationMinutes)
	}
	if stopped.Note != nil {
		t.Errorf("note = %q, want nil when omitted", *stopped.Note)
	}
}

func TestStartConflictSameProject(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()

	if _, err := svc.Start(ctx, 1, 10); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}

	_, err := svc.Start(ctx, 1, 10)
	var conflict *tracker.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("second Start() error = %v, want ConflictError", err)
	}
	if conflict.ProjectID != 1 {
		t.Errorf("conflict names project %d, want 1", conflict.ProjectID)
	}
}

func TestStartOtherProjectWhileOpen(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()

	if _, err := svc.Start(ctx, 1, 10); err != nil {
		t.Fatalf("Start(P1) error = %v", err)
	}

	// Exclusivity is scoped per (user, project): a concurrent timer on a
	// different project is allowed.
	if _, err := svc.Start(ctx, 2, 10); err != nil {
		t.Errorf("Start(P2) while P1 open error = %v, want nil", err)
	}

	// Another user on the same project is likewise independent.
	if _, err := svc.Start(ctx, 1, 11); err != nil {
		t.Errorf("Start(P1, other user) error = %v, want nil", err)
	}
}

func TestStopErrors(t *testing.T) {
	svc, _, clock := newFixture()
	ctx := context.Background()

	var notFound *tracker.NotFoundError
	if _, err := svc.Stop(ctx, 99, 1, 10, nil); !errors.As(err, &notFound) {
		t.Errorf("Stop(unknown) error = %v, want NotFoundError", err)
	}

	iv, _ := svc.Start(ctx, 1, 10)
	clock.Advance(time.Minute)
	if _, err := svc.Stop(ctx, iv.ID, 1, 10, nil); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	// Stopping an already closed interval is a not-found, per the state
	// machine: CLOSED has no stop transition.
	if _, err := svc.Stop(ctx, iv.ID, 1, 10, nil); !errors.As(err, &notFound) {
		t.Errorf("Stop(closed) error = %v, want NotFoundError", err)
	}

	// Ownership failure is indistinguishable from non-existence.
	iv2, _ := svc.Start(ctx, 1, 10)
	if _, err := svc.Stop(ctx, iv2.ID, 1, 999, nil); !errors.As(err, &notFound) {
		t.Errorf("Stop(foreign user) error = %v, want NotFoundError", err)
	}
}

func TestResumeCreatesNewInterval(t *testing.T) {
	svc, _, clock := newFixture()
	ctx := context.Background()

	src, _ := svc.Start(ctx, 1, 10)
	clock.Advance(30 * time.Minute)
	src, err := svc.Stop(ctx, src.ID, 1, 10, strptr("design review"))
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	clock.Advance(2 * time.Hour)
	resumed, err := svc.Resume(ctx, src.ID, 1, 10)
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if resumed.ID == src.ID {
		t.Error("Resume must create a fresh interval, not reuse the source record")
	}
	if !resumed.Open() {
		t.Error("resumed interval should be open")
	}
	if resumed.Note == nil || *resumed.Note != "design review" {
		t.Errorf("resumed note = %v, want copied %q", resumed.Note, "design review")
	}

	// The source record and its recorded duration are untouched.
	again, err := svc.Stop(ctx, resumed.ID, 1, 10, nil)
	if err != nil {
		t.Fatalf("Stop(resumed) error = %v", err)
	}
	if *again.DurationMinutes != 0 {
		t.Errorf("resumed duration = %d, want 0 (own elapsed time only)", *again.DurationMinutes)
	}
}

func TestResumeConflicts(t *testing.T) {
	svc, _, clock := newFixture()
	ctx := context.Background()

	src, _ := svc.Start(ctx, 1, 10)
	clock.Advance(10 * time.Minute)

	// Resuming an interval that is still open fails the active-session
	// precondition.
	var conflict *tracker.ConflictError
	if _, err := svc.Resume(ctx, src.ID, 1, 10); !errors.As(err, &conflict) {
		t.Errorf("Resume(open source) error = %v, want ConflictError", err)
	}

	src, _ = svc.Stop(ctx, src.ID, 1, 10, nil)
	if _, err := svc.Start(ctx, 1, 10); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Another open interval in scope blocks resume with the same message
	// contract as start.
	if _, err := svc.Resume(ctx, src.ID, 1, 10); !errors.As(err, &conflict) {
		t.Errorf("Resume(while open exists) error = %v, want ConflictError", err)
	}
	if conflict.ProjectID != 1 {
		t.Errorf("conflict names project %d, want 1", conflict.ProjectID)
	}

	var notFound *tracker.NotFoundError
	if _, err := svc.Resume(ctx, 99, 2, 10); !errors.As(err, &notFound) {
		t.Errorf("Resume(unknown source) error = %v, want NotFoundError", err)
	}
}

func TestDeleteFreesScope(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()

	iv, _ := svc.Start(ctx, 1, 10)
	if err := svc.Delete(ctx, iv.ID, 1, 10); err != nil {
		t.Fatalf("Delete(open) error = %v", err)
	}

	if _, err := svc.Start(ctx, 1, 10); err != nil {
		t.Errorf("Start() after deleting open interval error = %v, want nil", err)
	}

	var notFound *tracker.NotFoundError
	if err := svc.Delete(ctx, iv.ID, 1, 10); !errors.As(err, &notFound) {
		t.Errorf("Delete(gone) error = %v, want NotFoundError", err)
	}
}

func TestUpdateRecomputesDuration(t *testing.T) {
	svc, _, clock := newFixture()
	ctx := context.Background()

	iv, _ := svc.Start(ctx, 1, 10)
	clock.Advance(60 * time.Minute)
	iv, _ = svc.Stop(ctx, iv.ID, 1, 10, nil)

	// Moving the start back re-derives the duration from (start, end).
	earlier := iv.StartTime.Add(-30 * time.Minute)
	updated, err := svc.Update(ctx, iv.ID, 1, 10, tracker.UpdatePatch{StartTime: &earlier})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.DurationMinutes == nil || *updated.DurationMinutes != 90 {
		t.Errorf("duration = %v, want 90 after recompute", updated.DurationMinutes)
	}
}

func TestUpdateExplicitDurationWins(t *testing.T) {
	svc, _, clock := newFixture()
	ctx := context.Background()

	iv, _ := svc.Start(ctx, 1, 10)
	clock.Advance(60 * time.Minute)
	iv, _ = svc.Stop(ctx, iv.ID, 1, 10, nil)

	override := 45
	later := iv.EndTime.Add(10 * time.Minute)
	updated, err := svc.Update(ctx, iv.ID, 1, 10, tracker.UpdatePatch{
		EndTime:         &later,
		DurationMinutes: &override,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if *updated.DurationMinutes != 45 {
		t.Errorf("duration = %d, want explicit override 45", *updated.DurationMinutes)
	}
}

func TestUpdateClearEndReopens(t *testing.T) {
	svc, _, clock := newFixture()
	ctx := context.Background()

	iv, _ := svc.Start(ctx, 1, 10)
	clock.Advance(60 * time.Minute)
	iv, _ = svc.Stop(ctx, iv.ID, 1, 10, nil)

	updated, err := svc.Update(ctx, iv.ID, 1, 10, tracker.UpdatePatch{ClearEnd: true})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.EndTime != nil || updated.DurationMinutes != nil {
		t.Errorf("clearing end must also clear duration, got end=%v duration=%v",
			updated.EndTime, updated.DurationMinutes)
	}
}

func TestUpdateRejectsEndBeforeStart(t *testing.T) {
	svc, _, clock := newFixture()
	ctx := context.Background()

	iv, _ := svc.Start(ctx, 1, 10)
	clock.Advance(60 * time.Minute)
	iv, _ = svc.Stop(ctx, iv.ID, 1, 10, nil)

	var invalid *tracker.ValidationError
	bad := iv.StartTime.Add(-time.Minute)
	if _, err := svc.Update(ctx, iv.ID, 1, 10, tracker.UpdatePatch{EndTime: &bad}); !errors.As(err, &invalid) {
		t.Errorf("Update(end before start) error = %v, want ValidationError", err)
	}

	// end == start is also rejected for a closed interval.
	same := iv.StartTime
	if _, err := svc.Update(ctx, iv.ID, 1, 10, tracker.UpdatePatch{EndTime: &same}); !errors.As(err, &invalid) {
		t.Errorf("Update(end == start) error = %v, want ValidationError", err)
	}
}

func TestConcurrentStartsExactlyOneWins(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Start(ctx, 1, 10)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			var conflict *tracker.ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			conflicts++
		}
	}

	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if conflicts != attempts-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, attempts-1)
	}
}
