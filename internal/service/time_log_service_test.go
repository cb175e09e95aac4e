package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/types"
	"github.com/shopspring/decimal"
)

func TestStartPauseResumeStopTotals(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.h.task(f.admin, f.team, f.member)
	timers := f.h.services.TimeLog

	if _, err := timers.Start(ctx, f.member, task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.h.advance(45 * time.Minute)

	paused, err := timers.Pause(ctx, f.member, task.ID, "lunch")
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused.DurationSeconds != 45*60 || paused.PauseReason == nil || *paused.PauseReason != "lunch" {
		t.Errorf("paused segment = %+v", paused)
	}

	status, err := timers.Status(ctx, f.member)
	if err != nil || status.State != TimerPaused {
		t.Fatalf("status = %+v, %v", status, err)
	}

	f.h.advance(30 * time.Minute)
	if _, err := timers.Resume(ctx, f.member, task.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	f.h.advance(15 * time.Minute)
	if _, err := timers.Stop(ctx, f.member); err != nil {
		t.Fatalf("stop: %v", err)
	}

	total, err := timers.TaskTotal(ctx, f.member, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if total.TotalSeconds != 60*60 {
		t.Errorf("total = %d, want 3600 (two segments, pause excluded)", total.TotalSeconds)
	}
	if !total.Hours.Equal(decimal.NewFromInt(1)) || total.Formatted != "1h 0m" {
		t.Errorf("hours = %s formatted %q", total.Hours, total.Formatted)
	}
	if len(total.Logs) != 2 {
		t.Errorf("segments = %d, want 2", len(total.Logs))
	}

	status, _ = timers.Status(ctx, f.member)
	if status.State != TimerIdle {
		t.Errorf("after stop state = %s", status.State)
	}
}

func TestTaskTotalCountsLiveSegment(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.h.task(f.admin, f.team, f.member)

	f.h.services.TimeLog.Start(ctx, f.member, task.ID)
	f.h.advance(90 * time.Second)

	total, err := f.h.services.TimeLog.TaskTotal(ctx, f.admin, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if total.TotalSeconds != 90 {
		t.Errorf("total = %d, want 90", total.TotalSeconds)
	}
}

func TestOnlyOneTimerAtATime(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	first := f.h.task(f.admin, f.team, f.member)
	second := f.h.task(f.admin, f.team, f.member)

	if _, err := f.h.services.TimeLog.Start(ctx, f.member, first.ID); err != nil {
		t.Fatal(err)
	}
	_, err := f.h.services.TimeLog.Start(ctx, f.member, second.ID)
	expectError(t, err, ErrConflictingTimer)

	_, err = f.h.services.TimeLog.Resume(ctx, f.member, first.ID)
	expectError(t, err, ErrConflictingTimer)
}

func TestConcurrentStartsLeaveOneOpenLog(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.h.task(f.admin, f.team, f.member)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, clash int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.h.services.TimeLog.Start(ctx, f.member, task.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			if KindOf(err) == KindConflict {
				clash++
			}
		}()
	}
	wg.Wait()

	if ok != 1 || clash != attempts-1 {
		t.Fatalf("ok=%d conflicts=%d", ok, clash)
	}
	open := 0
	for _, l := range f.h.store.logs {
		if l.IsOpen() {
			open++
		}
	}
	if open != 1 {
		t.Errorf("open logs = %d, want 1", open)
	}
}

func TestTimerGuards(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.h.task(f.admin, f.team, f.member)
	timers := f.h.services.TimeLog

	_, err := timers.Start(ctx, f.other, task.ID)
	expectError(t, err, Forbidden(""))
	_, err = timers.Start(ctx, f.member, "task-missing")
	expectError(t, err, NotFound(""))

	_, err = timers.Pause(ctx, f.member, task.ID, "   ")
	expectError(t, err, Validation("ReasonRequired", ""))
	_, err = timers.Pause(ctx, f.member, task.ID, "coffee")
	expectError(t, err, NotFound(""))

	_, err = timers.Resume(ctx, f.member, task.ID)
	expectError(t, err, ErrNotPaused)
	_, err = timers.Stop(ctx, f.member)
	expectError(t, err, NotFound(""))

	// A stopped segment is not a pause.
	timers.Start(ctx, f.member, task.ID)
	f.h.advance(time.Minute)
	timers.Stop(ctx, f.member)
	_, err = timers.Resume(ctx, f.member, task.ID)
	expectError(t, err, ErrNotPaused)
}

func TestTimerRefusesClosedTask(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.h.task(f.admin, f.team, f.member)

	f.h.services.Task.MarkInProgress(ctx, f.member, task.ID)
	f.h.services.Task.RequestApproval(ctx, f.member, task.ID)
	f.h.services.Task.Approve(ctx, f.admin, task.ID)

	_, err := f.h.services.TimeLog.Start(ctx, f.member, task.ID)
	expectError(t, err, Validation("TaskClosed", ""))

	if f.h.store.tasks[task.ID].Status != types.StatusCompleted {
		t.Fatal("setup did not complete the task")
	}
}
