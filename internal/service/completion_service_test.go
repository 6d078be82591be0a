package service

import (
	"testing"
	"time"

	"github.com/habitflow/habitflow/internal/db"
)

func newTestCompletionService(t *testing.T, ref time.Time) (*CompletionService, *HabitService) {
	t.Helper()
	habits, _ := newTestHabitService(t)
	habits.UseClock(func() time.Time { return ref })

	svc := NewCompletionService(habits)
	svc.UseClock(func() time.Time { return ref })
	return svc, habits
}

func TestToggleIdempotent(t *testing.T) {
	ref := time.Date(2024, 5, 3, 9, 30, 0, 0, time.UTC)
	svc, habits := newTestCompletionService(t, ref)

	id, err := habits.AddHabit(HabitInput{Name: "晨跑"})
	if err != nil {
		t.Fatalf("AddHabit returned error: %v", err)
	}

	// 连续两次打卡与一次等价
	if err := svc.Toggle(id, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if err := svc.Toggle(id, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	idx, err := habits.LoadCompletions()
	if err != nil {
		t.Fatalf("LoadCompletions returned error: %v", err)
	}
	if got := len(idx[db.DayKey(ref)]); got != 1 {
		t.Fatalf("expected single completion entry, got %d", got)
	}

	if err := svc.Toggle(id, false); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	idx, err = habits.LoadCompletions()
	if err != nil {
		t.Fatalf("LoadCompletions returned error: %v", err)
	}
	if idx.Contains(db.DayKey(ref), id) {
		t.Fatal("expected completion to be removed")
	}

	// 已不存在时撤销为无操作
	if err := svc.Toggle(id, false); err != nil {
		t.Fatalf("expected no-op for absent completion, got %v", err)
	}
}

func TestToggleUnknownHabitNoop(t *testing.T) {
	ref := time.Date(2024, 5, 3, 9, 30, 0, 0, time.UTC)
	svc, habits := newTestCompletionService(t, ref)

	if err := svc.Toggle(42, true); err != nil {
		t.Fatalf("expected no-op for unknown habit, got %v", err)
	}

	idx, err := habits.LoadCompletions()
	if err != nil {
		t.Fatalf("LoadCompletions returned error: %v", err)
	}
	if len(idx) != 0 {
		t.Fatalf("expected index untouched, got %+v", idx)
	}
}

func TestToggleRefreshesStreak(t *testing.T) {
	ref := time.Date(2024, 5, 3, 9, 30, 0, 0, time.UTC)
	svc, habits := newTestCompletionService(t, ref)

	id, err := habits.AddHabit(HabitInput{Name: "写日记"})
	if err != nil {
		t.Fatalf("AddHabit returned error: %v", err)
	}

	// 预置前两天的完成记录
	seed := db.CompletionIndex{
		"2024-05-01": {id},
		"2024-05-02": {id},
	}
	if err := habits.SaveCompletions(seed); err != nil {
		t.Fatalf("SaveCompletions returned error: %v", err)
	}

	if err := svc.Toggle(id, true); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	habit, _, err := habits.Find(id)
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if habit.Streak != 3 {
		t.Fatalf("expected streak 3 after toggle, got %d", habit.Streak)
	}

	// 撤销当天打卡后连胜归零
	if err := svc.Toggle(id, false); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}

	habit, _, err = habits.Find(id)
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if habit.Streak != 0 {
		t.Fatalf("expected streak 0 after undo, got %d", habit.Streak)
	}
}
