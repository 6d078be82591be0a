package service

import (
	"time"

	"github.com/habitflow/habitflow/internal/db"
)

// CompletionService 是完成状态的唯一变更入口
// 列表打卡与详情打卡都经过 Toggle，保证索引与连胜缓存同步

type CompletionService struct {
	habits *HabitService
	now    func() time.Time
}

// NewCompletionService 构造 CompletionService
func NewCompletionService(habits *HabitService) *CompletionService {
	return &CompletionService{habits: habits, now: time.Now}
}

// UseClock 替换取当前时间的函数，测试用于固定日期
func (s *CompletionService) UseClock(clock func() time.Time) {
	s.now = clock
}

// Toggle 记录或撤销习惯在当天的完成状态。
// completed 为 true 时幂等加入当天桶，为 false 时移除（不存在则无操作）。
// 索引落盘后立即重算并持久化该习惯的连胜缓存。
// 习惯不存在时整体无操作，完成索引只引用现存习惯。
func (s *CompletionService) Toggle(habitID int, completed bool) error {
	habits, err := s.habits.LoadHabits()
	if err != nil {
		return err
	}

	pos := -1
	for i := range habits {
		if habits[i].ID == habitID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil
	}

	idx, err := s.habits.LoadCompletions()
	if err != nil {
		return err
	}

	ref := s.now()
	day := db.DayKey(ref)
	if completed {
		idx.Add(day, habitID)
	} else {
		idx.Remove(day, habitID)
	}

	if err := s.habits.SaveCompletions(idx); err != nil {
		return err
	}

	habits[pos].Streak = ComputeStreak(habits[pos], idx, ref)
	return s.habits.SaveHabits(habits)
}
