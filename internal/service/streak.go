package service

import (
	"time"

	"github.com/habitflow/habitflow/internal/db"
	"github.com/jinzhu/now"
)

// monthKeyLayout 为月度扫描使用的键格式，即日期键的前缀
const monthKeyLayout = "2006-01"

// HabitStats 汇总某一时点的统计数据
// 当前周期按是否有任意一次完成二值判定，CompletionRate 只会是 0 或 100，
// Target 仅作为展示中的要求次数，不参与比例计算
type HabitStats struct {
	Streak         int `json:"streak"`
	Completed      int `json:"completed"`
	TotalRequired  int `json:"total_required"`
	CompletionRate int `json:"completion_rate"`
}

// ComputeStreak 计算习惯截至参考日的连续完成周期数。
// 从参考日所在周期起往回逐周期扫描，遇到第一个没有任何完成的周期即停止；
// 扫描范围以最早一次完成为界，索引为空时直接得 0，不会无限回溯。
func ComputeStreak(habit db.Habit, idx db.CompletionIndex, ref time.Time) int {
	days := completionDays(habit.ID, idx)
	if len(days) == 0 {
		return 0
	}

	switch habit.Frequency {
	case db.FrequencyWeekly:
		return weeklyStreak(days, ref)
	case db.FrequencyMonthly:
		return monthlyStreak(days, ref)
	default:
		return dailyStreak(days, ref)
	}
}

// ComputeStats 返回参考日时点的统计快照。
// Streak 直接取习惯上的缓存值，重算只发生在打卡切换时。
func ComputeStats(habit db.Habit, idx db.CompletionIndex, ref time.Time) HabitStats {
	completed := 0
	if periodCompleted(habit, idx, ref) {
		completed = 1
	}

	return HabitStats{
		Streak:         habit.Streak,
		Completed:      completed,
		TotalRequired:  habit.Target,
		CompletionRate: completed * 100,
	}
}

// periodCompleted 判断参考日所在周期内是否有任意一次完成
func periodCompleted(habit db.Habit, idx db.CompletionIndex, ref time.Time) bool {
	days := completionDays(habit.ID, idx)
	if len(days) == 0 {
		return false
	}

	switch habit.Frequency {
	case db.FrequencyWeekly:
		return weekCompleted(days, now.With(ref).Monday())
	case db.FrequencyMonthly:
		return monthCompleted(days, ref.Format(monthKeyLayout))
	default:
		_, ok := days[db.DayKey(ref)]
		return ok
	}
}

// completionDays 收集某个习惯出现过完成记录的日期键集合
// 非法日期键视为损坏数据直接忽略，保证扫描边界与前缀比较安全
func completionDays(habitID int, idx db.CompletionIndex) map[string]struct{} {
	days := make(map[string]struct{})
	for day := range idx {
		if !db.ValidDayKey(day) {
			continue
		}
		if idx.Contains(day, habitID) {
			days[day] = struct{}{}
		}
	}
	return days
}

// earliestDay 返回集合中最早的日期键，YYYY-MM-DD 可按字典序比较
func earliestDay(days map[string]struct{}) string {
	earliest := ""
	for day := range days {
		if earliest == "" || day < earliest {
			earliest = day
		}
	}
	return earliest
}

func dailyStreak(days map[string]struct{}, ref time.Time) int {
	floor := earliestDay(days)
	streak := 0
	cursor := ref
	for db.DayKey(cursor) >= floor {
		if _, ok := days[db.DayKey(cursor)]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

func weeklyStreak(days map[string]struct{}, ref time.Time) int {
	floor := earliestDay(days)
	streak := 0
	// ISO 周从周一开始，逐周往回扫描
	weekStart := now.With(ref).Monday()
	for db.DayKey(weekStart.AddDate(0, 0, 6)) >= floor {
		if !weekCompleted(days, weekStart) {
			break
		}
		streak++
		weekStart = weekStart.AddDate(0, 0, -7)
	}
	return streak
}

func monthlyStreak(days map[string]struct{}, ref time.Time) int {
	floor := earliestDay(days)[:len(monthKeyLayout)]
	streak := 0
	cursor := now.With(ref).BeginningOfMonth()
	for cursor.Format(monthKeyLayout) >= floor {
		if !monthCompleted(days, cursor.Format(monthKeyLayout)) {
			break
		}
		streak++
		cursor = cursor.AddDate(0, -1, 0)
	}
	return streak
}

// weekCompleted 判断从 weekStart（周一）起的七天内是否有完成记录
func weekCompleted(days map[string]struct{}, weekStart time.Time) bool {
	for i := 0; i < 7; i++ {
		if _, ok := days[db.DayKey(weekStart.AddDate(0, 0, i))]; ok {
			return true
		}
	}
	return false
}

// monthCompleted 判断指定月份（YYYY-MM）内是否有完成记录
func monthCompleted(days map[string]struct{}, month string) bool {
	for day := range days {
		if len(day) >= len(month) && day[:len(month)] == month {
			return true
		}
	}
	return false
}
