package db

import "time"

// 频率取值，周以 ISO 周（周一起始）计算，月为自然月
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// dayKeyLayout 为完成索引的日期键格式
const dayKeyLayout = "2006-01-02"

// Habit 定义了习惯记录，持久化为 habitflow_habits 中的 JSON 数组元素
// Streak 是缓存值，数据源始终是完成索引 + Frequency，每次打卡切换后重算
// ReminderTime/Notes 为可选展示字段，对统计无影响
type Habit struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Frequency    string `json:"frequency"`
	Target       int    `json:"target"`
	Streak       int    `json:"streak"`
	Category     string `json:"category"`
	CreatedAt    string `json:"created_at"`
	ReminderTime string `json:"reminder_time,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// CompletionIndex 记录每天完成了哪些习惯，键为 YYYY-MM-DD
// 同一天同一习惯最多出现一次，桶内保留插入顺序以保证序列化稳定
type CompletionIndex map[string][]int

// DayKey 将时间格式化为完成索引的日期键
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// ValidDayKey 判断字符串是否为规范形式的日期键。
// 索引从存储反序列化而来，任意键都可能出现，统计前需要甄别；
// time.Parse 容忍未补零的月日，因此额外要求格式化结果与原串一致。
func ValidDayKey(day string) bool {
	t, err := time.Parse(dayKeyLayout, day)
	return err == nil && t.Format(dayKeyLayout) == day
}

// Contains 判断指定日期桶中是否已记录该习惯
func (idx CompletionIndex) Contains(day string, habitID int) bool {
	for _, id := range idx[day] {
		if id == habitID {
			return true
		}
	}
	return false
}

// Add 向日期桶追加习惯，重复添加保持幂等
func (idx CompletionIndex) Add(day string, habitID int) {
	if idx.Contains(day, habitID) {
		return
	}
	idx[day] = append(idx[day], habitID)
}

// Remove 从日期桶移除习惯，不存在时为无操作
func (idx CompletionIndex) Remove(day string, habitID int) {
	bucket, ok := idx[day]
	if !ok {
		return
	}
	for i, id := range bucket {
		if id == habitID {
			idx[day] = append(bucket[:i:i], bucket[i+1:]...)
			break
		}
	}
	if len(idx[day]) == 0 {
		delete(idx, day)
	}
}

// Purge 从所有日期桶清除该习惯，用于删除习惯时的级联
// 被级联清空的桶一并移除，这是唯一会删除桶的路径
func (idx CompletionIndex) Purge(habitID int) {
	for day := range idx {
		idx.Remove(day, habitID)
	}
}
