package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/habitflow/habitflow/internal/db"
)

// 持久化存储中的两个固定条目
const (
	habitsKey      = "habitflow_habits"
	completionsKey = "habitflow_completions"
)

var (
	// ErrInvalidHabit 在习惯字段校验失败时返回
	ErrInvalidHabit = errors.New("invalid habit input")
)

// HabitService 负责习惯集合与完成索引的持久化读写
// 两个集合均以 JSON 文本整体替换写入，单线程模型下读写不会交错
// 损坏或缺失的条目按空集合处理，引擎宁可丢数据也不中断调用方

type HabitService struct {
	store    db.Store
	validate *validator.Validate
	now      func() time.Time
}

// HabitInput 定义创建习惯时可配置字段
// Frequency/Target/Category 留空时分别回退到 daily/1/general
type HabitInput struct {
	Name         string `json:"name" validate:"required"`
	Frequency    string `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	Target       int    `json:"target" validate:"gt=0"`
	Category     string `json:"category"`
	ReminderTime string `json:"reminder_time"`
	Notes        string `json:"notes"`
}

// HabitUpdate 定义部分更新时的可选字段，nil 表示保持原值
// ID 与 CreatedAt 不可更新
type HabitUpdate struct {
	Name         *string
	Frequency    *string
	Target       *int
	Category     *string
	ReminderTime *string
	Notes        *string
}

// HabitStatus 将习惯与当天是否已完成拼成列表视图数据
type HabitStatus struct {
	db.Habit
	CompletedToday bool `json:"completed_today"`
}

// NewHabitService 构造 HabitService
func NewHabitService(store db.Store) *HabitService {
	return &HabitService{
		store:    store,
		validate: validator.New(),
		now:      time.Now,
	}
}

// UseClock 替换取当前时间的函数，测试用于固定日期
func (s *HabitService) UseClock(clock func() time.Time) {
	s.now = clock
}

// Initialize 确保两个存储条目存在，缺失时写入空集合。
// 幂等，可在每次启动时调用，不会覆盖已有数据。
func (s *HabitService) Initialize() error {
	if _, err := s.store.Get(habitsKey); errors.Is(err, db.ErrKeyNotFound) {
		if err := s.store.Set(habitsKey, "[]"); err != nil {
			return fmt.Errorf("initialize habits: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("initialize habits: %w", err)
	}

	if _, err := s.store.Get(completionsKey); errors.Is(err, db.ErrKeyNotFound) {
		if err := s.store.Set(completionsKey, "{}"); err != nil {
			return fmt.Errorf("initialize completions: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("initialize completions: %w", err)
	}

	return nil
}

// LoadHabits 反序列化习惯集合，条目缺失或内容损坏时按空集合处理
func (s *HabitService) LoadHabits() ([]db.Habit, error) {
	raw, err := s.store.Get(habitsKey)
	if errors.Is(err, db.ErrKeyNotFound) {
		return []db.Habit{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}

	var habits []db.Habit
	if err := json.Unmarshal([]byte(raw), &habits); err != nil {
		return []db.Habit{}, nil
	}
	if habits == nil {
		habits = []db.Habit{}
	}
	return habits, nil
}

// SaveHabits 序列化整个习惯集合并整体写入
func (s *HabitService) SaveHabits(habits []db.Habit) error {
	if habits == nil {
		habits = []db.Habit{}
	}
	raw, err := json.Marshal(habits)
	if err != nil {
		return fmt.Errorf("marshal habits: %w", err)
	}
	if err := s.store.Set(habitsKey, string(raw)); err != nil {
		return fmt.Errorf("save habits: %w", err)
	}
	return nil
}

// LoadCompletions 反序列化完成索引，缺失或损坏时按空索引处理
func (s *HabitService) LoadCompletions() (db.CompletionIndex, error) {
	raw, err := s.store.Get(completionsKey)
	if errors.Is(err, db.ErrKeyNotFound) {
		return db.CompletionIndex{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}

	var idx db.CompletionIndex
	if err := json.Unmarshal([]byte(raw), &idx); err != nil {
		return db.CompletionIndex{}, nil
	}
	if idx == nil {
		idx = db.CompletionIndex{}
	}
	return idx, nil
}

// SaveCompletions 序列化完成索引并整体写入
func (s *HabitService) SaveCompletions(idx db.CompletionIndex) error {
	if idx == nil {
		idx = db.CompletionIndex{}
	}
	raw, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal completions: %w", err)
	}
	if err := s.store.Set(completionsKey, string(raw)); err != nil {
		return fmt.Errorf("save completions: %w", err)
	}
	return nil
}

// AddHabit 新建习惯并返回分配的 ID。
// ID 取当前最大值加一，空集合从 1 开始；新习惯的连胜从 0 起步。
func (s *HabitService) AddHabit(input HabitInput) (int, error) {
	input = normalizeHabitInput(input)
	if err := s.validate.Struct(input); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidHabit, err)
	}

	habits, err := s.LoadHabits()
	if err != nil {
		return 0, err
	}

	nextID := 1
	for _, h := range habits {
		if h.ID >= nextID {
			nextID = h.ID + 1
		}
	}

	habits = append(habits, db.Habit{
		ID:           nextID,
		Name:         input.Name,
		Frequency:    input.Frequency,
		Target:       input.Target,
		Streak:       0,
		Category:     input.Category,
		CreatedAt:    s.now().Format(time.RFC3339),
		ReminderTime: input.ReminderTime,
		Notes:        input.Notes,
	})

	if err := s.SaveHabits(habits); err != nil {
		return 0, err
	}
	return nextID, nil
}

// DeleteHabit 删除习惯并级联清除完成索引中的所有记录。
// ID 不存在时为无操作。
func (s *HabitService) DeleteHabit(id int) error {
	habits, err := s.LoadHabits()
	if err != nil {
		return err
	}

	kept := habits[:0]
	found := false
	for _, h := range habits {
		if h.ID == id {
			found = true
			continue
		}
		kept = append(kept, h)
	}
	if !found {
		return nil
	}

	if err := s.SaveHabits(kept); err != nil {
		return err
	}

	idx, err := s.LoadCompletions()
	if err != nil {
		return err
	}
	idx.Purge(id)
	return s.SaveCompletions(idx)
}

// UpdateHabit 合并给定字段到已有习惯，ID 与创建时间保持不变。
// ID 不存在时为无操作。
func (s *HabitService) UpdateHabit(id int, fields HabitUpdate) error {
	habits, err := s.LoadHabits()
	if err != nil {
		return err
	}

	for i := range habits {
		if habits[i].ID != id {
			continue
		}

		merged := habits[i]
		if fields.Name != nil {
			merged.Name = strings.TrimSpace(*fields.Name)
		}
		if fields.Frequency != nil {
			merged.Frequency = strings.TrimSpace(strings.ToLower(*fields.Frequency))
		}
		if fields.Target != nil {
			merged.Target = *fields.Target
		}
		if fields.Category != nil {
			merged.Category = strings.TrimSpace(*fields.Category)
		}
		if fields.ReminderTime != nil {
			merged.ReminderTime = strings.TrimSpace(*fields.ReminderTime)
		}
		if fields.Notes != nil {
			merged.Notes = *fields.Notes
		}

		// 校验合并后的真实字段，不做默认值回填，空值或非法值直接拒绝
		check := HabitInput{
			Name:      merged.Name,
			Frequency: merged.Frequency,
			Target:    merged.Target,
		}
		if err := s.validate.Struct(check); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidHabit, err)
		}

		habits[i] = merged
		return s.SaveHabits(habits)
	}

	return nil
}

// Find 按 ID 查找习惯，第二个返回值表示是否存在
func (s *HabitService) Find(id int) (db.Habit, bool, error) {
	habits, err := s.LoadHabits()
	if err != nil {
		return db.Habit{}, false, err
	}
	for _, h := range habits {
		if h.ID == id {
			return h, true, nil
		}
	}
	return db.Habit{}, false, nil
}

// ListWithTodayStatus 返回习惯列表，并标记参考日当天是否已完成
func (s *HabitService) ListWithTodayStatus(ref time.Time) ([]HabitStatus, error) {
	habits, err := s.LoadHabits()
	if err != nil {
		return nil, err
	}
	idx, err := s.LoadCompletions()
	if err != nil {
		return nil, err
	}

	day := db.DayKey(ref)
	statuses := make([]HabitStatus, 0, len(habits))
	for _, h := range habits {
		statuses = append(statuses, HabitStatus{
			Habit:          h,
			CompletedToday: idx.Contains(day, h.ID),
		})
	}
	return statuses, nil
}

func normalizeHabitInput(input HabitInput) HabitInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Frequency = strings.TrimSpace(strings.ToLower(input.Frequency))
	if input.Frequency == "" {
		input.Frequency = db.FrequencyDaily
	}
	if input.Target == 0 {
		input.Target = 1
	}
	input.Category = strings.TrimSpace(input.Category)
	if input.Category == "" {
		input.Category = "general"
	}
	input.ReminderTime = strings.TrimSpace(input.ReminderTime)
	return input
}
