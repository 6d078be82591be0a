// Package habitflow 提供习惯存储与统计引擎的对外接口。
// 展示层（键盘操作的客户端）只通过本包调用引擎，不直接访问存储。
package habitflow

import (
	"log/slog"
	"time"

	"github.com/habitflow/habitflow/internal/config"
	"github.com/habitflow/habitflow/internal/db"
	"github.com/habitflow/habitflow/internal/service"
)

// Engine 聚合仓库、打卡与统计能力，共享同一个键值存储。
type Engine struct {
	habits      *service.HabitService
	completions *service.CompletionService
	clock       func() time.Time
}

// Option 配置 Engine 的可选项
type Option func(*Engine)

// WithClock 固定引擎取当前时间的函数，测试用于钉住参考日期
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// New 基于任意键值存储构造引擎
func New(store db.Store, opts ...Option) *Engine {
	habits := service.NewHabitService(store)
	engine := &Engine{
		habits:      habits,
		completions: service.NewCompletionService(habits),
		clock:       time.Now,
	}

	for _, opt := range opts {
		opt(engine)
	}

	engine.habits.UseClock(engine.clock)
	engine.completions.UseClock(engine.clock)

	return engine
}

// Open 绑定 sqlite 存储并完成初始化，是生产环境的默认入口
func Open(cfg config.AppConfig, opts ...Option) (*Engine, error) {
	store, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	engine := New(store, opts...)
	if err := engine.InitializeDatabase(); err != nil {
		return nil, err
	}

	slog.Info("habit engine ready", "database", cfg.DatabasePath)
	return engine, nil
}

// OpenDefault 按环境变量配置打开引擎
func OpenDefault(opts ...Option) (*Engine, error) {
	return Open(config.Load(), opts...)
}

// InitializeDatabase 确保两个持久化集合存在，幂等
func (e *Engine) InitializeDatabase() error {
	return e.habits.Initialize()
}

// GetAllHabits 返回全部习惯并标记今天是否已完成
func (e *Engine) GetAllHabits() ([]service.HabitStatus, error) {
	return e.habits.ListWithTodayStatus(e.clock())
}

// AddHabit 新建习惯并返回分配的 ID
func (e *Engine) AddHabit(input service.HabitInput) (int, error) {
	return e.habits.AddHabit(input)
}

// DeleteHabit 删除习惯并级联清除其全部完成记录
func (e *Engine) DeleteHabit(id int) error {
	return e.habits.DeleteHabit(id)
}

// UpdateHabit 部分更新习惯字段
func (e *Engine) UpdateHabit(id int, fields service.HabitUpdate) error {
	return e.habits.UpdateHabit(id, fields)
}

// ToggleHabitCompletion 切换习惯当天的完成状态并刷新连胜缓存
func (e *Engine) ToggleHabitCompletion(id int, completed bool) error {
	return e.completions.Toggle(id, completed)
}

// GetHabitStats 返回习惯当前时点的统计，未知 ID 返回零值统计
func (e *Engine) GetHabitStats(id int) (service.HabitStats, error) {
	habit, ok, err := e.habits.Find(id)
	if err != nil {
		return service.HabitStats{}, err
	}
	if !ok {
		return service.HabitStats{}, nil
	}

	idx, err := e.habits.LoadCompletions()
	if err != nil {
		return service.HabitStats{}, err
	}

	return service.ComputeStats(habit, idx, e.clock()), nil
}
