// Package scheduler 基于 gocron/v2 的定时任务调度，记录每个任务的运行状态供 API 展示.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// ErrJobNotFound 任务名未注册.
var ErrJobNotFound = errors.New("job not found")

// JobStatus 任务状态.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled" // 等待下一次触发
	StatusRunning   JobStatus = "running"   // 正在执行
	StatusError     JobStatus = "error"     // 上一次执行失败
)

// JobInfo 任务的运行信息.
type JobInfo struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CronExpr     string        `json:"cron_expr"`
	NextRun      time.Time     `json:"next_run"`
	LastRun      time.Time     `json:"last_run"`
	LastSuccess  time.Time     `json:"last_success,omitempty"`
	LastDuration time.Duration `json:"last_duration"`
	Status       JobStatus     `json:"status"`
	Error        string        `json:"error,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// JobFunc 任务函数，返回的错误记录到 JobInfo.Error.
type JobFunc func(ctx context.Context) error

// Scheduler 包装 gocron.Scheduler，同名任务只能注册一次.
type Scheduler struct {
	scheduler gocron.Scheduler
	mu        sync.RWMutex
	jobs      map[string]gocron.Job
	infos     map[string]*JobInfo
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	now       func() time.Time
}

// New 创建调度器，任务在 Start 之后才会触发.
func New(l zerolog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLogger(gocronLogger{l}))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]gocron.Job),
		infos:     make(map[string]*JobInfo),
		logger:    l,
		ctx:       ctx,
		cancel:    cancel,
		now:       time.Now,
	}, nil
}

// AddCron 注册 cron 任务. 同一任务的执行不会重叠.
func (s *Scheduler) AddCron(name, cronExpr string, job JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() { s.run(name, job) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}

	s.jobs[name] = j
	s.infos[name] = &JobInfo{
		ID:        j.ID().String(),
		Name:      name,
		CronExpr:  cronExpr,
		Status:    StatusScheduled,
		CreatedAt: s.now(),
	}

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("cron job registered")

	return nil
}

// run 执行任务并记录耗时与结果，panic 被记为失败.
func (s *Scheduler) run(name string, job JobFunc) {
	start := s.now()
	s.setStatus(name, func(info *JobInfo) {
		info.Status = StatusRunning
		info.LastRun = start
	})

	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()

		err = job(s.ctx)
	}()

	elapsed := s.now().Sub(start)

	s.setStatus(name, func(info *JobInfo) {
		info.LastDuration = elapsed
		if err != nil {
			info.Status = StatusError
			info.Error = err.Error()

			return
		}

		info.Status = StatusScheduled
		info.Error = ""
		info.LastSuccess = s.now()
	})

	if err != nil {
		s.logger.Error().Err(err).Str("job", name).Dur("elapsed", elapsed).Msg("job failed")
		return
	}

	s.logger.Debug().Str("job", name).Dur("elapsed", elapsed).Msg("job finished")
}

func (s *Scheduler) setStatus(name string, update func(*JobInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.infos[name]; ok {
		update(info)
	}
}

// RunNow 立即触发一次任务，不影响原有的调度计划.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	return j.RunNow()
}

// RemoveJob 按名称移除任务.
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	if err := s.scheduler.RemoveJob(j.ID()); err != nil {
		return err
	}

	delete(s.jobs, name)
	delete(s.infos, name)

	return nil
}

// Jobs 返回全部任务信息，按名称排序，NextRun 为实时值.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.infos))

	for name, info := range s.infos {
		cp := *info
		if next, err := s.jobs[name].NextRun(); err == nil {
			cp.NextRun = next
		}

		out = append(out, cp)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// Start 启动调度.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("starting scheduler")
	s.scheduler.Start()
}

// Stop 取消运行中任务的 context 并等待调度器退出.
func (s *Scheduler) Stop() error {
	s.cancel()

	return s.scheduler.Shutdown()
}

// gocronLogger 把 gocron 的日志接到 zerolog.
type gocronLogger struct {
	l zerolog.Logger
}

func (g gocronLogger) Debug(msg string, args ...any) { g.l.Debug().Fields(args).Msg(msg) }
func (g gocronLogger) Info(msg string, args ...any)  { g.l.Info().Fields(args).Msg(msg) }
func (g gocronLogger) Warn(msg string, args ...any)  { g.l.Warn().Fields(args).Msg(msg) }
func (g gocronLogger) Error(msg string, args ...any) { g.l.Error().Fields(args).Msg(msg) }
