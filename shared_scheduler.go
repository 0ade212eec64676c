// Shared scheduler for RxGo
// 共享调度器：任务在运行时（goroutine或线程池）上执行，计时由 clockz.Clock 驱动
package rxgo

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Runtime 执行任务的运行时，例如 GoRuntime 或 ThreadPool
type Runtime interface {
	Submit(work func()) error
}

// closedRuntime 可以报告自身已关闭的运行时
type closedRuntime interface {
	IsClosed() bool
}

// ============================================================================
// GoRuntime - 每个任务一个goroutine
// ============================================================================

// GoRuntime 为每个任务启动新的goroutine，任务panic会被恢复并以信号上报
type GoRuntime struct{}

// Submit 在新goroutine中执行任务
func (GoRuntime) Submit(work func()) error {
	go runRecovering(work)
	return nil
}

func runRecovering(work func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			capitan.Emit(context.Background(), SchedulerTaskPanicked,
				KeyPanic.Field(panicString(r)),
			)
		}
	}()
	work()
	return false
}

// ============================================================================
// ThreadPool - 固定数量的工作goroutine
// ============================================================================

// ThreadPool 使用固定大小的goroutine池执行任务。
// 队列已满时 Submit 阻塞；关闭后 Submit 返回 ErrSchedulerClosed，已排队的任务仍会执行完。
type ThreadPool struct {
	workers int
	tasks   chan func()
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  atomic.Bool
	// mu 写锁保护关闭队列，Submit 持读锁发送
	mu sync.RWMutex

	submitted atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
}

// PoolMetrics ThreadPool 的运行统计快照
type PoolMetrics struct {
	Submitted  int64 // 已提交的任务
	Completed  int64 // 已结束的任务（包括panic）
	Panicked   int64 // panic 的任务
	QueueDepth int   // 等待执行的任务
	Workers    int
}

// NewThreadPool 创建线程池，默认工作goroutine数量为 runtime.NumCPU()
func NewThreadPool(opts ...Option) *ThreadPool {
	cfg := newConfig(opts)
	ctx, cancel := context.WithCancel(context.Background())

	p := &ThreadPool{
		workers: cfg.Workers,
		tasks:   make(chan func(), cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	capitan.Emit(context.Background(), ThreadPoolStarted,
		KeyWorkers.Field(cfg.Workers),
		KeyQueueSize.Field(cfg.QueueSize),
	)
	return p
}

func (p *ThreadPool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		if runRecovering(task) {
			p.panicked.Add(1)
		}
		p.completed.Add(1)
	}
}

// Submit 将任务放入队列
func (p *ThreadPool) Submit(work func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed.Load() {
		return ErrSchedulerClosed
	}
	select {
	case p.tasks <- work:
		p.submitted.Add(1)
		return nil
	case <-p.ctx.Done():
		return ErrSchedulerClosed
	}
}

// IsClosed 线程池是否已关闭
func (p *ThreadPool) IsClosed() bool {
	return p.closed.Load()
}

// Metrics 返回统计快照，可并发调用
func (p *ThreadPool) Metrics() PoolMetrics {
	return PoolMetrics{
		Submitted:  p.submitted.Load(),
		Completed:  p.completed.Load(),
		Panicked:   p.panicked.Load(),
		QueueDepth: len(p.tasks),
		Workers:    p.workers,
	}
}

// Close 停止接收任务并等待已排队的任务执行完，可重复调用
func (p *ThreadPool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		p.wg.Wait()
		return
	}
	// 先唤醒阻塞在满队列上的 Submit，拿到写锁后再关闭队列
	p.cancel()
	p.mu.Lock()
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()

	m := p.Metrics()
	capitan.Emit(context.Background(), ThreadPoolStopped,
		KeyWorkers.Field(m.Workers),
		KeyCompleted.Field(int(m.Completed)),
	)
}

// ============================================================================
// SharedScheduler
// ============================================================================

// SharedScheduler shared 模式的调度器。
//
// 延迟由 clockz 计时器在后台goroutine中等待，到期后提交给运行时执行。
// 重复任务的每次触发都等上一次执行完才开始等待下一次，因此同一任务的 tick 不会并发；
// 错过的周期按 上一次到期时间 + period 逐次补发。
type SharedScheduler struct {
	rt    Runtime
	clock clockz.Clock
}

var _ Scheduler = (*SharedScheduler)(nil)

// NewSharedScheduler 创建共享调度器，rt 为 nil 时使用 GoRuntime
func NewSharedScheduler(rt Runtime, opts ...Option) *SharedScheduler {
	if rt == nil {
		rt = GoRuntime{}
	}
	cfg := newConfig(opts)
	return &SharedScheduler{rt: rt, clock: cfg.Clock}
}

// Now 调度器的当前时间
func (s *SharedScheduler) Now() time.Time {
	return s.clock.Now()
}

// Spawn 直接提交给运行时
func (s *SharedScheduler) Spawn(work func()) error {
	return schedulingError("spawn", s.rt.Submit(work))
}

func (s *SharedScheduler) rejected() error {
	if c, ok := s.rt.(closedRuntime); ok && c.IsClosed() {
		return ErrSchedulerClosed
	}
	return nil
}

// Schedule 在 delay 之后执行一次任务
func (s *SharedScheduler) Schedule(task func(), delay time.Duration) (*SpawnHandle, error) {
	if err := s.rejected(); err != nil {
		return nil, schedulingError("schedule", err)
	}

	stop := make(chan struct{})
	h := NewSpawnHandle[Shared](func() { close(stop) })
	run := func() {
		if flip(h.closed) {
			return
		}
		task()
	}

	if delay <= 0 {
		if err := s.rt.Submit(run); err != nil {
			return nil, schedulingError("schedule", err)
		}
		return h, nil
	}

	go func() {
		timer := s.clock.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-stop:
			return
		case <-timer.C():
		}
		if err := s.rt.Submit(run); err != nil {
			emitTaskRejected("schedule", err)
			h.finish()
		}
	}()
	return h, nil
}

// ScheduleRepeating 周期执行任务
func (s *SharedScheduler) ScheduleRepeating(task func(tick int), period time.Duration, at time.Time) (*SpawnHandle, error) {
	if period <= 0 {
		return nil, schedulingError("schedule repeating", ErrInvalidPeriod)
	}
	if err := s.rejected(); err != nil {
		return nil, schedulingError("schedule repeating", err)
	}

	stop := make(chan struct{})
	h := NewSpawnHandle[Shared](func() { close(stop) })
	now := s.clock.Now()
	go s.repeat(task, period, now.Add(firstDelay(now, at, period)), h, stop)
	return h, nil
}

func (s *SharedScheduler) repeat(task func(tick int), period time.Duration, due time.Time, h *SpawnHandle, stop <-chan struct{}) {
	for tick := 0; ; tick++ {
		if wait := due.Sub(s.clock.Now()); wait > 0 {
			timer := s.clock.NewTimer(wait)
			select {
			case <-stop:
				timer.Stop()
				return
			case <-timer.C():
			}
		}
		if h.IsClosed() {
			return
		}

		done := make(chan struct{})
		err := s.rt.Submit(func() {
			defer close(done)
			if !h.IsClosed() {
				task(tick)
			}
		})
		if err != nil {
			emitTaskRejected("schedule repeating", err)
			h.finish()
			return
		}

		select {
		case <-done:
		case <-stop:
			return
		}
		due = due.Add(period)
	}
}
