// Scheduler abstraction for RxGo
// 调度器：将回调转换为可取消的、可延迟的或周期重复的任务
package rxgo

import (
	"container/heap"
	"time"
)

// ============================================================================
// 调度器接口
// ============================================================================

// Scheduler 调度器接口，控制任务执行时机和方式
type Scheduler interface {
	// Spawn 提交一个即发即忘的任务
	Spawn(work func()) error

	// Schedule 在 delay 之后执行一次任务；delay <= 0 表示尽快执行
	Schedule(task func(), delay time.Duration) (*SpawnHandle, error)

	// ScheduleRepeating 周期执行任务，tick 从0开始每次加1。
	// at 为零值时首次触发在一个周期之后；at 已过去时立即触发。
	ScheduleRepeating(task func(tick int), period time.Duration, at time.Time) (*SpawnHandle, error)

	// Now 调度器的当前时间
	Now() time.Time
}

// ScheduleState 带状态的一次性调度
func ScheduleState[S any](s Scheduler, task func(S), delay time.Duration, state S) (*SpawnHandle, error) {
	return s.Schedule(func() { task(state) }, delay)
}

// firstDelay 计算重复任务的首次延迟
func firstDelay(now, at time.Time, period time.Duration) time.Duration {
	if at.IsZero() {
		return period
	}
	if at.After(now) {
		return at.Sub(now)
	}
	return 0
}

// ============================================================================
// SpawnHandle - 调度任务的取消句柄
// ============================================================================

// SpawnHandle 包装调度器原生的取消操作和一个独立的关闭标记。
// 原生取消操作最多被调用一次。
type SpawnHandle struct {
	closed *Cell[bool]
	abort  func()
}

// NewSpawnHandle 用原生取消函数创建句柄，关闭标记的所有权模式与调度器一致
func NewSpawnHandle[R Regime](abort func()) *SpawnHandle {
	return &SpawnHandle{
		closed: NewCell[R](false),
		abort:  abort,
	}
}

// Unsubscribe 取消任务，不影响已经完成的触发
func (h *SpawnHandle) Unsubscribe() {
	if flip(h.closed) {
		return
	}
	if h.abort != nil {
		h.abort()
	}
}

// IsClosed 已取消或一次性任务已执行
func (h *SpawnHandle) IsClosed() bool {
	return h.closed.Load()
}

// finish 标记自然结束，不调用原生取消
func (h *SpawnHandle) finish() {
	flip(h.closed)
}

// ============================================================================
// 时间有序的任务队列，VirtualScheduler 与 LocalPool 共用
// ============================================================================

type timerEntry struct {
	due    time.Time
	seq    uint64
	period time.Duration // 0 表示一次性任务
	tick   int
	run    func(tick int)
	handle *SpawnHandle
	index  int
}

// timerHeap 按到期时间排序，相同时间按调度顺序
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

type queueState struct {
	timers timerHeap
	seq    uint64
	closed bool
}

type taskQueue struct {
	state     *Cell[queueState]
	newHandle func(abort func()) *SpawnHandle
}

func newTaskQueue[R Regime]() *taskQueue {
	return &taskQueue{
		state:     NewCell[R](queueState{}),
		newHandle: NewSpawnHandle[R],
	}
}

func (q *taskQueue) add(due time.Time, period time.Duration, run func(tick int)) (*SpawnHandle, error) {
	e := &timerEntry{due: due, period: period, run: run, index: -1}
	e.handle = q.newHandle(func() {
		q.state.Update(func(s *queueState) {
			if e.index >= 0 {
				heap.Remove(&s.timers, e.index)
			}
		})
	})

	var err error
	q.state.Update(func(s *queueState) {
		if s.closed {
			err = ErrSchedulerClosed
			return
		}
		s.seq++
		e.seq = s.seq
		heap.Push(&s.timers, e)
	})
	if err != nil {
		return nil, err
	}
	return e.handle, nil
}

// runDue 依次执行所有到期任务（包括重复任务的补发），任务在借用之外执行
func (q *taskQueue) runDue(now func() time.Time) int {
	ran := 0
	for {
		var e *timerEntry
		current := now()
		q.state.Update(func(s *queueState) {
			if len(s.timers) > 0 && !s.timers[0].due.After(current) {
				e = heap.Pop(&s.timers).(*timerEntry)
			}
		})
		if e == nil {
			return ran
		}
		if e.handle.IsClosed() {
			continue
		}

		tick := e.tick
		if e.period <= 0 {
			e.handle.finish()
		}
		e.run(tick)
		ran++

		if e.period > 0 {
			e.tick++
			e.due = e.due.Add(e.period)
			q.state.Update(func(s *queueState) {
				if !s.closed && !e.handle.IsClosed() {
					heap.Push(&s.timers, e)
				}
			})
		}
	}
}

func (q *taskQueue) nextDue() (time.Time, bool) {
	var due time.Time
	ok := false
	q.state.Read(func(s *queueState) {
		if len(s.timers) > 0 {
			due = s.timers[0].due
			ok = true
		}
	})
	return due, ok
}

func (q *taskQueue) pending() int {
	n := 0
	q.state.Read(func(s *queueState) {
		n = len(s.timers)
	})
	return n
}

func (q *taskQueue) close() {
	var dropped timerHeap
	q.state.Update(func(s *queueState) {
		s.closed = true
		dropped = s.timers
		for _, e := range dropped {
			e.index = -1
		}
		s.timers = nil
	})
	for _, e := range dropped {
		e.handle.finish()
	}
}

// queueScheduler 基于任务队列的调度器实现，时间来源由嵌入者提供
type queueScheduler struct {
	now   func() time.Time
	queue *taskQueue
}

// Now 调度器的当前时间
func (s *queueScheduler) Now() time.Time {
	return s.now()
}

// Spawn 将任务排入当前时刻
func (s *queueScheduler) Spawn(work func()) error {
	_, err := s.queue.add(s.now(), 0, func(int) { work() })
	return schedulingError("spawn", err)
}

// Schedule 在 delay 之后执行一次任务
func (s *queueScheduler) Schedule(task func(), delay time.Duration) (*SpawnHandle, error) {
	if delay < 0 {
		delay = 0
	}
	h, err := s.queue.add(s.now().Add(delay), 0, func(int) { task() })
	if err != nil {
		return nil, schedulingError("schedule", err)
	}
	return h, nil
}

// ScheduleRepeating 周期执行任务
func (s *queueScheduler) ScheduleRepeating(task func(tick int), period time.Duration, at time.Time) (*SpawnHandle, error) {
	if period <= 0 {
		return nil, schedulingError("schedule repeating", ErrInvalidPeriod)
	}
	now := s.now()
	h, err := s.queue.add(now.Add(firstDelay(now, at, period)), period, task)
	if err != nil {
		return nil, schedulingError("schedule repeating", err)
	}
	return h, nil
}

// Pending 尚未执行或仍在重复的任务数量
func (s *queueScheduler) Pending() int {
	return s.queue.pending()
}

// Close 丢弃所有任务，之后的调度返回 ErrSchedulerClosed
func (s *queueScheduler) Close() {
	s.queue.close()
}
