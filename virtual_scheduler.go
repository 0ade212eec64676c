// Virtual clock scheduler for RxGo
// 虚拟时钟调度器：手动推进时间，确定性地执行到期任务，用于测试
package rxgo

import (
	"time"

	"github.com/zoobzio/clockz"
)

// VirtualScheduler 由 clockz.FakeClock 驱动的调度器。
//
// Advance 只推进时间；RunTasks 按到期时间执行所有到期任务，时间相同时按调度顺序。
// 一次推进跨越多个周期时，重复任务会按连续的 tick 逐次补发。
// 可以在多个goroutine中使用，任务在内部锁之外执行。
type VirtualScheduler struct {
	queueScheduler
	clock *clockz.FakeClock
}

var _ Scheduler = (*VirtualScheduler)(nil)

// NewVirtualScheduler 创建虚拟时钟调度器
func NewVirtualScheduler() *VirtualScheduler {
	return NewVirtualSchedulerWithClock(clockz.NewFakeClock())
}

// NewVirtualSchedulerWithClock 使用给定的假时钟创建调度器
func NewVirtualSchedulerWithClock(clock *clockz.FakeClock) *VirtualScheduler {
	return &VirtualScheduler{
		queueScheduler: queueScheduler{now: clock.Now, queue: newTaskQueue[Shared]()},
		clock:          clock,
	}
}

// Clock 返回底层假时钟
func (s *VirtualScheduler) Clock() *clockz.FakeClock {
	return s.clock
}

// Advance 推进虚拟时间，不执行任务
func (s *VirtualScheduler) Advance(d time.Duration) {
	s.clock.Advance(d)
}

// RunTasks 执行所有到期任务，返回执行次数
func (s *VirtualScheduler) RunTasks() int {
	return s.queue.runDue(s.now)
}

// AdvanceTimeBy 推进时间并执行所有到期任务
func (s *VirtualScheduler) AdvanceTimeBy(d time.Duration) int {
	s.Advance(d)
	return s.RunTasks()
}
