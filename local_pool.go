// Local cooperative executor for RxGo
// 本地协作式执行器：所有任务在调用 Run 的goroutine上依次执行，不加锁
package rxgo

import (
	"github.com/zoobzio/clockz"
)

// LocalPool local 模式的调度器。
//
// Spawn、Schedule、ScheduleRepeating 只把任务放入队列；Run 在当前goroutine上
// 执行到期任务，并在下一个到期时间之前等待时钟。内部状态由 local Cell 保护，
// 只能在一个goroutine上使用；任务中重入调度是安全的。
type LocalPool struct {
	queueScheduler
	clock clockz.Clock
}

var _ Scheduler = (*LocalPool)(nil)

// NewLocalPool 创建本地执行器，可用 WithClock 替换时钟
func NewLocalPool(opts ...Option) *LocalPool {
	cfg := newConfig(opts)
	return &LocalPool{
		queueScheduler: queueScheduler{now: cfg.Clock.Now, queue: newTaskQueue[Local]()},
		clock:          cfg.Clock,
	}
}

// Run 执行任务直到队列为空。仍在重复的任务会让 Run 一直运行，直到它们被取消。
func (p *LocalPool) Run() {
	for {
		p.queue.runDue(p.now)

		due, ok := p.queue.nextDue()
		if !ok {
			return
		}
		if wait := due.Sub(p.clock.Now()); wait > 0 {
			timer := p.clock.NewTimer(wait)
			<-timer.C()
		}
	}
}

// RunUntilStalled 只执行当前已到期的任务，不等待，返回执行次数
func (p *LocalPool) RunUntilStalled() int {
	return p.queue.runDue(p.now)
}
