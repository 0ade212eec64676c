// Time-based producers for RxGo
// 基于调度器的时间型Observable：Interval 与 Timer
package rxgo

import (
	"sync/atomic"
	"time"
)

// IntervalObservable 按固定周期发射递增序号的Observable。
// 它只是一个描述，复制即克隆；每次订阅在调度器上注册一个独立的重复任务。
type IntervalObservable[E any] struct {
	period    time.Duration
	at        time.Time
	scheduler Scheduler
}

// Interval 每隔 period 发射 0, 1, 2, ...，首次发射在一个周期之后
func Interval[E any](period time.Duration, scheduler Scheduler) IntervalObservable[E] {
	return IntervalObservable[E]{period: period, scheduler: scheduler}
}

// IntervalAt 首次发射在 at；at 已过去时立即发射
func IntervalAt[E any](at time.Time, period time.Duration, scheduler Scheduler) IntervalObservable[E] {
	return IntervalObservable[E]{period: period, at: at, scheduler: scheduler}
}

// Subscribe 实现Observable接口，返回的订阅即为调度句柄。
// 调度失败时panic，需要处理错误时使用 TrySubscribe。
func (o IntervalObservable[E]) Subscribe(observer Observer[int, E]) Subscription {
	h, err := o.TrySubscribe(observer)
	if err != nil {
		panic(err)
	}
	return h
}

// TrySubscribe 与 Subscribe 相同，但返回调度错误
func (o IntervalObservable[E]) TrySubscribe(observer Observer[int, E]) (*SpawnHandle, error) {
	var self atomic.Pointer[SpawnHandle]
	h, err := o.scheduler.ScheduleRepeating(func(tick int) {
		if observerClosed(observer) {
			if h := self.Load(); h != nil {
				h.Unsubscribe()
			}
			return
		}
		observer.Next(tick)
	}, o.period, o.at)
	if err != nil {
		return nil, err
	}
	self.Store(h)
	return h, nil
}

// Period 发射周期
func (o IntervalObservable[E]) Period() time.Duration {
	return o.period
}

// Timer 在 delay 之后发射一个 0，然后完成
func Timer[E any](delay time.Duration, scheduler Scheduler) Observable[int, E] {
	return ObservableFunc[int, E](func(observer Observer[int, E]) Subscription {
		h, err := scheduler.Schedule(func() {
			if observerClosed(observer) {
				return
			}
			observer.Next(0)
			observer.Complete()
		}, delay)
		if err != nil {
			panic(err)
		}
		return h
	})
}
