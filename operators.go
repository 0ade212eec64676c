// Operators for RxGo
// 操作符：TakeUntil、Take、Map
package rxgo

// ============================================================================
// TakeUntil
// ============================================================================

// TakeUntil 转发 source 的消息，直到 notifier 发出第一个值。
//
// notifier 的第一个值让下游完成，错误让下游出错，两者都会取消 source 与 notifier；
// notifier 自行完成时只卸下它自己的订阅，source 继续。
// source 先终止时终止消息只转发一次，notifier 随之被取消。
func TakeUntil[R Regime, T, N, E any](source Observable[T, E], notifier Observable[N, E]) Observable[T, E] {
	return ObservableFunc[T, E](func(observer Observer[T, E]) Subscription {
		s := NewSubscriber[R](observer)

		trigger := &untilObserver[N, T, E]{
			target: s,
			done:   NewCell[R](false),
			sub:    NewCell[R, Subscription](nil),
		}
		notifierSub := notifier.Subscribe(trigger)
		trigger.attach(notifierSub)

		if !s.IsClosed() {
			s.Add(source.Subscribe(s))
		}
		return s
	})
}

// TakeUntilOp TakeUntil 的 Pipe 形式
func TakeUntilOp[R Regime, T, N, E any](notifier Observable[N, E]) Operator[T, T, E] {
	return func(source Observable[T, E]) Observable[T, E] {
		return TakeUntil[R](source, notifier)
	}
}

// untilObserver 订阅 notifier，把它的消息转换为对下游的终止
type untilObserver[N, T, E any] struct {
	target *Subscriber[T, E]
	done   *Cell[bool]
	sub    *Cell[Subscription]
}

func (u *untilObserver[N, T, E]) Next(N) {
	u.target.Complete()
}

func (u *untilObserver[N, T, E]) Error(err E) {
	u.target.Error(err)
}

func (u *untilObserver[N, T, E]) Complete() {
	flip(u.done)
	if sub := u.sub.Load(); sub != nil {
		u.target.Remove(sub)
	}
}

func (u *untilObserver[N, T, E]) IsClosed() bool {
	return u.done.Load() || u.target.IsClosed()
}

// attach 记录 notifier 的订阅；notifier 已经同步完成时不再挂载
func (u *untilObserver[N, T, E]) attach(sub Subscription) {
	u.sub.Update(func(s *Subscription) {
		*s = sub
	})
	if u.done.Load() {
		return
	}
	u.target.Add(sub)
	if u.done.Load() {
		u.target.Remove(sub)
	}
}

// ============================================================================
// Take
// ============================================================================

// Take 只转发前 n 个值，然后完成并取消上游；n <= 0 时立即完成，不订阅 source
func Take[R Regime, T, E any](source Observable[T, E], n int) Observable[T, E] {
	return ObservableFunc[T, E](func(observer Observer[T, E]) Subscription {
		s := NewSubscriber[R](observer)
		if n <= 0 {
			s.Complete()
			return s
		}
		t := &takeObserver[T, E]{target: s, remaining: NewCell[R](n)}
		s.Add(source.Subscribe(t))
		return s
	})
}

// TakeOp Take 的 Pipe 形式
func TakeOp[R Regime, T, E any](n int) Operator[T, T, E] {
	return func(source Observable[T, E]) Observable[T, E] {
		return Take[R](source, n)
	}
}

type takeObserver[T, E any] struct {
	target    *Subscriber[T, E]
	remaining *Cell[int]
}

func (t *takeObserver[T, E]) Next(value T) {
	left := -1
	t.remaining.Update(func(r *int) {
		if *r > 0 {
			*r--
			left = *r
		}
	})
	if left < 0 {
		return
	}
	t.target.Next(value)
	if left == 0 {
		t.target.Complete()
	}
}

func (t *takeObserver[T, E]) Error(err E) {
	t.target.Error(err)
}

func (t *takeObserver[T, E]) Complete() {
	t.target.Complete()
}

func (t *takeObserver[T, E]) IsClosed() bool {
	return t.target.IsClosed()
}

// ============================================================================
// Map
// ============================================================================

// Map 用 fn 转换每个值
func Map[T, U, E any](source Observable[T, E], fn func(T) U) Observable[U, E] {
	return ObservableFunc[U, E](func(observer Observer[U, E]) Subscription {
		return source.Subscribe(mapObserver[T, U, E]{downstream: observer, fn: fn})
	})
}

// MapOp Map 的 Pipe 形式
func MapOp[T, U, E any](fn func(T) U) Operator[T, U, E] {
	return func(source Observable[T, E]) Observable[U, E] {
		return Map(source, fn)
	}
}

type mapObserver[T, U, E any] struct {
	downstream Observer[U, E]
	fn         func(T) U
}

func (m mapObserver[T, U, E]) Next(value T) { m.downstream.Next(m.fn(value)) }
func (m mapObserver[T, U, E]) Error(err E)  { m.downstream.Error(err) }
func (m mapObserver[T, U, E]) Complete()    { m.downstream.Complete() }

func (m mapObserver[T, U, E]) IsClosed() bool {
	return observerClosed(m.downstream)
}
