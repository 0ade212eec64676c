// Factory functions for RxGo
// 创建Observable的工厂函数
package rxgo

// ============================================================================
// 创建操作符
// ============================================================================

// Create 从自定义生产函数创建Observable。
// producer 在订阅时同步执行，收到的 Subscriber 即为返回给下游的订阅；
// 长时间运行的生产者应检查 s.IsClosed() 并通过 s.Add 挂载自身资源。
func Create[R Regime, T, E any](producer func(s *Subscriber[T, E])) Observable[T, E] {
	return ObservableFunc[T, E](func(observer Observer[T, E]) Subscription {
		s := NewSubscriber[R](observer)
		producer(s)
		return s
	})
}

// Of 依次同步发射给定的值，然后完成
func Of[R Regime, T, E any](values ...T) Observable[T, E] {
	return FromSlice[R, T, E](values)
}

// FromSlice 从切片创建Observable，下游关闭后提前停止
func FromSlice[R Regime, T, E any](values []T) Observable[T, E] {
	return Create[R](func(s *Subscriber[T, E]) {
		for _, v := range values {
			if s.IsClosed() {
				return
			}
			s.Next(v)
		}
		s.Complete()
	})
}

// Empty 创建一个立即完成的Observable
func Empty[R Regime, T, E any]() Observable[T, E] {
	return Create[R](func(s *Subscriber[T, E]) {
		s.Complete()
	})
}

// Never 创建一个永不发射任何消息的Observable
func Never[T, E any]() Observable[T, E] {
	return ObservableFunc[T, E](func(Observer[T, E]) Subscription {
		return NewSubscription[Shared](nil)
	})
}

// Throw 创建一个立即发射错误的Observable
func Throw[R Regime, T, E any](err E) Observable[T, E] {
	return Create[R](func(s *Subscriber[T, E]) {
		s.Error(err)
	})
}
