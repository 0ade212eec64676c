// Package rxgo provides reactive programming primitives for Go
// 基于Go泛型的响应式核心：Observable/Observer/Subscription 契约，在 local 与 shared 两种所有权模式下通用
package rxgo

// ============================================================================
// 核心接口
// ============================================================================

// Observer 观察者：接收 Next、Error、Complete 三种消息。
// Error 与 Complete 为终止消息，之后生产者不得再调用该观察者。
type Observer[T, E any] interface {
	Next(value T)
	Error(err E)
	Complete()
}

// Observable 冷的、惰性的生产者描述。每次 Subscribe 都是一次独立的运行。
type Observable[T, E any] interface {
	Subscribe(observer Observer[T, E]) Subscription
}

// ObservableFunc 将订阅函数适配为Observable
type ObservableFunc[T, E any] func(observer Observer[T, E]) Subscription

// Subscribe 调用订阅函数
func (f ObservableFunc[T, E]) Subscribe(observer Observer[T, E]) Subscription {
	return f(observer)
}

// closedReporter 可选接口：观察者报告自身已不再接收消息，生产者据此提前停止
type closedReporter interface {
	IsClosed() bool
}

func observerClosed[T, E any](o Observer[T, E]) bool {
	if r, ok := o.(closedReporter); ok {
		return r.IsClosed()
	}
	return false
}

// ============================================================================
// 回调观察者
// ============================================================================

// OnNext 处理下一个值的函数
type OnNext[T any] func(value T)

// OnError 处理错误的函数
type OnError[E any] func(err E)

// OnComplete 处理完成的函数
type OnComplete func()

// Callbacks 由回调函数组成的观察者，nil 回调被忽略
type Callbacks[T, E any] struct {
	OnNext     OnNext[T]
	OnError    OnError[E]
	OnComplete OnComplete
}

// Next 实现Observer接口
func (c Callbacks[T, E]) Next(value T) {
	if c.OnNext != nil {
		c.OnNext(value)
	}
}

// Error 实现Observer接口
func (c Callbacks[T, E]) Error(err E) {
	if c.OnError != nil {
		c.OnError(err)
	}
}

// Complete 实现Observer接口
func (c Callbacks[T, E]) Complete() {
	if c.OnComplete != nil {
		c.OnComplete()
	}
}

// SubscribeNext 只处理值的订阅
func SubscribeNext[T, E any](source Observable[T, E], onNext OnNext[T]) Subscription {
	return source.Subscribe(Callbacks[T, E]{OnNext: onNext})
}

// SubscribeErr 处理值与错误的订阅
func SubscribeErr[T, E any](source Observable[T, E], onNext OnNext[T], onError OnError[E]) Subscription {
	return source.Subscribe(Callbacks[T, E]{OnNext: onNext, OnError: onError})
}

// SubscribeWithCallbacks 使用全部三个回调订阅
func SubscribeWithCallbacks[T, E any](source Observable[T, E], onNext OnNext[T], onError OnError[E], onComplete OnComplete) Subscription {
	return source.Subscribe(Callbacks[T, E]{OnNext: onNext, OnError: onError, OnComplete: onComplete})
}

// ============================================================================
// 操作符组合
// ============================================================================

// Operator 将一个Observable转换为另一个Observable
type Operator[T, U, E any] func(source Observable[T, E]) Observable[U, E]

// Pipe 从左到右依次应用同类型的操作符
func Pipe[T, E any](source Observable[T, E], operators ...Operator[T, T, E]) Observable[T, E] {
	for _, op := range operators {
		source = op(source)
	}
	return source
}
