// Subscriber for RxGo
// Subscriber 同时是观察者与订阅：串行地向下游传递消息，保证终止消息只传递一次，并在终止时清理上游资源
package rxgo

type eventKind uint8

const (
	eventNext eventKind = iota
	eventError
	eventComplete
)

type event[T, E any] struct {
	kind  eventKind
	value T
	err   E
}

// deliveryState 同一时刻只有一个调用者在向下游传递，其余调用者的消息排队由它依次传递
type deliveryState[T, E any] struct {
	emitting bool
	done     bool
	queue    []event[T, E]
}

// Subscriber 包装下游观察者。
//
// 对下游的调用是串行的：正在传递时到达的消息（来自其他goroutine或回调中的重入）
// 进入队列，由正在传递的调用者按到达顺序传递。第一次 Error / Complete / Unsubscribe
// 被接受之后，新的消息一律丢弃；终止消息传递后会取消通过 Add 挂载的全部上游订阅。
// 多个上游可以共享同一个 Subscriber 来引用同一个下游。
type Subscriber[T, E any] struct {
	downstream Observer[T, E]
	state      *Cell[deliveryState[T, E]]
	teardown   *CompositeSubscription
}

// NewSubscriber 创建指定所有权模式的Subscriber
func NewSubscriber[R Regime, T, E any](downstream Observer[T, E]) *Subscriber[T, E] {
	return &Subscriber[T, E]{
		downstream: downstream,
		state:      NewCell[R](deliveryState[T, E]{}),
		teardown:   NewCompositeSubscription[R](),
	}
}

// Next 向下游传递值
func (s *Subscriber[T, E]) Next(value T) {
	if observerClosed(s.downstream) {
		return
	}
	s.emit(event[T, E]{kind: eventNext, value: value})
}

// Error 向下游传递错误并清理上游
func (s *Subscriber[T, E]) Error(err E) {
	s.emit(event[T, E]{kind: eventError, err: err})
}

// Complete 向下游传递完成并清理上游
func (s *Subscriber[T, E]) Complete() {
	s.emit(event[T, E]{kind: eventComplete})
}

func (s *Subscriber[T, E]) emit(ev event[T, E]) {
	deliver := false
	s.state.Update(func(st *deliveryState[T, E]) {
		if st.done {
			return
		}
		if ev.kind != eventNext {
			st.done = true
		}
		if st.emitting {
			st.queue = append(st.queue, ev)
			return
		}
		st.emitting = true
		deliver = true
	})
	if !deliver {
		return
	}

	for {
		s.deliver(ev)

		more := false
		s.state.Update(func(st *deliveryState[T, E]) {
			if len(st.queue) == 0 {
				st.emitting = false
				return
			}
			ev = st.queue[0]
			st.queue[0] = event[T, E]{}
			st.queue = st.queue[1:]
			more = true
		})
		if !more {
			return
		}
	}
}

func (s *Subscriber[T, E]) deliver(ev event[T, E]) {
	switch ev.kind {
	case eventNext:
		s.downstream.Next(ev.value)
	case eventError:
		s.downstream.Error(ev.err)
		s.teardown.Unsubscribe()
	case eventComplete:
		s.downstream.Complete()
		s.teardown.Unsubscribe()
	}
}

// Add 挂载一个上游资源，Subscriber 终止或被取消时一并取消
func (s *Subscriber[T, E]) Add(sub Subscription) {
	s.teardown.Add(sub)
}

// Remove 卸下一个已自行结束的上游资源，不取消它
func (s *Subscriber[T, E]) Remove(sub Subscription) {
	s.teardown.Remove(sub)
}

// Unsubscribe 停止传递，丢弃排队的消息并取消所有上游资源
func (s *Subscriber[T, E]) Unsubscribe() {
	s.state.Update(func(st *deliveryState[T, E]) {
		st.done = true
		st.queue = nil
	})
	s.teardown.Unsubscribe()
}

// IsClosed 已终止、已取消，或下游报告自身已关闭
func (s *Subscriber[T, E]) IsClosed() bool {
	done := false
	s.state.Read(func(st *deliveryState[T, E]) {
		done = st.done
	})
	return done || observerClosed(s.downstream)
}
