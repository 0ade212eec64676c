// Subscription implementations for RxGo
// 订阅生命周期管理：单一订阅、组合订阅、上下文绑定
package rxgo

import (
	"context"
	"fmt"
)

// Subscription 订阅接口，管理订阅的生命周期。
// Unsubscribe 幂等；IsClosed 在第一次取消订阅或自然终止后永远返回 true。
type Subscription interface {
	// Unsubscribe 取消订阅
	Unsubscribe()
	// IsClosed 检查是否已关闭
	IsClosed() bool
}

// ============================================================================
// 单一订阅
// ============================================================================

// SingleSubscription 带可选清理函数的订阅，清理函数最多执行一次
type SingleSubscription struct {
	closed   *Cell[bool]
	teardown func()
}

// NewSubscription 创建单一订阅
func NewSubscription[R Regime](teardown func()) *SingleSubscription {
	return &SingleSubscription{
		closed:   NewCell[R](false),
		teardown: teardown,
	}
}

// Unsubscribe 取消订阅
func (s *SingleSubscription) Unsubscribe() {
	if flip(s.closed) {
		return
	}
	if s.teardown != nil {
		s.teardown()
	}
}

// IsClosed 检查是否已关闭
func (s *SingleSubscription) IsClosed() bool {
	return s.closed.Load()
}

type closedSubscription struct{}

func (closedSubscription) Unsubscribe()   {}
func (closedSubscription) IsClosed() bool { return true }

// Closed 返回一个已经关闭的订阅
func Closed() Subscription {
	return closedSubscription{}
}

// ============================================================================
// 组合订阅
// ============================================================================

type compositeState struct {
	closing  bool
	closed   bool
	children []Subscription
}

// CompositeSubscription 组合订阅：取消时逐个取消所有子订阅
type CompositeSubscription struct {
	state *Cell[compositeState]
}

// NewCompositeSubscription 创建组合订阅
func NewCompositeSubscription[R Regime]() *CompositeSubscription {
	return &CompositeSubscription{state: NewCell[R](compositeState{})}
}

// Add 添加子订阅；组合订阅已关闭时立即取消该子订阅
func (cs *CompositeSubscription) Add(sub Subscription) {
	if sub == nil {
		return
	}

	immediate := false
	cs.state.Update(func(s *compositeState) {
		if s.closing {
			immediate = true
			return
		}
		s.children = append(s.children, sub)
	})

	if immediate {
		sub.Unsubscribe()
	}
}

// Remove 移除子订阅但不取消它
func (cs *CompositeSubscription) Remove(sub Subscription) {
	cs.state.Update(func(s *compositeState) {
		for i, child := range s.children {
			if child == sub {
				s.children = append(s.children[:i], s.children[i+1:]...)
				return
			}
		}
	})
}

// Len 返回仍挂载的子订阅数量
func (cs *CompositeSubscription) Len() int {
	n := 0
	cs.state.Read(func(s *compositeState) {
		n = len(s.children)
	})
	return n
}

// Unsubscribe 取消所有子订阅。
// 某个子订阅panic不会阻止其余子订阅被取消；全部尝试完成后再次抛出第一个panic。
func (cs *CompositeSubscription) Unsubscribe() {
	var children []Subscription
	already := false
	cs.state.Update(func(s *compositeState) {
		if s.closing {
			already = true
			return
		}
		s.closing = true
		children = s.children
		s.children = nil
	})
	if already {
		return
	}

	var first any
	for _, child := range children {
		if r := unsubscribeRecovering(child); r != nil {
			emitTeardownFailed(r)
			if first == nil {
				first = r
			}
		}
	}

	cs.state.Update(func(s *compositeState) {
		s.closed = true
	})

	if first != nil {
		panic(first)
	}
}

// IsClosed 检查是否已关闭
func (cs *CompositeSubscription) IsClosed() bool {
	return cs.state.Load().closed
}

func unsubscribeRecovering(sub Subscription) (recovered any) {
	defer func() {
		recovered = recover()
	}()
	sub.Unsubscribe()
	return nil
}

// ============================================================================
// 上下文绑定
// ============================================================================

type contextSubscription struct {
	Subscription
	stop func() bool
}

func (s *contextSubscription) Unsubscribe() {
	s.stop()
	s.Subscription.Unsubscribe()
}

// UnsubscribeOnDone 在 ctx 结束时自动取消订阅，用于作用域结束时的清理
func UnsubscribeOnDone(ctx context.Context, sub Subscription) Subscription {
	stop := context.AfterFunc(ctx, sub.Unsubscribe)
	return &contextSubscription{Subscription: sub, stop: stop}
}

func panicString(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(r)
}
