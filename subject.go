// Subject implementations for RxGo
// Subject 既是观察者也是Observable，把收到的消息按订阅顺序广播给所有观察者；
// BehaviorSubject 额外缓存最新值，新订阅者首先收到它
package rxgo

import (
	"context"
	"fmt"
	"slices"

	"github.com/zoobzio/capitan"
)

// ============================================================================
// Subject
// ============================================================================

type subjectSlot[T, E any] struct {
	observer Observer[T, E]
	closed   *Cell[bool]
}

type subjectState[T, E any] struct {
	slots  []*subjectSlot[T, E]
	closed bool
	err    E
	hasErr bool
}

// Subject 多播主题。
//
// *Subject 即共享的中心，复制指针得到的克隆共享同一组观察者。
// 广播时先在借用内复制观察者列表，再在借用之外依次传递，因此观察者可以在回调中
// 重入地订阅、取消订阅或继续发射。终止之后订阅的观察者只会同步收到终止消息。
type Subject[R Regime, T, E any] struct {
	state *Cell[subjectState[T, E]]
}

// LocalSubject local 模式的主题
type LocalSubject[T, E any] = Subject[Local, T, E]

// SharedSubject shared 模式的主题，可以跨goroutine使用
type SharedSubject[T, E any] = Subject[Shared, T, E]

// NewSubject 创建指定所有权模式的主题
func NewSubject[R Regime, T, E any]() *Subject[R, T, E] {
	return &Subject[R, T, E]{state: NewCell[R](subjectState[T, E]{})}
}

// NewLocalSubject 创建 local 模式的主题
func NewLocalSubject[T, E any]() *LocalSubject[T, E] {
	return NewSubject[Local, T, E]()
}

// NewSharedSubject 创建 shared 模式的主题
func NewSharedSubject[T, E any]() *SharedSubject[T, E] {
	return NewSubject[Shared, T, E]()
}

// Subscribe 添加观察者，返回只移除该观察者的订阅
func (s *Subject[R, T, E]) Subscribe(observer Observer[T, E]) Subscription {
	slot := &subjectSlot[T, E]{observer: observer, closed: NewCell[R](false)}

	var (
		closed bool
		hasErr bool
		err    E
	)
	s.state.Update(func(st *subjectState[T, E]) {
		if st.closed {
			closed, hasErr, err = true, st.hasErr, st.err
			return
		}
		st.slots = append(st.slots, slot)
	})

	if closed {
		if hasErr {
			observer.Error(err)
		} else {
			observer.Complete()
		}
		return Closed()
	}
	return &slotSubscription[R, T, E]{subject: s, slot: slot}
}

// Next 广播值
func (s *Subject[R, T, E]) Next(value T) {
	var slots []*subjectSlot[T, E]
	s.state.Read(func(st *subjectState[T, E]) {
		if !st.closed {
			slots = slices.Clone(st.slots)
		}
	})

	var stale []*subjectSlot[T, E]
	for _, slot := range slots {
		if slot.closed.Load() {
			continue
		}
		if observerClosed(slot.observer) {
			stale = append(stale, slot)
			continue
		}
		slot.observer.Next(value)
	}

	// 自行报告关闭的观察者在广播之后移除
	for _, slot := range stale {
		if !flip(slot.closed) {
			s.remove(slot)
		}
	}
}

// Error 广播错误并终止主题，只有第一次终止生效
func (s *Subject[R, T, E]) Error(err E) {
	slots, ok := s.terminate(func(st *subjectState[T, E]) {
		st.err, st.hasErr = err, true
	})
	if !ok {
		return
	}

	for _, slot := range slots {
		if flip(slot.closed) {
			continue
		}
		slot.observer.Error(err)
	}

	capitan.Emit(context.Background(), SubjectErrored,
		KeyRegime.Field(RegimeName[R]()),
		KeyObservers.Field(len(slots)),
		KeyError.Field(fmt.Sprint(err)),
	)
}

// Complete 广播完成并终止主题，只有第一次终止生效
func (s *Subject[R, T, E]) Complete() {
	slots, ok := s.terminate(nil)
	if !ok {
		return
	}

	for _, slot := range slots {
		if flip(slot.closed) {
			continue
		}
		slot.observer.Complete()
	}

	capitan.Emit(context.Background(), SubjectCompleted,
		KeyRegime.Field(RegimeName[R]()),
		KeyObservers.Field(len(slots)),
	)
}

// terminate 原子地标记关闭并取走所有观察者
func (s *Subject[R, T, E]) terminate(record func(st *subjectState[T, E])) ([]*subjectSlot[T, E], bool) {
	var (
		slots []*subjectSlot[T, E]
		ok    bool
	)
	s.state.Update(func(st *subjectState[T, E]) {
		if st.closed {
			return
		}
		st.closed = true
		if record != nil {
			record(st)
		}
		slots, st.slots = st.slots, nil
		ok = true
	})
	return slots, ok
}

func (s *Subject[R, T, E]) remove(slot *subjectSlot[T, E]) {
	s.state.Update(func(st *subjectState[T, E]) {
		if i := slices.Index(st.slots, slot); i >= 0 {
			st.slots = slices.Delete(st.slots, i, i+1)
		}
	})
}

// ObserverCount 当前观察者数量
func (s *Subject[R, T, E]) ObserverCount() int {
	n := 0
	s.state.Read(func(st *subjectState[T, E]) {
		n = len(st.slots)
	})
	return n
}

// HasObservers 是否有观察者
func (s *Subject[R, T, E]) HasObservers() bool {
	return s.ObserverCount() > 0
}

// IsClosed 是否已完成或出错
func (s *Subject[R, T, E]) IsClosed() bool {
	closed := false
	s.state.Read(func(st *subjectState[T, E]) {
		closed = st.closed
	})
	return closed
}

// slotSubscription 主题中单个观察者的订阅
type slotSubscription[R Regime, T, E any] struct {
	subject *Subject[R, T, E]
	slot    *subjectSlot[T, E]
}

func (s *slotSubscription[R, T, E]) Unsubscribe() {
	if flip(s.slot.closed) {
		return
	}
	s.subject.remove(s.slot)
}

func (s *slotSubscription[R, T, E]) IsClosed() bool {
	return s.slot.closed.Load() || s.subject.IsClosed()
}

// ============================================================================
// BehaviorSubject
// ============================================================================

// BehaviorSubject 行为主题，保存最新值并在订阅时先发送它
type BehaviorSubject[R Regime, T, E any] struct {
	*Subject[R, T, E]
	value *Cell[T]
}

// LocalBehaviorSubject local 模式的行为主题
type LocalBehaviorSubject[T, E any] = BehaviorSubject[Local, T, E]

// SharedBehaviorSubject shared 模式的行为主题
type SharedBehaviorSubject[T, E any] = BehaviorSubject[Shared, T, E]

// NewBehaviorSubject 以初始值创建行为主题
func NewBehaviorSubject[R Regime, T, E any](initial T) *BehaviorSubject[R, T, E] {
	return &BehaviorSubject[R, T, E]{
		Subject: NewSubject[R, T, E](),
		value:   NewCell[R](initial),
	}
}

// NewLocalBehaviorSubject 创建 local 模式的行为主题
func NewLocalBehaviorSubject[T, E any](initial T) *LocalBehaviorSubject[T, E] {
	return NewBehaviorSubject[Local, T, E](initial)
}

// NewSharedBehaviorSubject 创建 shared 模式的行为主题
func NewSharedBehaviorSubject[T, E any](initial T) *SharedBehaviorSubject[T, E] {
	return NewBehaviorSubject[Shared, T, E](initial)
}

// Subscribe 先同步发送当前值，再添加观察者；主题已终止时只发送终止消息
func (b *BehaviorSubject[R, T, E]) Subscribe(observer Observer[T, E]) Subscription {
	if !b.IsClosed() {
		observer.Next(b.Value())
		if observerClosed(observer) {
			return Closed()
		}
	}
	return b.Subject.Subscribe(observer)
}

// Next 更新缓存值然后广播
func (b *BehaviorSubject[R, T, E]) Next(value T) {
	if b.IsClosed() {
		return
	}
	b.value.Update(func(v *T) {
		*v = value
	})
	b.Subject.Next(value)
}

// Value 当前缓存的值
func (b *BehaviorSubject[R, T, E]) Value() T {
	return b.value.Load()
}
