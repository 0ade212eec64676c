package rxgo

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// recorder 记录收到的全部消息，可跨goroutine使用
type recorder[T, E any] struct {
	mu        sync.Mutex
	values    []T
	errs      []E
	completed int
}

func (r *recorder[T, E]) Next(value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, value)
}

func (r *recorder[T, E]) Error(err E) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder[T, E]) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func (r *recorder[T, E]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...)
}

func (r *recorder[T, E]) Errors() []E {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]E(nil), r.errs...)
}

func (r *recorder[T, E]) Completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// closable 可以主动报告关闭的观察者
type closable[T, E any] struct {
	recorder[T, E]
	closed bool
}

func (c *closable[T, E]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *closable[T, E]) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// eventLog 按到达顺序记录消息，并统计同时进入回调的调用者数量
type eventLog[T, E any] struct {
	mu      sync.Mutex
	events  []string
	active  atomic.Int32
	overlap atomic.Bool
}

func (l *eventLog[T, E]) record(ev string) {
	if l.active.Add(1) > 1 {
		l.overlap.Store(true)
	}
	defer l.active.Add(-1)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog[T, E]) Next(value T) { l.record(fmt.Sprint("next:", value)) }
func (l *eventLog[T, E]) Error(err E)  { l.record(fmt.Sprint("error:", err)) }
func (l *eventLog[T, E]) Complete()    { l.record("complete") }

func (l *eventLog[T, E]) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// parking 在被激活后的第一次 IsClosed 或 Next 中停住，直到 release 被关闭
type parking[T, E any] struct {
	eventLog[T, E]
	parkInClosed atomic.Bool
	parkInNext   atomic.Bool
	parked       chan struct{}
	release      chan struct{}
}

func newParking[T, E any]() *parking[T, E] {
	return &parking[T, E]{
		parked:  make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (p *parking[T, E]) park() {
	close(p.parked)
	<-p.release
}

func (p *parking[T, E]) IsClosed() bool {
	if p.parkInClosed.CompareAndSwap(true, false) {
		p.park()
	}
	return false
}

func (p *parking[T, E]) Next(value T) {
	if p.parkInNext.CompareAndSwap(true, false) {
		p.park()
	}
	p.eventLog.Next(value)
}
