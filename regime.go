// Ownership regimes for RxGo
// 所有权模式：local（单所有者、非线程安全、运行时借用检查）与 shared（线程安全、读写锁）
package rxgo

import (
	"sync"
	"sync/atomic"
)

// ============================================================================
// 所有权模式标记
// ============================================================================

// Local 单goroutine所有权模式。状态由借用计数器保护，违规访问会立即panic。
type Local struct{}

// Shared 多goroutine所有权模式。状态由读写锁保护。
type Shared struct{}

// Regime 所有权模式约束。所有依赖可变状态的组件都以它作为第一个类型参数，
// 同一份泛型定义同时生成 local 与 shared 两套组件。
type Regime interface {
	Local | Shared
}

// RegimeName 返回所有权模式的名称
func RegimeName[R Regime]() string {
	var r R
	if _, ok := any(r).(Shared); ok {
		return "shared"
	}
	return "local"
}

// ============================================================================
// 访问守卫
// ============================================================================

type guard interface {
	lock()
	unlock()
	rlock()
	runlock()
	poison()
}

func newGuard[R Regime]() guard {
	var r R
	if _, ok := any(r).(Shared); ok {
		return &lockGuard{}
	}
	return &borrowGuard{}
}

// borrowGuard 本地借用计数：>0 表示共享借用数，-1 表示独占借用
type borrowGuard struct {
	borrows int
}

func (g *borrowGuard) rlock() {
	if g.borrows < 0 {
		panic(ErrAlreadyMutablyBorrowed)
	}
	g.borrows++
}

func (g *borrowGuard) runlock() {
	g.borrows--
}

func (g *borrowGuard) lock() {
	switch {
	case g.borrows < 0:
		panic(ErrAlreadyMutablyBorrowed)
	case g.borrows > 0:
		panic(ErrAlreadyBorrowed)
	}
	g.borrows = -1
}

func (g *borrowGuard) unlock() {
	g.borrows = 0
}

// 本地借用在panic展开时正常释放，不做毒化
func (g *borrowGuard) poison() {}

// lockGuard 共享读写锁，持锁期间panic会毒化守卫
type lockGuard struct {
	mu       sync.RWMutex
	poisoned atomic.Bool
}

func (g *lockGuard) lock() {
	g.mu.Lock()
	if g.poisoned.Load() {
		g.mu.Unlock()
		panic(ErrPoisoned)
	}
}

func (g *lockGuard) unlock() {
	g.mu.Unlock()
}

func (g *lockGuard) rlock() {
	g.mu.RLock()
	if g.poisoned.Load() {
		g.mu.RUnlock()
		panic(ErrPoisoned)
	}
}

func (g *lockGuard) runlock() {
	g.mu.RUnlock()
}

func (g *lockGuard) poison() {
	g.poisoned.Store(true)
}

// ============================================================================
// Cell - 按所有权模式保护的可变值
// ============================================================================

// Cell 按所有权模式保护的可变值。指针可自由复制，所有副本引用同一份状态。
//
// 回调内不得再次访问同一个Cell：local 模式会panic，shared 模式会死锁。
type Cell[V any] struct {
	g      guard
	v      V
	regime string
}

// NewCell 创建指定所有权模式的Cell
func NewCell[R Regime, V any](v V) *Cell[V] {
	return &Cell[V]{g: newGuard[R](), v: v, regime: RegimeName[R]()}
}

// Load 在共享借用下复制出当前值
func (c *Cell[V]) Load() V {
	c.g.rlock()
	defer c.g.runlock()
	return c.v
}

// Read 在共享借用下访问当前值，fn 不得修改它
func (c *Cell[V]) Read(fn func(v *V)) {
	c.g.rlock()
	defer c.g.runlock()
	fn(&c.v)
}

// Update 在独占借用下修改当前值
func (c *Cell[V]) Update(fn func(v *V)) {
	c.g.lock()
	done := false
	defer func() {
		if !done {
			c.g.poison()
		}
		c.g.unlock()
	}()
	fn(&c.v)
	done = true
}

// Regime 返回 "local" 或 "shared"
func (c *Cell[V]) Regime() string {
	return c.regime
}

// flip 将布尔Cell置为true，返回之前的值
func flip(c *Cell[bool]) (was bool) {
	c.Update(func(v *bool) {
		was = *v
		*v = true
	})
	return was
}
