package rxgo

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell(t *testing.T) {
	t.Run("local模式借用冲突", func(t *testing.T) {
		c := NewCell[Local](0)

		assert.PanicsWithValue(t, ErrAlreadyBorrowed, func() {
			c.Read(func(*int) {
				c.Update(func(v *int) { *v = 1 })
			})
		})
		assert.PanicsWithValue(t, ErrAlreadyMutablyBorrowed, func() {
			c.Update(func(*int) {
				c.Load()
			})
		})

		// 冲突之后借用被正常释放
		c.Update(func(v *int) { *v = 2 })
		assert.Equal(t, 2, c.Load())
	})

	t.Run("local模式允许嵌套读", func(t *testing.T) {
		c := NewCell[Local]("a")
		var got string
		c.Read(func(outer *string) {
			c.Read(func(inner *string) {
				got = *outer + *inner
			})
		})
		assert.Equal(t, "aa", got)
	})

	t.Run("shared模式panic后毒化", func(t *testing.T) {
		c := NewCell[Shared](0)

		assert.PanicsWithValue(t, "boom", func() {
			c.Update(func(*int) { panic("boom") })
		})
		assert.PanicsWithValue(t, ErrPoisoned, func() { c.Load() })
		assert.PanicsWithValue(t, ErrPoisoned, func() {
			c.Update(func(v *int) { *v = 1 })
		})
	})

	t.Run("local模式panic不毒化", func(t *testing.T) {
		c := NewCell[Local](0)
		assert.Panics(t, func() {
			c.Update(func(*int) { panic("boom") })
		})
		c.Update(func(v *int) { *v = 3 })
		assert.Equal(t, 3, c.Load())
	})

	t.Run("shared模式并发更新", func(t *testing.T) {
		c := NewCell[Shared](0)
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 100 {
					c.Update(func(v *int) { *v++ })
				}
			}()
		}
		wg.Wait()
		require.Equal(t, 5000, c.Load())
	})

	t.Run("模式名称", func(t *testing.T) {
		assert.Equal(t, "local", RegimeName[Local]())
		assert.Equal(t, "shared", RegimeName[Shared]())
		assert.Equal(t, "local", NewCell[Local](1).Regime())
		assert.Equal(t, "shared", NewCell[Shared](1).Regime())
	})
}

func TestFlip(t *testing.T) {
	c := NewCell[Local](false)
	assert.False(t, flip(c))
	assert.True(t, flip(c))
	assert.True(t, c.Load())
}
