package rxgo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterval(t *testing.T) {
	t.Run("序号从0开始不跳过不重复", func(t *testing.T) {
		vs := NewVirtualScheduler()
		rec := &recorder[int, error]{}
		sub := Interval[error](10*time.Millisecond, vs).Subscribe(rec)
		defer sub.Unsubscribe()

		for range 4 {
			vs.AdvanceTimeBy(10 * time.Millisecond)
		}
		vs.AdvanceTimeBy(30 * time.Millisecond)

		assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, rec.Values())
		assert.Empty(t, rec.Errors())
		assert.Equal(t, 0, rec.Completions())
	})

	t.Run("订阅即调度句柄", func(t *testing.T) {
		vs := NewVirtualScheduler()
		sub := Interval[error](time.Millisecond, vs).Subscribe(&recorder[int, error]{})
		h, ok := sub.(*SpawnHandle)
		require.True(t, ok)

		h.Unsubscribe()
		assert.True(t, sub.IsClosed())
		assert.Equal(t, 0, vs.Pending())
	})

	t.Run("复制即克隆", func(t *testing.T) {
		vs := NewVirtualScheduler()
		iv := Interval[error](time.Millisecond, vs)
		clone := iv

		a := &recorder[int, error]{}
		b := &recorder[int, error]{}
		iv.Subscribe(a)
		vs.AdvanceTimeBy(time.Millisecond)
		clone.Subscribe(b)
		vs.AdvanceTimeBy(2 * time.Millisecond)

		assert.Equal(t, []int{0, 1, 2}, a.Values())
		assert.Equal(t, []int{0, 1}, b.Values())
		assert.Equal(t, time.Millisecond, clone.Period())
	})

	t.Run("指定起始时间", func(t *testing.T) {
		vs := NewVirtualScheduler()
		rec := &recorder[int, error]{}
		IntervalAt[error](vs.Now().Add(5*time.Millisecond), 10*time.Millisecond, vs).Subscribe(rec)

		vs.AdvanceTimeBy(5 * time.Millisecond)
		assert.Equal(t, []int{0}, rec.Values())
		vs.AdvanceTimeBy(10 * time.Millisecond)
		assert.Equal(t, []int{0, 1}, rec.Values())
	})

	t.Run("观察者关闭后停止调度", func(t *testing.T) {
		vs := NewVirtualScheduler()
		rec := &closable[int, error]{}
		Interval[error](time.Millisecond, vs).Subscribe(rec)

		vs.AdvanceTimeBy(2 * time.Millisecond)
		rec.Close()
		vs.AdvanceTimeBy(2 * time.Millisecond)

		assert.Equal(t, []int{0, 1}, rec.Values())
		assert.Equal(t, 0, vs.Pending())
	})

	t.Run("调度失败", func(t *testing.T) {
		vs := NewVirtualScheduler()
		vs.Close()
		iv := Interval[error](time.Millisecond, vs)

		_, err := iv.TrySubscribe(&recorder[int, error]{})
		assert.ErrorIs(t, err, ErrSchedulerClosed)

		assert.PanicsWithError(t, err.Error(), func() {
			iv.Subscribe(&recorder[int, error]{})
		})
	})

	t.Run("非法周期", func(t *testing.T) {
		_, err := Interval[error](0, NewVirtualScheduler()).TrySubscribe(&recorder[int, error]{})
		var se *SchedulingError
		require.True(t, errors.As(err, &se))
		assert.ErrorIs(t, se, ErrInvalidPeriod)
	})
}

func TestTimer(t *testing.T) {
	t.Run("延迟后发射0然后完成", func(t *testing.T) {
		vs := NewVirtualScheduler()
		rec := &recorder[int, error]{}
		sub := Timer[error](5*time.Millisecond, vs).Subscribe(rec)

		vs.AdvanceTimeBy(4 * time.Millisecond)
		assert.Empty(t, rec.Values())

		vs.AdvanceTimeBy(time.Millisecond)
		assert.Equal(t, []int{0}, rec.Values())
		assert.Equal(t, 1, rec.Completions())
		assert.True(t, sub.IsClosed())
	})

	t.Run("触发前取消", func(t *testing.T) {
		vs := NewVirtualScheduler()
		rec := &recorder[int, error]{}
		Timer[error](5*time.Millisecond, vs).Subscribe(rec).Unsubscribe()

		vs.AdvanceTimeBy(10 * time.Millisecond)
		assert.Empty(t, rec.Values())
		assert.Equal(t, 0, rec.Completions())
	})
}
