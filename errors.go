// Error values for RxGo
// 运行时错误定义：资源争用、调度失败、配置错误
package rxgo

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyBorrowed 本地单元格在存在借用时被请求独占借用
	ErrAlreadyBorrowed = errors.New("rxgo: cell already borrowed")

	// ErrAlreadyMutablyBorrowed 本地单元格在独占借用期间被再次借用
	ErrAlreadyMutablyBorrowed = errors.New("rxgo: cell already mutably borrowed")

	// ErrPoisoned 共享单元格在持锁期间发生panic后不可再用
	ErrPoisoned = errors.New("rxgo: cell poisoned by a panic while locked")

	// ErrSchedulerClosed 调度器或运行时已关闭，拒绝新任务
	ErrSchedulerClosed = errors.New("rxgo: scheduler is closed")

	// ErrInvalidPeriod 重复调度的周期必须为正
	ErrInvalidPeriod = errors.New("rxgo: period must be positive")

	// ErrInvalidConfig 配置值非法
	ErrInvalidConfig = errors.New("rxgo: invalid config")
)

// SchedulingError 调度失败，包装运行时返回的原因
type SchedulingError struct {
	Op  string
	Err error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("rxgo: %s: %v", e.Op, e.Err)
}

// Unwrap 返回底层原因
func (e *SchedulingError) Unwrap() error {
	return e.Err
}

func schedulingError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *SchedulingError
	if errors.As(err, &se) {
		return err
	}
	return &SchedulingError{Op: op, Err: err}
}
