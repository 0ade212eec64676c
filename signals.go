// Signals for RxGo
// capitan 信号：线程池生命周期、调度失败、主题终止与订阅清理异常
package rxgo

import (
	"context"

	"github.com/zoobzio/capitan"
)

// 线程池生命周期
var (
	// ThreadPoolStarted 线程池启动全部工作goroutine
	ThreadPoolStarted = capitan.NewSignal(
		"rxgo.threadpool.started",
		"Thread pool workers started",
	)

	// ThreadPoolStopped 线程池关闭且已排队任务执行完
	ThreadPoolStopped = capitan.NewSignal(
		"rxgo.threadpool.stopped",
		"Thread pool stopped",
	)
)

// 调度
var (
	// SchedulerTaskRejected 运行时拒绝了后台提交的任务，没有调用者可以收到该错误
	SchedulerTaskRejected = capitan.NewSignal(
		"rxgo.scheduler.task.rejected",
		"Scheduled task rejected by runtime",
	)

	// SchedulerTaskPanicked 任务在工作goroutine上panic
	SchedulerTaskPanicked = capitan.NewSignal(
		"rxgo.scheduler.task.panicked",
		"Scheduled task panicked",
	)
)

// 主题与订阅
var (
	// SubjectCompleted 主题广播完成
	SubjectCompleted = capitan.NewSignal(
		"rxgo.subject.completed",
		"Subject completed",
	)

	// SubjectErrored 主题广播错误
	SubjectErrored = capitan.NewSignal(
		"rxgo.subject.errored",
		"Subject errored",
	)

	// SubscriptionTeardownFailed 组合订阅的子订阅在取消时panic
	SubscriptionTeardownFailed = capitan.NewSignal(
		"rxgo.subscription.teardown.failed",
		"Child subscription teardown panicked",
	)
)

func emitTeardownFailed(r any) {
	capitan.Emit(context.Background(), SubscriptionTeardownFailed,
		KeyPanic.Field(panicString(r)),
	)
}

func emitTaskRejected(op string, err error) {
	capitan.Emit(context.Background(), SchedulerTaskRejected,
		KeyOperation.Field(op),
		KeyError.Field(err.Error()),
	)
}
