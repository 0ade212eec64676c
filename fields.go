// Signal fields for RxGo
// 信号携带的字段键
package rxgo

import "github.com/zoobzio/capitan"

var (
	// KeyError 失败原因
	KeyError = capitan.NewStringKey("error")

	// KeyPanic 恢复到的panic值
	KeyPanic = capitan.NewStringKey("panic")

	// KeyOperation 失败的调度操作
	KeyOperation = capitan.NewStringKey("operation")

	// KeyRegime 发出信号的组件的所有权模式
	KeyRegime = capitan.NewStringKey("regime")

	// KeyObservers 收到终止消息的观察者数量
	KeyObservers = capitan.NewIntKey("observers")

	// KeyWorkers 线程池工作goroutine数量
	KeyWorkers = capitan.NewIntKey("workers")

	// KeyQueueSize 线程池任务队列容量
	KeyQueueSize = capitan.NewIntKey("queue_size")

	// KeyCompleted 线程池停止前执行完的任务数
	KeyCompleted = capitan.NewIntKey("completed")
)
