package rxgo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/zoobzio/capitan"
)

func TestSignalNames(t *testing.T) {
	assert.Equal(t, "rxgo.threadpool.started", ThreadPoolStarted.Name())
	assert.Equal(t, "rxgo.threadpool.stopped", ThreadPoolStopped.Name())
	assert.Equal(t, "rxgo.scheduler.task.rejected", SchedulerTaskRejected.Name())
	assert.Equal(t, "rxgo.scheduler.task.panicked", SchedulerTaskPanicked.Name())
	assert.Equal(t, "rxgo.subject.completed", SubjectCompleted.Name())
	assert.Equal(t, "rxgo.subject.errored", SubjectErrored.Name())
	assert.Equal(t, "rxgo.subscription.teardown.failed", SubscriptionTeardownFailed.Name())
}

func TestSubjectSignals(t *testing.T) {
	errored := make(chan string, 16)
	capitan.Hook(SubjectErrored, func(_ context.Context, e *capitan.Event) {
		regime, _ := KeyRegime.From(e)
		msg, _ := KeyError.From(e)
		observers, _ := KeyObservers.From(e)
		if msg == "signal test" {
			errored <- fmt.Sprintf("%s:%s:%d", regime, msg, observers)
		}
	})

	subject := NewLocalSubject[int, error]()
	subject.Subscribe(&recorder[int, error]{})
	subject.Subscribe(&recorder[int, error]{})
	subject.Error(errors.New("signal test"))

	select {
	case got := <-errored:
		assert.Equal(t, "local:signal test:2", got)
	case <-time.After(time.Second):
		t.Fatal("expected subject errored signal")
	}
}

func TestTaskPanickedSignal(t *testing.T) {
	panicked := make(chan string, 16)
	capitan.Hook(SchedulerTaskPanicked, func(_ context.Context, e *capitan.Event) {
		if msg, _ := KeyPanic.From(e); msg == "worker boom" {
			panicked <- msg
		}
	})

	pool := NewThreadPool(WithWorkers(1))
	defer pool.Close()
	assert.NoError(t, pool.Submit(func() { panic("worker boom") }))

	select {
	case got := <-panicked:
		assert.Equal(t, "worker boom", got)
	case <-time.After(time.Second):
		t.Fatal("expected task panicked signal")
	}
}

func TestFieldKeys(t *testing.T) {
	assert.Equal(t, "regime", KeyRegime.Field("local").Key().Name())
	assert.Equal(t, "observers", KeyObservers.Field(1).Key().Name())
	assert.Equal(t, "panic", KeyPanic.Field("boom").Key().Name())
}
