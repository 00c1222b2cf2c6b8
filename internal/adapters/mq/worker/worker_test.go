package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/agentpulse/internal/adapters/mq/queue"
	worker "github.com/okian/agentpulse/internal/adapters/mq/worker"
	model "github.com/okian/agentpulse/internal/domain/model"
	logging "github.com/okian/agentpulse/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	items chan queue.Item
}

func newMockQueue() *mockQueue {
	return &mockQueue{items: make(chan queue.Item, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Item {
	return mq.items
}

func (mq *mockQueue) Close() error {
	close(mq.items)
	return nil
}

type mockPoster struct {
	mu     sync.Mutex
	posted []string
	fail   map[string]error
}

func newMockPoster() *mockPoster {
	return &mockPoster{fail: map[string]error{}}
}

func (p *mockPoster) Post(ctx context.Context, item queue.Item) error { //nolint:gocritic // hugeParam: mirrors the interface
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.fail[item.JobID]; ok {
		return err
	}
	p.posted = append(p.posted, item.JobID)
	return nil
}

func (p *mockPoster) delivered() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.posted...)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		_ = logging.Init()
		q := newMockQueue()
		poster := newMockPoster()
		w := worker.NewInMemoryWorker(q, poster, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When results are queued", func() {
			q.items <- model.Result{JobID: "job_1"}
			q.items <- model.Result{JobID: "job_2"}

			convey.Convey("Then each is posted once in order", func() {
				convey.So(waitFor(func() bool { return len(poster.delivered()) == 2 }), convey.ShouldBeTrue)
				convey.So(poster.delivered(), convey.ShouldResemble, []string{"job_1", "job_2"})
			})
		})

		convey.Convey("When a post fails", func() {
			poster.fail["job_bad"] = errors.New("503")
			q.items <- model.Result{JobID: "job_bad"}
			q.items <- model.Result{JobID: "job_ok"}

			convey.Convey("Then the failure is swallowed and the worker keeps going", func() {
				convey.So(waitFor(func() bool { return len(poster.delivered()) == 1 }), convey.ShouldBeTrue)
				convey.So(poster.delivered(), convey.ShouldResemble, []string{"job_ok"})
			})
		})

		convey.Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops cleanly and a second shutdown is harmless", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		_ = logging.Init()
		q := queue.NewInMemoryQueue(queue.WithCapacity(20))
		poster := newMockPoster()
		pool := worker.NewPool(3, q, poster)
		ctx := context.Background()
		pool.Start(ctx)

		convey.Convey("When results are queued and the pool shuts down", func() {
			for _, id := range []string{"job_1", "job_2", "job_3", "job_4", "job_5"} {
				convey.So(q.Enqueue(ctx, model.Result{JobID: id}), convey.ShouldBeTrue)
			}
			err := pool.Shutdown(ctx)

			convey.Convey("Then the queue is drained before the workers exit", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(poster.delivered(), convey.ShouldHaveLength, 5)
			})
		})
	})

	convey.Convey("Given a pool with a non-positive worker count", t, func() {
		_ = logging.Init()
		pool := worker.NewPool(0, newMockQueue(), newMockPoster())

		convey.Convey("Then the default size is used and shutdown completes", func() {
			pool.Start(context.Background())
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})
}
