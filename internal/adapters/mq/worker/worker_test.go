package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hirestorm/matchd/internal/adapters/index"
	"github.com/hirestorm/matchd/internal/adapters/mq/queue"
	"github.com/hirestorm/matchd/internal/adapters/mq/worker"
	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/internal/domain/match"
	"github.com/hirestorm/matchd/internal/domain/model"
	"github.com/hirestorm/matchd/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init("console")
	m.Run()
}

type fixedEncoder struct {
	fail bool
}

func (f *fixedEncoder) Encode(context.Context, string, embedding.Purpose) ([]float32, error) {
	if f.fail {
		return nil, embedding.ErrEncodingUnavailable
	}
	return []float32{1, 0}, nil
}

func (f *fixedEncoder) Dims() int     { return 2 }
func (f *fixedEncoder) Model() string { return "fixed-v1" }

type recordingStore struct {
	mu       sync.Mutex
	created  []model.Posting
	existing map[string]bool
}

func (r *recordingStore) CreatePosting(_ context.Context, p *model.Posting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, *p)
	return nil
}

func (r *recordingStore) PostingExists(_ context.Context, title, _ string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.existing[title], nil
}

func (r *recordingStore) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.created)
}

type spyReverse struct {
	mu    sync.Mutex
	calls []string
}

func (s *spyReverse) NotifyMatchingUsers(_ context.Context, posting *model.Posting) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, posting.ID)
	return 1, nil
}

func (s *spyReverse) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func drain(p *worker.Pool, ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.Stop(stopCtx)
}

func TestPoolPipeline(t *testing.T) {
	Convey("Given a worker pool over an ingest queue", t, func() {
		ctx := context.Background()
		store := &recordingStore{existing: map[string]bool{}}
		idx := index.NewMemory()
		builder := embedding.NewBuilder(&fixedEncoder{})
		reverse := &spyReverse{}

		q := queue.NewInMemory(queue.WithCapacity(16))
		pool := worker.NewPool(q, store, builder, idx, reverse, worker.WithWorkerCount(2))

		Convey("A task is persisted, indexed and triggers reverse matching", func() {
			q.Enqueue(ctx, queue.Task{Posting: model.Posting{
				ID: "j1", Kind: model.KindJob, Title: "Backend Dev", Company: "Acme", Active: true,
			}})
			pool.Start(ctx)
			So(drain(pool, ctx), ShouldBeNil)

			So(store.count(), ShouldEqual, 1)
			So(idx.Len(), ShouldEqual, 1)
			So(reverse.count(), ShouldEqual, 1)

			hits, err := idx.Query(ctx, []float32{1, 0}, 1, match.IndexFilter{Kind: model.KindJob, Model: "fixed-v1"})
			So(err, ShouldBeNil)
			So(hits[0].ID, ShouldEqual, "job_j1")
		})

		Convey("A posting already in the store is skipped", func() {
			store.existing["Backend Dev"] = true
			q.Enqueue(ctx, queue.Task{Posting: model.Posting{
				ID: "j1", Kind: model.KindJob, Title: "Backend Dev", Company: "Acme",
			}})
			pool.Start(ctx)
			So(drain(pool, ctx), ShouldBeNil)

			So(store.count(), ShouldEqual, 0)
			So(idx.Len(), ShouldEqual, 0)
		})

		Convey("An encoder outage degrades the task, the posting stays stored", func() {
			broken := worker.NewPool(q, store, embedding.NewBuilder(&fixedEncoder{fail: true}), idx, reverse,
				worker.WithWorkerCount(1))
			q.Enqueue(ctx, queue.Task{Posting: model.Posting{
				ID: "j1", Kind: model.KindJob, Title: "Backend Dev", Company: "Acme",
			}})
			broken.Start(ctx)
			So(drain(broken, ctx), ShouldBeNil)

			So(store.count(), ShouldEqual, 1)
			So(idx.Len(), ShouldEqual, 0)
			So(reverse.count(), ShouldEqual, 0)
		})

		Convey("Reverse matching can be disabled", func() {
			quiet := worker.NewPool(q, store, builder, idx, reverse,
				worker.WithWorkerCount(1), worker.WithoutReverseMatching())
			q.Enqueue(ctx, queue.Task{Posting: model.Posting{
				ID: "j1", Kind: model.KindJob, Title: "Backend Dev", Company: "Acme",
			}})
			quiet.Start(ctx)
			So(drain(quiet, ctx), ShouldBeNil)

			So(store.count(), ShouldEqual, 1)
			So(reverse.count(), ShouldEqual, 0)
		})

		Convey("Every queued task is processed exactly once across workers", func() {
			many := worker.NewPool(q, store, builder, idx, nil, worker.WithWorkerCount(4))
			for i := 0; i < 10; i++ {
				posting := model.Posting{
					ID: string(rune('a' + i)), Kind: model.KindJob,
					Title: "Role " + string(rune('a'+i)), Company: "Acme",
				}
				So(q.Enqueue(ctx, queue.Task{Posting: posting}), ShouldBeTrue)
			}
			many.Start(ctx)
			So(drain(many, ctx), ShouldBeNil)

			So(store.count(), ShouldEqual, 10)
			So(idx.Len(), ShouldEqual, 10)
		})
	})
}
