package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	queue "github.com/okian/skillsift/internal/adapters/mq/queue"
	"github.com/okian/skillsift/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func obs(id string) model.Observation {
	return model.Observation{
		ObservationID: id,
		TestID:        "test-1",
		VariantID:     "control",
		Metrics:       model.Metrics{F1Score: 0.8, TotalExtractions: 1},
		TS:            time.Now().UTC(),
	}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a new InMemoryQueue", t, func() {
		Convey("When enqueuing observations", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(10), queue.WithBufferSize(10))
			defer q.Close()

			Convey("Then a new observation should be accepted", func() {
				So(q.Enqueue(context.Background(), obs("obs-1")), ShouldBeTrue)
				So(q.Len(context.Background()), ShouldEqual, 1)
			})

			Convey("Then a full queue should reject observations", func() {
				for i := 0; i < 10; i++ {
					So(q.Enqueue(context.Background(), obs(fmt.Sprintf("obs-%d", i))), ShouldBeTrue)
				}
				So(q.Enqueue(context.Background(), obs("overflow")), ShouldBeFalse)
			})
		})

		Convey("When dequeuing observations", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(10), queue.WithBufferSize(10))

			q.Enqueue(context.Background(), obs("obs-1"))
			q.Enqueue(context.Background(), obs("obs-2"))

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			ch := q.Dequeue(ctx)

			Convey("Then observations should arrive in order", func() {
				first := <-ch
				second := <-ch
				So(first.ObservationID, ShouldEqual, "obs-1")
				So(second.ObservationID, ShouldEqual, "obs-2")
			})

			Convey("Then closing the queue should close the channel", func() {
				<-ch
				<-ch
				So(q.Close(), ShouldBeNil)
				_, open := <-ch
				So(open, ShouldBeFalse)
			})
		})

		Convey("When the queue is closed", func() {
			q := queue.NewInMemoryQueue()
			So(q.Close(), ShouldBeNil)

			Convey("Then it should report closed and reject enqueues", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(context.Background(), obs("late")), ShouldBeFalse)
			})

			Convey("Then a second close should be a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
