package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	service "github.com/okian/skillsift/internal/app"
	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/internal/experiment"
	. "github.com/smartystreets/goconvey/convey"
)

func startedService(opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service with defaults", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(64))

		Convey("When starting it", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			defer svc.Stop()

			Convey("Then starting again is a no-op", func() {
				So(svc.Start(context.Background()), ShouldBeNil)
			})

			Convey("Then stats should reflect the running state", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["ontologySkills"], ShouldBeGreaterThan, 0)
			})
		})

		Convey("When stopping a never-started service", func() {
			So(func() { svc.Stop() }, ShouldNotPanic)
		})
	})
}

func TestServiceExtract(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := startedService(service.WithWorkerCount(2))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When extracting from a skill-rich text", func() {
			result, err := svc.Extract(ctx, "Experienced Python developer working with Docker and Kubernetes.", "")

			Convey("Then known skills should be found and summarized", func() {
				So(err, ShouldBeNil)
				So(result.Skills, ShouldNotBeEmpty)
				skills := make([]string, 0, len(result.Skills))
				for _, m := range result.Skills {
					skills = append(skills, m.Skill)
				}
				So(skills, ShouldContain, "Python")
				So(result.Summary.TotalSkills, ShouldEqual, len(result.Skills))
				So(result.TestID, ShouldBeEmpty)
			})
		})

		Convey("When an active test routes the user", func() {
			created, err := svc.CreateTest(ctx, experiment.CreateTestInput{
				Name: "routing",
				Variants: []experiment.Variant{
					{ID: "control", Name: "control", TrafficPercent: 0, IsControl: true},
					{ID: "strict", Name: "strict", TrafficPercent: 100, Config: map[string]float64{"min_confidence": 0.45}},
				},
			})
			So(err, ShouldBeNil)
			So(svc.StartTest(ctx, created.ID), ShouldBeNil)

			result, err := svc.Extract(ctx, "Python and Docker experience.", "user-1")

			Convey("Then the response should carry the routing identity", func() {
				So(err, ShouldBeNil)
				So(result.TestID, ShouldEqual, created.ID)
				So(result.VariantID, ShouldEqual, "strict")
			})

			Convey("Then the assignment should be sticky across requests", func() {
				again, err := svc.Extract(ctx, "more Python text", "user-1")
				So(err, ShouldBeNil)
				So(again.VariantID, ShouldEqual, result.VariantID)
			})

			Convey("Then an anonymous request should bypass routing", func() {
				anon, err := svc.Extract(ctx, "Python text", "")
				So(err, ShouldBeNil)
				So(anon.TestID, ShouldBeEmpty)
			})
		})
	})
}

func TestServiceFeedback(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := startedService(service.WithWorkerCount(1))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When feedback is submitted", func() {
			svc.SubmitFeedback(ctx, "Python and Docker experience.", []string{"Python", "Docker"}, []string{"Python"}, "user-1")

			So(svc.FeedbackCount(), ShouldEqual, 1)

			Convey("And retraining runs", func() {
				result, err := svc.Retrain(ctx)

				Convey("Then the pass should replay the stored feedback", func() {
					So(err, ShouldBeNil)
					So(result.Replayed, ShouldEqual, 1)
				})
			})
		})
	})
}

func TestServiceObservations(t *testing.T) {
	Convey("Given a running service with an active test", t, func() {
		svc := startedService(service.WithWorkerCount(2), service.WithQueueSize(64))
		defer svc.Stop()
		ctx := context.Background()

		created, err := svc.CreateTest(ctx, experiment.CreateTestInput{
			Name: "observations",
			Variants: []experiment.Variant{
				{ID: "control", Name: "control", TrafficPercent: 100, IsControl: true},
			},
			MinimumSampleSize: 1,
		})
		So(err, ShouldBeNil)
		So(svc.StartTest(ctx, created.ID), ShouldBeNil)

		obs := model.Observation{
			ObservationID: "obs-1",
			TestID:        created.ID,
			VariantID:     "control",
			Metrics:       model.Metrics{F1Score: 0.9},
		}

		Convey("When submitting an observation", func() {
			accepted, duplicate := svc.SubmitObservation(ctx, obs)

			So(accepted, ShouldBeTrue)
			So(duplicate, ShouldBeFalse)

			Convey("Then a resubmission is acknowledged as a duplicate", func() {
				accepted, duplicate := svc.SubmitObservation(ctx, obs)
				So(accepted, ShouldBeTrue)
				So(duplicate, ShouldBeTrue)
			})

			Convey("Then the observation should reach the results eventually", func() {
				deadline := time.Now().Add(2 * time.Second)
				var res experiment.Results
				for time.Now().Before(deadline) {
					res, err = svc.Results(ctx, created.ID)
					So(err, ShouldBeNil)
					if len(res.Variants) > 0 && res.Variants[0].SampleCount > 0 {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(res.Variants, ShouldNotBeEmpty)
				So(res.Variants[0].SampleCount, ShouldEqual, 1)
			})
		})
	})
}

func TestServiceFileBackedStore(t *testing.T) {
	Convey("Given a service with a file-backed store", t, func() {
		path := filepath.Join(t.TempDir(), "experiments.json")
		ctx := context.Background()

		svc := service.New(service.WithWorkerCount(1), service.WithStorePath(path))
		So(svc.Start(ctx), ShouldBeNil)

		created, err := svc.CreateTest(ctx, experiment.CreateTestInput{
			Name: "persistent",
			Variants: []experiment.Variant{
				{ID: "control", Name: "control", TrafficPercent: 100, IsControl: true},
			},
		})
		So(err, ShouldBeNil)
		svc.Stop()

		Convey("When a new service reopens the same path", func() {
			revived := service.New(service.WithWorkerCount(1), service.WithStorePath(path))
			So(revived.Start(ctx), ShouldBeNil)
			defer revived.Stop()

			Convey("Then the test should survive the restart", func() {
				got, err := revived.GetTest(ctx, created.ID)
				So(err, ShouldBeNil)
				So(got.Name, ShouldEqual, "persistent")
			})
		})
	})
}
