package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/skillsift/internal/adapters/http/api"
	service "github.com/okian/skillsift/internal/app"
	"github.com/okian/skillsift/internal/domain/feedback"
	"github.com/okian/skillsift/internal/domain/fusion"
	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/internal/domain/types"
	"github.com/okian/skillsift/internal/experiment"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeDeps is a controllable Dependencies implementation for handler tests.
type fakeDeps struct {
	extractResult service.ExtractResult
	extractErr    error

	feedbackCalls int

	retrainResult feedback.RetrainResult

	tests       map[string]experiment.Test
	createErr   error
	startErr    error
	observation model.Observation
	accepted    bool
	duplicate   bool
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{tests: make(map[string]experiment.Test), accepted: true}
}

func (f *fakeDeps) Extract(_ context.Context, _, _ string) (service.ExtractResult, error) {
	return f.extractResult, f.extractErr
}

func (f *fakeDeps) SubmitFeedback(_ context.Context, _ string, _, _ []string, _ string) {
	f.feedbackCalls++
}

func (f *fakeDeps) Retrain(_ context.Context) (feedback.RetrainResult, error) {
	return f.retrainResult, nil
}

func (f *fakeDeps) CreateTest(_ context.Context, in experiment.CreateTestInput) (experiment.Test, error) {
	if f.createErr != nil {
		return experiment.Test{}, f.createErr
	}
	t := experiment.Test{ID: "t1", Name: in.Name, Variants: in.Variants, Status: experiment.StatusDraft}
	f.tests[t.ID] = t
	return t, nil
}

func (f *fakeDeps) StartTest(_ context.Context, testID string) error {
	if f.startErr != nil {
		return f.startErr
	}
	t, ok := f.tests[testID]
	if !ok {
		return experiment.ErrNotFound
	}
	t.Status = experiment.StatusActive
	f.tests[testID] = t
	return nil
}

func (f *fakeDeps) PauseTest(_ context.Context, testID string) error {
	if _, ok := f.tests[testID]; !ok {
		return experiment.ErrNotFound
	}
	return nil
}

func (f *fakeDeps) CompleteTest(_ context.Context, testID string) error {
	if _, ok := f.tests[testID]; !ok {
		return experiment.ErrNotFound
	}
	return nil
}

func (f *fakeDeps) GetTest(_ context.Context, testID string) (experiment.Test, error) {
	t, ok := f.tests[testID]
	if !ok {
		return experiment.Test{}, experiment.ErrNotFound
	}
	return t, nil
}

func (f *fakeDeps) ListTests(_ context.Context) ([]experiment.Test, error) {
	out := make([]experiment.Test, 0, len(f.tests))
	for _, t := range f.tests {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeDeps) Results(_ context.Context, testID string) (experiment.Results, error) {
	if _, ok := f.tests[testID]; !ok {
		return experiment.Results{}, experiment.ErrNotFound
	}
	return experiment.Results{TestID: testID, Condition: experiment.ConditionNoData}, nil
}

func (f *fakeDeps) SubmitObservation(_ context.Context, obs model.Observation) (bool, bool) {
	f.observation = obs
	return f.accepted, f.duplicate
}

func (f *fakeDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestServer(deps *fakeDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, deps).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func postJSON(url string, v any) (*http.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return http.Post(url, "application/json", bytes.NewReader(body)) //nolint:noctx
}

func decode[T any](resp *http.Response) T {
	defer resp.Body.Close()
	var out T
	So(json.NewDecoder(resp.Body).Decode(&out), ShouldBeNil)
	return out
}

func TestExtractEndpoint(t *testing.T) {
	Convey("Given a running API server", t, func() {
		deps := newFakeDeps()
		deps.extractResult = service.ExtractResult{
			Skills: []types.SkillEntry{{Skill: "Python", Category: "programming_languages", Confidence: 0.9, Method: "ensemble"}},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When posting a valid extraction request", func() {
			resp, err := postJSON(srv.URL+"/extract", map[string]string{"text": "Python developer"})

			Convey("Then the fused skills should come back", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				result := decode[service.ExtractResult](resp)
				So(result.Skills, ShouldHaveLength, 1)
				So(result.Skills[0].Skill, ShouldEqual, "Python")
			})
		})

		Convey("When posting without text", func() {
			resp, err := postJSON(srv.URL+"/extract", map[string]string{"text": "   "})

			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When posting malformed JSON", func() {
			resp, err := http.Post(srv.URL+"/extract", "application/json", bytes.NewReader([]byte("{"))) //nolint:noctx

			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When every extraction backend is down", func() {
			deps.extractErr = fusion.ErrNoBackend

			resp, err := postJSON(srv.URL+"/extract", map[string]string{"text": "Python"})

			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
			body := decode[map[string]string](resp)
			So(body["code"], ShouldEqual, "no_backend")
		})

		Convey("When using GET instead of POST", func() {
			resp, err := http.Get(srv.URL + "/extract") //nolint:noctx

			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestFeedbackEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		deps := newFakeDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When posting feedback", func() {
			resp, err := postJSON(srv.URL+"/feedback", map[string]any{
				"text":             "Python developer",
				"predicted_skills": []string{"Python", "Docker"},
				"correct_skills":   []string{"Python"},
			})

			Convey("Then it should be accepted", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				_ = resp.Body.Close()
				So(deps.feedbackCalls, ShouldEqual, 1)
			})
		})

		Convey("When posting feedback without text", func() {
			resp, err := postJSON(srv.URL+"/feedback", map[string]any{"correct_skills": []string{"Python"}})

			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When triggering a retrain", func() {
			deps.retrainResult = feedback.RetrainResult{Adjusted: true, NewThreshold: 0.55, Replayed: 3}

			resp, err := postJSON(srv.URL+"/retrain", struct{}{})

			Convey("Then the retrain report should come back", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				result := decode[feedback.RetrainResult](resp)
				So(result.Adjusted, ShouldBeTrue)
				So(result.NewThreshold, ShouldAlmostEqual, 0.55, 1e-9)
			})
		})
	})
}

func TestTestsEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		deps := newFakeDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		createBody := map[string]any{
			"name": "threshold tuning",
			"variants": []map[string]any{
				{"variant_id": "control", "name": "control", "traffic_percentage": 50, "is_control": true},
				{"variant_id": "strict", "name": "strict", "traffic_percentage": 50},
			},
		}

		Convey("When creating a test", func() {
			resp, err := postJSON(srv.URL+"/tests", createBody)

			Convey("Then it should be created as a draft", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				created := decode[experiment.Test](resp)
				So(created.ID, ShouldEqual, "t1")
				So(created.Status, ShouldEqual, experiment.StatusDraft)
			})
		})

		Convey("When creating a test without a name", func() {
			resp, err := postJSON(srv.URL+"/tests", map[string]any{"variants": createBody["variants"]})

			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When validation fails in the domain", func() {
			deps.createErr = experiment.ErrTrafficSplit

			resp, err := postJSON(srv.URL+"/tests", createBody)

			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When variant ids collide in the domain", func() {
			deps.createErr = experiment.ErrDuplicateVariant

			resp, err := postJSON(srv.URL+"/tests", createBody)

			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When listing tests", func() {
			resp, err := postJSON(srv.URL+"/tests", createBody)
			So(err, ShouldBeNil)
			_ = resp.Body.Close()

			listResp, err := http.Get(srv.URL + "/tests") //nolint:noctx

			So(err, ShouldBeNil)
			So(listResp.StatusCode, ShouldEqual, http.StatusOK)
			tests := decode[[]experiment.Test](listResp)
			So(tests, ShouldHaveLength, 1)
		})

		Convey("Given a created test", func() {
			resp, err := postJSON(srv.URL+"/tests", createBody)
			So(err, ShouldBeNil)
			_ = resp.Body.Close()

			Convey("When fetching it by id", func() {
				resp, err := http.Get(srv.URL + "/tests/t1") //nolint:noctx

				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				got := decode[experiment.Test](resp)
				So(got.ID, ShouldEqual, "t1")
			})

			Convey("When fetching an unknown id", func() {
				resp, err := http.Get(srv.URL + "/tests/missing") //nolint:noctx

				So(err, ShouldBeNil)
				defer resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})

			Convey("When starting it", func() {
				resp, err := postJSON(srv.URL+"/tests/t1/start", struct{}{})

				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				got := decode[experiment.Test](resp)
				So(got.Status, ShouldEqual, experiment.StatusActive)
			})

			Convey("When an invalid transition is requested", func() {
				deps.startErr = experiment.ErrInvalidTransition

				resp, err := postJSON(srv.URL+"/tests/t1/start", struct{}{})

				So(err, ShouldBeNil)
				defer resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			})

			Convey("When fetching results", func() {
				resp, err := http.Get(srv.URL + "/tests/t1/results") //nolint:noctx

				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				results := decode[experiment.Results](resp)
				So(results.TestID, ShouldEqual, "t1")
			})
		})
	})
}

func TestObservationEndpoint(t *testing.T) {
	Convey("Given a server with one known test", t, func() {
		deps := newFakeDeps()
		deps.tests["t1"] = experiment.Test{ID: "t1", Status: experiment.StatusActive}
		srv := newTestServer(deps)
		defer srv.Close()

		body := map[string]any{
			"observation_id": "obs-1",
			"variant_id":     "control",
			"metrics":        map[string]float64{"f1_score": 0.9},
		}

		Convey("When submitting an observation", func() {
			resp, err := postJSON(srv.URL+"/tests/t1/observations", body)

			Convey("Then it should be accepted asynchronously", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				ack := decode[map[string]any](resp)
				So(ack["status"], ShouldEqual, "accepted")
				So(deps.observation.TestID, ShouldEqual, "t1")
				So(deps.observation.Metrics.F1Score, ShouldAlmostEqual, 0.9, 1e-9)
			})
		})

		Convey("When submitting a duplicate", func() {
			deps.duplicate = true

			resp, err := postJSON(srv.URL+"/tests/t1/observations", body)

			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			ack := decode[map[string]any](resp)
			So(ack["status"], ShouldEqual, "duplicate")
		})

		Convey("When the queue is saturated", func() {
			deps.accepted = false

			resp, err := postJSON(srv.URL+"/tests/t1/observations", body)

			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
		})

		Convey("When the observation id is missing", func() {
			resp, err := postJSON(srv.URL+"/tests/t1/observations", map[string]any{"variant_id": "control"})

			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the test is unknown", func() {
			resp, err := postJSON(srv.URL+"/tests/missing/observations", body)

			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the timestamp is not RFC3339", func() {
			bad := map[string]any{"observation_id": "obs-2", "variant_id": "control", "ts": "yesterday"}

			resp, err := postJSON(srv.URL+"/tests/t1/observations", bad)

			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a running API server", t, func() {
		deps := newFakeDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When probing health", func() {
			resp, err := http.Get(srv.URL + "/healthz") //nolint:noctx

			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			body := decode[map[string]string](resp)
			So(body["status"], ShouldEqual, "ok")
		})

		Convey("When fetching stats", func() {
			resp, err := http.Get(srv.URL + "/stats") //nolint:noctx

			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			stats := decode[map[string]any](resp)
			So(stats["started"], ShouldEqual, true)
		})

		Convey("When scraping metrics", func() {
			resp, err := http.Get(srv.URL + "/metrics") //nolint:noctx

			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
