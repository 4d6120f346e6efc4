package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			metricPrefixOpt := WithMetricPrefix("test-prefix")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(metricPrefixOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording extraction metrics", func() {
			Convey("Then extraction counters should accept values", func() {
				RecordExtraction(12.5)
				RecordExtraction(50.0)
				RecordSkillsReturned(7)
				RecordSkillsReturned(0)
				So(func() { RecordExtraction(100.0) }, ShouldNotPanic)
			})

			Convey("Then extractor errors should record per method", func() {
				RecordExtractorError("ner")
				RecordExtractorError("lexical")
				RecordExtractorError("semantic_similarity")
				So(func() { RecordExtractorError("corpus_similarity") }, ShouldNotPanic)
			})
		})

		Convey("When recording feedback metrics", func() {
			Convey("Then feedback counters should accept values", func() {
				RecordFeedback()
				RecordFeedback()
				RecordRetrain()
				So(func() { RecordFeedback() }, ShouldNotPanic)
			})
		})

		Convey("When recording experiment metrics", func() {
			Convey("Then experiment counters should accept values", func() {
				RecordTestCreated()
				RecordAssignment()
				RecordObservation()
				RecordObservationDuplicate()
				So(func() { RecordObservation() }, ShouldNotPanic)
			})
		})

		Convey("When updating queue metrics", func() {
			Convey("Then queue gauges and counters should accept values", func() {
				UpdateQueueSize(100)
				UpdateQueueCapacity(1024)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				So(func() { UpdateQueueSize(0) }, ShouldNotPanic)
			})
		})

		Convey("When updating worker metrics", func() {
			Convey("Then worker gauges and histograms should accept values", func() {
				UpdateWorkerCount(8)
				RecordWorkerProcessingLatency(3.5)
				RecordWorkerError()
				So(func() { UpdateWorkerCount(4) }, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP metrics", func() {
			Convey("Then HTTP counters should accept values", func() {
				RecordHTTPRequest("/extract", "POST", "200")
				RecordHTTPRequest("/tests", "GET", "200")
				RecordHTTPRequestDuration("/extract", "POST", "200", 20.0)
				So(func() { RecordHTTPRequest("/healthz", "GET", "200") }, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsRegistry(t *testing.T) {
	Convey("Given the metrics registry", t, func() {
		Convey("When getting the registry", func() {
			registry := GetRegistry()

			Convey("Then it should not be nil", func() {
				So(registry, ShouldNotBeNil)
			})

			Convey("Then gathering should succeed", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldNotBeNil)
			})
		})
	})
}
