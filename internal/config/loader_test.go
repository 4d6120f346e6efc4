package config_test

import (
	"context"
	"os"
	"runtime"
	"testing"

	"github.com/okian/skillsift/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.ObservationQueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
				convey.So(cfg.ExtractorTimeoutMS, convey.ShouldEqual, 5_000)
				convey.So(cfg.Ensemble.MinConfidence, convey.ShouldAlmostEqual, 0.30)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SKILLSIFT_ADDR", ":8080")
			_ = os.Setenv("SKILLSIFT_QUEUE_SIZE", "5000")
			_ = os.Setenv("SKILLSIFT_WORKER_COUNT", "16")
			_ = os.Setenv("SKILLSIFT_DEDUPE_SIZE", "25000")
			_ = os.Setenv("SKILLSIFT_ENSEMBLE__MIN_CONFIDENCE", "0.4")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ObservationQueueSize, convey.ShouldEqual, 5000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 25000)
				convey.So(cfg.Ensemble.MinConfidence, convey.ShouldAlmostEqual, 0.4)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
queue_size: 3000
worker_count: 24
ontology_path: "/etc/skillsift/ontology.yaml"
ensemble:
  ner_weight: 0.4
  min_confidence: 0.35
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SKILLSIFT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ObservationQueueSize, convey.ShouldEqual, 3000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.OntologyPath, convey.ShouldEqual, "/etc/skillsift/ontology.yaml")
				convey.So(cfg.Ensemble.NERWeight, convey.ShouldAlmostEqual, 0.4)
				convey.So(cfg.Ensemble.MinConfidence, convey.ShouldAlmostEqual, 0.35)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
worker_count: 24
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SKILLSIFT_CONFIG", tmpFile)
			_ = os.Setenv("SKILLSIFT_ADDR", ":7070")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars should win over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
			})
		})

		convey.Convey("When the ensemble config is invalid", func() {
			_ = os.Setenv("SKILLSIFT_ENSEMBLE__NER_WEIGHT", "-1")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	vars := []string{
		"SKILLSIFT_CONFIG",
		"SKILLSIFT_ADDR",
		"SKILLSIFT_QUEUE_SIZE",
		"SKILLSIFT_WORKER_COUNT",
		"SKILLSIFT_DEDUPE_SIZE",
		"SKILLSIFT_ENSEMBLE__MIN_CONFIDENCE",
		"SKILLSIFT_ENSEMBLE__NER_WEIGHT",
	}
	for _, v := range vars {
		_ = os.Unsetenv(v)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "skillsift-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
