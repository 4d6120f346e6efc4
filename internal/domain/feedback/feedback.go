// Package feedback records human-corrected skill sets and adjusts the
// fusion engine's confidence cutoff from them.
package feedback

import (
	"context"
	"sync"
	"time"

	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/pkg/logger"
)

// Threshold bounds: retraining never pushes the fused-confidence cutoff
// outside this range.
const (
	minThreshold = 0.4
	maxThreshold = 0.8
)

// Fuser is the engine surface the feedback loop needs: re-running fusion
// over stored texts and moving the confidence cutoff.
type Fuser interface {
	Fuse(ctx context.Context, text string) ([]model.SkillMatch, error)
	MinConfidence() float64
	SetMinConfidence(v float64)
}

// Record is one immutable feedback entry.
type Record struct {
	Text      string    `json:"text"`
	Predicted []string  `json:"predicted"`
	Correct   []string  `json:"correct"`
	UserID    string    `json:"user_id,omitempty"`
	At        time.Time `json:"at"`
}

// RetrainResult reports what a retraining pass did.
type RetrainResult struct {
	Adjusted         bool    `json:"adjusted"`
	NewThreshold     float64 `json:"new_threshold,omitempty"`
	Replayed         int     `json:"replayed"`
	CorrectSamples   int     `json:"correct_samples"`
	IncorrectSamples int     `json:"incorrect_samples"`
}

// Loop is the active-learning feedback store bound to one fusion engine.
type Loop struct {
	mu      sync.Mutex
	records []Record

	fuser  Fuser
	logger logger.Logger
}

// Option applies a configuration option to the Loop.
type Option func(*Loop)

// WithLogger sets a custom logger for the loop.
func WithLogger(l logger.Logger) Option {
	return func(fl *Loop) {
		if l != nil {
			fl.logger = l
		}
	}
}

// New creates a feedback loop bound to the given engine.
func New(fuser Fuser, opts ...Option) *Loop {
	fl := &Loop{fuser: fuser}
	for _, opt := range opts {
		opt(fl)
	}
	if fl.logger == nil {
		fl.logger = logger.Get().Named("feedback")
	}
	return fl
}

// Add appends an immutable feedback record.
func (fl *Loop) Add(ctx context.Context, text string, predicted, correct []string, userID string) {
	rec := Record{
		Text:      text,
		Predicted: append([]string(nil), predicted...),
		Correct:   append([]string(nil), correct...),
		UserID:    userID,
		At:        time.Now().UTC(),
	}

	fl.mu.Lock()
	fl.records = append(fl.records, rec)
	count := len(fl.records)
	fl.mu.Unlock()

	fl.logger.Info(ctx, "feedback recorded",
		logger.Int("correct_skills", len(correct)),
		logger.Int("total_records", count),
	)
}

// Count returns the number of stored feedback records.
func (fl *Loop) Count() int {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return len(fl.records)
}

// Retrain re-runs fusion over every stored feedback text, partitions the
// resulting confidences into correctly and incorrectly predicted skills,
// and moves the engine's cutoff to the midpoint of the two group means,
// clamped to [0.4, 0.8].
//
// A warning no-op when there is no feedback, or when either partition is
// empty: the midpoint is only computed when both group means exist.
func (fl *Loop) Retrain(ctx context.Context) (RetrainResult, error) {
	fl.mu.Lock()
	records := append([]Record(nil), fl.records...)
	fl.mu.Unlock()

	if len(records) == 0 {
		fl.logger.Warn(ctx, "no feedback available for retraining")
		return RetrainResult{}, nil
	}

	var correctConf, incorrectConf []float64
	for _, rec := range records {
		matches, err := fl.fuser.Fuse(ctx, rec.Text)
		if err != nil {
			return RetrainResult{}, err
		}

		confidence := make(map[string]float64, len(matches))
		for _, m := range matches {
			if _, ok := confidence[m.Skill]; !ok {
				confidence[m.Skill] = m.Confidence
			}
		}
		correctSet := make(map[string]bool, len(rec.Correct))
		for _, skill := range rec.Correct {
			correctSet[skill] = true
		}

		for skill, conf := range confidence {
			if correctSet[skill] {
				correctConf = append(correctConf, conf)
			} else {
				incorrectConf = append(incorrectConf, conf)
			}
		}
	}

	result := RetrainResult{
		Replayed:         len(records),
		CorrectSamples:   len(correctConf),
		IncorrectSamples: len(incorrectConf),
	}

	if len(correctConf) == 0 || len(incorrectConf) == 0 {
		fl.logger.Warn(ctx, "feedback partitions incomplete; threshold unchanged",
			logger.Int("correct_samples", len(correctConf)),
			logger.Int("incorrect_samples", len(incorrectConf)),
		)
		return result, nil
	}

	midpoint := (mean(correctConf) + mean(incorrectConf)) / 2
	threshold := clamp(midpoint, minThreshold, maxThreshold)
	fl.fuser.SetMinConfidence(threshold)

	result.Adjusted = true
	result.NewThreshold = threshold
	fl.logger.Info(ctx, "adjusted fused-confidence threshold",
		logger.Float64("threshold", threshold),
		logger.Int("replayed", len(records)),
	)
	return result, nil
}

func mean(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
