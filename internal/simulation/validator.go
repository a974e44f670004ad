package simulation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"time"

	"Floodsim_discord_bot/internal/backend"
	"Floodsim_discord_bot/internal/imaging"
	"Floodsim_discord_bot/internal/metadata"
	"Floodsim_discord_bot/internal/metrics"
)

// Validation is the backend's comparison of a generated image with ground truth.
type Validation struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	Metrics   metadata.Metrics
	Generated image.Image
	Real      image.Image
}

func (v *Validation) AccuracyText() string  { return fmt.Sprintf("%.2f%%", v.Accuracy) }
func (v *Validation) PrecisionText() string { return fmt.Sprintf("%.3f", v.Precision) }
func (v *Validation) RecallText() string    { return fmt.Sprintf("%.3f", v.Recall) }
func (v *Validation) F1Text() string        { return fmt.Sprintf("%.3f", v.F1) }
func (v *Validation) SSIMText() string      { return v.Metrics.Format("ssim") }
func (v *Validation) FIDText() string       { return v.Metrics.Format("fid") }

// Validator compares a session's latest result with a ground-truth image.
type Validator struct {
	backend Backend
}

// NewValidator creates a Validator.
func NewValidator(b Backend) *Validator {
	return &Validator{backend: b}
}

// Run validates the latest result of sess against truth.
func (v *Validator) Run(ctx context.Context, sess *Session, truth io.Reader) (*Validation, error) {
	start := time.Now()
	val, err := v.run(ctx, sess, truth)
	metrics.RecordRun("validation", outcome(err))
	if err != nil {
		log.Printf("validation: failed after %v: %v", time.Since(start), err)
		return nil, err
	}
	log.Printf("validation: done in %v (accuracy %s)", time.Since(start), val.AccuracyText())
	return val, nil
}

func (v *Validator) run(ctx context.Context, sess *Session, truth io.Reader) (*Validation, error) {
	res := sess.Result()
	if res == nil {
		return nil, ErrNoResult
	}
	if truth == nil {
		return nil, ErrNoGroundTruth
	}
	truthBytes, err := io.ReadAll(truth)
	if err != nil {
		return nil, &UserInputError{Msg: "Could not read the ground-truth image.", Err: err}
	}
	if len(truthBytes) == 0 {
		return nil, ErrNoGroundTruth
	}
	realImg, _, err := imaging.Decode(truthBytes)
	if err != nil {
		return nil, decodeError("ground-truth image", err)
	}

	generated, err := imaging.EncodePNG(res.After)
	if err != nil {
		return nil, fmt.Errorf("encode generated image: %w", err)
	}

	out, err := v.backend.Compare(ctx, generated, truthBytes)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	m := metadata.MetricsFrom(out)
	return &Validation{
		Accuracy:  valueOrZero(m, "accuracy"),
		Precision: valueOrZero(m, "precision"),
		Recall:    valueOrZero(m, "recall"),
		F1:        valueOrZero(m, "f1"),
		Metrics:   m,
		Generated: res.After,
		Real:      imaging.Canonical(realImg),
	}, nil
}

func valueOrZero(m metadata.Metrics, key string) float64 {
	v, _ := m.Value(key)
	return v
}

func outcome(err error) string {
	var input *UserInputError
	var status *backend.StatusError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &input):
		return metrics.OutcomeInput
	case errors.As(err, &status):
		return metrics.OutcomeStatus
	case errors.Is(err, backend.ErrTimeout):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeError
	}
}
