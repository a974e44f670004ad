// Package simulation drives the fetch-before, simulate and compare calls
// and keeps each user's latest result.
package simulation

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"Floodsim_discord_bot/internal/backend"
	"Floodsim_discord_bot/internal/geometry"
	"Floodsim_discord_bot/internal/hotspot"
	"Floodsim_discord_bot/internal/imaging"
	"Floodsim_discord_bot/internal/metadata"
	"Floodsim_discord_bot/internal/metrics"
)

// Backend is the remote simulation service.
type Backend interface {
	FetchBefore(ctx context.Context, p geometry.GeoPoint) ([]byte, error)
	Simulate(ctx context.Context, req backend.SimulateRequest) (*backend.SimulateResponse, error)
	Compare(ctx context.Context, generated, real []byte) (map[string]any, error)
}

// Request is one simulation run. Baseline, when set, wins over Drawing.
type Request struct {
	Baseline io.Reader
	Prompt   string
	Drawing  []byte
}

// Simulator runs simulations against a Backend.
type Simulator struct {
	backend Backend
	now     func() time.Time
}

// NewSimulator creates a Simulator.
func NewSimulator(b Backend) *Simulator {
	return &Simulator{backend: b, now: time.Now}
}

// Run performs one simulation and stores the result in sess. On error the
// session keeps its previous result.
func (s *Simulator) Run(ctx context.Context, sess *Session, req Request) (*Result, error) {
	start := time.Now()
	res, err := s.run(ctx, req)
	metrics.RecordRun("simulation", outcome(err))
	if err != nil {
		log.Printf("simulation: failed after %v: %v", time.Since(start), err)
		return nil, err
	}
	sess.publish(res)
	log.Printf("simulation: %s done in %v (%d/%d hotspots drawn)",
		res.ID, time.Since(start), res.Rendered, len(res.Hotspots))
	return res, nil
}

func (s *Simulator) run(ctx context.Context, req Request) (*Result, error) {
	simReq := backend.SimulateRequest{Prompt: req.Prompt}
	var (
		before    image.Image
		selection *geometry.Selection
	)

	if req.Baseline != nil {
		data, err := io.ReadAll(req.Baseline)
		if err != nil {
			return nil, &UserInputError{Msg: "Could not read the uploaded image.", Err: err}
		}
		img, _, err := imaging.Decode(data)
		if err != nil {
			return nil, decodeError("uploaded image", err)
		}
		before = imaging.Canonical(img)
		simReq.Image = data
	} else {
		sel, ok := geometry.ExtractSelection(req.Drawing)
		if !ok {
			return nil, ErrNoSelection
		}
		selection = &sel
		center := sel.Center
		simReq.Point = &center
	}

	resp, err := s.backend.Simulate(ctx, simReq)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	if before == nil {
		before = s.fetchBefore(ctx, *simReq.Point)
	}

	generated, _, err := imaging.Decode(resp.Image)
	if err != nil {
		return nil, fmt.Errorf("decode generated image: %w", err)
	}

	hotspots := metadata.ParseHotspots(resp.Hotspots)
	after, drawn := hotspot.Render(imaging.Canonical(generated), hotspots)
	metrics.RecordHotspots(drawn, len(hotspots)-drawn)

	return &Result{
		ID:        uuid.New(),
		Before:    before,
		After:     after,
		Metrics:   metadata.ParseMetrics(resp.Metrics),
		Hotspots:  hotspots,
		Rendered:  drawn,
		Selection: selection,
		Prompt:    req.Prompt,
		CreatedAt: s.now(),
	}, nil
}

// fetchBefore falls back to the placeholder on any failure.
func (s *Simulator) fetchBefore(ctx context.Context, p geometry.GeoPoint) image.Image {
	data, err := s.backend.FetchBefore(ctx, p)
	if err != nil {
		log.Printf("simulation: fetch_before %s failed, using placeholder: %v", p, err)
		return imaging.Placeholder()
	}
	img, _, err := imaging.Decode(data)
	if err != nil {
		log.Printf("simulation: fetch_before %s returned undecodable image, using placeholder: %v", p, err)
		return imaging.Placeholder()
	}
	return imaging.Canonical(img)
}
