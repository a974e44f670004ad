package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"Floodsim_discord_bot/internal/backend"
	"Floodsim_discord_bot/internal/geometry"
)

type fakeBackend struct{}

func solidPNG(c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func (f *fakeBackend) FetchBefore(context.Context, geometry.GeoPoint) ([]byte, error) {
	return solidPNG(color.RGBA{0, 100, 0, 255}), nil
}

func (f *fakeBackend) Simulate(_ context.Context, req backend.SimulateRequest) (*backend.SimulateResponse, error) {
	return &backend.SimulateResponse{
		Image:    solidPNG(color.RGBA{0, 0, 200, 255}),
		Metrics:  `{"ssim": 0.7, "flood_percent": 12.5}`,
		Hotspots: `[{"x": 10, "y": 10, "severity": "high"}]`,
	}, nil
}

func (f *fakeBackend) Compare(context.Context, []byte, []byte) (map[string]any, error) {
	return map[string]any{"accuracy": 91.0, "precision": 0.8, "recall": 0.7, "f1": 0.75}, nil
}

func TestParseSimulateFlags(t *testing.T) {
	var out bytes.Buffer
	if _, err := parseSimulateFlags([]string{"-prompt", "x"}, &out); err == nil {
		t.Error("expected an error without an input")
	}
	if _, err := parseSimulateFlags([]string{"-image", "a.png", "-bbox", "0,0,1,1"}, &out); err == nil {
		t.Error("expected an error with two inputs")
	}
	f, err := parseSimulateFlags([]string{"-bbox", "139.7,35.6,139.8,35.7", "-out", "dir", "-animate"}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if f.out != "dir" || !f.animate {
		t.Errorf("flags = %+v", f)
	}
}

func TestRequestFromBBox(t *testing.T) {
	f := &simulateFlags{bbox: "139.7,35.6,139.8,35.7"}
	req, err := f.request()
	if err != nil {
		t.Fatal(err)
	}
	sel, ok := geometry.ExtractSelection(req.Drawing)
	if !ok {
		t.Fatalf("payload not extractable: %s", req.Drawing)
	}
	if sel.Center.Lat < 35.6 || sel.Center.Lat > 35.7 || sel.Center.Lon < 139.7 || sel.Center.Lon > 139.8 {
		t.Errorf("center = %+v", sel.Center)
	}

	if _, err := (&simulateFlags{bbox: "a,b,c,d"}).request(); err == nil {
		t.Error("expected an error for a malformed bbox")
	}
}

func TestSimulateWritesFiles(t *testing.T) {
	dir := t.TempDir()
	truth := filepath.Join(dir, "truth.png")
	if err := os.WriteFile(truth, solidPNG(color.RGBA{0, 0, 255, 255}), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")

	var stdout bytes.Buffer
	f := &simulateFlags{bbox: "139.7,35.6,139.8,35.7", prompt: "heavy rain", truth: truth, out: out}
	if err := simulate(context.Background(), &fakeBackend{}, f, &stdout); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"before.png", "after.png", "comparison.png", "hotspots.csv", "metrics.json", "validation.json", "validation_chart.png", "validation.png"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(out, "metrics.json"))
	if err != nil {
		t.Fatal(err)
	}
	var summary resultSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Prompt != "heavy rain" || summary.Hotspots != 1 || summary.Metrics["flood_percent"] != 12.5 {
		t.Errorf("summary = %+v", summary)
	}
	if !strings.Contains(stdout.String(), "accuracy 91.00%") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"nope"}, &out); err == nil {
		t.Error("expected an error")
	}
	out.Reset()
	if err := run(context.Background(), []string{"version"}, &out); err != nil || strings.TrimSpace(out.String()) == "" {
		t.Errorf("version: %v %q", err, out.String())
	}
}
