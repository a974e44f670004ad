// Command floodsim runs a flood simulation (and optionally a validation)
// from the terminal and writes the results to a directory.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"Floodsim_discord_bot/internal/backend"
	"Floodsim_discord_bot/internal/config"
	"Floodsim_discord_bot/internal/embeds"
	"Floodsim_discord_bot/internal/geometry"
	"Floodsim_discord_bot/internal/hotspot"
	"Floodsim_discord_bot/internal/imaging"
	"Floodsim_discord_bot/internal/simulation"
	"Floodsim_discord_bot/internal/utils"
	"Floodsim_discord_bot/internal/version"
)

const usage = `usage: floodsim <command> [flags]

commands:
  simulate   run a simulation and write before/after images, hotspots and metrics
  version    print the version
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return flag.ErrHelp
	}
	switch args[0] {
	case "simulate":
		return runSimulate(ctx, args[1:], stdout)
	case "version":
		fmt.Fprintln(stdout, version.Version)
		return nil
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

type simulateFlags struct {
	image   string
	area    string
	bbox    string
	prompt  string
	truth   string
	out     string
	backend string
	animate bool
}

func parseSimulateFlags(args []string, output io.Writer) (*simulateFlags, error) {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.SetOutput(output)

	f := &simulateFlags{}
	fs.StringVar(&f.image, "image", "", "pre-disaster image to use as the baseline")
	fs.StringVar(&f.area, "area", "", "GeoJSON file with the drawn area")
	fs.StringVar(&f.bbox, "bbox", "", "area as minLon,minLat,maxLon,maxLat")
	fs.StringVar(&f.prompt, "prompt", "", "scenario prompt")
	fs.StringVar(&f.truth, "truth", "", "ground-truth image; runs a validation after the simulation")
	fs.StringVar(&f.out, "out", "floodsim-out", "output directory")
	fs.StringVar(&f.backend, "backend", "", "backend base URL (overrides config)")
	fs.BoolVar(&f.animate, "animate", false, "also write a before/after GIF")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	set := 0
	for _, v := range []string{f.image, f.area, f.bbox} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("exactly one of -image, -area or -bbox is required")
	}
	return f, nil
}

func (f *simulateFlags) request() (simulation.Request, error) {
	req := simulation.Request{Prompt: f.prompt}
	switch {
	case f.image != "":
		data, err := os.ReadFile(f.image)
		if err != nil {
			return req, err
		}
		req.Baseline = bytes.NewReader(data)
	case f.area != "":
		data, err := os.ReadFile(f.area)
		if err != nil {
			return req, err
		}
		req.Drawing = geometry.WrapDrawing(data)
	default:
		bound, err := geometry.ParseBBox(f.bbox)
		if err != nil {
			return req, err
		}
		payload, err := geometry.RectanglePayload(bound)
		if err != nil {
			return req, err
		}
		req.Drawing = payload
	}
	return req, nil
}

func runSimulate(ctx context.Context, args []string, stdout io.Writer) error {
	f, err := parseSimulateFlags(args, stdout)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if f.backend != "" {
		cfg.BackendURL = f.backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	client, err := backend.New(cfg.BackendURL,
		backend.WithTimeouts(cfg.FetchTimeout, cfg.SimulateTimeout, cfg.CompareTimeout),
		backend.WithUserAgent(cfg.UserAgent),
	)
	if err != nil {
		return err
	}
	return simulate(ctx, client, f, stdout)
}

func simulate(ctx context.Context, b simulation.Backend, f *simulateFlags, stdout io.Writer) error {
	req, err := f.request()
	if err != nil {
		return err
	}

	sess := simulation.NewSession()
	res, err := simulation.NewSimulator(b).Run(ctx, sess, req)
	if err != nil {
		return errors.New(simulation.Message(simulation.OpSimulate, err))
	}

	files, err := resultFiles(res, f.animate)
	if err != nil {
		return err
	}

	if f.truth != "" {
		truth, err := os.Open(f.truth)
		if err != nil {
			return err
		}
		defer truth.Close()

		val, err := simulation.NewValidator(b).Run(ctx, sess, truth)
		if err != nil {
			return errors.New(simulation.Message(simulation.OpCompare, err))
		}
		if err := addValidationFiles(files, val); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "accuracy %s  precision %s  recall %s  f1 %s\n",
			val.AccuracyText(), val.PrecisionText(), val.RecallText(), val.F1Text())
	}

	if err := utils.WriteFilesAtomic(f.out, files); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "ssim %s  fid %s  flood %s  hotspots %d\n",
		res.Metrics.Format("ssim"), res.Metrics.Format("fid"), embeds.FloodPercentText(res.Metrics), len(res.Hotspots))
	fmt.Fprintf(stdout, "wrote %d files to %s\n", len(files), f.out)
	return nil
}

type resultSummary struct {
	ID       string             `json:"id"`
	Prompt   string             `json:"prompt"`
	Metrics  map[string]float64 `json:"metrics"`
	Hotspots int                `json:"hotspots"`
	Rendered int                `json:"rendered"`
	Center   *[2]float64        `json:"center,omitempty"` // [lat, lon]
}

func resultFiles(res *simulation.Result, animate bool) (map[string][]byte, error) {
	files := make(map[string][]byte)

	before, err := imaging.EncodePNG(res.Before)
	if err != nil {
		return nil, fmt.Errorf("before image: %w", err)
	}
	files["before.png"] = before

	after, err := imaging.EncodePNG(res.After)
	if err != nil {
		return nil, fmt.Errorf("after image: %w", err)
	}
	files[embeds.FileAfter] = after

	comparison, err := embeds.CombineImages(res.Before, res.After)
	if err != nil {
		return nil, fmt.Errorf("comparison image: %w", err)
	}
	files[embeds.FileComparison] = comparison.Bytes()

	var csvBuf bytes.Buffer
	if err := hotspot.WriteCSV(&csvBuf, res.Hotspots); err != nil {
		return nil, fmt.Errorf("hotspots csv: %w", err)
	}
	files[embeds.FileHotspotsCSV] = csvBuf.Bytes()

	summary := resultSummary{
		ID:       res.ID.String(),
		Prompt:   res.Prompt,
		Metrics:  res.Metrics,
		Hotspots: len(res.Hotspots),
		Rendered: res.Rendered,
	}
	if res.Selection != nil {
		summary.Center = &[2]float64{res.Selection.Center.Lat, res.Selection.Center.Lon}
	}
	meta, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, err
	}
	files["metrics.json"] = meta

	if animate {
		anim, err := embeds.BuildTransitionGIF(res.Before, res.After)
		if err != nil {
			return nil, fmt.Errorf("transition gif: %w", err)
		}
		files[embeds.FileTransition] = anim.Bytes()
	}
	return files, nil
}

func addValidationFiles(files map[string][]byte, val *simulation.Validation) error {
	chart, err := embeds.BuildValidationChartPNG(val)
	if err != nil {
		return fmt.Errorf("validation chart: %w", err)
	}
	files[embeds.FileValidationChart] = chart.Bytes()

	side, err := embeds.CombineImages(val.Generated, val.Real)
	if err != nil {
		return fmt.Errorf("validation image: %w", err)
	}
	files[embeds.FileValidation] = side.Bytes()

	report, err := json.MarshalIndent(map[string]any{
		"accuracy":  val.Accuracy,
		"precision": val.Precision,
		"recall":    val.Recall,
		"f1":        val.F1,
		"metrics":   val.Metrics,
	}, "", "  ")
	if err != nil {
		return err
	}
	files["validation.json"] = report
	return nil
}
