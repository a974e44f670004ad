package simulation

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"testing"
	"unicode/utf8"

	. "github.com/smartystreets/goconvey/convey"

	"Floodsim_discord_bot/internal/backend"
	"Floodsim_discord_bot/internal/imaging"
)

func TestValidatorRun(t *testing.T) {
	Convey("Given a validator with a fake backend", t, func() {
		fake := &fakeBackend{
			simResp: &backend.SimulateResponse{Image: solidPNG(64, 64, blue)},
			cmpResp: map[string]any{
				"accuracy":  91.237,
				"precision": 0.8,
				"f1":        "0.5",
				"fid":       42.0,
			},
		}
		val := NewValidator(fake)
		sess := NewSession()
		ctx := context.Background()
		truth := solidPNG(128, 96, green)

		Convey("When no simulation has run yet", func() {
			_, err := val.Run(ctx, sess, bytes.NewReader(truth))

			Convey("Then it fails fast without a backend call", func() {
				So(errors.Is(err, ErrNoResult), ShouldBeTrue)
				So(Message(OpCompare, err), ShouldEqual, "Run simulation first (to produce a generated image).")
				So(fake.calls(), ShouldEqual, 0)
			})
		})

		Convey("When a simulation result exists", func() {
			res, err := NewSimulator(fake).Run(ctx, sess, Request{Baseline: bytes.NewReader(solidPNG(16, 16, green))})
			So(err, ShouldBeNil)
			before := fake.calls()

			Convey("And no ground truth is given", func() {
				_, errNil := val.Run(ctx, sess, nil)
				_, errEmpty := val.Run(ctx, sess, bytes.NewReader(nil))

				Convey("Then both fail fast without a backend call", func() {
					So(errors.Is(errNil, ErrNoGroundTruth), ShouldBeTrue)
					So(errors.Is(errEmpty, ErrNoGroundTruth), ShouldBeTrue)
					So(fake.calls(), ShouldEqual, before)
				})
			})

			Convey("And the ground truth claims enormous dimensions", func() {
				_, err := val.Run(ctx, sess, bytes.NewReader(hugePNGHeader(30000, 30000)))

				Convey("Then it is refused as too large without a compare call", func() {
					So(Message(OpCompare, err), ShouldEqual, "The ground-truth image is too large (at most 40 megapixels).")
					So(fake.calls(), ShouldEqual, before)
				})
			})

			Convey("And the ground truth is not an image", func() {
				_, err := val.Run(ctx, sess, bytes.NewReader([]byte("nope")))

				var input *UserInputError
				So(errors.As(err, &input), ShouldBeTrue)
				So(fake.compareCalls, ShouldEqual, 0)
			})

			Convey("And a ground truth image is given", func() {
				out, err := val.Run(ctx, sess, bytes.NewReader(truth))

				Convey("Then one compare call sends the annotated result and the raw truth", func() {
					So(err, ShouldBeNil)
					So(fake.compareCalls, ShouldEqual, 1)
					So(fake.lastReal, ShouldResemble, truth)
					gen, _, decErr := imaging.Decode(fake.lastGen)
					So(decErr, ShouldBeNil)
					So(samePixels(gen, res.After), ShouldBeTrue)
				})

				Convey("Then absent fields default for display", func() {
					So(out.AccuracyText(), ShouldEqual, "91.24%")
					So(out.PrecisionText(), ShouldEqual, "0.800")
					So(out.RecallText(), ShouldEqual, "0.000")
					So(out.F1Text(), ShouldEqual, "0.500")
					So(out.SSIMText(), ShouldEqual, "N/A")
					So(out.FIDText(), ShouldEqual, "42")
				})

				Convey("Then the real image is normalised for display", func() {
					So(out.Real.Bounds(), ShouldResemble, image.Rect(0, 0, 512, 512))
					So(out.Generated, ShouldEqual, res.After)
				})
			})

			Convey("And the compare call times out", func() {
				fake.cmpErr = &backend.TimeoutError{Endpoint: backend.EndpointCompare}
				_, err := val.Run(ctx, sess, bytes.NewReader(truth))

				So(Message(OpCompare, err), ShouldEqual, "⏱️ Backend compare request timed out.")
			})

			Convey("And the compare call fails with a status", func() {
				fake.cmpErr = &backend.StatusError{Endpoint: backend.EndpointCompare, Code: 422, Body: "size mismatch"}
				_, err := val.Run(ctx, sess, bytes.NewReader(truth))

				So(Message(OpCompare, err), ShouldEqual, "Backend compare failed: 422 → size mismatch")
			})
		})
	})
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		err  error
		want string
	}{
		{"nil", OpSimulate, nil, ""},
		{"generic simulate", OpSimulate, errors.New("boom"), "Simulation failed: boom"},
		{"generic compare", OpCompare, errors.New("boom"), "Compare failed: boom"},
		{"wrapped input", OpCompare, errors.Join(errors.New("ctx"), ErrNoGroundTruth), "Upload a ground-truth (post-disaster) image to validate."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.op, tt.err); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageLongStatusBody(t *testing.T) {
	page := "<html><body>" + strings.Repeat("502 Bad Gateway ", 256) + "</body></html>"
	for _, op := range []Operation{OpSimulate, OpCompare} {
		msg := Message(op, &backend.StatusError{Code: 502, Body: page})
		if n := utf8.RuneCountInString(msg); n > 2000 {
			t.Errorf("%s: message has %d runes", op, n)
		}
		if !strings.Contains(msg, "502") || !strings.HasSuffix(msg, "…") {
			t.Errorf("%s: message = %.80q...", op, msg)
		}
	}

	short := Message(OpSimulate, &backend.StatusError{Code: 500, Body: "CUDA out of memory"})
	if short != "Backend error: 500 — CUDA out of memory" {
		t.Errorf("short body changed: %q", short)
	}
}
