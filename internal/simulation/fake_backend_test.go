package simulation

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"sync"

	"Floodsim_discord_bot/internal/backend"
	"Floodsim_discord_bot/internal/geometry"
)

// fakeBackend records calls and answers from its fields.
type fakeBackend struct {
	mu sync.Mutex

	fetchCalls    int
	simulateCalls int
	compareCalls  int

	lastPoint    geometry.GeoPoint
	lastSimulate backend.SimulateRequest
	lastGen      []byte
	lastReal     []byte

	fetchData []byte
	fetchErr  error
	simResp   *backend.SimulateResponse
	simErr    error
	cmpResp   map[string]any
	cmpErr    error
}

func (f *fakeBackend) FetchBefore(_ context.Context, p geometry.GeoPoint) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	f.lastPoint = p
	return f.fetchData, f.fetchErr
}

func (f *fakeBackend) Simulate(_ context.Context, req backend.SimulateRequest) (*backend.SimulateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.simulateCalls++
	f.lastSimulate = req
	return f.simResp, f.simErr
}

func (f *fakeBackend) Compare(_ context.Context, generated, real []byte) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compareCalls++
	f.lastGen = generated
	f.lastReal = real
	return f.cmpResp, f.cmpErr
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls + f.simulateCalls + f.compareCalls
}

func solidPNG(w, h int, c color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// hugePNGHeader is a PNG signature and IHDR claiming w x h, with no pixels.
func hugePNGHeader(w, h uint32) []byte {
	data := append([]byte("\x89PNG\r\n\x1a\n"), 0, 0, 0, 13)
	data = append(data, "IHDR"...)
	data = binary.BigEndian.AppendUint32(data, w)
	data = binary.BigEndian.AppendUint32(data, h)
	data = append(data, 8, 6, 0, 0, 0) // 8-bit RGBA
	return binary.BigEndian.AppendUint32(data, crc32.ChecksumIEEE(data[12:]))
}
