package commands

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"Floodsim_discord_bot/internal/backend"
	"Floodsim_discord_bot/internal/config"
	"Floodsim_discord_bot/internal/embeds"
	"Floodsim_discord_bot/internal/geometry"
	"Floodsim_discord_bot/internal/models"
	"Floodsim_discord_bot/internal/simulation"
)

type stubBackend struct {
	prompts  []string
	simCalls int
}

func (b *stubBackend) FetchBefore(context.Context, geometry.GeoPoint) ([]byte, error) {
	return pngBytes(16, color.RGBA{0, 120, 0, 255}), nil
}

func (b *stubBackend) Simulate(_ context.Context, req backend.SimulateRequest) (*backend.SimulateResponse, error) {
	b.simCalls++
	b.prompts = append(b.prompts, req.Prompt)
	return &backend.SimulateResponse{
		Image:    pngBytes(16, color.RGBA{0, 0, 180, 255}),
		Metrics:  `{"ssim": 0.5}`,
		Hotspots: `[{"x": 100, "y": 100, "severity": "medium"}]`,
	}, nil
}

func (b *stubBackend) Compare(context.Context, []byte, []byte) (map[string]any, error) {
	return map[string]any{"accuracy": 50.0}, nil
}

func pngBytes(size int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func newTestSimulate(t *testing.T) (*SimulateCommand, *stubBackend, *config.SettingsManager) {
	t.Helper()
	sm, err := config.NewSettingsManager(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	be := &stubBackend{}
	cmd := NewSimulateCommand(simulation.NewSimulator(be), simulation.NewSessions(), sm, models.NewBotInfo("test", "localhost"))
	return cmd, be, sm
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&PingCommand{})
	r.Register(NewInfoCommand(models.NewBotInfo("v", "h")))
	r.Register(NewHelpCommand(r, "!"))
	r.Register(&PingCommand{})

	var names []string
	for _, c := range r.All() {
		names = append(names, c.Name())
	}
	if got := strings.Join(names, ","); got != "ping,info,help" {
		t.Errorf("order = %s", got)
	}
	if _, ok := r.Get("PING"); !ok {
		t.Error("Get should be case-insensitive")
	}
	if n := len(r.GetSlashDefinitions()); n != 3 {
		t.Errorf("slash definitions = %d", n)
	}

	help := NewHelpCommand(r, "?").buildHelpEmbed()
	if len(help.Fields) != 3 || !strings.Contains(help.Footer.Text, "? prefix") {
		t.Errorf("help embed = %+v", help)
	}
}

func TestParseSimulateText(t *testing.T) {
	m := &discordgo.MessageCreate{Message: &discordgo.Message{
		GuildID: "g",
		Author:  &discordgo.User{ID: "u"},
		Attachments: []*discordgo.MessageAttachment{
			{Filename: "notes.txt"},
			{Filename: "area.geojson"},
			{Filename: "before.jpg"},
			{Filename: "other.png"},
		},
	}}

	in := parseSimulateText(m, []string{"139.7,35.6,139.8,35.7", "muddy", "flooding"})
	if in.area != "139.7,35.6,139.8,35.7" || in.prompt != "muddy flooding" {
		t.Errorf("area=%q prompt=%q", in.area, in.prompt)
	}
	if in.image == nil || in.image.Filename != "before.jpg" {
		t.Errorf("image = %+v", in.image)
	}
	if in.areaFile == nil || in.areaFile.Filename != "area.geojson" {
		t.Errorf("areaFile = %+v", in.areaFile)
	}

	in = parseSimulateText(m, []string{"river", "overflow"})
	if in.area != "" || in.prompt != "river overflow" {
		t.Errorf("no bbox: area=%q prompt=%q", in.area, in.prompt)
	}
}

func TestSimulateRun_AreaAndDefaultPrompt(t *testing.T) {
	cmd, be, sm := newTestSimulate(t)
	if _, err := sm.UpdateGuildSetting("g", func(gs *config.GuildSettings) {
		gs.DefaultPrompt = "monsoon"
		gs.AttachCSV = true
	}); err != nil {
		t.Fatal(err)
	}

	r := cmd.run(simulateInput{guildID: "g", userID: "u", area: "139.7,35.6,139.8,35.7"})
	if r.Embed == nil {
		t.Fatalf("expected embed, got content %q", r.Content)
	}
	if be.prompts[0] != "monsoon" {
		t.Errorf("prompt = %q, want guild default", be.prompts[0])
	}
	var names []string
	for _, f := range r.Files {
		names = append(names, f.Name)
	}
	if got := strings.Join(names, ","); got != strings.Join([]string{embeds.FileComparison, embeds.FileAfter, embeds.FileHeatmap, embeds.FileHotspotsCSV}, ",") {
		t.Errorf("files = %s", got)
	}
	if cmd.sessions.Get("u").Result() == nil {
		t.Error("result not stored in the user's session")
	}
	if cmd.botInfo.Simulations() != 1 {
		t.Errorf("simulations = %d", cmd.botInfo.Simulations())
	}
}

func TestSimulateRun_NoSelection(t *testing.T) {
	cmd, be, _ := newTestSimulate(t)

	r := cmd.run(simulateInput{userID: "u", prompt: "x", area: "nowhere"})
	if r.Content != simulation.ErrNoSelection.Msg {
		t.Errorf("content = %q", r.Content)
	}
	if be.simCalls != 0 {
		t.Errorf("backend called %d times", be.simCalls)
	}
}

func TestSimulateBusyGuard(t *testing.T) {
	cmd, _, _ := newTestSimulate(t)
	if !cmd.acquire("u") {
		t.Fatal("first acquire failed")
	}
	if cmd.acquire("u") {
		t.Error("second acquire should fail while running")
	}
	if !cmd.acquire("other") {
		t.Error("other users are independent")
	}
	cmd.release("u")
	if !cmd.acquire("u") {
		t.Error("acquire after release failed")
	}
}

func TestValidateWithoutResult(t *testing.T) {
	be := &stubBackend{}
	sessions := simulation.NewSessions()
	cmd := NewValidateCommand(simulation.NewValidator(be), sessions, nil)

	if err := cmd.precheck("u", nil); err != simulation.ErrNoResult {
		t.Errorf("precheck = %v", err)
	}
	r := cmd.run("u", &discordgo.MessageAttachment{Filename: "truth.png", URL: "http://invalid.invalid/truth.png"})
	if r.Content != simulation.ErrNoResult.Msg {
		t.Errorf("content = %q", r.Content)
	}

	if _, err := simulation.NewSimulator(be).Run(context.Background(), sessions.Get("u"), simulation.Request{Drawing: geometry.ParseArea("0,0,1,1")}); err != nil {
		t.Fatal(err)
	}
	if err := cmd.precheck("u", nil); err != simulation.ErrNoGroundTruth {
		t.Errorf("precheck without truth = %v", err)
	}
}

func TestResultCommand(t *testing.T) {
	sessions := simulation.NewSessions()
	cmd := NewResultCommand(sessions, nil)

	if r := cmd.build("", "u"); r.Embed != nil || r.Content == "" {
		t.Errorf("empty session reply = %+v", r)
	}

	be := &stubBackend{}
	if _, err := simulation.NewSimulator(be).Run(context.Background(), sessions.Get("u"), simulation.Request{Drawing: geometry.ParseArea("0,0,1,1")}); err != nil {
		t.Fatal(err)
	}
	r := cmd.build("", "u")
	if r.Embed == nil || len(r.Files) < 2 {
		t.Errorf("reply = %+v", r)
	}
}

func TestAttachmentOption(t *testing.T) {
	att := &discordgo.MessageAttachment{ID: "99", Filename: "truth.png"}
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{
			Name: "validate",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "truth", Type: discordgo.ApplicationCommandOptionAttachment, Value: "99"},
				{Name: "prompt", Type: discordgo.ApplicationCommandOptionString, Value: "storm"},
			},
			Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
				Attachments: map[string]*discordgo.MessageAttachment{"99": att},
			},
		},
	}}

	opts := optionMap(i)
	if got := attachmentOption(i, opts, "truth"); got != att {
		t.Errorf("attachment = %+v", got)
	}
	if got := attachmentOption(i, opts, "image"); got != nil {
		t.Errorf("missing option = %+v", got)
	}
	if got := stringOption(opts, "prompt"); got != "storm" {
		t.Errorf("prompt = %q", got)
	}
	if _, set := boolOption(opts, "animate"); set {
		t.Error("animate should be unset")
	}
}

func TestBuildSettingsEmbed(t *testing.T) {
	e := buildSettingsEmbed(config.GuildSettings{})
	if e.Fields[0].Value != "_(none)_" || e.Fields[1].Value != "false" {
		t.Errorf("fields = %q, %q", e.Fields[0].Value, e.Fields[1].Value)
	}
}
