package commands

import (
	"bytes"
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"Floodsim_discord_bot/internal/config"
	"Floodsim_discord_bot/internal/embeds"
	"Floodsim_discord_bot/internal/geometry"
	"Floodsim_discord_bot/internal/models"
	"Floodsim_discord_bot/internal/simulation"
	"Floodsim_discord_bot/internal/utils"
)

// runDeadline 1回の実行全体の上限（fetch + simulate + 添付の取得）
const runDeadline = 10 * time.Minute

const busyMessage = "⏳ A simulation is already running for you. Please wait for it to finish."

type simulateInput struct {
	guildID  string
	userID   string
	prompt   string
	image    *discordgo.MessageAttachment
	area     string
	areaFile *discordgo.MessageAttachment
	animate  bool
}

// SimulateCommand 洪水シミュレーションを実行
type SimulateCommand struct {
	simulator *simulation.Simulator
	sessions  *simulation.Sessions
	settings  *config.SettingsManager
	botInfo   *models.BotInfo

	inflight sync.Map // userID -> struct{}
}

// NewSimulateCommand simulate コマンドを作成
func NewSimulateCommand(
	simulator *simulation.Simulator,
	sessions *simulation.Sessions,
	settings *config.SettingsManager,
	botInfo *models.BotInfo,
) *SimulateCommand {
	return &SimulateCommand{
		simulator: simulator,
		sessions:  sessions,
		settings:  settings,
		botInfo:   botInfo,
	}
}

func (c *SimulateCommand) Name() string { return "simulate" }

func (c *SimulateCommand) Description() string {
	return "Simulate flooding for an uploaded image or a map area"
}

func (c *SimulateCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionAttachment,
				Name:        "image",
				Description: "Pre-disaster image (wins over the area)",
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "prompt",
				Description: "Scenario prompt, e.g. muddy flooding",
				MaxLength:   config.MaxDefaultPromptLength,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "area",
				Description: "minLon,minLat,maxLon,maxLat or a GeoJSON drawing",
			},
			{
				Type:        discordgo.ApplicationCommandOptionAttachment,
				Name:        "area_file",
				Description: "GeoJSON file with the drawn rectangle",
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "animate",
				Description: "Also attach a before/after animation",
			},
		},
	}
}

// ExecuteText !simulate [bbox] [prompt...] + 添付（画像 または .geojson）
func (c *SimulateCommand) ExecuteText(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	in := parseSimulateText(m, args)
	if !c.acquire(in.userID) {
		_, err := s.ChannelMessageSend(m.ChannelID, busyMessage)
		return err
	}
	defer c.release(in.userID)

	_ = s.ChannelTyping(m.ChannelID)
	return sendReply(s, m, c.run(in))
}

func parseSimulateText(m *discordgo.MessageCreate, args []string) simulateInput {
	in := simulateInput{
		guildID: m.GuildID,
		userID:  m.Author.ID,
	}
	if len(args) > 0 {
		if _, err := geometry.ParseBBox(args[0]); err == nil {
			in.area = args[0]
			args = args[1:]
		}
	}
	in.prompt = strings.Join(args, " ")
	for _, a := range m.Attachments {
		switch {
		case in.image == nil && utils.IsImageAttachment(a):
			in.image = a
		case in.areaFile == nil && utils.IsGeoJSONAttachment(a):
			in.areaFile = a
		}
	}
	return in
}

func (c *SimulateCommand) ExecuteSlash(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := optionMap(i)
	user := utils.InteractionUser(i)
	in := simulateInput{
		guildID:  i.GuildID,
		userID:   user.ID,
		prompt:   stringOption(opts, "prompt"),
		image:    attachmentOption(i, opts, "image"),
		area:     stringOption(opts, "area"),
		areaFile: attachmentOption(i, opts, "area_file"),
	}
	in.animate, _ = boolOption(opts, "animate")

	if !c.acquire(in.userID) {
		return respondText(s, i, busyMessage, true)
	}
	defer c.release(in.userID)

	if err := respondDeferred(s, i); err != nil {
		return err
	}
	return followupReply(s, i, c.run(in))
}

func (c *SimulateCommand) acquire(userID string) bool {
	_, running := c.inflight.LoadOrStore(userID, struct{}{})
	return !running
}

func (c *SimulateCommand) release(userID string) {
	c.inflight.Delete(userID)
}

func (c *SimulateCommand) run(in simulateInput) reply {
	ctx, cancel := context.WithTimeout(context.Background(), runDeadline)
	defer cancel()

	gs := config.DefaultGuildSettings
	if c.settings != nil && in.guildID != "" {
		gs = c.settings.GetGuildSettings(in.guildID)
	}
	req := simulation.Request{Prompt: strings.TrimSpace(in.prompt)}
	if req.Prompt == "" {
		req.Prompt = gs.DefaultPrompt
	}

	if in.image != nil {
		data, err := utils.DownloadAttachment(ctx, in.image)
		if err != nil {
			return reply{Content: simulation.Message(simulation.OpSimulate,
				&simulation.UserInputError{Msg: "Could not download the uploaded image.", Err: err})}
		}
		req.Baseline = bytes.NewReader(data)
	} else {
		drawing, err := c.drawing(ctx, in)
		if err != nil {
			return reply{Content: simulation.Message(simulation.OpSimulate, err)}
		}
		req.Drawing = drawing
	}

	res, err := c.simulator.Run(ctx, c.sessions.Get(in.userID), req)
	if err != nil {
		return reply{Content: simulation.Message(simulation.OpSimulate, err)}
	}
	if c.botInfo != nil {
		c.botInfo.CountSimulation()
	}

	files, err := embeds.SimulationFiles(res, embeds.FileOptions{
		CSV:       gs.AttachCSV,
		Heatmap:   true,
		Animation: in.animate,
	})
	if err != nil {
		log.Printf("simulate: building attachments failed: %v", err)
		return reply{Content: "Simulation finished but the images could not be prepared. Try /result."}
	}
	return reply{Embed: embeds.BuildSimulationEmbed(res), Files: files}
}

// drawing area_file があればそれを、なければ area テキストを使う
func (c *SimulateCommand) drawing(ctx context.Context, in simulateInput) ([]byte, error) {
	if in.areaFile != nil {
		data, err := utils.DownloadAttachment(ctx, in.areaFile)
		if err != nil {
			return nil, &simulation.UserInputError{Msg: "Could not download the area file.", Err: err}
		}
		return geometry.WrapDrawing(data), nil
	}
	return geometry.ParseArea(in.area), nil
}
