package commands

import (
	"log"

	"github.com/bwmarrin/discordgo"

	"Floodsim_discord_bot/internal/config"
	"Floodsim_discord_bot/internal/embeds"
	"Floodsim_discord_bot/internal/simulation"
	"Floodsim_discord_bot/internal/utils"
)

// ResultCommand 直近の結果を再表示
type ResultCommand struct {
	sessions *simulation.Sessions
	settings *config.SettingsManager
}

// NewResultCommand result コマンドを作成
func NewResultCommand(sessions *simulation.Sessions, settings *config.SettingsManager) *ResultCommand {
	return &ResultCommand{sessions: sessions, settings: settings}
}

func (c *ResultCommand) Name() string { return "result" }

func (c *ResultCommand) Description() string {
	return "Show your latest simulation result again"
}

func (c *ResultCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *ResultCommand) ExecuteText(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	return sendReply(s, m, c.build(m.GuildID, m.Author.ID))
}

func (c *ResultCommand) ExecuteSlash(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	r := c.build(i.GuildID, utils.InteractionUser(i).ID)
	if r.Embed == nil {
		return respondText(s, i, r.Content, true)
	}
	if err := respondDeferred(s, i); err != nil {
		return err
	}
	return followupReply(s, i, r)
}

func (c *ResultCommand) build(guildID, userID string) reply {
	res := c.sessions.Get(userID).Result()
	if res == nil {
		return reply{Content: "No simulation yet. Run /simulate first."}
	}
	gs := config.DefaultGuildSettings
	if c.settings != nil && guildID != "" {
		gs = c.settings.GetGuildSettings(guildID)
	}
	files, err := embeds.SimulationFiles(res, embeds.FileOptions{CSV: gs.AttachCSV, Heatmap: true})
	if err != nil {
		log.Printf("result: building attachments failed: %v", err)
		return reply{Embed: embeds.BuildSimulationEmbed(res)}
	}
	return reply{Embed: embeds.BuildSimulationEmbed(res), Files: files}
}
