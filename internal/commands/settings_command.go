package commands

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"Floodsim_discord_bot/internal/config"
)

// SettingsCommand サーバー設定コマンド
type SettingsCommand struct {
	settings *config.SettingsManager
}

// NewSettingsCommand 設定コマンドを作成
func NewSettingsCommand(settings *config.SettingsManager) *SettingsCommand {
	return &SettingsCommand{settings: settings}
}

func (c *SettingsCommand) Name() string { return "settings" }
func (c *SettingsCommand) Description() string {
	return "Show or change this server's simulation defaults (admins only)"
}

func (c *SettingsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "default_prompt",
				Description: "Prompt used when /simulate has none",
				MaxLength:   config.MaxDefaultPromptLength,
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "clear_prompt",
				Description: "Remove the default prompt",
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "attach_csv",
				Description: "Attach hotspots.csv to results",
			},
		},
	}
}

// ExecuteText 表示のみ（変更はスラッシュコマンドで行う）
func (c *SettingsCommand) ExecuteText(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	if m.GuildID == "" {
		_, err := s.ChannelMessageSend(m.ChannelID, "❌ Settings are per server.")
		return err
	}
	_, err := s.ChannelMessageSendEmbed(m.ChannelID, buildSettingsEmbed(c.settings.GetGuildSettings(m.GuildID)))
	return err
}

func (c *SettingsCommand) ExecuteSlash(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" {
		return respondText(s, i, "❌ Settings are per server.", true)
	}
	opts := optionMap(i)
	if len(opts) == 0 {
		return respondEmbed(s, i, buildSettingsEmbed(c.settings.GetGuildSettings(i.GuildID)), true)
	}

	if !isAdmin(s, i) {
		return respondText(s, i, "❌ Only server admins can change settings.", true)
	}

	updated, err := c.settings.UpdateGuildSetting(i.GuildID, func(gs *config.GuildSettings) {
		if p, ok := opts["default_prompt"]; ok {
			gs.DefaultPrompt = p.StringValue()
		}
		if clearPrompt, _ := boolOption(opts, "clear_prompt"); clearPrompt {
			gs.DefaultPrompt = ""
		}
		if v, set := boolOption(opts, "attach_csv"); set {
			gs.AttachCSV = v
		}
	})
	if err != nil {
		log.Printf("settings: save failed for guild %s: %v", i.GuildID, err)
		return respondText(s, i, "⚠️ Settings changed but could not be saved to disk.", true)
	}
	return respondEmbed(s, i, buildSettingsEmbed(updated), true)
}

func buildSettingsEmbed(gs config.GuildSettings) *discordgo.MessageEmbed {
	prompt := gs.DefaultPrompt
	if prompt == "" {
		prompt = "_(none)_"
	}
	return &discordgo.MessageEmbed{
		Title: "⚙️ Server settings",
		Color: 0x95A5A6,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Default prompt", Value: prompt},
			{Name: "Attach hotspots.csv", Value: fmt.Sprintf("%t", gs.AttachCSV)},
		},
	}
}

// isAdmin 管理者権限を持つかチェック
func isAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	// Discordが計算済みの権限を渡してくる
	if i.Member.Permissions&(discordgo.PermissionAdministrator|discordgo.PermissionManageGuild) != 0 {
		return true
	}
	guild, err := s.State.Guild(i.GuildID)
	if err != nil {
		return false
	}
	return i.Member.User != nil && guild.OwnerID == i.Member.User.ID
}
