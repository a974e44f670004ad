package commands

import (
	"github.com/bwmarrin/discordgo"
)

type HelpCommand struct {
	registry *Registry
	prefix   string
}

func NewHelpCommand(registry *Registry, prefix string) *HelpCommand {
	return &HelpCommand{registry: registry, prefix: prefix}
}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Description() string {
	return "List the available commands"
}

func (c *HelpCommand) ExecuteText(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	_, err := s.ChannelMessageSendEmbed(m.ChannelID, c.buildHelpEmbed())
	return err
}

func (c *HelpCommand) ExecuteSlash(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return respondEmbed(s, i, c.buildHelpEmbed(), false)
}

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *HelpCommand) buildHelpEmbed() *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "📋 Commands",
		Description: "Upload a pre-disaster image or give an area, then validate the result against a real image.",
		Color:       0x5865F2, // Discord Blurple
		Fields:      []*discordgo.MessageEmbedField{},
	}

	// 登録順
	for _, cmd := range c.registry.All() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "🔹 " + cmd.Name(),
			Value:  cmd.Description(),
			Inline: false,
		})
	}

	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: "Text commands use the " + c.prefix + " prefix with message attachments. Slash commands are also available.",
	}
	return embed
}
