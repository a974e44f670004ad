package commands

import (
	"github.com/bwmarrin/discordgo"
)

// reply コマンド結果（テキスト/スラッシュ共通）
type reply struct {
	Content string
	Embed   *discordgo.MessageEmbed
	Files   []*discordgo.File
}

func respondText(s *discordgo.Session, i *discordgo.InteractionCreate, msg string, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Content: msg}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func respondDeferred(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

// followupReply 遅延応答の後に結果を送る
func followupReply(s *discordgo.Session, i *discordgo.InteractionCreate, r reply) error {
	params := &discordgo.WebhookParams{
		Content: r.Content,
		Files:   r.Files,
	}
	if r.Embed != nil {
		params.Embeds = []*discordgo.MessageEmbed{r.Embed}
	}
	_, err := s.FollowupMessageCreate(i.Interaction, true, params)
	return err
}

// sendReply テキストコマンドの返信
func sendReply(s *discordgo.Session, m *discordgo.MessageCreate, r reply) error {
	_, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:   r.Content,
		Embed:     r.Embed,
		Files:     r.Files,
		Reference: m.Reference(),
	})
	return err
}

// optionMap スラッシュコマンドのオプションを名前で引けるようにする
func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		out[opt.Name] = opt
	}
	return out
}

// attachmentOption 添付ファイルオプションを解決する
func attachmentOption(i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.MessageAttachment {
	opt, ok := opts[name]
	if !ok {
		return nil
	}
	id, ok := opt.Value.(string)
	if !ok {
		return nil
	}
	resolved := i.ApplicationCommandData().Resolved
	if resolved == nil {
		return nil
	}
	return resolved.Attachments[id]
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func boolOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (value, set bool) {
	if opt, ok := opts[name]; ok {
		return opt.BoolValue(), true
	}
	return false, false
}
