package commands

import (
	"bytes"
	"context"
	"io"
	"log"

	"github.com/bwmarrin/discordgo"

	"Floodsim_discord_bot/internal/embeds"
	"Floodsim_discord_bot/internal/models"
	"Floodsim_discord_bot/internal/simulation"
	"Floodsim_discord_bot/internal/utils"
)

// ValidateCommand 直近の結果を実際の被災後画像と比較
type ValidateCommand struct {
	validator *simulation.Validator
	sessions  *simulation.Sessions
	botInfo   *models.BotInfo
}

// NewValidateCommand validate コマンドを作成
func NewValidateCommand(validator *simulation.Validator, sessions *simulation.Sessions, botInfo *models.BotInfo) *ValidateCommand {
	return &ValidateCommand{validator: validator, sessions: sessions, botInfo: botInfo}
}

func (c *ValidateCommand) Name() string { return "validate" }

func (c *ValidateCommand) Description() string {
	return "Compare your latest simulation with a real post-disaster image"
}

func (c *ValidateCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionAttachment,
				Name:        "truth",
				Description: "Ground-truth (post-disaster) image",
				Required:    true,
			},
		},
	}
}

func (c *ValidateCommand) ExecuteText(s *discordgo.Session, m *discordgo.MessageCreate, args []string) error {
	var truth *discordgo.MessageAttachment
	for _, a := range m.Attachments {
		if utils.IsImageAttachment(a) {
			truth = a
			break
		}
	}
	_ = s.ChannelTyping(m.ChannelID)
	return sendReply(s, m, c.run(m.Author.ID, truth))
}

func (c *ValidateCommand) ExecuteSlash(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := optionMap(i)
	truth := attachmentOption(i, opts, "truth")
	userID := utils.InteractionUser(i).ID

	// 前提条件はネットワークなしで即答する
	if err := c.precheck(userID, truth); err != nil {
		return respondText(s, i, simulation.Message(simulation.OpCompare, err), true)
	}
	if err := respondDeferred(s, i); err != nil {
		return err
	}
	return followupReply(s, i, c.run(userID, truth))
}

func (c *ValidateCommand) precheck(userID string, truth *discordgo.MessageAttachment) error {
	if c.sessions.Get(userID).Result() == nil {
		return simulation.ErrNoResult
	}
	if truth == nil {
		return simulation.ErrNoGroundTruth
	}
	return nil
}

func (c *ValidateCommand) run(userID string, truth *discordgo.MessageAttachment) reply {
	ctx, cancel := context.WithTimeout(context.Background(), runDeadline)
	defer cancel()

	sess := c.sessions.Get(userID)
	var truthReader io.Reader
	// 結果がない場合はダウンロードせずに Validator に判定させる
	if truth != nil && sess.Result() != nil {
		data, err := utils.DownloadAttachment(ctx, truth)
		if err != nil {
			return reply{Content: simulation.Message(simulation.OpCompare,
				&simulation.UserInputError{Msg: "Could not download the ground-truth image.", Err: err})}
		}
		truthReader = bytes.NewReader(data)
	}

	val, err := c.validator.Run(ctx, sess, truthReader)
	if err != nil {
		return reply{Content: simulation.Message(simulation.OpCompare, err)}
	}
	if c.botInfo != nil {
		c.botInfo.CountValidation()
	}

	files, err := embeds.ValidationFiles(val)
	if err != nil {
		log.Printf("validate: building attachments failed: %v", err)
		return reply{Embed: embeds.BuildValidationEmbed(val)}
	}
	return reply{Embed: embeds.BuildValidationEmbed(val), Files: files}
}
