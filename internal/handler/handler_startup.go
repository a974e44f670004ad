package handler

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

func (h *Handler) OnReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("Logged in as: %s (%d guilds)", event.User.Username, len(event.Guilds))

	// スラッシュコマンドを同期
	if err := h.SyncSlashCommands(s); err != nil {
		log.Printf("Error syncing slash commands: %v", err)
	}

	if err := s.UpdateGameStatus(0, h.prefix+"help | /simulate"); err != nil {
		log.Printf("Error updating status: %v", err)
	}
}
