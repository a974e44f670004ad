package handler

import (
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

func (h *Handler) OnMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Botメッセージを無視
	if m.Author == nil || m.Author.Bot {
		return
	}

	cmdName, args, ok := parseCommand(h.prefix, m.Content)
	if !ok {
		return
	}

	cmd, exists := h.registry.Get(cmdName)
	if !exists {
		return
	}

	log.Printf("Executing text command: %s (args: %v)", cmdName, args)
	if err := cmd.ExecuteText(s, m, args); err != nil {
		log.Printf("Error executing command %s: %v", cmdName, err)
		s.ChannelMessageSend(m.ChannelID, "An error occurred while executing the command.")
	}
}

// parseCommand プレフィックス付きメッセージをコマンド名と引数に分ける
func parseCommand(prefix, content string) (string, []string, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	parts := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(parts) == 0 {
		return "", nil, false
	}
	return parts[0], parts[1:], true
}
