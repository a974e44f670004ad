package handler

import (
	"Floodsim_discord_bot/internal/commands"
	"Floodsim_discord_bot/internal/config"
	"Floodsim_discord_bot/internal/models"
	"Floodsim_discord_bot/internal/simulation"
)

// Deps コマンドが共有する依存
type Deps struct {
	Simulator *simulation.Simulator
	Validator *simulation.Validator
	Sessions  *simulation.Sessions
	Settings  *config.SettingsManager
	BotInfo   *models.BotInfo
}

type Handler struct {
	registry *commands.Registry
	prefix   string
}

func NewHandler(prefix string, deps Deps) *Handler {
	registry := commands.NewRegistry()

	// 登録順がヘルプの表示順になる
	commandsList := []commands.Command{
		commands.NewSimulateCommand(deps.Simulator, deps.Sessions, deps.Settings, deps.BotInfo),
		commands.NewValidateCommand(deps.Validator, deps.Sessions, deps.BotInfo),
		commands.NewResultCommand(deps.Sessions, deps.Settings),
		commands.NewSettingsCommand(deps.Settings),
		&commands.PingCommand{},
		commands.NewInfoCommand(deps.BotInfo),
	}
	// HelpCommandは最後に追加し、registryを渡す
	commandsList = append(commandsList, commands.NewHelpCommand(registry, prefix))

	for _, cmd := range commandsList {
		registry.Register(cmd)
	}

	return &Handler{
		registry: registry,
		prefix:   prefix,
	}
}
