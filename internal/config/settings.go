package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"Floodsim_discord_bot/internal/utils"
)

// MaxDefaultPromptLength Discordの入力上限に合わせる
const MaxDefaultPromptLength = 500

// GuildSettings サーバーごとの設定
type GuildSettings struct {
	DefaultPrompt string `json:"default_prompt,omitempty"` // プロンプト未指定時に使う
	AttachCSV     bool   `json:"attach_csv"`               // hotspots.csv を添付するか
}

// DefaultGuildSettings デフォルト設定
var DefaultGuildSettings = GuildSettings{
	AttachCSV: true,
}

type settingsFile struct {
	Guilds map[string]GuildSettings `json:"guilds"`
}

// SettingsManager 設定管理
type SettingsManager struct {
	mu       sync.RWMutex
	guilds   map[string]GuildSettings
	filePath string
}

// NewSettingsManager 設定マネージャーを作成。読み込みに失敗した場合は空の状態で返す
func NewSettingsManager(path string) (*SettingsManager, error) {
	sm := &SettingsManager{
		guilds:   make(map[string]GuildSettings),
		filePath: path,
	}
	return sm, sm.Load()
}

// Load 設定をファイルから読み込む。ファイルがなければ何もしない
func (sm *SettingsManager) Load() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.filePath == "" {
		return nil
	}
	data, err := os.ReadFile(sm.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var format settingsFile
	if err := json.Unmarshal(data, &format); err != nil {
		return err
	}
	if format.Guilds != nil {
		sm.guilds = format.Guilds
	}
	return nil
}

func (sm *SettingsManager) saveLocked() error {
	if sm.filePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(settingsFile{Guilds: sm.guilds}, "", "  ")
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(sm.filePath, data)
}

// GetGuildSettings サーバー設定を取得（存在しない場合はデフォルト）
func (sm *SettingsManager) GetGuildSettings(guildID string) GuildSettings {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if settings, ok := sm.guilds[guildID]; ok {
		return settings
	}
	return DefaultGuildSettings
}

// UpdateGuildSetting 特定の設定項目を更新して保存
func (sm *SettingsManager) UpdateGuildSetting(guildID string, update func(*GuildSettings)) (GuildSettings, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	settings, ok := sm.guilds[guildID]
	if !ok {
		settings = DefaultGuildSettings
	}
	update(&settings)
	settings.DefaultPrompt = strings.TrimSpace(settings.DefaultPrompt)
	if len([]rune(settings.DefaultPrompt)) > MaxDefaultPromptLength {
		settings.DefaultPrompt = string([]rune(settings.DefaultPrompt)[:MaxDefaultPromptLength])
	}
	sm.guilds[guildID] = settings
	return settings, sm.saveLocked()
}
