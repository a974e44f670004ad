package models

import (
	"sync/atomic"
	"time"
)

// BotInfo Botの情報を保持
type BotInfo struct {
	Version     string
	BackendHost string
	StartTime   time.Time

	simulations atomic.Int64
	validations atomic.Int64
}

// NewBotInfo 新しいBotInfo構造体を作成
func NewBotInfo(version, backendHost string) *BotInfo {
	return &BotInfo{
		Version:     version,
		BackendHost: backendHost,
		StartTime:   time.Now(),
	}
}

// Uptime Bot起動からの経過時間を返す
func (b *BotInfo) Uptime() time.Duration {
	return time.Since(b.StartTime)
}

// CountSimulation 成功したシミュレーションを数える
func (b *BotInfo) CountSimulation() { b.simulations.Add(1) }

// CountValidation 成功した検証を数える
func (b *BotInfo) CountValidation() { b.validations.Add(1) }

func (b *BotInfo) Simulations() int64 { return b.simulations.Load() }
func (b *BotInfo) Validations() int64 { return b.validations.Load() }
