package embeds

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"Floodsim_discord_bot/internal/metadata"
	"Floodsim_discord_bot/internal/models"
	"Floodsim_discord_bot/internal/simulation"
	"Floodsim_discord_bot/internal/version"
)

// 添付ファイル名
const (
	FileComparison      = "comparison.png"
	FileAfter           = "after.png"
	FileHotspotsCSV     = "hotspots.csv"
	FileHeatmap         = "hotspot_heatmap.png"
	FileTransition      = "before_after.gif"
	FileValidation      = "validation.png"
	FileValidationChart = "validation_chart.png"
)

const (
	colorInfo       = 0xFFD700 // Gold
	colorSimulation = 0x3498DB // Blue
	colorValidation = 0x2ECC71 // Green
)

// BuildInfoEmbed info コマンド用の埋め込みを作成
func BuildInfoEmbed(botInfo *models.BotInfo) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🌊 Flood Simulation Bot",
		Description: "Generates post-flood renderings of a selected area and validates them against ground truth.",
		Color:       colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Version", Value: botInfo.Version, Inline: true},
			{Name: "Backend", Value: botInfo.BackendHost, Inline: true},
			{Name: "Started", Value: botInfo.StartTime.Format("2006-01-02 15:04:05 MST"), Inline: false},
			{Name: "Uptime", Value: formatUptime(botInfo.Uptime()), Inline: true},
			{Name: "Simulations", Value: fmt.Sprintf("%d", botInfo.Simulations()), Inline: true},
			{Name: "Validations", Value: fmt.Sprintf("%d", botInfo.Validations()), Inline: true},
			{Name: "Patch notes", Value: patchNotes(), Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Floodsim Discord Bot " + version.Version,
		},
	}
}

func patchNotes() string {
	var b strings.Builder
	for _, n := range version.PatchNotes {
		b.WriteString("• " + n + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// BuildSimulationEmbed simulate / result コマンド用
func BuildSimulationEmbed(res *simulation.Result) *discordgo.MessageEmbed {
	prompt := res.Prompt
	if prompt == "" {
		prompt = "_(no prompt)_"
	}

	embed := &discordgo.MessageEmbed{
		Title:       "✅ Simulation complete",
		Description: "**Prompt:** " + prompt,
		Color:       colorSimulation,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "SSIM", Value: res.Metrics.Format("ssim"), Inline: true},
			{Name: "FID", Value: res.Metrics.Format("fid"), Inline: true},
			{Name: "Flood %", Value: FloodPercentText(res.Metrics), Inline: true},
			{Name: "Hotspots", Value: hotspotSummary(res), Inline: true},
		},
		Image:     &discordgo.MessageEmbedImage{URL: "attachment://" + FileComparison},
		Timestamp: res.CreatedAt.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Before | After (annotated) · " + res.ID.String()[:8],
		},
	}

	if res.Selection != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "📍 Area",
			Value:  fmt.Sprintf("`%s` · [open map](%s)", res.Selection.Center, res.Selection.MapURL()),
			Inline: false,
		})
	}
	return embed
}

// BuildValidationEmbed validate コマンド用
func BuildValidationEmbed(v *simulation.Validation) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔬 Validation",
		Description: fmt.Sprintf("SSIM: %s    FID: %s", v.SSIMText(), v.FIDText()),
		Color:       colorValidation,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Accuracy", Value: v.AccuracyText(), Inline: true},
			{Name: "Precision", Value: v.PrecisionText(), Inline: true},
			{Name: "Recall", Value: v.RecallText(), Inline: true},
			{Name: "F1", Value: v.F1Text(), Inline: true},
		},
		Image: &discordgo.MessageEmbedImage{URL: "attachment://" + FileValidation},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Generated (annotated) | Real (post-disaster)",
		},
	}
}

// FloodPercentText flood_percent に % を付ける
func FloodPercentText(m metadata.Metrics) string {
	text := m.Format("flood_percent")
	if text == metadata.NotAvailable {
		return text
	}
	return text + "%"
}

func hotspotSummary(res *simulation.Result) string {
	if len(res.Hotspots) == 0 {
		return "0"
	}
	counts := map[string]int{}
	for _, h := range res.Hotspots {
		counts[strings.ToLower(string(h.Severity()))]++
	}
	parts := make([]string, 0, 3)
	for _, sev := range []string{"high", "medium", "low"} {
		if n := counts[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", sev, n))
		}
	}
	summary := fmt.Sprintf("%d", len(res.Hotspots))
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	// 座標が読めない行は描画されない
	if res.Rendered != len(res.Hotspots) {
		summary += fmt.Sprintf(" · %d drawn", res.Rendered)
	}
	return summary
}

// formatUptime 稼働時間を人間が読みやすい形式にフォーマット
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
