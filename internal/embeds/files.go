package embeds

import (
	"bytes"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"Floodsim_discord_bot/internal/hotspot"
	"Floodsim_discord_bot/internal/imaging"
	"Floodsim_discord_bot/internal/simulation"
)

const heatmapGrid = 16

// FileOptions 追加で添付するファイル
type FileOptions struct {
	CSV       bool
	Heatmap   bool
	Animation bool
}

// SimulationFiles 結果の添付ファイルを作成
// comparison.png は埋め込み画像として常に先頭に入る
func SimulationFiles(res *simulation.Result, opts FileOptions) ([]*discordgo.File, error) {
	comparison, err := CombineImages(res.Before, res.After)
	if err != nil {
		return nil, fmt.Errorf("comparison image: %w", err)
	}
	after, err := imaging.EncodePNG(res.After)
	if err != nil {
		return nil, fmt.Errorf("after image: %w", err)
	}

	files := []*discordgo.File{
		pngFile(FileComparison, comparison),
		pngFile(FileAfter, bytes.NewBuffer(after)),
	}

	if len(res.Hotspots) > 0 {
		if opts.Heatmap {
			heat, err := BuildHeatmapPNG(HotspotCounts(res.Hotspots, heatmapGrid), heatmapGrid, heatmapGrid, imaging.CanonicalSize, imaging.CanonicalSize)
			if err != nil {
				return nil, fmt.Errorf("heatmap: %w", err)
			}
			files = append(files, pngFile(FileHeatmap, heat))
		}
		if opts.CSV {
			var csvBuf bytes.Buffer
			if err := hotspot.WriteCSV(&csvBuf, res.Hotspots); err != nil {
				return nil, fmt.Errorf("hotspots csv: %w", err)
			}
			files = append(files, &discordgo.File{Name: FileHotspotsCSV, ContentType: "text/csv", Reader: &csvBuf})
		}
	}

	if opts.Animation {
		anim, err := BuildTransitionGIF(res.Before, res.After)
		if err != nil {
			return nil, fmt.Errorf("transition gif: %w", err)
		}
		files = append(files, &discordgo.File{Name: FileTransition, ContentType: "image/gif", Reader: anim})
	}
	return files, nil
}

// ValidationFiles 検証結果の添付ファイルを作成
func ValidationFiles(v *simulation.Validation) ([]*discordgo.File, error) {
	side, err := CombineImages(v.Generated, v.Real)
	if err != nil {
		return nil, fmt.Errorf("validation image: %w", err)
	}
	chart, err := BuildValidationChartPNG(v)
	if err != nil {
		return nil, fmt.Errorf("validation chart: %w", err)
	}
	return []*discordgo.File{
		pngFile(FileValidation, side),
		pngFile(FileValidationChart, chart),
	}, nil
}

func pngFile(name string, buf *bytes.Buffer) *discordgo.File {
	return &discordgo.File{Name: name, ContentType: "image/png", Reader: buf}
}
