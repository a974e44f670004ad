package version

const (
	// Botのバージョン番号
	Version = "0.4.0"
)

// PatchNotes パッチノートの内容
var PatchNotes = []string{
	"/validate の結果にグラフを追加しました。",
	"ホットスポットのヒートマップと hotspots.csv を添付するようにしました。",
	"バックエンドのタイムアウト時のメッセージを改善しました。",
}
