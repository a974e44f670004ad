package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// MaxAttachmentBytes Discordの無料枠の上限
const MaxAttachmentBytes = 25 << 20

var attachmentHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	},
}

// FormatUserDisplayName formats a user label as "name#id", "name", or "ID:id".
func FormatUserDisplayName(name, id string) string {
	name = strings.TrimSpace(name)
	id = strings.TrimSpace(id)
	switch {
	case name != "" && id != "":
		return fmt.Sprintf("%s#%s", name, id)
	case name != "":
		return name
	case id != "":
		return fmt.Sprintf("ID:%s", id)
	default:
		return "-"
	}
}

// InteractionUser サーバー内ならMember、DMならUserから取り出す
func InteractionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// IsImageAttachment 添付ファイルが画像か判定
func IsImageAttachment(a *discordgo.MessageAttachment) bool {
	if a == nil {
		return false
	}
	if strings.HasPrefix(a.ContentType, "image/") {
		return true
	}
	switch strings.ToLower(path.Ext(a.Filename)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp":
		return true
	}
	return false
}

// IsGeoJSONAttachment 範囲指定用のJSONファイルか判定
func IsGeoJSONAttachment(a *discordgo.MessageAttachment) bool {
	if a == nil {
		return false
	}
	switch strings.ToLower(path.Ext(a.Filename)) {
	case ".json", ".geojson":
		return true
	}
	return strings.HasPrefix(a.ContentType, "application/json") || strings.HasPrefix(a.ContentType, "application/geo+json")
}

// DownloadAttachment 添付ファイルを取得（上限サイズ付き）
func DownloadAttachment(ctx context.Context, a *discordgo.MessageAttachment) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("no attachment")
	}
	if a.Size > MaxAttachmentBytes {
		return nil, fmt.Errorf("attachment %s is too large (%d bytes)", a.Filename, a.Size)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := attachmentHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET failed for %s: %w", a.Filename, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s, status: %s", a.Filename, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxAttachmentBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxAttachmentBytes {
		return nil, fmt.Errorf("attachment %s is too large", a.Filename)
	}
	return data, nil
}
