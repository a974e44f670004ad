package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestFormatUserDisplayName(t *testing.T) {
	tests := []struct{ name, id, want string }{
		{"alice", "42", "alice#42"},
		{" alice ", "", "alice"},
		{"", "42", "ID:42"},
		{"", "", "-"},
	}
	for _, tt := range tests {
		if got := FormatUserDisplayName(tt.name, tt.id); got != tt.want {
			t.Errorf("FormatUserDisplayName(%q, %q) = %q, want %q", tt.name, tt.id, got, tt.want)
		}
	}
}

func TestAttachmentKinds(t *testing.T) {
	tests := []struct {
		att     *discordgo.MessageAttachment
		image   bool
		geojson bool
	}{
		{&discordgo.MessageAttachment{Filename: "a.PNG"}, true, false},
		{&discordgo.MessageAttachment{Filename: "blob", ContentType: "image/webp"}, true, false},
		{&discordgo.MessageAttachment{Filename: "area.geojson"}, false, true},
		{&discordgo.MessageAttachment{Filename: "x", ContentType: "application/json; charset=utf-8"}, false, true},
		{&discordgo.MessageAttachment{Filename: "notes.txt", ContentType: "text/plain"}, false, false},
		{nil, false, false},
	}
	for _, tt := range tests {
		if got := IsImageAttachment(tt.att); got != tt.image {
			t.Errorf("IsImageAttachment(%+v) = %v", tt.att, got)
		}
		if got := IsGeoJSONAttachment(tt.att); got != tt.geojson {
			t.Errorf("IsGeoJSONAttachment(%+v) = %v", tt.att, got)
		}
	}
}

func TestDownloadAttachment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	data, err := DownloadAttachment(context.Background(), &discordgo.MessageAttachment{Filename: "a.png", URL: srv.URL + "/a.png"})
	if err != nil || string(data) != "payload" {
		t.Fatalf("download = %q, %v", data, err)
	}

	if _, err := DownloadAttachment(context.Background(), &discordgo.MessageAttachment{Filename: "m.png", URL: srv.URL + "/missing"}); err == nil {
		t.Error("expected error for 404")
	}
	if _, err := DownloadAttachment(context.Background(), &discordgo.MessageAttachment{Filename: "big.png", URL: srv.URL, Size: MaxAttachmentBytes + 1}); err == nil {
		t.Error("expected error for oversize attachment")
	}
}

func TestInteractionUser(t *testing.T) {
	member := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Member: &discordgo.Member{User: &discordgo.User{ID: "1"}}}}
	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: &discordgo.User{ID: "2"}}}
	if InteractionUser(member).ID != "1" || InteractionUser(dm).ID != "2" {
		t.Error("wrong user picked")
	}
}
