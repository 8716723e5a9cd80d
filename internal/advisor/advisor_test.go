package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"hoffenc/internal/mediaprobe"
	"hoffenc/internal/settings"
)

func TestRuleBased_CRF(t *testing.T) {
	gb := int64(1 << 30)
	tests := []struct {
		name string
		info mediaprobe.VideoInfo
		want int
	}{
		{"4k", mediaprobe.VideoInfo{Width: 3840, Height: 2160, FPS: 30, Bitrate: 40_000_000, VideoCodec: "h264"}, 25},
		{"1080p", mediaprobe.VideoInfo{Width: 1920, Height: 1080, FPS: 30, Bitrate: 8_000_000, VideoCodec: "h264"}, 26},
		{"720p", mediaprobe.VideoInfo{Width: 1280, Height: 720, FPS: 30, Bitrate: 3_000_000, VideoCodec: "h264"}, 27},
		{"1080p over 1GB", mediaprobe.VideoInfo{Width: 1920, Height: 1080, FPS: 30, FileSize: 2 * gb, VideoCodec: "h264"}, 28},
		{"4k over 500MB hevc", mediaprobe.VideoInfo{Width: 3840, Height: 2160, FPS: 30, FileSize: 600 << 20, VideoCodec: "hevc"}, 27},
		{"long 1080p", mediaprobe.VideoInfo{Width: 1920, Height: 1080, FPS: 30, Duration: 4000, VideoCodec: "h264"}, 27},
		{"half step truncates", mediaprobe.VideoInfo{Width: 1920, Height: 1080, FPS: 30, Duration: 2000, VideoCodec: "h264"}, 26},
		{"clamped", mediaprobe.VideoInfo{Width: 640, Height: 360, FPS: 30, FileSize: 2 * gb, Duration: 7200, VideoCodec: "x265"}, 28},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RuleBased(tt.info).RecommendedCRF; got != tt.want {
				t.Errorf("RuleBased().RecommendedCRF = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRuleBased_MotionAndComplexity(t *testing.T) {
	a := RuleBased(mediaprobe.VideoInfo{Width: 1280, Height: 720, FPS: 60, Bitrate: 20_000_000, Duration: 10})
	if a.MotionLevel != "high" {
		t.Errorf("MotionLevel = %q, want high", a.MotionLevel)
	}
	if a.ComplexityScore != 1 || !a.HasGrain || !a.HasFineDetails {
		t.Errorf("analysis = %+v, want saturated complexity with grain", a)
	}
	if a.SceneChanges != 20 || a.Source != "rules" {
		t.Errorf("SceneChanges/Source = %d/%q", a.SceneChanges, a.Source)
	}
	if m := RuleBased(mediaprobe.VideoInfo{FPS: 25}).MotionLevel; m != "low" {
		t.Errorf("MotionLevel(25fps) = %q, want low", m)
	}
}

func TestOptimizedSettings(t *testing.T) {
	base := settings.Defaults()
	base.OutputFormat = "mkv"
	base.VideoBitrate = settings.ExplicitValue("4000k")

	tests := []struct {
		name      string
		a         Analysis
		wantCRF   int
		wantAudio string
	}{
		{"low complexity raises crf", Analysis{ComplexityScore: 0.3, RecommendedCRF: 27, AudioComplexity: "simple"}, 28, "128k"},
		{"fine details lower crf", Analysis{ComplexityScore: 0.9, HasFineDetails: true, RecommendedCRF: 18, AudioComplexity: "complex"}, 18, "192k"},
		{"neutral", Analysis{ComplexityScore: 0.6, RecommendedCRF: 24, AudioComplexity: "moderate"}, 24, "160k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OptimizedSettings(tt.a, base)
			if got.CRF != tt.wantCRF {
				t.Errorf("CRF = %d, want %d", got.CRF, tt.wantCRF)
			}
			if got.AudioBitrate.String() != tt.wantAudio {
				t.Errorf("AudioBitrate = %s, want %s", got.AudioBitrate, tt.wantAudio)
			}
			if got.OutputFormat != "mp4" || got.VideoBitrate.IsExplicit() {
				t.Errorf("format/bitrate = %s/%s, want mp4 in CRF mode", got.OutputFormat, got.VideoBitrate)
			}
			if got.VideoCodec != base.VideoCodec {
				t.Errorf("VideoCodec = %s, want base codec", got.VideoCodec)
			}
		})
	}
}

func TestParseReply(t *testing.T) {
	reply := "Here is my analysis:\n```json\n{\"complexity_score\": 0.4, \"recommended_crf\": 35, \"recommended_preset\": \"turbo\", \"motion_level\": \"low\"}\n```"
	a, err := ParseReply(reply, "m")
	if err != nil {
		t.Fatalf("ParseReply() error = %v", err)
	}
	if a.RecommendedCRF != 28 || a.RecommendedPreset != "medium" || a.MotionLevel != "low" || a.AudioComplexity != "moderate" {
		t.Errorf("ParseReply() = %+v", a)
	}
	if _, err := ParseReply("I cannot help with that.", "m"); err != ErrNoJSON {
		t.Errorf("ParseReply(no json) error = %v, want ErrNoJSON", err)
	}
}

func chatServer(t *testing.T, status int, content string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/v1/chat/completions" || r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected request %s auth=%q", r.URL.Path, r.Header.Get("Authorization"))
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Temperature != 0.1 || req.Model != "test-model" || len(req.Messages) != 2 {
			t.Errorf("request = %+v", req)
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAdvisor_Remote(t *testing.T) {
	var hits atomic.Int32
	srv := chatServer(t, http.StatusOK, `{"complexity_score": 0.7, "recommended_crf": 24, "recommended_preset": "slow", "audio_complexity": "complex"}`, &hits)
	a := New(WithEndpoint(srv.URL+"/v1/"), WithModel("test-model"), WithAPIKey("sk-test"), WithRetry(0, time.Millisecond, time.Millisecond))

	s, an := a.Recommend(context.Background(), mediaprobe.VideoInfo{Width: 1920, Height: 1080, VideoCodec: "h264"}, settings.Defaults())
	if an.Source != "test-model" {
		t.Errorf("Source = %q, want test-model", an.Source)
	}
	if s.CRF != 24 || s.Preset != "slow" || s.AudioBitrate.String() != "192k" {
		t.Errorf("settings = crf %d preset %s audio %s", s.CRF, s.Preset, s.AudioBitrate)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}
}

func TestAdvisor_FallsBackToRules(t *testing.T) {
	info := mediaprobe.VideoInfo{Width: 1280, Height: 720, FPS: 30, VideoCodec: "h264"}
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{"client error", http.StatusUnauthorized, ""},
		{"no json", http.StatusOK, "Sorry, no idea."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := chatServer(t, tt.status, tt.content, &hits)
			a := New(WithEndpoint(srv.URL+"/v1"), WithModel("test-model"), WithAPIKey("sk-test"), WithRetry(0, time.Millisecond, time.Millisecond))
			an := a.Analyze(context.Background(), info)
			if an.Source != "rules" || an.RecommendedCRF != RuleBased(info).RecommendedCRF {
				t.Errorf("Analyze() = %+v, want rule-based", an)
			}
		})
	}
}

func TestAdvisor_NoKeyIsLocal(t *testing.T) {
	a := New()
	if a.Remote() {
		t.Fatal("Remote() = true without key")
	}
	if an := a.Analyze(context.Background(), mediaprobe.VideoInfo{}); an.Source != "rules" {
		t.Errorf("Source = %q, want rules", an.Source)
	}
}

func TestPrompt(t *testing.T) {
	p := Prompt(mediaprobe.VideoInfo{Width: 1920, Height: 1080, VideoCodec: "hevc", Duration: 90, FileSize: 1 << 20})
	for _, want := range []string{"1920x1080", "from hevc", "1m 30s", "recommended_crf"} {
		if !strings.Contains(p, want) {
			t.Errorf("Prompt() missing %q", want)
		}
	}
}
