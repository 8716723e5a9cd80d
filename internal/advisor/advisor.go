package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"hoffenc/internal/mediaprobe"
	"hoffenc/internal/settings"
	"hoffenc/internal/util/format"
)

// Defaults for the remote model.
const (
	DefaultEndpoint = "https://api.openai.com/v1"
	DefaultModel    = "gpt-4.1-nano-2025-04-14"
)

// Advisor produces settings recommendations. Without an API key it only
// uses the rule-based analysis; remote failures also fall back to rules.
type Advisor struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger

	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithEndpoint sets the base URL of an OpenAI-compatible API.
func WithEndpoint(u string) Option {
	return func(a *Advisor) { a.endpoint = strings.TrimRight(u, "/") }
}

// WithModel sets the chat model name.
func WithModel(m string) Option { return func(a *Advisor) { a.model = m } }

// WithAPIKey enables the remote model.
func WithAPIKey(k string) Option { return func(a *Advisor) { a.apiKey = k } }

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option { return func(a *Advisor) { a.log = l } }

// WithRetry overrides the retry policy of the HTTP client.
func WithRetry(retries int, waitMin, waitMax time.Duration) Option {
	return func(a *Advisor) { a.retryMax, a.retryWaitMin, a.retryWaitMax = retries, waitMin, waitMax }
}

// New returns an Advisor.
func New(opts ...Option) *Advisor {
	a := &Advisor{
		endpoint:     DefaultEndpoint,
		model:        DefaultModel,
		log:          zerolog.Nop(),
		retryMax:     3,
		retryWaitMin: 1 * time.Second,
		retryWaitMax: 5 * time.Second,
	}
	for _, o := range opts {
		o(a)
	}
	if a.model == "" {
		a.model = DefaultModel
	}
	if a.endpoint == "" {
		a.endpoint = DefaultEndpoint
	}
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = a.retryMax
	retryClient.RetryWaitMin = a.retryWaitMin
	retryClient.RetryWaitMax = a.retryWaitMax
	retryClient.Logger = nil // Silence default debug logger
	a.httpClient = retryClient.StandardClient()
	return a
}

// Remote reports whether a remote model is configured.
func (a *Advisor) Remote() bool { return a.apiKey != "" }

// Recommend analyzes info and returns settings derived from base.
func (a *Advisor) Recommend(ctx context.Context, info mediaprobe.VideoInfo, base settings.EncodingSettings) (settings.EncodingSettings, Analysis) {
	an := a.Analyze(ctx, info)
	return OptimizedSettings(an, base), an
}

// Analyze returns the remote analysis when available, else RuleBased.
func (a *Advisor) Analyze(ctx context.Context, info mediaprobe.VideoInfo) Analysis {
	if !a.Remote() {
		return RuleBased(info)
	}
	an, err := a.remote(ctx, info)
	if err != nil {
		a.log.Warn().Err(err).Str("model", a.model).Msg("remote analysis failed, using rules")
		return RuleBased(info)
	}
	return an
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ErrNoJSON is returned when the model reply contains no JSON object.
var ErrNoJSON = errors.New("no JSON object in model reply")

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

func (a *Advisor) remote(ctx context.Context, info mediaprobe.VideoInfo) (Analysis, error) {
	payload, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an expert video encoding analyst focused on optimizing quality vs file size."},
			{Role: "user", Content: Prompt(info)},
		},
		MaxTokens:   1000,
		Temperature: 0.1,
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Analysis{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Analysis{}, fmt.Errorf("API returned error status: %d", resp.StatusCode)
	}
	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Analysis{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return Analysis{}, ErrNoJSON
	}
	return ParseReply(cr.Choices[0].Message.Content, a.model)
}

// ParseReply extracts an Analysis from a model reply. Missing fields take
// neutral defaults; the CRF is clamped to the advisor range.
func ParseReply(content, source string) (Analysis, error) {
	m := jsonObject.FindString(content)
	if m == "" {
		return Analysis{}, ErrNoJSON
	}
	an := Analysis{
		ComplexityScore:   0.5,
		MotionLevel:       "medium",
		SceneChanges:      100,
		HasFineDetails:    true,
		AudioComplexity:   "moderate",
		RecommendedCRF:    23,
		RecommendedPreset: "medium",
	}
	if err := json.Unmarshal([]byte(m), &an); err != nil {
		return Analysis{}, fmt.Errorf("parse model reply: %w", err)
	}
	an.RecommendedCRF = clampCRF(an.RecommendedCRF)
	if settings.PresetIndex(an.RecommendedPreset) < 0 {
		an.RecommendedPreset = "medium"
	}
	an.Source = source
	return an, nil
}

// Prompt is the user message sent to the remote model.
func Prompt(info mediaprobe.VideoInfo) string {
	sizeMB := float64(info.FileSize) / mb
	var b strings.Builder
	b.WriteString("Analyze this video and recommend encoding settings for significant file size reduction while keeping good visual quality.\n")
	fmt.Fprintf(&b, "The video will be converted from %s to libx264.\n\n", info.VideoCodec)
	b.WriteString("Video technical data:\n")
	fmt.Fprintf(&b, "- Resolution: %dx%d\n", info.Width, info.Height)
	fmt.Fprintf(&b, "- Duration: %.2f seconds (%s)\n", info.Duration, format.FormatDuration(info.Duration))
	fmt.Fprintf(&b, "- Current bitrate: %d bps\n", info.Bitrate)
	fmt.Fprintf(&b, "- Frame rate: %.2f fps\n", info.FPS)
	fmt.Fprintf(&b, "- File size: %.2f MB (%s)\n", sizeMB, format.HumanizeBytes(info.FileSize))
	fmt.Fprintf(&b, "- Audio codec: %s\n\n", info.AudioCodec)
	b.WriteString(`Goals: 30-50% size reduction for files over 500MB, 50-70% for files over 1GB, visually acceptable quality.
Guidelines: CRF 24-28 for large files, 25-28 for HEVC sources, 26-28 for content over 30 minutes.
Prefer the "medium" preset; "fast" for high motion; "slow" only for very low motion.

Reply with JSON only, in this shape:
{"complexity_score": 0.7, "motion_level": "medium", "scene_changes": 150, "has_grain": false,
 "has_dark_scenes": false, "has_fine_details": true, "audio_complexity": "moderate",
 "recommended_crf": 25, "recommended_preset": "medium", "reasoning": "..."}
`)
	return b.String()
}
