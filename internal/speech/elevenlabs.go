package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultElevenLabsBaseURL is the public ElevenLabs API root.
	DefaultElevenLabsBaseURL = "https://api.elevenlabs.io"
	// DefaultVoiceID is the professional English voice used for questions.
	DefaultVoiceID = "JBFqnCBv7vXPZ7WpL6th"
	// DefaultModelID is the low-latency flash model.
	DefaultModelID = "eleven_flash_v2_5"

	defaultOutputFormat = "mp3_44100_128"
	maxAudioBytes       = 16 << 20
	maxErrorBodyBytes   = 4 << 10
)

// ElevenLabsConfig configures the ElevenLabs client.
type ElevenLabsConfig struct {
	APIKey       string
	VoiceID      string
	ModelID      string
	BaseURL      string
	OutputFormat string
}

// ElevenLabs synthesizes speech with the ElevenLabs text-to-speech API.
type ElevenLabs struct {
	cfg        ElevenLabsConfig
	httpClient *http.Client
	logger     *slog.Logger
	maxAudio   int64
}

var _ Synthesizer = (*ElevenLabs)(nil)

// NewElevenLabs creates a client. A nil httpClient uses http.DefaultClient;
// request deadlines come from the caller's context.
func NewElevenLabs(cfg ElevenLabsConfig, httpClient *http.Client, logger *slog.Logger) *ElevenLabs {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.VoiceID == "" {
		cfg.VoiceID = DefaultVoiceID
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultElevenLabsBaseURL
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = defaultOutputFormat
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &ElevenLabs{cfg: cfg, httpClient: httpClient, logger: logger, maxAudio: maxAudioBytes}
}

type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize requests the whole utterance and returns the audio as base64.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (string, error) {
	if e.cfg.APIKey == "" {
		return "", fmt.Errorf("%w: api key missing", ErrSynthesis)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty text", ErrSynthesis)
	}

	body, err := json.Marshal(ttsRequest{Text: text, ModelID: e.cfg.ModelID})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrSynthesis, err)
	}

	endpoint := e.cfg.BaseURL + "/v1/text-to-speech/" + url.PathEscape(e.cfg.VoiceID) +
		"?output_format=" + url.QueryEscape(e.cfg.OutputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrSynthesis, err)
	}
	req.Header.Set("xi-api-key", e.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			e.logger.Debug("failed to close elevenlabs response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", fmt.Errorf("%w: status=%d body=%s", ErrSynthesis, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, e.maxAudio+1))
	if err != nil {
		return "", fmt.Errorf("%w: read audio: %v", ErrSynthesis, err)
	}
	if int64(len(audio)) > e.maxAudio {
		return "", fmt.Errorf("%w: audio exceeds %d bytes", ErrSynthesis, e.maxAudio)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: empty audio", ErrSynthesis)
	}

	return base64.StdEncoding.EncodeToString(audio), nil
}
