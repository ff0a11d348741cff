package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/http2"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	transcribePath = "/audio/transcriptions"
	defaultModel   = "whisper-1"

	requestTimeout = 60 * time.Second

	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond
)

// WhisperAPI implements Recognizer against an OpenAI-compatible
// audio transcription endpoint.
type WhisperAPI struct {
	apiKey   string
	endpoint string
	model    string
	http     *http.Client

	maxAttempts int
	retryDelay  time.Duration
}

// Config holds configuration for WhisperAPI. Environment variables
// V2T_API_KEY (or OPENAI_API_KEY) and V2T_STT_BASE_URL override the
// corresponding fields when set.
type Config struct {
	APIKey  string
	BaseURL string // API root, defaults to OpenAI's
	Model   string // Optional, defaults to "whisper-1"
}

// NewWhisperAPI creates a new WhisperAPI recognizer.
func NewWhisperAPI(cfg Config) *WhisperAPI {
	overrideFromEnv(&cfg.APIKey, "V2T_API_KEY", "OPENAI_API_KEY")
	overrideFromEnv(&cfg.BaseURL, "V2T_STT_BASE_URL")

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &WhisperAPI{
		apiKey:      cfg.APIKey,
		endpoint:    strings.TrimSuffix(baseURL, "/") + transcribePath,
		model:       model,
		http:        newHTTPClient(requestTimeout),
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}
}

func (w *WhisperAPI) Name() string { return "whisper-api" }

// Transcribe sends one phrase to the transcription endpoint.
// Transport failures and service overload are retried with doubling
// delays; anything else fails fast.
func (w *WhisperAPI) Transcribe(ctx context.Context, audio []float32, language string) (*Result, error) {
	if w.apiKey == "" {
		return nil, fmt.Errorf("api key required: set api_key in settings or OPENAI_API_KEY")
	}

	form, contentType, err := w.buildForm(audio, language)
	if err != nil {
		return nil, err
	}

	delay := w.retryDelay
	var lastErr error
	for attempt := 0; attempt < w.maxAttempts; attempt++ {
		if attempt > 0 {
			slog.Debug("retrying transcription", "attempt", attempt+1, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		result, retryable, err := w.doRequest(ctx, form, contentType)
		if err == nil {
			return result, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("transcribe failed after %d attempts: %w", w.maxAttempts, lastErr)
}

func (w *WhisperAPI) Close() error { return nil }

// buildForm assembles the multipart request body once; retries reuse it.
func (w *WhisperAPI) buildForm(audio []float32, language string) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "phrase.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(encodeWAV(audio, 16000)); err != nil {
		return nil, "", fmt.Errorf("write audio data: %w", err)
	}

	if err := writer.WriteField("model", w.model); err != nil {
		return nil, "", fmt.Errorf("write model field: %w", err)
	}

	// The API wants a bare ISO-639 code and rejects "auto"; omitting the
	// field means auto-detect.
	if lang := baseLanguage(language); lang != "" && lang != "auto" {
		if err := writer.WriteField("language", lang); err != nil {
			return nil, "", fmt.Errorf("write language field: %w", err)
		}
	}

	if err := writer.WriteField("response_format", "json"); err != nil {
		return nil, "", fmt.Errorf("write response_format field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

// doRequest performs one attempt. The second return value reports whether
// the failure is worth retrying.
func (w *WhisperAPI) doRequest(ctx context.Context, form []byte, contentType string) (*Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(form))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+w.apiKey)

	resp, err := w.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("API error %d: %s", resp.StatusCode, body)
	default:
		return nil, false, fmt.Errorf("API error %d: %s", resp.StatusCode, body)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, false, fmt.Errorf("parse response: %w", err)
	}

	if isBlankText(apiResp.Text) {
		return nil, false, ErrUnintelligible
	}

	return &Result{
		Text:     strings.TrimSpace(apiResp.Text),
		Language: apiResp.Language,
	}, false, nil
}

// apiResponse represents the transcription endpoint's JSON answer.
type apiResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if err := http2.ConfigureTransport(transport); err != nil {
		slog.Warn("HTTP/2 unavailable for transcription client", "error", err)
		return &http.Client{Timeout: timeout}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

func overrideFromEnv(target *string, keys ...string) {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			*target = v
			return
		}
	}
}
