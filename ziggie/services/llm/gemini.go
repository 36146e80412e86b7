// Package llm is the client for the hosted generative-text API. It turns a
// system instruction, a rolling history and one prompt into generated text
// plus a finish/safety classification.
package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ziggie/ziggie/config"
	"ziggie/ziggie/errs"
	httputils "ziggie/ziggie/utils/http"
	"ziggie/ziggie/utils/logging"

	"go.uber.org/zap"
)

const finishReasonSafety = "SAFETY"

type Part struct {
	Text string `json:"text"`
}

// Content is one turn of history; Role is "user" or "model" on the wire.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type GenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	SystemInstruction *Content         `json:"system_instruction,omitempty"`
	Contents          []Content        `json:"contents"`
	GenerationConfig  GenerationConfig `json:"generationConfig"`
	SafetySettings    []SafetySetting  `json:"safetySettings,omitempty"`
}

type safetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
}

type candidate struct {
	Content       Content        `json:"content"`
	FinishReason  string         `json:"finishReason"`
	SafetyRatings []safetyRating `json:"safetyRatings"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

// Result is a completed generation.
type Result struct {
	Text         string
	FinishReason string
	TokensUsed   int
}

type GeminiClient struct {
	baseURL string
	apiKey  string
	model   string
	system  string
	genCfg  GenerationConfig
	http    *http.Client
}

// NewGeminiClient builds a client from config plus the system instruction
// supplied by the knowledge base.
func NewGeminiClient(cfg config.Config, systemInstruction string) *GeminiClient {
	return &GeminiClient{
		baseURL: strings.TrimRight(cfg.GeminiBaseURL, "/"),
		apiKey:  cfg.GeminiAPIKey,
		model:   cfg.GeminiModel,
		system:  systemInstruction,
		genCfg: GenerationConfig{
			MaxOutputTokens: cfg.MaxOutputTokens,
			Temperature:     cfg.Temperature,
			TopP:            cfg.TopP,
			TopK:            cfg.TopK,
		},
		http: &http.Client{},
	}
}

func defaultSafetySettings() []SafetySetting {
	categories := []string{
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_HARASSMENT",
	}
	settings := make([]SafetySetting, len(categories))
	for i, c := range categories {
		settings[i] = SafetySetting{Category: c, Threshold: "BLOCK_MEDIUM_AND_ABOVE"}
	}
	return settings
}

func (c *GeminiClient) headers() map[string]string {
	return map[string]string{"x-goog-api-key": c.apiKey}
}

func (c *GeminiClient) buildRequest(history []Content, prompt string) generateRequest {
	req := generateRequest{
		Contents:         append(append([]Content{}, history...), Content{Role: "user", Parts: []Part{{Text: prompt}}}),
		GenerationConfig: c.genCfg,
		SafetySettings:   defaultSafetySettings(),
	}
	if c.system != "" {
		req.SystemInstruction = &Content{Parts: []Part{{Text: c.system}}}
	}
	return req
}

// Generate runs one completion. The caller bounds the call with a deadline
// context; hitting it surfaces as a timeout error, distinct from a generic
// upstream failure. Zero candidates or a SAFETY finish surface as a
// safety-blocked error.
func (c *GeminiClient) Generate(ctx context.Context, history []Content, prompt string) (*Result, error) {
	defer logging.LogDuration(ctx, "llm_generate")()

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	var resp generateResponse
	if err := httputils.PostJSON(ctx, c.http, url, c.headers(), c.buildRequest(history, prompt), &resp); err != nil {
		return nil, classify(err)
	}

	if len(resp.Candidates) == 0 {
		return nil, errs.SafetyBlocked("Response blocked by safety filters")
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == finishReasonSafety {
		return nil, errs.SafetyBlocked("Content blocked by safety filters")
	}

	text := joinParts(cand.Content.Parts)
	if text == "" {
		return nil, errs.Upstream("no text content in response", nil)
	}

	return &Result{
		Text:         text,
		FinishReason: cand.FinishReason,
		TokensUsed:   EstimateTokens(prompt) + EstimateTokens(text),
	}, nil
}

// GenerateStream streams generated chunks over a channel. The channel is
// closed when the stream ends or ctx is cancelled.
func (c *GeminiClient) GenerateStream(ctx context.Context, history []Content, prompt string) (<-chan string, error) {
	defer logging.LogDuration(ctx, "llm_generate_stream")()

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, c.model)
	body, err := httputils.PostStream(ctx, c.http, url, c.headers(), c.buildRequest(history, prompt))
	if err != nil {
		return nil, classify(err)
	}

	ch := make(chan string)
	go func() {
		defer close(ch)
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "" || payload == "[DONE]" {
				continue
			}
			var chunk generateResponse
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				logging.ErrorLogger.Error("llm stream decode error", zap.Error(err))
				return
			}
			if len(chunk.Candidates) == 0 {
				continue
			}
			delta := joinParts(chunk.Candidates[0].Content.Parts)
			if delta == "" {
				continue
			}
			select {
			case ch <- delta:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logging.ErrorLogger.Error("llm stream read error", zap.Error(err))
		}
	}()
	return ch, nil
}

// HealthCheck runs a tiny generation with a short deadline.
func (c *GeminiClient) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := c.Generate(ctx, nil, "Hello")
	if err != nil {
		logging.ErrorLogger.Error("model health check failed", zap.Error(err))
		return false
	}
	return true
}

func joinParts(parts []Part) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func classify(err error) error {
	var appErr *errs.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Timeout("Model API request timed out")
	}
	var statusErr *httputils.StatusError
	if errors.As(err, &statusErr) {
		return errs.Upstream(fmt.Sprintf("upstream returned status %d", statusErr.StatusCode), err)
	}
	return errs.Upstream(err.Error(), err)
}

// EstimateTokens approximates a token count as ceil(len/4). It is a cheap
// character-length heuristic, not a tokenizer; only monotonicity in input
// length is guaranteed.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
