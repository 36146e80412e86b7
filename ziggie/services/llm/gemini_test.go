package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"ziggie/ziggie/config"
	"ziggie/ziggie/errs"
	"ziggie/ziggie/utils/logging"
)

func TestMain(m *testing.M) {
	logging.InitTestLogger()
	os.Exit(m.Run())
}

func testClient(baseURL string) *GeminiClient {
	cfg := config.Config{
		GeminiAPIKey:    "test-key",
		GeminiBaseURL:   baseURL,
		GeminiModel:     "gemini-test",
		MaxOutputTokens: 256,
		Temperature:     0.7,
		TopP:            0.8,
		TopK:            40,
	}
	return NewGeminiClient(cfg, "You are Ziggie.")
}

func generateBody(text, finishReason string) string {
	resp := generateResponse{Candidates: []candidate{{
		Content:      Content{Role: "model", Parts: []Part{{Text: text}}},
		FinishReason: finishReason,
	}}}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func TestGenerateSuccess(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(generateBody("Hello from Ziggie", "STOP")))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	history := []Content{{Role: "user", Parts: []Part{{Text: "earlier"}}}}
	res, err := client.Generate(context.Background(), history, "hi there")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Text != "Hello from Ziggie" {
		t.Errorf("expected reply text, got %q", res.Text)
	}
	if res.TokensUsed != EstimateTokens("hi there")+EstimateTokens("Hello from Ziggie") {
		t.Errorf("unexpected token estimate %d", res.TokensUsed)
	}

	if gotReq.SystemInstruction == nil || gotReq.SystemInstruction.Parts[0].Text != "You are Ziggie." {
		t.Error("expected system instruction on the wire")
	}
	// history plus the prompt turn
	if len(gotReq.Contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(gotReq.Contents))
	}
	last := gotReq.Contents[1]
	if last.Role != "user" || last.Parts[0].Text != "hi there" {
		t.Errorf("expected prompt as final user turn, got %+v", last)
	}
	if len(gotReq.SafetySettings) == 0 {
		t.Error("expected safety settings on the wire")
	}
}

func TestGenerateSafetyBlocked(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"safety finish", generateBody("", finishReasonSafety)},
		{"no candidates", `{"candidates":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := testClient(srv.URL).Generate(context.Background(), nil, "hi")
			var appErr *errs.Error
			if !errors.As(err, &appErr) || appErr.Kind != errs.KindSafetyBlocked {
				t.Fatalf("expected safety-blocked error, got %v", err)
			}
		})
	}
}

func TestGenerateTimeoutClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := testClient(srv.URL).Generate(ctx, nil, "hi")
	var appErr *errs.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Kind != errs.KindTimeout {
		t.Errorf("expected timeout kind, got %s", appErr.Kind)
	}
}

func TestGenerateUpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), nil, "hi")
	var appErr *errs.Error
	if !errors.As(err, &appErr) || appErr.Kind != errs.KindUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestGenerateStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":streamGenerateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: " + generateBody("Hello ", "") + "\n\n"))
		w.Write([]byte("data: " + generateBody("world", "STOP") + "\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	ch, err := testClient(srv.URL).GenerateStream(context.Background(), nil, "hi")
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	var full strings.Builder
	for chunk := range ch {
		full.WriteString(chunk)
	}
	if full.String() != "Hello world" {
		t.Errorf("expected assembled reply, got %q", full.String())
	}
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(generateBody("ok", "STOP")))
	}))
	defer srv.Close()
	if !testClient(srv.URL).HealthCheck(context.Background()) {
		t.Error("expected healthy")
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer down.Close()
	if testClient(down.URL).HealthCheck(context.Background()) {
		t.Error("expected unhealthy")
	}
}

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"12345678", 2},
	}
	for _, c := range cases {
		if got := EstimateTokens(c.text); got != c.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}
