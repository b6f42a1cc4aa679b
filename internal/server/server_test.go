package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ytverify/internal/captions"
	"github.com/ppiankov/ytverify/internal/extract"
	"github.com/ppiankov/ytverify/internal/llm"
	"github.com/ppiankov/ytverify/internal/model"
	"github.com/ppiankov/ytverify/internal/pipeline"
	"github.com/ppiankov/ytverify/internal/validate"
	"github.com/ppiankov/ytverify/internal/worker"
)

type fakeRetriever struct {
	outcome *captions.Outcome
	err     error
	calls   int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, ref model.VideoReference, languages []string) (*captions.Outcome, error) {
	f.calls++
	return f.outcome, f.err
}

// fakeLLM answers the claim prompt and the fact-check prompt in turn
type fakeLLM struct {
	prompts []string
}

func (f *fakeLLM) Name() string                         { return "fake" }
func (f *fakeLLM) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeLLM) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if len(f.prompts) == 1 {
		return &llm.GenerateResponse{Text: "1. The sky is green."}, nil
	}
	return &llm.GenerateResponse{Text: "Claim 1: The sky is green.\nStatus: FALSE\nExplanation: It is blue.\nConfidence: High"}, nil
}

type panicChecker struct{}

func (panicChecker) Check(ctx context.Context, rawURL string, languages []string) (*model.PipelineResult, error) {
	panic("boom")
}
func (panicChecker) Ready() error { return nil }

func newPipeline(t *testing.T, r pipeline.Retriever, provider llm.Provider) *pipeline.Pipeline {
	t.Helper()
	logger, _ := test.NewNullLogger()
	deps := pipeline.Deps{Retriever: r}
	if provider != nil {
		deps.Claims = extract.NewClaimExtractor(provider, 0, 0)
		deps.FactCheck = validate.NewFactChecker(provider, 0)
	}
	return pipeline.New(model.DefaultConfig(), deps, logger)
}

func newTestServer(t *testing.T, checker Checker, limiter *worker.Limiter) *Server {
	t.Helper()
	logger, _ := test.NewNullLogger()
	cfg := model.DefaultConfig()
	cfg.Captions.TempDir = t.TempDir()
	return New(Options{
		Config:   cfg,
		Checker:  checker,
		Limiter:  limiter,
		Logger:   logger,
		LookPath: func(string) (string, error) { return "", errors.New("not found") },
	})
}

func post(t *testing.T, s *Server, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/check-claims", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:5555"
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded), rr.Body.String())
	return rr, decoded
}

func TestCheckClaims_Success(t *testing.T) {
	retriever := &fakeRetriever{outcome: &captions.Outcome{
		Captions: &captions.Captions{Title: "Test Video", Raw: strings.Repeat("x", 500), Format: model.FormatPlain},
		Strategy: captions.Strategy{Name: "android"},
	}}
	provider := &fakeLLM{}
	s := newTestServer(t, newPipeline(t, retriever, provider), nil)

	rr, body := post(t, s, `{"video_url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Test Video", body["video_title"])
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", body["video_url"])
	assert.EqualValues(t, 500, body["transcript_length"])
	assert.Equal(t, "1. The sky is green.", body["claims"])
	assert.Contains(t, body["fact_check_results"], "Status: FALSE")
	assert.Len(t, body, 6)

	require.Len(t, provider.prompts, 2)
	assert.Contains(t, provider.prompts[0], "Test Video")
	assert.Contains(t, provider.prompts[1], "The sky is green.")
}

func TestCheckClaims_MissingURL(t *testing.T) {
	retriever := &fakeRetriever{}
	s := newTestServer(t, newPipeline(t, retriever, nil), nil)

	for _, body := range []string{`{}`, `{"video_url":"   "}`, ``} {
		rr, decoded := post(t, s, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Equal(t, "Video URL is required", decoded["error"], body)
	}
	assert.Zero(t, retriever.calls)
}

func TestCheckClaims_InvalidJSON(t *testing.T) {
	s := newTestServer(t, newPipeline(t, &fakeRetriever{}, nil), nil)

	rr, body := post(t, s, `{"video_url":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid JSON body", body["error"])
}

func TestCheckClaims_InvalidURL(t *testing.T) {
	retriever := &fakeRetriever{}
	s := newTestServer(t, newPipeline(t, retriever, &fakeLLM{}), nil)

	rr, body := post(t, s, `{"video_url":"https://example.com/not-a-video"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.NotEmpty(t, body["error"])
	assert.Zero(t, retriever.calls)
}

func TestCheckClaims_NotConfigured(t *testing.T) {
	retriever := &fakeRetriever{}
	s := newTestServer(t, newPipeline(t, retriever, nil), nil)

	rr, body := post(t, s, `{"video_url":"https://youtu.be/dQw4w9WgXcQ"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Gemini API key not configured", body["error"])
	assert.Zero(t, retriever.calls)
}

func TestCheckClaims_FailureMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{
			name:   "no captions",
			err:    model.NewFailure(model.NoCaptionsAvailable, "retrieve captions", "No captions are available", nil),
			status: http.StatusBadRequest,
			msg:    "No captions are available",
		},
		{
			name:   "bot detected",
			err:    model.NewFailure(model.BotDetected, "retrieve captions", "YouTube is blocking automated caption requests", nil),
			status: http.StatusInternalServerError,
			msg:    "YouTube is blocking automated caption requests",
		},
		{
			name:   "unexpected",
			err:    errors.New("stack trace with secrets"),
			status: http.StatusInternalServerError,
			msg:    "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, newPipeline(t, &fakeRetriever{err: tt.err}, &fakeLLM{}), nil)

			rr, body := post(t, s, `{"video_url":"https://youtu.be/dQw4w9WgXcQ"}`)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.msg, body["error"])
			assert.Len(t, body, 1)
		})
	}
}

func TestCheckClaims_RateLimited(t *testing.T) {
	retriever := &fakeRetriever{err: model.NewFailure(model.NoCaptionsAvailable, "retrieve captions", "none", nil)}
	s := newTestServer(t, newPipeline(t, retriever, &fakeLLM{}), worker.NewLimiter(0.001, 1))

	rr, _ := post(t, s, `{"video_url":"https://youtu.be/dQw4w9WgXcQ"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, body := post(t, s, `{"video_url":"https://youtu.be/dQw4w9WgXcQ"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "Too many requests", body["error"])
	assert.Equal(t, 1, retriever.calls)
}

func TestCheckClaims_PanicRecovered(t *testing.T) {
	s := newTestServer(t, panicChecker{}, nil)

	rr, body := post(t, s, `{"video_url":"https://youtu.be/dQw4w9WgXcQ"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal server error", body["error"])
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, newPipeline(t, &fakeRetriever{}, nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["gemini_configured"])
	assert.Equal(t, true, body["temp_writable"])
	assert.Equal(t, "ytdlp", body["caption_backend"])
	assert.Equal(t, false, body["ytdlp_available"])

	configured := newTestServer(t, newPipeline(t, &fakeRetriever{}, &fakeLLM{}), nil)
	rr = httptest.NewRecorder()
	configured.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["gemini_configured"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, newPipeline(t, &fakeRetriever{}, nil), nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/check-claims", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, newPipeline(t, &fakeRetriever{}, nil), nil)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rr.Body.String())
}
