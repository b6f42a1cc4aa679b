package captions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/ytverify/internal/model"
)

// RateWaiter blocks until a request to rawURL may proceed
type RateWaiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// RobotsPolicy reports whether rawURL may be fetched
type RobotsPolicy interface {
	IsAllowed(ctx context.Context, rawURL string) bool
}

// InnertubeOptions configures an InnertubeSource
type InnertubeOptions struct {
	BaseURL    string       // Defaults to https://www.youtube.com
	HTTPClient *http.Client // Defaults to a client with a 30s timeout
	MaxBytes   int64        // Response body limit
	Limiter    RateWaiter   // Optional per-host pacing
	Robots     RobotsPolicy // Optional robots.txt gate for watch pages
	Logger     logrus.FieldLogger
}

// InnertubeSource retrieves captions over HTTP without touching disk:
// player API for mobile client identities, watch-page scraping otherwise,
// then the caption track itself from the timedtext endpoint.
type InnertubeSource struct {
	baseURL  string
	client   *http.Client
	maxBytes int64
	limiter  RateWaiter
	robots   RobotsPolicy
	logger   logrus.FieldLogger
}

// NewInnertubeSource creates an HTTP caption source
func NewInnertubeSource(opts InnertubeOptions) *InnertubeSource {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 6 << 20
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &InnertubeSource{
		baseURL:  strings.TrimSuffix(opts.BaseURL, "/"),
		client:   opts.HTTPClient,
		maxBytes: opts.MaxBytes,
		limiter:  opts.Limiter,
		robots:   opts.Robots,
		logger:   opts.Logger,
	}
}

// Name returns the backend name
func (s *InnertubeSource) Name() string {
	return "innertube"
}

// Fetch performs one retrieval attempt with the strategy's client identity
func (s *InnertubeSource) Fetch(ctx context.Context, ref model.VideoReference, strategy Strategy, languages []string) (*Captions, error) {
	var (
		player *playerResponse
		err    error
	)

	if profile, ok := clientProfiles[strategy.Client]; ok {
		player, err = s.fetchPlayer(ctx, ref.ID, profile, strategy)
	} else {
		player, err = s.fetchWatchPage(ctx, ref.ID, strategy)
	}
	if err != nil {
		return nil, err
	}

	if err := checkPlayability(player); err != nil {
		return nil, err
	}

	if player.Captions == nil || len(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		return nil, classified(model.AttemptEmpty, "no caption tracks for client "+strategy.Name, nil)
	}

	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	track, ok := pickBestTrack(tracks, preferredLanguages(languages))
	if !ok {
		return nil, classified(model.AttemptBotDetected, "all caption tracks require a PO token", nil)
	}

	s.logger.WithFields(logrus.Fields{
		"video_id": ref.ID,
		"language": track.LanguageCode,
		"kind":     track.Kind,
		"strategy": strategy.Name,
	}).Debug("caption track selected")

	raw, format, err := s.fetchTrack(ctx, track, strategy)
	if err != nil {
		return nil, err
	}

	return &Captions{
		Title:    strings.TrimSpace(player.VideoDetails.Title),
		Raw:      raw,
		Format:   format,
		Language: track.LanguageCode,
	}, nil
}

func (s *InnertubeSource) fetchPlayer(ctx context.Context, videoID string, profile clientProfile, strategy Strategy) (*playerResponse, error) {
	body, err := json.Marshal(playerRequest{
		VideoID:        videoID,
		Context:        playerContext{Client: profile.client},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal player request: %w", err)
	}

	endpoint := s.baseURL + "/youtubei/v1/player?prettyPrint=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	applyHeaders(req, strategy)
	if strategy.UserAgent == "" {
		req.Header.Set("User-Agent", profile.userAgent)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Youtube-Client-Name", profile.clientNameID)
	req.Header.Set("X-Youtube-Client-Version", profile.client.ClientVersion)

	data, err := s.do(req)
	if err != nil {
		return nil, err
	}

	var player playerResponse
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, classified(model.AttemptTransient, "decode player response", err)
	}
	return &player, nil
}

func (s *InnertubeSource) fetchWatchPage(ctx context.Context, videoID string, strategy Strategy) (*playerResponse, error) {
	watchURL := s.baseURL + "/watch?v=" + url.QueryEscape(videoID) + "&hl=en"

	if s.robots != nil && !s.robots.IsAllowed(ctx, watchURL) {
		return nil, classified(model.AttemptPermanent, "watch page disallowed by robots.txt", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	applyHeaders(req, strategy)
	if strategy.UserAgent == "" {
		req.Header.Set("User-Agent", chromeUA)
	}

	page, err := s.do(req)
	if err != nil {
		return nil, err
	}

	if kind, ok := ClassifyMessage(pageChallenge(page)); ok {
		return nil, classified(kind, "watch page challenge", nil)
	}

	idx := bytes.Index(page, []byte(playerResponseMarker))
	if idx < 0 {
		return nil, classified(model.AttemptTransient, "ytInitialPlayerResponse not found in watch page", nil)
	}
	raw := extractJSONObject(page[idx+len(playerResponseMarker):])
	if raw == nil {
		return nil, classified(model.AttemptTransient, "malformed ytInitialPlayerResponse", nil)
	}

	var player playerResponse
	if err := json.Unmarshal(raw, &player); err != nil {
		return nil, classified(model.AttemptTransient, "decode ytInitialPlayerResponse", err)
	}
	return &player, nil
}

func (s *InnertubeSource) fetchTrack(ctx context.Context, track captionTrack, strategy Strategy) (string, model.CaptionFormat, error) {
	trackURL, err := url.Parse(track.BaseURL)
	if err != nil {
		return "", "", classified(model.AttemptTransient, "invalid caption track URL", err)
	}
	if !trackURL.IsAbs() {
		trackURL, err = url.Parse(s.baseURL + track.BaseURL)
		if err != nil {
			return "", "", classified(model.AttemptTransient, "invalid caption track URL", err)
		}
	}

	format := model.FormatTimedText
	q := trackURL.Query()
	if strategy.Format == model.FormatVTT {
		q.Set("fmt", "vtt")
		format = model.FormatVTT
	} else {
		q.Del("fmt")
	}
	trackURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL.String(), nil)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	applyHeaders(req, strategy)

	data, err := s.do(req)
	if err != nil {
		return "", "", err
	}
	return string(data), format, nil
}

// do sends req after pacing and maps HTTP failures to attempt kinds
func (s *InnertubeSource) do(req *http.Request) ([]byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(req.Context(), req.URL.String()); err != nil {
			return nil, classified(model.AttemptTransient, "rate limiter", err)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classified(model.AttemptTransient, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return nil, classified(model.AttemptTransient, "read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, classified(model.AttemptBotDetected, "HTTP 429 from "+req.URL.Host, nil)
	case resp.StatusCode >= 500:
		return nil, classified(model.AttemptTransient, fmt.Sprintf("HTTP %d from %s", resp.StatusCode, req.URL.Host), nil)
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, classified(model.AttemptPermanent, fmt.Sprintf("HTTP %d from %s", resp.StatusCode, req.URL.Host), nil)
	case resp.StatusCode >= 400:
		return nil, classified(model.AttemptBotDetected, fmt.Sprintf("HTTP %d from %s", resp.StatusCode, req.URL.Host), nil)
	}
	return body, nil
}

func applyHeaders(req *http.Request, strategy Strategy) {
	for k, v := range strategy.Headers {
		req.Header.Set(k, v)
	}
	if strategy.UserAgent != "" {
		req.Header.Set("User-Agent", strategy.UserAgent)
	}
}

// checkPlayability maps the player's playability status to an attempt failure
func checkPlayability(player *playerResponse) error {
	if player.PlayabilityStatus == nil {
		return nil
	}
	status := player.PlayabilityStatus.Status
	reason := player.PlayabilityStatus.Reason

	switch status {
	case "", "OK":
		return nil
	case "LOGIN_REQUIRED":
		if kind, ok := ClassifyMessage(reason); ok && kind == model.AttemptPermanent {
			return classified(kind, reason, nil)
		}
		return classified(model.AttemptBotDetected, "login required: "+reason, nil)
	case "ERROR", "UNPLAYABLE":
		if reason == "" {
			reason = "video unavailable"
		}
		if kind, ok := ClassifyMessage(reason); ok && kind == model.AttemptBotDetected {
			return classified(kind, reason, nil)
		}
		return classified(model.AttemptPermanent, reason, nil)
	default:
		return classified(model.AttemptTransient, "playability "+status+": "+reason, nil)
	}
}

// pageChallenge returns challenge text found in a watch page, or ""
func pageChallenge(page []byte) string {
	lower := bytes.ToLower(page)
	for _, marker := range []string{"g-recaptcha", "unusual traffic", "confirm you're not a bot"} {
		if bytes.Contains(lower, []byte(marker)) {
			if marker == "g-recaptcha" {
				return "captcha"
			}
			return marker
		}
	}
	return ""
}

// pickBestTrack prefers manual tracks in a preferred language, then
// auto-generated ones, then any English track. Tracks that need a PO
// token cannot be fetched server-side and are skipped.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !strings.Contains(t.BaseURL, "&exp=xpe") {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}

	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// extractJSONObject returns the balanced JSON object at the start of data
func extractJSONObject(data []byte) []byte {
	start := bytes.IndexByte(data, '{')
	if start < 0 {
		return nil
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(data); i++ {
		c := data[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return data[start : i+1]
			}
		}
	}
	return nil
}
