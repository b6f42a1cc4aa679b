package captions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/ytverify/internal/model"
	"github.com/ppiankov/ytverify/internal/youtube"
)

// CommandRunner executes an external command and returns its output streams
type CommandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// execRunner runs the command with exec.CommandContext
func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// YtDlpSource retrieves captions by running yt-dlp into a per-attempt
// staging directory that is removed before Fetch returns.
type YtDlpSource struct {
	binary  string
	tempDir string
	run     CommandRunner
	logger  logrus.FieldLogger
}

// NewYtDlpSource creates a yt-dlp backed source. An empty tempDir uses os.TempDir().
func NewYtDlpSource(binary, tempDir string, logger logrus.FieldLogger) *YtDlpSource {
	if binary == "" {
		binary = "yt-dlp"
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &YtDlpSource{
		binary:  binary,
		tempDir: tempDir,
		run:     execRunner,
		logger:  logger,
	}
}

// Name returns the backend name
func (s *YtDlpSource) Name() string {
	return "ytdlp"
}

// Available reports whether the yt-dlp binary can be found
func (s *YtDlpSource) Available() bool {
	_, err := exec.LookPath(s.binary)
	return err == nil
}

// Fetch runs one yt-dlp invocation for the strategy
func (s *YtDlpSource) Fetch(ctx context.Context, ref model.VideoReference, strategy Strategy, languages []string) (*Captions, error) {
	dir, err := os.MkdirTemp(s.tempDir, "ytverify-")
	if err != nil {
		return nil, model.NewFailure(model.ConfigurationError, "stage captions",
			"Temporary storage is not writable", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			s.logger.WithError(rmErr).WithField("dir", dir).Warn("failed to remove caption staging directory")
		}
	}()

	stem := uuid.NewString()
	langs := preferredLanguages(languages)
	args := ytDlpArgs(ref, strategy, langs, filepath.Join(dir, stem+".%(ext)s"))

	stdout, stderr, err := s.run(ctx, s.binary, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, model.NewFailure(model.ConfigurationError, "stage captions",
				"Caption scraper is not installed", err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, classified(model.AttemptTransient, "yt-dlp timed out", ctxErr)
		}
		msg := lastErrorLine(stderr)
		if msg == "" {
			msg = err.Error()
		}
		kind, ok := ClassifyMessage(string(stderr))
		if !ok {
			kind = model.AttemptTransient
		}
		return nil, classified(kind, msg, err)
	}

	path, lang, err := pickSubtitleFile(dir, stem, langs)
	if err != nil {
		if kind, ok := ClassifyMessage(string(stderr)); ok && kind == model.AttemptNoCaptions {
			return nil, classified(kind, lastErrorLine(stderr), err)
		}
		return nil, classified(model.AttemptEmpty, "no subtitle file written for client "+strategy.Name, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classified(model.AttemptTransient, "read subtitle file", err)
	}

	return &Captions{
		Title:    parseTitle(stdout),
		Raw:      string(data),
		Format:   formatFromExt(filepath.Ext(path)),
		Language: lang,
	}, nil
}

func ytDlpArgs(ref model.VideoReference, strategy Strategy, langs []string, outTemplate string) []string {
	format := string(strategy.Format)
	if format == "" {
		format = string(model.FormatVTT)
	}

	args := []string{
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", strings.Join(langs, ","),
		"--sub-format", format + "/vtt/best",
		"--no-simulate",
		"--print", "title",
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"-o", outTemplate,
	}

	if strategy.Client != "" {
		args = append(args, "--extractor-args", "youtube:player_client="+strategy.Client)
	}
	if strategy.UserAgent != "" {
		args = append(args, "--user-agent", strategy.UserAgent)
	}

	keys := make([]string, 0, len(strategy.Headers))
	for k := range strategy.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--add-header", k+":"+strategy.Headers[k])
	}

	if strategy.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(int(strategy.SocketTimeout/time.Second)))
	}

	return append(args, youtube.WatchURL(ref.ID))
}

// pickSubtitleFile finds <stem>.<lang>.<ext> in dir, honoring language order
func pickSubtitleFile(dir, stem string, langs []string) (string, string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, stem+".*"))
	if err != nil {
		return "", "", err
	}

	byLang := make(map[string]string)
	var found []string
	for _, m := range matches {
		rest := strings.TrimPrefix(filepath.Base(m), stem+".")
		ext := filepath.Ext(rest)
		lang := strings.TrimSuffix(rest, ext)
		if lang == "" || ext == "" || ext == ".part" {
			continue
		}
		if _, ok := byLang[lang]; !ok {
			byLang[lang] = m
			found = append(found, lang)
		}
	}

	for _, lang := range langs {
		if path, ok := byLang[lang]; ok {
			return path, lang, nil
		}
	}
	if len(found) > 0 {
		sort.Strings(found)
		return byLang[found[0]], found[0], nil
	}
	return "", "", fmt.Errorf("no subtitle files in %s", dir)
}

func formatFromExt(ext string) model.CaptionFormat {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "srt":
		return model.FormatSRT
	case "vtt":
		return model.FormatVTT
	case "srv1", "srv2", "srv3", "xml", "ttml":
		return model.FormatTimedText
	default:
		return model.FormatPlain
	}
}

func parseTitle(stdout []byte) string {
	line := strings.TrimSpace(string(stdout))
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if line == "NA" {
		return ""
	}
	return line
}

// lastErrorLine returns the last "ERROR:" line of yt-dlp stderr, or its last line
func lastErrorLine(stderr []byte) string {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], "ERROR:") {
			return strings.TrimSpace(lines[i])
		}
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
