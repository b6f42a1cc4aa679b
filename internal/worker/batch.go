package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/ytverify/internal/model"
)

// Checker runs the check pipeline for one URL
type Checker interface {
	Check(ctx context.Context, rawURL string, languages []string) (*model.PipelineResult, error)
}

// CheckJob checks one URL from a batch
type CheckJob struct {
	Index     int
	URL       string
	Languages []string
	Timeout   time.Duration
	Checker   Checker
}

// Execute runs the check under the job timeout
func (j *CheckJob) Execute(ctx context.Context) Result {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	started := time.Now()
	result, err := j.Checker.Check(ctx, j.URL, j.Languages)
	return &CheckResult{
		Index:    j.Index,
		URL:      j.URL,
		Result:   result,
		Error:    err,
		Duration: time.Since(started),
	}
}

// CheckResult is the outcome of one batch entry
type CheckResult struct {
	Index    int
	URL      string
	Result   *model.PipelineResult
	Error    error
	Duration time.Duration
}

// GetError returns the error from the check
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor checks many URLs concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
	languages   []string
	timeout     time.Duration
	logger      logrus.FieldLogger
}

// NewBatchProcessor creates a batch processor. A zero timeout leaves each check unbounded.
func NewBatchProcessor(checker Checker, concurrency int, languages []string, timeout time.Duration, logger logrus.FieldLogger) *BatchProcessor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
		languages:   languages,
		timeout:     timeout,
		logger:      logger,
	}
}

// ProcessURLs checks every URL and returns results in input order
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*CheckResult {
	if len(urls) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	submitted := 0
	for i, url := range urls {
		ok := pool.Submit(&CheckJob{
			Index:     i,
			URL:       url,
			Languages: b.languages,
			Timeout:   b.timeout,
			Checker:   b.checker,
		})
		if !ok {
			b.logger.WithField("remaining", len(urls)-i).Warn("batch cancelled before all URLs were queued")
			break
		}
		submitted++
	}

	results := pool.Wait()

	checkResults := make([]*CheckResult, 0, len(urls))
	done := make(map[int]bool, len(results))
	for _, result := range results {
		r := result.(*CheckResult)
		done[r.Index] = true
		checkResults = append(checkResults, r)
	}

	// Entries never run report the cancellation instead of disappearing
	for i, url := range urls {
		if !done[i] {
			checkResults = append(checkResults, &CheckResult{
				Index: i,
				URL:   url,
				Error: model.NewFailure(model.TransientRetrievalFailure, "batch", "Check was cancelled before it started", ctx.Err()),
			})
		}
	}

	sort.Slice(checkResults, func(i, j int) bool {
		return checkResults[i].Index < checkResults[j].Index
	})

	b.logger.WithFields(logrus.Fields{
		"urls":      len(urls),
		"submitted": submitted,
	}).Debug("batch complete")

	return checkResults
}

// ProcessFile reads URLs from a file and checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file (one per line). "-" reads stdin.
func ReadURLsFromFile(filePath string) ([]string, error) {
	if filePath == "-" {
		return ReadURLs(os.Stdin)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadURLs(file)
}

// ReadURLs reads one URL per line, skipping blanks and # comments and
// dropping duplicates while keeping first-seen order
func ReadURLs(r io.Reader) ([]string, error) {
	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
