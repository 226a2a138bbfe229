package main_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	main "github.com/sundayezeilo/linkshelf/cmd/linkctl"
	"github.com/sundayezeilo/linkshelf/internal/links"
	"github.com/sundayezeilo/linkshelf/internal/metadata"
)

func ptr(s string) *string { return &s }

// stubExtractor returns fixed results per URL and records requests.
type stubExtractor struct {
	mu      sync.Mutex
	results map[string]metadata.Result
	calls   []string
}

func (s *stubExtractor) Extract(_ context.Context, rawURL string) metadata.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, rawURL)
	return s.results[rawURL]
}

func newService() links.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return links.NewService(links.NewMemoryRepository(nil), &links.ServiceConfig{Logger: logger})
}

func newDeps(t *testing.T, svc links.Service, ex links.Extractor) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &main.Dependencies{
		Ctx:       context.Background(),
		Stdout:    stdout,
		Stderr:    stderr,
		Links:     svc,
		Extractor: ex,
	}, stdout, stderr
}
