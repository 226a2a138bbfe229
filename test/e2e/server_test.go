package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sundayezeilo/linkshelf/internal/config"
	"github.com/sundayezeilo/linkshelf/internal/db"
	"github.com/sundayezeilo/linkshelf/internal/links"
	"github.com/sundayezeilo/linkshelf/internal/metadata"
	"github.com/sundayezeilo/linkshelf/internal/server"
)

// testApp holds the application components for e2e testing
type testApp struct {
	handler http.Handler
	dbPool  *pgxpool.Pool
	page    *httptest.Server
	cleanup func()
}

// setupTestApp creates a test application with a real database
func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := db.Migrate(ctx, dbPool); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	// A page for the scrape flows, served locally so the tests stay offline.
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head>
			<title>Fallback Title</title>
			<meta property="og:title" content="Scraped Title">
			<meta property="og:image" content="/cover.png">
			<meta property="article:published_time" content="2024-05-01T09:00:00Z">
		</head><body></body></html>`))
	}))

	logger := setupTestLogger()

	repo := links.NewPostgresRepository(db.New(dbPool), nil)
	svc := links.NewService(repo, &links.ServiceConfig{Logger: logger})
	handler := links.NewHandler(links.HandlerConfig{
		Service:   svc,
		Extractor: metadata.NewExtractor(metadata.WithTimeout(2*time.Second), metadata.WithLogger(logger)),
		Logger:    logger,
	})

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:            "8080",
			Host:            "localhost",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Store: config.StoreConfig{Driver: config.DriverPostgres},
		App: config.AppConfig{
			Environment:    "test",
			LogLevel:       "error",
			ServiceName:    "linkshelf-test",
			ServiceVersion: "test",
		},
	}

	srv := server.New(cfg, logger, handler)

	cleanup := func() {
		page.Close()
		dbPool.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	}

	return &testApp{
		handler: srv.Handler(),
		dbPool:  dbPool,
		page:    page,
		cleanup: cleanup,
	}
}

func (a *testApp) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func TestHealthCheck(t *testing.T) {
	app := setupTestApp(t)
	defer app.cleanup()

	rr := app.do(t, http.MethodGet, "/x/health", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	response := decode[map[string]string](t, rr)
	if response["status"] != "ok" {
		t.Errorf("expected status 'ok', got %s", response["status"])
	}
	if response["service"] != "linkshelf-test" {
		t.Errorf("expected service 'linkshelf-test', got %s", response["service"])
	}
}

func TestCreateLink_E2E(t *testing.T) {
	app := setupTestApp(t)
	defer app.cleanup()

	tests := []struct {
		name           string
		requestBody    map[string]any
		expectedStatus int
		checkResponse  func(*testing.T, links.Link)
	}{
		{
			name: "create link with required fields",
			requestBody: map[string]any{
				"url":   "https://example.com/test",
				"title": "Example",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, l links.Link) {
				if l.ID == uuid.Nil {
					t.Error("expected id to be generated")
				}
				if l.URL != "https://example.com/test" {
					t.Errorf("expected url 'https://example.com/test', got %v", l.URL)
				}
				if len(l.Tags) != 0 {
					t.Errorf("expected no tags, got %v", l.Tags)
				}
				if l.CreatedAt.IsZero() {
					t.Error("expected createdAt to be set")
				}
			},
		},
		{
			name: "create link with every field",
			requestBody: map[string]any{
				"url":           "https://example.com/full",
				"title":         "Full",
				"imageUrl":      "https://example.com/img.png",
				"publishedDate": "2023-01-01",
				"tags":          []string{"go", "db", "go"},
				"notes":         "read later",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, l links.Link) {
				if fmt.Sprint(l.Tags) != "[go db go]" {
					t.Errorf("expected tags kept as given, got %v", l.Tags)
				}
				if l.Notes == nil || *l.Notes != "read later" {
					t.Errorf("expected notes 'read later', got %v", l.Notes)
				}
				if l.ImageURL == nil || *l.ImageURL != "https://example.com/img.png" {
					t.Errorf("expected imageUrl, got %v", l.ImageURL)
				}
			},
		},
		{
			name:           "missing url and title",
			requestBody:    map[string]any{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid url format",
			requestBody: map[string]any{
				"url":   "not-a-valid-url",
				"title": "x",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "empty tag",
			requestBody: map[string]any{
				"url":   "https://example.com/tags",
				"title": "x",
				"tags":  []string{"ok", ""},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := app.do(t, http.MethodPost, "/api/links", tt.requestBody)

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rr.Code)
				t.Logf("response body: %s", rr.Body.String())
			}

			if tt.checkResponse != nil && rr.Code == http.StatusCreated {
				tt.checkResponse(t, decode[links.Link](t, rr))
			}
		})
	}
}

func TestListAndFilter_E2E(t *testing.T) {
	app := setupTestApp(t)
	defer app.cleanup()

	if rr := app.do(t, http.MethodGet, "/api/links", nil); rr.Body.String() != "[]\n" {
		t.Errorf("expected empty array on an empty store, got %q", rr.Body.String())
	}

	for i, tags := range [][]string{{"go"}, {"rust"}, {"go", "web"}} {
		rr := app.do(t, http.MethodPost, "/api/links", map[string]any{
			"url":   fmt.Sprintf("https://example.com/%d", i),
			"title": fmt.Sprintf("Link %d", i),
			"tags":  tags,
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("failed to create link %d: status %d", i, rr.Code)
		}
	}

	all := decode[[]links.Link](t, app.do(t, http.MethodGet, "/api/links", nil))
	if len(all) != 3 {
		t.Fatalf("expected 3 links, got %d", len(all))
	}
	for i, want := range []string{"Link 2", "Link 1", "Link 0"} {
		if all[i].Title != want {
			t.Errorf("position %d: expected %s, got %s", i, want, all[i].Title)
		}
	}

	tagged := decode[[]links.Link](t, app.do(t, http.MethodGet, "/api/links/tag/go", nil))
	if len(tagged) != 2 || tagged[0].Title != "Link 2" || tagged[1].Title != "Link 0" {
		t.Errorf("unexpected tag filter result: %+v", tagged)
	}

	none := app.do(t, http.MethodGet, "/api/links/tag/Go", nil)
	if none.Body.String() != "[]\n" {
		t.Errorf("expected case-sensitive tag match to return [], got %q", none.Body.String())
	}
}

func TestDeleteAndNotes_E2E(t *testing.T) {
	app := setupTestApp(t)
	defer app.cleanup()

	rr := app.do(t, http.MethodPost, "/api/links", map[string]any{
		"url":   "https://example.com/notes",
		"title": "Notes",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("failed to create link: status %d", rr.Code)
	}
	created := decode[links.Link](t, rr)

	notesPath := "/api/links/" + created.ID.String() + "/notes"

	rr = app.do(t, http.MethodPatch, notesPath, map[string]any{"notes": "first pass"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	updated := decode[links.Link](t, rr)
	if updated.Notes == nil || *updated.Notes != "first pass" {
		t.Errorf("expected notes 'first pass', got %v", updated.Notes)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) || updated.Title != created.Title {
		t.Error("updating notes must not change other fields")
	}

	rr = app.do(t, http.MethodPatch, notesPath, map[string]any{"notes": nil})
	if cleared := decode[links.Link](t, rr); cleared.Notes != nil {
		t.Errorf("expected notes cleared, got %v", *cleared.Notes)
	}

	rr = app.do(t, http.MethodPatch, "/api/links/"+uuid.NewString()+"/notes", map[string]any{"notes": "x"})
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown id, got %d", rr.Code)
	}

	for range 2 {
		rr = app.do(t, http.MethodDelete, "/api/links/"+created.ID.String(), nil)
		if rr.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rr.Code)
		}
	}

	if all := decode[[]links.Link](t, app.do(t, http.MethodGet, "/api/links", nil)); len(all) != 0 {
		t.Errorf("expected no links after delete, got %d", len(all))
	}
}

func TestScrape_E2E(t *testing.T) {
	app := setupTestApp(t)
	defer app.cleanup()

	rr := app.do(t, http.MethodPost, "/api/links/scrape", map[string]any{"url": app.page.URL + "/post"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	result := decode[metadata.Result](t, rr)
	if result.Title == nil || *result.Title != "Scraped Title" {
		t.Errorf("expected scraped title, got %v", result.Title)
	}
	if result.Image == nil || *result.Image != app.page.URL+"/cover.png" {
		t.Errorf("expected resolved image, got %v", result.Image)
	}

	rr = app.do(t, http.MethodPost, "/api/links", map[string]any{
		"url":    app.page.URL + "/post",
		"scrape": true,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	created := decode[links.Link](t, rr)
	if created.Title != "Scraped Title" {
		t.Errorf("expected title filled from page, got %s", created.Title)
	}
	if created.ScrapedDate == nil || *created.ScrapedDate != "2024-05-01T09:00:00Z" {
		t.Errorf("expected scraped date recorded, got %v", created.ScrapedDate)
	}

	// Unreachable pages still produce an empty result, never an error.
	rr = app.do(t, http.MethodPost, "/api/links/scrape", map[string]any{"url": "http://non-existent-host.invalid/"})
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200 for unreachable page, got %d", rr.Code)
	}
}

func TestConcurrentLinkCreation_E2E(t *testing.T) {
	app := setupTestApp(t)
	defer app.cleanup()

	concurrency := 10
	var (
		mu  sync.Mutex
		ids = make(map[uuid.UUID]bool)
		wg  sync.WaitGroup
	)

	for i := range concurrency {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			rr := app.do(t, http.MethodPost, "/api/links", map[string]any{
				"url":   fmt.Sprintf("https://example.com/concurrent-%d", index),
				"title": fmt.Sprintf("Concurrent %d", index),
			})
			if rr.Code != http.StatusCreated {
				t.Errorf("request %d failed with status %d", index, rr.Code)
				return
			}

			var l links.Link
			if err := json.NewDecoder(rr.Body).Decode(&l); err != nil {
				t.Errorf("request %d: failed to decode: %v", index, err)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if ids[l.ID] {
				t.Errorf("duplicate id generated: %s", l.ID)
			}
			ids[l.ID] = true
		}(i)
	}
	wg.Wait()

	if len(ids) != concurrency {
		t.Errorf("expected %d unique ids, got %d", concurrency, len(ids))
	}

	var count int
	if err := app.dbPool.QueryRow(context.Background(), "SELECT count(*) FROM links").Scan(&count); err != nil {
		t.Fatalf("failed to count links: %v", err)
	}
	if count != concurrency {
		t.Errorf("expected %d rows, got %d", concurrency, count)
	}
}

func setupTestLogger() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})
	return slog.New(handler)
}
