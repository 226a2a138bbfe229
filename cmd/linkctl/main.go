// Command linkctl manages saved links from the terminal. It talks to the
// same stores as the server: a SQLite file by default, or Postgres.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sundayezeilo/linkshelf/internal/db"
	"github.com/sundayezeilo/linkshelf/internal/errx"
	"github.com/sundayezeilo/linkshelf/internal/links"
	"github.com/sundayezeilo/linkshelf/internal/metadata"
	"github.com/sundayezeilo/linkshelf/internal/sqlite"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		ReportError(os.Stderr, err)
		os.Exit(1)
	}
}

// ReportError prints err for the user. Commands return errors without
// printing them, so this is the only place a failure is shown.
func ReportError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %s\n", errx.Message(err))
}

// Main represents the program.
type Main struct {
	// Default SQLite path, used when --sqlite-path is not given.
	DBPath string

	// Open store handles, released by Close.
	DB   *sqlite.DB
	Pool *pgxpool.Pool

	// Service, when set before Run, replaces store wiring.
	Service links.Service

	// Extractor, when set before Run, replaces the HTTP extractor.
	Extractor links.Extractor
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close releases any open store.
func (m *Main) Close() error {
	if m.Pool != nil {
		m.Pool.Close()
		m.Pool = nil
	}
	if m.DB != nil {
		err := m.DB.Close()
		m.DB = nil
		return err
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("linkctl"),
		kong.Description("Save, tag and annotate links."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Vars{"default_db": m.DBPath},
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'linkctl --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	deps.Extractor = m.Extractor
	if deps.Extractor == nil {
		deps.Extractor = metadata.NewExtractor(
			metadata.WithTimeout(cli.Timeout),
			metadata.WithLogger(logger),
		)
	}

	// extract never touches the store.
	if commandName(kongCtx) != "extract" {
		svc := m.Service
		if svc == nil {
			repo, err := m.openRepository(ctx, cli, stderr)
			if err != nil {
				return err
			}
			defer m.Close()
			svc = links.NewService(repo, &links.ServiceConfig{Logger: logger})
		}
		deps.Links = svc
	}

	return kongCtx.Run(deps)
}

func (m *Main) openRepository(ctx context.Context, cli *CLI, stderr io.Writer) (links.Repository, error) {
	switch cli.Store {
	case "postgres":
		if cli.DSN == "" {
			fmt.Fprintln(stderr, "Hint: pass --dsn or set LINKSHELF_DSN")
			return nil, fmt.Errorf("postgres store requires a connection string")
		}
		pool, err := pgxpool.New(ctx, cli.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		m.Pool = pool
		return links.NewPostgresRepository(db.New(pool), nil), nil

	case "memory":
		return links.NewMemoryRepository(nil), nil

	default:
		if cli.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cli.SQLitePath), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		m.DB = sqlite.NewDB(cli.SQLitePath)
		if err := m.DB.Open(ctx); err != nil {
			m.DB = nil
			fmt.Fprintln(stderr, "Hint: set LINKSHELF_DB to use a different database path")
			return nil, fmt.Errorf("failed to open database at %q: %w", cli.SQLitePath, err)
		}
		return links.NewSQLiteRepository(m.DB, nil), nil
	}
}

// commandName returns the selected subcommand without its arguments.
func commandName(ctx *kong.Context) string {
	fields := strings.Fields(ctx.Command())
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// defaultDBPath does not create the directory; the sqlite store does that
// when it is opened.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "linkshelf.db"
	}
	return filepath.Join(home, ".linkshelf", "linkshelf.db")
}
