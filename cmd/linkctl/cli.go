package main

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/sundayezeilo/linkshelf/internal/links"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Links     links.Service
	Extractor links.Extractor
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Store      string        `enum:"sqlite,postgres,memory" default:"sqlite" env:"LINKSHELF_STORE" help:"Link store (${enum})"`
	SQLitePath string        `name:"sqlite-path" default:"${default_db}" env:"LINKSHELF_DB" help:"SQLite database file"`
	DSN        string        `name:"dsn" env:"LINKSHELF_DSN" help:"Postgres connection string"`
	Timeout    time.Duration `default:"5s" help:"Page fetch timeout"`
	Verbose    bool          `short:"v" help:"Log extraction details to stderr"`

	Add     AddCmd     `cmd:"" help:"Save a link, filling gaps from the page's metadata"`
	List    ListCmd    `cmd:"" help:"List saved links, newest first"`
	Delete  DeleteCmd  `cmd:"" help:"Delete a link"`
	Notes   NotesCmd   `cmd:"" help:"Replace or clear a link's notes"`
	Extract ExtractCmd `cmd:"" help:"Print page metadata without saving"`
}

// AddCmd is the "add" subcommand.
type AddCmd struct {
	URL       string   `arg:"" help:"Link URL"`
	Title     string   `short:"t" help:"Title (defaults to the page title)"`
	Tags      []string `short:"T" name:"tag" help:"Tag (repeatable)"`
	Notes     string   `short:"n" help:"Free-form notes"`
	Image     string   `help:"Image URL (defaults to the page image)"`
	Published string   `help:"Publication date (defaults to the page date)"`
	NoScrape  bool     `name:"no-scrape" help:"Do not fetch the page"`
	JSON      bool     `help:"Print the saved link as JSON"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Tag  string `short:"t" help:"Only links carrying this tag"`
	JSON bool   `help:"Print links as JSON"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID string `arg:"" help:"Link ID"`
}

// NotesCmd is the "notes" subcommand.
type NotesCmd struct {
	ID    string `arg:"" help:"Link ID"`
	Text  string `arg:"" optional:"" help:"New notes"`
	Clear bool   `help:"Remove the notes"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	URLs        []string `arg:"" name:"url" help:"Page URLs"`
	Concurrency int      `short:"c" default:"4" help:"Concurrent fetch limit"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
