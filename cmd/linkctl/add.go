package main

import (
	"fmt"
	"strings"

	"github.com/sundayezeilo/linkshelf/internal/errx"
	"github.com/sundayezeilo/linkshelf/internal/links"
)

// Run executes the add command.
func (c *AddCmd) Run(deps *Dependencies) error {
	req := links.CreateLinkRequest{
		URL:           c.URL,
		Title:         c.Title,
		Tags:          c.Tags,
		Notes:         optional(c.Notes),
		ImageURL:      optional(c.Image),
		PublishedDate: optional(c.Published),
	}

	if !c.NoScrape && deps.Extractor != nil {
		req = req.ApplyMetadata(deps.Extractor.Extract(deps.Ctx, c.URL))
	}

	link, err := deps.Links.CreateLink(deps.Ctx, req)
	if err != nil {
		if errx.Is(err, errx.Invalid) && req.Title == "" {
			fmt.Fprintln(deps.Stderr, "Hint: the page had no title; pass one with --title")
		}
		return err
	}

	if c.JSON {
		return writeJSON(deps.Stdout, link)
	}

	fmt.Fprintf(deps.Stdout, "Added %s  %s\n", link.ID, link.Title)
	if len(link.Tags) > 0 {
		fmt.Fprintf(deps.Stdout, "  tags: %s\n", strings.Join(link.Tags, ", "))
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
