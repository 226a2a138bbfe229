package main

import (
	"fmt"
	"strings"

	"github.com/sundayezeilo/linkshelf/internal/links"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	var (
		all []links.Link
		err error
	)
	if c.Tag != "" {
		all, err = deps.Links.GetLinksByTag(deps.Ctx, c.Tag)
	} else {
		all, err = deps.Links.GetLinks(deps.Ctx)
	}
	if err != nil {
		return err
	}

	if c.JSON {
		return writeJSON(deps.Stdout, all)
	}

	if len(all) == 0 {
		if c.Tag != "" {
			fmt.Fprintf(deps.Stdout, "No links tagged %q.\n", c.Tag)
			return nil
		}
		fmt.Fprintln(deps.Stdout, "No links found. Use 'linkctl add' to save one.")
		return nil
	}

	for _, l := range all {
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %s", l.ID, l.CreatedAt.Format("2006-01-02"), l.Title, l.URL)
		if len(l.Tags) > 0 {
			fmt.Fprintf(deps.Stdout, "  [%s]", strings.Join(l.Tags, ", "))
		}
		fmt.Fprintln(deps.Stdout)
	}

	return nil
}
