package main

import (
	"fmt"

	"github.com/sundayezeilo/linkshelf/internal/errx"
)

// Run executes the notes command.
func (c *NotesCmd) Run(deps *Dependencies) error {
	if c.Clear == (c.Text != "") {
		return errx.Errorf("linkctl.notes", errx.Invalid, "give either the new notes or --clear")
	}

	id, err := parseID(c.ID)
	if err != nil {
		return err
	}

	var notes *string
	if !c.Clear {
		notes = &c.Text
	}

	link, err := deps.Links.UpdateLinkNotes(deps.Ctx, id, notes)
	if err != nil {
		if errx.Is(err, errx.NotFound) {
			fmt.Fprintln(deps.Stderr, "Hint: use 'linkctl list' to see saved links")
		}
		return err
	}

	if link.Notes == nil {
		fmt.Fprintf(deps.Stdout, "Cleared notes for %s\n", link.ID)
		return nil
	}
	fmt.Fprintf(deps.Stdout, "Updated notes for %s\n", link.ID)
	return nil
}
