package main

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sundayezeilo/linkshelf/internal/errx"
)

// Run executes the delete command. Deleting an unknown id succeeds.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	id, err := parseID(c.ID)
	if err != nil {
		return err
	}

	if err := deps.Links.DeleteLink(deps.Ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted link %s\n", id)
	return nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errx.Errorf("linkctl.parseID", errx.Invalid, "invalid link id %q", raw)
	}
	return id, nil
}
