package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tabx/internal/shared"
)

// Search asks the generative backend for candidates. --save N stores the Nth one in the library.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")

	candidates, err := r.searchProxy().Search(ctx, query)
	if err != nil {
		return err
	}

	save := int(cmd.Int("save"))
	if save == 0 {
		switch {
		case r.useTable(cmd) && len(candidates) == 0:
			return r.writePlain("No songs found for %q\n", query)
		case r.useTable(cmd):
			return r.writePlain("%s\n", candidateTable(candidates))
		default:
			return r.writeJSON(candidates, cmd.Bool("pretty"))
		}
	}

	if save < 1 || save > len(candidates) {
		return fmt.Errorf("%w: --save %d, the search returned %d candidates", shared.ErrInvalidArgument, save, len(candidates))
	}

	library, done, err := r.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer done()

	c := candidates[save-1]
	song, err := library.CreateSong(ctx, c.ToCreate())
	if err != nil {
		return err
	}

	r.logger.Info("saved search candidate", "id", song.ID, "query", query)
	if !r.useTable(cmd) {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}
	return r.writePlain("✓ Saved #%d %s - %s\n", song.ID, song.Title, song.Artist)
}
