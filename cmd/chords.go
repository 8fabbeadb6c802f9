package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tabx/internal/chords"
	"github.com/desertthunder/tabx/internal/shared"
)

func (r *Runner) ChordsList(ctx context.Context, cmd *cli.Command) error {
	library, done, err := r.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer done()

	diagrams, err := library.ListChords(ctx)
	if err != nil {
		return err
	}

	if r.useTable(cmd) {
		return r.writePlain("%s\n", chordTable(diagrams))
	}
	return r.writeJSON(diagrams, cmd.Bool("pretty"))
}

// ChordsShow prints the exact diagram stored under a name.
func (r *Runner) ChordsShow(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: chord name", shared.ErrMissingArgument)
	}

	library, done, err := r.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer done()

	d, err := library.GetChord(ctx, name)
	if err != nil {
		return err
	}

	if r.useTable(cmd) {
		return r.writePlain("%s\n%s\n", d.ChordName, chords.Render(d))
	}
	return r.writeJSON(d, cmd.Bool("pretty"))
}

// ChordsMatch resolves a token through the simplification chain. No match is not an error.
func (r *Runner) ChordsMatch(ctx context.Context, cmd *cli.Command) error {
	token := strings.TrimSpace(cmd.StringArg("token"))
	if token == "" {
		return fmt.Errorf("%w: chord token", shared.ErrMissingArgument)
	}

	library, done, err := r.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer done()

	match, err := library.MatchChord(ctx, token)
	if err != nil {
		return err
	}

	if !r.useTable(cmd) {
		return r.writeJSON(match, cmd.Bool("pretty"))
	}
	if !match.Found {
		return r.writePlain("%s: Chord diagram not available\n", token)
	}
	return r.writePlain("%s → %s\n%s\n", token, match.Diagram.ChordName, chords.Render(*match.Diagram))
}
