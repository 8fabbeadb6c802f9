// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tabx/internal/formatter"
	"github.com/desertthunder/tabx/internal/services"
)

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON even on a terminal",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

// songFields are shared by songs add and songs edit.
func songFields() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Song title"},
		&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Performing artist"},
		&cli.StringFlag{Name: "key", Aliases: []string{"k"}, Usage: "Key signature, e.g. Am"},
		&cli.IntFlag{Name: "bpm", Usage: "Tempo in beats per minute (60-200)"},
		&cli.StringFlag{Name: "audio-url", Usage: "Link to a recording"},
		&cli.StringFlag{Name: "duration", Aliases: []string{"d"}, Usage: "Length as m:ss or seconds"},
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Read the tab from a file, - for stdin"},
		&cli.StringFlag{Name: "tab", Usage: "Tab content given inline"},
	}
}

func formatNames() string {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and storage",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create the config file if missing, then open the database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   defaultConfigPath,
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the REST API and the HTML viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Override server.host"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Override server.port"},
			&cli.BoolFlag{Name: "open", Usage: "Open the viewer in a browser once listening"},
		},
		Action: r.Serve,
	}
}

func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Manage the song library",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List songs, optionally filtered by a full-text query",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Full-text filter"},
					&cli.BoolFlag{Name: "csv", Usage: "Output CSV"},
				}, jsonFlags()...),
				Action: r.SongsList,
			},
			{
				Name:      "show",
				Usage:     "Print a song with its chord diagrams",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"F"},
						Usage:   "Output format: " + formatNames(),
						Value:   string(formatter.FormatText),
					},
				},
				Action: r.SongsShow,
			},
			{
				Name:   "add",
				Usage:  "Add a song",
				Flags:  append(songFields(), jsonFlags()...),
				Action: r.SongsAdd,
			},
			{
				Name:      "edit",
				Usage:     "Update the given fields of a song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     append(songFields(), jsonFlags()...),
				Action:    r.SongsEdit,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SongsDelete,
			},
			{
				Name:  "export",
				Usage: "Export songs to files with a manifest",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"F"},
						Usage:   "Output format: " + formatNames(),
						Value:   string(formatter.FormatMarkdown),
					},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Concurrent writers", Value: 4},
					&cli.StringSliceFlag{Name: "id", Usage: "Export only these song ids"},
				}, jsonFlags()...),
				Action: r.SongsExport,
			},
			{
				Name:      "import",
				Usage:     "Import every .txt tab file in a directory",
				Arguments: []cli.Argument{&cli.StringArg{Name: "dir"}},
				Flags:     jsonFlags(),
				Action:    r.SongsImport,
			},
		},
	}
}

func chordsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chords",
		Usage: "Browse the chord dictionary",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List chord diagrams",
				Flags:  jsonFlags(),
				Action: r.ChordsList,
			},
			{
				Name:      "show",
				Usage:     "Draw a chord diagram",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     jsonFlags(),
				Action:    r.ChordsShow,
			},
			{
				Name:      "match",
				Usage:     "Resolve a chord token the way the viewer does",
				Arguments: []cli.Argument{&cli.StringArg{Name: "token"}},
				Flags:     jsonFlags(),
				Action:    r.ChordsMatch,
			},
		},
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     fmt.Sprintf("Generate candidate songs for a query (max %d characters)", services.MaxQueryLength),
		Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
		Flags: append([]cli.Flag{
			&cli.IntFlag{Name: "save", Usage: "Save the candidate at this 1-based position"},
		}, jsonFlags()...),
		Action: r.Search,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Check that a tabx server is reachable",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "Server base URL (default from server config)"},
		},
		Action: r.Status,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse, read and search songs in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "Server base URL (default from server config)"},
		},
		Action: r.TUI,
	}
}
