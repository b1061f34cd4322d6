package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/starford/jot/internal"
	"github.com/starford/jot/internal/export"
	"github.com/starford/jot/internal/noteservice"
	"github.com/starford/jot/internal/store"
	pkgconfig "github.com/starford/jot/pkg/config"
)

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "search",
			Usage:     "Search notes (supports y:YYYY and m:MM/YY tokens)",
			ArgsUsage: "[query...]",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: store.DefaultSearchLimit, Usage: "Maximum results"},
			},
			Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service, out *printer) error {
				limit := int(cmd.Int("limit"))
				if limit < 0 {
					return fmt.Errorf("search: limit must not be negative")
				}
				results, err := svc.Search(ctx, joinArgs(cmd), limit)
				if err != nil {
					return err
				}
				return out.results(results)
			}),
		},
		{
			Name:      "get",
			Usage:     "Print a note",
			ArgsUsage: "<id>",
			Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service, out *printer) error {
				id, err := argID(cmd, 0)
				if err != nil {
					return err
				}
				n, err := svc.GetNote(ctx, id)
				if err != nil {
					return err
				}
				if n == nil {
					return fmt.Errorf("note %d not found", id)
				}
				return out.note(n)
			}),
		},
		{
			Name:  "create",
			Usage: "Create a note; the body is read from stdin when --body is omitted",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true},
				&cli.StringFlag{Name: "body", Aliases: []string{"b"}},
			},
			Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service, out *printer) error {
				body, err := bodyArg(cmd)
				if err != nil {
					return err
				}
				id, err := svc.CreateNote(ctx, cmd.String("title"), body)
				if err != nil {
					return err
				}
				return out.value(map[string]int64{"id": id}, fmt.Sprintf("created: %d", id))
			}),
		},
		{
			Name:      "update",
			Usage:     "Replace a note's body",
			ArgsUsage: "<id>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "body", Aliases: []string{"b"}},
			},
			Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service, out *printer) error {
				id, err := argID(cmd, 0)
				if err != nil {
					return err
				}
				body, err := bodyArg(cmd)
				if err != nil {
					return err
				}
				if err := svc.UpdateNote(ctx, id, body); err != nil {
					return err
				}
				return out.value(map[string]int64{"id": id}, fmt.Sprintf("updated: %d", id))
			}),
		},
		{
			Name:      "update-full",
			Usage:     "Replace a note's title and body",
			ArgsUsage: "<id>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true},
				&cli.StringFlag{Name: "body", Aliases: []string{"b"}},
			},
			Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service, out *printer) error {
				id, err := argID(cmd, 0)
				if err != nil {
					return err
				}
				body, err := bodyArg(cmd)
				if err != nil {
					return err
				}
				if err := svc.UpdateNoteFull(ctx, id, cmd.String("title"), body); err != nil {
					return err
				}
				return out.value(map[string]int64{"id": id}, fmt.Sprintf("updated: %d", id))
			}),
		},
		{
			Name:      "delete",
			Usage:     "Delete notes; unknown ids are ignored",
			ArgsUsage: "<id>...",
			Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service, out *printer) error {
				ids, err := argIDs(cmd)
				if err != nil {
					return err
				}
				n, err := svc.DeleteNotes(ctx, ids)
				if err != nil {
					return err
				}
				return out.value(map[string]int{"deleted": n}, fmt.Sprintf("deleted: %d", n))
			}),
		},
		{
			Name:  "count",
			Usage: "Print the number of notes",
			Action: withService(func(ctx context.Context, _ *cli.Command, svc *noteservice.Service, out *printer) error {
				n, err := svc.NoteCount(ctx)
				if err != nil {
					return err
				}
				return out.value(map[string]int{"count": n}, strconv.Itoa(n))
			}),
		},
		{
			Name:      "seed",
			Usage:     "Insert generated sample notes",
			ArgsUsage: "<n>",
			Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service, out *printer) error {
				n, err := strconv.Atoi(cmd.Args().First())
				if err != nil {
					return fmt.Errorf("seed: count must be an integer: %w", err)
				}
				if err := svc.SeedNotes(ctx, n); err != nil {
					return err
				}
				return out.value(map[string]int{"seeded": n}, fmt.Sprintf("seeded: %d", n))
			}),
		},
		{
			Name:      "import",
			Usage:     "Import text files as notes, skipping duplicates",
			ArgsUsage: "<path>...",
			Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service, out *printer) error {
				paths := cmd.Args().Slice()
				if len(paths) == 0 {
					return fmt.Errorf("import: at least one path is required")
				}
				res := svc.ImportFiles(ctx, paths)
				return out.value(res, fmt.Sprintf("imported: %d, skipped: %d", res.Imported, res.Skipped))
			}),
		},
		{
			Name:      "scan",
			Usage:     "List importable files under directories",
			ArgsUsage: "<dir>...",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "pattern", Aliases: []string{"p"}, Usage: "Glob matched against file names (default *.txt)"},
			},
			Action: withService(func(_ context.Context, cmd *cli.Command, svc *noteservice.Service, out *printer) error {
				files, err := svc.ScanDirectories(cmd.Args().Slice(), cmd.String("pattern"))
				if err != nil {
					return err
				}
				return out.files(files)
			}),
		},
		{
			Name:      "export",
			Usage:     "Write notes as files into a directory",
			ArgsUsage: "<id>...",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "Target directory (default from config)"},
				&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "markdown or html (default from config)"},
			},
			Action: withService(func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service, out *printer) error {
				ids, err := argIDs(cmd)
				if err != nil {
					return err
				}
				res, err := svc.ExportNotes(ctx, ids, cmd.String("dir"))
				if err != nil {
					return err
				}
				return out.value(res, res.Message())
			}),
		},
		{
			Name:  "serve",
			Usage: "Run the HTTP API and the inbox watcher",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
					return fmt.Errorf("app run error: %w", err)
				}
				return nil
			},
		},
		{
			Name:  "mcp",
			Usage: "Serve MCP tools over stdio",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
			},
		},
	}
}

type serviceAction func(ctx context.Context, cmd *cli.Command, svc *noteservice.Service, out *printer) error

// withService opens the store for the duration of a one-shot command.
func withService(fn serviceAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if f := cmd.String("format"); f != "" {
			cfg.Export.Format = export.Format(f)
			if !cfg.Export.Format.Valid() {
				return fmt.Errorf("unknown export format %q", f)
			}
		}

		logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)
		slog.SetDefault(logger)
		svc, closeDB, err := internal.OpenService(cfg, logger)
		if err != nil {
			return err
		}
		defer closeDB()

		return fn(ctx, cmd, svc, newPrinter(os.Stdout, !cmd.Bool("json") && isTerminal(os.Stdout)))
	}
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func joinArgs(cmd *cli.Command) string {
	return strings.Join(cmd.Args().Slice(), " ")
}

func argID(cmd *cli.Command, i int) (int64, error) {
	s := cmd.Args().Get(i)
	if s == "" {
		return 0, fmt.Errorf("note id is required")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid note id %q", s)
	}
	return id, nil
}

func argIDs(cmd *cli.Command) ([]int64, error) {
	if cmd.Args().Len() == 0 {
		return nil, fmt.Errorf("at least one note id is required")
	}
	ids := make([]int64, 0, cmd.Args().Len())
	for i := range cmd.Args().Len() {
		id, err := argID(cmd, i)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// bodyArg returns --body, or stdin when the flag is absent and input is piped.
func bodyArg(cmd *cli.Command) (string, error) {
	if cmd.IsSet("body") {
		return cmd.String("body"), nil
	}
	if isTerminal(os.Stdin) {
		return "", nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read body from stdin: %w", err)
	}
	return string(data), nil
}
