package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/moestate/newsdesk/internal/brief"
	"github.com/moestate/newsdesk/internal/catalog"
	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
	"github.com/moestate/newsdesk/internal/ingest"
	"github.com/moestate/newsdesk/internal/mcp"
	"github.com/moestate/newsdesk/internal/ops"
	"github.com/moestate/newsdesk/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(svc *services) *cli.App {
	app := &cli.App{
		Name:    "newsdesk",
		Usage:   "Commercial real estate market briefs",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "base-dir", EnvVars: []string{"NEWSDESK_BASE_DIR"}, Usage: "Data and config directory (default: ~/.newsdesk)"},
		},
		Commands: []*cli.Command{
			generateCmd(svc),
			createCmd(svc),
			updateCmd(svc),
			deleteCmd(svc),
			fetchCmd(svc),
			listCmd(svc),
			appendCmd(svc),
			exportCmd(svc),
			importCmd(svc),
			ingestCmd(svc),
			catalogCmd(svc),
			serveCmd(svc),
			mcpCmd(svc),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// generateCmd creates the generate command.
func generateCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Compose a market brief from the property records catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "all", Usage: "Property type: office|retail|industrial|multifamily|all"},
			&cli.StringFlag{Name: "span", Aliases: []string{"s"}, Value: "weekly", Usage: "Time span: daily|weekly|custom"},
			&cli.StringFlag{Name: "start", Usage: "Custom range start (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "end", Usage: "Custom range end (YYYY-MM-DD)"},
			&cli.BoolFlag{Name: "save", Usage: "Save the brief as a digest"},
			&cli.BoolFlag{Name: "export", Usage: "Save and write digest-{id}.txt to the exports directory"},
		},
		Action: func(c *cli.Context) error {
			req := brief.Request{
				PropertyType: digest.PropertyType(strings.ToLower(c.String("type"))),
				TimeSpan:     digest.TimeSpan(strings.ToLower(c.String("span"))),
			}
			if c.IsSet("start") || c.IsSet("end") {
				req.DateRange = &digest.DateRange{Start: c.String("start"), End: c.String("end")}
			}

			out, err := ops.Generate(c.Context, svc.generator, req)
			if err != nil {
				return outputError(err)
			}
			if !c.Bool("save") && !c.Bool("export") {
				return outputJSON(c.App.Writer, out)
			}
			return saveDigest(c, svc, out.Form(), c.Bool("export"))
		},
	}
}

// createCmd creates the create command.
func createCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Save a digest (reads a JSON form from stdin)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "export", Usage: "Also write digest-{id}.txt to the exports directory"},
		},
		Action: func(c *cli.Context) error {
			text, err := readDocument(c)
			if err != nil {
				return outputError(err)
			}
			form, err := digest.DecodeForm([]byte(text))
			if err != nil {
				return outputError(err)
			}
			return saveDigest(c, svc, form, c.Bool("export"))
		},
	}
}

// updateCmd creates the update command.
func updateCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a digest (reads a JSON patch from stdin)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
		},
		Action: func(c *cli.Context) error {
			var patch digest.Patch
			if text, err := readInput(c); err != nil {
				return outputError(errors.NewInternal(err))
			} else if text != "" {
				if err := json.Unmarshal([]byte(text), &patch); err != nil {
					return outputError(errors.NewInvalidRequest("invalid JSON patch: " + err.Error()))
				}
			}
			if c.IsSet("title") {
				title := c.String("title")
				patch.Title = &title
			}

			d, err := svc.manager.Update(c.Context, c.Args().First(), patch)
			if d == nil && err == nil {
				return outputJSON(c.App.Writer, map[string]any{"updated": false, "id": c.Args().First()})
			}
			return outputWrite(c, d, d != nil, err)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a digest",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			out, err := svc.manager.Remove(c.Context, c.Args().First())
			return outputWrite(c, out, out != nil, err)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a digest by ID",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "content", Aliases: []string{"c"}, Usage: "Print only the markdown content"},
		},
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			d, err := svc.manager.Get(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			if d == nil {
				return outputError(errors.NewNotFound(id))
			}
			if c.Bool("content") {
				_, err := fmt.Fprintln(c.App.Writer, d.Content)
				return err
			}
			return outputJSON(c.App.Writer, d)
		},
	}
}

// listCmd creates the list command.
func listCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List saved digests",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Match title or content"},
			&cli.StringFlag{Name: "span", Aliases: []string{"s"}, Value: "all", Usage: "Time span: daily|weekly|custom|all"},
			&cli.StringFlag{Name: "sort", Value: "newest", Usage: "Order: newest|oldest|title"},
		},
		Action: func(c *cli.Context) error {
			out, err := svc.manager.List(c.Context, ops.ListInput{
				Search:   c.String("search"),
				TimeSpan: c.String("span"),
				Sort:     c.String("sort"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, out)
		},
	}
}

// appendCmd creates the append command.
func appendCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:      "append",
		Usage:     "Append a note to one section of a digest (reads markdown from stdin)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "section", Required: true, Usage: "Section heading, e.g. \"Market Summary\""},
		},
		Action: func(c *cli.Context) error {
			content, err := readInput(c)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			out, err := svc.manager.Append(c.Context, ops.AppendInput{
				ID:      c.Args().First(),
				Section: c.String("section"),
				Content: content,
			})
			return outputWrite(c, out, out != nil, err)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write a digest to a file",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.newsdesk/exports/digest-<id>.txt)"},
		},
		Action: func(c *cli.Context) error {
			// An explicit path may sit anywhere; the default lands in the exports dir
			input := ops.ExportFileInput{ID: c.Args().First(), Path: c.String("path")}
			if input.Path == "" {
				input.Dir = svc.exportsDir
			}
			out, err := svc.manager.ExportFile(c.Context, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, out)
		},
	}
}

// importCmd creates the import command.
func importCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Load a digest written by export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace"},
		},
		Action: func(c *cli.Context) error {
			out, err := svc.manager.Import(c.Context, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			return outputWrite(c, out, out != nil, err)
		},
	}
}

// ingestCmd creates the ingest command.
func ingestCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Fetch recent news articles from the configured feeds",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "default-feeds", Usage: "Poll the built-in feed list when none are configured"},
		},
		Action: func(c *cli.Context) error {
			service := svc.ingest
			if c.Bool("default-feeds") && len(svc.cfg.Feeds) == 0 {
				service = ingest.NewService(ingest.DefaultFeeds(), svc.cfg.FeedTimeout.Std(), nil, svc.logger, svc.metrics)
			}
			return outputJSON(c.App.Writer, service.Fetch(c.Context))
		},
	}
}

// catalogCmd creates the catalog command.
func catalogCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "List property records with their derived category",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter: office|retail|industrial|multifamily"},
		},
		Action: func(c *cli.Context) error {
			var filter *catalog.Category
			if name := c.String("category"); name != "" {
				cat, err := catalog.ParseCategory(name)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				filter = &cat
			}
			entries, err := svc.catalog.Fetch(c.Context, filter)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(c.App.Writer, entries)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server (HTML views, JSON API, /metrics)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Bind address (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind, port := svc.cfg.HTTP.Bind, svc.cfg.HTTP.Port
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			if c.IsSet("port") {
				port = c.Int("port")
			}

			srv, err := web.NewServer(web.Deps{
				Manager:   svc.manager,
				Generator: svc.generator,
				Catalog:   svc.catalog,
				Ingest:    svc.ingest,
				Metrics:   svc.metrics,
				Logger:    svc.logger,
				Version:   Version,
			}, bind, port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(c.Context, srv, svc.logger)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP tools on stdio",
		Action: func(c *cli.Context) error {
			return mcp.Run(svc.mcpHandlers(), svc.cfg, Version)
		},
	}
}

// saveDigest creates a digest from form and optionally exports it.
func saveDigest(c *cli.Context, svc *services, form digest.Form, export bool) error {
	d, err := svc.manager.Create(c.Context, form)
	if d == nil {
		return outputWrite(c, nil, false, err)
	}
	warnMirror(c, err)
	if !export {
		return outputJSON(c.App.Writer, d)
	}

	file, err := ops.WriteExport(d, svc.exportsDir, "")
	if err != nil {
		return outputError(err)
	}
	return outputJSON(c.App.Writer, map[string]any{"digest": d, "export": file})
}

// Helper functions

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	appErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
}

// outputWrite prints the result of a write op. A mirror failure after a
// successful local write is a warning, not an error.
func outputWrite(c *cli.Context, v any, ok bool, err error) error {
	if !ok {
		if errors.Is(err, errors.ErrStorageFailed) {
			_ = outputJSON(c.App.Writer, ops.ResultOf(err))
		}
		return outputError(err)
	}
	warnMirror(c, err)
	return outputJSON(c.App.Writer, v)
}

func warnMirror(c *cli.Context, err error) {
	if err == nil {
		return
	}
	appErr := errors.As(err)
	fmt.Fprintf(c.App.ErrWriter, "warning: [%s] %s\n", appErr.Code, appErr.Message)
}

// readInput reads all of the app's input. A terminal on stdin counts as no input.
func readInput(c *cli.Context) (string, error) {
	if f, ok := c.App.Reader.(*os.File); ok && !hasPipedData(f) {
		return "", nil
	}
	data, err := io.ReadAll(io.LimitReader(c.App.Reader, ops.MaxImportBytes))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// readDocument returns the JSON document piped to the app.
func readDocument(c *cli.Context) (string, error) {
	text, err := readInput(c)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if text == "" {
		return "", errors.NewInvalidRequest("a JSON document must be piped via stdin")
	}
	return text, nil
}

// hasPipedData returns true if f is a pipe or file rather than a terminal.
func hasPipedData(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
