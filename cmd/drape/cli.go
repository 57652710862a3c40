package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/drape/internal/capture"
	"github.com/hpungsan/drape/internal/errors"
	"github.com/hpungsan/drape/internal/ops"
	"github.com/hpungsan/drape/internal/termui"
	"github.com/hpungsan/drape/internal/web"
)

// newCLIApp creates the CLI application with all commands.
// app may be nil when only help or version output is needed.
func newCLIApp(app *ops.App, logger *slog.Logger) *cli.App {
	cliApp := &cli.App{
		Name:    "drape",
		Usage:   "Photo-based style analysis",
		Version: Version,
		Commands: []*cli.Command{
			analyzeCmd(app),
			historyCmd(app),
			showCmd(app),
			chatCmd(app),
			exportCmd(app),
			uiCmd(app, logger),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// analyzeCmd creates the analyze command.
func analyzeCmd(app *ops.App) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze a photo and print styling advice",
		ArgsUsage: "<photo>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "gender", Aliases: []string{"g"}, Usage: "Attribute value sent with the photo (default from config)"},
			&cli.BoolFlag{Name: "json", Usage: "Print the record as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewValidation("a photo path is required"))
			}

			f, err := capture.ReadFile(c.Args().First())
			if err != nil {
				return outputError(err)
			}
			if _, err := app.SelectFile(c.Context, ops.SelectInput{Source: capture.SourcePicker, File: f}); err != nil {
				return outputError(err)
			}

			output, err := app.Analyze(c.Context, ops.AnalyzeInput{Gender: c.String("gender")})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(c.App.Writer, output)
			}
			fmt.Fprintln(c.App.Writer, termui.Card(output.View))
			if !output.Saved {
				fmt.Fprintln(c.App.Writer, termui.Warning(ops.WarnNotSaved))
			}
			return nil
		},
	}
}

// historyCmd creates the history command.
func historyCmd(app *ops.App) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List past analyses, newest first",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the list as JSON"},
		},
		Action: func(c *cli.Context) error {
			output := app.List()
			if c.Bool("json") {
				return outputJSON(c.App.Writer, output)
			}
			fmt.Fprintln(c.App.Writer, termui.History(output.Items))
			return nil
		},
	}
}

// showCmd creates the show command.
func showCmd(app *ops.App) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a past analysis without contacting the service",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the record as JSON"},
		},
		Action: func(c *cli.Context) error {
			id := strings.TrimSpace(c.Args().First())
			if id == "" {
				return outputError(errors.NewValidation("an analysis id is required"))
			}

			output, err := app.Replay(id)
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(c.App.Writer, output)
			}
			fmt.Fprintln(c.App.Writer, termui.Card(output.View))
			return nil
		},
	}
}

// chatCmd creates the chat command.
func chatCmd(app *ops.App) *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Chat with the stylist (interactive unless --message is given)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Send one message and print the reply"},
			&cli.StringFlag{Name: "id", Usage: "Past analysis the chat refers to"},
		},
		Action: func(c *cli.Context) error {
			header := "No analysis on display. Advice will be general."
			if id := strings.TrimSpace(c.String("id")); id != "" {
				replay, err := app.Replay(id)
				if err != nil {
					return outputError(err)
				}
				header = replay.Record.Label()
			}

			if c.IsSet("message") {
				output, err := app.SendChat(c.Context, c.String("message"))
				if err != nil {
					return outputError(err)
				}
				fmt.Fprintln(c.App.Writer, output.Reply.Text)
				return nil
			}

			if err := termui.RunChat(c.Context, termui.AppChat{App: app}, header); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// exportCmd creates the export command.
func exportCmd(app *ops.App) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the analysis history to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.drape/exports/history-<timestamp>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			output, err := app.Export(c.Context, ops.ExportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// uiCmd creates the ui command.
func uiCmd(app *ops.App, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Start the local web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind to"},
			&cli.IntFlag{Name: "port", Value: 8765, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(app, logger, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, logger)
		},
	}
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
	var dErr *errors.DrapeError
	if stderrors.As(err, &dErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", dErr.Code, dErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
