package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mkarlsen/lenscap/internal/camera"
	"github.com/mkarlsen/lenscap/internal/errors"
	"github.com/mkarlsen/lenscap/internal/urlstore"
	"github.com/mkarlsen/lenscap/internal/web"
)

// streamItem is a saved entry plus its credential-masked display form.
type streamItem struct {
	urlstore.SavedEntry
	Display string `json:"display"`
}

// streamList is the CLI output shape for saved-list operations.
type streamList struct {
	Items   []streamItem `json:"items"`
	Blocked bool         `json:"blocked,omitempty"`
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(a *app) *cli.App {
	cliApp := &cli.App{
		Name:    "lenscap",
		Usage:   "Network camera capture studio",
		Version: Version,
		Commands: []*cli.Command{
			urlsCmd(a),
			snapshotCmd(a),
			recordCmd(a),
			previewCmd(a),
			watchCmd(a),
			outputDirCmd(a),
			serveCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// urlsCmd groups the saved-stream operations.
func urlsCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "urls",
		Usage: "Manage saved stream URLs",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved streams, most recently used first",
				Action: func(c *cli.Context) error {
					return outputJSON(toStreamList(a.urls.Load(), false))
				},
			},
			{
				Name:      "use",
				Usage:     "Record usage of a stream URL, saving it to the list",
				ArgsUsage: "<url>",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "timestamp-ms", Usage: "Usage timestamp in epoch milliseconds (defaults to now)"},
				},
				Action: func(c *cli.Context) error {
					url := c.Args().First()
					ts := c.Int64("timestamp-ms")
					if ts == 0 {
						ts = nowMilli()
					}
					entries, blocked := a.urls.MarkUsed(url, ts)
					if blocked {
						fmt.Fprintln(os.Stderr, "warning: list is full of pinned entries; URL was not saved")
					}
					return outputJSON(toStreamList(entries, blocked))
				},
			},
			{
				Name:      "pin",
				Usage:     "Pin a saved stream so it is never evicted",
				ArgsUsage: "<url>",
				Action: func(c *cli.Context) error {
					return outputJSON(toStreamList(a.urls.SetPinned(c.Args().First(), true), false))
				},
			},
			{
				Name:      "unpin",
				Usage:     "Unpin a saved stream",
				ArgsUsage: "<url>",
				Action: func(c *cli.Context) error {
					return outputJSON(toStreamList(a.urls.SetPinned(c.Args().First(), false), false))
				},
			},
			{
				Name:      "rename",
				Usage:     "Set the display label on a saved stream",
				ArgsUsage: "<url> <label>",
				Action: func(c *cli.Context) error {
					return outputJSON(toStreamList(a.urls.Rename(c.Args().Get(0), c.Args().Get(1)), false))
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a saved stream",
				ArgsUsage: "<url>",
				Action: func(c *cli.Context) error {
					return outputJSON(toStreamList(a.urls.Delete(c.Args().First()), false))
				},
			},
			{
				Name:  "clear",
				Usage: "Delete every saved stream",
				Action: func(c *cli.Context) error {
					if err := a.urls.ClearAll(); err != nil {
						return outputError(errors.NewInternal(err))
					}
					return outputJSON(toStreamList(nil, false))
				},
			},
		},
	}
}

// snapshotCmd creates the snapshot command.
func snapshotCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "snapshot",
		Usage:     "Grab one frame and write it as a PNG into the output directory",
		ArgsUsage: "<url>",
		Action: func(c *cli.Context) error {
			url := c.Args().First()
			return a.runCapture(url, func(outputDir string) (any, error) {
				return a.svc.Snapshot(url, outputDir)
			})
		},
	}
}

// recordCmd creates the record command.
func recordCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "record",
		Usage:     "Record a bounded clip into the output directory",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "seconds", Aliases: []string{"s"}, Usage: "Clip duration in seconds"},
		},
		Action: func(c *cli.Context) error {
			url := c.Args().First()
			seconds := c.Int("seconds")
			if seconds == 0 {
				seconds = a.cfg.ClipSeconds
			}
			return a.runCapture(url, func(outputDir string) (any, error) {
				return a.svc.Record(url, outputDir, seconds, a.cfg.RecordFPS, a.cfg.FrameWidth, a.cfg.FrameHeight)
			})
		},
	}
}

// previewCmd grabs a single frame and reports its geometry.
func previewCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Read one frame from a stream and report its dimensions",
		ArgsUsage: "<url>",
		Action: func(c *cli.Context) error {
			url := c.Args().First()
			if url == "" {
				return outputError(errors.NewConfiguration("stream URL is required"))
			}

			outcome, accepted := a.runner.StartWait(func() (any, error) {
				return a.svc.PreviewFrame(url)
			})
			if !accepted {
				return outputError(errors.NewBusy())
			}
			if outcome.Failed {
				return outputError(errors.NewCaptureFailed(outcome.Failure))
			}

			frame := outcome.Result.(camera.Frame)
			return outputJSON(map[string]any{
				"width":  frame.Width,
				"height": frame.Height,
				"bytes":  len(frame.RGB),
			})
		},
	}
}

// watchCmd runs the continuous preview loop until interrupted.
func watchCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Continuously read preview frames until interrupted",
		ArgsUsage: "<url>",
		Action: func(c *cli.Context) error {
			url := c.Args().First()
			if url == "" {
				return outputError(errors.NewConfiguration("stream URL is required"))
			}
			a.urls.MarkUsed(url, nowMilli())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			previewer := camera.NewPreviewer(a.svc, a.cfg.PreviewFPS)
			failed := make(chan string, 1)
			done := make(chan struct{})

			go func() {
				defer close(done)
				frames := 0
				previewer.Run(url, func(frame camera.Frame) {
					frames++
					a.log.Info().
						Int("frame", frames).
						Int("width", frame.Width).
						Int("height", frame.Height).
						Msg("preview frame")
				}, func(msg string) {
					failed <- msg
				})
			}()

			select {
			case <-ctx.Done():
				previewer.Stop()
				<-done
				return nil
			case msg := <-failed:
				return outputError(errors.NewCaptureFailed(msg))
			}
		},
	}
}

// outputDirCmd gets or sets the capture output directory.
func outputDirCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "output-dir",
		Usage:     "Show or change the capture output directory",
		ArgsUsage: "[path]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				dir, err := a.urls.OutputDir()
				if err != nil {
					return outputError(err)
				}
				return outputJSON(map[string]string{"path": dir})
			}

			dir, err := a.urls.SetOutputDir(c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]string{"path": dir})
		},
	}
}

// serveCmd runs the localhost HTTP API.
func serveCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API on localhost",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Bind address (defaults to the configured one)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (defaults to the configured one)"},
		},
		Action: func(c *cli.Context) error {
			cfg := *a.cfg
			if bind := c.String("bind"); bind != "" {
				cfg.Bind = bind
			}
			if port := c.Int("port"); port != 0 {
				cfg.Port = port
			}

			srv := web.NewServer(a.urls, a.svc, a.runner, &cfg, a.log)
			a.log.Info().Str("addr", srv.Addr).Msg("serving HTTP API")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case <-ctx.Done():
				return srv.Close()
			case err := <-errCh:
				return err
			}
		},
	}
}

// runCapture records usage, resolves the output directory, and routes op
// through the single-slot runner. Printed output carries exactly one status
// per operation; a busy slot gets its own message.
func (a *app) runCapture(url string, op func(outputDir string) (any, error)) error {
	if url == "" {
		return outputError(errors.NewConfiguration("stream URL is required"))
	}

	a.urls.MarkUsed(url, nowMilli())

	outputDir, err := a.urls.OutputDir()
	if err != nil {
		return outputError(err)
	}

	outcome, accepted := a.runner.StartWait(func() (any, error) {
		return op(outputDir)
	})
	if !accepted {
		return outputError(errors.NewBusy())
	}
	if outcome.Failed {
		return outputError(errors.NewCaptureFailed(outcome.Failure))
	}
	return outputJSON(map[string]any{"path": outcome.Result})
}

func toStreamList(entries []urlstore.SavedEntry, blocked bool) streamList {
	items := make([]streamItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, streamItem{
			SavedEntry: entry,
			Display:    urlstore.MaskCredentials(entry.URL),
		})
	}
	return streamList{Items: items, Blocked: blocked}
}

// outputJSON writes indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if capErr, ok := err.(*errors.CapError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", capErr.Code, capErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseClipSeconds parses the optional duration argument of the compat
// surface; anything unusable falls back to the configured default.
func parseClipSeconds(arg string, fallback int) int {
	parsed, err := strconv.Atoi(arg)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
