// Command drive plays a search on a running gridpath server from the
// terminal, printing the grid after every step.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/gridpath/pathfind/search"
	"github.com/wricardo/gridpath/pathfind/service"
)

type driveOptions struct {
	Config   string
	Session  string
	Walls    []string
	Delay    time.Duration
	MaxSteps int
	Quiet    bool
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "drive",
		Usage: "Step a gridpath search and watch it in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   "http://localhost:8080",
				Usage:   "gridpath server URL",
				Sources: cli.EnvVars("GRIDPATH_URL"),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration to create the session from (server default when empty)",
			},
			&cli.StringFlag{
				Name:    "session",
				Aliases: []string{"continue"},
				Usage:   "Drive an existing session by ID instead of creating one",
			},
			&cli.StringSliceFlag{
				Name:  "wall",
				Usage: "Toggle a wall before searching, as row,col (repeatable)",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Value: 100 * time.Millisecond,
				Usage: "Pause between steps",
			},
			&cli.IntFlag{
				Name:  "max-steps",
				Usage: "Stop after this many steps (0 = until the search ends)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only print the final grid",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := slog.LevelInfo
			if cmd.Bool("debug") {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			opts := driveOptions{
				Config:   cmd.String("config"),
				Session:  cmd.String("session"),
				Walls:    cmd.StringSlice("wall"),
				Delay:    cmd.Duration("delay"),
				MaxSteps: cmd.Int("max-steps"),
				Quiet:    cmd.Bool("quiet"),
			}

			url := cmd.String("url")
			logger.Info("connecting", "url", url)
			_, err := drive(ctx, NewClient(url), opts, os.Stdout, logger)
			return err
		},
	}
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "drive: %v\n", err)
		os.Exit(1)
	}
}

// drive prepares a session and steps it until the search ends or the step
// limit is hit. The returned path is nil when the limit stopped the run.
func drive(ctx context.Context, c *Client, opts driveOptions, w io.Writer, logger *slog.Logger) (*service.PathResult, error) {
	if err := prepareSession(ctx, c, opts, logger); err != nil {
		return nil, err
	}

	var last *service.StepResult
	steps := 0
	for {
		if opts.MaxSteps > 0 && steps >= opts.MaxSteps {
			if last != nil {
				printFrame(w, steps, last)
			}
			fmt.Fprintf(w, "Stopped after %d steps, search still running (session %s)\n", steps, c.SessionID())
			return nil, nil
		}

		result, err := c.Step(ctx)
		if err != nil {
			return nil, err
		}
		steps++
		last = result
		logger.Debug("step", "session", c.SessionID(), "status", result.Status, "message", result.Message)

		if result.Status != search.StatusContinue.String() {
			break
		}
		if !opts.Quiet {
			printFrame(w, steps, result)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.Delay):
		}
	}

	printFrame(w, steps, last)

	path, err := c.Path(ctx)
	if err != nil {
		return nil, err
	}
	printSummary(w, path)
	return path, nil
}

// prepareSession creates or resumes the session and applies wall edits
func prepareSession(ctx context.Context, c *Client, opts driveOptions, logger *slog.Logger) error {
	if opts.Session != "" {
		c.UseSession(opts.Session)
		info, err := c.GetSession(ctx)
		if err != nil {
			return err
		}
		// Walls can only change on an idle grid, and a finished search has nothing left to step
		if info.Snapshot != nil && info.Snapshot.State != search.StateIdle.String() {
			if _, err := c.Reset(ctx); err != nil {
				return err
			}
		}
		logger.Info("resuming session", "session", info.ID, "config", info.ConfigName)
	} else {
		info, err := c.CreateSession(ctx, opts.Config)
		if err != nil {
			return err
		}
		logger.Info("created session", "session", info.ID, "config", info.ConfigName)
	}

	for _, wall := range opts.Walls {
		row, col, err := parseWall(wall)
		if err != nil {
			return err
		}
		if _, err := c.ToggleWall(ctx, row, col); err != nil {
			return err
		}
	}
	return nil
}

// parseWall reads a "row,col" pair
func parseWall(s string) (row, col int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid wall %q: expected row,col", s)
	}
	row, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid wall row %q: %w", parts[0], err)
	}
	col, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid wall col %q: %w", parts[1], err)
	}
	return row, col, nil
}

func printFrame(w io.Writer, step int, result *service.StepResult) {
	header := fmt.Sprintf("--- step %d: %s", step, result.Status)
	if result.Expanded != nil {
		header += fmt.Sprintf(" at %s", result.Expanded)
	}
	fmt.Fprintln(w, header+" ---")

	if result.Snapshot == nil {
		return
	}
	for _, line := range search.Render(result.Snapshot) {
		fmt.Fprintln(w, line)
	}
}

func printSummary(w io.Writer, path *service.PathResult) {
	if !path.Found {
		fmt.Fprintf(w, "No path: frontier exhausted after %d expansions\n", path.Expanded)
		return
	}
	fmt.Fprintf(w, "Path found: %d moves, %d expansions\n", path.Length, path.Expanded)
}
