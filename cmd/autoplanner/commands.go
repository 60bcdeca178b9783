package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"google.golang.org/api/calendar/v3"

	"github.com/example/autoplanner/internal/application"
	"github.com/example/autoplanner/internal/export"
	httptransport "github.com/example/autoplanner/internal/http"
	"github.com/example/autoplanner/internal/normalize"
	"github.com/example/autoplanner/internal/persistence/sqlite"
	"github.com/example/autoplanner/internal/persistence/sqlite/migration"
)

func ownerFlag() cli.Flag {
	return &cli.StringFlag{Name: "owner", Usage: "user id owning the events", Required: true}
}

func normalizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "normalize",
		Usage:     "Normalize candidate events from a YAML or JSON file and print the result.",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			rt, err := loadRuntime(c)
			if err != nil {
				return err
			}
			candidates, err := readCandidates(c)
			if err != nil {
				return err
			}

			service, err := rt.eventService(nil)
			if err != nil {
				return err
			}
			result, err := service.NormalizeBatch(c.Context, candidates)
			if err != nil {
				return err
			}

			normalized := make([]normalize.Fields, len(result.Normalized))
			for i, item := range result.Normalized {
				normalized[i] = item.Fields
			}
			return writeJSON(c.App.Writer, map[string]any{
				"normalized_events": normalized,
				"errors":            batchErrors(result.Errors),
			})
		},
	}
}

func scheduleCommand() *cli.Command {
	return &cli.Command{
		Name:      "schedule",
		Usage:     "Normalize candidate events from a file and store them for an owner.",
		ArgsUsage: "FILE",
		Flags:     []cli.Flag{ownerFlag()},
		Action: func(c *cli.Context) error {
			rt, err := loadRuntime(c)
			if err != nil {
				return err
			}
			candidates, err := readCandidates(c)
			if err != nil {
				return err
			}

			pool, err := rt.openStore(c.Context)
			if err != nil {
				return err
			}
			defer closeStore(pool, rt.logger)

			service, err := rt.eventService(pool)
			if err != nil {
				return err
			}
			result, err := service.ProcessBatch(c.Context, application.Principal{UserID: c.String("owner")}, candidates)
			if err != nil {
				return err
			}

			created := make([]eventSummary, len(result.Created))
			for i, event := range result.Created {
				created[i] = summarize(event)
			}
			if err := writeJSON(c.App.Writer, map[string]any{
				"created_events": created,
				"errors":         batchErrors(result.Errors),
			}); err != nil {
				return err
			}
			if len(result.Created) == 0 {
				return errors.New("no events were scheduled")
			}
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print an owner's events ordered by date and start time.",
		Flags: []cli.Flag{ownerFlag()},
		Action: func(c *cli.Context) error {
			rt, events, err := loadOwnerEvents(c)
			if err != nil {
				return err
			}

			out := make([]eventSummary, len(events))
			for i, event := range events {
				out[i] = summarize(event)
			}
			rt.logger.DebugContext(c.Context, "events listed", "owner", c.String("owner"), "count", len(events))
			return writeJSON(c.App.Writer, out)
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export an owner's events as iCalendar or Google Calendar event bodies.",
		Flags: []cli.Flag{
			ownerFlag(),
			&cli.StringFlag{Name: "format", Value: "ics", Usage: "ics or google"},
			&cli.StringFlag{Name: "out", Usage: "write to this file instead of stdout"},
		},
		Action: func(c *cli.Context) error {
			rt, events, err := loadOwnerEvents(c)
			if err != nil {
				return err
			}

			var render func(io.Writer) error
			switch strings.ToLower(c.String("format")) {
			case "ics":
				render = func(w io.Writer) error {
					_, err := io.WriteString(w, export.ICS(events, rt.cfg.Location))
					return err
				}
			case "google":
				bodies := make([]*calendar.Event, len(events))
				for i, event := range events {
					bodies[i] = export.GoogleEvent(event, rt.cfg.Location)
				}
				render = func(w io.Writer) error { return writeJSON(w, bodies) }
			default:
				return fmt.Errorf("unknown export format %q", c.String("format"))
			}

			path := strings.TrimSpace(c.String("out"))
			if path == "" {
				return render(c.App.Writer)
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := render(f); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Action: func(c *cli.Context) error {
			rt, err := loadRuntime(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			pool, err := rt.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(pool, rt.logger)

			service, err := rt.eventService(pool)
			if err != nil {
				return err
			}

			router := httptransport.NewRouter(httptransport.RouterConfig{
				Events: httptransport.NewEventHandler(service, rt.cfg.Location, rt.logger),
				Middleware: []func(http.Handler) http.Handler{
					httptransport.RequestLogger(rt.logger),
					httptransport.RequirePrincipal(rt.logger),
				},
			})

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", rt.cfg.HTTPPort),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					rt.logger.Error("failed to shutdown server", "error", err)
				}
			}()

			rt.logger.Info("autoplanner API listening", "addr", server.Addr, "timezone", rt.cfg.Location.String())
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations, or report them with --status.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "status", Usage: "only report applied and pending migrations"},
		},
		Action: func(c *cli.Context) error {
			rt, err := loadRuntime(c)
			if err != nil {
				return err
			}
			pool, err := sqlite.NewConnectionPool(migration.DefaultSQLiteConfig(rt.cfg.SQLiteDSN))
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer closeStore(pool, rt.logger)

			if !c.Bool("status") {
				applied, err := sqlite.Migrate(c.Context, pool, rt.logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "applied %d migration(s)\n", applied)
			}

			status, err := sqlite.MigrationStatus(c.Context, pool, rt.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "current version: %s\n", displayVersion(status.CurrentVersion))
			for _, m := range status.Pending {
				fmt.Fprintf(c.App.Writer, "pending: %s %s\n", m.Version, m.Description)
			}
			return nil
		},
	}
}

func loadOwnerEvents(c *cli.Context) (*runtime, []application.Event, error) {
	rt, err := loadRuntime(c)
	if err != nil {
		return nil, nil, err
	}
	pool, err := rt.openStore(c.Context)
	if err != nil {
		return nil, nil, err
	}
	defer closeStore(pool, rt.logger)

	service, err := rt.eventService(pool)
	if err != nil {
		return nil, nil, err
	}
	events, err := service.ListEvents(c.Context, application.Principal{UserID: c.String("owner")})
	if err != nil {
		return nil, nil, err
	}
	return rt, events, nil
}

// readCandidates reads the file named by the first argument, or stdin when
// the argument is absent or "-".
func readCandidates(c *cli.Context) ([]normalize.Candidate, error) {
	var (
		data []byte
		err  error
	)
	switch path := c.Args().First(); path {
	case "", "-":
		data, err = io.ReadAll(os.Stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}

	candidates, err := normalize.DecodeCandidates(data)
	if err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, errors.New("no candidate events in input")
	}
	return candidates, nil
}

type eventSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"start_time,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	AllDay    bool   `json:"all_day"`
	Category  string `json:"category"`
	Reminder  int    `json:"reminder"`
}

func summarize(event application.Event) eventSummary {
	summary := eventSummary{
		ID:       event.ID,
		Title:    event.Title,
		Date:     event.Date.String(),
		AllDay:   event.AllDay(),
		Category: string(event.Category),
		Reminder: event.Reminder,
	}
	if !summary.AllDay {
		summary.StartTime = event.StartTime.String()
		summary.Duration = event.Duration
	}
	return summary
}

type batchError struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Error string `json:"error"`
}

func batchErrors(errs []application.BatchError) []batchError {
	out := make([]batchError, len(errs))
	for i, e := range errs {
		out[i] = batchError{Index: e.Index, Title: e.Title, Error: e.Reason}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func displayVersion(version string) string {
	if version == "" {
		return "none"
	}
	return version
}
