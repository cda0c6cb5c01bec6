// Command enroll submits one enrollment form from the command line: it
// validates the fields, records a form event and posts the lead to
// LEAD_INTAKE_URL.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/itayost/barber-shem-tov-sub000/internal/app/bootstrap"
	appconfig "github.com/itayost/barber-shem-tov-sub000/internal/config"
	"github.com/itayost/barber-shem-tov-sub000/internal/leads"
	"github.com/itayost/barber-shem-tov-sub000/internal/tracking"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

const (
	exitOK = iota
	exitInvalid
	exitSubmitFailed
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], appconfig.Load(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	form     leads.FormInput
	course   string
	source   string
	endpoint string
	asJSON   bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("enroll", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.form.Name, "name", "", "full name")
	fs.StringVar(&opts.form.City, "city", "", "city of residence")
	fs.StringVar(&opts.form.Age, "age", "", "age in years (16-100)")
	fs.StringVar(&opts.form.Phone, "phone", "", "phone number, hyphens and spaces allowed")
	fs.StringVar(&opts.course, "course", "", "course of interest")
	fs.StringVar(&opts.source, "source", string(tracking.SourceCoursePage), "UI surface that produced the lead")
	fs.StringVar(&opts.endpoint, "endpoint", "", "intake URL (defaults to LEAD_INTAKE_URL)")
	fs.BoolVar(&opts.asJSON, "json", false, "print the outcome as JSON")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if !tracking.Source(opts.source).Valid() {
		return options{}, fmt.Errorf("unknown -source %q", opts.source)
	}
	return opts, nil
}

func run(ctx context.Context, args []string, cfg *appconfig.Config, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitInvalid
	}
	if opts.endpoint != "" {
		cfg.LeadIntakeURL = opts.endpoint
	}

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: "text", Output: stderr})

	// Field errors are reported even when no intake endpoint is configured.
	if v := leads.Validate(opts.form); !v.Valid {
		printOutcome(stdout, leads.Outcome{FieldErrors: v.Errors}, opts.asJSON)
		return exitInvalid
	}

	client, err := bootstrap.BuildSubmitClient(cfg, nil, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitSubmitFailed
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	deps := bootstrap.EventStorageDeps{}
	if redisClient != nil {
		defer redisClient.Close()
		deps.Redis = redisClient
	}
	storage, err := bootstrap.BuildEventStorage(ctx, cfg, deps, logger)
	if err != nil {
		logger.Warn("enrollment log unavailable; using memory", "error", err)
		storage = tracking.NewMemoryStorage()
	}
	tracker := bootstrap.BuildTracker(cfg, storage, bootstrap.BuildSinks(cfg, logger), nil, logger)

	out := leads.NewController(tracker, client, logger).Submit(ctx, opts.form, opts.course, tracking.Source(opts.source))

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracker.Flush(flushCtx); err != nil {
		logger.Warn("analytics sinks did not drain", "error", err)
	}

	printOutcome(stdout, out, opts.asJSON)
	switch {
	case out.Submitted:
		return exitOK
	case len(out.FieldErrors) > 0:
		return exitInvalid
	default:
		return exitSubmitFailed
	}
}

func printOutcome(w io.Writer, out leads.Outcome, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(struct {
			leads.Outcome
			Kind string `json:"kind,omitempty"`
		}{Outcome: out, Kind: kindLabel(out)})
		return
	}
	switch {
	case out.Submitted:
		fmt.Fprintln(w, "Thanks! Your details were sent. We will be in touch soon.")
	case len(out.FieldErrors) > 0:
		fields := make([]string, 0, len(out.FieldErrors))
		for field := range out.FieldErrors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(w, "%s: %s\n", field, out.FieldErrors[field])
		}
	default:
		fmt.Fprintln(w, out.UserMessage)
	}
}

func kindLabel(out leads.Outcome) string {
	if out.Submitted || len(out.FieldErrors) > 0 {
		return ""
	}
	return out.Result.Kind.String()
}
