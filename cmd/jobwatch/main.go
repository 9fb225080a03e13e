// Command jobwatch polls the background job queue of a library system once,
// compares the current metrics against thresholds and the previous run's
// alert snapshot, and delivers activate/recover messages to a chat webhook.
// A scheduler (cron, systemd timer) is expected to re-run it at the rate
// window interval.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/biblioops/jobwatch/internal/alerter"
	"github.com/biblioops/jobwatch/internal/config"
	"github.com/biblioops/jobwatch/internal/logger"
	"github.com/biblioops/jobwatch/internal/notifier"
	"github.com/biblioops/jobwatch/internal/queue"
	"github.com/biblioops/jobwatch/internal/report"
	"github.com/biblioops/jobwatch/internal/state"
)

type options struct {
	configFile       string
	oneshot          bool
	verbose          bool
	testNotification bool
}

func registerFlags(fs *flag.FlagSet, cfg *config.Config, opts *options) {
	fs.StringVar(&opts.configFile, "config", "", "path to an optional YAML config file")
	fs.StringVar(&cfg.WebhookURL, "webhook-url", cfg.WebhookURL, "chat webhook URL for alert delivery (empty: print to stdout)")
	fs.StringVar(&cfg.Queue, "queue", cfg.Queue, "job queue to monitor")
	fs.StringVar(&cfg.Instance, "instance", cfg.Instance, "instance label used in messages (default: hostname)")
	fs.StringVar(&cfg.StateFile, "state-file", cfg.StateFile, "path of the persisted alert snapshot")
	fs.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "database driver (mysql or sqlite3)")
	fs.StringVar(&cfg.DBDSN, "db-dsn", cfg.DBDSN, "DSN of the library system database")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	fs.IntVar(&cfg.MaxNewJobs, "max-new-jobs", cfg.MaxNewJobs, "alert when more jobs than this are waiting")
	fs.IntVar(&cfg.MaxRate, "max-rate", cfg.MaxRate, "alert when more jobs than this were enqueued within the rate window")
	fs.StringVar(&cfg.RateWindowStr, "rate-window", cfg.RateWindowStr, "creation-rate window (minutes; 900s/1h also accepted)")
	fs.StringVar(&cfg.MaxRunningAgeStr, "max-running-age", cfg.MaxRunningAgeStr, "age after which a running job counts as stuck (0 disables)")
	fs.BoolVar(&opts.oneshot, "oneshot", false, "print the queue report and exit without alerting")
	fs.BoolVar(&opts.verbose, "verbose", false, "also print the queue report during an alerting run")
	fs.BoolVar(&opts.testNotification, "test-notification", false, "send a test message to the configured channel and exit")
}

// configFlagValue pre-scans args for -config so the file can seed the flag
// defaults before the real parse.
func configFlagValue(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		for _, name := range []string{"-config", "--config"} {
			if a == name && i+1 < len(args) {
				return args[i+1]
			}
			if strings.HasPrefix(a, name+"=") {
				return strings.TrimPrefix(a, name+"=")
			}
		}
	}
	return ""
}

func run(args []string, stdout io.Writer) int {
	cfg := config.Default()
	if path := configFlagValue(args); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobwatch: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	fs := flag.NewFlagSet("jobwatch", flag.ContinueOnError)
	var opts options
	registerFlags(fs, cfg, &opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := cfg.Finalize(); err != nil {
		fmt.Fprintf(os.Stderr, "jobwatch: %v\n", err)
		return 1
	}

	logger.Init(cfg.LogLevel, opts.oneshot || opts.verbose)
	log := logger.WithComponent("main")

	var sink notifier.Notifier
	if cfg.WebhookURL != "" {
		wh, err := notifier.NewWebhookNotifier("webhook", cfg.WebhookURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobwatch: %v\n", err)
			return 1
		}
		sink = wh
	} else {
		sink = notifier.NewStdoutNotifier("stdout")
	}

	if opts.testNotification {
		msg := fmt.Sprintf("[%s] jobwatch test notification", cfg.Instance)
		if err := sink.Send(msg); err != nil {
			log.Error().Err(err).Str("channel", sink.Name()).Msg("test notification failed")
			return 1
		}
		log.Info().Str("channel", sink.Name()).Msg("test notification sent")
		return 0
	}

	if cfg.DBDSN == "" {
		fmt.Fprintln(os.Stderr, "jobwatch: -db-dsn is required")
		return 1
	}

	db, err := sql.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Error().Err(err).Msg("open database")
		return 1
	}
	defer db.Close()

	// No meaningful evaluation is possible without metrics: fatal.
	src := queue.NewDBSource(db)
	metrics, err := src.Collect(context.Background(), cfg.Queue, cfg.RateWindow, cfg.MaxRunningAge)
	if err != nil {
		log.Error().Err(err).Str("queue", cfg.Queue).Msg("collect queue metrics")
		return 1
	}

	if opts.oneshot || opts.verbose {
		printReport(stdout, cfg.Queue, metrics)
		if opts.oneshot {
			return 0
		}
	}

	prev, err := state.Load(cfg.StateFile)
	if err != nil {
		log.Warn().Err(err).Msg("state file unreadable, starting from an empty snapshot")
	}

	al := alerter.New(cfg.Instance, alerter.Thresholds{
		MaxNewJobs:    cfg.MaxNewJobs,
		MaxRate:       cfg.MaxRate,
		RateWindow:    cfg.RateWindow,
		MaxRunningAge: cfg.MaxRunningAge,
	}, sink, alerter.FireEveryRun, logger.WithComponent("alerter"))

	alerted, next := al.Evaluate(metrics, prev)

	// Losing the snapshot would replay or swallow future alerts: fatal.
	if err := state.Save(cfg.StateFile, next); err != nil {
		log.Error().Err(err).Str("path", cfg.StateFile).Msg("persist alert snapshot")
		return 1
	}

	log.Info().
		Bool("alerted", alerted).
		Int("new", metrics.NewCount).
		Int("rate", metrics.Rate).
		Int("stuck", metrics.StuckCount).
		Msg("run complete")
	return 0
}

func printReport(w io.Writer, queueName string, m *queue.Metrics) {
	fmt.Fprintf(w, "queue %s: %d new, %d enqueued in window, %d stuck\n\n",
		queueName, m.NewCount, m.Rate, m.StuckCount)
	fmt.Fprint(w, report.Table(m.Summary))
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}
