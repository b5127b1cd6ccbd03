// Command judgecore compiles a submission, runs it against a problem's test
// cases inside isolated sandboxes, grades it with a checker, and reports the
// resulting verdict.
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"judgecore/internal/config"
	"judgecore/internal/eventhub"
	"judgecore/internal/events"
	"judgecore/internal/judge"
	"judgecore/internal/logging"
)

var opts config.Opts

var rootCmd = &cobra.Command{
	Use:   "judgecore",
	Short: "A sandboxed competitive-programming judge",
	Long:  "judgecore compiles a submission, runs it against a problem's test cases inside isolated sandboxes, grades it with a checker, and reports the resulting verdict.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), opts)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&opts.Metadata, "metadata", "", "path to the problem metadata YAML file")
	flags.StringVar(&opts.Language, "language", "", "language code of the submission")
	flags.StringVar(&opts.Source, "source", "", "path to the submission source file")
	flags.StringVar(&opts.Checker, "checker", "", "path to the checker source file")
	flags.StringVar(&opts.CheckerLanguage, "checker-language", "cpp17", "language code to compile the checker with")
	flags.StringVar(&opts.Interactor, "interactor", "", "path to an interactor source file (reserved, not executed)")
	flags.StringVar(&opts.Testcases, "testcases", "", "root directory of test case input/output files")
	flags.StringVar(&opts.Testlib, "testlib", "", "path to testlib.h")
	flags.IntVar(&opts.Sandboxes, "sandboxes", 1, "number of sandboxes (parallel workers) to create")
	flags.StringVar(&opts.VerdictFormat, "verdict-format", "json", "verdict serialization format: json or yaml")
	flags.StringVar(&opts.Verdict, "verdict", "", "path to write the verdict to (default: stdout)")
	flags.CountVarP(&opts.Verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress all logging, overriding --verbose")
	flags.StringVar(&opts.Socket, "socket", "", "address to publish judging progress events on (optional)")
	flags.StringVar(&opts.LanguagesDefinition, "languages-definition", "", "path to the languages catalogue YAML file")
	flags.StringVar(&opts.MetricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (optional)")

	for _, name := range []string{"metadata", "language", "source", "checker", "testcases", "testlib", "languages-definition"} {
		_ = rootCmd.MarkFlagRequired(name)
	}
}

func run(ctx context.Context, opts config.Opts) error {
	// Missing .env is expected outside development; fall back silently to
	// whatever is already in the process environment.
	_ = godotenv.Load()

	level := logging.LevelForVerbosity(opts.Verbosity)
	logging.Init(level, opts.Quiet)
	defer logging.Sync()

	debugDump(opts)

	var sink events.Sink = events.NopSink{}
	if opts.Socket != "" {
		hub := eventhub.NewHub(opts.Socket)
		if err := hub.Start(); err != nil {
			return err
		}
		defer hub.Close()
		sink = hub
	}

	if opts.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: opts.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.S().Errorw("metrics server stopped", "err", err)
			}
		}()
		defer srv.Close()
	}

	return judge.Run(ctx, opts, sink)
}

func debugDump(opts config.Opts) {
	logging.S().Debugw("parsed options",
		"metadata", opts.Metadata,
		"language", opts.Language,
		"source", opts.Source,
		"checker", opts.Checker,
		"checker_language", opts.CheckerLanguage,
		"testcases", opts.Testcases,
		"sandboxes", opts.Sandboxes,
		"verdict_format", opts.VerdictFormat,
		"socket", opts.Socket,
	)
}

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if _, ok := err.(*judge.OptionError); ok {
			logging.S().Errorw("option error", "err", err)
		}
		os.Exit(1)
	}
}
