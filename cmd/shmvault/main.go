// Command shmvault backs up and restores System V shared-memory
// namespaces to and from flat files, per the grammar in usage.go.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/shmvault/shmvault/internal/driver"
	shmerrors "github.com/shmvault/shmvault/pkg/errors"
	"github.com/shmvault/shmvault/pkg/logger"
	"github.com/shmvault/shmvault/pkg/options"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("shmvault", pflag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	analyze := flags.BoolP("analyze", "a", false, "")
	backup := flags.BoolP("backup", "b", false, "")
	compare := flags.BoolP("compare", "c", false, "")
	help := flags.BoolP("help", "h", false, "")
	instance := flags.Uint8P("instance", "i", 0, "")
	names := flags.StringP("names", "n", "", "")
	dir := flags.StringP("directory", "p", "", "")
	restore := flags.BoolP("restore", "r", false, "")
	threads := flags.IntP("threads", "t", options.DefaultThreadCount(), "")
	verbose := flags.BoolP("verbose", "v", false, "")
	gzip := flags.BoolP("gzip", "z", false, "")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		printUsage(os.Stderr)
		return 1
	}
	if *help {
		printUsage(os.Stdout)
		return 0
	}

	optFuncs := []options.OptionFunc{
		options.WithAnalyze(*analyze),
		options.WithCompare(*compare),
		options.WithGzip(*gzip),
		options.WithVerbose(*verbose),
		options.WithInstance(*instance),
		options.WithNames(splitNames(*names)),
		options.WithDirectory(*dir),
		options.WithThreads(*threads),
	}
	// WithBackup/WithRestore each clear the other, so Validate cannot see
	// both set; -b together with -r is rejected here instead.
	if *backup && *restore {
		fmt.Fprintln(os.Stderr, shmerrors.NewConflictingFlagsError("-b", "-r"))
		printUsage(os.Stderr)
		return 1
	}
	if *backup {
		optFuncs = append(optFuncs, options.WithBackup())
	}
	if *restore {
		optFuncs = append(optFuncs, options.WithRestore())
	}
	opts := options.New(optFuncs...)

	if err := opts.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		printUsage(os.Stderr)
		return 1
	}

	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	log := logger.NewAt(level, "shmvault")
	defer log.Sync()

	cfg := driver.Config{Options: opts, Log: log, Out: os.Stdout}
	if err := driver.Run(context.Background(), cfg); err != nil {
		log.Errorw("run failed", "code", shmerrors.GetErrorCode(err), "error", err)
		return 1
	}
	return 0
}

func splitNames(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
