package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/quill-lang/quill/internal/compiler"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/diag"
)

// errUnitsRejected is returned once every diagnostic has been printed.
var errUnitsRejected = errors.New("one or more units were rejected")

type rootFlags struct {
	configPath string
	logLevel   string
	metricsOut string
}

func (f *rootFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "path to a quill.yaml config file")
	fs.StringVar(&f.logLevel, "log-level", "", "log level, overrides log.level of the config")
	fs.StringVar(&f.metricsOut, "metrics-out", "", "write analysis metrics to this textfile")
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "quill",
		Short:         "check and inspect quill scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.bind(cmd.PersistentFlags())

	cmd.AddCommand(newCheckCmd(flags), newDumpCmd(flags), newLSPCmd(flags))
	return cmd
}

// session is the state shared by the subcommands of one invocation.
type session struct {
	log      zerolog.Logger
	compiler *compiler.Compiler
	registry *prometheus.Registry
	flags    *rootFlags
}

func newSession(cmd *cobra.Command, flags *rootFlags) (*session, error) {
	cfg := config.DefaultConfig()
	if flags.configPath != "" {
		var err error
		if cfg, err = config.Load(flags.configPath); err != nil {
			return nil, err
		}
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	log, err := cfg.Log.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	c, err := compiler.New(cfg, log, compiler.WithMetrics(compiler.NewMetrics(registry)))
	if err != nil {
		return nil, err
	}
	return &session{log: log, compiler: c, registry: registry, flags: flags}, nil
}

func (s *session) readUnits(paths []string) ([]compiler.Unit, error) {
	units := make([]compiler.Unit, 0, len(paths))
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read %s", path)
		}
		units = append(units, compiler.Unit{Name: path, Source: string(src)})
	}
	return units, nil
}

// report prints the diagnostics of results and tells whether any unit failed.
func (s *session) report(cmd *cobra.Command, results []*compiler.Result) bool {
	formatter := diag.NewFormatter(cmd.ErrOrStderr())
	failed := false
	for _, result := range results {
		if result == nil {
			failed = true
			continue
		}
		formatter.AddSource(result.Unit.Name, result.Unit.Source)
		for _, d := range result.Diagnostics {
			formatter.Format(d)
		}
		failed = failed || result.Failed()
	}
	return failed
}

func (s *session) writeMetrics() {
	if s.flags.metricsOut == "" {
		return
	}
	if err := prometheus.WriteToTextfile(s.flags.metricsOut, s.registry); err != nil {
		s.log.Warn().Err(err).Str("path", s.flags.metricsOut).Msg("could not write metrics")
	}
}
