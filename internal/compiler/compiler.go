// Package compiler drives parsing and semantic analysis of script units.
package compiler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/internal/diag"
	"github.com/quill-lang/quill/internal/parser"
	"github.com/quill-lang/quill/internal/sema"
	"github.com/quill-lang/quill/internal/types"
)

// Unit is one script to compile.
type Unit struct {
	Name   string
	Source string
}

// Result is the outcome of compiling a unit. Store is nil when parsing or
// analysis failed.
type Result struct {
	Unit        Unit
	Script      *ast.Script
	Store       *sema.Store
	Diagnostics []diag.Diagnostic
}

// Failed reports whether any diagnostic is an error.
func (r *Result) Failed() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == diag.SeverityError {
			return true
		}
	}
	return false
}

type Compiler struct {
	log     zerolog.Logger
	lookup  *types.Lookup
	metrics *Metrics
	script  config.ScriptConfig
	workers int
}

type Option func(*Compiler)

// WithMetrics sets the collectors the compiler reports to.
func WithMetrics(m *Metrics) Option {
	return func(c *Compiler) {
		c.metrics = m
	}
}

// New builds a compiler for cfg. The script return type must name a known
// type.
func New(cfg *config.Config, log zerolog.Logger, opts ...Option) (*Compiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lookup, err := types.NewLookup(types.WithCoercionCacheSize(cfg.Analysis.CoercionCacheSize))
	if err != nil {
		return nil, errors.Wrap(err, "could not create type lookup")
	}
	if _, err := cfg.Script.Resolve(lookup); err != nil {
		return nil, err
	}

	c := &Compiler{
		log:     log.With().Str("component", "compiler").Logger(),
		lookup:  lookup,
		metrics: NoopMetrics(),
		script:  cfg.Script,
		workers: cfg.Analysis.Workers,
	}
	for _, apply := range opts {
		apply(c)
	}
	return c, nil
}

// Lookup returns the type lookup shared by every unit the compiler analyzes.
func (c *Compiler) Lookup() *types.Lookup {
	return c.lookup
}

// Compile parses and analyzes a single unit. Problems in the source are
// reported as diagnostics on the result; the error is reserved for failures
// of the compiler itself.
func (c *Compiler) Compile(unit Unit) (*Result, error) {
	start := time.Now()
	log := c.log.With().Str("unit", unit.Name).Logger()

	result, err := c.compile(unit)
	if err != nil {
		log.Error().Err(err).Msg("analysis aborted")
		return nil, fmt.Errorf("could not compile %s: %w", unit.Name, err)
	}

	took := time.Since(start)
	c.metrics.UnitAnalyzed(result, took)

	if result.Failed() {
		log.Info().
			Int("diagnostics", len(result.Diagnostics)).
			Str("code", string(result.Diagnostics[0].Code)).
			Dur("duration", took).
			Msg("unit rejected")
	} else {
		log.Debug().
			Int("warnings", len(result.Diagnostics)).
			Dur("duration", took).
			Msg("unit analyzed")
	}
	return result, nil
}

func (c *Compiler) compile(unit Unit) (*Result, error) {
	script, diags := parser.Parse(unit.Source,
		parser.WithFilename(unit.Name),
		parser.WithMainReturnType(c.script.ReturnType),
		parser.WithAutoReturn(c.script.AutoReturn),
		parser.WithTypeNames(c.lookup.IsTypeName),
	)
	result := &Result{Unit: unit, Script: script, Diagnostics: diags}
	if result.Failed() {
		return result, nil
	}

	store, err := sema.AnalyzeScript(script, c.lookup)
	if err != nil {
		var semaErr *sema.Error
		if !errors.As(err, &semaErr) {
			return nil, err
		}
		result.Diagnostics = append(result.Diagnostics, semaErr.ToDiagnostic())
		return result, nil
	}

	result.Store = store
	result.Diagnostics = append(result.Diagnostics, findUnreachable(script, store)...)
	return result, nil
}

// CompileAll compiles units concurrently, at most the configured number of
// workers at a time. Results keep the order of units; the entry of a unit
// that could not be compiled is nil and its error is part of the returned
// multierror.
func (c *Compiler) CompileAll(ctx context.Context, units []Unit) ([]*Result, error) {
	results := make([]*Result, len(units))

	var (
		mu   sync.Mutex
		errs *multierror.Error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = multierror.Append(errs, err)
	}

	g := new(errgroup.Group)
	g.SetLimit(c.workers)
	for i, unit := range units {
		i, unit := i, unit
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				fail(fmt.Errorf("%s: %w", unit.Name, err))
				return nil
			}
			result, err := c.Compile(unit)
			if err != nil {
				fail(err)
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	c.log.Debug().Int("units", len(units)).Int("workers", c.workers).Msg("batch compiled")
	return results, errs.ErrorOrNil()
}
