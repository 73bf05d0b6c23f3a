package layerdocx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Function variables for testing injection.
var newRunID = uuid.NewString

// Generate builds every layer of cfg and folds them into a RunMetadata.
//
// The configuration is validated before any layer work starts. Layers are
// independent, so they are built concurrently; each worker owns exactly one
// index slot and the results are merged in index order.
//
// By default, Generate will:
//   - Use GOMAXPROCS workers
//   - Abort on the first failed layer (FailAbort)
//   - Digest payloads with SHA-256
//   - Read the wall clock for temporal offsets and timestamps
//
// If ctx is cancelled mid-run, the layers finished so far are returned in the
// RunMetadata together with an error wrapping ctx.Err().
func Generate(ctx context.Context, cfg Config, opts ...GenerateOption) (*RunMetadata, error) {
	gc := generateConfig{
		clock:   time.Now,
		workers: runtime.GOMAXPROCS(0),
		policy:  FailAbort,
		digest:  DigestSHA256,
	}
	for _, opt := range opts {
		opt(&gc)
	}
	if gc.clock == nil {
		gc.clock = time.Now
	}
	if gc.workers < 1 {
		gc.workers = runtime.GOMAXPROCS(0)
	}
	if gc.logger == nil {
		gc.logger = slog.New(slog.DiscardHandler)
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := computeDigest(gc.digest, nil); err != nil {
		return nil, err
	}

	run := &RunMetadata{
		RunID:         newRunID(),
		Config:        cfg,
		StartedAt:     gc.clock(),
		CascadeFactor: cfg.CascadeFactor(),
	}
	gc.logger.Debug("run started",
		"run_id", run.RunID,
		"layers", cfg.LayerCount,
		"alpha", cfg.Alpha,
		"workers", gc.workers,
	)

	slots := make([]*Layer, cfg.LayerCount)
	failures := make([]error, cfg.LayerCount)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(gc.workers)
	for i := 0; i < cfg.LayerCount; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			l, err := buildIndex(i, cfg, gc)
			if err != nil {
				failures[i] = err
				if gc.policy == FailAbort {
					return err
				}
				return nil
			}
			slots[i] = l
			return nil
		})
	}
	waitErr := g.Wait()

	if waitErr != nil && gc.policy == FailAbort {
		if errs := collectFailures(failures); len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
	}

	finalize(run, slots, failures, gc)
	if err := ctx.Err(); err != nil && len(run.Layers)+len(run.Skipped) < cfg.LayerCount {
		gc.logger.Warn("run interrupted", "built", len(run.Layers), "layers", cfg.LayerCount)
		return run, fmt.Errorf("layerdocx: run interrupted after %d of %d layers: %w", len(run.Layers), cfg.LayerCount, err)
	}
	gc.logger.Debug("run finished",
		"run_id", run.RunID,
		"built", len(run.Layers),
		"skipped", len(run.Skipped),
		"efficiency", run.Efficiency,
	)
	return run, nil
}

func buildIndex(i int, cfg Config, gc generateConfig) (*Layer, error) {
	params, err := DeriveParams(i, cfg, gc.clock())
	if err != nil {
		return nil, fmt.Errorf("layer %d: params: %w", i, err)
	}
	return BuildLayer(params, cfg, gc.digest)
}

func finalize(run *RunMetadata, slots []*Layer, failures []error, gc generateConfig) {
	for i, l := range slots {
		if l != nil {
			run.Layers = append(run.Layers, l)
			run.TotalEnergy += l.Energy
			if gc.progress != nil {
				gc.progress(l)
			}
			continue
		}
		if failures[i] != nil {
			run.Skipped = append(run.Skipped, LayerFailure{Index: i, Err: failures[i]})
			gc.logger.Warn("layer skipped", "layer", i, "err", failures[i])
		}
	}
	if run.CascadeFactor != 0 {
		run.Efficiency = run.TotalEnergy / run.CascadeFactor
	}
	run.CompletedAt = gc.clock()
}

func collectFailures(failures []error) []error {
	var out []error
	for _, err := range failures {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
