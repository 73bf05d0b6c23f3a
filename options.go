package layerdocx

import (
	"log/slog"
	"time"
)

// FailurePolicy decides what Generate does when a single layer fails.
type FailurePolicy uint8

const (
	// FailAbort stops the run at the first failed layer.
	FailAbort FailurePolicy = iota
	// FailSkip records the failure in RunMetadata.Skipped and keeps going.
	FailSkip
)

type generateConfig struct {
	clock    func() time.Time
	workers  int
	policy   FailurePolicy
	digest   DigestAlgorithm
	logger   *slog.Logger
	progress func(*Layer)
}

type GenerateOption func(*generateConfig)

// WithClock replaces time.Now for temporal offsets and run timestamps.
func WithClock(now func() time.Time) GenerateOption {
	return func(c *generateConfig) { c.clock = now }
}

// WithWorkers bounds the number of layers built concurrently. Values < 1 mean
// GOMAXPROCS.
func WithWorkers(n int) GenerateOption {
	return func(c *generateConfig) { c.workers = n }
}

func WithFailurePolicy(p FailurePolicy) GenerateOption {
	return func(c *generateConfig) { c.policy = p }
}

func WithDigest(a DigestAlgorithm) GenerateOption {
	return func(c *generateConfig) { c.digest = a }
}

func WithLogger(l *slog.Logger) GenerateOption {
	return func(c *generateConfig) { c.logger = l }
}

// WithProgress registers fn to be called once per built layer, in index
// order, after all layers have finished.
func WithProgress(fn func(*Layer)) GenerateOption {
	return func(c *generateConfig) { c.progress = fn }
}

type writeConfig struct {
	limits       Limits
	payloadComp  Compression
	runInfo      bool
	verifyDigest bool
}

type WriteOption func(*writeConfig)

func WithWriteLimits(l Limits) WriteOption {
	return func(c *writeConfig) { c.limits = l }
}

// WithPayloadCompression selects how layer payload entries are stored.
// Descriptor and manifest entries are always Deflate-compressed.
func WithPayloadCompression(comp Compression) WriteOption {
	return func(c *writeConfig) { c.payloadComp = comp }
}

// WithRunInfo controls whether the CBOR run-info part is written.
func WithRunInfo(v bool) WriteOption {
	return func(c *writeConfig) { c.runInfo = v }
}

// WithVerifyDigestsOnWrite re-hashes every payload before it is written.
func WithVerifyDigestsOnWrite(v bool) WriteOption {
	return func(c *writeConfig) { c.verifyDigest = v }
}

type readConfig struct {
	limits        Limits
	verifyDigests bool
}

type ReadOption func(*readConfig)

func WithReadLimits(l Limits) ReadOption {
	return func(c *readConfig) { c.limits = l }
}

func WithVerifyDigests(v bool) ReadOption {
	return func(c *readConfig) { c.verifyDigests = v }
}
