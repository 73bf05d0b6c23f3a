package layerdocx

import (
	"math"
	"time"
)

const (
	// HeaderSize is the encoded size of a layer header in bytes.
	HeaderSize = 72

	DefaultAlpha        = 0.0302011
	DefaultLayerCount   = 33
	DefaultBaseSize     = 1024
	DefaultProgIDPrefix = "LayerDocx.Object"
	DefaultClassID      = "{DEADC0DE-CAFE-BABE-0000-000000000033}"
	DefaultVersion      = "2026-33-0007"
)

// Signature is the 8-byte signature that opens every layer header.
var Signature = [8]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Identifier is the 16-byte class identifier following the signature.
var Identifier = [16]byte{
	0x33, 0x00, 0x00, 0x00, 0xDE, 0xAD, 0xC0, 0xDE,
	0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x00, 0x00, 0x00,
}

// DefaultPrimeSet returns the prime windows used when Config.PrimeSet is empty
// in DefaultConfig.
func DefaultPrimeSet() []int {
	return []int{10007, 10009, 10037, 10039, 10061, 10067, 10069, 10079}
}

// Config is the immutable parameter set of a run. It is passed by value to
// every component; nothing in the package keeps global mutable state.
type Config struct {
	Name         string
	Alpha        float64
	LayerCount   int
	BaseSize     int
	PrimeSet     []int
	ProgIDPrefix string
	ClassID      string
	Version      string
}

// DefaultConfig returns the standard 33-layer configuration.
func DefaultConfig() Config {
	return Config{
		Name:         "layers.docx",
		Alpha:        DefaultAlpha,
		LayerCount:   DefaultLayerCount,
		BaseSize:     DefaultBaseSize,
		PrimeSet:     DefaultPrimeSet(),
		ProgIDPrefix: DefaultProgIDPrefix,
		ClassID:      DefaultClassID,
		Version:      DefaultVersion,
	}
}

// CascadeFactor is the continuous approximation of the summed layer energy,
// (1 - exp(-alpha*L)) / alpha.
func (c Config) CascadeFactor() float64 {
	return (1 - math.Exp(-c.Alpha*float64(c.LayerCount))) / c.Alpha
}

// AlphaMicros is alpha scaled by 1e6 and truncated, clamped to the uint32
// range of the header field.
func (c Config) AlphaMicros() uint32 {
	return clampUint32(math.Floor(c.Alpha * 1e6))
}

// LayerParams are the scalars derived for a single layer index.
type LayerParams struct {
	Index          int
	Energy         float64
	Resonance      float64
	ByteCount      int
	Prime          int
	TemporalOffset float64
	DerivedAt      time.Time
}

// DigestAlgorithm selects the hash computed over layer payloads.
type DigestAlgorithm uint8

const (
	DigestSHA256 DigestAlgorithm = iota
	DigestBLAKE3
)

// Layer is one fully built layer object. It is immutable once returned by
// BuildLayer.
type Layer struct {
	Index           int
	ProgID          string
	Size            int
	Header          [HeaderSize]byte
	Payload         []byte
	Digest          [32]byte
	DigestAlgorithm DigestAlgorithm
	Energy          float64
	Resonance       float64
	Prime           int
	TemporalOffset  float64
	CreatedAt       time.Time
}

// LayerFailure records a layer that was skipped under FailSkip.
type LayerFailure struct {
	Index int
	Err   error
}

// RunMetadata aggregates a finished run. Layers are in index order.
type RunMetadata struct {
	RunID         string
	Config        Config
	StartedAt     time.Time
	CompletedAt   time.Time
	Layers        []*Layer
	Skipped       []LayerFailure
	TotalEnergy   float64
	CascadeFactor float64
	// Efficiency is TotalEnergy / CascadeFactor as a ratio.
	Efficiency float64
}

// TotalPayloadBytes sums the payload sizes of all built layers.
func (r *RunMetadata) TotalPayloadBytes() int {
	n := 0
	for _, l := range r.Layers {
		n += len(l.Payload)
	}
	return n
}
