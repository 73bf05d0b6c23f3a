package layerdocx

import (
	"fmt"
	"math"
	"time"
)

// DeriveParams computes the per-layer scalars for index i.
//
// Everything except TemporalOffset is a pure function of (i, cfg).
// TemporalOffset mixes in now, and is only ever used as descriptive metadata.
func DeriveParams(i int, cfg Config, now time.Time) (LayerParams, error) {
	if err := cfg.Validate(); err != nil {
		return LayerParams{}, err
	}
	if i < 0 || i >= cfg.LayerCount {
		return LayerParams{}, fmt.Errorf("%w: layer index %d outside [0, %d)", ErrConfiguration, i, cfg.LayerCount)
	}

	energy := layerEnergy(cfg.Alpha, i)
	var resonance float64
	if i > 0 {
		resonance = cfg.Alpha * math.Sin(2*math.Pi*float64(i)/float64(cfg.LayerCount))
	}
	prime := cfg.PrimeSet[i%len(cfg.PrimeSet)]

	return LayerParams{
		Index:          i,
		Energy:         energy,
		Resonance:      resonance,
		ByteCount:      int(math.Floor(float64(cfg.BaseSize) * energy)),
		Prime:          prime,
		TemporalOffset: temporalOffset(energy, resonance, prime, now),
		DerivedAt:      now,
	}, nil
}

func layerEnergy(alpha float64, i int) float64 {
	return math.Exp(-alpha * float64(i))
}

// temporalOffset scales the resonance-adjusted energy into a window of
// 1e7..1.05e7 ticks, phased by the current microsecond modulo prime.
func temporalOffset(energy, resonance float64, prime int, now time.Time) float64 {
	base := energy * (1 + resonance)
	us := now.UnixMicro()
	phase := float64(((us%int64(prime))+int64(prime))%int64(prime)) / float64(prime)
	return base * (1e7 + 5e5*phase)
}
