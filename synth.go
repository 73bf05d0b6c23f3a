package layerdocx

import (
	"fmt"
	"math"
)

const (
	maskEven byte = 0xAA
	maskOdd  byte = 0x55
)

// Synthesize produces the payload of a layer.
//
// For every position p the decay exp(-alpha*(layerIndex + p/100)) is scaled
// to a byte, folded with the previous output byte, and masked with 0xAA or
// 0x55 depending on the parity of layerIndex+p. The recurrence is strictly
// sequential; the result is a pure function of the three arguments.
func Synthesize(layerIndex, byteCount int, alpha float64) ([]byte, error) {
	if byteCount < 0 {
		return nil, fmt.Errorf("%w: negative byte count %d", ErrSynthesis, byteCount)
	}
	out := make([]byte, byteCount)
	var prev byte
	for p := 0; p < byteCount; p++ {
		decay := math.Exp(-alpha * (float64(layerIndex) + float64(p)/100))
		if math.IsNaN(decay) || math.IsInf(decay, 0) {
			return nil, fmt.Errorf("%w: non-finite decay at position %d", ErrSynthesis, p)
		}
		scaled := math.Floor(255 * decay)
		if scaled < 0 || scaled > math.MaxInt64 {
			return nil, fmt.Errorf("%w: decay out of range at position %d", ErrSynthesis, p)
		}
		raw := byte(int64(scaled) & 0xFF)
		if p > 0 {
			raw ^= prev
		}
		mask := maskOdd
		if (layerIndex+p)%2 == 0 {
			mask = maskEven
		}
		prev = raw ^ mask
		out[p] = prev
	}
	return out, nil
}
