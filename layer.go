package layerdocx

import (
	"fmt"
	"time"
)

// Function variables for testing injection.
var (
	encodeHeader      = EncodeHeader
	synthesizePayload = Synthesize
)

// ProgID returns the identifier of layer i, e.g. "LayerDocx.Object.Layer5.Alpha30201".
func ProgID(cfg Config, i int) string {
	prefix := cfg.ProgIDPrefix
	if prefix == "" {
		prefix = DefaultProgIDPrefix
	}
	return fmt.Sprintf("%s.Layer%d.Alpha%d", prefix, i, cfg.AlphaMicros())
}

// BuildLayer composes the header, payload and digest of one layer.
//
// The header and payload are kept as separate regions; the digest covers the
// payload only. Either a complete Layer is returned or a single error naming
// the layer and wrapping the failed step.
func BuildLayer(params LayerParams, cfg Config, alg DigestAlgorithm) (*Layer, error) {
	i := params.Index
	header, err := encodeHeader(i, cfg.Alpha)
	if err != nil {
		return nil, fmt.Errorf("layer %d: header: %w", i, err)
	}
	payload, err := synthesizePayload(i, params.ByteCount, cfg.Alpha)
	if err != nil {
		return nil, fmt.Errorf("layer %d: payload: %w", i, err)
	}
	sum, err := computeDigest(alg, payload)
	if err != nil {
		return nil, fmt.Errorf("layer %d: digest: %w", i, err)
	}
	created := params.DerivedAt
	if created.IsZero() {
		created = time.Now()
	}
	return &Layer{
		Index:           i,
		ProgID:          ProgID(cfg, i),
		Size:            params.ByteCount,
		Header:          header,
		Payload:         payload,
		Digest:          sum,
		DigestAlgorithm: alg,
		Energy:          params.Energy,
		Resonance:       params.Resonance,
		Prime:           params.Prime,
		TemporalOffset:  params.TemporalOffset,
		CreatedAt:       created,
	}, nil
}
