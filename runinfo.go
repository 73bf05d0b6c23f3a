package layerdocx

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// RunInfo is the machine-readable summary stored in the docProps/layers.cbor
// part. It carries every scalar of the run but no payload bytes.
type RunInfo struct {
	RunID              string         `cbor:"run_id"`
	Name               string         `cbor:"name"`
	Version            string         `cbor:"version"`
	Alpha              float64        `cbor:"alpha"`
	LayerCount         int            `cbor:"layer_count"`
	BaseSize           int            `cbor:"base_size"`
	PrimeSet           []int          `cbor:"prime_set"`
	StartedAt          time.Time      `cbor:"started_at"`
	CompletedAt        time.Time      `cbor:"completed_at"`
	TotalEnergy        float64        `cbor:"total_energy"`
	CascadeFactor      float64        `cbor:"cascade_factor"`
	Efficiency         float64        `cbor:"efficiency"`
	PayloadCompression string         `cbor:"payload_compression"`
	Layers             []RunInfoLayer `cbor:"layers"`
	Skipped            []RunInfoSkip  `cbor:"skipped,omitempty"`
}

type RunInfoLayer struct {
	Index           int     `cbor:"index"`
	ProgID          string  `cbor:"progid"`
	Size            int     `cbor:"size"`
	Energy          float64 `cbor:"energy"`
	Prime           int     `cbor:"prime"`
	TemporalOffset  float64 `cbor:"temporal_offset"`
	DigestAlgorithm string  `cbor:"digest_algorithm"`
	Digest          []byte  `cbor:"digest"`
}

type RunInfoSkip struct {
	Index int    `cbor:"index"`
	Error string `cbor:"error"`
}

// runInfoEncMode uses Core Deterministic Encoding with RFC 3339 timestamps, so
// the same run always encodes to the same bytes.
var runInfoEncMode = func() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic("layerdocx: CBOR encoder initialization failed: " + err.Error())
	}
	return em
}()

func newRunInfo(run *RunMetadata, comp Compression) RunInfo {
	cfg := run.Config
	info := RunInfo{
		RunID:              run.RunID,
		Name:               cfg.Name,
		Version:            cfg.Version,
		Alpha:              cfg.Alpha,
		LayerCount:         cfg.LayerCount,
		BaseSize:           cfg.BaseSize,
		PrimeSet:           cfg.PrimeSet,
		StartedAt:          run.StartedAt,
		CompletedAt:        run.CompletedAt,
		TotalEnergy:        run.TotalEnergy,
		CascadeFactor:      run.CascadeFactor,
		Efficiency:         run.Efficiency,
		PayloadCompression: comp.String(),
		Layers:             make([]RunInfoLayer, 0, len(run.Layers)),
	}
	for _, l := range run.Layers {
		info.Layers = append(info.Layers, RunInfoLayer{
			Index:           l.Index,
			ProgID:          l.ProgID,
			Size:            l.Size,
			Energy:          l.Energy,
			Prime:           l.Prime,
			TemporalOffset:  l.TemporalOffset,
			DigestAlgorithm: l.DigestAlgorithm.String(),
			Digest:          append([]byte(nil), l.Digest[:]...),
		})
	}
	for _, s := range run.Skipped {
		info.Skipped = append(info.Skipped, RunInfoSkip{Index: s.Index, Error: s.Err.Error()})
	}
	return info
}

func marshalRunInfo(info RunInfo) ([]byte, error) {
	return runInfoEncMode.Marshal(info)
}

func unmarshalRunInfo(b []byte) (RunInfo, error) {
	var info RunInfo
	if err := cbor.Unmarshal(b, &info); err != nil {
		return RunInfo{}, fmt.Errorf("%w: run info: %v", ErrInvalidPackage, err)
	}
	return info, nil
}
