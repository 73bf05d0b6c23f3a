package layerdocx

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
)

// Encode writes run to w as a layered zip package.
//
// Entries are written in a fixed order: content types, relationships, the
// document body, then the descriptor and payload of every layer in index
// order, the CBOR run info and finally the manifest.
//
// By default, Encode will:
//   - Deflate-compress payload entries (CompDeflate)
//   - Write the docProps/layers.cbor run info part
//   - Re-hash every payload and reject a digest mismatch
//
// Errors returned by w are passed through unchanged.
func Encode(w io.Writer, run *RunMetadata, opts ...WriteOption) error {
	cfg := writeConfig{
		limits:       defaultLimits(),
		payloadComp:  CompDeflate,
		runInfo:      true,
		verifyDigest: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()
	if run == nil {
		return fmt.Errorf("%w: run is nil", ErrValidation)
	}
	if err := validateRun(run, cfg.limits, cfg.verifyDigest); err != nil {
		return err
	}
	if cfg.payloadComp.String() == "unknown" {
		return fmt.Errorf("%w: unknown compression %d", ErrValidation, cfg.payloadComp)
	}

	zw := newPackageWriter(w)
	static := []struct {
		name string
		data []byte
	}{
		{PartContentTypes, contentTypesXML(run, cfg.runInfo)},
		{PartRootRels, rootRelsXML(cfg.runInfo)},
		{PartDocumentRels, documentRelsXML(run, cfg.payloadComp)},
		{PartDocument, documentXML(run)},
	}
	for _, p := range static {
		if err := writeEntry(zw, p.name, zip.Deflate, p.data); err != nil {
			return err
		}
	}

	for _, l := range run.Layers {
		desc, err := RenderDescriptor(l, run.Config)
		if err != nil {
			return fmt.Errorf("layer %d: descriptor: %w", l.Index, err)
		}
		if err := writeEntry(zw, DescriptorName(l.Index), zip.Deflate, desc); err != nil {
			return err
		}
		_, method, data, err := payloadEntry(cfg.payloadComp, l.Payload)
		if err != nil {
			return fmt.Errorf("layer %d: compress: %w", l.Index, err)
		}
		if err := writeEntry(zw, PayloadName(l.Index, cfg.payloadComp), method, data); err != nil {
			return err
		}
	}

	if cfg.runInfo {
		b, err := marshalRunInfo(newRunInfo(run, cfg.payloadComp))
		if err != nil {
			return err
		}
		if err := writeEntry(zw, PartRunInfo, zip.Deflate, b); err != nil {
			return err
		}
	}

	manifest, err := RenderManifest(run)
	if err != nil {
		return err
	}
	if err := writeEntry(zw, PartManifest, zip.Deflate, manifest); err != nil {
		return err
	}
	return zipClose(zw)
}

func validateRun(run *RunMetadata, limits Limits, verifyDigests bool) error {
	if len(run.Layers) > limits.MaxLayers {
		return fmt.Errorf("%w: %d layers", ErrLimitExceeded, len(run.Layers))
	}
	prev := -1
	var total uint64
	for _, l := range run.Layers {
		if l == nil {
			return fmt.Errorf("%w: nil layer after index %d", ErrValidation, prev)
		}
		if l.Index <= prev {
			return fmt.Errorf("%w: layer %d out of order", ErrValidation, l.Index)
		}
		prev = l.Index
		if len(l.Payload) != l.Size {
			return fmt.Errorf("%w: layer %d payload is %d bytes, size says %d", ErrValidation, l.Index, len(l.Payload), l.Size)
		}
		if uint64(l.Size) > limits.MaxPayloadSize {
			return fmt.Errorf("%w: layer %d payload too large", ErrLimitExceeded, l.Index)
		}
		total += uint64(l.Size)
		if verifyDigests {
			sum, err := computeDigest(l.DigestAlgorithm, l.Payload)
			if err != nil {
				return err
			}
			if !digestEqual(sum, l.Digest) {
				return fmt.Errorf("%w: layer %d", ErrDigestMismatch, l.Index)
			}
		}
	}
	if total > limits.MaxTotalPayload {
		return fmt.Errorf("%w: total payload %d bytes", ErrLimitExceeded, total)
	}
	for _, s := range run.Skipped {
		if s.Err == nil {
			return fmt.Errorf("%w: skipped layer %d has no error", ErrValidation, s.Index)
		}
	}
	return nil
}
