package layerdocx

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// DecodedLayer is one layer read back from a package.
type DecodedLayer struct {
	Index       int
	EntryName   string
	Compression Compression
	Descriptor  Descriptor
	Payload     []byte
}

// Package is the decoded content of a layered package.
type Package struct {
	Entries  []string
	Layers   []DecodedLayer
	Manifest string
	// RunInfo is nil when the package has no docProps/layers.cbor part.
	RunInfo *RunInfo
}

// Decode reads a layered package from r.
//
// The decoding process:
//  1. Opens the zip directory and enforces the entry limit
//  2. Pairs every layer descriptor with its payload entry
//  3. Decompresses payloads (Deflate, Zstandard, LZ4 or Brotli)
//  4. Checks payload sizes and digests against the descriptors
//  5. Reads the manifest and the optional CBOR run info
//
// Decode returns ErrInvalidPackage for structural problems, ErrLimitExceeded
// when a limit is hit and ErrDigestMismatch when a payload does not match its
// descriptor.
func Decode(r io.ReaderAt, size int64, opts ...ReadOption) (*Package, error) {
	cfg := readConfig{limits: defaultLimits(), verifyDigests: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()

	zr, err := newPackageReader(r, size)
	if err != nil {
		return nil, err
	}
	if len(zr.File) > cfg.limits.MaxEntries {
		return nil, fmt.Errorf("%w: %d entries", ErrLimitExceeded, len(zr.File))
	}

	pkg := &Package{}
	descriptors := map[int]*zip.File{}
	payloads := map[int]*zip.File{}
	var manifest, runInfo *zip.File
	for _, zf := range zr.File {
		pkg.Entries = append(pkg.Entries, zf.Name)
		switch zf.Name {
		case PartManifest:
			manifest = zf
			continue
		case PartRunInfo:
			runInfo = zf
			continue
		}
		idx, isPayload, ok := parseEmbeddingName(zf.Name)
		if !ok {
			continue
		}
		target := descriptors
		if isPayload {
			target = payloads
		}
		if _, dup := target[idx]; dup {
			return nil, fmt.Errorf("%w: duplicate entry for layer %d", ErrInvalidPackage, idx)
		}
		target[idx] = zf
	}
	if manifest == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidPackage, PartManifest)
	}
	if len(descriptors) > cfg.limits.MaxLayers {
		return nil, fmt.Errorf("%w: %d layers", ErrLimitExceeded, len(descriptors))
	}

	indices := make([]int, 0, len(descriptors))
	for idx := range descriptors {
		if _, ok := payloads[idx]; !ok {
			return nil, fmt.Errorf("%w: layer %d has no payload", ErrInvalidPackage, idx)
		}
		indices = append(indices, idx)
	}
	for idx := range payloads {
		if _, ok := descriptors[idx]; !ok {
			return nil, fmt.Errorf("%w: layer %d has no descriptor", ErrInvalidPackage, idx)
		}
	}
	sort.Ints(indices)

	var total uint64
	for _, idx := range indices {
		dl, err := decodeLayer(idx, descriptors[idx], payloads[idx], cfg)
		if err != nil {
			return nil, err
		}
		total += uint64(len(dl.Payload))
		if total > cfg.limits.MaxTotalPayload {
			return nil, fmt.Errorf("%w: total payload exceeds %d bytes", ErrLimitExceeded, cfg.limits.MaxTotalPayload)
		}
		pkg.Layers = append(pkg.Layers, dl)
	}

	mb, err := readEntry(manifest, cfg.limits.MaxManifestSize)
	if err != nil {
		return nil, err
	}
	pkg.Manifest = string(mb)

	if runInfo != nil {
		b, err := readEntry(runInfo, cfg.limits.MaxRunInfoSize)
		if err != nil {
			return nil, err
		}
		info, err := unmarshalRunInfo(b)
		if err != nil {
			return nil, err
		}
		pkg.RunInfo = &info
	}
	return pkg, nil
}

func decodeLayer(idx int, descFile, payloadFile *zip.File, cfg readConfig) (DecodedLayer, error) {
	db, err := readEntry(descFile, cfg.limits.MaxDescriptorSize)
	if err != nil {
		return DecodedLayer{}, err
	}
	desc, err := ParseDescriptor(db)
	if err != nil {
		return DecodedLayer{}, err
	}
	if desc.Layer != idx {
		return DecodedLayer{}, fmt.Errorf("%w: %s describes layer %d", ErrInvalidPackage, descFile.Name, desc.Layer)
	}

	comp, err := payloadCompression(payloadFile)
	if err != nil {
		return DecodedLayer{}, err
	}
	raw, err := readEntry(payloadFile, cfg.limits.MaxPayloadSize)
	if err != nil {
		return DecodedLayer{}, err
	}
	payload := raw
	switch comp {
	case CompLZ4:
		payload, err = lz4Decompress(raw, cfg.limits.MaxPayloadSize)
	case CompBR:
		payload, err = brotliDecompress(raw, cfg.limits.MaxPayloadSize)
	}
	if err != nil {
		return DecodedLayer{}, fmt.Errorf("%w: layer %d: %v", ErrInvalidPackage, idx, err)
	}
	if len(payload) != desc.Size {
		return DecodedLayer{}, fmt.Errorf("%w: layer %d payload is %d bytes, descriptor says %d", ErrInvalidPackage, idx, len(payload), desc.Size)
	}

	if cfg.verifyDigests {
		alg, want, err := desc.Digest()
		if err != nil {
			return DecodedLayer{}, err
		}
		got, err := computeDigest(alg, payload)
		if err != nil {
			return DecodedLayer{}, err
		}
		if !digestEqual(got, want) {
			return DecodedLayer{}, fmt.Errorf("%w: layer %d", ErrDigestMismatch, idx)
		}
	}

	return DecodedLayer{
		Index:       idx,
		EntryName:   payloadFile.Name,
		Compression: comp,
		Descriptor:  desc,
		Payload:     payload,
	}, nil
}

// parseEmbeddingName recognizes word/embeddings/oleObject<i>.xml and
// word/embeddings/oleObject<i>.bin[.lz4|.br].
func parseEmbeddingName(name string) (idx int, isPayload bool, ok bool) {
	rest, found := strings.CutPrefix(name, embeddingsDir+"oleObject")
	if !found {
		return 0, false, false
	}
	stem, ext, found := strings.Cut(rest, ".")
	if !found {
		return 0, false, false
	}
	n, err := strconv.Atoi(stem)
	if err != nil || n < 0 || strconv.Itoa(n) != stem {
		return 0, false, false
	}
	switch ext {
	case "xml":
		return n, false, true
	case "bin", "bin" + suffixLZ4, "bin" + suffixBR:
		return n, true, true
	}
	return 0, false, false
}

func payloadCompression(zf *zip.File) (Compression, error) {
	switch {
	case strings.HasSuffix(zf.Name, suffixLZ4):
		return CompLZ4, nil
	case strings.HasSuffix(zf.Name, suffixBR):
		return CompBR, nil
	}
	switch zf.Method {
	case zip.Store:
		return CompNone, nil
	case zip.Deflate:
		return CompDeflate, nil
	case zstd.ZipMethodWinZip:
		return CompZSTD, nil
	}
	return 0, fmt.Errorf("%w: %s uses unsupported zip method %d", ErrInvalidPackage, zf.Name, zf.Method)
}
