package layerdocx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func sampleRun(t *testing.T, opts ...GenerateOption) *RunMetadata {
	t.Helper()
	opts = append([]GenerateOption{WithClock(fixedClock)}, opts...)
	run, err := Generate(context.Background(), DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return run
}

func encodeRun(t *testing.T, run *RunMetadata, opts ...WriteOption) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, run, opts...); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.Bytes()
}

func decodeBytes(b []byte, opts ...ReadOption) (*Package, error) {
	return Decode(bytes.NewReader(b), int64(len(b)), opts...)
}

type failingWriter struct {
	n int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, io.ErrClosedPipe
	}
	if len(p) > w.n {
		p = p[:w.n]
	}
	w.n -= len(p)
	return len(p), nil
}

func TestEncodeDecodeRoundTrip_AllCompressions(t *testing.T) {
	comps := []Compression{CompNone, CompDeflate, CompZSTD, CompLZ4, CompBR}
	run := sampleRun(t)
	for _, comp := range comps {
		t.Run("comp="+comp.String(), func(t *testing.T) {
			b := encodeRun(t, run, WithPayloadCompression(comp))
			pkg, err := decodeBytes(b)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(pkg.Layers) != DefaultLayerCount {
				t.Fatalf("layers = %d", len(pkg.Layers))
			}
			for i, dl := range pkg.Layers {
				if dl.Index != i {
					t.Fatalf("layer %d at slot %d", dl.Index, i)
				}
				if dl.Compression != comp {
					t.Fatalf("layer %d compression = %s", i, dl.Compression)
				}
				if dl.EntryName != PayloadName(i, comp) {
					t.Fatalf("entry name = %q", dl.EntryName)
				}
				want, err := Synthesize(i, dl.Descriptor.Size, DefaultAlpha)
				if err != nil {
					t.Fatal(err)
				}
				if !bytes.Equal(dl.Payload, want) {
					t.Fatalf("layer %d payload differs from Synthesize", i)
				}
			}
			if pkg.RunInfo == nil || pkg.RunInfo.PayloadCompression != comp.String() {
				t.Fatalf("run info = %+v", pkg.RunInfo)
			}
		})
	}
}

func TestEncode_EntryOrder(t *testing.T) {
	run := sampleRun(t)
	pkg, err := decodeBytes(encodeRun(t, run))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{PartContentTypes, PartRootRels, PartDocumentRels, PartDocument}
	for i := 0; i < DefaultLayerCount; i++ {
		want = append(want, DescriptorName(i), PayloadName(i, CompDeflate))
	}
	want = append(want, PartRunInfo, PartManifest)
	if strings.Join(pkg.Entries, "\n") != strings.Join(want, "\n") {
		t.Fatalf("entries:\n%v\nwant:\n%v", pkg.Entries, want)
	}
}

func TestEncode_WithoutRunInfo(t *testing.T) {
	run := sampleRun(t)
	pkg, err := decodeBytes(encodeRun(t, run, WithRunInfo(false)))
	if err != nil {
		t.Fatal(err)
	}
	if pkg.RunInfo != nil {
		t.Fatal("expected no run info")
	}
	for _, e := range pkg.Entries {
		if e == PartRunInfo {
			t.Fatal("run info part must not be written")
		}
	}
}

func TestRunInfoRoundTrip(t *testing.T) {
	run := sampleRun(t, WithDigest(DigestBLAKE3))
	pkg, err := decodeBytes(encodeRun(t, run))
	if err != nil {
		t.Fatal(err)
	}
	info := pkg.RunInfo
	if info.RunID != run.RunID || info.LayerCount != DefaultLayerCount || info.Alpha != DefaultAlpha {
		t.Fatalf("run info = %+v", info)
	}
	if !info.StartedAt.Equal(fixedInstant) {
		t.Fatalf("started at = %v", info.StartedAt)
	}
	if len(info.Layers) != len(run.Layers) {
		t.Fatalf("layers = %d", len(info.Layers))
	}
	for i, l := range info.Layers {
		if !bytes.Equal(l.Digest, run.Layers[i].Digest[:]) || l.DigestAlgorithm != "BLAKE3" {
			t.Fatalf("layer %d digest mismatch", i)
		}
	}
}

func TestManifestInPackage(t *testing.T) {
	run := sampleRun(t)
	pkg, err := decodeBytes(encodeRun(t, run))
	if err != nil {
		t.Fatal(err)
	}
	want, err := RenderManifest(run)
	if err != nil {
		t.Fatal(err)
	}
	if pkg.Manifest != string(want) {
		t.Fatal("manifest entry differs from RenderManifest")
	}
}

func TestEncodeNilRun(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestEncodeWriterError(t *testing.T) {
	run := sampleRun(t)
	err := Encode(&failingWriter{n: 0}, run, WithPayloadCompression(CompNone))
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected writer error to propagate, got %v", err)
	}
}

func TestEncode_UnknownCompression(t *testing.T) {
	run := sampleRun(t)
	var buf bytes.Buffer
	if err := Encode(&buf, run, WithPayloadCompression(Compression(42))); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDigestMismatch(t *testing.T) {
	run := sampleRun(t)
	run.Layers[4].Payload[0] ^= 0x01

	var buf bytes.Buffer
	if err := Encode(&buf, run); !errors.Is(err, ErrDigestMismatch) {
		t.Fatalf("encode: expected ErrDigestMismatch, got %v", err)
	}

	b := encodeRun(t, run, WithVerifyDigestsOnWrite(false))
	if _, err := decodeBytes(b); !errors.Is(err, ErrDigestMismatch) {
		t.Fatalf("decode: expected ErrDigestMismatch, got %v", err)
	}
	pkg, err := decodeBytes(b, WithVerifyDigests(false))
	if err != nil {
		t.Fatalf("decode without verification: %v", err)
	}
	if pkg.Layers[4].Payload[0] != run.Layers[4].Payload[0] {
		t.Fatal("tampered payload must be returned as stored")
	}
}

func TestEncode_SkippedRun(t *testing.T) {
	origSynth := synthesizePayload
	defer func() { synthesizePayload = origSynth }()
	synthesizePayload = func(i, n int, a float64) ([]byte, error) {
		if i == 0 {
			return nil, ErrSynthesis
		}
		return origSynth(i, n, a)
	}
	run := sampleRun(t, WithFailurePolicy(FailSkip))
	pkg, err := decodeBytes(encodeRun(t, run))
	if err != nil {
		t.Fatal(err)
	}
	if len(pkg.Layers) != DefaultLayerCount-1 || pkg.Layers[0].Index != 1 {
		t.Fatalf("layers = %d, first = %d", len(pkg.Layers), pkg.Layers[0].Index)
	}
	if len(pkg.RunInfo.Skipped) != 1 || pkg.RunInfo.Skipped[0].Index != 0 {
		t.Fatalf("skipped = %+v", pkg.RunInfo.Skipped)
	}
}

func TestEncode_RejectsSkipWithoutError(t *testing.T) {
	run := sampleRun(t)
	run.Skipped = append(run.Skipped, LayerFailure{Index: 40})
	var buf bytes.Buffer
	if err := Encode(&buf, run); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
