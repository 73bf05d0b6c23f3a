package layerdocx

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/zeebo/blake3"
)

func TestBuildLayer(t *testing.T) {
	cfg := DefaultConfig()
	p, err := DeriveParams(5, cfg, fixedInstant)
	if err != nil {
		t.Fatal(err)
	}
	l, err := BuildLayer(p, cfg, DigestSHA256)
	if err != nil {
		t.Fatal(err)
	}
	if l.ProgID != "LayerDocx.Object.Layer5.Alpha30201" {
		t.Fatalf("progid = %q", l.ProgID)
	}
	if l.Size != 880 || len(l.Payload) != 880 {
		t.Fatalf("size = %d, payload = %d", l.Size, len(l.Payload))
	}
	want, _ := Synthesize(5, 880, cfg.Alpha)
	if !bytes.Equal(l.Payload, want) {
		t.Fatal("payload differs from Synthesize")
	}
	hdr, _ := EncodeHeader(5, cfg.Alpha)
	if l.Header != hdr {
		t.Fatal("header differs from EncodeHeader")
	}
	if l.Digest != sha256.Sum256(l.Payload) {
		t.Fatal("digest must cover the payload only")
	}
	if !l.CreatedAt.Equal(fixedInstant) {
		t.Fatalf("created at = %v", l.CreatedAt)
	}
}

func TestBuildLayer_EmptyPayloadDigest(t *testing.T) {
	l, err := BuildLayer(LayerParams{Index: 0, ByteCount: 0}, DefaultConfig(), DigestSHA256)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Payload) != 0 {
		t.Fatalf("payload len = %d", len(l.Payload))
	}
	if l.Digest != sha256.Sum256(nil) {
		t.Fatal("empty payload digest must equal the hash of the empty sequence")
	}
}

func TestBuildLayer_BLAKE3(t *testing.T) {
	cfg := DefaultConfig()
	p, _ := DeriveParams(1, cfg, fixedInstant)
	l, err := BuildLayer(p, cfg, DigestBLAKE3)
	if err != nil {
		t.Fatal(err)
	}
	if l.Digest != blake3.Sum256(l.Payload) {
		t.Fatal("blake3 digest mismatch")
	}
	if l.DigestAlgorithm.String() != "BLAKE3" {
		t.Fatalf("algorithm = %s", l.DigestAlgorithm)
	}
}

func TestBuildLayer_StepFailures(t *testing.T) {
	cfg := DefaultConfig()
	p, _ := DeriveParams(2, cfg, fixedInstant)

	origHeader := encodeHeader
	encodeHeader = func(int, float64) ([HeaderSize]byte, error) {
		return [HeaderSize]byte{}, fmt.Errorf("%w: boom", ErrSynthesis)
	}
	l, err := BuildLayer(p, cfg, DigestSHA256)
	encodeHeader = origHeader
	if l != nil || !errors.Is(err, ErrSynthesis) {
		t.Fatalf("header failure: got %v, %v", l, err)
	}

	origSynth := synthesizePayload
	synthesizePayload = func(int, int, float64) ([]byte, error) { return nil, io.ErrUnexpectedEOF }
	l, err = BuildLayer(p, cfg, DigestSHA256)
	synthesizePayload = origSynth
	if l != nil || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("payload failure: got %v, %v", l, err)
	}

	if _, err := BuildLayer(p, cfg, DigestAlgorithm(9)); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad digest: expected ErrValidation, got %v", err)
	}
}

func TestParseDigestAlgorithm(t *testing.T) {
	cases := map[string]DigestAlgorithm{"sha256": DigestSHA256, "SHA-256": DigestSHA256, "blake3": DigestBLAKE3}
	for in, want := range cases {
		got, err := ParseDigestAlgorithm(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %v, %v", in, got, err)
		}
	}
	if _, err := ParseDigestAlgorithm("md5"); err == nil {
		t.Fatal("expected error")
	}
	if DigestAlgorithm(9).String() != "unknown" {
		t.Fatal("expected unknown")
	}
}

func TestAlphaMicros_ClampedToHeaderRange(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.AlphaMicros(); got != 30201 {
		t.Fatalf("default alpha micros = %d", got)
	}

	cfg.Alpha = 1e300
	if got := cfg.AlphaMicros(); got != math.MaxUint32 {
		t.Fatalf("alpha micros = %d, want %d", got, uint32(math.MaxUint32))
	}
	if id := ProgID(cfg, 1); !strings.HasSuffix(id, ".Alpha4294967295") {
		t.Fatalf("progid = %q", id)
	}
	raw, err := EncodeHeader(1, cfg.Alpha)
	if err != nil {
		t.Fatal(err)
	}
	h, err := ParseHeader(raw[:])
	if err != nil {
		t.Fatal(err)
	}
	if h.AlphaMicros != cfg.AlphaMicros() {
		t.Fatalf("header alpha micros %d, progid %d", h.AlphaMicros, cfg.AlphaMicros())
	}

	cfg.Alpha = math.NaN()
	if got := cfg.AlphaMicros(); got != 0 {
		t.Fatalf("NaN alpha micros = %d", got)
	}
}
