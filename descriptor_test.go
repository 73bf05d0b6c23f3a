package layerdocx

import (
	"bytes"
	"encoding/hex"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestRenderDescriptor(t *testing.T) {
	run := sampleRun(t)
	l := run.Layers[5]
	b, err := RenderDescriptor(l, run.Config)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.HasPrefix(s, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`) {
		t.Fatalf("missing declaration:\n%s", s)
	}
	for _, want := range []string{
		`progID="LayerDocx.Object.Layer5.Alpha30201"`,
		`clsid="{DEADC0DE-CAFE-BABE-0000-000000000033}"`,
		`size="880"`,
		`temporalLayer="5"`,
		`alpha="0.0302011"`,
		`energy="0.859843"`,
		`timestamp="20260102030405"`,
		`primeWindow="10067"`,
		`algorithm="SHA256"`,
		`value="` + hex.EncodeToString(l.Digest[:]) + `"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("descriptor missing %s\n%s", want, s)
		}
	}
}

func TestParseDescriptor_RoundTrip(t *testing.T) {
	run := sampleRun(t)
	for _, l := range run.Layers {
		b, err := RenderDescriptor(l, run.Config)
		if err != nil {
			t.Fatal(err)
		}
		got, err := ParseDescriptor(b)
		if err != nil {
			t.Fatal(err)
		}
		want := NewDescriptor(l, run.Config)
		want.XMLName = got.XMLName
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("layer %d:\nwant %#v\ngot  %#v", l.Index, want, got)
		}
		alg, sum, err := got.Digest()
		if err != nil {
			t.Fatal(err)
		}
		if alg != l.DigestAlgorithm || sum != l.Digest {
			t.Fatalf("layer %d digest did not survive rendering", l.Index)
		}
	}
}

func TestDescriptorPrecision(t *testing.T) {
	l := &Layer{Index: 2, Energy: 0.123456789, TemporalOffset: 9876543.21098765}
	d := NewDescriptor(l, DefaultConfig())
	if d.Energy != "0.123457" {
		t.Fatalf("energy = %q", d.Energy)
	}
	if d.Decay.Value != "0.1234567890" {
		t.Fatalf("decay value = %q", d.Decay.Value)
	}
	if d.Resonance.Offset != "9876543.210988" {
		t.Fatalf("offset = %q", d.Resonance.Offset)
	}
}

func TestParseDescriptor_Invalid(t *testing.T) {
	if _, err := ParseDescriptor([]byte("<oleObject")); !errors.Is(err, ErrInvalidPackage) {
		t.Fatalf("expected ErrInvalidPackage, got %v", err)
	}
	d := Descriptor{Checksum: DescriptorChecksum{Algorithm: "SHA256", Value: "abcd"}}
	if _, _, err := d.Digest(); !errors.Is(err, ErrInvalidPackage) {
		t.Fatalf("short checksum: expected ErrInvalidPackage, got %v", err)
	}
	d.Checksum.Algorithm = "CRC32"
	if _, _, err := d.Digest(); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestRenderManifest(t *testing.T) {
	run := sampleRun(t)
	b, err := RenderManifest(run)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	for _, want := range []string{
		"Document: layers.docx",
		"Run ID: " + run.RunID,
		"Generated: 2026-01-02T03:04:05Z",
		"Decay Coefficient: alpha = 0.0302011",
		"Layers: L = 33",
		"Layer 0: Energy=1.0000, Size=1024,",
		"Layer 5: Energy=0.8598, Size=880,",
		"Layer 30:",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("manifest missing %q\n%s", want, s)
		}
	}
	for _, absent := range []string{"Layer 1:", "Layer 32:", "SKIPPED LAYERS"} {
		if strings.Contains(s, absent) {
			t.Errorf("manifest should not contain %q", absent)
		}
	}
	if !bytes.Contains(b, []byte("Efficiency: ")) {
		t.Fatal("missing efficiency line")
	}
}

func TestRenderManifest_NotCompleted(t *testing.T) {
	run := &RunMetadata{Config: DefaultConfig()}
	b, err := RenderManifest(run)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "Completed: N/A") {
		t.Fatalf("expected N/A completion:\n%s", b)
	}
}

func TestStaticParts(t *testing.T) {
	run := sampleRun(t)
	ct := string(contentTypesXML(run, true))
	if !strings.Contains(ct, `PartName="/word/embeddings/oleObject32.xml"`) || !strings.Contains(ct, `Extension="cbor"`) {
		t.Fatalf("content types:\n%s", ct)
	}
	if strings.Contains(string(contentTypesXML(run, false)), "cbor") {
		t.Fatal("cbor default must be omitted without run info")
	}
	rels := string(documentRelsXML(run, CompLZ4))
	if !strings.Contains(rels, `Id="rId100"`) || !strings.Contains(rels, `Target="embeddings/oleObject0.bin.lz4"`) {
		t.Fatalf("document rels:\n%s", rels)
	}
	doc := string(documentXML(run))
	if strings.Count(doc, "<w:object ") != DefaultLayerCount {
		t.Fatalf("document body must reference every layer:\n%s", doc)
	}
}
