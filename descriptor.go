package layerdocx

import (
	"bytes"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strconv"
)

const descriptorTimeLayout = "20060102150405"

// Descriptor is the XML rendering of one layer's scalar metadata.
// Numeric attributes are kept as their rendered text so that a parsed
// descriptor re-renders byte for byte.
type Descriptor struct {
	XMLName       xml.Name            `xml:"oleObject"`
	ProgID        string              `xml:"progID,attr"`
	ClassID       string              `xml:"clsid,attr"`
	Size          int                 `xml:"size,attr"`
	Layer         int                 `xml:"temporalLayer,attr"`
	Alpha         string              `xml:"alpha,attr"`
	Energy        string              `xml:"energy,attr"`
	CascadeFactor string              `xml:"cascadeFactor,attr"`
	Timestamp     string              `xml:"timestamp,attr"`
	Decay         DescriptorDecay     `xml:"EnergyDecay"`
	Resonance     DescriptorResonance `xml:"TemporalResonance"`
	Checksum      DescriptorChecksum  `xml:"Checksum"`
}

type DescriptorDecay struct {
	Formula string `xml:"formula,attr"`
	Value   string `xml:"value,attr"`
}

type DescriptorResonance struct {
	Offset      string `xml:"offset,attr"`
	PrimeWindow int    `xml:"primeWindow,attr"`
}

type DescriptorChecksum struct {
	Algorithm string `xml:"algorithm,attr"`
	Value     string `xml:"value,attr"`
}

// NewDescriptor fills a Descriptor from a built layer.
func NewDescriptor(l *Layer, cfg Config) Descriptor {
	return Descriptor{
		ProgID:        l.ProgID,
		ClassID:       cfg.ClassID,
		Size:          l.Size,
		Layer:         l.Index,
		Alpha:         strconv.FormatFloat(cfg.Alpha, 'g', -1, 64),
		Energy:        fmt.Sprintf("%.6f", l.Energy),
		CascadeFactor: fmt.Sprintf("%.6f", cfg.CascadeFactor()),
		Timestamp:     l.CreatedAt.Format(descriptorTimeLayout),
		Decay: DescriptorDecay{
			Formula: fmt.Sprintf("E(d) = E0 exp(-%v*%d)", cfg.Alpha, l.Index),
			Value:   fmt.Sprintf("%.10f", l.Energy),
		},
		Resonance: DescriptorResonance{
			Offset:      fmt.Sprintf("%.6f", l.TemporalOffset),
			PrimeWindow: l.Prime,
		},
		Checksum: DescriptorChecksum{
			Algorithm: l.DigestAlgorithm.String(),
			Value:     hex.EncodeToString(l.Digest[:]),
		},
	}
}

// RenderDescriptor renders the XML descriptor of l, including the XML
// declaration and a comment banner.
func RenderDescriptor(l *Layer, cfg Config) ([]byte, error) {
	body, err := xml.MarshalIndent(NewDescriptor(l, cfg), "", "  ")
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	b.WriteString(xmlDeclaration)
	fmt.Fprintf(&b, "<!-- layerdocx %s: layer %d of %d -->\n", cfg.Version, l.Index, cfg.LayerCount)
	fmt.Fprintf(&b, "<!-- E(d) = E0 exp(-alpha d), alpha=%v | Cascade Factor: %.2fx -->\n", cfg.Alpha, cfg.CascadeFactor())
	b.Write(body)
	return b.Bytes(), nil
}

// ParseDescriptor decodes a descriptor produced by RenderDescriptor.
func ParseDescriptor(b []byte) (Descriptor, error) {
	var d Descriptor
	if err := xml.Unmarshal(b, &d); err != nil {
		return Descriptor{}, fmt.Errorf("%w: descriptor: %v", ErrInvalidPackage, err)
	}
	return d, nil
}

// Digest returns the checksum algorithm and value recorded in d.
func (d Descriptor) Digest() (DigestAlgorithm, [32]byte, error) {
	alg, err := ParseDigestAlgorithm(d.Checksum.Algorithm)
	if err != nil {
		return 0, [32]byte{}, err
	}
	raw, err := hex.DecodeString(d.Checksum.Value)
	if err != nil || len(raw) != 32 {
		return 0, [32]byte{}, fmt.Errorf("%w: layer %d checksum is not 32 hex bytes", ErrInvalidPackage, d.Layer)
	}
	var sum [32]byte
	copy(sum[:], raw)
	return alg, sum, nil
}
