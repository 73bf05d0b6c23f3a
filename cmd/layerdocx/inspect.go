package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/logicossoftware/go-layerdocx"
	"github.com/spf13/cobra"
)

// packageSummary is the JSON output of the inspect command.
type packageSummary struct {
	File        string         `json:"file"`
	Size        string         `json:"size"`
	Entries     int            `json:"entries"`
	RunID       string         `json:"run_id,omitempty"`
	Name        string         `json:"name,omitempty"`
	Version     string         `json:"version,omitempty"`
	Compression string         `json:"payload_compression,omitempty"`
	Efficiency  string         `json:"efficiency,omitempty"`
	Layers      []layerSummary `json:"layers"`
	Skipped     []int          `json:"skipped,omitempty"`
}

type layerSummary struct {
	Index       int            `json:"index"`
	Entry       string         `json:"entry"`
	ProgID      string         `json:"progid"`
	Compression string         `json:"compression"`
	Size        int            `json:"size"`
	Energy      string         `json:"energy"`
	Prime       int            `json:"prime_window"`
	Checksum    string         `json:"checksum"`
	Header      *headerSummary `json:"header,omitempty"`
}

// headerSummary describes the header that BuildLayer derives for a layer.
type headerSummary struct {
	Version         string `json:"version"`
	TotalSectors    uint32 `json:"total_sectors"`
	HalfLifeSectors uint32 `json:"half_life_sectors"`
	AlphaMicros     uint32 `json:"alpha_micros"`
}

func newInspectCmd(c *cli) *cobra.Command {
	var headers bool
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print a JSON summary of a layered package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := inspectFile(args[0], headers)
			if err != nil {
				return err
			}
			c.logger.Debug("inspected", "file", args[0], "layers", len(s.Layers))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}
	cmd.Flags().BoolVar(&headers, "headers", false, "include the derived layer headers")
	return cmd
}

func openPackage(path string, opts ...layerdocx.ReadOption) (*layerdocx.Package, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	pkg, err := layerdocx.Decode(f, fi.Size(), opts...)
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return pkg, fi.Size(), nil
}

func inspectFile(path string, headers bool) (packageSummary, error) {
	pkg, size, err := openPackage(path, layerdocx.WithVerifyDigests(false))
	if err != nil {
		return packageSummary{}, err
	}
	s := packageSummary{
		File:    path,
		Size:    humanize.Bytes(uint64(size)),
		Entries: len(pkg.Entries),
		Layers:  make([]layerSummary, 0, len(pkg.Layers)),
	}
	if info := pkg.RunInfo; info != nil {
		s.RunID = info.RunID
		s.Name = info.Name
		s.Version = info.Version
		s.Compression = info.PayloadCompression
		s.Efficiency = fmt.Sprintf("%.1f%%", info.Efficiency*100)
		for _, sk := range info.Skipped {
			s.Skipped = append(s.Skipped, sk.Index)
		}
	}
	for _, dl := range pkg.Layers {
		d := dl.Descriptor
		ls := layerSummary{
			Index:       dl.Index,
			Entry:       dl.EntryName,
			ProgID:      d.ProgID,
			Compression: dl.Compression.String(),
			Size:        len(dl.Payload),
			Energy:      d.Energy,
			Prime:       d.Resonance.PrimeWindow,
			Checksum:    d.Checksum.Algorithm + ":" + d.Checksum.Value,
		}
		if headers {
			h, err := derivedHeader(dl)
			if err != nil {
				return packageSummary{}, err
			}
			ls.Header = &h
		}
		s.Layers = append(s.Layers, ls)
	}
	return s, nil
}

func derivedHeader(dl layerdocx.DecodedLayer) (headerSummary, error) {
	alpha, err := strconv.ParseFloat(dl.Descriptor.Alpha, 64)
	if err != nil {
		return headerSummary{}, fmt.Errorf("layer %d: alpha %q: %w", dl.Index, dl.Descriptor.Alpha, err)
	}
	raw, err := layerdocx.EncodeHeader(dl.Index, alpha)
	if err != nil {
		return headerSummary{}, err
	}
	h, err := layerdocx.ParseHeader(raw[:])
	if err != nil {
		return headerSummary{}, err
	}
	return headerSummary{
		Version:         fmt.Sprintf("%d.%d", h.MajorVersion, h.MinorVersion),
		TotalSectors:    h.TotalSectors,
		HalfLifeSectors: h.HalfLifeSectors,
		AlphaMicros:     h.AlphaMicros,
	}, nil
}
