package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/logicossoftware/go-layerdocx"
	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML form of a generate run. Pointer fields distinguish
// "absent" from a zero value so that only present keys override defaults.
type fileConfig struct {
	Name         string   `yaml:"name"`
	Alpha        *float64 `yaml:"alpha"`
	Layers       *int     `yaml:"layers"`
	BaseSize     *int     `yaml:"base_size"`
	Primes       []int    `yaml:"primes"`
	ProgIDPrefix string   `yaml:"progid_prefix"`
	ClassID      string   `yaml:"class_id"`
	Version      string   `yaml:"version"`

	Output      string `yaml:"output"`
	Compression string `yaml:"compression"`
	Digest      string `yaml:"digest"`
	Workers     int    `yaml:"workers"`
	SkipFailed  bool   `yaml:"skip_failed"`
	RunInfo     *bool  `yaml:"run_info"`
}

func loadFileConfig(path string) (fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, err
	}
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// apply copies every key present in the file onto cfg.
func (fc fileConfig) apply(cfg *layerdocx.Config) {
	if fc.Name != "" {
		cfg.Name = fc.Name
	}
	if fc.Alpha != nil {
		cfg.Alpha = *fc.Alpha
	}
	if fc.Layers != nil {
		cfg.LayerCount = *fc.Layers
	}
	if fc.BaseSize != nil {
		cfg.BaseSize = *fc.BaseSize
	}
	if len(fc.Primes) > 0 {
		cfg.PrimeSet = append([]int(nil), fc.Primes...)
	}
	if fc.ProgIDPrefix != "" {
		cfg.ProgIDPrefix = fc.ProgIDPrefix
	}
	if fc.ClassID != "" {
		cfg.ClassID = fc.ClassID
	}
	if fc.Version != "" {
		cfg.Version = fc.Version
	}
}
