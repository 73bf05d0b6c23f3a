package layerdocx

import (
	"fmt"
	"math"
	"path"
	"strings"
)

// Validate reports whether c can drive a run. All failures wrap
// ErrConfiguration.
func (c Config) Validate() error {
	if math.IsNaN(c.Alpha) || c.Alpha <= 0 {
		return fmt.Errorf("%w: alpha must be > 0, got %v", ErrConfiguration, c.Alpha)
	}
	if c.LayerCount <= 0 {
		return fmt.Errorf("%w: layer count must be > 0, got %d", ErrConfiguration, c.LayerCount)
	}
	if c.BaseSize <= 0 {
		return fmt.Errorf("%w: base size must be > 0, got %d", ErrConfiguration, c.BaseSize)
	}
	if len(c.PrimeSet) == 0 {
		return fmt.Errorf("%w: prime set must not be empty", ErrConfiguration)
	}
	for i, p := range c.PrimeSet {
		if p <= 0 {
			return fmt.Errorf("%w: prime set entry %d must be > 0, got %d", ErrConfiguration, i, p)
		}
	}
	if strings.ContainsAny(c.ProgIDPrefix, " \t\r\n") {
		return fmt.Errorf("%w: progid prefix must not contain whitespace", ErrConfiguration)
	}
	return nil
}

// withDefaults fills the descriptive fields that have a sensible default.
// Numeric parameters are never defaulted; Validate rejects them instead.
func (c Config) withDefaults() Config {
	if c.ProgIDPrefix == "" {
		c.ProgIDPrefix = DefaultProgIDPrefix
	}
	if c.ClassID == "" {
		c.ClassID = DefaultClassID
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	c.PrimeSet = append([]int(nil), c.PrimeSet...)
	return c
}

func validateContainerPath(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("path must not be absolute")
	}
	if strings.Contains(p, "\\") {
		return fmt.Errorf("path must use forward slashes")
	}
	clean := path.Clean(p)
	if clean != p {
		return fmt.Errorf("path must be normalized: %q", clean)
	}
	if clean == "." {
		return fmt.Errorf("path must not be current directory")
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("path must not escape")
	}
	return nil
}
