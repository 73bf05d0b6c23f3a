package layerdocx

import (
	"errors"
	"math"
	"testing"
	"time"
)

var fixedInstant = time.Date(2026, 1, 2, 3, 4, 5, 678_000, time.UTC)

func fixedClock() time.Time { return fixedInstant }

func TestDeriveParams_LayerZero(t *testing.T) {
	p, err := DeriveParams(0, DefaultConfig(), fixedInstant)
	if err != nil {
		t.Fatal(err)
	}
	if p.Energy != 1.0 {
		t.Fatalf("energy = %v, want 1", p.Energy)
	}
	if p.Resonance != 0 {
		t.Fatalf("resonance = %v, want 0", p.Resonance)
	}
	if p.ByteCount != 1024 {
		t.Fatalf("byte count = %d, want 1024", p.ByteCount)
	}
	if p.Prime != 10007 {
		t.Fatalf("prime = %d, want 10007", p.Prime)
	}
}

func TestDeriveParams_LayerFive(t *testing.T) {
	p, err := DeriveParams(5, DefaultConfig(), fixedInstant)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p.Energy-math.Exp(-5*DefaultAlpha)) > 1e-12 {
		t.Fatalf("energy = %v", p.Energy)
	}
	if math.Abs(p.Energy-0.8598) > 1e-4 {
		t.Fatalf("energy = %v, want ~0.8598", p.Energy)
	}
	if p.ByteCount != 880 {
		t.Fatalf("byte count = %d, want 880", p.ByteCount)
	}
	if p.Prime != 10067 {
		t.Fatalf("prime = %d, want 10067", p.Prime)
	}
}

func TestDeriveParams_Monotonic(t *testing.T) {
	cfg := DefaultConfig()
	prev, err := DeriveParams(0, cfg, fixedInstant)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < cfg.LayerCount; i++ {
		p, err := DeriveParams(i, cfg, fixedInstant)
		if err != nil {
			t.Fatal(err)
		}
		if !(p.Energy < prev.Energy) {
			t.Fatalf("energy not strictly decreasing at %d", i)
		}
		if p.Energy <= 0 || p.Energy > 1 {
			t.Fatalf("energy %v outside (0,1]", p.Energy)
		}
		if p.ByteCount > prev.ByteCount || p.ByteCount < 0 {
			t.Fatalf("byte count not non-increasing at %d", i)
		}
		if p.ByteCount != int(math.Floor(float64(cfg.BaseSize)*p.Energy)) {
			t.Fatalf("byte count %d != floor(base*energy)", p.ByteCount)
		}
		if p.Prime != cfg.PrimeSet[i%len(cfg.PrimeSet)] {
			t.Fatalf("prime mismatch at %d", i)
		}
		prev = p
	}
}

func TestDeriveParams_TemporalOffset(t *testing.T) {
	cfg := DefaultConfig()
	p, err := DeriveParams(3, cfg, fixedInstant)
	if err != nil {
		t.Fatal(err)
	}
	resonance := cfg.Alpha * math.Sin(2*math.Pi*3/float64(cfg.LayerCount))
	if p.Resonance != resonance {
		t.Fatalf("resonance = %v, want %v", p.Resonance, resonance)
	}
	prime := int64(cfg.PrimeSet[3])
	phase := float64(fixedInstant.UnixMicro()%prime) / float64(prime)
	want := p.Energy * (1 + resonance) * (1e7 + 5e5*phase)
	if math.Abs(p.TemporalOffset-want) > 1e-6 {
		t.Fatalf("offset = %v, want %v", p.TemporalOffset, want)
	}

	again, _ := DeriveParams(3, cfg, fixedInstant)
	if again.TemporalOffset != p.TemporalOffset {
		t.Fatal("offset must be reproducible for a fixed instant")
	}
}

func TestDeriveParams_Rejects(t *testing.T) {
	cfg := DefaultConfig()
	for _, i := range []int{-1, cfg.LayerCount} {
		if _, err := DeriveParams(i, cfg, fixedInstant); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("index %d: expected ErrConfiguration, got %v", i, err)
		}
	}
	cfg.Alpha = 0
	if _, err := DeriveParams(0, cfg, fixedInstant); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("alpha 0: expected ErrConfiguration, got %v", err)
	}
}
