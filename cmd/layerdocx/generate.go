package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/logicossoftware/go-layerdocx"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	configPath  string
	out         string
	name        string
	alpha       float64
	layers      int
	baseSize    int
	primes      []int
	compression string
	digest      string
	workers     int
	skipFailed  bool
	runInfo     bool
}

// generateSettings is the fully resolved input of one generate run.
type generateSettings struct {
	cfg     layerdocx.Config
	out     string
	comp    layerdocx.Compression
	digest  layerdocx.DigestAlgorithm
	workers int
	policy  layerdocx.FailurePolicy
	runInfo bool
}

func newGenerateCmd(c *cli) *cobra.Command {
	def := layerdocx.DefaultConfig()
	o := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a layered package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, c)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "YAML file with run parameters; flags override its values")
	f.StringVarP(&o.out, "out", "o", "", "output file (default: the document name)")
	f.StringVar(&o.name, "name", def.Name, "document name")
	f.Float64Var(&o.alpha, "alpha", def.Alpha, "decay coefficient")
	f.IntVar(&o.layers, "layers", def.LayerCount, "number of layers")
	f.IntVar(&o.baseSize, "base-size", def.BaseSize, "payload size of layer 0 in bytes")
	f.IntSliceVar(&o.primes, "primes", def.PrimeSet, "prime windows for temporal offsets")
	f.StringVar(&o.compression, "compression", layerdocx.CompDeflate.String(), "payload compression (none, deflate, zstd, lz4, brotli)")
	f.StringVar(&o.digest, "digest", layerdocx.DigestSHA256.String(), "payload digest (SHA256, BLAKE3)")
	f.IntVar(&o.workers, "workers", 0, "layers built concurrently (0 = GOMAXPROCS)")
	f.BoolVar(&o.skipFailed, "skip-failed", false, "skip failed layers instead of aborting")
	f.BoolVar(&o.runInfo, "run-info", true, "write the CBOR run info part")
	return cmd
}

// resolve layers defaults, the optional config file and explicitly set
// flags, in that order.
func (o *generateOptions) resolve(changed func(string) bool) (generateSettings, error) {
	cfg := layerdocx.DefaultConfig()
	out, comp, digest := o.out, o.compression, o.digest
	workers, skip, runInfo := o.workers, o.skipFailed, o.runInfo

	if o.configPath != "" {
		fc, err := loadFileConfig(o.configPath)
		if err != nil {
			return generateSettings{}, err
		}
		fc.apply(&cfg)
		if fc.Output != "" && !changed("out") {
			out = fc.Output
		}
		if fc.Compression != "" && !changed("compression") {
			comp = fc.Compression
		}
		if fc.Digest != "" && !changed("digest") {
			digest = fc.Digest
		}
		if fc.Workers != 0 && !changed("workers") {
			workers = fc.Workers
		}
		if fc.SkipFailed && !changed("skip-failed") {
			skip = true
		}
		if fc.RunInfo != nil && !changed("run-info") {
			runInfo = *fc.RunInfo
		}
	}

	if changed("name") {
		cfg.Name = o.name
	}
	if changed("alpha") {
		cfg.Alpha = o.alpha
	}
	if changed("layers") {
		cfg.LayerCount = o.layers
	}
	if changed("base-size") {
		cfg.BaseSize = o.baseSize
	}
	if changed("primes") {
		cfg.PrimeSet = append([]int(nil), o.primes...)
	}
	if out == "" {
		out = cfg.Name
	}

	s := generateSettings{cfg: cfg, out: out, workers: workers, runInfo: runInfo}
	var err error
	if s.comp, err = layerdocx.ParseCompression(comp); err != nil {
		return generateSettings{}, err
	}
	if s.digest, err = layerdocx.ParseDigestAlgorithm(digest); err != nil {
		return generateSettings{}, err
	}
	if skip {
		s.policy = layerdocx.FailSkip
	}
	if err := cfg.Validate(); err != nil {
		return generateSettings{}, err
	}
	return s, nil
}

func (o *generateOptions) run(cmd *cobra.Command, c *cli) error {
	s, err := o.resolve(cmd.Flags().Changed)
	if err != nil {
		return err
	}
	log := c.logger
	log.Info("generating",
		"name", s.cfg.Name,
		"alpha", s.cfg.Alpha,
		"layers", s.cfg.LayerCount,
		"base_size", humanize.Bytes(uint64(s.cfg.BaseSize)),
		"compression", s.comp.String(),
		"digest", s.digest.String(),
	)

	last := s.cfg.LayerCount - 1
	run, err := layerdocx.Generate(cmd.Context(), s.cfg,
		layerdocx.WithWorkers(s.workers),
		layerdocx.WithFailurePolicy(s.policy),
		layerdocx.WithDigest(s.digest),
		layerdocx.WithLogger(log),
		layerdocx.WithProgress(func(l *layerdocx.Layer) {
			if l.Index%5 == 0 || l.Index == last {
				log.Info("layer built",
					"index", l.Index,
					"energy", fmt.Sprintf("%.4f", l.Energy),
					"size", humanize.Bytes(uint64(l.Size)),
				)
			}
		}),
	)
	if err != nil {
		return err
	}

	size, err := writePackage(s.out, run,
		layerdocx.WithPayloadCompression(s.comp),
		layerdocx.WithRunInfo(s.runInfo),
	)
	if err != nil {
		return err
	}
	log.Info("package written",
		"path", s.out,
		"size", humanize.Bytes(uint64(size)),
		"layers", len(run.Layers),
		"skipped", len(run.Skipped),
		"payload", humanize.Bytes(uint64(run.TotalPayloadBytes())),
		"total_energy", fmt.Sprintf("%.4f", run.TotalEnergy),
		"efficiency", fmt.Sprintf("%.1f%%", run.Efficiency*100),
	)
	fmt.Fprintln(cmd.OutOrStdout(), s.out)
	return nil
}

// writePackage encodes run to path and returns the file size. A partially
// written file is removed on error.
func writePackage(path string, run *layerdocx.RunMetadata, opts ...layerdocx.WriteOption) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	if err := layerdocx.Encode(f, run, opts...); err != nil {
		f.Close()
		os.Remove(path)
		return 0, fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return 0, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
