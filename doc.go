// Package layerdocx synthesizes layered OOXML-style packages.
//
// A layered package is a zip archive laid out like a word-processing
// document whose embeddings directory holds N independently generated binary
// objects ("layers"). Every layer is produced by a deterministic byte
// recurrence driven by an exponential decay, and is described by a small XML
// descriptor. A plain-text manifest summarizes the run.
//
// # Layer Model
//
// For layer index i in [0, L) and decay constant alpha:
//   - energy       = exp(-alpha*i)
//   - byte count   = floor(BaseSize * energy)
//   - prime window = PrimeSet[i mod len(PrimeSet)]
//
// Each layer carries a 72-byte binary header, a payload of byte-count bytes,
// and a digest of the payload. Header and payload bytes are pure functions of
// (i, alpha); only the descriptive temporal offset reads the clock.
//
// # Basic Usage
//
// To generate a run and write it as a package:
//
//	run, err := layerdocx.Generate(ctx, layerdocx.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	f, _ := os.Create("layers.docx")
//	defer f.Close()
//	err = layerdocx.Encode(f, run)
//
// To read a package back:
//
//	f, _ := os.Open("layers.docx")
//	st, _ := f.Stat()
//	pkg, err := layerdocx.Decode(f, st.Size())
//
// # Payload Compression
//
// Payload entries are Deflate-compressed by default. Zstandard entries use zip
// method 93; LZ4 and Brotli payloads are stored pre-compressed under a ".lz4"
// or ".br" suffix. [Decode] understands all of them.
//
// # Security Considerations
//
// [Decode] enforces configurable [Limits] on entry counts and sizes to guard
// against decompression bombs. Digests are integrity checks only.
package layerdocx
