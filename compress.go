package layerdocx

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type Compression uint16

const (
	CompNone    Compression = 0x0
	CompDeflate Compression = 0x1
	CompZSTD    Compression = 0x2
	CompLZ4     Compression = 0x3
	CompBR      Compression = 0x4
)

const (
	suffixLZ4 = ".lz4"
	suffixBR  = ".br"
)

func (c Compression) String() string {
	switch c {
	case CompNone:
		return "none"
	case CompDeflate:
		return "deflate"
	case CompZSTD:
		return "zstd"
	case CompLZ4:
		return "lz4"
	case CompBR:
		return "brotli"
	default:
		return "unknown"
	}
}

// ParseCompression accepts the names produced by Compression.String, plus
// "br" as an alias for brotli.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none", "store":
		return CompNone, nil
	case "deflate", "zip":
		return CompDeflate, nil
	case "zstd":
		return CompZSTD, nil
	case "lz4":
		return CompLZ4, nil
	case "brotli", "br":
		return CompBR, nil
	}
	return 0, fmt.Errorf("%w: unknown compression %q", ErrValidation, s)
}

// Function variables for testing injection.
var (
	newFlateWriter = func(w io.Writer) (io.WriteCloser, error) { return flate.NewWriter(w, flate.DefaultCompression) }
	zipCreate      = func(zw *zip.Writer, fh *zip.FileHeader) (io.Writer, error) { return zw.CreateHeader(fh) }
	zipClose       = func(zw *zip.Writer) error { return zw.Close() }
	zipOpen        = func(zf *zip.File) (io.ReadCloser, error) { return zf.Open() }
	readAll        = io.ReadAll
	lz4Close       = func(w *lz4.Writer) error { return w.Close() }
	brotliClose    = func(w *brotli.Writer) error { return w.Close() }
	brotliWrite    = func(w *brotli.Writer, p []byte) (int, error) { return w.Write(p) }
)

// newPackageWriter returns a zip writer with the Deflate and Zstandard
// compressors registered.
func newPackageWriter(w io.Writer) *zip.Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, newFlateWriter)
	zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())
	return zw
}

// newPackageReader opens a zip archive with the Zstandard decompressor
// registered.
func newPackageReader(r io.ReaderAt, size int64) (*zip.Reader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	return zr, nil
}

// payloadEntry returns the entry name suffix, the zip method and the bytes to
// store for a payload under comp.
func payloadEntry(comp Compression, payload []byte) (suffix string, method uint16, data []byte, err error) {
	switch comp {
	case CompNone:
		return "", zip.Store, payload, nil
	case CompDeflate:
		return "", zip.Deflate, payload, nil
	case CompZSTD:
		return "", zstd.ZipMethodWinZip, payload, nil
	case CompLZ4:
		data, err = lz4Compress(payload)
		return suffixLZ4, zip.Store, data, err
	case CompBR:
		data, err = brotliCompress(payload)
		return suffixBR, zip.Store, data, err
	}
	return "", 0, nil, fmt.Errorf("%w: unknown compression %d", ErrValidation, comp)
}

// writeEntry adds one entry to zw.
func writeEntry(zw *zip.Writer, name string, method uint16, data []byte) error {
	if err := validateContainerPath(name); err != nil {
		return fmt.Errorf("%w: entry %q: %v", ErrValidation, name, err)
	}
	w, err := zipCreate(zw, &zip.FileHeader{Name: name, Method: method})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// readEntry reads at most limit bytes of zf. Entries larger than limit are
// rejected before any bytes are inflated when the size is recorded.
func readEntry(zf *zip.File, limit uint64) ([]byte, error) {
	if zf.UncompressedSize64 > limit {
		return nil, fmt.Errorf("%w: entry %q is %d bytes", ErrLimitExceeded, zf.Name, zf.UncompressedSize64)
	}
	rc, err := zipOpen(zf)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %v", ErrInvalidPackage, zf.Name, err)
	}
	defer rc.Close()
	b, err := readAll(io.LimitReader(rc, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %v", ErrInvalidPackage, zf.Name, err)
	}
	if uint64(len(b)) > limit {
		return nil, fmt.Errorf("%w: entry %q expanded beyond limit", ErrLimitExceeded, zf.Name)
	}
	return b, nil
}

// lz4Compress compresses in using the LZ4 frame format.
func lz4Compress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := lz4CompressTo(&buf, in); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// lz4CompressTo writes LZ4-compressed data to w.
func lz4CompressTo(w io.Writer, in []byte) error {
	zw := lz4.NewWriter(w)
	if _, err := zw.Write(in); err != nil {
		_ = lz4Close(zw)
		return err
	}
	return lz4Close(zw)
}

// lz4Decompress decompresses LZ4-compressed data.
// It uses a LimitReader to prevent decompression beyond max bytes.
func lz4Decompress(in []byte, max uint64) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(in))
	b, err := io.ReadAll(io.LimitReader(r, int64(max)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(b)) > max {
		return nil, fmt.Errorf("%w: lz4 expanded beyond limit", ErrLimitExceeded)
	}
	return b, nil
}

// brotliCompress compresses in using the Brotli algorithm.
func brotliCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := brotliCompressTo(&buf, in); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// brotliCompressTo writes Brotli-compressed data to w.
func brotliCompressTo(w io.Writer, in []byte) error {
	bw := brotli.NewWriter(w)
	if _, err := brotliWrite(bw, in); err != nil {
		_ = brotliClose(bw)
		return err
	}
	return brotliClose(bw)
}

// brotliDecompress decompresses Brotli-compressed data.
// It uses a LimitReader to prevent decompression beyond max bytes.
func brotliDecompress(in []byte, max uint64) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(in))
	b, err := readAll(io.LimitReader(r, int64(max)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(b)) > max {
		return nil, fmt.Errorf("%w: brotli expanded beyond limit", ErrLimitExceeded)
	}
	return b, nil
}
