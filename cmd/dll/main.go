// Package main provides C-compatible exports for the layerdocx library.
// Build with: go build -buildmode=c-shared -o layerdocx.dll
package main

/*
#include <stdlib.h>
#include <stdint.h>

// Result structure for operations that return data
typedef struct {
    char* data;
    int   data_len;
    char* error;
} LayerdocxResult;
*/
import "C"

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"unsafe"

	"github.com/logicossoftware/go-layerdocx"
)

func main() {}

// LayerdocxHeaderSize returns the size in bytes of an encoded layer header.
//
//export LayerdocxHeaderSize
func LayerdocxHeaderSize() C.int {
	return C.int(layerdocx.HeaderSize)
}

// LayerdocxFreeResult frees memory allocated by other Layerdocx functions.
// Must be called to avoid memory leaks.
//
//export LayerdocxFreeResult
func LayerdocxFreeResult(result C.LayerdocxResult) {
	if result.data != nil {
		C.free(unsafe.Pointer(result.data))
	}
	if result.error != nil {
		C.free(unsafe.Pointer(result.error))
	}
}

// LayerdocxFreeString frees a C string allocated by Go.
//
//export LayerdocxFreeString
func LayerdocxFreeString(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

func makeResult(data []byte) C.LayerdocxResult {
	var result C.LayerdocxResult
	if len(data) > 0 {
		result.data = (*C.char)(C.CBytes(data))
		result.data_len = C.int(len(data))
	}
	return result
}

func makeError(err error) C.LayerdocxResult {
	var result C.LayerdocxResult
	result.error = C.CString(err.Error())
	return result
}

func decodeBuffer(data *C.char, dataLen C.int, verify bool) (*layerdocx.Package, error) {
	goData := C.GoBytes(unsafe.Pointer(data), dataLen)
	return layerdocx.Decode(bytes.NewReader(goData), int64(len(goData)), layerdocx.WithVerifyDigests(verify))
}

// LayerdocxGenerate runs a full generation and returns the encoded package.
// Parameters:
//   - alpha: decay coefficient (> 0)
//   - layers: number of layers
//   - baseSize: payload size of layer 0
//   - compression: payload compression (0=None, 1=Deflate, 2=ZSTD, 3=LZ4, 4=Brotli)
//
// Returns LayerdocxResult with package bytes or error. Call LayerdocxFreeResult when done.
//
//export LayerdocxGenerate
func LayerdocxGenerate(alpha C.double, layers C.int, baseSize C.int, compression C.uint16_t) C.LayerdocxResult {
	cfg := layerdocx.DefaultConfig()
	cfg.Alpha = float64(alpha)
	cfg.LayerCount = int(layers)
	cfg.BaseSize = int(baseSize)

	run, err := layerdocx.Generate(context.Background(), cfg)
	if err != nil {
		return makeError(err)
	}
	var buf bytes.Buffer
	if err := layerdocx.Encode(&buf, run, layerdocx.WithPayloadCompression(layerdocx.Compression(compression))); err != nil {
		return makeError(err)
	}
	return makeResult(buf.Bytes())
}

// LayerdocxSynthesize returns the payload bytes of one layer.
//
//export LayerdocxSynthesize
func LayerdocxSynthesize(layerIndex C.int, byteCount C.int, alpha C.double) C.LayerdocxResult {
	b, err := layerdocx.Synthesize(int(layerIndex), int(byteCount), float64(alpha))
	if err != nil {
		return makeError(err)
	}
	return makeResult(b)
}

// LayerdocxEncodeHeader returns the encoded header of one layer.
//
//export LayerdocxEncodeHeader
func LayerdocxEncodeHeader(layerIndex C.int, alpha C.double) C.LayerdocxResult {
	h, err := layerdocx.EncodeHeader(int(layerIndex), float64(alpha))
	if err != nil {
		return makeError(err)
	}
	return makeResult(h[:])
}

// LayerdocxDecode decodes a package and returns a JSON summary of its layers
// and run info. Payload bytes are not included; use LayerdocxGetLayerPayload.
//
//export LayerdocxDecode
func LayerdocxDecode(data *C.char, dataLen C.int) C.LayerdocxResult {
	pkg, err := decodeBuffer(data, dataLen, true)
	if err != nil {
		return makeError(err)
	}

	layers := make([]map[string]any, len(pkg.Layers))
	for i, dl := range pkg.Layers {
		layers[i] = map[string]any{
			"index":       dl.Index,
			"entry":       dl.EntryName,
			"compression": dl.Compression.String(),
			"progID":      dl.Descriptor.ProgID,
			"size":        len(dl.Payload),
			"energy":      dl.Descriptor.Energy,
			"checksum":    dl.Descriptor.Checksum.Value,
		}
	}
	result := map[string]any{
		"entries": pkg.Entries,
		"layers":  layers,
	}
	if info := pkg.RunInfo; info != nil {
		result["runInfo"] = map[string]any{
			"runID":         info.RunID,
			"alpha":         info.Alpha,
			"layerCount":    info.LayerCount,
			"totalEnergy":   info.TotalEnergy,
			"cascadeFactor": info.CascadeFactor,
			"efficiency":    info.Efficiency,
		}
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return makeError(err)
	}
	return makeResult(jsonBytes)
}

// LayerdocxGetLayerPayload returns the decompressed payload of one layer.
//
//export LayerdocxGetLayerPayload
func LayerdocxGetLayerPayload(data *C.char, dataLen C.int, layerIndex C.int) C.LayerdocxResult {
	pkg, err := decodeBuffer(data, dataLen, true)
	if err != nil {
		return makeError(err)
	}
	for _, dl := range pkg.Layers {
		if dl.Index == int(layerIndex) {
			return makeResult(dl.Payload)
		}
	}
	return makeError(fmt.Errorf("layer not found: %d", int(layerIndex)))
}

// LayerdocxValidate decodes a package and checks every digest.
// Returns NULL on success, or an error message string on failure.
// Call LayerdocxFreeString on the result if non-NULL.
//
//export LayerdocxValidate
func LayerdocxValidate(data *C.char, dataLen C.int) *C.char {
	if _, err := decodeBuffer(data, dataLen, true); err != nil {
		return C.CString(err.Error())
	}
	return nil
}

// LayerdocxGetLayerCount returns the number of layers in a package.
// Returns -1 on error.
//
//export LayerdocxGetLayerCount
func LayerdocxGetLayerCount(data *C.char, dataLen C.int) C.int {
	pkg, err := decodeBuffer(data, dataLen, false)
	if err != nil {
		return -1
	}
	return C.int(len(pkg.Layers))
}
