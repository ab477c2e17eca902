package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/wgangp/internal/tensor"
)

// Decode reads a .born v2 stream and returns its tensors and header.
//
// The data checksum is verified before any tensor is materialized.
func Decode(r io.Reader) (map[string]*tensor.Tensor, Header, error) {
	var header Header

	fixed := make([]byte, FixedHeaderSizeV2)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, header, fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, header, fmt.Errorf("%w: expected %q, got %q", ErrInvalidMagic, MagicBytes, fixed[0:4])
	}
	if v := binary.LittleEndian.Uint32(fixed[4:8]); v != FormatVersionV2 {
		return nil, header, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	if headerSize > MaxHeaderSize {
		return nil, header, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}
	var stored [ChecksumSize]byte
	copy(stored[:], fixed[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize])

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, header, fmt.Errorf("failed to read header: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(headerJSON))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&header); err != nil {
		return nil, header, fmt.Errorf("failed to parse header: %w", err)
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	if pad := paddingFor(int64(FixedHeaderSizeV2) + int64(headerSize)); pad > 0 {
		if _, err := io.CopyN(io.Discard, r, pad); err != nil {
			return nil, header, fmt.Errorf("failed to skip padding: %w", err)
		}
	}

	var data bytes.Buffer
	//nolint:gosec // G115: dataSize is checked against the actual stream length below
	n, err := io.CopyN(&data, r, int64(dataSize))
	if err != nil {
		return nil, header, fmt.Errorf("failed to read tensor data (%d of %d bytes): %w", n, dataSize, err)
	}
	if err := ValidateChecksum(ComputeChecksum(data.Bytes()), stored); err != nil {
		return nil, header, err
	}
	if err := ValidateHeader(&header, int64(dataSize)); err != nil { //nolint:gosec // G115: bounded above
		return nil, header, err
	}

	raw := data.Bytes()
	dict := make(map[string]*tensor.Tensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		values := make([]float64, meta.Size/8)
		chunk := raw[meta.Offset : meta.Offset+meta.Size]
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(chunk[i*8:]))
		}
		t, err := tensor.FromSlice(values, tensor.Shape(meta.Shape).Clone())
		if err != nil {
			return nil, header, fmt.Errorf("tensor %q: %w", meta.Name, err)
		}
		dict[meta.Name] = t
	}
	return dict, header, nil
}

// ReadFile decodes the .born file at path.
func ReadFile(path string) (map[string]*tensor.Tensor, Header, error) {
	//nolint:gosec // G304: path is chosen by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}
