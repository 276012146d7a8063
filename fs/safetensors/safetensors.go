// Package safetensors - Lesen und Schreiben von safetensors-Dateien
//
// Dateiformat:
// - 8 Byte Little-Endian: Laenge N des JSON-Headers
// - N Byte JSON-Header: Tensor-Name -> {dtype, shape, data_offsets}
// - Rohdaten, adressiert ueber data_offsets relativ zum Datenbeginn
//
// Unterstuetzte Datentypen: F32, F16, BF16. Alle Werte werden beim
// Lesen zu float32 dekodiert; geschrieben wird ausschliesslich F32.
package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// Unterstuetzte dtype-Bezeichner
const (
	F32  = "F32"
	F16  = "F16"
	BF16 = "BF16"
)

// maxHeaderSize begrenzt den JSON-Header auf eine plausible Groesse
const maxHeaderSize = 100 * 1024 * 1024

// Format-Fehler
var (
	ErrInvalidHeader    = errors.New("safetensors: invalid header")
	ErrUnsupportedDType = errors.New("safetensors: unsupported dtype")
	ErrBadOffsets       = errors.New("safetensors: bad data offsets")
)

// Tensor ist ein dekodierter Tensor mit float32-Daten
type Tensor struct {
	DType string
	Shape []int
	Data  []float32
}

// tensorHeader ist der JSON-Eintrag eines Tensors im Datei-Header
type tensorHeader struct {
	DType       string    `json:"dtype"`
	Shape       []int     `json:"shape"`
	DataOffsets [2]uint64 `json:"data_offsets"`
}

// dtypeSize gibt die Byte-Groesse eines Elements zurueck
func dtypeSize(dtype string) (int, error) {
	switch dtype {
	case F32:
		return 4, nil
	case F16, BF16:
		return 2, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnsupportedDType, dtype)
	}
}

// ReadFile liest alle Tensoren einer safetensors-Datei
func ReadFile(path string) (map[string]Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}

// Read liest alle Tensoren aus einem Reader
func Read(r io.Reader) (map[string]Tensor, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if headerSize == 0 || headerSize > maxHeaderSize {
		return nil, fmt.Errorf("%w: header size %d", ErrInvalidHeader, headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerBytes, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	headers := make(map[string]tensorHeader, len(raw))
	var dataSize uint64
	for name, msg := range raw {
		if name == "__metadata__" {
			continue
		}

		var th tensorHeader
		if err := json.Unmarshal(msg, &th); err != nil {
			return nil, fmt.Errorf("%w: tensor %q: %v", ErrInvalidHeader, name, err)
		}

		elemSize, err := dtypeSize(th.DType)
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", name, err)
		}

		numel := 1
		for _, d := range th.Shape {
			if d <= 0 {
				return nil, fmt.Errorf("%w: tensor %q: dimension %d", ErrInvalidHeader, name, d)
			}
			numel *= d
		}

		start, end := th.DataOffsets[0], th.DataOffsets[1]
		if end < start || end-start != uint64(numel*elemSize) {
			return nil, fmt.Errorf("%w: tensor %q: [%d, %d)", ErrBadOffsets, name, start, end)
		}
		if end > dataSize {
			dataSize = end
		}

		headers[name] = th
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) < dataSize {
		return nil, fmt.Errorf("%w: data section %d bytes, header expects %d", ErrBadOffsets, len(data), dataSize)
	}

	tensors := make(map[string]Tensor, len(headers))
	for name, th := range headers {
		values, err := decode(th.DType, data[th.DataOffsets[0]:th.DataOffsets[1]])
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", name, err)
		}

		tensors[name] = Tensor{
			DType: th.DType,
			Shape: th.Shape,
			Data:  values,
		}
	}
	return tensors, nil
}

// decode dekodiert Rohdaten eines dtypes zu float32
func decode(dtype string, raw []byte) ([]float32, error) {
	switch dtype {
	case F32:
		out := make([]float32, len(raw)/4)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		return out, nil
	case F16:
		out := make([]float32, len(raw)/2)
		for i := range out {
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(raw[i*2:])).Float32()
		}
		return out, nil
	case BF16:
		return bfloat16.DecodeFloat32(raw), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedDType, dtype)
	}
}

// WriteFile schreibt Tensoren als safetensors-Datei. Die Daten werden
// in Namens-Reihenfolge abgelegt, der Header nennt die Offsets.
func WriteFile(path string, tensors map[string]Tensor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Write(f, tensors); err != nil {
		return err
	}
	return f.Close()
}

// Write schreibt Tensoren in einen Writer
func Write(w io.Writer, tensors map[string]Tensor) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(tensors)+1)
	header["__metadata__"] = map[string]string{"format": "pt"}

	var offset uint64
	for _, name := range names {
		t := tensors[name]
		if t.DType != F32 {
			return fmt.Errorf("tensor %q: %w %q for writing", name, ErrUnsupportedDType, t.DType)
		}

		numel := 1
		for _, d := range t.Shape {
			numel *= d
		}
		if numel != len(t.Data) {
			return fmt.Errorf("%w: tensor %q: shape %v but %d values", ErrBadOffsets, name, t.Shape, len(t.Data))
		}

		size := uint64(numel) * 4
		header[name] = tensorHeader{
			DType:       F32,
			Shape:       t.Shape,
			DataOffsets: [2]uint64{offset, offset + size},
		}
		offset += size
	}

	headerBytes, err := json.Marshal(header)
	if err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerBytes))); err != nil {
		return err
	}
	if _, err := w.Write(headerBytes); err != nil {
		return err
	}

	for _, name := range names {
		data := tensors[name].Data
		buf := make([]byte, len(data)*4)
		for i, v := range data {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
