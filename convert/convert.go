// Package convert - Konvertiert PyTorch-BERT-Checkpoints zu safetensors
//
// Hauptfunktionen:
// - Convert: Liest einen Torch-Checkpoint und schreibt safetensors
// - tensorName: Uebersetzt Torch-Tensornamen in kanonische Namen
//
// Torch speichert Linear-Gewichte als [out, in]; beim Konvertieren
// werden Kernel zu [in, out] transponiert. Die Heads fuer MLM/NSP
// (cls.*) werden verworfen, der Encoder traegt sie nicht.
package convert

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"
	"github.com/pdevine/tensor"

	"github.com/nlpgo/bert/fs/safetensors"
)

// Konvertierungs-Fehler
var (
	ErrNotStateDict     = errors.New("convert: checkpoint is not a state dict")
	ErrUnsupportedValue = errors.New("convert: unsupported tensor storage")
	ErrUnknownTensor    = errors.New("convert: unmapped tensor name")
)

// renames uebersetzt Torch-Namen in kanonische Namen. Die Reihenfolge
// ist signifikant: der erste passende Eintrag gewinnt.
var renames = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`^embeddings\.word_embeddings\.weight$`), "token_embedding.embeddings"},
	{regexp.MustCompile(`^embeddings\.position_embeddings\.weight$`), "position_embedding.embeddings"},
	{regexp.MustCompile(`^embeddings\.token_type_embeddings\.weight$`), "segment_embedding.embeddings"},
	{regexp.MustCompile(`^embeddings\.LayerNorm\.(?:gamma|weight)$`), "embeddings_layer_norm.gamma"},
	{regexp.MustCompile(`^embeddings\.LayerNorm\.(?:beta|bias)$`), "embeddings_layer_norm.beta"},
	{regexp.MustCompile(`^encoder\.layer\.(\d+)\.attention\.self\.query\.(weight|bias)$`), "transformer_layer.$1.attention_query.$2"},
	{regexp.MustCompile(`^encoder\.layer\.(\d+)\.attention\.self\.key\.(weight|bias)$`), "transformer_layer.$1.attention_key.$2"},
	{regexp.MustCompile(`^encoder\.layer\.(\d+)\.attention\.self\.value\.(weight|bias)$`), "transformer_layer.$1.attention_value.$2"},
	{regexp.MustCompile(`^encoder\.layer\.(\d+)\.attention\.output\.dense\.(weight|bias)$`), "transformer_layer.$1.attention_output.$2"},
	{regexp.MustCompile(`^encoder\.layer\.(\d+)\.attention\.output\.LayerNorm\.(?:gamma|weight)$`), "transformer_layer.$1.attention_norm.gamma"},
	{regexp.MustCompile(`^encoder\.layer\.(\d+)\.attention\.output\.LayerNorm\.(?:beta|bias)$`), "transformer_layer.$1.attention_norm.beta"},
	{regexp.MustCompile(`^encoder\.layer\.(\d+)\.intermediate\.dense\.(weight|bias)$`), "transformer_layer.$1.ffn_intermediate.$2"},
	{regexp.MustCompile(`^encoder\.layer\.(\d+)\.output\.dense\.(weight|bias)$`), "transformer_layer.$1.ffn_output.$2"},
	{regexp.MustCompile(`^encoder\.layer\.(\d+)\.output\.LayerNorm\.(?:gamma|weight)$`), "transformer_layer.$1.ffn_norm.gamma"},
	{regexp.MustCompile(`^encoder\.layer\.(\d+)\.output\.LayerNorm\.(?:beta|bias)$`), "transformer_layer.$1.ffn_norm.beta"},
	{regexp.MustCompile(`^pooler\.dense\.(weight|bias)$`), "pooled_dense.$1"},
}

// tensorName uebersetzt einen Torch-Tensornamen in den kanonischen
// Namen. Das zweite Ergebnis ist false fuer verworfene Tensoren.
func tensorName(torchName string) (string, bool, error) {
	name := strings.TrimPrefix(torchName, "bert.")
	if strings.HasPrefix(name, "cls.") {
		return "", false, nil
	}

	for _, r := range renames {
		if r.pattern.MatchString(name) {
			mapped := r.pattern.ReplaceAllString(name, r.repl)
			mapped = strings.Replace(mapped, ".weight", ".kernel", 1)
			return mapped, true, nil
		}
	}
	return "", false, fmt.Errorf("%w %q", ErrUnknownTensor, torchName)
}

// needsTranspose meldet, ob ein kanonischer Name ein Linear-Kernel
// im Torch-Layout [out, in] ist
func needsTranspose(name string) bool {
	return strings.HasSuffix(name, ".kernel")
}

// Convert liest einen PyTorch-Checkpoint und schreibt die Gewichte
// als safetensors-Datei mit kanonischen Namen
func Convert(inputPath, outputPath string) error {
	checkpoint, err := pytorch.Load(inputPath)
	if err != nil {
		return fmt.Errorf("laden %s: %w", inputPath, err)
	}

	entries, err := stateDict(checkpoint)
	if err != nil {
		return err
	}

	out := make(map[string]safetensors.Tensor, len(entries))
	for torchName, value := range entries {
		name, keep, err := tensorName(torchName)
		if err != nil {
			return err
		}
		if !keep {
			slog.Debug("verwerfe tensor", "name", torchName)
			continue
		}

		t, ok := value.(*pytorch.Tensor)
		if !ok {
			return fmt.Errorf("%w: %s is %T", ErrUnsupportedValue, torchName, value)
		}

		shape, data, err := tensorData(t)
		if err != nil {
			return fmt.Errorf("tensor %s: %w", torchName, err)
		}

		if needsTranspose(name) && len(shape) == 2 {
			shape, data, err = transpose(shape, data)
			if err != nil {
				return fmt.Errorf("tensor %s: %w", torchName, err)
			}
		}

		slog.Debug("konvertiere tensor", "from", torchName, "to", name, "shape", shape)
		out[name] = safetensors.Tensor{DType: safetensors.F32, Shape: shape, Data: data}
	}

	if len(out) == 0 {
		return fmt.Errorf("%w: no tensors found in %s", ErrNotStateDict, inputPath)
	}

	slog.Info("checkpoint konvertiert", "input", inputPath, "output", outputPath, "tensors", len(out))
	return safetensors.WriteFile(outputPath, out)
}

// stateDict entpackt das State-Dict eines Checkpoints. Sowohl Dict als
// auch OrderedDict kommen in freier Wildbahn vor.
func stateDict(checkpoint any) (map[string]any, error) {
	entries := make(map[string]any)

	switch d := checkpoint.(type) {
	case *types.Dict:
		for _, entry := range *d {
			key, ok := entry.Key.(string)
			if !ok {
				return nil, fmt.Errorf("%w: key %v", ErrNotStateDict, entry.Key)
			}
			entries[key] = entry.Value
		}
	case *types.OrderedDict:
		for key, entry := range d.Map {
			name, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("%w: key %v", ErrNotStateDict, key)
			}
			entries[name] = entry.Value
		}
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotStateDict, checkpoint)
	}
	return entries, nil
}

// tensorData extrahiert Form und float32-Daten eines Torch-Tensors
func tensorData(t *pytorch.Tensor) ([]int, []float32, error) {
	numel := 1
	shape := make([]int, len(t.Size))
	for i, d := range t.Size {
		shape[i] = d
		numel *= d
	}

	var source []float32
	switch storage := t.Source.(type) {
	case *pytorch.FloatStorage:
		source = storage.Data
	case *pytorch.HalfStorage:
		source = storage.Data
	case *pytorch.BFloat16Storage:
		source = storage.Data
	case *pytorch.DoubleStorage:
		source = make([]float32, len(storage.Data))
		for i, v := range storage.Data {
			source[i] = float32(v)
		}
	default:
		return nil, nil, fmt.Errorf("%w %T", ErrUnsupportedValue, t.Source)
	}

	if t.StorageOffset+numel > len(source) {
		return nil, nil, fmt.Errorf("%w: storage too small for shape %v", ErrUnsupportedValue, shape)
	}

	data := make([]float32, numel)
	copy(data, source[t.StorageOffset:t.StorageOffset+numel])
	return shape, data, nil
}

// transpose dreht eine [out, in]-Matrix zu [in, out]
func transpose(shape []int, data []float32) ([]int, []float32, error) {
	n := tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data))
	if err := n.T(1, 0); err != nil {
		return nil, nil, err
	}
	if err := n.Transpose(); err != nil {
		return nil, nil, err
	}

	out, ok := n.Data().([]float32)
	if !ok {
		return nil, nil, fmt.Errorf("%w: transpose yielded %T", ErrUnsupportedValue, n.Data())
	}
	return []int{shape[1], shape[0]}, out, nil
}
