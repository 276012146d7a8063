// model_test.go - Tests fuer Konfiguration und Forward-Pass
package bert

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nlpgo/bert/ml"
	"github.com/nlpgo/bert/model"
)

// testConfig ist klein genug fuer schnelle Tests
func testConfig() Config {
	return Config{
		VocabularySize:    100,
		NumLayers:         2,
		NumHeads:          2,
		HiddenDim:         8,
		IntermediateDim:   16,
		Dropout:           0.1,
		MaxSequenceLength: 128,
		NumSegments:       2,
		Seed:              1,
	}
}

// testBatch erstellt einen Batch mit padFrom gepaddeten Positionen am Ende
func testBatch(batchSize, seqLen, padFrom int) model.Batch {
	batch := model.Batch{
		TokenIDs:    make([][]int32, batchSize),
		SegmentIDs:  make([][]int32, batchSize),
		PaddingMask: make([][]int32, batchSize),
	}
	for b := 0; b < batchSize; b++ {
		batch.TokenIDs[b] = make([]int32, seqLen)
		batch.SegmentIDs[b] = make([]int32, seqLen)
		batch.PaddingMask[b] = make([]int32, seqLen)
		for s := 0; s < seqLen; s++ {
			if s < padFrom {
				batch.TokenIDs[b][s] = int32((b*7+s)%97 + 1)
				batch.PaddingMask[b][s] = 1
			}
			if s >= padFrom/2 {
				batch.SegmentIDs[b][s] = 1
			}
		}
	}
	return batch
}

func TestConfigValidate(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*Config)
	}{
		{"vocabulary_size null", func(c *Config) { c.VocabularySize = 0 }},
		{"num_layers negativ", func(c *Config) { c.NumLayers = -1 }},
		{"num_heads null", func(c *Config) { c.NumHeads = 0 }},
		{"hidden_dim null", func(c *Config) { c.HiddenDim = 0 }},
		{"hidden nicht durch heads teilbar", func(c *Config) { c.HiddenDim = 10; c.NumHeads = 3 }},
		{"intermediate_dim null", func(c *Config) { c.IntermediateDim = 0 }},
		{"dropout negativ", func(c *Config) { c.Dropout = -0.1 }},
		{"dropout eins", func(c *Config) { c.Dropout = 1 }},
		{"max_sequence_length null", func(c *Config) { c.MaxSequenceLength = 0 }},
		{"num_segments null", func(c *Config) { c.NumSegments = 0 }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			_, err := New(cfg)
			var cfgErr *model.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("New() Fehler = %v, erwartet ConfigError", err)
			}
		})
	}

	if err := testConfig().Validate(); err != nil {
		t.Errorf("Validate() = %v, erwartet nil", err)
	}
}

func TestForwardShapes(t *testing.T) {
	m, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() Fehler = %v", err)
	}
	ctx := ml.NewContext()

	for _, seqLen := range []int{25, 50, 75} {
		batch := testBatch(3, seqLen, seqLen-4)

		out, err := m.Forward(ctx, batch)
		if err != nil {
			t.Fatalf("Forward(seqLen=%d) Fehler = %v", seqLen, err)
		}

		wantSeq := []int{3, seqLen, 8}
		if diff := cmp.Diff(wantSeq, out.SequenceOutput.Shape()); diff != "" {
			t.Errorf("SequenceOutput Form (-erwartet +erhalten):\n%s", diff)
		}
		wantPooled := []int{3, 8}
		if diff := cmp.Diff(wantPooled, out.PooledOutput.Shape()); diff != "" {
			t.Errorf("PooledOutput Form (-erwartet +erhalten):\n%s", diff)
		}

		for _, v := range out.SequenceOutput.Data() {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("SequenceOutput enthaelt %v", v)
			}
		}
		for _, v := range out.PooledOutput.Data() {
			if v < -1 || v > 1 {
				t.Errorf("PooledOutput Wert %v ausserhalb [-1, 1]", v)
			}
		}
	}
}

func TestForwardDeterministisch(t *testing.T) {
	batch := testBatch(2, 16, 12)

	var first []float32
	for i := 0; i < 2; i++ {
		m, err := New(testConfig())
		if err != nil {
			t.Fatalf("New() Fehler = %v", err)
		}

		out, err := m.Forward(ml.NewContext(), batch)
		if err != nil {
			t.Fatalf("Forward() Fehler = %v", err)
		}

		if first == nil {
			first = out.PooledOutput.Data()
			continue
		}
		if diff := cmp.Diff(first, out.PooledOutput.Data()); diff != "" {
			t.Errorf("PooledOutput nicht deterministisch (-erster +zweiter):\n%s", diff)
		}
	}
}

// Gepaddete Token duerfen die Ausgaben der echten Positionen nicht
// beeinflussen: andere Token-IDs unter der Maske, gleiche Ausgabe
func TestForwardPaddingMaske(t *testing.T) {
	m, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() Fehler = %v", err)
	}
	ctx := ml.NewContext()

	batchA := testBatch(1, 16, 10)
	batchB := testBatch(1, 16, 10)
	for s := 10; s < 16; s++ {
		batchB.TokenIDs[0][s] = 99
	}

	outA, err := m.Forward(ctx, batchA)
	if err != nil {
		t.Fatalf("Forward(A) Fehler = %v", err)
	}
	outB, err := m.Forward(ctx, batchB)
	if err != nil {
		t.Fatalf("Forward(B) Fehler = %v", err)
	}

	if diff := cmp.Diff(outA.PooledOutput.Data(), outB.PooledOutput.Data()); diff != "" {
		t.Errorf("PooledOutput haengt von gepaddeten Token ab (-A +B):\n%s", diff)
	}

	hidden := m.cfg.HiddenDim
	seqA := outA.SequenceOutput.Data()
	seqB := outB.SequenceOutput.Data()
	for s := 0; s < 10; s++ {
		for h := 0; h < hidden; h++ {
			if seqA[s*hidden+h] != seqB[s*hidden+h] {
				t.Fatalf("SequenceOutput[%d][%d]: %v != %v", s, h, seqA[s*hidden+h], seqB[s*hidden+h])
			}
		}
	}
}

func TestForwardSequenzZuLang(t *testing.T) {
	m, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() Fehler = %v", err)
	}

	batch := testBatch(1, 129, 129)
	_, err = m.Forward(ml.NewContext(), batch)

	var shapeErr *model.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("Forward() Fehler = %v, erwartet ShapeError", err)
	}
	if shapeErr.Name != "position_embedding" {
		t.Errorf("ShapeError.Name = %q, erwartet position_embedding", shapeErr.Name)
	}
}

func TestParametersNamen(t *testing.T) {
	m, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() Fehler = %v", err)
	}
	params := m.Parameters()

	// 3 Embeddings + 2 Embedding-Norm + 2 Pooler + 16 pro Layer
	wantCount := 7 + 16*testConfig().NumLayers
	if len(params) != wantCount {
		t.Errorf("len(Parameters()) = %d, erwartet %d", len(params), wantCount)
	}

	wantNames := []string{
		"token_embedding.embeddings",
		"position_embedding.embeddings",
		"segment_embedding.embeddings",
		"embeddings_layer_norm.gamma",
		"embeddings_layer_norm.beta",
		"transformer_layer.0.attention_query.kernel",
		"transformer_layer.1.ffn_output.bias",
		"transformer_layer.1.ffn_norm.gamma",
		"pooled_dense.bias",
	}
	for _, name := range wantNames {
		if _, ok := params[name]; !ok {
			t.Errorf("Parameters() enthaelt %q nicht", name)
		}
	}

	wantShape := []int{100, 8}
	if diff := cmp.Diff(wantShape, params["token_embedding.embeddings"].Shape()); diff != "" {
		t.Errorf("token_embedding Form (-erwartet +erhalten):\n%s", diff)
	}
}

func TestRegistryKonstruktion(t *testing.T) {
	m, err := model.New("bert", testConfig())
	if err != nil {
		t.Fatalf("model.New(bert) Fehler = %v", err)
	}
	if _, ok := m.(*Model); !ok {
		t.Errorf("model.New(bert) = %T, erwartet *bert.Model", m)
	}

	_, err = model.New("gpt", testConfig())
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("model.New(gpt) Fehler = %v, erwartet ConfigError", err)
	}
}
