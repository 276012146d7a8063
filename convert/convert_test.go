// convert_test.go - Tests fuer Namens-Mapping und Transposition
package convert

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTensorName(t *testing.T) {
	tests := []struct {
		torch string
		want  string
		keep  bool
	}{
		{"bert.embeddings.word_embeddings.weight", "token_embedding.embeddings", true},
		{"bert.embeddings.position_embeddings.weight", "position_embedding.embeddings", true},
		{"bert.embeddings.token_type_embeddings.weight", "segment_embedding.embeddings", true},
		{"bert.embeddings.LayerNorm.gamma", "embeddings_layer_norm.gamma", true},
		{"bert.embeddings.LayerNorm.weight", "embeddings_layer_norm.gamma", true},
		{"bert.embeddings.LayerNorm.beta", "embeddings_layer_norm.beta", true},
		{"bert.encoder.layer.0.attention.self.query.weight", "transformer_layer.0.attention_query.kernel", true},
		{"bert.encoder.layer.3.attention.self.key.bias", "transformer_layer.3.attention_key.bias", true},
		{"bert.encoder.layer.11.attention.self.value.weight", "transformer_layer.11.attention_value.kernel", true},
		{"bert.encoder.layer.2.attention.output.dense.weight", "transformer_layer.2.attention_output.kernel", true},
		{"bert.encoder.layer.2.attention.output.LayerNorm.weight", "transformer_layer.2.attention_norm.gamma", true},
		{"bert.encoder.layer.2.attention.output.LayerNorm.bias", "transformer_layer.2.attention_norm.beta", true},
		{"bert.encoder.layer.5.intermediate.dense.weight", "transformer_layer.5.ffn_intermediate.kernel", true},
		{"bert.encoder.layer.5.output.dense.bias", "transformer_layer.5.ffn_output.bias", true},
		{"bert.encoder.layer.5.output.LayerNorm.gamma", "transformer_layer.5.ffn_norm.gamma", true},
		{"bert.pooler.dense.weight", "pooled_dense.kernel", true},
		{"bert.pooler.dense.bias", "pooled_dense.bias", true},
		// Checkpoints ohne bert.-Praefix
		{"encoder.layer.0.attention.self.query.weight", "transformer_layer.0.attention_query.kernel", true},
		// Trainings-Heads werden verworfen
		{"cls.predictions.transform.dense.weight", "", false},
		{"cls.seq_relationship.bias", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.torch, func(t *testing.T) {
			got, keep, err := tensorName(tt.torch)
			if err != nil {
				t.Fatalf("tensorName(%q) Fehler = %v", tt.torch, err)
			}
			if keep != tt.keep || got != tt.want {
				t.Errorf("tensorName(%q) = (%q, %v), erwartet (%q, %v)", tt.torch, got, keep, tt.want, tt.keep)
			}
		})
	}
}

func TestTensorNameUnbekannt(t *testing.T) {
	_, _, err := tensorName("bert.encoder.layer.0.attention.self.query.running_mean")
	if !errors.Is(err, ErrUnknownTensor) {
		t.Errorf("tensorName() Fehler = %v, erwartet ErrUnknownTensor", err)
	}
}

func TestNeedsTranspose(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"transformer_layer.0.attention_query.kernel", true},
		{"pooled_dense.kernel", true},
		{"pooled_dense.bias", false},
		{"token_embedding.embeddings", false},
		{"embeddings_layer_norm.gamma", false},
	}

	for _, tt := range tests {
		if got := needsTranspose(tt.name); got != tt.want {
			t.Errorf("needsTranspose(%q) = %v, erwartet %v", tt.name, got, tt.want)
		}
	}
}

func TestTranspose(t *testing.T) {
	// [2, 3] Zeilen-major -> [3, 2]
	shape, data, err := transpose([]int{2, 3}, []float32{
		1, 2, 3,
		4, 5, 6,
	})
	if err != nil {
		t.Fatalf("transpose() Fehler = %v", err)
	}

	if diff := cmp.Diff([]int{3, 2}, shape); diff != "" {
		t.Errorf("Form (-erwartet +erhalten):\n%s", diff)
	}
	want := []float32{
		1, 4,
		2, 5,
		3, 6,
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("Daten (-erwartet +erhalten):\n%s", diff)
	}
}
