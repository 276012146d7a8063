// Package bert - Bidirektionaler Transformer-Encoder
//
// Diese Datei enthaelt:
// - Config: Konfigurationsparameter des Encoders
// - Model: Hauptstruktur mit Embeddings, Layern und Pooler
// - New: Erstellt ein neues Modell aus der Konfiguration
// - Forward: Fuehrt den Vorwaertsdurchlauf des gesamten Modells durch
//
// Der Encoder implementiert die klassische BERT-Architektur:
// Token-, Positions- und Segment-Embeddings, ein Stapel von
// Self-Attention/Feed-Forward Bloecken und zwei Ausgaben
// (sequence_output, pooled_output).
package bert

import (
	"math/rand"

	"github.com/nlpgo/bert/ml"
	"github.com/nlpgo/bert/ml/nn"
	"github.com/nlpgo/bert/model"
)

// layerNormEps ist das Epsilon aller LayerNorm-Schichten
const layerNormEps = 1e-12

// Config enthaelt alle Konfigurationsparameter des Encoders.
// Nach der Konstruktion eines Modells ist die Konfiguration unveraenderlich.
type Config struct {
	VocabularySize    int     `json:"vocabulary_size"`
	NumLayers         int     `json:"num_layers"`
	NumHeads          int     `json:"num_heads"`
	HiddenDim         int     `json:"hidden_dim"`
	IntermediateDim   int     `json:"intermediate_dim"`
	Dropout           float32 `json:"dropout"`
	MaxSequenceLength int     `json:"max_sequence_length"`
	NumSegments       int     `json:"num_segments"`

	// Seed bestimmt die Initialisierung neuer Gewichte. Die Konstruktion
	// enthaelt keine weitere Zufaelligkeit.
	Seed int64 `json:"-"`
}

// Validate prueft alle Invarianten der Konfiguration
func (c Config) Validate() error {
	switch {
	case c.VocabularySize <= 0:
		return model.Configf("vocabulary_size must be positive, got %d", c.VocabularySize)
	case c.NumLayers <= 0:
		return model.Configf("num_layers must be positive, got %d", c.NumLayers)
	case c.NumHeads <= 0:
		return model.Configf("num_heads must be positive, got %d", c.NumHeads)
	case c.HiddenDim <= 0:
		return model.Configf("hidden_dim must be positive, got %d", c.HiddenDim)
	case c.HiddenDim%c.NumHeads != 0:
		return model.Configf("hidden_dim %d must be divisible by num_heads %d", c.HiddenDim, c.NumHeads)
	case c.IntermediateDim <= 0:
		return model.Configf("intermediate_dim must be positive, got %d", c.IntermediateDim)
	case c.Dropout < 0 || c.Dropout >= 1:
		return model.Configf("dropout must be in [0, 1), got %v", c.Dropout)
	case c.MaxSequenceLength <= 0:
		return model.Configf("max_sequence_length must be positive, got %d", c.MaxSequenceLength)
	case c.NumSegments < 1:
		return model.Configf("num_segments must be at least 1, got %d", c.NumSegments)
	}
	return nil
}

// NumParameters gibt die Gesamtzahl der Modell-Parameter zurueck
func (c Config) NumParameters() int {
	embeddings := (c.VocabularySize + c.MaxSequenceLength + c.NumSegments) * c.HiddenDim
	embeddingsNorm := 2 * c.HiddenDim

	attention := 4 * (c.HiddenDim*c.HiddenDim + c.HiddenDim)
	ffn := 2*c.HiddenDim*c.IntermediateDim + c.IntermediateDim + c.HiddenDim
	norms := 4 * c.HiddenDim
	perLayer := attention + ffn + norms

	pooler := c.HiddenDim*c.HiddenDim + c.HiddenDim

	return embeddings + embeddingsNorm + c.NumLayers*perLayer + pooler
}

// Model repraesentiert den vollstaendigen BERT-Encoder
type Model struct {
	TokenEmbedding    *nn.Embedding `weights:"token_embedding"`
	PositionEmbedding *nn.Embedding `weights:"position_embedding"`
	SegmentEmbedding  *nn.Embedding `weights:"segment_embedding"`
	EmbeddingsNorm    *nn.LayerNorm `weights:"embeddings_layer_norm"`
	EmbeddingsDropout *nn.Dropout

	Layers []*EncoderLayer `weights:"transformer_layer"`

	PooledDense *nn.Linear `weights:"pooled_dense"`

	cfg    Config
	params map[string]*ml.Tensor
}

// New erstellt ein neues BERT-Modell aus der gegebenen Konfiguration.
// Die Konstruktion ist reiner Graph-Aufbau: kein I/O, keine Zufaelligkeit
// ausser der Seed-gesteuerten Gewichts-Initialisierung.
func New(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	layers := make([]*EncoderLayer, cfg.NumLayers)
	for i := range layers {
		layers[i] = newEncoderLayer(cfg, rng)
	}

	m := &Model{
		TokenEmbedding:    nn.NewEmbedding(cfg.VocabularySize, cfg.HiddenDim, rng),
		PositionEmbedding: nn.NewEmbedding(cfg.MaxSequenceLength, cfg.HiddenDim, rng),
		SegmentEmbedding:  nn.NewEmbedding(cfg.NumSegments, cfg.HiddenDim, rng),
		EmbeddingsNorm:    nn.NewLayerNorm(cfg.HiddenDim),
		EmbeddingsDropout: nn.NewDropout(cfg.Dropout),
		Layers:            layers,
		PooledDense:       nn.NewLinear(cfg.HiddenDim, cfg.HiddenDim, rng),
		cfg:               cfg,
	}
	m.params = model.NamedTensors(m)

	return m, nil
}

// Config gibt die Konfiguration des Modells zurueck
func (m *Model) Config() Config {
	return m.cfg
}

// Parameters gibt die benannte Parameter-Menge zurueck.
// Die Map ist nach der Konstruktion nur-lesend.
func (m *Model) Parameters() map[string]*ml.Tensor {
	return m.params
}

// Forward fuehrt einen kompletten Forward-Pass durch das Modell aus
func (m *Model) Forward(ctx *ml.Context, batch model.Batch) (model.Outputs, error) {
	if err := batch.Validate(m.cfg.VocabularySize, m.cfg.NumSegments); err != nil {
		return model.Outputs{}, err
	}

	batchSize, seqLen := batch.Dims()
	if seqLen > m.cfg.MaxSequenceLength {
		return model.Outputs{}, &model.ShapeError{
			Name: "position_embedding",
			Want: []int{m.cfg.MaxSequenceLength},
			Got:  []int{seqLen},
		}
	}

	hiddenStates := m.embed(ctx, batch, batchSize, seqLen)

	// Additive Attention-Maske: gepaddete Key-Positionen bekommen eine
	// grosse negative Verschiebung vor der Softmax
	maskBias := paddingBias(batch.PaddingMask)

	for _, layer := range m.Layers {
		var err error
		hiddenStates, err = layer.Forward(ctx, hiddenStates, maskBias, batchSize, seqLen, m.cfg)
		if err != nil {
			return model.Outputs{}, err
		}
	}

	pooled := m.pool(ctx, hiddenStates, batchSize, seqLen)

	sequence := hiddenStates.Reshape(batchSize, seqLen, m.cfg.HiddenDim)
	sequence.SetName("sequence_output")

	return model.Outputs{SequenceOutput: sequence, PooledOutput: pooled}, nil
}

// embed kombiniert Token-, Positions- und Segment-Embeddings:
// elementweise Summe, LayerNorm, Dropout
func (m *Model) embed(ctx *ml.Context, batch model.Batch, batchSize, seqLen int) *ml.Tensor {
	tokenIDs := flatten(batch.TokenIDs)
	segmentIDs := flatten(batch.SegmentIDs)

	hiddenStates := m.TokenEmbedding.Forward(ctx, tokenIDs)
	ml.Add(hiddenStates, m.SegmentEmbedding.Forward(ctx, segmentIDs))

	positions := m.PositionEmbedding.Slice(seqLen)
	for b := 0; b < batchSize; b++ {
		ml.Add(hiddenStates.Rows(b*seqLen, (b+1)*seqLen), positions)
	}

	hiddenStates = m.EmbeddingsNorm.Forward(ctx, hiddenStates, layerNormEps)
	return m.EmbeddingsDropout.Forward(ctx, hiddenStates)
}

// pool berechnet die gepoolte Ausgabe: tanh(dense) ueber dem versteckten
// Zustand des Klassifikations-Tokens an Position 0 jeder Sequenz.
// Dass Position 0 das Klassifikations-Token traegt, ist Aufrufer-Vertrag.
func (m *Model) pool(ctx *ml.Context, hiddenStates *ml.Tensor, batchSize, seqLen int) *ml.Tensor {
	cls := ml.NewTensor("", batchSize, m.cfg.HiddenDim)
	for b := 0; b < batchSize; b++ {
		ml.SetCols(cls.Rows(b, b+1), hiddenStates.Rows(b*seqLen, b*seqLen+1), 0)
	}

	pooled := ml.Tanh(m.PooledDense.Forward(ctx, cls))
	pooled.SetName("pooled_output")
	return pooled
}

// flatten verkettet die Zeilen eines 2D-Arrays
func flatten(rows [][]int32) []int32 {
	out := make([]int32, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}

// paddingBias uebersetzt die Padding-Maske in additive Logit-Verschiebungen
func paddingBias(mask [][]int32) [][]float32 {
	bias := make([][]float32, len(mask))
	for i, row := range mask {
		bias[i] = make([]float32, len(row))
		for j, v := range row {
			if v == 0 {
				bias[i][j] = -1e9
			}
		}
	}
	return bias
}
