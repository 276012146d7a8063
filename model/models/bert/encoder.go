// encoder.go - Transformer Encoder-Block
//
// Ein Block besteht aus zwei Teilschritten, jeweils mit Residual-Addition
// und LayerNorm danach:
//  1. Multi-Head Self-Attention mit additiver Padding-Maske und Dropout
//     auf den Attention-Gewichten
//  2. Feed-Forward: dense(intermediate) -> GELU -> dense(hidden) -> Dropout
//
// Jeder Block ist unabhaengig parameterisiert; der Stapel in model.go
// wendet num_layers Bloecke nacheinander an.
package bert

import (
	"math"
	"math/rand"

	"github.com/nlpgo/bert/ml"
	"github.com/nlpgo/bert/ml/nn"
)

// EncoderLayer ist ein einzelner Transformer-Block
type EncoderLayer struct {
	Query           *nn.Linear    `weights:"attention_query"`
	Key             *nn.Linear    `weights:"attention_key"`
	Value           *nn.Linear    `weights:"attention_value"`
	AttentionOutput *nn.Linear    `weights:"attention_output"`
	AttentionNorm   *nn.LayerNorm `weights:"attention_norm"`

	Intermediate *nn.Linear    `weights:"ffn_intermediate"`
	FFNOutput    *nn.Linear    `weights:"ffn_output"`
	FFNNorm      *nn.LayerNorm `weights:"ffn_norm"`

	AttentionDropout *nn.Dropout
	OutputDropout    *nn.Dropout
}

// newEncoderLayer erstellt einen Block mit eigener Parameterisierung
func newEncoderLayer(cfg Config, rng *rand.Rand) *EncoderLayer {
	return &EncoderLayer{
		Query:           nn.NewLinear(cfg.HiddenDim, cfg.HiddenDim, rng),
		Key:             nn.NewLinear(cfg.HiddenDim, cfg.HiddenDim, rng),
		Value:           nn.NewLinear(cfg.HiddenDim, cfg.HiddenDim, rng),
		AttentionOutput: nn.NewLinear(cfg.HiddenDim, cfg.HiddenDim, rng),
		AttentionNorm:   nn.NewLayerNorm(cfg.HiddenDim),

		Intermediate: nn.NewLinear(cfg.HiddenDim, cfg.IntermediateDim, rng),
		FFNOutput:    nn.NewLinear(cfg.IntermediateDim, cfg.HiddenDim, rng),
		FFNNorm:      nn.NewLayerNorm(cfg.HiddenDim),

		AttentionDropout: nn.NewDropout(cfg.Dropout),
		OutputDropout:    nn.NewDropout(cfg.Dropout),
	}
}

// Forward fuehrt einen Block-Forward-Pass auf der 2D-Sicht
// [batch*seq, hidden] durch und gibt einen Tensor derselben Form zurueck
func (l *EncoderLayer) Forward(ctx *ml.Context, hiddenStates *ml.Tensor, maskBias [][]float32, batchSize, seqLen int, cfg Config) (*ml.Tensor, error) {
	attention, err := l.selfAttention(ctx, hiddenStates, maskBias, batchSize, seqLen, cfg)
	if err != nil {
		return nil, err
	}

	attention = l.OutputDropout.Forward(ctx, attention)
	ml.Add(attention, hiddenStates)
	attention = l.AttentionNorm.Forward(ctx, attention, layerNormEps)

	intermediate := ml.GELU(l.Intermediate.Forward(ctx, attention))
	output := l.FFNOutput.Forward(ctx, intermediate)
	output = l.OutputDropout.Forward(ctx, output)
	ml.Add(output, attention)
	return l.FFNNorm.Forward(ctx, output, layerNormEps), nil
}

// selfAttention berechnet die Multi-Head Self-Attention mit Maskierung.
// Im Inferenz-Modus werden die Sequenzen des Batches parallel berechnet;
// im Trainings-Modus laeuft die Schleife seriell, weil die Dropout-Quelle
// nicht goroutine-sicher ist.
func (l *EncoderLayer) selfAttention(ctx *ml.Context, hiddenStates *ml.Tensor, maskBias [][]float32, batchSize, seqLen int, cfg Config) (*ml.Tensor, error) {
	query := l.Query.Forward(ctx, hiddenStates)
	key := l.Key.Forward(ctx, hiddenStates)
	value := l.Value.Forward(ctx, hiddenStates)

	headDim := cfg.HiddenDim / cfg.NumHeads
	scale := float32(1 / math.Sqrt(float64(headDim)))

	context := ml.NewTensor("", batchSize*seqLen, cfg.HiddenDim)

	attend := func(b int) error {
		qb := query.Rows(b*seqLen, (b+1)*seqLen)
		kb := key.Rows(b*seqLen, (b+1)*seqLen)
		vb := value.Rows(b*seqLen, (b+1)*seqLen)
		cb := context.Rows(b*seqLen, (b+1)*seqLen)

		for h := 0; h < cfg.NumHeads; h++ {
			start, end := h*headDim, (h+1)*headDim
			qh := ml.SliceCols(qb, start, end)
			kh := ml.SliceCols(kb, start, end)
			vh := ml.SliceCols(vb, start, end)

			scores := ml.Scale(ml.MatmulT(qh, kh), scale)
			addKeyBias(scores, maskBias[b])
			ml.SoftmaxRows(scores)
			scores = l.AttentionDropout.Forward(ctx, scores)

			ml.SetCols(cb, ml.Matmul(scores, vh), start)
		}
		return nil
	}

	if ctx.Training {
		for b := 0; b < batchSize; b++ {
			if err := attend(b); err != nil {
				return nil, err
			}
		}
	} else if err := ml.Parallel(batchSize, attend); err != nil {
		return nil, err
	}

	return l.AttentionOutput.Forward(ctx, context), nil
}

// addKeyBias addiert die Maske auf jede Score-Zeile: Spalte j gehoert
// zum Key an Position j
func addKeyBias(scores *ml.Tensor, bias []float32) {
	seqLen := len(bias)
	data := scores.Data()
	for i := 0; i < seqLen; i++ {
		row := data[i*seqLen : (i+1)*seqLen]
		for j, v := range bias {
			row[j] += v
		}
	}
}
