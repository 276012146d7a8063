// embedding.go - Embedding-Tabellen
//
// Embedding ist eine Lookup-Tabelle [rows, dim], die Integer-IDs auf
// Zeilenvektoren abbildet. Wird fuer Token-, Positions- und
// Segment-Embeddings verwendet.
package nn

import (
	"math/rand"

	"github.com/nlpgo/bert/ml"
)

// Embedding ist eine Lookup-Tabelle fuer Integer-IDs
type Embedding struct {
	Weight *ml.Tensor `weights:"embeddings"`
}

// NewEmbedding erstellt eine Tabelle [rows, dim] mit Kernel-Initialisierung
func NewEmbedding(rows, dim int, rng *rand.Rand) *Embedding {
	e := &Embedding{Weight: ml.NewTensor("embeddings", rows, dim)}
	ml.TruncatedNormal(e.Weight, ml.KernelStdDev, rng)
	return e
}

// Forward schlaegt die Zeilen fuer ids nach und gibt [len(ids), dim] zurueck
func (e *Embedding) Forward(ctx *ml.Context, ids []int32) *ml.Tensor {
	return ml.Gather(e.Weight, ids)
}

// Slice gibt die ersten n Zeilen der Tabelle als Sicht zurueck.
// Wird fuer Positions-Embeddings bei variabler Sequenzlaenge verwendet.
func (e *Embedding) Slice(n int) *ml.Tensor {
	return e.Weight.Rows(0, n)
}
