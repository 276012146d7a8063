// layernorm.go - Layer-Normalisierung
package nn

import "github.com/nlpgo/bert/ml"

// LayerNorm normalisiert ueber die letzte Achse mit lernbarem Gamma/Beta
type LayerNorm struct {
	Gamma *ml.Tensor `weights:"gamma"`
	Beta  *ml.Tensor `weights:"beta"`
}

// NewLayerNorm erstellt eine LayerNorm-Schicht fuer dim Spalten.
// Gamma wird mit Einsen, Beta mit Nullen initialisiert.
func NewLayerNorm(dim int) *LayerNorm {
	ln := &LayerNorm{
		Gamma: ml.NewTensor("gamma", dim),
		Beta:  ml.NewTensor("beta", dim),
	}
	ml.Ones(ln.Gamma)
	return ln
}

// Forward normalisiert x in-place und gibt x zurueck
func (ln *LayerNorm) Forward(ctx *ml.Context, x *ml.Tensor, eps float32) *ml.Tensor {
	return ml.LayerNorm(x, ln.Gamma, ln.Beta, eps)
}
