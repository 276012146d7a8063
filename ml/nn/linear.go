// linear.go - Voll verbundene Schicht
//
// Linear implementiert y = x.W + b. Die Gewichtsmatrix liegt als
// [in, out] vor, passend zur Matrixmultiplikation ohne Transposition.
package nn

import (
	"math/rand"

	"github.com/nlpgo/bert/ml"
)

// Linear ist eine Dense-Schicht mit Kernel und Bias
type Linear struct {
	Weight *ml.Tensor `weights:"kernel"`
	Bias   *ml.Tensor `weights:"bias"`
}

// NewLinear erstellt eine Dense-Schicht [in, out] mit Kernel-Initialisierung
// aus der abgeschnittenen Normalverteilung und Null-Bias
func NewLinear(in, out int, rng *rand.Rand) *Linear {
	l := &Linear{
		Weight: ml.NewTensor("kernel", in, out),
		Bias:   ml.NewTensor("bias", out),
	}
	ml.TruncatedNormal(l.Weight, ml.KernelStdDev, rng)
	return l
}

// Forward berechnet x.W + b fuer eine 2D-Sicht [rows, in]
func (l *Linear) Forward(ctx *ml.Context, x *ml.Tensor) *ml.Tensor {
	return ml.AddBias(ml.Matmul(x, l.Weight), l.Bias)
}
