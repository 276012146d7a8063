// dropout.go - Dropout-Schicht
//
// Im Inferenz-Modus ist Dropout Identitaet. Im Trainings-Modus wird
// inverted Dropout angewendet: ueberlebende Elemente werden mit
// 1/(1-rate) skaliert, damit der Erwartungswert erhalten bleibt.
package nn

import "github.com/nlpgo/bert/ml"

// Dropout nullt Elemente mit Wahrscheinlichkeit Rate im Trainings-Modus
type Dropout struct {
	Rate float32
}

// NewDropout erstellt eine Dropout-Schicht mit der gegebenen Rate
func NewDropout(rate float32) *Dropout {
	return &Dropout{Rate: rate}
}

// Forward wendet Dropout in-place an und gibt x zurueck
func (d *Dropout) Forward(ctx *ml.Context, x *ml.Tensor) *ml.Tensor {
	if !ctx.Training || d.Rate <= 0 {
		return x
	}

	keep := 1 - d.Rate
	scale := 1 / keep
	data := x.Data()
	rng := ctx.Rand()
	for i := range data {
		if rng.Float32() < d.Rate {
			data[i] = 0
		} else {
			data[i] *= scale
		}
	}
	return x
}
