// init.go - Gewichts-Initialisierer
//
// Dieses Modul enthaelt die Initialisierer fuer neu konstruierte
// Parameter-Tensoren:
// - TruncatedNormal: abgeschnittene Normalverteilung (BERT-Kernel-Init)
// - Ones/Zeros: konstante Initialisierung fuer LayerNorm
//
// Alle Initialisierer sind deterministisch gegeben derselben Quelle.
package ml

import "math/rand"

// KernelStdDev ist die Standardabweichung der Kernel-Initialisierung
const KernelStdDev = 0.02

// TruncatedNormal fuellt den Tensor mit Werten aus einer Normalverteilung
// (Mittelwert 0, Standardabweichung std), abgeschnitten bei +-2*std.
// Werte ausserhalb der Schranke werden neu gezogen.
func TruncatedNormal(t *Tensor, std float64, rng *rand.Rand) {
	for i := range t.data {
		for {
			v := rng.NormFloat64() * std
			if v >= -2*std && v <= 2*std {
				t.data[i] = float32(v)
				break
			}
		}
	}
}

// Ones fuellt den Tensor mit Einsen (LayerNorm-Gamma)
func Ones(t *Tensor) {
	for i := range t.data {
		t.data[i] = 1
	}
}

// Zeros fuellt den Tensor mit Nullen (Bias, LayerNorm-Beta)
func Zeros(t *Tensor) {
	for i := range t.data {
		t.data[i] = 0
	}
}
