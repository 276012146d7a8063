// ops_test.go - Unit Tests fuer die Tensor-Operationen
package ml

import (
	"math"
	"math/rand"
	"testing"
)

// almostEqual prueft zwei Floats auf Naehe
func almostEqual(a, b, tol float32) bool {
	return float32(math.Abs(float64(a-b))) <= tol
}

func TestMatmul(t *testing.T) {
	// 2x3 mal 3x2
	a := NewTensorFrom("a", []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := NewTensorFrom("b", []float32{7, 8, 9, 10, 11, 12}, 3, 2)

	c := Matmul(a, b)

	want := []float32{58, 64, 139, 154}
	for i, v := range want {
		if c.Data()[i] != v {
			t.Errorf("Matmul[%d] = %v, erwartet %v", i, c.Data()[i], v)
		}
	}
}

func TestMatmulT(t *testing.T) {
	a := NewTensorFrom("a", []float32{1, 2, 3, 4}, 2, 2)
	b := NewTensorFrom("b", []float32{5, 6, 7, 8}, 2, 2)

	// a.bT muss Matmul(a, transpose(b)) entsprechen
	bt := NewTensorFrom("bt", []float32{5, 7, 6, 8}, 2, 2)
	got := MatmulT(a, b)
	want := Matmul(a, bt)

	for i := range want.Data() {
		if got.Data()[i] != want.Data()[i] {
			t.Errorf("MatmulT[%d] = %v, erwartet %v", i, got.Data()[i], want.Data()[i])
		}
	}
}

func TestSoftmaxRows(t *testing.T) {
	x := NewTensorFrom("x", []float32{1, 2, 3, 1000, 1000, 1000}, 2, 3)
	SoftmaxRows(x)

	// Jede Zeile muss sich zu 1 summieren, auch bei grossen Logits
	for i := 0; i < 2; i++ {
		var sum float32
		for j := 0; j < 3; j++ {
			v := x.Data()[i*3+j]
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("SoftmaxRows Zeile %d enthaelt %v", i, v)
			}
			sum += v
		}
		if !almostEqual(sum, 1, 1e-5) {
			t.Errorf("SoftmaxRows Zeilensumme = %v, erwartet 1", sum)
		}
	}

	// Groesstes Logit bekommt das groesste Gewicht
	if x.Data()[2] <= x.Data()[0] {
		t.Errorf("SoftmaxRows: Gewicht fuer groesstes Logit zu klein: %v", x.Data()[2])
	}
}

func TestLayerNorm(t *testing.T) {
	gamma := NewTensorFrom("gamma", []float32{1, 1, 1, 1}, 4)
	beta := NewTensorFrom("beta", []float32{0, 0, 0, 0}, 4)
	x := NewTensorFrom("x", []float32{1, 2, 3, 4}, 1, 4)

	LayerNorm(x, gamma, beta, 1e-12)

	// Mittelwert ~0, Varianz ~1 nach Normalisierung
	var mean float32
	for _, v := range x.Data() {
		mean += v
	}
	mean /= 4
	if !almostEqual(mean, 0, 1e-5) {
		t.Errorf("LayerNorm Mittelwert = %v, erwartet 0", mean)
	}

	var variance float32
	for _, v := range x.Data() {
		variance += (v - mean) * (v - mean)
	}
	variance /= 4
	if !almostEqual(variance, 1, 1e-4) {
		t.Errorf("LayerNorm Varianz = %v, erwartet 1", variance)
	}
}

func TestGELU(t *testing.T) {
	tests := []struct {
		in, want float32
	}{
		{0, 0},
		{1, 0.841192},
		{-1, -0.158808},
		{3, 2.996363},
	}

	for _, tt := range tests {
		x := NewTensorFrom("x", []float32{tt.in}, 1)
		GELU(x)
		if !almostEqual(x.Data()[0], tt.want, 1e-5) {
			t.Errorf("GELU(%v) = %v, erwartet %v", tt.in, x.Data()[0], tt.want)
		}
	}
}

func TestGather(t *testing.T) {
	table := NewTensorFrom("table", []float32{0, 0, 1, 1, 2, 2}, 3, 2)
	out := Gather(table, []int32{2, 0})

	want := []float32{2, 2, 0, 0}
	for i, v := range want {
		if out.Data()[i] != v {
			t.Errorf("Gather[%d] = %v, erwartet %v", i, out.Data()[i], v)
		}
	}
}

func TestSliceSetCols(t *testing.T) {
	x := NewTensorFrom("x", []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	s := SliceCols(x, 1, 3)
	want := []float32{2, 3, 5, 6}
	for i, v := range want {
		if s.Data()[i] != v {
			t.Errorf("SliceCols[%d] = %v, erwartet %v", i, s.Data()[i], v)
		}
	}

	dst := NewTensor("dst", 2, 3)
	SetCols(dst, s, 1)
	if dst.Data()[1] != 2 || dst.Data()[5] != 6 {
		t.Errorf("SetCols Ergebnis = %v", dst.Data())
	}
}

func TestTruncatedNormal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	x := NewTensor("x", 64, 64)
	TruncatedNormal(x, KernelStdDev, rng)

	// Alle Werte innerhalb +-2*std
	for i, v := range x.Data() {
		if v < -2*KernelStdDev || v > 2*KernelStdDev {
			t.Fatalf("TruncatedNormal[%d] = %v ausserhalb der Schranke", i, v)
		}
	}

	// Deterministisch bei gleichem Seed
	rng2 := rand.New(rand.NewSource(42))
	y := NewTensor("y", 64, 64)
	TruncatedNormal(y, KernelStdDev, rng2)
	for i := range x.Data() {
		if x.Data()[i] != y.Data()[i] {
			t.Fatalf("TruncatedNormal nicht deterministisch bei Index %d", i)
		}
	}
}

func TestParallel(t *testing.T) {
	out := make([]int, 100)
	err := Parallel(100, func(i int) error {
		out[i] = i
		return nil
	})
	if err != nil {
		t.Fatalf("Parallel Fehler: %v", err)
	}
	for i, v := range out {
		if v != i {
			t.Errorf("Parallel[%d] = %d, erwartet %d", i, v, i)
		}
	}
}
