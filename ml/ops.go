// ops.go - Numerische Operationen auf Tensoren
//
// Dieses Modul enthaelt die Rechenkerne fuer den Forward-Pass:
// - Matmul/MatmulT: Matrixmultiplikation ueber gonum BLAS
// - Add/AddBias: Elementweise Addition
// - SoftmaxRows, Scale, Tanh, GELU: Aktivierungen
// - LayerNorm: Normalisierung ueber die letzte Achse
// - Gather: Zeilen-Lookup fuer Embeddings
// - Parallel: begrenzte Parallelisierung ueber Batch-Zeilen
//
// Formfehler sind Programmierfehler der Aufrufer und loesen wie bei
// gonum ein panic aus. Eingabe-Validierung passiert eine Ebene hoeher.
package ml

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// general interpretiert einen 2D-Tensor als blas32-Matrix
func general(t *Tensor) blas32.General {
	if t.Rank() != 2 {
		panic(fmt.Sprintf("ml: expected 2D tensor, got %v", t.shape))
	}

	return blas32.General{
		Rows:   t.shape[0],
		Cols:   t.shape[1],
		Stride: t.shape[1],
		Data:   t.data,
	}
}

// Matmul berechnet c = a.b fuer 2D-Tensoren [m,k] x [k,n] -> [m,n]
func Matmul(a, b *Tensor) *Tensor {
	if a.Dim(1) != b.Dim(0) {
		panic(fmt.Sprintf("ml: matmul shape mismatch %v x %v", a.shape, b.shape))
	}

	c := NewTensor("", a.Dim(0), b.Dim(1))
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, general(a), general(b), 0, general(c))
	return c
}

// MatmulT berechnet c = a.bT fuer 2D-Tensoren [m,k] x [n,k] -> [m,n].
// Wird fuer Attention-Scores (Q.KT) verwendet.
func MatmulT(a, b *Tensor) *Tensor {
	if a.Dim(1) != b.Dim(1) {
		panic(fmt.Sprintf("ml: matmulT shape mismatch %v x %v", a.shape, b.shape))
	}

	c := NewTensor("", a.Dim(0), b.Dim(0))
	blas32.Gemm(blas.NoTrans, blas.Trans, 1, general(a), general(b), 0, general(c))
	return c
}

// Add addiert b elementweise auf a (in-place) und gibt a zurueck
func Add(a, b *Tensor) *Tensor {
	if !sameShape(a.shape, b.shape) {
		panic(fmt.Sprintf("ml: add shape mismatch %v + %v", a.shape, b.shape))
	}

	for i, v := range b.data {
		a.data[i] += v
	}
	return a
}

// AddBias addiert einen Bias-Vektor [cols] auf jede Zeile von t [rows, cols]
func AddBias(t, bias *Tensor) *Tensor {
	cols := t.lastDim()
	if bias.Size() != cols {
		panic(fmt.Sprintf("ml: bias length %d does not match %d columns", bias.Size(), cols))
	}

	for i := 0; i < len(t.data); i += cols {
		row := t.data[i : i+cols]
		for j, v := range bias.data {
			row[j] += v
		}
	}
	return t
}

// Scale multipliziert alle Elemente mit s (in-place)
func Scale(t *Tensor, s float32) *Tensor {
	for i := range t.data {
		t.data[i] *= s
	}
	return t
}

// SoftmaxRows wendet Softmax auf jede Zeile der 2D-Sicht an (in-place).
// Numerisch stabilisiert durch Subtraktion des Zeilenmaximums.
func SoftmaxRows(t *Tensor) *Tensor {
	cols := t.lastDim()
	for i := 0; i < len(t.data); i += cols {
		row := t.data[i : i+cols]

		max := row[0]
		for _, v := range row[1:] {
			if v > max {
				max = v
			}
		}

		var sum float32
		for j, v := range row {
			e := float32(math.Exp(float64(v - max)))
			row[j] = e
			sum += e
		}
		for j := range row {
			row[j] /= sum
		}
	}
	return t
}

// Tanh wendet tanh elementweise an (in-place)
func Tanh(t *Tensor) *Tensor {
	for i, v := range t.data {
		t.data[i] = float32(math.Tanh(float64(v)))
	}
	return t
}

// GELU wendet die tanh-Approximation der GELU-Aktivierung an (in-place).
// gelu(x) = 0.5*x*(1 + tanh(sqrt(2/pi)*(x + 0.044715*x^3)))
func GELU(t *Tensor) *Tensor {
	const c = 0.7978845608028654 // sqrt(2/pi)
	for i, v := range t.data {
		x := float64(v)
		t.data[i] = float32(0.5 * x * (1 + math.Tanh(c*(x+0.044715*x*x*x))))
	}
	return t
}

// LayerNorm normalisiert jede Zeile der 2D-Sicht ueber die letzte Achse
// und wendet Gamma/Beta an (in-place).
func LayerNorm(t, gamma, beta *Tensor, eps float32) *Tensor {
	cols := t.lastDim()
	if gamma.Size() != cols || beta.Size() != cols {
		panic(fmt.Sprintf("ml: layernorm scale/bias length does not match %d columns", cols))
	}

	for i := 0; i < len(t.data); i += cols {
		row := t.data[i : i+cols]

		var mean float32
		for _, v := range row {
			mean += v
		}
		mean /= float32(cols)

		var variance float32
		for _, v := range row {
			d := v - mean
			variance += d * d
		}
		variance /= float32(cols)

		inv := 1 / float32(math.Sqrt(float64(variance+eps)))
		for j, v := range row {
			row[j] = (v-mean)*inv*gamma.data[j] + beta.data[j]
		}
	}
	return t
}

// Gather erstellt einen neuen Tensor [len(ids), cols] aus den Zeilen
// der Tabelle table [rows, cols], die ids indizieren.
func Gather(table *Tensor, ids []int32) *Tensor {
	rows, cols := table.Dim(0), table.Dim(1)
	out := NewTensor("", len(ids), cols)
	for i, id := range ids {
		if id < 0 || int(id) >= rows {
			panic(fmt.Sprintf("ml: gather index %d out of range [0, %d)", id, rows))
		}
		copy(out.data[i*cols:(i+1)*cols], table.data[int(id)*cols:(int(id)+1)*cols])
	}
	return out
}

// SliceCols kopiert die Spalten [start, end) der 2D-Sicht in einen neuen Tensor
func SliceCols(t *Tensor, start, end int) *Tensor {
	rows, cols := t.Dim(0), t.Dim(1)
	out := NewTensor("", rows, end-start)
	for i := 0; i < rows; i++ {
		copy(out.data[i*(end-start):(i+1)*(end-start)], t.data[i*cols+start:i*cols+end])
	}
	return out
}

// SetCols schreibt src [rows, n] in die Spalten ab start von dst [rows, cols]
func SetCols(dst, src *Tensor, start int) {
	rows, cols := dst.Dim(0), dst.Dim(1)
	n := src.Dim(1)
	for i := 0; i < rows; i++ {
		copy(dst.data[i*cols+start:i*cols+start+n], src.data[i*n:(i+1)*n])
	}
}

// Parallel fuehrt fn fuer 0..n-1 parallel aus, begrenzt auf GOMAXPROCS.
// Die numerische Auswertung darf intern parallelisiert werden, die
// Kontrollfluss-Semantik nach aussen bleibt synchron.
func Parallel(n int, fn func(i int) error) error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}
