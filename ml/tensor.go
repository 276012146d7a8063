// tensor.go - Dichte Float32-Tensoren fuer die Modell-Ausfuehrung
//
// Dieses Modul enthaelt:
// - Tensor: benannter, dichter Float32-Tensor mit beliebiger Form
// - NewTensor/NewTensorFrom: Konstruktoren
// - Zugriffs- und View-Funktionen (Dim, Data, Rows, Clone)
//
// Alle Operationen auf Tensoren liegen in ops.go, die Initialisierer
// in init.go.
package ml

import (
	"fmt"
	"strings"
)

// Tensor repraesentiert einen dichten Float32-Tensor.
// Die Daten liegen zeilenweise (row-major) in einem flachen Slice.
type Tensor struct {
	name  string
	shape []int
	data  []float32
}

// NewTensor erstellt einen Tensor der gegebenen Form, mit Nullen gefuellt
func NewTensor(name string, shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		if d <= 0 {
			panic(fmt.Sprintf("ml: invalid dimension %d in shape %v", d, shape))
		}
		n *= d
	}

	return &Tensor{name: name, shape: shape, data: make([]float32, n)}
}

// NewTensorFrom erstellt einen Tensor ueber einem bestehenden Daten-Slice.
// Der Slice wird nicht kopiert.
func NewTensorFrom(name string, data []float32, shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(data) {
		panic(fmt.Sprintf("ml: shape %v does not match data length %d", shape, len(data)))
	}

	return &Tensor{name: name, shape: shape, data: data}
}

// Name gibt den Parameter-Namen zurueck
func (t *Tensor) Name() string {
	return t.name
}

// SetName setzt den Parameter-Namen
func (t *Tensor) SetName(name string) {
	t.name = name
}

// Shape gibt die Form als Kopie zurueck
func (t *Tensor) Shape() []int {
	shape := make([]int, len(t.shape))
	copy(shape, t.shape)
	return shape
}

// Dim gibt die Groesse der i-ten Dimension zurueck
func (t *Tensor) Dim(i int) int {
	return t.shape[i]
}

// Rank gibt die Anzahl der Dimensionen zurueck
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// Size gibt die Gesamtzahl der Elemente zurueck
func (t *Tensor) Size() int {
	return len(t.data)
}

// Data gibt den unterliegenden Daten-Slice zurueck (kein Kopie)
func (t *Tensor) Data() []float32 {
	return t.data
}

// Clone erstellt eine tiefe Kopie des Tensors
func (t *Tensor) Clone() *Tensor {
	data := make([]float32, len(t.data))
	copy(data, t.data)
	return NewTensorFrom(t.name, data, t.shape...)
}

// CopyFrom ueberschreibt die Daten mit denen von src.
// Die Formen muessen exakt uebereinstimmen.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !sameShape(t.shape, src.shape) {
		return fmt.Errorf("ml: cannot copy shape %v into shape %v", src.shape, t.shape)
	}

	copy(t.data, src.data)
	return nil
}

// lastDim gibt die letzte Dimension zurueck (Spaltenzahl einer 2D-Sicht)
func (t *Tensor) lastDim() int {
	return t.shape[len(t.shape)-1]
}

// Rows interpretiert den Tensor als 2D-Matrix [n, lastDim] und gibt
// eine Sicht auf die Zeilen [start, end) zurueck. Die Daten werden geteilt.
func (t *Tensor) Rows(start, end int) *Tensor {
	cols := t.lastDim()
	return &Tensor{
		name:  t.name,
		shape: []int{end - start, cols},
		data:  t.data[start*cols : end*cols],
	}
}

// Reshape gibt eine Sicht mit neuer Form auf dieselben Daten zurueck
func (t *Tensor) Reshape(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(t.data) {
		panic(fmt.Sprintf("ml: cannot reshape %v to %v", t.shape, shape))
	}

	return &Tensor{name: t.name, shape: shape, data: t.data}
}

// String gibt eine kurze Beschreibung fuer Logging zurueck
func (t *Tensor) String() string {
	dims := make([]string, len(t.shape))
	for i, d := range t.shape {
		dims[i] = fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("%s[%s]", t.name, strings.Join(dims, "x"))
}

// sameShape prueft zwei Formen auf exakte Gleichheit
func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
