// tensor_test.go - Unit Tests fuer die Tensor-Struktur
package ml

import "testing"

func TestCopyFrom(t *testing.T) {
	dst := NewTensor("dst", 2, 3)
	src := NewTensorFrom("src", []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	if err := dst.CopyFrom(src); err != nil {
		t.Fatalf("CopyFrom() Fehler = %v", err)
	}
	for i, v := range src.Data() {
		if dst.Data()[i] != v {
			t.Errorf("dst[%d] = %v, erwartet %v", i, dst.Data()[i], v)
		}
	}

	// Die Kopie teilt keinen Speicher mit der Quelle
	src.Data()[0] = 99
	if dst.Data()[0] == 99 {
		t.Error("CopyFrom() teilt Speicher mit der Quelle")
	}
}

func TestCopyFromFormFehler(t *testing.T) {
	dst := NewTensor("dst", 2, 3)
	src := NewTensor("src", 3, 2)

	if err := dst.CopyFrom(src); err == nil {
		t.Error("CopyFrom() mit abweichender Form sollte fehlschlagen")
	}
	for i, v := range dst.Data() {
		if v != 0 {
			t.Errorf("dst[%d] = %v, erwartet 0 nach fehlgeschlagener Kopie", i, v)
		}
	}
}
