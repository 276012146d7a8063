// head_test.go - Tests fuer den Klassifikations-Kopf
package bert

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nlpgo/bert/ml"
	"github.com/nlpgo/bert/model"
)

func TestClassificationHeadForward(t *testing.T) {
	cfg := testConfig()
	numClasses := 4

	m, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	head, err := NewClassificationHead(cfg, numClasses)
	if err != nil {
		t.Fatalf("NewClassificationHead() Fehler = %v", err)
	}

	batch := testBatch(3, 25, 20)
	ctx := ml.NewContext()
	out, err := m.Forward(ctx, batch)
	if err != nil {
		t.Fatal(err)
	}

	logits := head.Forward(ctx, out.PooledOutput)
	if diff := cmp.Diff([]int{3, numClasses}, logits.Shape()); diff != "" {
		t.Errorf("Logits-Form abweichend (-erwartet +erhalten):\n%s", diff)
	}
	for i, v := range logits.Data() {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("Logit[%d] = %v, erwartet endlichen Wert", i, v)
		}
	}

	// Gleiche Eingabe, gleiche Logits
	again := head.Forward(ctx, out.PooledOutput)
	if diff := cmp.Diff(logits.Data(), again.Data()); diff != "" {
		t.Errorf("Logits nicht deterministisch (-erster +zweiter):\n%s", diff)
	}
}

func TestClassificationHeadParameter(t *testing.T) {
	cfg := testConfig()
	head, err := NewClassificationHead(cfg, 3)
	if err != nil {
		t.Fatal(err)
	}

	params := head.Parameters()
	kernel, ok := params["logits.kernel"]
	if !ok {
		t.Fatal("Parameter logits.kernel fehlt")
	}
	if diff := cmp.Diff([]int{cfg.HiddenDim, 3}, kernel.Shape()); diff != "" {
		t.Errorf("logits.kernel Form abweichend (-erwartet +erhalten):\n%s", diff)
	}
	if _, ok := params["logits.bias"]; !ok {
		t.Error("Parameter logits.bias fehlt")
	}
}

func TestClassificationHeadValidierung(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		numClasses int
	}{
		{"eine klasse", testConfig(), 1},
		{"null klassen", testConfig(), 0},
		{"ungueltige konfiguration", Config{}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClassificationHead(tt.cfg, tt.numClasses)
			var cfgErr *model.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("NewClassificationHead() Fehler = %v, erwartet ConfigError", err)
			}
		})
	}
}
