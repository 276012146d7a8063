// head.go - Klassifikations-Kopf ueber der gepoolten Ausgabe
//
// Der Kopf bildet pooled_output auf num_classes Logits ab:
// Dropout, dann eine Dense-Schicht ohne Aktivierung. Softmax ist
// Sache des Aufrufers (Loss bzw. Inferenz-Nachverarbeitung).
package bert

import (
	"math/rand"

	"github.com/nlpgo/bert/ml"
	"github.com/nlpgo/bert/ml/nn"
	"github.com/nlpgo/bert/model"
)

// ClassificationHead bildet pooled_output auf Klassen-Logits ab
type ClassificationHead struct {
	Dropout *nn.Dropout
	Logits  *nn.Linear `weights:"logits"`

	params map[string]*ml.Tensor
}

// NewClassificationHead erstellt einen Kopf fuer numClasses Klassen
// ueber einem Encoder mit der gegebenen Konfiguration
func NewClassificationHead(cfg Config, numClasses int) (*ClassificationHead, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if numClasses < 2 {
		return nil, model.Configf("num_classes must be at least 2, got %d", numClasses)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	h := &ClassificationHead{
		Dropout: nn.NewDropout(cfg.Dropout),
		Logits:  nn.NewLinear(cfg.HiddenDim, numClasses, rng),
	}
	h.params = model.NamedTensors(h)
	return h, nil
}

// Parameters gibt die benannte Parameter-Menge des Kopfes zurueck
func (h *ClassificationHead) Parameters() map[string]*ml.Tensor {
	return h.params
}

// Forward berechnet die Logits [batch, num_classes] aus der gepoolten
// Ausgabe [batch, hidden]
func (h *ClassificationHead) Forward(ctx *ml.Context, pooled *ml.Tensor) *ml.Tensor {
	logits := h.Logits.Forward(ctx, h.Dropout.Forward(ctx, pooled))
	logits.SetName("logits")
	return logits
}
