// context.go - Ausfuehrungskontext fuer den Forward-Pass
//
// Der Context transportiert den Trainings-Modus und die Zufallsquelle
// fuer Dropout durch die Layer. Konstruktion und Inferenz selbst sind
// synchron und ohne Cancellation-Semantik (endliche Operationen).
package ml

import "math/rand"

// Context haelt den Zustand eines einzelnen Forward-Passes
type Context struct {
	// Training aktiviert Dropout. Im Inferenz-Modus sind alle
	// Dropout-Layer Identitaet.
	Training bool

	rng *rand.Rand
}

// NewContext erstellt einen Inferenz-Kontext
func NewContext() *Context {
	return &Context{}
}

// NewTrainingContext erstellt einen Trainings-Kontext mit Zufallsquelle
// fuer Dropout
func NewTrainingContext(seed int64) *Context {
	return &Context{Training: true, rng: rand.New(rand.NewSource(seed))}
}

// Rand gibt die Zufallsquelle des Kontexts zurueck
func (c *Context) Rand() *rand.Rand {
	return c.rng
}
