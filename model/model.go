// Package model - Model-Interface und Architektur-Registry
//
// Dieses Paket definiert das Model-Interface und stellt Funktionen
// zur Registrierung und Verwaltung von Modell-Architekturen bereit.
//
// Hauptkomponenten:
// - Model: Interface fuer alle Modell-Architekturen
// - Register: Registriert Modell-Konstruktoren pro Architektur
// - New: Erstellt eine Model-Instanz fuer eine Architektur
// - Batch/Outputs: Eingabe- und Ausgabe-Strukturen des Forward-Passes
package model

import (
	"fmt"
	"sort"

	"github.com/nlpgo/bert/ml"
)

// Config wird von architektur-spezifischen Konfigurationen implementiert
type Config interface {
	// Validate prueft alle Invarianten der Konfiguration
	Validate() error
}

// Model definiert das Interface fuer spezifische Modell-Architekturen
type Model interface {
	// Forward fuehrt einen Vorwaerts-Pass durch und produziert die
	// Modell-Ausgaben fuer einen Batch
	Forward(ctx *ml.Context, batch Batch) (Outputs, error)

	// Parameters gibt die benannte Parameter-Menge des Modells zurueck.
	// Die Namen sind kanonisch (siehe reflect.go) und werden vom
	// Checkpoint-Loader zum Abgleich verwendet.
	Parameters() map[string]*ml.Tensor
}

// Outputs enthaelt die Ausgaben eines Forward-Passes
type Outputs struct {
	// SequenceOutput hat die Form [batch, seq, hidden]
	SequenceOutput *ml.Tensor

	// PooledOutput hat die Form [batch, hidden]
	PooledOutput *ml.Tensor
}

// models speichert registrierte Modell-Konstruktoren.
// Die Registry wird ausschliesslich in init-Funktionen befuellt und ist
// danach nur-lesend, Zugriffe aus mehreren Goroutinen sind sicher.
var models = make(map[string]func(Config) (Model, error))

// Register registriert einen Modell-Konstruktor fuer eine Architektur
func Register(name string, f func(Config) (Model, error)) {
	if _, ok := models[name]; ok {
		panic("model: model already registered")
	}

	models[name] = f
}

// New erstellt eine Model-Instanz fuer die gegebene Architektur
func New(arch string, cfg Config) (Model, error) {
	f, ok := models[arch]
	if !ok {
		return nil, &ConfigError{Reason: fmt.Sprintf("unsupported architecture %q", arch)}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return f(cfg)
}

// Architectures gibt alle registrierten Architektur-Namen sortiert zurueck
func Architectures() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
