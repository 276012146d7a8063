// errors.go - Fehler-Typen fuer Konstruktion und Checkpoint-Laden
//
// Alle Fehler treten synchron beim Aufrufer auf. Ein fehlgeschlagener
// Load laesst die Parameter unveraendert (alles-oder-nichts).
package model

import "fmt"

// ConfigError beschreibt ungueltige, fehlende oder widerspruechliche
// Konstruktions-Argumente
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "model: invalid config: " + e.Reason
}

// Configf erstellt einen ConfigError mit formatierter Begruendung
func Configf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// ShapeError beschreibt eine Form-Verletzung: Eingabe-Sequenzen ueber
// der Maximallaenge oder Gewichts-Formen, die beim Laden nicht passen
type ShapeError struct {
	Name string
	Want []int
	Got  []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("model: shape mismatch for %q: want %v, got %v", e.Name, e.Want, e.Got)
}

// IntegrityError beschreibt einen Digest-Mismatch eines geladenen
// Gewichts-Artefakts
type IntegrityError struct {
	Path string
	Want string
	Got  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("model: integrity check failed for %s: want %s, got %s", e.Path, e.Want, e.Got)
}
