// weights.go - Laden und Speichern vortrainierter Gewichte
//
// Bindet die Preset-Registry an den hub-Download und das
// safetensors-Format. Das Laden ist atomar: erst werden alle Namen und
// Formen gegen die Modell-Parameter geprueft, dann werden die Daten
// kopiert. Bei einem Fehler bleibt das Modell unveraendert.
package bert

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nlpgo/bert/fs/safetensors"
	"github.com/nlpgo/bert/hub"
	"github.com/nlpgo/bert/ml"
	"github.com/nlpgo/bert/model"
)

// FromConfig erstellt ein uninitialisiert-zufaelliges Modell aus einer
// Konfiguration oder einem Preset-Namen
func FromConfig(source any) (*Model, error) {
	switch v := source.(type) {
	case Config:
		return New(v)
	case string:
		p, ok := LookupPreset(v)
		if !ok {
			return nil, model.Configf("unbekanntes preset %q", v)
		}
		return New(p.Config)
	default:
		return nil, model.Configf("config muss Config oder preset-name sein, nicht %T", source)
	}
}

// FromPreset erstellt ein Modell aus einem Preset und laedt dessen
// vortrainierte Gewichte
func FromPreset(ctx context.Context, name string) (*Model, error) {
	m, err := FromConfig(name)
	if err != nil {
		return nil, err
	}
	if err := m.LoadWeightsContext(ctx, name); err != nil {
		return nil, err
	}
	return m, nil
}

// Base erstellt ein bert_base-Modell nach Vokabular und optionalem
// Gewichts-Preset. vocabularySize 0 bedeutet "nicht angegeben"; weights ""
// bedeutet "keine vortrainierten Gewichte". Mindestens eines von beiden
// muss gesetzt sein.
func Base(ctx context.Context, vocabularySize int, weights string) (*Model, error) {
	if vocabularySize == 0 && weights == "" {
		return nil, model.Configf("entweder vocabularySize oder weights muss angegeben werden")
	}
	if weights == "" {
		cfg := uncasedConfig(12, 12, 768, 3072)
		cfg.VocabularySize = vocabularySize
		return New(cfg)
	}
	p, ok := LookupPreset(weights)
	if !ok {
		return nil, model.Configf("unbekanntes preset %q", weights)
	}
	if vocabularySize != 0 && vocabularySize != p.Config.VocabularySize {
		return nil, model.Configf("vocabularySize %d widerspricht preset %q (%d)",
			vocabularySize, weights, p.Config.VocabularySize)
	}
	m, err := New(p.Config)
	if err != nil {
		return nil, err
	}
	if err := m.LoadWeightsContext(ctx, weights); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadWeights laedt Gewichte aus einem Preset-Namen oder einem
// lokalen Dateipfad
func (m *Model) LoadWeights(source string) error {
	return m.LoadWeightsContext(context.Background(), source)
}

// LoadWeightsContext laedt Gewichte mit Abbruch-Unterstuetzung. Bei
// einem Preset wird das Artefakt ueber den hub bezogen und dessen
// Digest verifiziert; ein lokaler Pfad wird ohne Digest-Pruefung
// gelesen.
func (m *Model) LoadWeightsContext(ctx context.Context, source string) error {
	path := source
	if p, ok := LookupPreset(source); ok {
		slog.Debug("lade preset-gewichte", "preset", p.Name, "url", p.WeightsURL)
		fetched, err := hub.Fetch(ctx, p.Name, p.WeightsURL, p.WeightsDigest)
		if err != nil {
			return fmt.Errorf("preset %s: %w", p.Name, err)
		}
		path = fetched
	} else if _, err := os.Stat(source); err != nil {
		return model.Configf("weights %q ist weder preset noch lesbare datei", source)
	}

	tensors, err := safetensors.ReadFile(path)
	if err != nil {
		return fmt.Errorf("lesen %s: %w", path, err)
	}
	return m.setParameters(path, tensors)
}

// setParameters prueft alle Namen und Formen und kopiert erst danach.
// Ueberzaehlige oder fehlende Tensoren sowie Form-Abweichungen brechen
// vor der ersten Kopie ab.
func (m *Model) setParameters(path string, tensors map[string]safetensors.Tensor) error {
	for name := range m.params {
		st, ok := tensors[name]
		if !ok {
			return &model.ShapeError{Name: name, Want: m.params[name].Shape(), Got: nil}
		}
		if !shapeEqual(m.params[name].Shape(), st.Shape) {
			return &model.ShapeError{Name: name, Want: m.params[name].Shape(), Got: st.Shape}
		}
	}
	for name := range tensors {
		if _, ok := m.params[name]; !ok {
			return model.Configf("checkpoint %s enthaelt unbekannten tensor %q", path, name)
		}
	}
	for name, param := range m.params {
		st := tensors[name]
		if err := param.CopyFrom(ml.NewTensorFrom(name, st.Data, st.Shape...)); err != nil {
			return err
		}
	}
	slog.Debug("gewichte geladen", "path", path, "tensors", len(tensors))
	return nil
}

// SaveWeights schreibt alle Modell-Parameter als safetensors-Datei
func (m *Model) SaveWeights(path string) error {
	tensors := make(map[string]safetensors.Tensor, len(m.params))
	for name, p := range m.params {
		tensors[name] = safetensors.Tensor{
			DType: safetensors.F32,
			Shape: p.Shape(),
			Data:  p.Data(),
		}
	}
	return safetensors.WriteFile(path, tensors)
}

func shapeEqual(a, b []int) bool {
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
