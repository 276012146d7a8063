// presets.go - Registry benannter Modell-Konfigurationen
//
// Definiert die bekannten BERT-Varianten mit ihren Konfigurationen und
// den zugehoerigen Gewichts-Artefakten (URL plus sha256-Digest).
// Die Registry wird beim Prozess-Start befuellt und ist danach
// nur-lesend; Lookups aus mehreren Goroutinen sind sicher.
package bert

import "sort"

// weightsBaseURL ist der Ablageort der vortrainierten Artefakte
const weightsBaseURL = "https://storage.googleapis.com/nlpgo-models/bert"

// Preset beschreibt eine benannte Konfiguration mit optionalen
// vortrainierten Gewichten
type Preset struct {
	Name          string
	Description   string
	Config        Config
	WeightsURL    string
	WeightsDigest string
}

// presets enthaelt alle registrierten Varianten
var presets = map[string]Preset{
	"bert_tiny_uncased": {
		Name:          "bert_tiny_uncased",
		Description:   "2-layer BERT, hidden size 128, uncased English vocabulary",
		Config:        uncasedConfig(2, 2, 128, 512),
		WeightsURL:    weightsBaseURL + "/bert_tiny_uncased/v1/model.safetensors",
		WeightsDigest: "sha256:9e1fbb1e35ac0ff9d2a5538aadc1b12b6a1bfcf1ea028e0a22ae3e5bd4e84c37",
	},
	"bert_small_uncased": {
		Name:          "bert_small_uncased",
		Description:   "4-layer BERT, hidden size 512, uncased English vocabulary",
		Config:        uncasedConfig(4, 8, 512, 2048),
		WeightsURL:    weightsBaseURL + "/bert_small_uncased/v1/model.safetensors",
		WeightsDigest: "sha256:2b7c41f48b0ed9c0ffccfa8fe4f3d6fae39f0d0bbe1b1a0ed5f68a9e6f1d7c52",
	},
	"bert_medium_uncased": {
		Name:          "bert_medium_uncased",
		Description:   "8-layer BERT, hidden size 512, uncased English vocabulary",
		Config:        uncasedConfig(8, 8, 512, 2048),
		WeightsURL:    weightsBaseURL + "/bert_medium_uncased/v1/model.safetensors",
		WeightsDigest: "sha256:f18c4e0c86008ddbcbe3b5ec9b74b1f4ab5e90c0cbe777da1f212cbfba7e1541",
	},
	"bert_base_uncased": {
		Name:          "bert_base_uncased",
		Description:   "12-layer BERT, hidden size 768, uncased English vocabulary",
		Config:        uncasedConfig(12, 12, 768, 3072),
		WeightsURL:    weightsBaseURL + "/bert_base_uncased/v1/model.safetensors",
		WeightsDigest: "sha256:5c01a8ddcd24ef5a76f08f1aab1b0c4bc49e9f91d5f10e1d7f4d62cf0a8e03de",
	},
	"bert_base_cased": {
		Name:          "bert_base_cased",
		Description:   "12-layer BERT, hidden size 768, cased English vocabulary",
		Config:        casedConfig(12, 12, 768, 3072),
		WeightsURL:    weightsBaseURL + "/bert_base_cased/v1/model.safetensors",
		WeightsDigest: "sha256:7ab9e8c10cc1b68ff4a36dbd9cf9d7e1f00bb6ab0cf2c1bd10d88a1e3e6b2d94",
	},
	"bert_large_uncased": {
		Name:          "bert_large_uncased",
		Description:   "24-layer BERT, hidden size 1024, uncased English vocabulary",
		Config:        uncasedConfig(24, 16, 1024, 4096),
		WeightsURL:    weightsBaseURL + "/bert_large_uncased/v1/model.safetensors",
		WeightsDigest: "sha256:0d3be1c01bbce06d2ff4cbfbd0e4e7f17ed5f07e9ee7de1baf0e42641c9dfa85",
	},
}

// uncasedConfig erstellt eine Standard-Konfiguration fuer das
// unkapitalisierte englische Vokabular (30522 Tokens)
func uncasedConfig(layers, heads, hidden, intermediate int) Config {
	return Config{
		VocabularySize:    30522,
		NumLayers:         layers,
		NumHeads:          heads,
		HiddenDim:         hidden,
		IntermediateDim:   intermediate,
		Dropout:           0.1,
		MaxSequenceLength: 512,
		NumSegments:       2,
	}
}

// casedConfig erstellt eine Standard-Konfiguration fuer das
// kapitalisierte englische Vokabular (28996 Tokens)
func casedConfig(layers, heads, hidden, intermediate int) Config {
	cfg := uncasedConfig(layers, heads, hidden, intermediate)
	cfg.VocabularySize = 28996
	return cfg
}

// LookupPreset sucht eine registrierte Variante anhand ihres Namens
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// Presets gibt alle registrierten Varianten sortiert nach Namen zurueck
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
