// wordpiece.go - WordPiece-Tokenisierung und Sequenz-Packing
//
// Dieses Modul enthaelt:
// - Vocabulary: geordnetes Token-zu-ID Mapping
// - WordPiece: Basis-Tokenisierung plus greedy Longest-Match Subwords
// - Tokenize: Text -> gepackte Eingaben [CLS] ... [SEP] [PAD]*
//
// Die Tokenisierung ist ein Zulieferer des Modells: sie erzeugt die
// token_ids/segment_ids/padding_mask, die der Encoder konsumiert.
package model

import (
	"strings"

	"github.com/dlclark/regexp2"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Spezial-Token der BERT-Vokabulare
const (
	TokenPad  = "[PAD]"
	TokenUnk  = "[UNK]"
	TokenCls  = "[CLS]"
	TokenSep  = "[SEP]"
	TokenMask = "[MASK]"

	// subwordPrefix markiert Wort-Fortsetzungen im Vokabular
	subwordPrefix = "##"
)

// basicSplit trennt Woerter, Ziffernfolgen und einzelne Satzzeichen
var basicSplit = regexp2.MustCompile(`\p{L}+|\p{N}+|[^\s\p{L}\p{N}]`, regexp2.None)

// Vocabulary ist ein geordnetes Token-zu-ID Mapping.
// Die IDs entsprechen der Einfuege-Reihenfolge.
type Vocabulary struct {
	tokens *orderedmap.OrderedMap[string, int32]
	byID   []string
}

// NewVocabulary baut ein Vokabular aus der Token-Liste auf.
// Doppelte Tokens behalten die erste ID.
func NewVocabulary(tokens []string) *Vocabulary {
	v := &Vocabulary{tokens: orderedmap.New[string, int32]()}
	for _, token := range tokens {
		if _, ok := v.tokens.Get(token); ok {
			continue
		}
		v.tokens.Set(token, int32(len(v.byID)))
		v.byID = append(v.byID, token)
	}
	return v
}

// ID gibt die ID eines Tokens zurueck
func (v *Vocabulary) ID(token string) (int32, bool) {
	return v.tokens.Get(token)
}

// Token gibt das Token einer ID zurueck
func (v *Vocabulary) Token(id int32) (string, bool) {
	if id < 0 || int(id) >= len(v.byID) {
		return "", false
	}
	return v.byID[id], true
}

// Size gibt die Vokabular-Groesse zurueck
func (v *Vocabulary) Size() int {
	return len(v.byID)
}

// Tokens gibt alle Tokens in ID-Reihenfolge zurueck
func (v *Vocabulary) Tokens() []string {
	out := make([]string, 0, len(v.byID))
	for pair := v.tokens.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// WordPiece tokenisiert Text gegen ein Vokabular
type WordPiece struct {
	vocab          *Vocabulary
	sequenceLength int
	lowercase      bool
}

// WordPieceOption konfiguriert den Tokenizer
type WordPieceOption func(*WordPiece)

// WithLowercase aktiviert die Kleinschreibung vor der Tokenisierung
func WithLowercase() WordPieceOption {
	return func(w *WordPiece) { w.lowercase = true }
}

// NewWordPiece erstellt einen Tokenizer, der auf sequenceLength packt
func NewWordPiece(vocab *Vocabulary, sequenceLength int, opts ...WordPieceOption) *WordPiece {
	w := &WordPiece{vocab: vocab, sequenceLength: sequenceLength}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Encode tokenisiert einen Text zu IDs, ohne Packing
func (w *WordPiece) Encode(text string) []int32 {
	if w.lowercase {
		text = strings.ToLower(text)
	}

	unk, _ := w.vocab.ID(TokenUnk)

	var ids []int32
	m, _ := basicSplit.FindStringMatch(text)
	for m != nil {
		ids = append(ids, w.encodeWord(m.String(), unk)...)
		m, _ = basicSplit.FindNextMatch(m)
	}
	return ids
}

// encodeWord zerlegt ein Wort greedy in die laengsten Vokabular-Treffer
func (w *WordPiece) encodeWord(word string, unk int32) []int32 {
	var ids []int32
	start := 0
	for start < len(word) {
		end := len(word)
		var id int32
		found := false
		for end > start {
			piece := word[start:end]
			if start > 0 {
				piece = subwordPrefix + piece
			}
			if v, ok := w.vocab.ID(piece); ok {
				id = v
				found = true
				break
			}
			end--
		}

		if !found {
			// Kein Teilstueck bekannt: ganzes Wort wird [UNK]
			return []int32{unk}
		}

		ids = append(ids, id)
		start = end
	}
	return ids
}

// Tokenize tokenisiert einen Text und packt ihn auf die feste
// Sequenzlaenge: [CLS] tokens... [SEP], aufgefuellt mit [PAD].
// Die Ausgabe enthaelt token_ids, segment_ids (alle 0) und padding_mask.
func (w *WordPiece) Tokenize(text string) ([]int32, []int32, []int32) {
	cls, _ := w.vocab.ID(TokenCls)
	sep, _ := w.vocab.ID(TokenSep)
	pad, _ := w.vocab.ID(TokenPad)

	ids := w.Encode(text)

	// Platz fuer [CLS] und [SEP]
	if max := w.sequenceLength - 2; len(ids) > max {
		ids = ids[:max]
	}

	tokenIDs := make([]int32, 0, w.sequenceLength)
	tokenIDs = append(tokenIDs, cls)
	tokenIDs = append(tokenIDs, ids...)
	tokenIDs = append(tokenIDs, sep)

	mask := make([]int32, w.sequenceLength)
	for i := range tokenIDs {
		mask[i] = 1
	}
	for len(tokenIDs) < w.sequenceLength {
		tokenIDs = append(tokenIDs, pad)
	}

	return tokenIDs, make([]int32, w.sequenceLength), mask
}

// Detokenize setzt IDs zurueck zu Text, Spezial-Tokens werden entfernt
func (w *WordPiece) Detokenize(ids []int32) string {
	var sb strings.Builder
	for _, id := range ids {
		token, ok := w.vocab.Token(id)
		if !ok {
			continue
		}
		switch token {
		case TokenPad, TokenUnk, TokenCls, TokenSep, TokenMask:
			continue
		}

		if rest, ok := strings.CutPrefix(token, subwordPrefix); ok {
			sb.WriteString(rest)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(token)
	}
	return sb.String()
}
