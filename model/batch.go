// batch.go - Eingabe-Batch fuer den Forward-Pass
//
// Ein Batch besteht aus drei gleichgeformten 2D-Arrays:
// Token-IDs, Segment-IDs und Padding-Maske (1 = echtes Token, 0 = Pad).
package model

import "fmt"

// Batch enthaelt die Eingaben eines Forward-Passes
type Batch struct {
	TokenIDs    [][]int32
	SegmentIDs  [][]int32
	PaddingMask [][]int32
}

// Dims gibt Batch-Groesse und Sequenzlaenge zurueck
func (b Batch) Dims() (batch, seq int) {
	if len(b.TokenIDs) == 0 {
		return 0, 0
	}
	return len(b.TokenIDs), len(b.TokenIDs[0])
}

// Validate prueft die Batch-Invarianten: alle drei Arrays teilen dieselbe
// Form, Token-IDs liegen in [0, vocabularySize), Segment-IDs in
// [0, numSegments)
func (b Batch) Validate(vocabularySize, numSegments int) error {
	batch, seq := b.Dims()
	if batch == 0 || seq == 0 {
		return fmt.Errorf("model: batch is empty")
	}

	if len(b.SegmentIDs) != batch || len(b.PaddingMask) != batch {
		return &ShapeError{Name: "batch", Want: []int{batch, seq}, Got: []int{len(b.SegmentIDs), len(b.PaddingMask)}}
	}

	for i := range b.TokenIDs {
		if len(b.TokenIDs[i]) != seq || len(b.SegmentIDs[i]) != seq || len(b.PaddingMask[i]) != seq {
			return &ShapeError{Name: "batch", Want: []int{batch, seq}, Got: []int{len(b.TokenIDs[i]), len(b.SegmentIDs[i]), len(b.PaddingMask[i])}}
		}

		for j := range b.TokenIDs[i] {
			if id := b.TokenIDs[i][j]; id < 0 || int(id) >= vocabularySize {
				return fmt.Errorf("model: token id %d at [%d,%d] out of range [0, %d)", id, i, j, vocabularySize)
			}
			if id := b.SegmentIDs[i][j]; id < 0 || int(id) >= numSegments {
				return fmt.Errorf("model: segment id %d at [%d,%d] out of range [0, %d)", id, i, j, numSegments)
			}
		}
	}

	return nil
}
