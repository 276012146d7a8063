// reflect.go - Reflection-basierte Parameter-Benennung
//
// Dieses Modul baut die kanonische Parameter-Menge eines Modells auf:
// Strukturfelder mit `weights`-Tags werden rekursiv besucht, die
// Tag-Namen werden mit "." zu vollstaendigen Tensor-Namen verbunden.
// Slices von Layern bekommen den Index als Namensbestandteil,
// z.B. transformer_layer.3.attention_query.kernel.
//
// Der Checkpoint-Loader gleicht Artefakt-Eintraege gegen genau diese
// Namen und Formen ab.
package model

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/nlpgo/bert/logutil"
	"github.com/nlpgo/bert/ml"
)

// tensorType ist der Feldtyp, der als Parameter gesammelt wird
var tensorType = reflect.TypeOf((*ml.Tensor)(nil))

// NamedTensors sammelt alle Parameter-Tensoren von m unter ihren
// kanonischen Namen. m muss ein Pointer auf eine Struktur sein.
func NamedTensors(m any) map[string]*ml.Tensor {
	tensors := make(map[string]*ml.Tensor)
	collectTensors(reflect.Indirect(reflect.ValueOf(m)), nil, tensors)
	return tensors
}

// collectTensors besucht Strukturfelder rekursiv und sammelt Tensoren
func collectTensors(v reflect.Value, path []string, tensors map[string]*ml.Tensor) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return
		}
		if v.Type() == tensorType {
			name := strings.Join(path, ".")
			t := v.Interface().(*ml.Tensor)
			t.SetName(name)
			tensors[name] = t
			logutil.Trace("found tensor", "name", name, "shape", t.Shape())
			return
		}
		collectTensors(v.Elem(), path, tensors)

	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}

			childPath := path
			if tag := field.Tag.Get("weights"); tag != "" {
				childPath = append(append([]string{}, path...), tag)
			}
			collectTensors(v.Field(i), childPath, tensors)
		}

	case reflect.Slice, reflect.Array:
		for i := range v.Len() {
			childPath := append(append([]string{}, path...), strconv.Itoa(i))
			collectTensors(v.Index(i), childPath, tensors)
		}
	}
}
