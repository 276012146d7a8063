// register.go - Registrierung der Architektur in der Modell-Registry
package bert

import "github.com/nlpgo/bert/model"

func init() {
	model.Register("bert", func(cfg model.Config) (model.Model, error) {
		c, ok := cfg.(Config)
		if !ok {
			return nil, model.Configf("bert erwartet bert.Config, nicht %T", cfg)
		}
		return New(c)
	})
}
