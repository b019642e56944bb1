// Package category holds the static category registry shown on the browsing screens.
package category

import "normas/internal/model"

// Definition describes how a category is presented.
type Definition struct {
	ID    model.Category `json:"id"`
	Name  string         `json:"name"`
	Icon  string         `json:"icon"`
	Theme string         `json:"theme"`
}

// Lookup returns the definition of c. The switch is exhaustive over model.Category,
// so adding a category without a definition fails the registry test.
func Lookup(c model.Category) (Definition, bool) {
	switch c {
	case model.CategoryElectrical:
		return Definition{ID: c, Name: "MONTAGEM ELÉTRICA", Icon: "⚡", Theme: "electric"}, true
	case model.CategoryMechanical:
		return Definition{ID: c, Name: "MONTAGEM MECÂNICA", Icon: "⚙️", Theme: "mechanical"}, true
	case model.CategoryProcess:
		return Definition{ID: c, Name: "PROCESSOS", Icon: "🔄", Theme: "process"}, true
	case model.CategorySafetyAnalysis:
		return Definition{ID: c, Name: "APT'S", Icon: "📋", Theme: "apt"}, true
	}
	return Definition{}, false
}

// LookupID resolves a raw identifier, as received from a route parameter.
func LookupID(id string) (Definition, bool) {
	c, err := model.ParseCategory(id)
	if err != nil {
		return Definition{}, false
	}
	return Lookup(c)
}

// All returns every definition in display order.
func All() []Definition {
	cats := model.Categories()
	out := make([]Definition, 0, len(cats))
	for _, c := range cats {
		if def, ok := Lookup(c); ok {
			out = append(out, def)
		}
	}
	return out
}
