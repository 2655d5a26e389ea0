// Package composition binds physical image assets to the layer slots of
// a template and enumerates every valid binding from a set of asset
// pools.
package composition

import (
	"github.com/prodkit/composer/pkg/errors"
	"github.com/prodkit/composer/pkg/template"
)

// Item binds one asset file to one template layer. The layer reference
// is shared read-only with the template that produced it.
type Item struct {
	AssetPath string
	Layer     *template.Layer
}

// Composition is one complete assignment of assets to a template's
// layers. Compositions are created by the Builder and never mutated.
type Composition struct {
	tpl   *template.Template
	items []*Item
}

// New builds a composition over tpl from the given items.
func New(tpl *template.Template, items ...*Item) *Composition {
	return &Composition{tpl: tpl, items: items}
}

// Template returns the template defining this composition's slots.
func (c *Composition) Template() *template.Template { return c.tpl }

// Items returns the bound items in binding order.
func (c *Composition) Items() []*Item { return c.items }

// IsValid reports whether no two items share a layer slot.
func (c *Composition) IsValid() bool {
	seen := make(map[string]bool, len(c.items))
	for _, it := range c.items {
		id := it.Layer.ID()
		if seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

// PrimaryItem returns the item bound to the primary layer, or nil when
// none is bound. More than one primary binding is a structural defect.
func (c *Composition) PrimaryItem() (*Item, error) {
	return c.singularItem(template.Primary, errors.ErrCodeMultiplePrimary)
}

// PresentationItem returns the item bound to the presentation layer, or
// nil when none is bound.
func (c *Composition) PresentationItem() (*Item, error) {
	return c.singularItem(template.Presentation, errors.ErrCodeMultiplePresentation)
}

// SecondaryItems returns the items bound to secondary layers, in
// binding order.
func (c *Composition) SecondaryItems() []*Item {
	var out []*Item
	for _, it := range c.items {
		if it.Layer.Type() == template.Secondary {
			out = append(out, it)
		}
	}
	return out
}

func (c *Composition) singularItem(typ template.LayerType, code errors.Code) (*Item, error) {
	var found *Item
	for _, it := range c.items {
		if it.Layer.Type() != typ {
			continue
		}
		if found != nil {
			return nil, errors.New(code, "composition binds multiple %s items", typ)
		}
		found = it
	}
	return found, nil
}
