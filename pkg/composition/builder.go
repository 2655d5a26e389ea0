package composition

import (
	"iter"

	"github.com/prodkit/composer/pkg/template"
)

// BuilderOptions selects which asset pools participate in enumeration.
// A disabled axis contributes no item to any composition.
type BuilderOptions struct {
	IncludePresentation bool
	IncludeSecondary    bool
}

// Builder enumerates every valid composition of the given asset pools
// over a template. Enumeration is lazy and holds no external resources;
// re-invoking Compositions restarts it.
type Builder struct {
	tpl           *template.Template
	primaries     []string
	secondaries   []string
	presentations []string
	opts          BuilderOptions
}

// NewBuilder returns a builder over tpl and the three asset pools.
func NewBuilder(tpl *template.Template, primaries, secondaries, presentations []string, opts BuilderOptions) *Builder {
	return &Builder{
		tpl:           tpl,
		primaries:     primaries,
		secondaries:   secondaries,
		presentations: presentations,
		opts:          opts,
	}
}

// Compositions yields every composition in deterministic order: input
// pool order with primaries outermost, presentations second, secondary
// permutation groups innermost. A template without a primary layer
// yields nothing.
func (b *Builder) Compositions() iter.Seq[*Composition] {
	return func(yield func(*Composition) bool) {
		primaryLayer, err := b.tpl.PrimaryLayer()
		if err != nil || primaryLayer == nil {
			return
		}
		presentationLayer, err := b.tpl.PresentationLayer()
		if err != nil {
			return
		}
		secondaryLayers := b.tpl.SecondaryLayers()

		presentationPool := []string{""}
		if b.opts.IncludePresentation && presentationLayer != nil {
			presentationPool = b.presentations
		}

		k := 0
		if b.opts.IncludeSecondary {
			k = len(secondaryLayers)
		}

		for _, primary := range b.primaries {
			for _, presentation := range presentationPool {
				ok := permute(b.secondaries, k, func(group []string) bool {
					items := make([]*Item, 0, 2+k)
					items = append(items, &Item{AssetPath: primary, Layer: primaryLayer})
					if presentation != "" {
						items = append(items, &Item{AssetPath: presentation, Layer: presentationLayer})
					}
					for i, asset := range group {
						items = append(items, &Item{AssetPath: asset, Layer: secondaryLayers[i]})
					}
					return yield(New(b.tpl, items...))
				})
				if !ok {
					return
				}
			}
		}
	}
}

// Count returns the number of compositions the builder will yield:
// p × r × P(s, k), with a disabled or absent axis contributing 1.
func (b *Builder) Count() int {
	primaryLayer, err := b.tpl.PrimaryLayer()
	if err != nil || primaryLayer == nil {
		return 0
	}
	presentationLayer, err := b.tpl.PresentationLayer()
	if err != nil {
		return 0
	}

	n := len(b.primaries)
	if b.opts.IncludePresentation && presentationLayer != nil {
		n *= len(b.presentations)
	}
	if b.opts.IncludeSecondary {
		n *= numPermutations(len(b.secondaries), len(b.tpl.SecondaryLayers()))
	}
	return n
}

// permute visits every length-k ordered selection from pool, in pool
// order. k = 0 visits a single empty group. Returns false if the
// visitor stopped early.
func permute(pool []string, k int, visit func([]string) bool) bool {
	if k > len(pool) {
		return true
	}
	used := make([]bool, len(pool))
	group := make([]string, 0, k)

	var walk func() bool
	walk = func() bool {
		if len(group) == k {
			return visit(group)
		}
		for i, asset := range pool {
			if used[i] {
				continue
			}
			used[i] = true
			group = append(group, asset)
			ok := walk()
			group = group[:len(group)-1]
			used[i] = false
			if !ok {
				return false
			}
		}
		return true
	}
	return walk()
}

// numPermutations returns P(s, k) = s! / (s-k)!.
func numPermutations(s, k int) int {
	if k > s {
		return 0
	}
	n := 1
	for i := 0; i < k; i++ {
		n *= s - i
	}
	return n
}
