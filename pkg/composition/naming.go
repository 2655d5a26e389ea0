package composition

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// NamePatterns configures deterministic output naming. A nil pattern
// accepts the slot code verbatim.
type NamePatterns struct {
	Primary      *regexp.Regexp
	Secondary    *regexp.Regexp
	Presentation *regexp.Regexp

	// Extension is the output file extension, without the dot.
	Extension string

	// IncludeBackground splices the background asset's stem in as a
	// suffix before the extension.
	IncludeBackground bool
}

// OutputName computes the composition's output file name from its bound
// assets. It performs no I/O: pattern mismatches degrade to an empty
// name segment and are reported in the returned warnings, never as an
// error.
func OutputName(c *Composition, p NamePatterns) (string, []string) {
	var segments []string
	var warnings []string

	add := func(asset string, re *regexp.Regexp, lastGroup bool) {
		if asset == "" {
			return
		}
		code := slotCode(asset)
		name, ok := matchCode(re, code, lastGroup)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("code %q of %q does not match naming pattern %q", code, asset, re))
			return
		}
		if name != "" {
			segments = append(segments, name)
		}
	}

	if it, err := c.PrimaryItem(); err == nil && it != nil {
		add(it.AssetPath, p.Primary, false)
	}
	if it, err := c.PresentationItem(); err == nil && it != nil {
		add(it.AssetPath, p.Presentation, true)
	}
	for _, it := range c.SecondaryItems() {
		add(it.AssetPath, p.Secondary, false)
	}

	if p.IncludeBackground {
		if bg := c.Template().Background(); bg != "" {
			segments = append(segments, stem(bg))
		}
	}

	name := strings.Join(segments, "_")
	if p.Extension != "" {
		name += "." + p.Extension
	}
	return name, warnings
}

// PrimaryCode returns the matched primary code used to group outputs,
// falling back to the raw slot code when the pattern does not match or
// no primary item is bound.
func PrimaryCode(c *Composition, p NamePatterns) string {
	it, err := c.PrimaryItem()
	if err != nil || it == nil {
		return ""
	}
	code := slotCode(it.AssetPath)
	if name, ok := matchCode(p.Primary, code, false); ok && name != "" {
		return name
	}
	return code
}

// slotCode derives the naming code from an asset path: the file stem
// truncated at the first underscore.
func slotCode(asset string) string {
	code, _, _ := strings.Cut(stem(asset), "_")
	return code
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// matchCode matches a slot code against its pattern, anchored at the
// start. With lastGroup set the rightmost participating capture group
// is used instead of the whole match.
func matchCode(re *regexp.Regexp, code string, lastGroup bool) (string, bool) {
	if re == nil {
		return code, true
	}
	loc := re.FindStringSubmatchIndex(code)
	if loc == nil || loc[0] != 0 {
		return "", false
	}
	if lastGroup {
		for g := re.NumSubexp(); g >= 1; g-- {
			if loc[2*g] >= 0 {
				return code[loc[2*g]:loc[2*g+1]], true
			}
		}
	}
	return code[loc[0]:loc[1]], true
}
