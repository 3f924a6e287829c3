package regex

import "unicode"

// MappingSource selects which case table canonicalization uses. The Unicode
// flag selects case folding; legacy mode uses the UnicodeData simple
// mappings, which notably do not fold across ASCII/Kelvin-sign style
// equivalences the same way.
type MappingSource byte

const (
	// MappingSourceUnicodeData is the legacy simple case mapping.
	MappingSourceUnicodeData MappingSource = iota
	// MappingSourceCaseFolding is Unicode simple case folding.
	MappingSourceCaseFolding
)

// EquivClassSize is the size of a canonical equivalence class. Every code
// unit has at most four case-equivalent forms under simple folding.
const EquivClassSize = 4

// toCanonical maps a code unit to the canonical representative of its case
// equivalence class.
func toCanonical(source MappingSource, c Char) Char {
	if source == MappingSourceUnicodeData {
		// Simple upper mapping, BMP only.
		r := unicode.ToUpper(rune(c))
		if r > 0xFFFF {
			return c
		}
		return Char(r)
	}
	// Case folding: the canonical member is the smallest element of the
	// fold orbit.
	return Char(canonicalFold(rune(c)))
}

// canonicalFold returns the smallest rune in the SimpleFold orbit of r that
// still fits the BMP.
func canonicalFold(r rune) rune {
	min := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < min {
			min = f
		}
	}
	if min > 0xFFFF {
		return r
	}
	return min
}

// equivClass fills equivs with the case equivalence class of the code point,
// padding with repeats of the code point itself. Returns the class size
// actually present.
func equivClass(cp rune, equivs *[EquivClassSize]rune) int {
	n := 0
	equivs[n] = cp
	n++
	for f := unicode.SimpleFold(cp); f != cp && n < EquivClassSize; f = unicode.SimpleFold(f) {
		equivs[n] = f
		n++
	}
	for i := n; i < EquivClassSize; i++ {
		equivs[i] = cp
	}
	return n
}
