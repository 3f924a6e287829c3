// Package buildoptions centralizes build-time switches so that they can be
// found and flipped in one place.
package buildoptions

const (
	// IRBuilderTrace dumps each IR instruction as it is added to the list.
	IRBuilderTrace = false

	// RegexTrace dumps matcher state before each instruction dispatch.
	RegexTrace = false

	// MaxSymID bounds symbol allocation as a backstop against runaway
	// bytecode. Compilation fails fast beyond this.
	MaxSymID = 1 << 24
)
