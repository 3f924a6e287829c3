// Package chakra exposes the just-in-time compilation cores of a JavaScript
// engine as a library: the IR builder that turns a function body's bytecode
// into linear IR, the regex execution engine that runs compiled regex
// programs, and the line offset cache used to map source positions.
//
// The surrounding engine pieces - parser, bytecode generator, optimizer,
// native code emitter, script runtime - are external collaborators; their
// interfaces appear here as the read-only input façades in
// internal/bytecode and the Program format in internal/regex.
package chakra

import (
	"fmt"

	"github.com/chakra-core/ChakraCore-sub024/internal/bytecode"
	"github.com/chakra-core/ChakraCore-sub024/internal/ir"
	"github.com/chakra-core/ChakraCore-sub024/internal/irbuilder"
	"github.com/chakra-core/ChakraCore-sub024/internal/linecache"
	"github.com/chakra-core/ChakraCore-sub024/internal/regex"
)

// CompileConfig controls one function compilation, with the default
// implementation as NewCompileConfig.
type CompileConfig struct {
	isLoopBody     bool
	loopNumber     uint32
	jitInDebugMode bool
}

// NewCompileConfig returns the default whole-function configuration.
func NewCompileConfig() *CompileConfig {
	return &CompileConfig{}
}

func (c *CompileConfig) clone() *CompileConfig {
	ret := *c
	return &ret
}

// WithLoopBody compiles only the given loop's body, for on-stack
// replacement.
func (c *CompileConfig) WithLoopBody(loopNumber uint32) *CompileConfig {
	ret := c.clone()
	ret.isLoopBody = true
	ret.loopNumber = loopNumber
	return ret
}

// WithJITDebugMode builds debugger bailouts into the IR.
func (c *CompileConfig) WithJITDebugMode() *CompileConfig {
	ret := c.clone()
	ret.jitInDebugMode = true
	return ret
}

// CompileFunction builds the IR for the function body. The returned Func
// holds the head-to-tail instruction list and the populated symbol table.
//
// Corrupt bytecode surfaces as an error; the compilation is abandoned but
// the process is unaffected.
func CompileFunction(config *CompileConfig, body *bytecode.FunctionBody) (fn *ir.Func, err error) {
	if config == nil {
		config = NewCompileConfig()
	}

	defer func() {
		if r := recover(); r != nil {
			if fatal, ok := r.(*ir.FatalInternalError); ok {
				fn, err = nil, fatal
				return
			}
			panic(r)
		}
	}()

	fn = ir.NewFunc(ir.SymID(body.LocalsCount))
	builder := irbuilder.New(fn, body, irbuilder.BuildOptions{
		IsLoopBody:     config.isLoopBody,
		LoopNumber:     config.loopNumber,
		JITInDebugMode: config.jitInDebugMode,
	})
	builder.Build()
	return fn, nil
}

// LoadRegexProgram decodes a serialized regex program.
func LoadRegexProgram(buf []byte) (*regex.Program, error) {
	p, err := regex.LoadProgram(buf)
	if err != nil {
		return nil, fmt.Errorf("load regex program: %w", err)
	}
	return p, nil
}

// NewRegexMatcher returns a matcher for the program. Matchers are not safe
// for concurrent use; clone one per script context.
func NewRegexMatcher(p *regex.Program) *regex.Matcher {
	return regex.NewMatcher(p)
}

// BuildLineCache scans the UTF-8 source and returns its line index.
func BuildLineCache(source []byte, startCharOffset, startByteOffset uint32) *linecache.Cache {
	return linecache.Build(source, startCharOffset, startByteOffset)
}
