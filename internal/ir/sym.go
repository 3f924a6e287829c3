package ir

import "fmt"

// SymID is the stable identity of a stack symbol. Bytecode register slots map
// directly onto the low SymID range; ids above the bytecode register space are
// allocated by the builder for temps and internal values.
type SymID uint32

// NoSymID marks an absent symbol reference.
const NoSymID = SymID(0xFFFFFFFF)

// PropertyKind distinguishes what a property id on a PropertySym refers to.
type PropertyKind byte

const (
	// PropertyKindData is a named data property looked up via inline cache.
	PropertyKindData PropertyKind = iota
	// PropertyKindSlots is a scope-slot array index.
	PropertyKindSlots
	// PropertyKindSlotArray is a slot-array-of-arrays index.
	PropertyKindSlotArray
	// PropertyKindLocalSlots is an interpreter-frame locals index, used by
	// loop-body slot loads and stores.
	PropertyKindLocalSlots
)

// StackSym is an SSA-tracked value rooted at a bytecode register or at a
// builder-allocated temporary.
type StackSym struct {
	ID SymID

	// ByteCodeRegSlot is the bytecode register this sym is rooted at, or
	// NoRegSlot for JIT-internal syms. Needed to restore the interpreter
	// frame on bailout.
	ByteCodeRegSlot uint32

	// ParamSlot is non-zero for parameter syms; parameter n occupies
	// ParamSlot n (1-based).
	ParamSlot uint16

	// Offset is the frame offset for param syms, or an opaque payload for
	// TyMisc syms.
	Offset int32

	Type Type

	IsSingleDef         bool
	IsNotNumber         bool
	IsSafeThis          bool
	IsConst             bool
	IsCatchObjectSym    bool
	IsFromConstantTable bool

	// InstrDef is the defining instruction while IsSingleDef holds.
	InstrDef *Instr
}

// NoRegSlot marks a sym with no bytecode register backing.
const NoRegSlot = uint32(0xFFFFFFFF)

// HasByteCodeRegSlot reports whether the sym is rooted at a bytecode register.
func (s *StackSym) HasByteCodeRegSlot() bool {
	return s.ByteCodeRegSlot != NoRegSlot
}

// String implements fmt.Stringer.
func (s *StackSym) String() string {
	return fmt.Sprintf("s%d", s.ID)
}

// PropertySym names a property on a parent stack sym: (parent, propertyID)
// plus the inline cache index the bytecode assigned to the access site.
type PropertySym struct {
	Parent     *StackSym
	PropertyID int32
	Kind       PropertyKind

	// CacheIndex is the inline cache index, or NoInlineCacheIndex.
	CacheIndex uint32

	// LoadCacheIndex records the first load site's cache index for PRE.
	LoadCacheIndex uint32
}

// NoInlineCacheIndex marks a field access without an inline cache.
const NoInlineCacheIndex = uint32(0xFFFFFFFF)

// String implements fmt.Stringer.
func (p *PropertySym) String() string {
	return fmt.Sprintf("%s.#%d", p.Parent, p.PropertyID)
}

type propertySymKey struct {
	parent SymID
	id     int32
	kind   PropertyKind
}

// SymTable resolves find-or-create on stack syms keyed by SymID and property
// syms keyed by (parent, property id, kind). It also owns arg-slot syms for
// the ArgOut chain. Sym records come from the table's arenas and live until
// the compilation ends.
type SymTable struct {
	stackSymPool    Pool[StackSym]
	propertySymPool Pool[PropertySym]

	stackSyms    map[SymID]*StackSym
	propertySyms map[propertySymKey]*PropertySym
	argSlotSyms  map[uint16]*StackSym
	nextID       SymID
}

// NewSymTable returns a SymTable whose allocated ids start above the bytecode
// register space.
func NewSymTable(firstAllocatableID SymID) *SymTable {
	return &SymTable{
		stackSymPool:    NewPool[StackSym](),
		propertySymPool: NewPool[PropertySym](),
		stackSyms:       map[SymID]*StackSym{},
		propertySyms:    map[propertySymKey]*PropertySym{},
		argSlotSyms:     map[uint16]*StackSym{},
		nextID:          firstAllocatableID,
	}
}

// NewID hands out a fresh SymID above every id seen so far.
func (t *SymTable) NewID() SymID {
	id := t.nextID
	t.nextID++
	return id
}

// FindStackSym returns the stack sym for the id, or nil.
func (t *SymTable) FindStackSym(id SymID) *StackSym {
	return t.stackSyms[id]
}

// FindOrCreateStackSym resolves the id, creating the sym on first sight.
// A sym is single-def until its second definition site.
func (t *SymTable) FindOrCreateStackSym(id SymID, byteCodeRegSlot uint32) *StackSym {
	if sym, ok := t.stackSyms[id]; ok {
		return sym
	}
	sym := t.allocStackSym()
	*sym = StackSym{ID: id, ByteCodeRegSlot: byteCodeRegSlot, Type: TyVar, IsSingleDef: true}
	t.stackSyms[id] = sym
	if id >= t.nextID {
		t.nextID = id + 1
	}
	return sym
}

// NewStackSym allocates an anonymous JIT-internal sym.
func (t *SymTable) NewStackSym(typ Type) *StackSym {
	sym := t.allocStackSym()
	*sym = StackSym{ID: t.NewID(), ByteCodeRegSlot: NoRegSlot, Type: typ, IsSingleDef: true}
	t.stackSyms[sym.ID] = sym
	return sym
}

func (t *SymTable) allocStackSym() *StackSym {
	return t.stackSymPool.Allocate()
}

// NewParamSlotSym allocates the sym for parameter slot n (1-based).
func (t *SymTable) NewParamSlotSym(n uint16) *StackSym {
	sym := t.NewStackSym(TyMachPtr)
	sym.ParamSlot = n
	return sym
}

// GetArgSlotSym returns the shared sym for outgoing argument slot n.
func (t *SymTable) GetArgSlotSym(n uint16) *StackSym {
	if sym, ok := t.argSlotSyms[n]; ok {
		return sym
	}
	sym := t.NewStackSym(TyVar)
	sym.ParamSlot = n
	t.argSlotSyms[n] = sym
	return sym
}

// FindOrCreatePropertySym resolves (parent, propertyID, kind), creating on
// first sight.
func (t *SymTable) FindOrCreatePropertySym(parent *StackSym, propertyID int32, kind PropertyKind, cacheIndex uint32) *PropertySym {
	key := propertySymKey{parent: parent.ID, id: propertyID, kind: kind}
	if sym, ok := t.propertySyms[key]; ok {
		return sym
	}
	sym := t.propertySymPool.Allocate()
	*sym = PropertySym{
		Parent:         parent,
		PropertyID:     propertyID,
		Kind:           kind,
		CacheIndex:     cacheIndex,
		LoadCacheIndex: NoInlineCacheIndex,
	}
	t.propertySyms[key] = sym
	return sym
}
