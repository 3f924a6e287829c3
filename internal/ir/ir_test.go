package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstrListInvariants(t *testing.T) {
	fn := NewFunc(100)
	fn.InitInstrList()

	require.Equal(t, InstrEntry, fn.HeadInstr.Kind)
	require.Equal(t, InstrExit, fn.TailInstr.Kind)
	require.Nil(t, fn.HeadInstr.Prev())
	require.Nil(t, fn.TailInstr.Next())

	a := fn.NewInstr(OpcodeNop, nil, nil, nil)
	b := fn.NewInstr(OpcodeNop, nil, nil, nil)
	fn.HeadInstr.InsertAfter(a)
	a.InsertAfter(b)

	// Sentinels and both nops came from the Func's arena.
	require.Equal(t, 4, fn.InstrsAllocated())

	// Every instruction except the head has a previous; every instruction
	// except the exit has a next.
	for i := fn.HeadInstr; i != nil; i = i.Next() {
		if i.Kind != InstrEntry {
			require.NotNil(t, i.Prev())
		}
		if i.Kind != InstrExit {
			require.NotNil(t, i.Next())
		}
	}

	c := fn.NewInstr(OpcodeNop, nil, nil, nil)
	b.InsertBefore(c)
	require.Equal(t, c, a.Next())
	require.Equal(t, a, c.Prev())

	c.Unlink()
	require.Equal(t, b, a.Next())
	require.Equal(t, a, b.Prev())
}

func TestSymTableFindOrCreate(t *testing.T) {
	table := NewSymTable(10)

	s1 := table.FindOrCreateStackSym(3, 3)
	s2 := table.FindOrCreateStackSym(3, 3)
	require.Same(t, s1, s2)
	require.True(t, s1.IsSingleDef)
	require.Equal(t, SymID(3), s1.ID)

	// Allocated ids stay above everything seen so far.
	anon := table.NewStackSym(TyMachPtr)
	require.GreaterOrEqual(t, anon.ID, SymID(10))
	require.False(t, anon.HasByteCodeRegSlot())

	seen := table.FindOrCreateStackSym(42, 42)
	next := table.NewStackSym(TyVar)
	require.Greater(t, next.ID, seen.ID)
}

func TestPropertySymIdentity(t *testing.T) {
	table := NewSymTable(10)
	parent := table.FindOrCreateStackSym(1, 1)

	p1 := table.FindOrCreatePropertySym(parent, 7, PropertyKindData, 0)
	p2 := table.FindOrCreatePropertySym(parent, 7, PropertyKindData, 5)
	require.Same(t, p1, p2)
	// The cache index of the first sighting wins.
	require.Equal(t, uint32(0), p1.CacheIndex)

	// A different kind is a different sym.
	p3 := table.FindOrCreatePropertySym(parent, 7, PropertyKindSlots, NoInlineCacheIndex)
	require.NotSame(t, p1, p3)

	other := table.FindOrCreateStackSym(2, 2)
	p4 := table.FindOrCreatePropertySym(other, 7, PropertyKindData, 0)
	require.NotSame(t, p1, p4)
}

func TestArgSlotSyms(t *testing.T) {
	table := NewSymTable(10)
	a1 := table.GetArgSlotSym(1)
	a2 := table.GetArgSlotSym(2)
	require.NotSame(t, a1, a2)
	require.Same(t, a1, table.GetArgSlotSym(1))
	require.Equal(t, uint16(1), a1.ParamSlot)
}

func TestPool(t *testing.T) {
	p := NewPool[Instr]()
	first := p.Allocate()
	first.Opc = OpcodeRet
	require.Equal(t, 1, p.Allocated())
	require.Equal(t, OpcodeRet, p.View(0).Opc)

	for i := 0; i < 300; i++ {
		p.Allocate()
	}
	require.Equal(t, 301, p.Allocated())

	p.Reset()
	require.Equal(t, 0, p.Allocated())
	fresh := p.Allocate()
	require.Equal(t, OpcodeInvalid, fresh.Opc)
}

func TestFrameDisplayCheckMerging(t *testing.T) {
	fn := NewFunc(0)
	fn.RecordFrameDisplayCheck(5, 1, 2)
	fn.RecordFrameDisplayCheck(5, 3, 1)
	fn.RecordFrameDisplayCheck(6, 1, 1)

	require.Len(t, fn.FrameDisplayChecks, 2)
	require.Equal(t, uint32(3), fn.FrameDisplayChecks[0].ScopeCount)
	require.Equal(t, uint32(2), fn.FrameDisplayChecks[0].SlotCount)
}
