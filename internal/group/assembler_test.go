package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-rds-decoder/internal/blocksync"
)

func validBlock(slot blocksync.Slot, info uint16) blocksync.Block {
	return blocksync.Block{Slot: slot, Info: info, Valid: true}
}

// addGroup pushes a full quartet and returns the emitted group.
func addGroup(t *testing.T, a *Assembler, pi, b, c, d uint16, cSlot blocksync.Slot) *Group {
	t.Helper()
	for _, blk := range []blocksync.Block{
		validBlock(blocksync.SlotA, pi),
		validBlock(blocksync.SlotB, b),
		validBlock(cSlot, c),
	} {
		_, ok := a.Add(blk)
		require.False(t, ok, "group emitted before the quartet completed")
	}
	g, ok := a.Add(validBlock(blocksync.SlotD, d))
	require.True(t, ok, "complete valid quartet must emit a group")
	return g
}

func TestAssembler_EmitsTypeZeroA(t *testing.T) {
	a := NewAssembler()

	// 0A group: type 0, TP set, PTY 10, TA set, music, DI, segment 2.
	b := uint16(0<<12 | 0x400 | 10<<5 | 0x10 | 0x8 | 0x4 | 2)
	g := addGroup(t, a, 0xF201, b, 0xE1E2, 0x4142, blocksync.SlotC)

	assert.Equal(t, uint16(0xF201), g.PI)
	assert.Equal(t, uint8(0), g.Type)
	assert.Equal(t, VersionA, g.Version)
	assert.Equal(t, "0A", g.TypeLabel())
	assert.True(t, g.TrafficProgram)
	assert.Equal(t, uint8(10), g.PTY)

	bt, ok := g.Payload.(BasicTuning)
	require.True(t, ok)
	assert.Equal(t, 2, bt.Segment)
	assert.True(t, bt.TrafficAnnouncement)
	assert.True(t, bt.Music)
	assert.True(t, bt.DecoderBit)
	assert.Equal(t, [2]byte{'A', 'B'}, bt.Chars)
	assert.True(t, bt.HasAltFreqs)
	assert.Equal(t, [2]byte{0xE1, 0xE2}, bt.AltFreqs)
}

func TestAssembler_EmitsRadioText(t *testing.T) {
	a := NewAssembler()

	// 2A group: segment 3, toggle set.
	b := uint16(2<<12 | 0x10 | 3)
	g := addGroup(t, a, 0xF201, b, 0x4845, 0x4C4C, blocksync.SlotC)

	rt, ok := g.Payload.(RadioText)
	require.True(t, ok)
	assert.Equal(t, 3, rt.Segment)
	assert.True(t, rt.Toggle)
	assert.Equal(t, []byte("HELL"), rt.Chars)

	// 2B group: two characters from block D only.
	b = uint16(2<<12 | 0x800 | 5)
	g = addGroup(t, a, 0xF201, b, 0xF201, 0x484F, blocksync.SlotCPrime)
	rt, ok = g.Payload.(RadioText)
	require.True(t, ok)
	assert.Equal(t, VersionB, g.Version)
	assert.Equal(t, 5, rt.Segment)
	assert.False(t, rt.Toggle)
	assert.Equal(t, []byte("HO"), rt.Chars)
}

func TestAssembler_UnknownTypeIsRaw(t *testing.T) {
	a := NewAssembler()
	g := addGroup(t, a, 0xF201, 0x4000, 0x1234, 0x5678, blocksync.SlotC)
	assert.Equal(t, uint8(4), g.Type)
	assert.IsType(t, RawPayload{}, g.Payload)
	assert.Equal(t, uint16(0x1234), g.C)
	assert.Equal(t, uint16(0x5678), g.D)
}

func TestAssembler_InvalidBlockDropsWholeGroup(t *testing.T) {
	a := NewAssembler()

	a.Add(validBlock(blocksync.SlotA, 0xF201))
	a.Add(validBlock(blocksync.SlotB, 0x0000))
	_, ok := a.Add(blocksync.Block{Slot: blocksync.SlotC, Valid: false})
	assert.False(t, ok)
	_, ok = a.Add(validBlock(blocksync.SlotD, 0x0000))
	assert.False(t, ok, "a quartet with a failed block must not emit")

	assert.Equal(t, uint64(1), a.Counters().Dropped)
	assert.Equal(t, uint64(0), a.Counters().Groups)

	// The next clean quartet emits normally.
	g := addGroup(t, a, 0xF201, 0x0000, 0x0000, 0x0000, blocksync.SlotC)
	assert.Equal(t, uint16(0xF201), g.PI)
	assert.Equal(t, uint64(1), a.Counters().Groups)
}

func TestAssembler_WaitsForABlock(t *testing.T) {
	a := NewAssembler()

	// Mid-group blocks before any A block are ignored.
	_, ok := a.Add(validBlock(blocksync.SlotC, 0x1111))
	assert.False(t, ok)
	_, ok = a.Add(validBlock(blocksync.SlotD, 0x2222))
	assert.False(t, ok)
	assert.Equal(t, uint64(0), a.Counters().Dropped)

	g := addGroup(t, a, 0xF201, 0x0000, 0x0000, 0x0000, blocksync.SlotC)
	assert.Equal(t, uint16(0xF201), g.PI)
}

func TestAssembler_ABlockRestartsBrokenCadence(t *testing.T) {
	a := NewAssembler()

	a.Add(validBlock(blocksync.SlotA, 0x1111))
	a.Add(validBlock(blocksync.SlotB, 0x0000))
	// The next A block abandons the stalled quartet and starts over.
	a.Add(validBlock(blocksync.SlotA, 0xF201))
	a.Add(validBlock(blocksync.SlotB, 0x0000))
	a.Add(validBlock(blocksync.SlotC, 0x0000))
	g, ok := a.Add(validBlock(blocksync.SlotD, 0x0000))

	require.True(t, ok)
	assert.Equal(t, uint16(0xF201), g.PI)
	assert.Equal(t, uint64(1), a.Counters().Dropped)
}

func TestAssembler_CountsVersionBPIMismatch(t *testing.T) {
	a := NewAssembler()

	b := uint16(0<<12 | 0x800)
	g := addGroup(t, a, 0xF201, b, 0xBEEF, 0x0000, blocksync.SlotCPrime)
	assert.Equal(t, uint16(0xF201), g.PI, "block A's PI wins on disagreement")
	assert.Equal(t, uint64(1), a.Counters().PIMismatches)
	assert.Equal(t, uint64(0), a.Counters().VersionMismatches)
}

func TestAssembler_CountsVersionFlagMismatch(t *testing.T) {
	a := NewAssembler()

	// Version flag says B, but the third block validated against the C
	// offset word. The slot wins; the disagreement is counted.
	b := uint16(0<<12 | 0x800)
	g := addGroup(t, a, 0xF201, b, 0x0000, 0x0000, blocksync.SlotC)
	assert.Equal(t, VersionA, g.Version)
	assert.Equal(t, uint64(1), a.Counters().VersionMismatches)

	// And the other way round: C' slot with a cleared flag.
	g = addGroup(t, a, 0xF201, 0x0000, 0xF201, 0x0000, blocksync.SlotCPrime)
	assert.Equal(t, VersionB, g.Version)
	assert.Equal(t, uint64(2), a.Counters().VersionMismatches)

	// Consistent groups leave the counter alone.
	addGroup(t, a, 0xF201, 0x0000, 0x0000, 0x0000, blocksync.SlotC)
	assert.Equal(t, uint64(2), a.Counters().VersionMismatches)
}
