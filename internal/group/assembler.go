package group

import "go-rds-decoder/internal/blocksync"

// Counters are the assembler's diagnostic tallies. A dropped group is a
// started quartet abandoned because a block failed or arrived out of
// cadence.
type Counters struct {
	Groups            uint64
	Dropped           uint64
	PIMismatches      uint64 // version-B C' word disagreed with block A's PI
	VersionMismatches uint64 // block B's version flag disagreed with the offset slot
}

// Assembler collects synchronized blocks into groups. A group starts
// only on a valid A block; any invalid or out-of-cadence block discards
// the whole quartet, so a group is either complete and fully valid or
// never emitted.
type Assembler struct {
	blocks   [4]blocksync.Block
	have     int
	counters Counters
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Counters returns a copy of the diagnostic tallies.
func (a *Assembler) Counters() Counters {
	return a.counters
}

// Reset discards any partially collected quartet. Counters are kept.
func (a *Assembler) Reset() {
	a.have = 0
}

// Add feeds one synchronized block. When the block completes a fully
// valid quartet, the assembled group is returned.
func (a *Assembler) Add(blk blocksync.Block) (*Group, bool) {
	if !blk.Valid {
		a.drop()
		return nil, false
	}
	if blk.Slot.Position() != a.have {
		a.drop()
		// An A block that broke the cadence can still start a fresh
		// quartet.
		if blk.Slot != blocksync.SlotA {
			return nil, false
		}
	}

	a.blocks[a.have] = blk
	a.have++
	if a.have < len(a.blocks) {
		return nil, false
	}
	a.have = 0
	return a.emit(), true
}

func (a *Assembler) drop() {
	if a.have > 0 {
		a.counters.Dropped++
		a.have = 0
	}
}

func (a *Assembler) emit() *Group {
	pi := a.blocks[0].Info
	b := a.blocks[1].Info
	c := a.blocks[2].Info
	d := a.blocks[3].Info

	version := VersionA
	if a.blocks[2].Slot == blocksync.SlotCPrime {
		version = VersionB
		// Version-B groups repeat the PI in the C' slot. A disagreement
		// means a miscorrected block slipped through; the group is still
		// emitted under block A's PI.
		if c != pi {
			a.counters.PIMismatches++
		}
	}
	// Block B carries the version flag in bit 11. The slot's offset
	// word was validated by the checkword, so it wins; a disagreement
	// is the same miscorrection signal as a C' PI mismatch.
	if (b&0x800 != 0) != (version == VersionB) {
		a.counters.VersionMismatches++
	}

	groupType := uint8(b >> 12)
	g := &Group{
		PI:             pi,
		Type:           groupType,
		Version:        version,
		TrafficProgram: b&0x400 != 0,
		PTY:            uint8(b >> 5 & 0x1F),
		B:              b,
		C:              c,
		D:              d,
		Payload:        resolvePayload(groupType, version, b, c, d),
	}
	a.counters.Groups++
	return g
}
