package blocksync

import "math/bits"

// burstTable maps the syndrome of an error pattern to the pattern
// itself, for all bursts up to a configured width anywhere in a block.
// Correction is a single table lookup: the code is linear, so the
// syndrome of a corrupted block XOR its offset word is the syndrome of
// the error alone.
type burstTable map[uint32]uint32

// newBurstTable enumerates every burst of span 1..maxBurst at every
// position in a 26-bit block. Narrower bursts are inserted first so an
// ambiguous syndrome resolves to the lowest-weight repair; 0 disables
// correction entirely.
func newBurstTable(maxBurst int) burstTable {
	if maxBurst <= 0 {
		return nil
	}
	if maxBurst > 5 {
		// Beyond 5 bits the (26,16) code can no longer separate
		// bursts from codewords.
		maxBurst = 5
	}

	t := make(burstTable)
	for span := 1; span <= maxBurst; span++ {
		lo := uint32(1) << uint(span-1)
		for p := lo; p < lo<<1; p++ {
			if p&1 == 0 {
				continue // span would be shorter than claimed
			}
			for shift := 0; shift+span <= BlockBits; shift++ {
				e := p << uint(shift)
				if _, ok := t[Syndrome(e)]; !ok {
					t[Syndrome(e)] = e
				}
			}
		}
	}
	return t
}

// correct attempts to repair a received block against one offset word.
// It returns the repaired block and whether a correction applied.
func (t burstTable) correct(block, syndrome, offset uint32) (uint32, bool) {
	if t == nil {
		return block, false
	}
	pattern, ok := t[syndrome^offset]
	if !ok {
		return block, false
	}
	return block ^ pattern, true
}

// spanOf reports the burst span of an error pattern, for diagnostics.
func spanOf(pattern uint32) int {
	if pattern == 0 {
		return 0
	}
	return bits.Len32(pattern) - bits.TrailingZeros32(pattern)
}
