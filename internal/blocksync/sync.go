package blocksync

// State is the synchronizer's acquisition state.
type State int

const (
	// Unlocked: sliding a 26-bit window one bit at a time, looking for
	// any offset-word syndrome match.
	Unlocked State = iota
	// Verifying: a candidate alignment was found; exact recoveries in
	// cadence are required before blocks are trusted.
	Verifying
	// Locked: blocks are read every 26 bits at the fixed alignment.
	Locked
)

var stateNames = [...]string{"unlocked", "verifying", "locked"}

func (s State) String() string {
	if s < Unlocked || s > Locked {
		return "?"
	}
	return stateNames[s]
}

// Counters are the synchronizer's diagnostic tallies. BitsSinceLock
// keeps growing while unlocked; a large value against a healthy bit
// count is the "never locks" signal for wrong polarity or bit order.
type Counters struct {
	Bits            uint64
	Candidates      uint64
	BlocksValid     uint64
	BlocksCorrected uint64
	BlocksFailed    uint64
	Acquisitions    uint64
	LockLosses      uint64
	BitsSinceLock   uint64
}

// BlockErrorRate is the fraction of recovered blocks that were
// uncorrectable. Zero when no blocks have been recovered yet.
func (c Counters) BlockErrorRate() float64 {
	total := c.BlocksValid + c.BlocksCorrected + c.BlocksFailed
	if total == 0 {
		return 0
	}
	return float64(c.BlocksFailed) / float64(total)
}

// Synchronizer locates 26-bit block boundaries in an NRZ data bit
// stream and validates blocks against the offset words. All transitions
// are computed synchronously per incoming bit; nothing blocks.
type Synchronizer struct {
	verifyBlocks int
	lossBlocks   int
	corrections  burstTable

	state    State
	window   uint32 // most recent 26 bits
	primed   int    // bits seen since reset, saturating at 26
	bitCount int    // bits since the last block boundary
	position int    // cadence position of the next expected block
	verified int    // consecutive exact recoveries while verifying
	failures int    // consecutive failed blocks while locked

	counters Counters
}

// New creates a Synchronizer. verifyBlocks is the debounce before
// declaring lock, lossBlocks the failure run that loses it, and
// maxCorrectBurst the widest burst repaired in place (0 disables
// correction).
func New(verifyBlocks, lossBlocks, maxCorrectBurst int) *Synchronizer {
	if verifyBlocks < 1 {
		verifyBlocks = 1
	}
	if lossBlocks < 1 {
		lossBlocks = 1
	}
	return &Synchronizer{
		verifyBlocks: verifyBlocks,
		lossBlocks:   lossBlocks,
		corrections:  newBurstTable(maxCorrectBurst),
	}
}

// State returns the current acquisition state.
func (s *Synchronizer) State() State {
	return s.state
}

// Counters returns a copy of the diagnostic tallies.
func (s *Synchronizer) Counters() Counters {
	return s.counters
}

// Reset drops all alignment state, as after a retune. Counters are kept.
func (s *Synchronizer) Reset() {
	s.state = Unlocked
	s.window = 0
	s.primed = 0
	s.bitCount = 0
	s.verified = 0
	s.failures = 0
}

// ProcessBit advances the synchronizer by one data bit. While locked, a
// Block is returned every 26 bits; invalid blocks are returned too,
// flagged, so the group assembler can discard the enclosing group.
func (s *Synchronizer) ProcessBit(bit byte) (Block, bool) {
	s.window = (s.window<<1 | uint32(bit&1)) & blockMask
	s.counters.Bits++
	if s.primed < BlockBits {
		s.primed++
	}
	if s.state != Locked {
		s.counters.BitsSinceLock++
	}

	switch s.state {
	case Unlocked:
		if s.primed >= BlockBits {
			s.hunt()
		}
	case Verifying:
		s.bitCount++
		if s.bitCount == BlockBits {
			s.verify()
		}
	case Locked:
		s.bitCount++
		if s.bitCount == BlockBits {
			return s.recover(), true
		}
	}
	return Block{}, false
}

// hunt checks the current window against every offset word. Acquisition
// accepts exact matches only; correction is reserved for the locked
// state, where the alignment is already trusted.
func (s *Synchronizer) hunt() {
	syn := Syndrome(s.window)
	for slot := SlotA; slot <= SlotD; slot++ {
		if syn != offsetWords[slot] {
			continue
		}
		s.counters.Candidates++
		s.state = Verifying
		s.position = (slot.Position() + 1) % 4
		s.verified = 1
		s.bitCount = 0
		return
	}
}

// verify requires the expected slot's offset word exactly 26 bits after
// the previous block. Any miss sends the synchronizer back to hunting,
// starting with the window that just failed.
func (s *Synchronizer) verify() {
	s.bitCount = 0
	syn := Syndrome(s.window)

	matched := false
	for _, slot := range slotsByPosition[s.position] {
		if syn == offsetWords[slot] {
			matched = true
			break
		}
	}
	if !matched {
		s.state = Unlocked
		s.hunt()
		return
	}

	s.verified++
	s.position = (s.position + 1) % 4
	if s.verified >= s.verifyBlocks {
		s.state = Locked
		s.failures = 0
		s.counters.Acquisitions++
		s.counters.BitsSinceLock = 0
	}
}

// recover reads the block at the locked alignment: exact match first,
// then burst correction, trying C' as the slot-2 alternate in both
// passes. The cadence advances regardless of the outcome.
func (s *Synchronizer) recover() Block {
	s.bitCount = 0
	pos := s.position
	s.position = (s.position + 1) % 4
	syn := Syndrome(s.window)

	for _, slot := range slotsByPosition[pos] {
		if syn == offsetWords[slot] {
			s.failures = 0
			s.counters.BlocksValid++
			return Block{Slot: slot, Info: uint16(s.window >> CheckBits), Valid: true}
		}
	}

	for _, slot := range slotsByPosition[pos] {
		if fixed, ok := s.corrections.correct(s.window, syn, offsetWords[slot]); ok {
			s.failures = 0
			s.counters.BlocksCorrected++
			return Block{Slot: slot, Info: uint16(fixed >> CheckBits), Valid: true, Corrected: true}
		}
	}

	s.counters.BlocksFailed++
	s.failures++
	blk := Block{Slot: slotsByPosition[pos][0]}
	if s.failures >= s.lossBlocks {
		s.state = Unlocked
		s.failures = 0
		s.counters.LockLosses++
	}
	return blk
}
