// Package blocksync recovers 26-bit RDS blocks from an NRZ data bit
// stream: it hunts for block boundaries using the offset-word syndromes,
// verifies the A-B-C-D cadence before declaring lock, and repairs short
// error bursts while locked.
package blocksync

// RDS blocks are 16 information bits followed by 10 check bits. The
// check bits are the CRC remainder of the information word under the
// generator polynomial, XORed with the slot's offset word.
const (
	BlockBits = 26
	InfoBits  = 16
	CheckBits = 10

	blockMask = 1<<BlockBits - 1
	checkMask = 1<<CheckBits - 1

	// g(x) = x^10 + x^8 + x^7 + x^5 + x^4 + x^3 + 1
	poly = 0x5B9
)

// Slot identifies which of the four group positions a block occupies.
// Version-B groups carry offset word C' instead of C in the third slot.
type Slot int

const (
	SlotA Slot = iota
	SlotB
	SlotC
	SlotCPrime
	SlotD
)

var slotNames = [...]string{"A", "B", "C", "C'", "D"}

func (s Slot) String() string {
	if s < SlotA || s > SlotD {
		return "?"
	}
	return slotNames[s]
}

// Position returns the slot's place in the group cadence, 0..3.
// C and C' share position 2.
func (s Slot) Position() int {
	switch s {
	case SlotCPrime:
		return 2
	case SlotD:
		return 3
	default:
		return int(s)
	}
}

// offsetWords are the fixed 10-bit constants XORed into the check bits
// of each slot. Because the unoffset codeword is divisible by g(x), the
// syndrome of an error-free block equals its slot's offset word.
var offsetWords = [...]uint32{
	SlotA:      0x0FC,
	SlotB:      0x198,
	SlotC:      0x168,
	SlotCPrime: 0x350,
	SlotD:      0x1B4,
}

// slotsByPosition lists which offset words to try at each cadence
// position. Slot 2 tries C first, then C'.
var slotsByPosition = [4][]Slot{
	{SlotA},
	{SlotB},
	{SlotC, SlotCPrime},
	{SlotD},
}

// Block is one synchronized 26-bit block reduced to its information
// word. An uncorrectable block is passed downstream with Valid=false so
// consumers can discard the enclosing group; its Info is meaningless.
type Block struct {
	Slot      Slot
	Info      uint16
	Valid     bool
	Corrected bool
}

// Syndrome computes the remainder of a 26-bit block under the generator
// polynomial. Zero means the block is a plain codeword; a valid
// transmitted block yields its slot's offset word instead.
func Syndrome(block uint32) uint32 {
	r := block & blockMask
	for i := BlockBits - 1; i >= CheckBits; i-- {
		if r&(1<<uint(i)) != 0 {
			r ^= poly << uint(i-CheckBits)
		}
	}
	return r & checkMask
}

// Checkword returns the 10 check bits for an information word in the
// given slot, offset word applied. Used by tests and stream synthesis.
func Checkword(info uint16, slot Slot) uint32 {
	return Syndrome(uint32(info)<<CheckBits) ^ offsetWords[slot]
}

// Assemble builds the full 26-bit transmitted block for an information
// word in the given slot.
func Assemble(info uint16, slot Slot) uint32 {
	return uint32(info)<<CheckBits | Checkword(info, slot)
}
