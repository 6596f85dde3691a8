// Package group assembles synchronized blocks into 104-bit RDS groups
// and resolves the group-type dependent payload layout once, at
// assembly time.
package group

import "fmt"

// Version distinguishes the A and B group layouts. Version-B groups
// repeat the PI code in the C' slot, halving the usable payload.
type Version int

const (
	VersionA Version = iota
	VersionB
)

func (v Version) String() string {
	if v == VersionB {
		return "B"
	}
	return "A"
}

// Group is one complete RDS group: the always-present header fields
// from blocks A and B, the raw payload words, and the typed payload
// resolved from (group type, version).
type Group struct {
	PI             uint16
	Type           uint8
	Version        Version
	TrafficProgram bool
	PTY            uint8

	// Raw 16-bit payloads of blocks B, C(or C') and D.
	B, C, D uint16

	Payload Payload
}

// TypeLabel renders the conventional group type name, e.g. "0A" or "2B".
func (g *Group) TypeLabel() string {
	return fmt.Sprintf("%d%s", g.Type, g.Version)
}

// Payload is the tagged variant carried by a group. Consumers switch on
// the concrete type; unhandled group types decode to RawPayload.
type Payload interface {
	payload()
}

// BasicTuning is the type-0 payload: one two-character PS segment plus
// the per-segment flags. AltFreqs carries the two AF codes of a 0A
// group's C block; 0B groups have none.
type BasicTuning struct {
	Segment             int // 0..3, low two bits of block B
	TrafficAnnouncement bool
	Music               bool // music/speech bit, true for music
	DecoderBit          bool // DI bit for this segment
	Chars               [2]byte
	AltFreqs            [2]byte
	HasAltFreqs         bool
}

// RadioText is the type-2 payload: one RT segment. 2A groups carry four
// characters (blocks C and D); 2B groups carry two (block D only) into
// a 32-character message.
type RadioText struct {
	Segment int  // 0..15, low four bits of block B
	Toggle  bool // A/B text flag, bit 4 of block B
	Chars   []byte
}

// RawPayload marks group types the field extractors do not interpret.
// They are still counted per station for diagnostics.
type RawPayload struct{}

func (BasicTuning) payload() {}
func (RadioText) payload()   {}
func (RawPayload) payload()  {}

// resolvePayload decodes the group-type dependent bits. The shared
// header fields of block B have already been extracted by the caller.
func resolvePayload(groupType uint8, version Version, b, c, d uint16) Payload {
	switch groupType {
	case 0:
		bt := BasicTuning{
			Segment:             int(b & 0x3),
			TrafficAnnouncement: b&0x10 != 0,
			Music:               b&0x8 != 0,
			DecoderBit:          b&0x4 != 0,
			Chars:               [2]byte{byte(d >> 8), byte(d)},
		}
		if version == VersionA {
			bt.AltFreqs = [2]byte{byte(c >> 8), byte(c)}
			bt.HasAltFreqs = true
		}
		return bt
	case 2:
		rt := RadioText{
			Segment: int(b & 0xF),
			Toggle:  b&0x10 != 0,
		}
		if version == VersionA {
			rt.Chars = []byte{byte(c >> 8), byte(c), byte(d >> 8), byte(d)}
		} else {
			rt.Chars = []byte{byte(d >> 8), byte(d)}
		}
		return rt
	default:
		return RawPayload{}
	}
}
