// Package station consolidates decoded groups into per-station state:
// the PS name and radiotext buffers, the header flags, and a group-type
// histogram. The tracker above it keys stations by PI and ages them out.
package station

import (
	"strings"
	"time"

	"go-rds-decoder/internal/group"
)

const (
	psChars = 8
	rtChars = 64

	// Radiotext messages shorter than the buffer end with a carriage
	// return; rendering stops there.
	rtTerminator = 0x0D
)

// Station is the consolidated state for one PI code. Buffer cells are
// only written for segments actually received; absent segments keep
// their previous contents.
type Station struct {
	PI uint16

	PTY                 uint8
	TrafficProgram      bool
	TrafficAnnouncement bool
	Music               bool

	// Decoder identification, one bit per PS segment.
	Stereo         bool
	ArtificialHead bool
	Compressed     bool
	DynamicPTY     bool

	ps [psChars]byte

	rt        [rtChars]byte
	rtLen     int // 64 for version A, 32 for version B
	rtToggle  bool
	rtSeen    bool
	altFreqs  map[byte]bool
	histogram map[string]uint64

	Created  time.Time
	LastSeen time.Time
}

func newStation(pi uint16, now time.Time) *Station {
	s := &Station{
		PI:        pi,
		altFreqs:  make(map[byte]bool),
		histogram: make(map[string]uint64),
		Created:   now,
		LastSeen:  now,
	}
	s.clearPS()
	s.clearRT(rtChars)
	return s
}

func (s *Station) clearPS() {
	for i := range s.ps {
		s.ps[i] = ' '
	}
}

func (s *Station) clearRT(length int) {
	for i := range s.rt {
		s.rt[i] = ' '
	}
	s.rtLen = length
}

// Update reports what a single group changed on a station.
type Update struct {
	PI        uint16
	Created   bool
	PSChanged bool
	RTChanged bool
	RTCleared bool
}

// apply folds one decoded group into the station. The caller has
// already matched the group's PI to this station.
func (s *Station) apply(g *group.Group, now time.Time) Update {
	u := Update{PI: s.PI}
	s.LastSeen = now
	s.TrafficProgram = g.TrafficProgram
	s.PTY = g.PTY
	s.histogram[g.TypeLabel()]++

	switch p := g.Payload.(type) {
	case group.BasicTuning:
		u.PSChanged = s.applyBasicTuning(p)
	case group.RadioText:
		u.RTChanged, u.RTCleared = s.applyRadioText(p)
	}
	return u
}

func (s *Station) applyBasicTuning(p group.BasicTuning) bool {
	s.TrafficAnnouncement = p.TrafficAnnouncement
	s.Music = p.Music
	// The DI bit is multiplexed over the four segments.
	switch p.Segment {
	case 0:
		s.Stereo = p.DecoderBit
	case 1:
		s.ArtificialHead = p.DecoderBit
	case 2:
		s.Compressed = p.DecoderBit
	case 3:
		s.DynamicPTY = p.DecoderBit
	}
	if p.HasAltFreqs {
		for _, code := range p.AltFreqs {
			// Codes 1..204 are VHF carrier frequencies; the rest are
			// fillers and list-length markers.
			if code >= 1 && code <= 204 {
				s.altFreqs[code] = true
			}
		}
	}

	changed := false
	idx := p.Segment * 2
	for i, c := range p.Chars {
		if s.ps[idx+i] != c {
			s.ps[idx+i] = c
			changed = true
		}
	}
	return changed
}

func (s *Station) applyRadioText(p group.RadioText) (changed, cleared bool) {
	length := rtChars
	if len(p.Chars) == 2 {
		length = rtChars / 2
	}

	// A flip of the A/B flag means the broadcaster replaced the whole
	// message; the buffer is cleared before the new segment lands.
	if !s.rtSeen {
		s.rtSeen = true
		s.rtToggle = p.Toggle
	} else if s.rtToggle != p.Toggle {
		s.rtToggle = p.Toggle
		s.clearRT(length)
		cleared = true
	}
	s.rtLen = length

	idx := p.Segment * len(p.Chars)
	for i, c := range p.Chars {
		if s.rt[idx+i] != c {
			s.rt[idx+i] = c
			changed = true
		}
	}
	return changed, cleared
}

// PS renders the 8-character program service name.
func (s *Station) PS() string {
	var b strings.Builder
	for _, c := range s.ps {
		b.WriteRune(DecodeChar(c))
	}
	return b.String()
}

// RT renders the radiotext up to the first carriage return, with
// trailing padding removed.
func (s *Station) RT() string {
	var b strings.Builder
	for _, c := range s.rt[:s.rtLen] {
		if c == rtTerminator {
			break
		}
		b.WriteRune(DecodeChar(c))
	}
	return strings.TrimRight(b.String(), " ")
}

// AltFreqs lists the decoded alternative frequencies in MHz, ascending.
func (s *Station) AltFreqs() []float64 {
	out := make([]float64, 0, len(s.altFreqs))
	for code := byte(1); code <= 204; code++ {
		if s.altFreqs[code] {
			out = append(out, 87.5+float64(code)/10)
		}
	}
	return out
}

// Histogram returns a copy of the per-group-type counters.
func (s *Station) Histogram() map[string]uint64 {
	out := make(map[string]uint64, len(s.histogram))
	for k, v := range s.histogram {
		out[k] = v
	}
	return out
}
