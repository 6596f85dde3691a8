package station

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-rds-decoder/internal/group"
)

// psGroup builds a 0A group carrying one two-character PS segment.
func psGroup(pi uint16, segment int, chars string) *group.Group {
	return &group.Group{
		PI:   pi,
		Type: 0,
		Payload: group.BasicTuning{
			Segment: segment,
			Chars:   [2]byte{chars[0], chars[1]},
			Music:   true,
		},
	}
}

// rtGroup builds a 2A group carrying one four-character RT segment.
func rtGroup(pi uint16, segment int, toggle bool, chars string) *group.Group {
	return &group.Group{
		PI:   pi,
		Type: 2,
		Payload: group.RadioText{
			Segment: segment,
			Toggle:  toggle,
			Chars:   []byte(chars),
		},
	}
}

// pad extends a radiotext message with a CR terminator and space fill
// so it can be split into whole segments.
func pad(msg string, length int) string {
	out := []byte(msg)
	out = append(out, 0x0D)
	for len(out) < length {
		out = append(out, ' ')
	}
	return string(out)
}

// sendRT splits a message into 4-character segments in the given order.
func sendRT(tr *Tracker, pi uint16, toggle bool, msg string, order []int) {
	padded := pad(msg, 64)
	for _, seg := range order {
		tr.Apply(rtGroup(pi, seg, toggle, padded[seg*4:seg*4+4]))
	}
}

func TestTracker_PSSegmentsOutOfOrder(t *testing.T) {
	inOrder := NewTracker("eu")
	shuffled := NewTracker("eu")
	segments := []string{"RA", "DI", "O ", "1 "}

	for _, seg := range []int{0, 1, 2, 3} {
		inOrder.Apply(psGroup(0xF201, seg, segments[seg]))
	}
	for _, seg := range []int{2, 0, 3, 1} {
		shuffled.Apply(psGroup(0xF201, seg, segments[seg]))
	}

	a, ok := inOrder.Snapshot(0xF201)
	require.True(t, ok)
	b, ok := shuffled.Snapshot(0xF201)
	require.True(t, ok)
	assert.Equal(t, "RADIO 1 ", a.PS)
	assert.Equal(t, a.PS, b.PS, "arrival order must not affect the final name")
}

func TestTracker_PSPartialLeavesOtherCellsAlone(t *testing.T) {
	tr := NewTracker("eu")
	tr.Apply(psGroup(0xF201, 1, "DI"))

	v, ok := tr.Snapshot(0xF201)
	require.True(t, ok)
	assert.Equal(t, "  DI    ", v.PS, "unreceived segments stay blank, not guessed")
}

func TestTracker_RTToggleFlipClearsBuffer(t *testing.T) {
	tr := NewTracker("eu")
	sendRT(tr, 0xF201, false, "HELLO WORLD", []int{0, 1, 2, 3})

	v, _ := tr.Snapshot(0xF201)
	require.Equal(t, "HELLO WORLD", v.RT)

	// The flip clears everything; one new segment must not leave any
	// old characters behind.
	sendRT(tr, 0xF201, true, "GOODBYE", []int{0, 1})
	v, _ = tr.Snapshot(0xF201)
	assert.Equal(t, "GOODBYE", v.RT)
	assert.NotContains(t, v.RT, "WORLD")
}

func TestTracker_RTDuplicateSegmentIsIdempotent(t *testing.T) {
	tr := NewTracker("eu")
	sendRT(tr, 0xF201, false, "HELLO WORLD", []int{0, 1, 2, 3})
	before, _ := tr.Snapshot(0xF201)

	u := tr.Apply(rtGroup(0xF201, 0, false, "HELL"))
	after, _ := tr.Snapshot(0xF201)
	assert.False(t, u.RTChanged)
	assert.Equal(t, before.RT, after.RT)
}

func TestTracker_RTVersionBUsesHalfBuffer(t *testing.T) {
	tr := NewTracker("eu")
	msg := pad("SHORT MSG", 32)
	for seg := 0; seg < 16; seg++ {
		tr.Apply(&group.Group{
			PI:      0xF201,
			Type:    2,
			Version: group.VersionB,
			Payload: group.RadioText{Segment: seg, Chars: []byte(msg[seg*2 : seg*2+2])},
		})
	}
	v, _ := tr.Snapshot(0xF201)
	assert.Equal(t, "SHORT MSG", v.RT)
}

func TestTracker_PIChangeCreatesNewStation(t *testing.T) {
	tr := NewTracker("eu")
	clock := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return clock }

	tr.Apply(psGroup(0xF201, 0, "RA"))
	clock = clock.Add(10 * time.Second)
	u := tr.Apply(psGroup(0xA301, 0, "OT"))

	assert.True(t, u.Created, "a different PI is a different station")
	assert.Equal(t, 2, tr.Len())

	old, ok := tr.Snapshot(0xF201)
	require.True(t, ok, "the prior station stays queryable until it goes stale")
	assert.Equal(t, "RA      ", old.PS)
	fresh, _ := tr.Snapshot(0xA301)
	assert.Equal(t, "OT      ", fresh.PS)

	// Only the silent station ages out.
	clock = clock.Add(55 * time.Second)
	evicted := tr.EvictStale(60 * time.Second)
	assert.Equal(t, []uint16{0xF201}, evicted)
	assert.Equal(t, 1, tr.Len())
	_, ok = tr.Snapshot(0xF201)
	assert.False(t, ok)
}

func TestTracker_ViewFields(t *testing.T) {
	tr := NewTracker("eu")
	g := psGroup(0x2000, 0, "BB")
	g.TrafficProgram = true
	g.PTY = 1
	bt := g.Payload.(group.BasicTuning)
	bt.TrafficAnnouncement = true
	bt.AltFreqs = [2]byte{5, 30}
	bt.HasAltFreqs = true
	g.Payload = bt
	tr.Apply(g)

	v, ok := tr.Snapshot(0x2000)
	require.True(t, ok)
	assert.Equal(t, "News", v.PTYName)
	assert.True(t, v.TrafficProgram)
	assert.True(t, v.TrafficAnnouncement)
	assert.True(t, v.Music)
	assert.Equal(t, []float64{88.0, 90.5}, v.AltFreqs)
	assert.Equal(t, map[string]uint64{"0A": 1}, v.Groups)
}

func TestCallSign(t *testing.T) {
	cases := []struct {
		pi   uint16
		want string
	}{
		{0x15E0, "KCFW"}, // North American K allocation
		{21671, "KZZZ"},  // last K allocation
		{21672, "WAAA"},  // first W allocation
		{39247, "WZZZ"},  // last W allocation
		{0xC0B3, "AMLD"}, // European local, zeroed middle byte
		{0xF201, "?"},    // no derivable call sign
	}
	for _, c := range cases {
		got := CallSign(c.pi)
		if c.want == "?" {
			assert.Empty(t, got, "PI %04X", c.pi)
		} else {
			assert.Equal(t, c.want, got, "PI %04X", c.pi)
		}
	}
}

func TestDecodeChar(t *testing.T) {
	assert.Equal(t, 'A', DecodeChar('A'))
	assert.Equal(t, ' ', DecodeChar(' '))
	assert.Equal(t, 'é', DecodeChar(0x82))
	assert.Equal(t, 'ü', DecodeChar(0x99))
	assert.Equal(t, replacement, DecodeChar(0x05), "control codes render visibly")
}

func TestPTYName(t *testing.T) {
	assert.Equal(t, "News", PTYName(1, "eu"))
	assert.Equal(t, "Current Affairs", PTYName(2, "eu"))
	assert.Equal(t, "Information", PTYName(2, "us"))
}
