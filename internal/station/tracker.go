package station

import (
	"sort"
	"sync"
	"time"

	"go-rds-decoder/internal/group"
)

// View is a point-in-time snapshot of one station, safe to hand to
// other goroutines and to serialize.
type View struct {
	PI                  uint16            `json:"pi"`
	CallSign            string            `json:"call_sign,omitempty"`
	PS                  string            `json:"ps"`
	RT                  string            `json:"rt"`
	PTY                 uint8             `json:"pty"`
	PTYName             string            `json:"pty_name"`
	TrafficProgram      bool              `json:"tp"`
	TrafficAnnouncement bool              `json:"ta"`
	Music               bool              `json:"music"`
	Stereo              bool              `json:"stereo"`
	DynamicPTY          bool              `json:"dynamic_pty"`
	AltFreqs            []float64         `json:"alt_freqs,omitempty"`
	Groups              map[string]uint64 `json:"group_type_histogram"`
	FirstSeen           time.Time         `json:"first_seen"`
	LastSeen            time.Time         `json:"last_seen"`
}

// Tracker maps PI codes to live stations. A PI never mutates in place:
// a different PI on the air is a different station, created fresh, and
// the old one ages out through the silence timeout.
type Tracker struct {
	mu        sync.Mutex
	stations  map[uint16]*Station
	ptyRegion string
	now       func() time.Time
}

// NewTracker creates a Tracker. ptyRegion selects the PTY name table,
// "eu" or "us".
func NewTracker(ptyRegion string) *Tracker {
	return &Tracker{
		stations:  make(map[uint16]*Station),
		ptyRegion: ptyRegion,
		now:       time.Now,
	}
}

// GetOrCreate ensures a station exists for the PI and returns its
// current view. Creation is idempotent.
func (t *Tracker) GetOrCreate(pi uint16) View {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stations[pi]
	if !ok {
		s = newStation(pi, t.now())
		t.stations[pi] = s
	}
	return t.view(s)
}

// Apply routes one decoded group to its station, creating the station
// on first contact with a PI.
func (t *Tracker) Apply(g *group.Group) Update {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	s, ok := t.stations[g.PI]
	if !ok {
		s = newStation(g.PI, now)
		t.stations[g.PI] = s
	}
	u := s.apply(g, now)
	u.Created = !ok
	return u
}

// Snapshot returns the view for one PI.
func (t *Tracker) Snapshot(pi uint16) (View, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stations[pi]
	if !ok {
		return View{}, false
	}
	return t.view(s), true
}

// Snapshots returns views of every live station, ordered by PI.
func (t *Tracker) Snapshots() []View {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]View, 0, len(t.stations))
	for _, s := range t.stations {
		out = append(out, t.view(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PI < out[j].PI })
	return out
}

// EvictStale removes stations silent for longer than timeout and
// returns the PIs removed.
func (t *Tracker) EvictStale(timeout time.Duration) []uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-timeout)
	var evicted []uint16
	for pi, s := range t.stations {
		if s.LastSeen.Before(cutoff) {
			delete(t.stations, pi)
			evicted = append(evicted, pi)
		}
	}
	sort.Slice(evicted, func(i, j int) bool { return evicted[i] < evicted[j] })
	return evicted
}

// Len reports the number of live stations.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stations)
}

func (t *Tracker) view(s *Station) View {
	return View{
		PI:                  s.PI,
		CallSign:            CallSign(s.PI),
		PS:                  s.PS(),
		RT:                  s.RT(),
		PTY:                 s.PTY,
		PTYName:             PTYName(s.PTY, t.ptyRegion),
		TrafficProgram:      s.TrafficProgram,
		TrafficAnnouncement: s.TrafficAnnouncement,
		Music:               s.Music,
		Stereo:              s.Stereo,
		DynamicPTY:          s.DynamicPTY,
		AltFreqs:            s.AltFreqs(),
		Groups:              s.Histogram(),
		FirstSeen:           s.Created,
		LastSeen:            s.LastSeen,
	}
}
