// Package rds wires the decode stages into one pipeline: differential
// decode, block synchronization, group assembly and station tracking.
// It owns the decode goroutine, the outbound snapshot queue and the
// stale-station sweep.
package rds

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"go-rds-decoder/internal/bitstream"
	"go-rds-decoder/internal/blocksync"
	"go-rds-decoder/internal/config"
	"go-rds-decoder/internal/group"
	"go-rds-decoder/internal/ringbuffer"
	"go-rds-decoder/internal/station"
)

// Status is the diagnostics snapshot served by the state API.
type Status struct {
	SyncState         string  `json:"sync_state"`
	Bits              uint64  `json:"bits"`
	BitsSinceLock     uint64  `json:"bits_since_lock"`
	BlocksValid       uint64  `json:"blocks_valid"`
	BlocksCorrected   uint64  `json:"blocks_corrected"`
	BlocksFailed      uint64  `json:"blocks_failed"`
	BlockErrorRate    float64 `json:"block_error_rate"`
	Acquisitions      uint64  `json:"acquisitions"`
	LockLosses        uint64  `json:"lock_losses"`
	Groups            uint64  `json:"groups"`
	GroupsDropped     uint64  `json:"groups_dropped"`
	PIMismatches      uint64  `json:"pi_mismatches"`
	VersionMismatches uint64  `json:"version_mismatches"`
	Stations          int     `json:"stations"`
	SnapshotDrops     uint64  `json:"snapshot_drops"`
}

// Decoder runs the full pipeline. ProcessBits is not safe for
// concurrent use; Status, Tracker and Snapshots are.
type Decoder struct {
	logger *log.Logger

	diff      *bitstream.Decoder
	sync      *blocksync.Synchronizer
	assembler *group.Assembler
	tracker   *station.Tracker
	snapshots *SnapshotQueue

	silenceTimeout time.Duration
	evictionPeriod time.Duration

	// Metric updates are deltas against the tallies published last.
	published blocksync.Counters
	pubGroups group.Counters
	pubDrops  uint64
}

func NewDecoder(cfg *config.Config, logger *log.Logger) *Decoder {
	return &Decoder{
		logger:         logger,
		diff:           bitstream.NewDecoder(),
		sync:           blocksync.New(cfg.Decoder.VerifyBlocks, cfg.Decoder.LossBlocks, cfg.Decoder.MaxCorrectBurst),
		assembler:      group.NewAssembler(),
		tracker:        station.NewTracker(cfg.Decoder.PTYRegion),
		snapshots:      NewSnapshotQueue(cfg.Decoder.SnapshotQueue),
		silenceTimeout: cfg.Decoder.SilenceTimeout,
		evictionPeriod: cfg.Decoder.EvictionPeriod,
	}
}

// Tracker exposes the station state for the API server.
func (d *Decoder) Tracker() *station.Tracker {
	return d.tracker
}

// Snapshots is the stream of station views updated by decoded groups.
func (d *Decoder) Snapshots() <-chan station.View {
	return d.snapshots.C()
}

// ProcessBits pushes raw differentially-encoded symbols through the
// pipeline. Each call continues from the previous one's state.
func (d *Decoder) ProcessBits(raw []byte) {
	prevState := d.sync.State()

	for _, bit := range d.diff.Process(raw) {
		blk, ok := d.sync.ProcessBit(bit)
		if !ok {
			continue
		}
		g, ok := d.assembler.Add(blk)
		if !ok {
			continue
		}
		d.apply(g)
	}

	if state := d.sync.State(); state != prevState {
		d.logger.Info("sync state changed", "from", prevState, "to", state)
	}
	d.publishMetrics()
}

func (d *Decoder) apply(g *group.Group) {
	u := d.tracker.Apply(g)
	if u.Created {
		d.logger.Info("new station", "pi", piString(g.PI), "type", g.TypeLabel())
	}
	if u.RTCleared {
		d.logger.Debug("radiotext cleared", "pi", piString(g.PI))
	}
	if u.Created || u.PSChanged || u.RTChanged {
		if v, ok := d.tracker.Snapshot(g.PI); ok {
			d.snapshots.Push(v)
		}
	}
}

// publishMetrics moves the stage-local tallies into the prometheus
// collectors, as deltas since the previous publish.
func (d *Decoder) publishMetrics() {
	c := d.sync.Counters()
	bitsProcessed.Add(float64(c.Bits - d.published.Bits))
	blocks.WithLabelValues("valid").Add(float64(c.BlocksValid - d.published.BlocksValid))
	blocks.WithLabelValues("corrected").Add(float64(c.BlocksCorrected - d.published.BlocksCorrected))
	blocks.WithLabelValues("failed").Add(float64(c.BlocksFailed - d.published.BlocksFailed))
	acquisitions.Add(float64(c.Acquisitions - d.published.Acquisitions))
	lockLosses.Add(float64(c.LockLosses - d.published.LockLosses))
	syncState.Set(float64(d.sync.State()))
	d.published = c

	gc := d.assembler.Counters()
	groupsDecoded.Add(float64(gc.Groups - d.pubGroups.Groups))
	groupsDropped.Add(float64(gc.Dropped - d.pubGroups.Dropped))
	d.pubGroups = gc

	drops := d.snapshots.Drops()
	snapshotDrops.Add(float64(drops - d.pubDrops))
	d.pubDrops = drops

	stationsLive.Set(float64(d.tracker.Len()))
}

// Status assembles the diagnostics snapshot.
func (d *Decoder) Status() Status {
	c := d.sync.Counters()
	gc := d.assembler.Counters()
	return Status{
		SyncState:         d.sync.State().String(),
		Bits:              c.Bits,
		BitsSinceLock:     c.BitsSinceLock,
		BlocksValid:       c.BlocksValid,
		BlocksCorrected:   c.BlocksCorrected,
		BlocksFailed:      c.BlocksFailed,
		BlockErrorRate:    c.BlockErrorRate(),
		Acquisitions:      c.Acquisitions,
		LockLosses:        c.LockLosses,
		Groups:            gc.Groups,
		GroupsDropped:     gc.Dropped,
		PIMismatches:      gc.PIMismatches,
		VersionMismatches: gc.VersionMismatches,
		Stations:          d.tracker.Len(),
		SnapshotDrops:     d.snapshots.Drops(),
	}
}

// Run consumes the symbol ring buffer until it is closed and drained or
// the context is cancelled. The stale-station sweep runs alongside.
func (d *Decoder) Run(ctx context.Context, rb *ringbuffer.RingBuffer, chunkSize int) {
	defer d.snapshots.Close()

	// The sweep runs on its own goroutine so a stalled symbol stream
	// cannot keep stale stations alive. The tracker is safe to share.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(d.evictionPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				d.evict()
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		symbols := rb.Read(chunkSize)
		if symbols == nil {
			d.logger.Info("symbol stream ended", "bits", d.sync.Counters().Bits)
			return
		}
		d.ProcessBits(symbols)
	}
}

func (d *Decoder) evict() {
	for _, pi := range d.tracker.EvictStale(d.silenceTimeout) {
		d.logger.Info("station evicted", "pi", piString(pi), "timeout", d.silenceTimeout)
	}
	stationsLive.Set(float64(d.tracker.Len()))
}

func piString(pi uint16) string {
	if cs := station.CallSign(pi); cs != "" {
		return cs
	}
	return fmt.Sprintf("%04X", pi)
}
