package rds

import "github.com/prometheus/client_golang/prometheus"

var (
	bitsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rds_bits_processed_total",
			Help: "Data bits fed to the block synchronizer",
		},
	)
	blocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rds_blocks_total",
			Help: "Recovered 26-bit blocks by outcome",
		},
		[]string{"result"},
	)
	groupsDecoded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rds_groups_total",
			Help: "Complete valid groups assembled",
		},
	)
	groupsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rds_groups_dropped_total",
			Help: "Groups discarded because a block in the quartet failed",
		},
	)
	syncState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rds_sync_state",
			Help: "Synchronizer state: 0 unlocked, 1 verifying, 2 locked",
		},
	)
	acquisitions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rds_sync_acquisitions_total",
			Help: "Transitions into the locked state",
		},
	)
	lockLosses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rds_sync_losses_total",
			Help: "Transitions out of the locked state",
		},
	)
	stationsLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rds_stations_live",
			Help: "Stations currently tracked",
		},
	)
	snapshotDrops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rds_snapshot_drops_total",
			Help: "Station snapshots dropped from a full outbound queue",
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(
		bitsProcessed, blocks, groupsDecoded, groupsDropped,
		syncState, acquisitions, lockLosses, stationsLive, snapshotDrops,
	)
}
