package models

import (
	"time"
)

type RunnerStatus struct {
	Summary     string `bson:"summary" json:"summary"`
	Settled     int64  `bson:"settled" json:"settled"`
	Failed      int64  `bson:"failed" json:"failed"`
	Deferred    int64  `bson:"deferred" json:"deferred"`
	LastRunId   string `bson:"last_run_id" json:"last_run_id"`
	SolanaSlot  string `bson:"solana_slot" json:"solana_slot"`
	Authority   string `bson:"authority" json:"authority"`
	LastRunTime string `bson:"last_run_time" json:"last_run_time"`
}

type ServiceHealth struct {
	Name         string       `bson:"name" json:"name"`
	LastSyncTime time.Time    `bson:"last_sync_time" json:"last_sync_time"`
	NextSyncTime time.Time    `bson:"next_sync_time" json:"next_sync_time"`
	Status       RunnerStatus `bson:"status" json:"status"`
	Healthy      bool         `bson:"healthy" json:"healthy"`
}
