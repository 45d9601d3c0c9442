package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// types of bridge request status
const (
	BridgeStatusPending    = "pending"
	BridgeStatusSubmitting = "submitting"
	BridgeStatusSettled    = "settled"
	BridgeStatusFailed     = "failed"
)

// BridgeRequest is written by the upstream burn workflow with done=false.
// The settler only ever touches the fields below the blank line.
type BridgeRequest struct {
	Id            *primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SourceTxHash  string              `bson:"source_tx_hash" json:"source_tx_hash"`
	SourceAddress string              `bson:"source_address" json:"source_address"`
	SourceAmount  float64             `bson:"source_amount" json:"source_amount"`
	DestTxHash    *string             `bson:"dest_tx_hash" json:"dest_tx_hash"`
	DestAddress   string              `bson:"dest_address" json:"dest_address"`
	DestAmount    uint64              `bson:"dest_amount" json:"dest_amount"`
	Done          bool                `bson:"done" json:"done"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`

	Status               string     `bson:"status,omitempty" json:"status"`
	IdempotencyKey       string     `bson:"idempotency_key,omitempty" json:"idempotency_key"`
	PendingTxHash        string     `bson:"pending_tx_hash,omitempty" json:"pending_tx_hash"`
	PendingRawTx         string     `bson:"pending_raw_tx,omitempty" json:"pending_raw_tx"`
	LastValidBlockHeight uint64     `bson:"last_valid_block_height,omitempty" json:"last_valid_block_height"`
	Attempts             int64      `bson:"attempts,omitempty" json:"attempts"`
	FailureReason        string     `bson:"failure_reason,omitempty" json:"failure_reason"`
	SettledAt            *time.Time `bson:"settled_at,omitempty" json:"settled_at"`
	UpdatedAt            time.Time  `bson:"updated_at,omitempty" json:"updated_at"`
}

// CurrentStatus treats records written without a status as pending.
func (r *BridgeRequest) CurrentStatus() string {
	if r.Done {
		return BridgeStatusSettled
	}
	if r.Status == "" {
		return BridgeStatusPending
	}
	return r.Status
}

// HasPendingAttempt reports whether a signed transfer may already be on its way.
func (r *BridgeRequest) HasPendingAttempt() bool {
	return r.Status == BridgeStatusSubmitting && r.PendingTxHash != ""
}
