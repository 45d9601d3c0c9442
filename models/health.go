package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CollectionHealthChecks = "healthchecks"
)

type Health struct {
	Id               *primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	AuthorityAddress string              `bson:"authority_address" json:"authority_address"`
	Hostname         string              `bson:"hostname" json:"hostname"`
	Healthy          bool                `bson:"healthy" json:"healthy"`
	CreatedAt        time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time           `bson:"updated_at" json:"updated_at"`
	ServiceHealths   []ServiceHealth     `bson:"service_healths" json:"service_healths"`
}
