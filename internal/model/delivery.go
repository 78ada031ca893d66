package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Delivery channels
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// Delivery statuses
const (
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// DeliveryLog is the audit record of one notification attempt. Writes are
// best effort; a failed audit write never fails the notification itself.
type DeliveryLog struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CorrelationID string             `json:"correlation_id" bson:"correlation_id"`
	Channel       string             `json:"channel" bson:"channel"`
	Destination   string             `json:"destination" bson:"destination"`
	RecordID      string             `json:"record_id,omitempty" bson:"record_id,omitempty"`
	ProviderSID   string             `json:"provider_sid,omitempty" bson:"provider_sid,omitempty"`
	Status        string             `json:"status" bson:"status"`
	Error         string             `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}
