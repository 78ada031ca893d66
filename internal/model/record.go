package model

import (
	"errors"
	"time"
)

// RecordStatus is the lifecycle state of a parking session
type RecordStatus string

const (
	// StatusPending means the session was created but the driver has not
	// confirmed parking yet
	StatusPending RecordStatus = "pending"
	// StatusParked means the driver confirmed and the session is active
	StatusParked RecordStatus = "parked"
	// StatusExpired means the paid time ran out
	StatusExpired RecordStatus = "expired"
)

// ErrRecordNotFound is returned when a parking record does not exist.
// At task fire time this is a legitimate race, not a failure.
var ErrRecordNotFound = errors.New("parking record not found")

// ParkingRecord is the persisted state of one parking session. Records are
// created by the mobile app upstream; this service reads, notifies on, and
// deletes them.
type ParkingRecord struct {
	ID        string       `json:"id" bson:"_id"`
	License   string       `json:"license,omitempty" bson:"license,omitempty"`
	Status    RecordStatus `json:"status" bson:"status"`
	Phone     string       `json:"phone" bson:"phone"`
	Email     string       `json:"email,omitempty" bson:"email,omitempty"`
	ExpiresAt time.Time    `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" bson:"updated_at"`
}

// User is an application account managed by the companion app. This service
// only mails credentials for new users and deletes accounts.
type User struct {
	Email     string    `json:"email" bson:"_id"`
	Role      string    `json:"role" bson:"role"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ErrUserNotFound is returned when a user account does not exist
var ErrUserNotFound = errors.New("user not found")
