package model

import "time"

// Hold is the ephemeral record of a time-bounded reservation, stored in the
// side cache under the reservation id with a TTL equal to the hold duration.
// Its presence is what makes a hold still actionable by the expiry timer;
// the durable seat rows may have been reclaimed by the sweep in the
// meantime, which is fine because release is idempotent.
type Hold struct {
	UserID    uint64    `json:"userId"`
	EventID   uint64    `json:"eventId"`
	SeatIDs   []uint64  `json:"seatIds"`
	ExpiresAt time.Time `json:"expiresAt"`
}
