package domain

import "time"

// Segment is the loyalty tier tracked as a slowly changing dimension.
type Segment string

const (
	SegmentBronze   Segment = "bronze"
	SegmentSilver   Segment = "silver"
	SegmentGold     Segment = "gold"
	SegmentPlatinum Segment = "platinum"
)

// Segments lists tiers from lowest to highest.
var Segments = []Segment{SegmentBronze, SegmentSilver, SegmentGold, SegmentPlatinum}

// Valid reports whether s is one of the known tiers.
func (s Segment) Valid() bool {
	switch s {
	case SegmentBronze, SegmentSilver, SegmentGold, SegmentPlatinum:
		return true
	}
	return false
}

// Customer is the current-state snapshot of a shopper. Only the current segment row is modeled,
// so SegmentEndDate is nil and IsCurrent is true for every generated customer.
type Customer struct {
	Email            string     `json:"email"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Phone            string     `json:"phone"`
	RegistrationDate time.Time  `json:"registration_date"`
	Segment          Segment    `json:"customer_segment"`
	SegmentStartDate time.Time  `json:"segment_start_date"`
	SegmentEndDate   *time.Time `json:"segment_end_date,omitempty"`
	IsCurrent        bool       `json:"is_current"`
}

func (c *Customer) IsCurrentSegment() bool {
	return c != nil && c.IsCurrent && c.SegmentEndDate == nil
}
