package model

import "time"

// FraudThreshold is the score above which a ticket is treated as
// fraudulent: it is counted as a dashboard fraud alert and refused at the
// gate.
const FraudThreshold = 0.8

// Ticket is an admission issued for exactly one event.  FraudScore is
// assigned once when the ticket is created and never changes afterwards.
// EntryTime is non-nil if and only if IsValidated is true.
//
// Fields:
//  ID           – primary key identifier.
//  EventID      – owning event (tickets.event_id, cascades on delete).
//  CustomerName – holder name printed on the ticket.
//  TicketCode   – unique code scanned at the gate.
//  IsValidated  – whether the ticket has been scanned in.
//  EntryTime    – scan time, nil while the ticket is still issued.
//  FraudScore   – risk in [0,1] from the fraud scorer.
//  SeatNumber   – seat label, may be empty for standing tickets.
//  Price        – face value.
type Ticket struct {
	ID           uint64     `json:"id"`                                 // tickets.id
	EventID      uint64     `json:"event" validate:"gt=0"`              // tickets.event_id
	CustomerName string     `json:"customer_name" validate:"required"`  // tickets.customer_name
	TicketCode   string     `json:"ticket_code" validate:"required"`    // tickets.ticket_code
	IsValidated  bool       `json:"is_validated"`                       // tickets.is_validated
	EntryTime    *time.Time `json:"entry_time"`                         // tickets.entry_time (nullable)
	FraudScore   float64    `json:"fraud_score" validate:"gte=0,lte=1"` // tickets.fraud_score
	SeatNumber   string     `json:"seat_number"`                        // tickets.seat_number
	Price        Money      `json:"price" validate:"gte=0"`             // tickets.price_cents
}

// Fraudulent reports whether the ticket's score exceeds FraudThreshold.
func (t *Ticket) Fraudulent() bool { return t.FraudScore > FraudThreshold }
