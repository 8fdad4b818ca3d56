package handler

import (
	"strings"
	"time"

	"github.com/iliyamo/stadium-ops/internal/model"
)

// Request bodies.  Fields are pointers so PATCH can tell "absent" from
// "zero".  Store-managed columns (ids, timestamps, fraud_score,
// is_validated, entry_time) have no input field and cannot be written.

func trimmed(p *string) string { return strings.TrimSpace(*p) }

type eventInput struct {
	Name               *string    `json:"name"`
	Description        *string    `json:"description"`
	StartTime          *time.Time `json:"start_time"`
	EndTime            *time.Time `json:"end_time"`
	Status             *string    `json:"status"`
	ExpectedAttendance *int       `json:"expected_attendance"`
}

func (in *eventInput) apply(e *model.Event, full bool) fieldErrors {
	errs := fieldErrors{}
	if full {
		errs.required("name", in.Name != nil)
		errs.required("start_time", in.StartTime != nil)
		errs.required("end_time", in.EndTime != nil)
	}
	if in.Name != nil {
		e.Name = trimmed(in.Name)
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.StartTime != nil {
		e.StartTime = in.StartTime.UTC()
	}
	if in.EndTime != nil {
		e.EndTime = in.EndTime.UTC()
	}
	if in.Status != nil {
		e.Status = trimmed(in.Status)
	}
	if in.ExpectedAttendance != nil {
		e.ExpectedAttendance = *in.ExpectedAttendance
	}
	errs.entity(e)
	return errs
}

type ticketInput struct {
	Event        *uint64      `json:"event"`
	CustomerName *string      `json:"customer_name"`
	TicketCode   *string      `json:"ticket_code"`
	SeatNumber   *string      `json:"seat_number"`
	Price        *model.Money `json:"price"`
}

func (in *ticketInput) apply(t *model.Ticket, full bool) fieldErrors {
	errs := fieldErrors{}
	if full {
		errs.required("event", in.Event != nil)
		errs.required("customer_name", in.CustomerName != nil)
		errs.required("ticket_code", in.TicketCode != nil)
		errs.required("seat_number", in.SeatNumber != nil)
		errs.required("price", in.Price != nil)
	}
	if in.Event != nil {
		t.EventID = *in.Event
	}
	if in.CustomerName != nil {
		t.CustomerName = trimmed(in.CustomerName)
	}
	if in.TicketCode != nil {
		t.TicketCode = trimmed(in.TicketCode)
	}
	if in.SeatNumber != nil {
		t.SeatNumber = trimmed(in.SeatNumber)
	}
	if in.Price != nil {
		t.Price = *in.Price
	}
	errs.entity(t)
	return errs
}

type zoneInput struct {
	Name         *string `json:"name"`
	Capacity     *int    `json:"capacity"`
	CurrentCount *int    `json:"current_count"`
	Status       *string `json:"status"`
}

func (in *zoneInput) apply(z *model.CrowdZone, full bool) fieldErrors {
	errs := fieldErrors{}
	if full {
		errs.required("name", in.Name != nil)
		errs.required("capacity", in.Capacity != nil)
	}
	if in.Name != nil {
		z.Name = trimmed(in.Name)
	}
	if in.Capacity != nil {
		z.Capacity = *in.Capacity
	}
	if in.CurrentCount != nil {
		z.CurrentCount = *in.CurrentCount
	}
	if in.Status != nil {
		z.Status = trimmed(in.Status)
	}
	errs.entity(z)
	return errs
}

type meterInput struct {
	Name           *string  `json:"name"`
	Location       *string  `json:"location"`
	CurrentUsageKW *float64 `json:"current_usage_kw"`
	Status         *string  `json:"status"`
}

func (in *meterInput) apply(m *model.EnergyMeter, full bool) fieldErrors {
	errs := fieldErrors{}
	if full {
		errs.required("name", in.Name != nil)
		errs.required("location", in.Location != nil)
	}
	if in.Name != nil {
		m.Name = trimmed(in.Name)
	}
	if in.Location != nil {
		m.Location = trimmed(in.Location)
	}
	if in.CurrentUsageKW != nil {
		m.CurrentUsageKW = *in.CurrentUsageKW
	}
	if in.Status != nil {
		m.Status = trimmed(in.Status)
	}
	errs.entity(m)
	return errs
}

type merchInput struct {
	Name          *string      `json:"name"`
	Category      *string      `json:"category"`
	Price         *model.Money `json:"price"`
	StockQuantity *int         `json:"stock_quantity"`
	SoldCount     *int         `json:"sold_count"`
}

func (in *merchInput) apply(m *model.MerchandiseItem, full bool) fieldErrors {
	errs := fieldErrors{}
	if full {
		errs.required("name", in.Name != nil)
		errs.required("category", in.Category != nil)
		errs.required("price", in.Price != nil)
	}
	if in.Name != nil {
		m.Name = trimmed(in.Name)
	}
	if in.Category != nil {
		m.Category = trimmed(in.Category)
	}
	if in.Price != nil {
		m.Price = *in.Price
	}
	if in.StockQuantity != nil {
		m.StockQuantity = *in.StockQuantity
	}
	if in.SoldCount != nil {
		m.SoldCount = *in.SoldCount
	}
	errs.entity(m)
	return errs
}

type logInput struct {
	Module  *string `json:"module"`
	Level   *string `json:"level"`
	Message *string `json:"message"`
}

func (in *logInput) apply(l *model.SystemLog, full bool) fieldErrors {
	errs := fieldErrors{}
	if full {
		errs.required("module", in.Module != nil)
		errs.required("level", in.Level != nil)
		errs.required("message", in.Message != nil)
	}
	if in.Module != nil {
		l.Module = trimmed(in.Module)
	}
	if in.Level != nil {
		l.Level = strings.ToUpper(trimmed(in.Level))
	}
	if in.Message != nil {
		l.Message = strings.TrimSpace(*in.Message)
	}
	errs.entity(l)
	return errs
}
