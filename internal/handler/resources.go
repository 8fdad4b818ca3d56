package handler

import (
	"context"
	"errors"

	"github.com/iliyamo/stadium-ops/internal/model"
	"github.com/iliyamo/stadium-ops/internal/repository"
)

// Resource handlers for the CRUD endpoints.  Defaults mirror the schema.

func (a *API) EventResource() *resource[model.Event, *eventInput] {
	return &resource[model.Event, *eventInput]{
		name:     "event",
		store:    a.Repos.Events,
		blank:    func() *model.Event { return &model.Event{Status: model.EventUpcoming} },
		newInput: func() *eventInput { return &eventInput{} },
		log:      a.Log,
	}
}

// TicketResource creates tickets through the ticket service so every new
// ticket is fraud scored before it is stored.
func (a *API) TicketResource() *resource[model.Ticket, *ticketInput] {
	return &resource[model.Ticket, *ticketInput]{
		name:     "ticket",
		store:    a.Repos.Tickets,
		blank:    func() *model.Ticket { return &model.Ticket{} },
		newInput: func() *ticketInput { return &ticketInput{} },
		create:   a.Tickets.Issue,
		log:      a.Log,
	}
}

func (a *API) ZoneResource() *resource[model.CrowdZone, *zoneInput] {
	return &resource[model.CrowdZone, *zoneInput]{
		name:     "crowd zone",
		store:    a.Repos.Zones,
		blank:    func() *model.CrowdZone { return &model.CrowdZone{Status: model.ZoneGreen} },
		newInput: func() *zoneInput { return &zoneInput{} },
		list:     a.ListZones,
		log:      a.Log,
	}
}

func (a *API) MeterResource() *resource[model.EnergyMeter, *meterInput] {
	return &resource[model.EnergyMeter, *meterInput]{
		name:     "energy meter",
		store:    a.Repos.Meters,
		blank:    func() *model.EnergyMeter { return &model.EnergyMeter{Status: model.MeterOptimal} },
		newInput: func() *meterInput { return &meterInput{} },
		list:     a.ListMeters,
		log:      a.Log,
	}
}

func (a *API) MerchandiseResource() *resource[model.MerchandiseItem, *merchInput] {
	return &resource[model.MerchandiseItem, *merchInput]{
		name:     "merchandise item",
		store:    a.Repos.Merchandise,
		blank:    func() *model.MerchandiseItem { return &model.MerchandiseItem{} },
		newInput: func() *merchInput { return &merchInput{} },
		log:      a.Log,
	}
}

// logStore adapts the append-only log repository to the CRUD surface.
// The router mounts only list, create and retrieve for logs, so the write
// methods below are unreachable over HTTP.
type logStore struct {
	repository.SystemLogRepository
}

func (logStore) Update(context.Context, *model.SystemLog) error { return errAppendOnly }
func (logStore) Delete(context.Context, uint64) error            { return errAppendOnly }

var errAppendOnly = errors.New("system logs are append-only")

func (a *API) LogResource() *resource[model.SystemLog, *logInput] {
	return &resource[model.SystemLog, *logInput]{
		name:     "log",
		store:    logStore{a.Repos.Logs},
		blank:    func() *model.SystemLog { return &model.SystemLog{} },
		newInput: func() *logInput { return &logInput{} },
		log:      a.Log,
	}
}
