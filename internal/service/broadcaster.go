package service

import "prsentinel/internal/model"

// Broadcaster fans events out to connected observers (avoids an import
// cycle with the ws package; the hub implements it).
type Broadcaster interface {
	Broadcast(event model.Event)
}

// NopBroadcaster discards every event. Used where no hub is wired (seeder,
// tests).
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(model.Event) {}
