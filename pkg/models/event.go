package models

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/console/pkg/scope"
)

// EventCategory identifies which kind of object a change event is about.
type EventCategory string

const (
	CategoryActivities    EventCategory = "ACTIVITIES"
	CategoryServerActions EventCategory = "SERVER_ACTIONS"
)

// EventKind describes what happened to the object.
type EventKind string

const (
	EventCreated EventKind = "CREATED"
	EventChanged EventKind = "CHANGED"
	EventRemoved EventKind = "REMOVED"
)

// ChangeEvent is one frame of the change-event feed.
type ChangeEvent struct {
	Category EventCategory   `json:"category"`
	Kind     EventKind       `json:"event"`
	Scope    scope.Scope     `json:"scope,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// NewChangeEvent marshals payload into a ChangeEvent.
func NewChangeEvent(category EventCategory, kind EventKind, sc scope.Scope, payload interface{}) (ChangeEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return ChangeEvent{}, fmt.Errorf("failed to marshal %s payload: %w", category, err)
	}
	return ChangeEvent{Category: category, Kind: kind, Scope: sc, Payload: data}, nil
}

// Activities decodes an ACTIVITIES payload, which always carries the full list.
func (e ChangeEvent) Activities() ([]ActivitySnapshot, error) {
	if e.Category != CategoryActivities {
		return nil, fmt.Errorf("event category %s does not carry activities", e.Category)
	}
	var list []ActivitySnapshot
	if len(e.Payload) == 0 {
		return list, nil
	}
	if err := json.Unmarshal(e.Payload, &list); err != nil {
		return nil, fmt.Errorf("failed to decode activities payload: %w", err)
	}
	return list, nil
}

// Action decodes a SERVER_ACTIONS payload.
func (e ChangeEvent) Action() (ActionBroadcast, error) {
	var a ActionBroadcast
	if e.Category != CategoryServerActions {
		return a, fmt.Errorf("event category %s does not carry an action", e.Category)
	}
	if err := json.Unmarshal(e.Payload, &a); err != nil {
		return a, fmt.Errorf("failed to decode action payload: %w", err)
	}
	return a, nil
}
