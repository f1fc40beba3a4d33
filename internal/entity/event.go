package entity

type EventType string

const (
	EventMatchStarted EventType = "match:started"
	EventCellPlaced   EventType = "match:moved"
	EventMatchEnded   EventType = "match:ended"
)

// Event is emitted by the lobby and the match loop for presentation layers to consume.
type Event struct {
	Type      EventType  `json:"type"`
	Match     *Snapshot  `json:"match"`
	Placement *Placement `json:"placement,omitempty"`
}

func NewEvent(eventType EventType, match *Match) Event {
	return Event{
		Type:  eventType,
		Match: match.Snapshot(),
	}
}

func NewPlacementEvent(match *Match, placement Placement) Event {
	event := NewEvent(EventCellPlaced, match)
	event.Placement = &placement

	return event
}
