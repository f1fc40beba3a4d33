package entity

// Snapshot is the serializable view of a match shared with observers and the status endpoint.
type Snapshot struct {
	ID           string                `json:"id"`
	Status       Status                `json:"status"`
	Rows         int                   `json:"rows"`
	Cols         int                   `json:"cols"`
	Board        []string              `json:"board"`
	Participants []ParticipantSnapshot `json:"participants"`
	Mover        string                `json:"mover,omitempty"`
	Winner       string                `json:"winner,omitempty"`
}

type ParticipantSnapshot struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Color  Color  `json:"color"`
}

func (that *Match) Snapshot() *Snapshot {
	snapshot := &Snapshot{
		ID:     that.ID,
		Status: that.Status,
		Rows:   that.Grid.Rows(),
		Cols:   that.Grid.Cols(),
		Board:  that.Grid.Lines(),
	}

	for _, p := range that.Participants {
		if p == nil {
			continue
		}

		snapshot.Participants = append(snapshot.Participants, ParticipantSnapshot{
			Name:   p.Name,
			Symbol: p.SymbolText(),
			Color:  p.Color,
		})
	}

	if that.IsInProgress() {
		snapshot.Mover = that.Mover().Name
	}

	if that.Winner != nil {
		snapshot.Winner = that.Winner.Name
	}

	return snapshot
}
