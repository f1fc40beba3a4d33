package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/fourinarow-backend/internal/apperror"
)

var ErrUnknownMatchStatus = errors.New("unknown match status")

type Status string

const (
	StatusAwaitingSecond Status = "awaiting_second_participant"
	StatusInProgress     Status = "in_progress"
	StatusWon            Status = "won"
	StatusDraw           Status = "draw"
	StatusAborted        Status = "aborted"
)

// Match is owned by a single match loop from pairing until it reaches a terminal status.
type Match struct {
	ID           string
	Grid         *Grid
	Participants [2]*Participant
	Status       Status
	Winner       *Participant

	mover int
}

// Placement is an accepted drop.
type Placement struct {
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Symbol string `json:"symbol"`
}

// NewMatch creates a match for its first participant. The match waits for Join.
func NewMatch(id string, rules Rules, first *Participant) *Match {
	return &Match{
		ID:           id,
		Grid:         NewGrid(rules.Rows, rules.Cols),
		Participants: [2]*Participant{first, nil},
		Status:       StatusAwaitingSecond,
	}
}

// Join seats the second participant and starts the match with the first one to move.
func (that *Match) Join(second *Participant) error {
	if !that.IsAwaitingSecond() {
		return fmt.Errorf("cannot join match in status %s: %w", that.Status, apperror.ErrMatchFinished)
	}

	that.Participants[1] = second
	that.Status = StatusInProgress
	that.mover = 0

	return nil
}

func (that *Match) Mover() *Participant {
	return that.Participants[that.mover]
}

func (that *Match) Waiter() *Participant {
	return that.Participants[1-that.mover]
}

// Opponent returns the other participant, or nil when p is not seated in this match.
func (that *Match) Opponent(p *Participant) *Participant {
	switch p {
	case that.Participants[0]:
		return that.Participants[1]
	case that.Participants[1]:
		return that.Participants[0]
	default:
		return nil
	}
}

// Drop plays column for the current mover. Win and draw are checked before the
// mover changes; the mover only changes after a non-terminal move.
func (that *Match) Drop(column int) (Placement, error) {
	if err := that.ConfirmInProgress(); err != nil {
		return Placement{}, err
	}

	if !that.Grid.CanDrop(column) {
		if column < 0 || column >= that.Grid.Cols() {
			return Placement{}, fmt.Errorf("%w: column %d", apperror.ErrInvalidColumn, column)
		}

		return Placement{}, fmt.Errorf("%w: column %d", apperror.ErrColumnFull, column)
	}

	mover := that.Mover()

	row, err := that.Grid.Drop(column, mover.Symbol)
	if err != nil {
		return Placement{}, fmt.Errorf("failed to drop: %w", err)
	}

	switch {
	case that.Grid.IsWinningPlacement(row, column):
		that.Status = StatusWon
		that.Winner = mover
	case that.Grid.IsFull():
		that.Status = StatusDraw
	default:
		that.mover = 1 - that.mover
	}

	return Placement{Row: row, Column: column, Symbol: mover.SymbolText()}, nil
}

// Abort ends the match without a result. Aborting a finished match is a no-op.
func (that *Match) Abort() {
	if that.IsFinished() {
		return
	}

	that.Status = StatusAborted
}

func (that *Match) IsAwaitingSecond() bool {
	return that.Status == StatusAwaitingSecond
}

func (that *Match) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that *Match) IsFinished() bool {
	switch that.Status {
	case StatusWon, StatusDraw, StatusAborted:
		return true
	default:
		return false
	}
}

func (that *Match) ConfirmInProgress() error {
	switch {
	case that.IsInProgress():
		return nil
	case that.IsAwaitingSecond():
		return apperror.ErrMatchNotStarted
	case that.IsFinished():
		return apperror.ErrMatchFinished
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMatchStatus, that.Status)
	}
}
