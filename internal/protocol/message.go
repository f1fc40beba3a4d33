// Package protocol encodes and decodes the whitespace-tokenized text messages
// exchanged with participants, one message per transport unit.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandConfig       Command = "CONFIG"
	CommandStart        Command = "START"
	CommandYourTurn     Command = "YOUR_TURN"
	CommandWaitTurn     Command = "WAIT_TURN"
	CommandMove         Command = "MOVE"
	CommandMoved        Command = "MOVED"
	CommandWin          Command = "WIN"
	CommandDraw         Command = "DRAW"
	CommandOpponentLeft Command = "EXIT_OPPONENT_LEFT"
)

// UnknownName replaces an empty handshake.
const UnknownName = "Unknown"

var (
	ErrEmptyMessage  = errors.New("empty message")
	ErrNotAMove      = errors.New("message is not a move")
	ErrMalformedMove = errors.New("malformed move")
)

type Message struct {
	Command Command
	Args    []string
}

func Encode(msg Message) string {
	if len(msg.Args) == 0 {
		return string(msg.Command)
	}

	return string(msg.Command) + " " + strings.Join(msg.Args, " ")
}

func (that Message) String() string {
	return Encode(that)
}

func Decode(raw string) (Message, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Message{}, ErrEmptyMessage
	}

	return Message{
		Command: Command(fields[0]),
		Args:    fields[1:],
	}, nil
}

// HandshakeName extracts the display name a participant announces itself with.
func HandshakeName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return UnknownName
	}

	return name
}

// ParseMove returns the column of a MOVE message.
func ParseMove(raw string) (int, error) {
	msg, err := Decode(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNotAMove, err)
	}

	if msg.Command != CommandMove {
		return 0, fmt.Errorf("%w: %s", ErrNotAMove, msg.Command)
	}

	if len(msg.Args) != 1 {
		return 0, fmt.Errorf("%w: expected 1 argument, got %d", ErrMalformedMove, len(msg.Args))
	}

	column, err := strconv.Atoi(msg.Args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedMove, err)
	}

	return column, nil
}

func Config(rows, cols int, symbol, color string) Message {
	return Message{Command: CommandConfig, Args: []string{strconv.Itoa(rows), strconv.Itoa(cols), symbol, color}}
}

func Start(opponentName, opponentSymbol string) Message {
	return Message{Command: CommandStart, Args: []string{opponentName, opponentSymbol}}
}

func YourTurn() Message {
	return Message{Command: CommandYourTurn}
}

func WaitTurn() Message {
	return Message{Command: CommandWaitTurn}
}

func Move(column int) Message {
	return Message{Command: CommandMove, Args: []string{strconv.Itoa(column)}}
}

func Moved(row, column int, symbol string) Message {
	return Message{Command: CommandMoved, Args: []string{strconv.Itoa(row), strconv.Itoa(column), symbol}}
}

func Win(winnerName string) Message {
	return Message{Command: CommandWin, Args: []string{winnerName}}
}

func Draw() Message {
	return Message{Command: CommandDraw}
}

func OpponentLeft() Message {
	return Message{Command: CommandOpponentLeft}
}
