package entity

type Color string

const (
	ColorRed    Color = "RED"
	ColorYellow Color = "YELLOW"
)

// Participant is one side of a match. Peer is the transport identity the
// participant's messages arrive from and are sent to.
type Participant struct {
	Name   string `json:"name"`
	Symbol rune   `json:"-"`
	Color  Color  `json:"color"`
	Peer   string `json:"peer"`
}

func NewParticipant(name string, symbol rune, color Color, peer string) *Participant {
	return &Participant{
		Name:   name,
		Symbol: symbol,
		Color:  color,
		Peer:   peer,
	}
}

func (that *Participant) SymbolText() string {
	return string(that.Symbol)
}
