package entity

import (
	"fmt"
	"unicode"

	"github.com/rocketscienceinc/fourinarow-backend/internal/apperror"
)

// Rules are fixed for the lifetime of the server process.
type Rules struct {
	Rows    int
	Cols    int
	Symbols [2]rune
}

func (that Rules) Validate() error {
	if that.Rows < 1 || that.Cols < 1 {
		return fmt.Errorf("%w: %dx%d", apperror.ErrInvalidBoard, that.Rows, that.Cols)
	}

	for _, symbol := range that.Symbols {
		if symbol == EmptyCell || unicode.IsSpace(symbol) {
			return fmt.Errorf("%w: symbol %q is not printable", apperror.ErrInvalidBoard, symbol)
		}
	}

	if that.Symbols[0] == that.Symbols[1] {
		return fmt.Errorf("%w: %q", apperror.ErrSameSymbols, that.Symbols[0])
	}

	return nil
}
