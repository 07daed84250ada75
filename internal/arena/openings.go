package arena

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/ChizhovVadim/lazysmp/pkg/board"
	"github.com/ChizhovVadim/lazysmp/pkg/common"
)

//go:embed openings.txt
var openingsTxt string

// DefaultOpenings returns the built-in opening book.
func DefaultOpenings() []string {
	return ReadOpenings(openingsTxt)
}

// ReadOpenings returns the non-empty lines of text that are not comments.
func ReadOpenings(text string) []string {
	var result []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !(line == "" || strings.HasPrefix(line, "//")) {
			result = append(result, line)
		}
	}
	return result
}

// ParseOpening returns the fen of an opening given either as a fen or as
// numbered SAN moves from the initial position.
func ParseOpening(opening string) (string, error) {
	if strings.Contains(opening, "/") {
		var pos, err = board.NewPositionFromFEN(opening)
		if err != nil {
			return "", err
		}
		return pos.String(), nil
	}
	var game, err = board.NewGameFromFEN(board.InitialPositionFen)
	if err != nil {
		return "", err
	}
	for _, token := range strings.Fields(opening) {
		var san = strings.TrimLeft(token, "0123456789.")
		if san == "" {
			continue
		}
		var move = board.ParseMoveSAN(game.Current(), san)
		if move == common.MoveEmpty || !game.DoMove(move) {
			return "", fmt.Errorf("%w: %v in %q", board.ErrIllegalMove, san, opening)
		}
	}
	return game.String(), nil
}
