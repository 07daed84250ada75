package arena

import (
	"context"
	"fmt"

	"github.com/ChizhovVadim/lazysmp/pkg/board"
	"github.com/ChizhovVadim/lazysmp/pkg/common"
	"github.com/ChizhovVadim/lazysmp/pkg/engine"
)

const (
	gameResultDraw = iota
	gameResultWhiteWins
	gameResultBlackWins
)

type gameInfo struct {
	opening        string
	engineAIsWhite bool
	gameNumber     int
}

type gameResult struct {
	gameInfo gameInfo
	plies    int
	comment  string
	result   int
}

func playGame(
	ctx context.Context,
	engineA, engineB IEngine,
	limits common.LimitsType,
	maxPlies int,
	info gameInfo,
) (gameResult, error) {

	engineA.Clear()
	engineB.Clear()

	var game, err = board.NewGameFromFEN(info.opening)
	if err != nil {
		return gameResult{}, err
	}
	var keys = make(map[uint64]int)

	for {
		if err := ctx.Err(); err != nil {
			return gameResult{}, err
		}
		var result = gameResult{gameInfo: info, plies: game.Ply()}
		var curPosition = game.Current()
		var ml = curPosition.GenerateLegalMoves()

		if len(ml) == 0 {
			if curPosition.IsCheck() {
				result.comment = "checkmate"
				result.result = gameResultWhiteWins
				if curPosition.WhiteMove {
					result.result = gameResultBlackWins
				}
			} else {
				result.comment = "stalemate"
				result.result = gameResultDraw
			}
			return result, nil
		}
		if curPosition.Rule50 >= 100 {
			result.comment = "50 moves"
			return result, nil
		}
		if curPosition.IsInsufficientMaterial() {
			result.comment = "low material"
			return result, nil
		}
		keys[curPosition.Key]++
		if keys[curPosition.Key] == 3 {
			result.comment = "3 fold repetition"
			return result, nil
		}
		if maxPlies > 0 && game.Ply() >= maxPlies {
			result.comment = "adjudicated"
			return result, nil
		}

		var eng = engineB
		if curPosition.WhiteMove == info.engineAIsWhite {
			eng = engineA
		}
		var searchResult = eng.Search(ctx, engine.SearchParams{
			Position: game.Clone(),
			Limits:   limits,
		})
		var bestMove = searchResult.BestMove()
		if !containsMove(ml, bestMove) || !game.DoMove(bestMove) {
			return gameResult{}, fmt.Errorf("game %v: bad move %v in %v",
				info.gameNumber, bestMove, curPosition)
		}
	}
}

func containsMove(ml []common.Move, move common.Move) bool {
	for _, m := range ml {
		if m == move {
			return true
		}
	}
	return false
}

func gameResultString(v int) string {
	if v == gameResultWhiteWins {
		return "1-0"
	}
	if v == gameResultBlackWins {
		return "0-1"
	}
	if v == gameResultDraw {
		return "1/2-1/2"
	}
	return ""
}
