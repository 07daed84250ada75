package engine

import (
	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

const (
	aspirationInitial       = 30
	aspirationMaxAdjustment = 90
	aspirationDelta         = 25
	aspirationRetries       = 4
	volatilityScores        = 5
	volatilityCap           = 1000
)

// aspirationWindow searches the root with a window around the previous
// iteration score. After too many failures the full window is searched.
func (t *thread) aspirationWindow(depth int) int {
	if !t.engine.Options.UseAspiration || depth <= 1 || len(t.scoreHistory) == 0 {
		return t.searchRoot(-valueInfinity, valueInfinity, depth)
	}
	var prevScore = t.scoreHistory[len(t.scoreHistory)-1]
	var alpha, beta = aspirationBounds(depth, prevScore, t.scoreHistory)
	for retry := 0; retry < aspirationRetries; retry++ {
		var score = t.searchRoot(alpha, beta, depth)
		if t.stopped() {
			return score
		}
		if score <= alpha {
			alpha = Max(-valueInfinity, alpha-Max(Abs(alpha-prevScore)*3/2, aspirationDelta))
		} else if score >= beta {
			beta = Min(valueInfinity, beta+Max(Abs(beta-prevScore)*3/2, aspirationDelta))
		} else {
			return score
		}
	}
	return t.searchRoot(-valueInfinity, valueInfinity, depth)
}

func aspirationBounds(depth, prevScore int, history []int) (alpha, beta int) {
	if isMateScore(prevScore) {
		var window = mateWindow(valueMate - Abs(prevScore))
		if prevScore > 0 {
			return Max(-valueInfinity, prevScore-window), Min(valueInfinity, prevScore+2*window)
		}
		return Max(-valueInfinity, prevScore-2*window), Min(valueInfinity, prevScore+window)
	}
	var window = aspirationWindowSize(depth, history)
	return Max(-valueInfinity, prevScore-window), Min(valueInfinity, prevScore+window)
}

func mateWindow(distance int) int {
	switch {
	case distance <= 10:
		return 5
	case distance <= 20:
		return 10
	default:
		return 20
	}
}

func aspirationWindowSize(depth int, history []int) int {
	if depth <= 2 || len(history) < 2 {
		return aspirationInitial
	}
	return aspirationInitial + Min(scoreVolatility(history)/4, aspirationMaxAdjustment)
}

// scoreVolatility is the mean absolute change between the last iteration
// scores. Pairs involving a mate score are ignored.
func scoreVolatility(history []int) int {
	var start = Max(0, len(history)-volatilityScores)
	var sum, count int
	for i := start + 1; i < len(history); i++ {
		var prev, cur = history[i-1], history[i]
		if isMateScore(prev) || isMateScore(cur) {
			continue
		}
		sum += Abs(cur - prev)
		count++
	}
	if count == 0 {
		return 0
	}
	return Min(sum/count, volatilityCap)
}
