package arena

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ChizhovVadim/lazysmp/pkg/common"
	"github.com/ChizhovVadim/lazysmp/pkg/engine"
)

type IEngine interface {
	Clear()
	Search(ctx context.Context, searchParams engine.SearchParams) common.SearchInfo
}

type Config struct {
	// Openings are fens or SAN move lists. Every opening is played twice
	// with colors reversed.
	Openings    []string
	Limits      common.LimitsType
	Concurrency int
	// MaxPlies adjudicates a draw after this many plies when positive.
	MaxPlies   int
	NewEngineA func() IEngine
	NewEngineB func() IEngine
	Logger     zerolog.Logger
}

// Stats are counted from engine A's point of view.
type Stats struct {
	Wins, Losses, Draws int
	WinningFraction     float64
	EloDifference       float64
	LOS                 float64
}

func (s Stats) Games() int {
	return s.Wins + s.Losses + s.Draws
}

// Run plays the match and returns the final score.
func Run(ctx context.Context, config Config) (Stats, error) {
	var log = config.Logger
	var concurrency = config.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	log.Info().
		Int("openings", len(config.Openings)).
		Int("concurrency", concurrency).
		Stringer("timecontrol", config.Limits.TimeControl.Kind).
		Int("depth", config.Limits.Depth).
		Int("nodes", config.Limits.Nodes).
		Msg("arena-started")

	var fens = make([]string, 0, len(config.Openings))
	for _, opening := range config.Openings {
		var fen, err = ParseOpening(opening)
		if err != nil {
			return Stats{}, err
		}
		fens = append(fens, fen)
	}

	g, ctx := errgroup.WithContext(ctx)

	var gameInfos = make(chan gameInfo)
	var gameResults = make(chan gameResult)

	g.Go(func() error {
		defer close(gameInfos)
		return loadGames(ctx, fens, gameInfos)
	})

	var stats Stats
	g.Go(func() error {
		stats = showResults(log, gameResults)
		return nil
	})

	var wg = &sync.WaitGroup{}

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return playGames(ctx, config, gameInfos, gameResults)
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(gameResults)
		return nil
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func loadGames(ctx context.Context, fens []string, gameInfos chan<- gameInfo) error {
	for i, fen := range fens {
		for _, engineAIsWhite := range [...]bool{true, false} {
			var info = gameInfo{opening: fen, engineAIsWhite: engineAIsWhite, gameNumber: 1 + 2*i}
			if !engineAIsWhite {
				info.gameNumber++
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case gameInfos <- info:
			}
		}
	}
	return nil
}

func playGames(
	ctx context.Context,
	config Config,
	gameInfos <-chan gameInfo,
	gameResults chan<- gameResult,
) error {
	var engineA = config.NewEngineA()
	var engineB = config.NewEngineB()
	for gameInfo := range gameInfos {
		var res, err = playGame(ctx, engineA, engineB, config.Limits, config.MaxPlies, gameInfo)
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case gameResults <- res:
		}
	}
	return nil
}

func showResults(log zerolog.Logger, gameResults <-chan gameResult) Stats {
	var wins, losses, draws int
	var stats Stats
	for gameResult := range gameResults {
		if gameResult.result == gameResultDraw {
			draws++
		} else if gameResult.result == gameResultWhiteWins && gameResult.gameInfo.engineAIsWhite ||
			gameResult.result == gameResultBlackWins && !gameResult.gameInfo.engineAIsWhite {
			wins++
		} else {
			losses++
		}
		stats = computeStat(wins, losses, draws)
		log.Info().
			Int("game", gameResult.gameInfo.gameNumber).
			Str("result", gameResultString(gameResult.result)).
			Str("comment", gameResult.comment).
			Int("plies", gameResult.plies).
			Msg("game-finished")
		log.Info().
			Int("wins", wins).
			Int("losses", losses).
			Int("draws", draws).
			Float64("score", stats.WinningFraction).
			Float64("elo", stats.EloDifference).
			Float64("los", stats.LOS).
			Msg("arena-score")
	}
	return stats
}

// https://www.chessprogramming.org/Match_Statistics
func computeStat(wins, losses, draws int) Stats {
	var result = Stats{Wins: wins, Losses: losses, Draws: draws}
	var games = wins + losses + draws
	if games == 0 {
		return result
	}
	result.WinningFraction = (float64(wins) + 0.5*float64(draws)) / float64(games)
	result.EloDifference = -math.Log(1/result.WinningFraction-1) * 400 / math.Ln10
	if wins+losses == 0 {
		result.LOS = 0.5
	} else {
		result.LOS = 0.5 + 0.5*math.Erf(float64(wins-losses)/math.Sqrt(2*float64(wins+losses)))
	}
	return result
}
