package tactic

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ChizhovVadim/lazysmp/pkg/board"
	"github.com/ChizhovVadim/lazysmp/pkg/common"
	"github.com/ChizhovVadim/lazysmp/pkg/engine"
)

type Config struct {
	Limits common.LimitsType
	// Workers is the number of engines searching different positions at once.
	Workers   int
	NewEngine func() *engine.Engine
	Logger    zerolog.Logger
}

type Report struct {
	Total   int
	Solved  int
	Nodes   int64
	Elapsed time.Duration
	Failed  []string
}

func (r Report) NPS() int64 {
	return r.Nodes * 1000 / (r.Elapsed.Milliseconds() + 1)
}

// SolveTactic searches every position with the configured limits and counts
// the positions where the engine found a best move.
func SolveTactic(ctx context.Context, tests []EpdItem, config Config) (Report, error) {
	var workers = common.Max(1, config.Workers)
	var start = time.Now()
	var report = Report{Total: len(tests)}
	var mu sync.Mutex

	var jobs = make(chan int)
	var g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range tests {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			var eng = config.NewEngine()
			eng.Prepare()
			for i := range jobs {
				var test = &tests[i]
				eng.Clear()
				var si = eng.Search(gctx, engine.SearchParams{
					Position: board.NewGame(&test.Position),
					Limits:   config.Limits,
				})
				var solved = test.Solved(si.BestMove())
				mu.Lock()
				report.Nodes += si.Nodes
				if solved {
					report.Solved++
				} else {
					report.Failed = append(report.Failed, test.Content)
				}
				mu.Unlock()
				config.Logger.Debug().
					Str("id", test.ID).
					Stringer("move", si.BestMove()).
					Bool("solved", solved).
					Str("nodes", humanize.Comma(si.Nodes)).
					Msg("tactic-position")
			}
			return gctx.Err()
		})
	}
	var err = g.Wait()
	report.Elapsed = time.Since(start)
	config.Logger.Info().
		Int("solved", report.Solved).
		Int("total", report.Total).
		Str("nodes", humanize.Comma(report.Nodes)).
		Str("nps", humanize.Comma(report.NPS())).
		Dur("elapsed", report.Elapsed).
		Msg("tactic-finished")
	return report, err
}
