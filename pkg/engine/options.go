package engine

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChizhovVadim/lazysmp/pkg/common"
)

type Options struct {
	Hash             int
	Threads          int
	MultiPV          int
	MoveOverhead     time.Duration
	TTBucketSize     int
	ProgressMinNodes int

	UseTT         bool
	UsePruning    bool
	UseQuiescence bool
	UseAspiration bool
	UseNullMove   bool
	UseLMR        bool
	ShareHistory  bool

	RootVerify RootVerifyOptions
	Logger     zerolog.Logger

	reductions [64][64]int
}

// RootVerifyOptions are tuning constants of the final root move check.
type RootVerifyOptions struct {
	Enabled             bool
	MaxTime             time.Duration
	MaxNodes            int
	CheckDepth          int
	OppSEEMin           int
	MajorLossPenalty    int
	RequirePass         bool
	MaxCandidates       int
	MaxCandidatesThreat int
	WinProtectThreshold int
	WinProtectMaxDepth  int
}

func NewOptions() Options {
	var result = Options{
		Hash:             16,
		Threads:          1,
		MultiPV:          1,
		MoveOverhead:     300 * time.Millisecond,
		ProgressMinNodes: 0,
		UseTT:            true,
		UsePruning:       true,
		UseQuiescence:    true,
		UseAspiration:    true,
		UseNullMove:      true,
		UseLMR:           true,
		ShareHistory:     false,
		RootVerify:       DefaultRootVerifyOptions(),
		Logger:           zerolog.Nop(),
	}
	result.InitLmr(LmrMult)
	return result
}

func DefaultRootVerifyOptions() RootVerifyOptions {
	return RootVerifyOptions{
		Enabled:             true,
		MaxTime:             8 * time.Millisecond,
		MaxNodes:            150_000,
		CheckDepth:          3,
		OppSEEMin:           0,
		MajorLossPenalty:    1200,
		RequirePass:         true,
		MaxCandidates:       4,
		MaxCandidatesThreat: 12,
		WinProtectThreshold: 1200,
		WinProtectMaxDepth:  13,
	}
}

// ExactOptions disables everything that makes the search differ from
// plain minimax with static evaluation at the horizon.
func ExactOptions() Options {
	var result = NewOptions()
	result.UseTT = false
	result.UsePruning = false
	result.UseQuiescence = false
	result.UseAspiration = false
	result.UseNullMove = false
	result.UseLMR = false
	result.RootVerify.Enabled = false
	return result
}

func (o *Options) Lmr(d, m int) int {
	return o.reductions[common.Min(d, 63)][common.Min(m, 63)]
}

func (o *Options) InitLmr(f func(d, m float64) float64) {
	initLmr(&o.reductions, f)
}

func initLmr(reductions *[64][64]int,
	f func(d, m float64) float64) {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			var r = f(float64(d), float64(m))
			reductions[d][m] = int(r)
		}
	}
}

func LmrMult(d, m float64) float64 {
	return common.Lerp(math.Log(d)*math.Log(m), math.Log(5)*math.Log(22), math.Log(63)*math.Log(63), 3, 8)
}
