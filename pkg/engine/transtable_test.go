package engine

import (
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"

	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

// referenceEntry packs the fields with plain arithmetic instead of shifts.
func referenceEntry(e ttEntry) uint64 {
	var pv uint64
	if e.pv {
		pv = 1
	}
	return uint64(e.move)%(1<<24) +
		uint64(uint16(e.score))*(1<<24) +
		uint64(e.depth)*(1<<40) +
		uint64(e.bound%4)*(1<<48) +
		pv*(1<<50) +
		uint64(e.age%128)*(1<<51)
}

func randomEntry() ttEntry {
	return ttEntry{
		move:  Move(frand.Intn(1 << 24)),
		score: int16(frand.Intn(2*valueMate+1) - valueMate),
		depth: uint8(frand.Intn(256)),
		bound: uint8(frand.Intn(4)),
		pv:    frand.Intn(2) == 1,
		age:   uint8(frand.Intn(128)),
	}
}

func TestEntryPacking(t *testing.T) {
	is := is.New(t)
	for i := 0; i < 10000; i++ {
		var e = randomEntry()
		var data = e.pack()
		is.Equal(data, referenceEntry(e))
		is.Equal(unpackEntry(data), e)
	}
}

func TestTransTableRoundTrip(t *testing.T) {
	is := is.New(t)
	var tt = newTransTable(1, 4)
	var move = MakeMove(MakeSquare(FileE, Rank2), MakeSquare(FileE, Rank4), Pawn, Empty)
	for i := 0; i < 1000; i++ {
		var key = frand.Uint64n(1<<63) | 1
		var depth = 1 + frand.Intn(60)
		var score = frand.Intn(2000) - 1000
		tt.Update(key, depth, score, boundExact, move, false)
		var d, s, b, m, _, ok = tt.Read(key)
		is.True(ok)
		is.True(d >= depth)
		is.Equal(s, score)
		is.Equal(b, boundExact)
		is.Equal(m, move)
	}
}

func TestTransTableTornRead(t *testing.T) {
	is := is.New(t)
	var tt = newTransTable(1, 4)
	var key = uint64(0x1234_5678_9abc_def0)
	tt.Update(key, 5, 10, boundLower, MoveEmpty, false)
	var slot = &tt.bucket(key)[0]
	var other = ttEntry{depth: 9, score: -300, bound: boundUpper}
	// only the data word of a second writer landed
	slot.data.Store(other.pack())
	var _, _, _, _, _, ok = tt.Read(key)
	is.True(!ok)
}

func TestTransTableKeepsMove(t *testing.T) {
	is := is.New(t)
	var tt = newTransTable(1, 4)
	var key = uint64(42)
	var move = MakeMove(SquareG1, MakeSquare(FileF, Rank3), Knight, Empty)
	tt.Update(key, 4, 20, boundLower, move, false)
	tt.Update(key, 6, 30, boundUpper, MoveEmpty, false)
	var d, s, b, m, _, ok = tt.Read(key)
	is.True(ok)
	is.Equal(d, 6)
	is.Equal(s, 30)
	is.Equal(b, boundUpper)
	is.Equal(m, move)
}

func TestTransTableReplacement(t *testing.T) {
	is := is.New(t)
	var tt = newTransTable(1, 4)
	var buckets = uint64(len(tt.slots) / tt.bucketSize)
	// keys sharing bucket 0
	for i := uint64(1); i <= 4; i++ {
		tt.Update(i*buckets, 10, 0, boundExact, MoveEmpty, false)
	}
	// shallower entries do not evict deeper ones
	tt.Update(5*buckets, 2, 0, boundUpper, MoveEmpty, false)
	var _, _, _, _, _, ok = tt.Read(5 * buckets)
	is.True(!ok)

	// an old search generation loses to a fresh entry
	tt.IncDate()
	tt.IncDate()
	tt.IncDate()
	tt.Update(5*buckets, 2, 0, boundUpper, MoveEmpty, false)
	_, _, _, _, _, ok = tt.Read(5 * buckets)
	is.True(ok)
}

func TestHashFull(t *testing.T) {
	is := is.New(t)
	var tt = newTransTable(1, 4)
	is.Equal(tt.HashFull(), 0)
	for i := range tt.slots {
		tt.slots[i].store(uint64(i), ttEntry{depth: 1, age: tt.age}.pack())
	}
	is.Equal(tt.HashFull(), 1000)
	tt.IncDate()
	is.Equal(tt.HashFull(), 0)
	tt.Clear()
	is.Equal(tt.Stats().Used, 0)
}

func TestTransTablePriority(t *testing.T) {
	is := is.New(t)
	var tt = newTransTable(1, 4)
	is.Equal(tt.priority(ttEntry{depth: 10, bound: boundLower}), 10)
	is.Equal(tt.priority(ttEntry{depth: 10, bound: boundExact}), 14)
	is.Equal(tt.priority(ttEntry{depth: 10, bound: boundUpper, pv: true}), 18)
	is.Equal(tt.priority(ttEntry{depth: 10, bound: boundExact, pv: true}), 22)
	tt.IncDate()
	tt.IncDate()
	// two searches old
	is.Equal(tt.priority(ttEntry{depth: 10, bound: boundExact, pv: true}), 14)
	is.Equal(tt.priority(ttEntry{depth: 10, bound: boundExact, pv: true, age: tt.age}), 22)
	// age distance wraps with the 7-bit counter
	tt.age = 1
	is.Equal(tt.priority(ttEntry{depth: 10, age: ttAgeMask}), 2)
}

func TestTransTableCounters(t *testing.T) {
	is := is.New(t)
	var tt = newTransTable(1, 4)
	tt.Update(7, 3, 0, boundLower, MoveEmpty, false)
	for i := 0; i < 3; i++ {
		tt.Read(7)
	}
	tt.Read(8)
	var stats = tt.Stats()
	is.Equal(stats.Probes, uint64(4))
	is.Equal(stats.Hits, uint64(3))
	is.Equal(stats.HitRate(), 75.0)
	is.Equal(stats.Used, 1)
	is.Equal(stats.String(), "used: 1/65,536, current: 1, probes: 4, hits: 3 (75.0%)")

	tt.IncDate()
	stats = tt.Stats()
	is.Equal(stats.Probes, uint64(0))
	is.Equal(stats.HitRate(), 0.0)
	is.Equal(stats.Current, 0)
}
