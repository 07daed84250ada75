package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	. "github.com/ChizhovVadim/lazysmp/pkg/common"
)

const (
	boundLower = 1 << iota
	boundUpper
)

const boundExact = boundLower | boundUpper

const (
	ttMoveBits  = 24
	ttScoreBits = 16
	ttDepthBits = 8
	ttBoundBits = 2
	ttAgeBits   = 7

	ttScoreShift = ttMoveBits
	ttDepthShift = ttScoreShift + ttScoreBits
	ttBoundShift = ttDepthShift + ttDepthBits
	ttPVShift    = ttBoundShift + ttBoundBits
	ttAgeShift   = ttPVShift + 1

	ttAgeMask = 1<<ttAgeBits - 1
)

// ttEntry is the unpacked form of a table slot.
type ttEntry struct {
	move  Move
	score int16
	depth uint8
	bound uint8
	pv    bool
	age   uint8
}

func (e ttEntry) pack() uint64 {
	var data = uint64(e.move)&(1<<ttMoveBits-1) |
		uint64(uint16(e.score))<<ttScoreShift |
		uint64(e.depth)<<ttDepthShift |
		uint64(e.bound&(1<<ttBoundBits-1))<<ttBoundShift |
		uint64(e.age&ttAgeMask)<<ttAgeShift
	if e.pv {
		data |= 1 << ttPVShift
	}
	return data
}

func unpackEntry(data uint64) ttEntry {
	return ttEntry{
		move:  Move(data & (1<<ttMoveBits - 1)),
		score: int16(uint16(data >> ttScoreShift)),
		depth: uint8(data >> ttDepthShift),
		bound: uint8(data>>ttBoundShift) & (1<<ttBoundBits - 1),
		pv:    data&(1<<ttPVShift) != 0,
		age:   uint8(data>>ttAgeShift) & ttAgeMask,
	}
}

func dataDepth(data uint64) int {
	return int(uint8(data >> ttDepthShift))
}

// ttSlot stores an entry in two words: the key xor the data and the data.
// Writers do not lock. A reader that sees words from two different writes
// computes a wrong key and treats the slot as a miss.
type ttSlot struct {
	check atomic.Uint64
	data  atomic.Uint64
}

func (s *ttSlot) load() (key, data uint64) {
	data = s.data.Load()
	key = s.check.Load() ^ data
	return
}

func (s *ttSlot) store(key, data uint64) {
	s.check.Store(key ^ data)
	s.data.Store(data)
}

// compareAndSwap replaces the slot only if its data word still equals old.
func (s *ttSlot) compareAndSwap(key, old, data uint64) bool {
	if !s.data.CompareAndSwap(old, data) {
		return false
	}
	s.check.Store(key ^ data)
	return true
}

func (s *ttSlot) clear() {
	s.data.Store(0)
	s.check.Store(0)
}

type transTable struct {
	megabytes  int
	bucketSize int
	slots      []ttSlot
	mask       uint64
	age        uint8
	probes     atomic.Uint64
	hits       atomic.Uint64
}

const ttSlotBytes = 16

func roundPowerOfTwo(size int) int {
	var x = 1
	for (x << 1) <= size {
		x <<= 1
	}
	return x
}

func autoBucketSize(megabytes int) int {
	switch {
	case megabytes < 64:
		return 4
	case megabytes < 512:
		return 8
	default:
		return 16
	}
}

// good test: position fen 8/k7/3p4/p2P1p2/P2P1P2/8/8/K7 w - - 0 1
// good test: position fen 8/pp6/2p5/P1P5/1P3k2/3K4/8/8 w - - 5 47
func newTransTable(megabytes, bucketSize int) *transTable {
	if bucketSize != 4 && bucketSize != 8 && bucketSize != 16 {
		bucketSize = autoBucketSize(megabytes)
	}
	var buckets = roundPowerOfTwo(Max(1, 1024*1024*megabytes/(ttSlotBytes*bucketSize)))
	return &transTable{
		megabytes:  megabytes,
		bucketSize: bucketSize,
		slots:      make([]ttSlot, buckets*bucketSize),
		mask:       uint64(buckets - 1),
	}
}

func (tt *transTable) Size() int {
	return tt.megabytes
}

func (tt *transTable) BucketSize() int {
	return tt.bucketSize
}

func (tt *transTable) IncDate() {
	tt.age = (tt.age + 1) & ttAgeMask
	tt.resetCounters()
}

func (tt *transTable) Clear() {
	tt.age = 0
	tt.resetCounters()
	for i := range tt.slots {
		tt.slots[i].clear()
	}
}

func (tt *transTable) resetCounters() {
	tt.probes.Store(0)
	tt.hits.Store(0)
}

func (tt *transTable) bucket(key uint64) []ttSlot {
	var index = int(key&tt.mask) * tt.bucketSize
	return tt.slots[index : index+tt.bucketSize]
}

func (tt *transTable) ageDistance(age uint8) int {
	return int((tt.age - age) & ttAgeMask)
}

// priority orders eviction candidates. Age weighs four times a ply of depth.
func (tt *transTable) priority(e ttEntry) int {
	var result = int(e.depth) - 4*tt.ageDistance(e.age)
	if e.pv {
		result += 8
	}
	if e.bound == boundExact {
		result += 4
	}
	return result
}

func (tt *transTable) Read(key uint64) (depth, score, bound int, move Move, pv, ok bool) {
	tt.probes.Add(1)
	var bucket = tt.bucket(key)
	for i := range bucket {
		var slot = &bucket[i]
		var slotKey, data = slot.load()
		if slotKey != key || dataDepth(data) == 0 {
			continue
		}
		var entry = unpackEntry(data)
		if entry.age != tt.age {
			var refreshed = entry
			refreshed.age = tt.age
			slot.compareAndSwap(key, data, refreshed.pack())
		}
		tt.hits.Add(1)
		return int(entry.depth), int(entry.score), int(entry.bound), entry.move, entry.pv, true
	}
	return
}

func (tt *transTable) Update(key uint64, depth, score, bound int, move Move, pv bool) {
	if depth <= 0 {
		return
	}
	var entry = ttEntry{
		move:  move,
		score: int16(Clamp(score, -valueMate, valueMate)),
		depth: uint8(Min(depth, 255)),
		bound: uint8(bound),
		pv:    pv,
		age:   tt.age,
	}
	var bucket = tt.bucket(key)
	var empty, worst *ttSlot
	var worstPriority int
	for i := range bucket {
		var slot = &bucket[i]
		var slotKey, data = slot.load()
		if dataDepth(data) == 0 {
			if empty == nil {
				empty = slot
			}
			continue
		}
		if slotKey == key {
			var old = unpackEntry(data)
			if entry.move == MoveEmpty {
				entry.move = old.move
			}
			if bound == boundExact ||
				int(entry.depth) >= int(old.depth)-3 ||
				old.age != tt.age {
				slot.store(key, entry.pack())
			}
			return
		}
		var p = tt.priority(unpackEntry(data))
		if worst == nil || p < worstPriority {
			worst = slot
			worstPriority = p
		}
	}
	if empty != nil {
		empty.store(key, entry.pack())
		return
	}
	if tt.priority(entry) >= worstPriority {
		worst.store(key, entry.pack())
	}
}

// HashFull returns the per mille of sampled slots written in this search.
func (tt *transTable) HashFull() int {
	var n = Min(1000, len(tt.slots))
	var used = 0
	for i := 0; i < n; i++ {
		var _, data = tt.slots[i].load()
		if dataDepth(data) != 0 && unpackEntry(data).age == tt.age {
			used++
		}
	}
	return used * 1000 / n
}

type TTStats struct {
	Megabytes  int
	BucketSize int
	Slots      int
	Used       int
	Current    int
	Probes     uint64
	Hits       uint64
}

// HitRate is the percentage of probes since the last IncDate that found an entry.
func (s TTStats) HitRate() float64 {
	if s.Probes == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Probes) * 100
}

func (s TTStats) String() string {
	return fmt.Sprintf("used: %v/%v, current: %v, probes: %v, hits: %v (%.1f%%)",
		humanize.Comma(int64(s.Used)), humanize.Comma(int64(s.Slots)),
		humanize.Comma(int64(s.Current)), humanize.Comma(int64(s.Probes)),
		humanize.Comma(int64(s.Hits)), s.HitRate())
}

// Stats counts occupied slots. It scans the whole table.
func (tt *transTable) Stats() TTStats {
	var result = TTStats{
		Megabytes:  tt.megabytes,
		BucketSize: tt.bucketSize,
		Slots:      len(tt.slots),
		Probes:     tt.probes.Load(),
		Hits:       tt.hits.Load(),
	}
	for i := range tt.slots {
		var _, data = tt.slots[i].load()
		if dataDepth(data) != 0 {
			result.Used++
			if unpackEntry(data).age == tt.age {
				result.Current++
			}
		}
	}
	return result
}
