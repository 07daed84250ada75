package board

import "math/bits"

const (
	FileAMask uint64 = 0x0101010101010101 << iota
	FileBMask
	FileCMask
	FileDMask
	FileEMask
	FileFMask
	FileGMask
	FileHMask
)

const (
	Rank1Mask uint64 = 0xFF << (8 * iota)
	Rank2Mask
	Rank3Mask
	Rank4Mask
	Rank5Mask
	Rank6Mask
	Rank7Mask
	Rank8Mask
)

// Ray directions. The first four increase the square index.
const (
	dirNorth = iota
	dirEast
	dirNorthEast
	dirNorthWest
	dirSouth
	dirWest
	dirSouthEast
	dirSouthWest
	dirCount
)

var (
	SquareMask    [64]uint64
	KnightAttacks [64]uint64
	KingAttacks   [64]uint64
	pawnAttacks   [2][64]uint64
	rays          [dirCount][64]uint64
	betweenMask   [64][64]uint64
)

var dirShifts = [dirCount]func(uint64) uint64{
	dirNorth:     Up,
	dirEast:      Right,
	dirNorthEast: UpRight,
	dirNorthWest: UpLeft,
	dirSouth:     Down,
	dirWest:      Left,
	dirSouthEast: DownRight,
	dirSouthWest: DownLeft,
}

func PopCount(b uint64) int {
	return bits.OnesCount64(b)
}

func FirstOne(b uint64) int {
	return bits.TrailingZeros64(b)
}

func MoreThanOne(b uint64) bool {
	return b&(b-1) != 0
}

func Up(b uint64) uint64 {
	return b << 8
}

func Down(b uint64) uint64 {
	return b >> 8
}

func Right(b uint64) uint64 {
	return (b &^ FileHMask) << 1
}

func Left(b uint64) uint64 {
	return (b &^ FileAMask) >> 1
}

func UpRight(b uint64) uint64 {
	return Up(Right(b))
}

func UpLeft(b uint64) uint64 {
	return Up(Left(b))
}

func DownRight(b uint64) uint64 {
	return Down(Right(b))
}

func DownLeft(b uint64) uint64 {
	return Down(Left(b))
}

func PawnAttacks(from int, white bool) uint64 {
	if white {
		return pawnAttacks[0][from]
	}
	return pawnAttacks[1][from]
}

func rayAttacks(dir, from int, occ uint64) uint64 {
	var ray = rays[dir][from]
	var blockers = ray & occ
	if blockers == 0 {
		return ray
	}
	var sq int
	if dir < dirSouth {
		sq = bits.TrailingZeros64(blockers)
	} else {
		sq = 63 - bits.LeadingZeros64(blockers)
	}
	return ray ^ rays[dir][sq]
}

func BishopAttacks(from int, occ uint64) uint64 {
	return rayAttacks(dirNorthEast, from, occ) |
		rayAttacks(dirNorthWest, from, occ) |
		rayAttacks(dirSouthEast, from, occ) |
		rayAttacks(dirSouthWest, from, occ)
}

func RookAttacks(from int, occ uint64) uint64 {
	return rayAttacks(dirNorth, from, occ) |
		rayAttacks(dirEast, from, occ) |
		rayAttacks(dirSouth, from, occ) |
		rayAttacks(dirWest, from, occ)
}

func QueenAttacks(from int, occ uint64) uint64 {
	return BishopAttacks(from, occ) | RookAttacks(from, occ)
}

// slideAttacksSlow walks every ray square by square. It is the reference
// for the ray-table attacks above.
func slideAttacksSlow(from int, occ uint64, shifts []func(uint64) uint64) uint64 {
	var result uint64
	for _, shift := range shifts {
		var x = shift(SquareMask[from])
		for x != 0 {
			result |= x
			if x&occ != 0 {
				break
			}
			x = shift(x)
		}
	}
	return result
}

func init() {
	for sq := 0; sq < 64; sq++ {
		var b = uint64(1) << uint(sq)
		SquareMask[sq] = b

		pawnAttacks[0][sq] = Up(Left(b) | Right(b))
		pawnAttacks[1][sq] = Down(Left(b) | Right(b))

		KnightAttacks[sq] = Right(UpRight(b)) | Up(UpRight(b)) |
			Up(UpLeft(b)) | Left(UpLeft(b)) |
			Left(DownLeft(b)) | Down(DownLeft(b)) |
			Down(DownRight(b)) | Right(DownRight(b))

		KingAttacks[sq] = UpRight(b) | Up(b) | UpLeft(b) | Left(b) |
			DownLeft(b) | Down(b) | DownRight(b) | Right(b)
	}

	for dir := 0; dir < dirCount; dir++ {
		for sq := 0; sq < 64; sq++ {
			rays[dir][sq] = slideAttacksSlow(sq, 0, dirShifts[dir:dir+1])
		}
	}

	for s1 := 0; s1 < 64; s1++ {
		for dir := 0; dir < dirCount; dir++ {
			for x := rays[dir][s1]; x != 0; x &= x - 1 {
				var s2 = FirstOne(x)
				betweenMask[s1][s2] = rays[dir][s1] &^ rays[dir][s2] &^ SquareMask[s2]
			}
		}
	}
}
