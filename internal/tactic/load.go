package tactic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"

	"github.com/ChizhovVadim/lazysmp/pkg/board"
	"github.com/ChizhovVadim/lazysmp/pkg/common"
)

type EpdItem struct {
	Content   string
	ID        string
	Position  board.Position
	BestMoves []common.Move
	AvoidMove []common.Move
}

// LoadEpd reads a test suite. Files ending in .zst are zstd compressed.
// Lines that do not parse are logged and skipped.
func LoadEpd(filePath string, logger zerolog.Logger) ([]EpdItem, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(filePath, ".zst") {
		var decoder, err = zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("open zstd %v: %w", filePath, err)
		}
		defer decoder.Close()
		r = decoder
	}
	return ReadEpd(r, logger)
}

func ReadEpd(r io.Reader, logger zerolog.Logger) ([]EpdItem, error) {
	var result []EpdItem
	var scanner = bufio.NewScanner(r)
	var lineNumber = 0
	for scanner.Scan() {
		lineNumber++
		var line = strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var test, err = parseEpdTest(line)
		if err != nil {
			logger.Warn().Err(err).Int("line", lineNumber).Msg("epd-skipped")
			continue
		}
		result = append(result, test)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// parseEpdTest parses "<fen> bm <moves>; id <name>;". The fen may omit the
// move counters.
func parseEpdTest(s string) (EpdItem, error) {
	var opBegin = strings.Index(s, " bm ")
	if amBegin := strings.Index(s, " am "); opBegin == -1 || amBegin != -1 && amBegin < opBegin {
		opBegin = amBegin
	}
	if opBegin == -1 {
		return EpdItem{}, fmt.Errorf("no bm or am operation %v", s)
	}
	var fen = strings.TrimSpace(s[:opBegin])
	var p, err = board.NewPositionFromFEN(fen)
	if err != nil {
		return EpdItem{}, err
	}

	var item = EpdItem{
		Content:  s,
		Position: p,
	}
	for _, op := range strings.Split(s[opBegin:], ";") {
		var fields = strings.Fields(op)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "bm", "am":
			for _, san := range fields[1:] {
				var move = board.ParseMoveSAN(&p, san)
				if move == common.MoveEmpty {
					return EpdItem{}, fmt.Errorf("parse move failed %v %v", san, s)
				}
				if fields[0] == "bm" {
					item.BestMoves = append(item.BestMoves, move)
				} else {
					item.AvoidMove = append(item.AvoidMove, move)
				}
			}
		case "id":
			item.ID = strings.Trim(strings.Join(fields[1:], " "), `"`)
		}
	}
	if len(item.BestMoves) == 0 && len(item.AvoidMove) == 0 {
		return EpdItem{}, fmt.Errorf("empty best moves %v", s)
	}
	return item, nil
}

// Solved reports whether move satisfies the bm and am operations.
func (item *EpdItem) Solved(move common.Move) bool {
	for _, m := range item.AvoidMove {
		if m == move {
			return false
		}
	}
	if len(item.BestMoves) == 0 {
		return move != common.MoveEmpty
	}
	for _, m := range item.BestMoves {
		if m == move {
			return true
		}
	}
	return false
}
