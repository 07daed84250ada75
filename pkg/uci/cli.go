package uci

import (
	"bufio"
	"io"
	"strings"
)

// readCommands sends input lines to commands until quit or end of input.
func readCommands(r io.Reader, commands chan<- string) {
	var scanner = bufio.NewScanner(r)
	for scanner.Scan() {
		var commandLine = strings.TrimSpace(scanner.Text())
		if commandLine == "quit" {
			return
		}
		if commandLine != "" {
			commands <- commandLine
		}
	}
}
