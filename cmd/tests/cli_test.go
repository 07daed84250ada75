package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestCommandArgs(t *testing.T) {
	is := is.New(t)
	var args = NewCommandArgs([]string{"tests", "-eval", "pesto", "arena",
		"--threadsa=8", "-verifyb", "off", "-movetime", "1.5s", "-depth", "x"})
	is.Equal(args.CommandName(), "arena")
	is.Equal(args.GetString("eval", ""), "pesto")
	is.Equal(args.GetInt("threadsa", 4), 8)
	is.Equal(args.GetInt("threadsb", 1), 1)
	is.Equal(args.GetInt("depth", 10), 10)
	is.Equal(args.GetBool("verifya", true), true)
	is.Equal(args.GetBool("verifyb", true), false)
	is.Equal(args.GetMillis("movetime", 3000), 1500)
	is.Equal(args.GetMillis("nodes", 3000), 3000)
	is.Equal(args.LogLevel(), zerolog.InfoLevel)
}

func TestCommandArgsMillis(t *testing.T) {
	is := is.New(t)
	var args = NewCommandArgs([]string{"tests", "tactic", "-movetime", "250", "-loglevel", "debug"})
	is.Equal(args.GetMillis("movetime", 3000), 250)
	is.Equal(args.LogLevel(), zerolog.DebugLevel)
}

func TestCommandArgsPath(t *testing.T) {
	is := is.New(t)
	var home, err = os.UserHomeDir()
	is.NoErr(err)
	var args = NewCommandArgs([]string{"tests", "-testpath", "~/chess/tests.epd", "-dir", "./out"})
	is.Equal(args.GetPath("testpath", ""), filepath.Join(home, "chess", "tests.epd"))
	is.Equal(args.GetPath("dir", "."), "./out")
	is.Equal(args.GetPath("openings", ""), "")
}

func TestCommandHandler(t *testing.T) {
	is := is.New(t)
	var handler = NewCommandHandler(zerolog.Nop())
	var called []string
	var errFailed = errors.New("failed")
	handler.Add("tactic", func() error {
		called = append(called, "tactic")
		return nil
	})
	handler.Add("arena", func() error {
		called = append(called, "arena")
		return errFailed
	})
	is.Equal(handler.Names(), []string{"arena", "tactic"})

	is.NoErr(handler.Execute("tactic"))
	is.True(errors.Is(handler.Execute("arena"), errFailed))
	is.Equal(called, []string{"tactic", "arena"})

	err := handler.Execute("fengen")
	is.True(errors.Is(err, errUnknownCommand))
	is.Equal(len(called), 2)
}
