package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

var errUnknownCommand = errors.New("unknown command")

// CommandArgs holds the command name and its -key value parameters.
// Both "-key value" and "-key=value" forms are accepted.
type CommandArgs struct {
	commandName string
	params      map[string]string
}

func NewCommandArgs(args []string) *CommandArgs {
	var result = &CommandArgs{params: make(map[string]string)}
	for i := 1; i < len(args); i++ {
		var arg = args[i]
		if !strings.HasPrefix(arg, "-") {
			if result.commandName == "" {
				result.commandName = arg
			}
			continue
		}
		var key = strings.TrimLeft(arg, "-")
		if k, v, found := strings.Cut(key, "="); found {
			result.params[k] = v
		} else if i+1 < len(args) {
			result.params[key] = args[i+1]
			i++
		}
	}
	return result
}

func (ca *CommandArgs) CommandName() string {
	return ca.commandName
}

func (ca *CommandArgs) GetString(name string, defaultVal string) string {
	if val, ok := ca.params[name]; ok {
		return val
	}
	return defaultVal
}

func (ca *CommandArgs) GetInt(name string, defaultVal int) int {
	var v, err = strconv.Atoi(ca.GetString(name, ""))
	if err != nil {
		return defaultVal
	}
	return v
}

// GetBool accepts the strconv forms plus "on"/"off".
func (ca *CommandArgs) GetBool(name string, defaultVal bool) bool {
	switch val := strings.ToLower(ca.GetString(name, "")); val {
	case "on":
		return true
	case "off":
		return false
	default:
		var v, err = strconv.ParseBool(val)
		if err != nil {
			return defaultVal
		}
		return v
	}
}

// GetMillis reads a plain millisecond count or a time.Duration string.
func (ca *CommandArgs) GetMillis(name string, defaultVal int) int {
	var val = ca.GetString(name, "")
	if d, err := time.ParseDuration(val); err == nil {
		return int(d / time.Millisecond)
	}
	return ca.GetInt(name, defaultVal)
}

// GetPath expands a leading "~/" to the home directory.
func (ca *CommandArgs) GetPath(name string, defaultVal string) string {
	var path = ca.GetString(name, defaultVal)
	if rest, found := strings.CutPrefix(path, "~/"); found {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}

func (ca *CommandArgs) LogLevel() zerolog.Level {
	var level, err = zerolog.ParseLevel(ca.GetString("loglevel", "info"))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

type CommandHandler struct {
	items  map[string]func() error
	logger zerolog.Logger
}

func NewCommandHandler(logger zerolog.Logger) *CommandHandler {
	return &CommandHandler{
		items:  make(map[string]func() error),
		logger: logger,
	}
}

func (ch *CommandHandler) Add(name string, handler func() error) {
	ch.items[name] = handler
}

func (ch *CommandHandler) Names() []string {
	var names = lo.Keys(ch.items)
	sort.Strings(names)
	return names
}

func (ch *CommandHandler) Execute(commandName string) error {
	handler, found := ch.items[commandName]
	if !found {
		return fmt.Errorf("%w %q, expected one of %v", errUnknownCommand,
			commandName, strings.Join(ch.Names(), ", "))
	}
	var start = time.Now()
	ch.logger.Debug().Str("command", commandName).Msg("command-started")
	var err = handler()
	ch.logger.Debug().
		Str("command", commandName).
		Dur("elapsed", time.Since(start)).
		Err(err).
		Msg("command-finished")
	return err
}
