package uci

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

var errOutOfRange = errors.New("argument out of range")

type Option interface {
	UciName() string
	UciString() string
	Set(s string) error
}

type BoolOption struct {
	Name  string
	Value *bool
}

func (opt *BoolOption) UciName() string {
	return opt.Name
}

func (opt *BoolOption) UciString() string {
	return fmt.Sprintf("option name %v type %v default %v",
		opt.Name, "check", *opt.Value)
}

func (opt *BoolOption) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*opt.Value = v
	return nil
}

type IntOption struct {
	Name  string
	Min   int
	Max   int
	Value *int
}

func (opt *IntOption) UciName() string {
	return opt.Name
}

func (opt *IntOption) UciString() string {
	return fmt.Sprintf("option name %v type %v default %v min %v max %v",
		opt.Name, "spin", *opt.Value, opt.Min, opt.Max)
}

func (opt *IntOption) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v < opt.Min || v > opt.Max {
		return errOutOfRange
	}
	*opt.Value = v
	return nil
}

// DurationOption is a spin option in milliseconds.
type DurationOption struct {
	Name  string
	Min   time.Duration
	Max   time.Duration
	Value *time.Duration
}

func (opt *DurationOption) UciName() string {
	return opt.Name
}

func (opt *DurationOption) UciString() string {
	return fmt.Sprintf("option name %v type %v default %v min %v max %v",
		opt.Name, "spin", opt.Value.Milliseconds(), opt.Min.Milliseconds(), opt.Max.Milliseconds())
}

func (opt *DurationOption) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	var d = time.Duration(v) * time.Millisecond
	if d < opt.Min || d > opt.Max {
		return errOutOfRange
	}
	*opt.Value = d
	return nil
}

type ComboOption struct {
	Name  string
	Vars  []string
	Value *string
}

func (opt *ComboOption) UciName() string {
	return opt.Name
}

func (opt *ComboOption) UciString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "option name %v type %v default %v", opt.Name, "combo", *opt.Value)
	for _, v := range opt.Vars {
		sb.WriteString(" var ")
		sb.WriteString(v)
	}
	return sb.String()
}

func (opt *ComboOption) Set(s string) error {
	var v, found = lo.Find(opt.Vars, func(item string) bool {
		return strings.EqualFold(item, s)
	})
	if !found {
		return fmt.Errorf("unknown value %v", s)
	}
	*opt.Value = v
	return nil
}

func findOption(options []Option, name string) (Option, bool) {
	return lo.Find(options, func(option Option) bool {
		return strings.EqualFold(option.UciName(), name)
	})
}
