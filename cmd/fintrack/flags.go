package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"fintrack/internal/core"
)

func newFlagSet(name string, errOut io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	return fs
}

// dateFlag parses YYYY-MM-DD.
type dateFlag struct{ core.Date }

func (d *dateFlag) Set(s string) error {
	v, err := core.ParseDate(s)
	if err != nil {
		return err
	}
	d.Date = v
	return nil
}

// amountFlag parses whole-won amounts, tolerating thousands separators.
type amountFlag struct {
	v   int64
	set bool
}

func (a *amountFlag) String() string {
	if a == nil || !a.set {
		return ""
	}
	return strconv.FormatInt(a.v, 10)
}

func (a *amountFlag) Set(s string) error {
	v, err := core.ParseAmount(s)
	if err != nil {
		return err
	}
	a.v, a.set = v, true
	return nil
}

// typeFlag parses INCOME or EXPENSE, case-insensitively.
type typeFlag struct{ t core.CategoryType }

func (f *typeFlag) String() string {
	if f == nil {
		return ""
	}
	return string(f.t)
}

func (f *typeFlag) Set(s string) error {
	t, err := core.ParseCategoryType(s)
	if err != nil {
		return err
	}
	f.t = t
	return nil
}

// idArg reads the single positional id argument of get/update/delete.
func idArg(fs *flag.FlagSet) (int64, error) {
	if fs.NArg() != 1 {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", fs.Arg(0))
	}
	return id, nil
}

// parseInterleaved lets flags follow the positional id: "update 3 -name x".
func parseInterleaved(fs *flag.FlagSet, args []string) error {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
	return fs.Parse(positional)
}
