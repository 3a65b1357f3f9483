// Package flagutil holds pflag.Value implementations for catlog settings.
package flagutil

import (
	"fmt"
	"regexp"

	"github.com/ugorji/go-catlog/config"
	"github.com/ugorji/go-catlog/errorutil"
	"github.com/ugorji/go-catlog/level"
)

// LevelFlagValue is a level given by name, e.g. "warn".
type LevelFlagValue level.Level

func (v *LevelFlagValue) Set(s string) (err error) {
	l, ok := level.Parse(s)
	if !ok {
		return errorutil.Newf(errorutil.InvalidLevelSpec, "unknown level %q", s)
	}
	*v = LevelFlagValue(l)
	return
}

func (v *LevelFlagValue) Get() interface{} { return level.Level(*v) }
func (v *LevelFlagValue) Level() level.Level { return level.Level(*v) }
func (v *LevelFlagValue) String() string   { return level.Level(*v).String() }
func (v *LevelFlagValue) Type() string     { return "level" }

// MaskFlagValue is a level filter, e.g. ">=warn". It is unset (nil) by default.
type MaskFlagValue struct {
	m *level.Mask
}

func (v *MaskFlagValue) Mask() (m level.Mask, ok bool) {
	if v.m == nil {
		return
	}
	return *v.m, true
}

func (v *MaskFlagValue) Set(s string) (err error) {
	m, err := level.ParseMask(s)
	if err == nil {
		v.m = &m
	}
	return
}

func (v *MaskFlagValue) Get() interface{} { return v.m }

func (v *MaskFlagValue) String() string {
	if v.m == nil {
		return ""
	}
	return v.m.String()
}

func (v *MaskFlagValue) Type() string { return "levels" }

type RegexpFlagValue regexp.Regexp

func (v *RegexpFlagValue) Set(s string) (err error) {
	vv, err := regexp.Compile(s)
	if err == nil {
		*v = (RegexpFlagValue)(*vv)
	}
	return
}

// Regexp returns nil if v was never set.
func (v *RegexpFlagValue) Regexp() *regexp.Regexp {
	if v.String() == "" {
		return nil
	}
	return (*regexp.Regexp)(v)
}

func (v *RegexpFlagValue) Get() interface{} { return v.Regexp() }
func (v *RegexpFlagValue) String() string   { return (*regexp.Regexp)(v).String() }
func (v *RegexpFlagValue) Type() string     { return "regexp" }

// RulesFlagValue collects rule lines (e.g. "app.>=warn=short;>stderr"),
// dropping duplicates. Each line is checked to split into a key and value.
type RulesFlagValue []string

func (v *RulesFlagValue) Set(s string) (err error) {
	if _, _, ok := config.SplitRuleLine(s); !ok {
		return fmt.Errorf("rule %q: expected CATEGORY[.LEVEL]=[FORMAT][;DEST]", s)
	}
	for _, vs := range *v {
		if vs == s {
			return
		}
	}
	*v = append(*v, s)
	return
}

func (v *RulesFlagValue) Get() interface{} { return ([]string)(*v) }
func (v *RulesFlagValue) String() string   { return fmt.Sprintf("%v", v.Get()) }
func (v *RulesFlagValue) Type() string     { return "rule" }

// AddTo adds every collected rule to c.
func (v *RulesFlagValue) AddTo(c *config.Config) (err error) {
	for _, s := range *v {
		if err = c.AddRule(s); err != nil {
			return
		}
	}
	return
}
