// Package level holds the severity levels of catlog and the level-filter
// algebra which turns a filter string such as ">=warn" into a Mask.
//
// The grammar of a filter string is:
//
//	*        every level
//	=NAME    exactly NAME
//	>NAME    every level strictly more severe than NAME
//	>=NAME   NAME and every level more severe
//	NAME     same as >=NAME
//
// where NAME is one of debug, info, notice, warn, error, fatal (case-sensitive).
package level

import (
	"strings"

	"github.com/ugorji/go/codec"

	"github.com/ugorji/go-catlog/errorutil"
)

// Level is a severity. Levels are totally ordered: Debug < Info < ... < Fatal.
type Level uint8

const (
	Debug Level = iota
	Info
	Notice
	Warn
	Error
	Fatal
)

// Count is the number of severity levels.
const Count = 6

var level2s = [Count]string{"debug", "info", "notice", "warn", "error", "fatal"}

var level2upper = [Count]string{"DEBUG", "INFO", "NOTICE", "WARN", "ERROR", "FATAL"}

// Valid reports whether l is one of the six levels.
func (l Level) Valid() bool {
	return l < Count
}

// String returns the lower-case name of l, e.g. "warn".
func (l Level) String() string {
	if l.Valid() {
		return level2s[l]
	}
	return "invalid"
}

// Upper returns the upper-case name of l, e.g. "WARN".
func (l Level) Upper() string {
	if l.Valid() {
		return level2upper[l]
	}
	return "INVALID"
}

// Bit returns the single-bit Mask selecting l.
func (l Level) Bit() Mask {
	if !l.Valid() {
		return 0
	}
	return 1 << l
}

func (l Level) CodecEncodeSelf(e *codec.Encoder) {
	e.MustEncode(l.String())
}

func (l *Level) CodecDecodeSelf(d *codec.Decoder) {
	var s string
	d.MustDecode(&s)
	*l, _ = Parse(s)
}

// MarshalYAML writes l by name.
func (l Level) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// Parse returns the Level named s. Names are case-sensitive.
func Parse(s string) (l Level, ok bool) {
	for i := range level2s {
		if level2s[i] == s {
			return Level(i), true
		}
	}
	return 0, false
}

// Mask is a set of levels, one bit per Level. Bit i selects Level(i).
type Mask uint8

// All selects every level.
const All Mask = 1<<Count - 1

// Has reports whether m selects l.
func (m Mask) Has(l Level) bool {
	return m&l.Bit() != 0
}

// Levels returns the selected levels, least severe first.
func (m Mask) Levels() (ls []Level) {
	for l := Debug; l <= Fatal; l++ {
		if m.Has(l) {
			ls = append(ls, l)
		}
	}
	return
}

// String returns "*" for All, "none" for the empty mask,
// or the selected level names joined by "|" e.g. "warn|error|fatal".
func (m Mask) String() string {
	switch m & All {
	case All:
		return "*"
	case 0:
		return "none"
	}
	var b strings.Builder
	for _, l := range m.Levels() {
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString(l.String())
	}
	return b.String()
}

func (m Mask) CodecEncodeSelf(e *codec.Encoder) {
	e.MustEncode(m.String())
}

func (m *Mask) CodecDecodeSelf(d *codec.Decoder) {
	var s string
	d.MustDecode(&s)
	*m = 0
	switch s {
	case "*":
		*m = All
	case "none", "":
	default:
		for _, name := range strings.Split(s, "|") {
			if l, ok := Parse(name); ok {
				*m |= l.Bit()
			}
		}
	}
}

// MarshalYAML writes m as its String form.
func (m Mask) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// ParseMask converts a level-filter string to a Mask.
// It fails with errorutil.InvalidLevelSpec if spec is empty, uses an
// unknown operator, or names an unknown level.
//
// ">fatal" is valid and yields the empty mask.
func ParseMask(spec string) (m Mask, err error) {
	if spec == "*" {
		return All, nil
	}
	var op string
	name := spec
	switch {
	case strings.HasPrefix(spec, ">="):
		op, name = ">=", spec[2:]
	case strings.HasPrefix(spec, ">"):
		op, name = ">", spec[1:]
	case strings.HasPrefix(spec, "="):
		op, name = "=", spec[1:]
	}
	l, ok := Parse(name)
	if !ok {
		if spec == "" {
			return 0, errorutil.Newf(errorutil.InvalidLevelSpec, "empty level spec")
		}
		return 0, errorutil.Newf(errorutil.InvalidLevelSpec, "parsing %q: unknown level %q", spec, name)
	}
	// below is every level less severe than l
	below := l.Bit() - 1
	switch op {
	case "=":
		m = l.Bit()
	case ">":
		m = All &^ below &^ l.Bit()
	default:
		m = All &^ below
	}
	return
}

// MustParseMask is like ParseMask but panics on error.
// It is meant for package-level variables and tests.
func MustParseMask(spec string) Mask {
	m, err := ParseMask(spec)
	if err != nil {
		panic(err)
	}
	return m
}
