package pattern

import (
	"strconv"
	"strings"

	"github.com/lestrrat-go/strftime"
)

// Kind tags a Step.
type Kind uint8

const (
	Literal Kind = iota
	Timestamp
	MillisOfSecond
	MicrosOfSecond
	ShortFileName
	FullFileName
	LineNumber
	FunctionName
	Message
	LevelNameUpper
	LevelNameLower
)

var kind2s = [...]string{
	Literal:        "literal",
	Timestamp:      "timestamp",
	MillisOfSecond: "millis",
	MicrosOfSecond: "micros",
	ShortFileName:  "short-file",
	FullFileName:   "full-file",
	LineNumber:     "line",
	FunctionName:   "function",
	Message:        "message",
	LevelNameUpper: "level-upper",
	LevelNameLower: "level-lower",
}

func (k Kind) String() string {
	if int(k) < len(kind2s) {
		return kind2s[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// conversion character for each Kind, as written in a pattern.
// Literal has none.
var kind2c = [...]byte{
	Timestamp:      'd',
	MillisOfSecond: 'S',
	MicrosOfSecond: 'M',
	ShortFileName:  'f',
	FullFileName:   'F',
	LineNumber:     'L',
	FunctionName:   'U',
	Message:        'm',
	LevelNameUpper: 'v',
	LevelNameLower: 'V',
}

// Align is the side a value sits on when padded.
type Align uint8

const (
	Left Align = iota
	Right
)

func (a Align) String() string {
	if a == Right {
		return "right"
	}
	return "left"
}

// Width bounds a rendered value.
// Min pads shorter values. Max (only when Bounded) truncates longer ones.
type Width struct {
	Min     int
	Max     int
	Bounded bool
}

// IsSet reports whether w changes how a value is written at all.
func (w Width) IsSet() bool {
	return w.Bounded || w.Min > 0
}

// target returns the number of bytes a value of length n occupies.
func (w Width) target(n int) int {
	switch {
	case w.Bounded && n > w.Max:
		return w.Max
	case w.Min > 0 && n < w.Min:
		return w.Min
	}
	return n
}

// Step is one compiled render operation.
// Steps are immutable once their Program is compiled.
type Step struct {
	Kind  Kind
	Align Align
	Width Width
	// Text is the literal text of a Literal step,
	// or the strftime sub-pattern of a Timestamp step.
	Text string

	ts *strftime.Strftime
}

// String returns the step as it would be written in a pattern, e.g. "%-6V" or "%d(%F)".
func (s Step) String() string {
	if s.Kind == Literal {
		return strings.ReplaceAll(strings.ReplaceAll(s.Text, "%", "%%"), "\n", "%n")
	}
	var b strings.Builder
	b.WriteByte('%')
	if s.Width.IsSet() && s.Align == Left {
		b.WriteByte('-')
	}
	if s.Width.Min > 0 {
		b.WriteString(strconv.Itoa(s.Width.Min))
	}
	if s.Width.Bounded {
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(s.Width.Max))
	}
	if int(s.Kind) < len(kind2c) {
		b.WriteByte(kind2c[s.Kind])
	}
	if s.Kind == Timestamp {
		b.WriteByte('(')
		b.WriteString(s.Text)
		b.WriteByte(')')
	}
	return b.String()
}

// Program is a compiled pattern: an ordered list of Steps.
//
// A Program is shared by reference between every rule using it, and is safe
// for concurrent use since nothing mutates it after Compile returns.
type Program struct {
	source string
	steps  []Step
}

// Source returns the pattern the program was compiled from.
func (p *Program) Source() string { return p.source }

func (p *Program) String() string { return p.source }

// Len returns the number of steps.
func (p *Program) Len() int { return len(p.steps) }

// Step returns the i'th step.
func (p *Program) Step(i int) Step { return p.steps[i] }

// Steps returns a copy of the steps.
func (p *Program) Steps() []Step {
	return append([]Step(nil), p.steps...)
}
