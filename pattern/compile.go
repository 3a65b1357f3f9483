// Package pattern compiles layout patterns into Programs, and renders log
// Records through them.
//
// A pattern is literal text interspersed with conversions:
//
//	%d(SUB)  timestamp, SUB being a strftime pattern e.g. %d(%Y-%m-%d %H:%M:%S)
//	%S %M    milliseconds (3 digits) or microseconds (6 digits) of the second
//	%f %F    short (base name) or full source file name
//	%L %U    line number, function name
//	%m       message
//	%v %V    level name, upper or lower case
//	%n %%    newline, percent sign
//
// A conversion may carry a width between the % and its character: an optional
// "-" (left-align), a minimum width and a "." followed by a maximum width,
// e.g. %-6V or %.3f. Width is ignored on %n, %%, %S and %M.
package pattern

import (
	"strconv"
	"strings"

	"github.com/lestrrat-go/strftime"

	"github.com/ugorji/go-catlog/errorutil"
)

// maxWidth bounds the digits of a width. No record buffer is anywhere near it.
const maxWidth = 1 << 16

// token is what scan hands out for each step. Both compile passes see
// exactly the same tokens.
type token struct {
	kind  Kind
	align Align
	width Width
	text  string
}

type scanner struct {
	pattern string
	i       int
}

func (x *scanner) fail(start int, format string, params ...interface{}) error {
	e := errorutil.Newf(errorutil.InvalidPattern, format, params...)
	e.Action = "compiling " + strconv.Quote(x.pattern) + " at offset " + strconv.Itoa(start) + ": " + e.Action
	return e
}

// digits consumes a run of decimal digits, returning the value and whether any was seen.
func (x *scanner) digits(start int) (v int, seen bool, err error) {
	for ; x.i < len(x.pattern); x.i++ {
		c := x.pattern[x.i]
		if c < '0' || c > '9' {
			break
		}
		seen = true
		if v = v*10 + int(c-'0'); v > maxWidth {
			return 0, true, x.fail(start, "width exceeds %d", maxWidth)
		}
	}
	return
}

// scan walks the pattern left to right, calling emit once per step.
// It stops at the first error, either its own or one returned by emit.
//
// Grammar:
//
//	pattern    = { text | "%%" | conversion }
//	conversion = "%" [ "-" ] [ min ] [ "." [ max ] ] conv
//	conv       = "d(" subpattern ")" | "f" | "F" | "L" | "U" | "m" | "n" | "v" | "V" | "S" | "M"
func scan(pattern string, emit func(tok token) error) (err error) {
	x := scanner{pattern: pattern}
	for x.i < len(pattern) {
		if pattern[x.i] != '%' {
			j := strings.IndexByte(pattern[x.i:], '%')
			if j == -1 {
				j = len(pattern)
			} else {
				j += x.i
			}
			if err = emit(token{kind: Literal, text: pattern[x.i:j]}); err != nil {
				return
			}
			x.i = j
			continue
		}
		start := x.i
		x.i++
		if x.i < len(pattern) && pattern[x.i] == '%' {
			x.i++
			if err = emit(token{kind: Literal, text: "%"}); err != nil {
				return
			}
			continue
		}
		var tok token
		if x.i < len(pattern) && pattern[x.i] == '-' {
			tok.align = Left
			x.i++
		}
		if tok.width.Min, _, err = x.digits(start); err != nil {
			return
		}
		if x.i < len(pattern) && pattern[x.i] == '.' {
			x.i++
			tok.width.Bounded = true
			if tok.width.Max, _, err = x.digits(start); err != nil {
				return
			}
		}
		if x.i == len(pattern) {
			return x.fail(start, "missing conversion character")
		}
		c := pattern[x.i]
		x.i++
		switch c {
		case 'd':
			if x.i == len(pattern) || pattern[x.i] != '(' {
				return x.fail(start, "%%d requires a (sub-pattern)")
			}
			j := strings.IndexByte(pattern[x.i+1:], ')')
			if j == -1 {
				return x.fail(start, "unterminated %%d( group")
			}
			tok.kind = Timestamp
			tok.text = pattern[x.i+1 : x.i+1+j]
			x.i += j + 2
		case 'f':
			tok.kind = ShortFileName
		case 'F':
			tok.kind = FullFileName
		case 'L':
			tok.kind = LineNumber
		case 'U':
			tok.kind = FunctionName
		case 'm':
			tok.kind = Message
		case 'v':
			tok.kind = LevelNameUpper
		case 'V':
			tok.kind = LevelNameLower
		case 'n':
			tok = token{kind: Literal, text: "\n"}
		case 'S':
			tok = token{kind: MillisOfSecond}
		case 'M':
			tok = token{kind: MicrosOfSecond}
		default:
			return x.fail(start, "unknown conversion character %q", c)
		}
		if err = emit(tok); err != nil {
			return
		}
	}
	return
}

// Validate checks pattern and returns the number of steps it compiles to.
// It fails with errorutil.InvalidPattern.
func Validate(pattern string) (n int, err error) {
	err = scan(pattern, func(tok token) error {
		if tok.kind == Timestamp {
			if _, err := strftime.New(tok.text); err != nil {
				return errorutil.New(errorutil.InvalidPattern,
					"compiling "+strconv.Quote(pattern)+": timestamp sub-pattern "+strconv.Quote(tok.text), err)
			}
		}
		n++
		return nil
	})
	if err != nil {
		n = 0
	}
	return
}

// Compile validates pattern then compiles it into a Program.
//
// The first pass counts the steps, so the second fills a step list of
// exactly that size. On failure, no Program is returned.
func Compile(pattern string) (p *Program, err error) {
	n, err := Validate(pattern)
	if err != nil {
		return
	}
	steps := make([]Step, 0, n)
	err = scan(pattern, func(tok token) (err error) {
		s := Step{Kind: tok.kind, Align: tok.align, Width: tok.width, Text: tok.text}
		if s.Kind == Timestamp {
			if s.ts, err = strftime.New(s.Text); err != nil {
				return errorutil.New(errorutil.InvalidPattern, "compiling "+strconv.Quote(pattern), err)
			}
		}
		steps = append(steps, s)
		return
	})
	if err != nil {
		return nil, err
	}
	return &Program{source: pattern, steps: steps}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Program {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}
