package pattern

import (
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/lestrrat-go/strftime"

	"github.com/ugorji/go-catlog/errorutil"
	"github.com/ugorji/go-catlog/ioutil"
	"github.com/ugorji/go-catlog/level"
)

// Record is what a Program renders: one log call's data.
type Record struct {
	// File is the full source path, as the caller reported it.
	File string
	Func string
	Line int
	// LineStr is Line already rendered as decimal. If empty, it is computed from Line.
	LineStr string
	Level   level.Level
	Message string
}

// NewRecord returns a Record with LineStr filled in.
func NewRecord(lvl level.Level, file, fn string, line int, msg string) Record {
	return Record{
		File:    file,
		Func:    fn,
		Line:    line,
		LineStr: strconv.Itoa(line),
		Level:   lvl,
		Message: msg,
	}
}

// Renderer runs Programs against Records, reading the time from its clock.
type Renderer struct {
	clock clock.Clock
}

// NewRenderer returns a Renderer reading time from c. A nil c means the wall clock.
func NewRenderer(c clock.Clock) *Renderer {
	if c == nil {
		c = clock.New()
	}
	return &Renderer{clock: c}
}

// Clock returns the clock the renderer reads from.
func (r *Renderer) Clock() clock.Clock { return r.clock }

// Render appends rec, as laid out by p, to b.
// The clock is read once, so every time field of a record agrees.
func (r *Renderer) Render(b *ioutil.Buffer, p *Program, rec *Record) error {
	return p.RenderAt(b, rec, r.clock.Now())
}

// RenderAt appends rec, as laid out by p at time now, to b.
//
// It fails with errorutil.RecordTooLong if b fills up, in which case b holds a
// prefix of the record and should be discarded.
func (p *Program) RenderAt(b *ioutil.Buffer, rec *Record, now time.Time) (err error) {
	for i := range p.steps {
		if err = p.steps[i].render(b, rec, now); err != nil {
			return
		}
	}
	return
}

// RenderString renders rec at now into a buffer of the given size, and returns it.
func (p *Program) RenderString(rec *Record, now time.Time, size int) (string, error) {
	b := ioutil.NewBuffer(size)
	if err := p.RenderAt(b, rec, now); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Step) render(b *ioutil.Buffer, rec *Record, now time.Time) (err error) {
	var v string
	switch s.Kind {
	case Literal:
		v = s.Text
	case Timestamp:
		if s.ts != nil {
			v = s.ts.FormatString(now)
		} else if v, err = strftime.Format(s.Text, now); err != nil {
			return errorutil.New(errorutil.InvalidPattern, "rendering timestamp "+strconv.Quote(s.Text), err)
		}
	case MillisOfSecond:
		return writeFraction(b, now.Nanosecond()/int(time.Millisecond), 3)
	case MicrosOfSecond:
		return writeFraction(b, now.Nanosecond()/int(time.Microsecond), 6)
	case ShortFileName:
		v = rec.File
		if j := strings.LastIndexByte(v, '/'); j != -1 {
			v = v[j+1:]
		}
	case FullFileName:
		v = rec.File
	case LineNumber:
		if v = rec.LineStr; v == "" {
			v = strconv.Itoa(rec.Line)
		}
	case FunctionName:
		v = rec.Func
	case Message:
		v = rec.Message
	case LevelNameUpper:
		v = rec.Level.Upper()
	case LevelNameLower:
		v = rec.Level.String()
	}
	return s.write(b, v)
}

// write appends v, padded or truncated to the step's width.
func (s *Step) write(b *ioutil.Buffer, v string) (err error) {
	if !s.Width.IsSet() {
		_, err = b.WriteString(v)
		return
	}
	w := s.Width.target(len(v))
	if w <= len(v) {
		_, err = b.WriteString(v[:w])
		return
	}
	if s.Align == Right {
		if err = b.Pad(w - len(v)); err == nil {
			_, err = b.WriteString(v)
		}
		return
	}
	if _, err = b.WriteString(v); err == nil {
		err = b.Pad(w - len(v))
	}
	return
}

// writeFraction writes v zero-padded to exactly digits characters.
func writeFraction(b *ioutil.Buffer, v, digits int) error {
	var a [6]byte
	for i := digits - 1; i >= 0; i-- {
		a[i] = byte('0' + v%10)
		v /= 10
	}
	_, err := b.Write(a[:digits])
	return err
}
