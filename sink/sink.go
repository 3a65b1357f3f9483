// Package sink resolves destination strings into opened output sinks.
//
// A destination is one of:
//
//	>stdout | >stderr      a standard stream
//	| COMMAND              standard input of "/bin/sh -c COMMAND"
//	PATH                   a file opened for append; PATH may hold one
//	                       %d(SUBPATTERN) token, expanded once when resolved
//
// An empty destination means ">stdout".
//
// Each rendered record is handed to a Sink in exactly one Write call.
// By default a Sink serializes its writes with a mutex, so records from
// concurrent goroutines never interleave within one sink; WithLocking(false)
// turns this off.
package sink

import (
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/lestrrat-go/strftime"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/ugorji/go-catlog/errorutil"
)

const (
	Stdout = ">stdout"
	Stderr = ">stderr"
	// Default is the destination used when none is given.
	Default = Stdout
)

// Sink is an opened destination. It is owned by exactly one rule.
type Sink interface {
	io.Writer
	// Close releases the destination. Calling it again is a no-op.
	Close() error
	// Dest returns the destination string it was resolved from.
	Dest() string
}

// Kind tags the variant of a Writer.
type Kind uint8

const (
	Stream Kind = iota
	Pipe
	File
)

func (k Kind) String() string {
	switch k {
	case Stream:
		return "stream"
	case Pipe:
		return "pipe"
	case File:
		return "file"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

type options struct {
	stdout io.Writer
	stderr io.Writer
	clock  clock.Clock
	shell  string
	lock   bool
}

// Option configures Resolve.
type Option func(*options)

// WithStdout sets the writer behind ">stdout", and the standard output of piped commands.
func WithStdout(w io.Writer) Option { return func(o *options) { o.stdout = w } }

// WithStderr sets the writer behind ">stderr", and the standard error of piped commands.
func WithStderr(w io.Writer) Option { return func(o *options) { o.stderr = w } }

// WithClock sets the clock used to expand a %d(...) token in a file path.
func WithClock(c clock.Clock) Option { return func(o *options) { o.clock = c } }

// WithLocking turns the per-sink write lock on or off. It is on by default.
func WithLocking(v bool) Option { return func(o *options) { o.lock = v } }

// WithShell sets the shell which runs piped commands. Default: /bin/sh.
func WithShell(path string) Option { return func(o *options) { o.shell = path } }

func newOptions(opts []Option) (o options) {
	o = options{
		stdout: os.Stdout,
		stderr: os.Stderr,
		shell:  "/bin/sh",
		lock:   true,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	return
}

// Writer is the Sink returned by Resolve.
type Writer struct {
	kind Kind
	dest string
	path string
	w    io.Writer

	f    *os.File
	pipe io.WriteCloser
	cmd  *exec.Cmd

	lock   bool
	mu     sync.Mutex
	closed atomic.Bool
}

// Kind returns the variant of the sink.
func (s *Writer) Kind() Kind { return s.kind }

func (s *Writer) Dest() string { return s.dest }

// Path returns the file path after %d(...) expansion, or "" if not a File sink.
func (s *Writer) Path() string { return s.path }

func (s *Writer) String() string {
	if s.kind == File && s.path != s.dest {
		return s.dest + " (" + s.path + ")"
	}
	return s.dest
}

// Write hands p to the destination in one call.
func (s *Writer) Write(p []byte) (n int, err error) {
	if s.closed.Load() {
		return 0, errorutil.Newf(errorutil.IoError, "writing to closed sink %q", s.dest)
	}
	if s.lock {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	if n, err = s.w.Write(p); err != nil {
		err = errorutil.New(errorutil.IoError, "writing to sink "+strconv.Quote(s.dest), errors.WithStack(err))
	}
	return
}

// Close releases the file or pipe behind s. Standard streams are left open.
// For a Pipe, it waits for the command to exit.
func (s *Writer) Close() (err error) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.kind {
	case File:
		err = s.f.Close()
	case Pipe:
		err = multierr.Append(s.pipe.Close(), s.cmd.Wait())
	}
	if err != nil {
		err = errorutil.New(errorutil.IoError, "closing sink "+strconv.Quote(s.dest), err)
	}
	return
}

// Resolve parses dest and opens the destination it names.
//
// It fails with errorutil.InvalidSink if dest is malformed, and with
// errorutil.IoError if the destination could not be opened.
func Resolve(dest string, opts ...Option) (s *Writer, err error) {
	o := newOptions(opts)
	if dest == "" {
		dest = Default
	}
	s = &Writer{dest: dest, lock: o.lock}
	switch {
	case dest == Stdout:
		s.kind, s.w = Stream, o.stdout
	case dest == Stderr:
		s.kind, s.w = Stream, o.stderr
	case dest[0] == '>':
		return nil, errorutil.Newf(errorutil.InvalidSink, "resolving %q: unknown stream (want %s or %s)", dest, Stdout, Stderr)
	case dest[0] == '|':
		if err = s.openPipe(strings.TrimLeft(dest[1:], " \t"), &o); err != nil {
			return nil, err
		}
	default:
		if s.path, err = ExpandPath(dest, o.clock.Now()); err != nil {
			return nil, err
		}
		if err = s.openFile(); err != nil {
			return nil, err
		}
	}
	return
}

func (s *Writer) openPipe(command string, o *options) (err error) {
	if command == "" {
		return errorutil.Newf(errorutil.InvalidSink, "resolving %q: empty command", s.dest)
	}
	s.kind = Pipe
	s.cmd = exec.Command(o.shell, "-c", command)
	s.cmd.Stdout = o.stdout
	s.cmd.Stderr = o.stderr
	if s.pipe, err = s.cmd.StdinPipe(); err != nil {
		return errorutil.New(errorutil.IoError, "resolving "+strconv.Quote(s.dest), errors.Wrap(err, "creating stdin pipe"))
	}
	if err = s.cmd.Start(); err != nil {
		s.pipe.Close()
		return errorutil.New(errorutil.IoError, "resolving "+strconv.Quote(s.dest), errors.Wrapf(err, "starting %s", o.shell))
	}
	s.w = s.pipe
	return
}

func (s *Writer) openFile() (err error) {
	s.kind = File
	if s.f, err = os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666); err != nil {
		return errorutil.New(errorutil.IoError, "resolving "+strconv.Quote(s.dest), errors.Wrapf(err, "opening %s", s.path))
	}
	s.w = s.f
	return
}

// ExpandPath replaces the single %d(SUBPATTERN) token in path, if any,
// with now formatted by SUBPATTERN.
// Any other use of % fails with errorutil.InvalidSink.
func ExpandPath(path string, now time.Time) (string, error) {
	i := strings.IndexByte(path, '%')
	if i == -1 {
		return path, nil
	}
	if !strings.HasPrefix(path[i:], "%d(") {
		return "", errorutil.Newf(errorutil.InvalidSink, "resolving %q: only a %%d(...) token may follow %% in a file path", path)
	}
	j := strings.IndexByte(path[i+3:], ')')
	if j == -1 {
		return "", errorutil.Newf(errorutil.InvalidSink, "resolving %q: unterminated %%d( token", path)
	}
	sub, rest := path[i+3:i+3+j], path[i+3+j+1:]
	if strings.IndexByte(rest, '%') != -1 {
		return "", errorutil.Newf(errorutil.InvalidSink, "resolving %q: more than one %% token in a file path", path)
	}
	f, err := strftime.New(sub)
	if err != nil {
		return "", errorutil.New(errorutil.InvalidSink, "resolving "+strconv.Quote(path), err)
	}
	expanded := path[:i] + f.FormatString(now) + rest
	if expanded == "" {
		return "", errorutil.Newf(errorutil.InvalidSink, "resolving %q: empty file path", path)
	}
	return expanded, nil
}
