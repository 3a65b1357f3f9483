// Package testutil holds helpers shared by the tests of the other packages.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

// Now is the instant FixedClock starts at.
var Now = time.Date(2024, time.March, 5, 14, 7, 9, 123456789, time.UTC)

// FixedClock returns a mock clock set to Now.
// It only moves when the test calls Add or Set on it.
func FixedClock(t testing.TB) *clock.Mock {
	t.Helper()
	c := clock.NewMock()
	c.Set(Now)
	return c
}

// WriteFile writes body to name within a temp dir owned by t, and returns its path.
// Leading tabs on every line of body are stripped, so configs can be indented in Go source.
func WriteFile(t testing.TB, name, body string) string {
	t.Helper()
	lines := strings.Split(body, "\n")
	for i := range lines {
		lines[i] = strings.TrimLeft(lines[i], "\t")
	}
	fpath := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(fpath, []byte(strings.Join(lines, "\n")), 0644))
	return fpath
}

// ReadFile returns the contents of fpath, failing t if it cannot be read.
func ReadFile(t testing.TB, fpath string) string {
	t.Helper()
	b, err := os.ReadFile(fpath)
	require.NoError(t, err)
	return string(b)
}

// SyncBuffer is a bytes.Buffer safe for concurrent use.
// It records how many Write calls it received.
type SyncBuffer struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	writes int
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes++
	return b.buf.Write(p)
}

func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Lines returns the written text split on newlines, without the trailing empty line.
func (b *SyncBuffer) Lines() []string {
	s := strings.TrimSuffix(b.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Writes returns the number of Write calls so far.
func (b *SyncBuffer) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

func (b *SyncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
	b.writes = 0
}
