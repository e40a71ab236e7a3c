package gmsh

import (
	"bytes"
	"sync"
)

// logRing keeps the most recent log lines. It is safe for concurrent use
// and implements io.Writer so process output can be copied into it.
type logRing struct {
	mu      sync.Mutex
	lines   []string
	next    int
	full    bool
	partial []byte
}

func newLogRing(size int) *logRing {
	if size <= 0 {
		size = DefaultLogLines
	}
	return &logRing{lines: make([]string, size)}
}

func (r *logRing) Add(lines ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range lines {
		r.add(l)
	}
}

func (r *logRing) add(line string) {
	r.lines[r.next] = line
	r.next++
	if r.next == len(r.lines) {
		r.next = 0
		r.full = true
	}
}

// Write adds each complete line in b. A trailing partial line is held
// until its newline arrives.
func (r *logRing) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(b)
	for len(b) > 0 {
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			r.partial = append(r.partial, b...)
			break
		}
		line := append(r.partial, b[:i]...)
		r.partial = r.partial[:0]
		r.add(string(bytes.TrimRight(line, "\r")))
		b = b[i+1:]
	}
	return n, nil
}

// Lines returns the stored lines from oldest to newest.
func (r *logRing) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]string(nil), r.lines[:r.next]...)
	}
	out := make([]string, 0, len(r.lines))
	out = append(out, r.lines[r.next:]...)
	return append(out, r.lines[:r.next]...)
}
