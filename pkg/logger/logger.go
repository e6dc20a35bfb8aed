// Package logger keeps a small in-memory log that can be dumped over the
// serial link. There is a single central log for the whole firmware.
//
// The log is a fixed ring so it never grows on the heap. It must not be used
// from the scanline interrupt.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// MaxEntries is the capacity of the central log.
const MaxEntries = 64

// Entry is a single line of the log.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	repeated  int
}

func (e *Entry) String() string {
	s := strings.Builder{}
	s.WriteString(e.Tag)
	s.WriteString(": ")
	s.WriteString(e.Detail)
	if e.repeated > 0 {
		fmt.Fprintf(&s, " (repeat x%d)", e.repeated+1)
	}
	s.WriteString("\n")
	return s.String()
}

type logger struct {
	mu      sync.Mutex
	entries [MaxEntries]Entry
	head    int // index of the oldest entry
	count   int
}

var central = &logger{}

// Log adds an entry to the central log. An entry identical to the previous
// one is collapsed into a repeat count.
func Log(tag, detail string) {
	central.log(tag, detail)
}

// Logf adds a formatted entry to the central log.
func Logf(tag, format string, args ...interface{}) {
	central.log(tag, fmt.Sprintf(format, args...))
}

// Clear removes all entries.
func Clear() {
	central.clear()
}

// Write writes every entry, oldest first.
func Write(output io.Writer) {
	central.tail(output, MaxEntries)
}

// Tail writes the last number entries.
func Tail(output io.Writer, number int) {
	central.tail(output, number)
}

// Len returns the number of entries.
func Len() int {
	central.mu.Lock()
	defer central.mu.Unlock()
	return central.count
}

func (l *logger) log(tag, detail string) {
	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count > 0 {
		last := &l.entries[(l.head+l.count-1)%MaxEntries]
		if last.Tag == tag && last.Detail == detail {
			last.repeated++
			last.Timestamp = time.Now()
			return
		}
	}

	e := Entry{Timestamp: time.Now(), Tag: tag, Detail: detail}
	if l.count < MaxEntries {
		l.entries[(l.head+l.count)%MaxEntries] = e
		l.count++
		return
	}

	// full, overwrite the oldest
	l.entries[l.head] = e
	l.head = (l.head + 1) % MaxEntries
}

func (l *logger) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = [MaxEntries]Entry{}
	l.head = 0
	l.count = 0
}

func (l *logger) tail(output io.Writer, number int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if number > l.count {
		number = l.count
	}
	if number <= 0 {
		return
	}

	for i := l.count - number; i < l.count; i++ {
		e := &l.entries[(l.head+i)%MaxEntries]
		io.WriteString(output, e.String())
	}
}
