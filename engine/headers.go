package engine

import (
	"strings"

	"github.com/pkg/errors"
)

// HeaderList is an ordered sequence of request header entries. The
// engine reads from it for the whole duration of a transfer, so the
// caller must not mutate it while [Handle.Perform] runs.
//
// An entry with an empty value is a suppression marker: the header is
// not sent, and any automatic header the engine would add under that
// name (e.g. "Expect") is disabled.
type HeaderList struct {
	entries []headerEntry
}

type headerEntry struct {
	name, value string
}

func NewHeaderList() *HeaderList {
	return &HeaderList{}
}

func (l *HeaderList) Append(name, value string) error {
	if name == "" {
		return errors.New("header name is empty")
	}
	if strings.ContainsAny(name, ":\r\n") || strings.ContainsAny(value, "\r\n") {
		return errors.Errorf("header %q contains forbidden characters", name)
	}

	l.entries = append(l.entries, headerEntry{name: name, value: value})
	return nil
}

func (l *HeaderList) Len() int { return len(l.entries) }

// has reports whether name appears in the list, including as a
// suppression marker.
func (l *HeaderList) has(name string) bool {
	for _, e := range l.entries {
		if strings.EqualFold(e.name, name) {
			return true
		}
	}
	return false
}

// sendable yields the entries that should go on the wire,
// skipping suppression markers.
func (l *HeaderList) sendable() []headerEntry {
	out := make([]headerEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if e.value == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}
