package config

import "sync"

// Origin identifies the layer that supplied a resolved value.
type Origin string

// Resolution layers in precedence order.
const (
	OriginEnv     Origin = "env"
	OriginFile    Origin = "file"
	OriginDefault Origin = "default"
)

// Entry is one resolved setting as recorded for diagnostics.
type Entry struct {
	Name   string `json:"name" yaml:"name"`
	Value  string `json:"value" yaml:"value"`
	Origin Origin `json:"origin" yaml:"origin"`
}

// Record keeps resolved settings in first-resolution order and guards access
// with a RWMutex. Recording a name again replaces its value in place.
type Record struct {
	mu      sync.RWMutex
	index   map[string]int
	entries []Entry
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{
		index: make(map[string]int),
	}
}

// Put stores the resolved value for name.
func (r *Record) Put(name, value string, origin Origin) {
	entry := Entry{Name: name, Value: value, Origin: origin}

	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.index[name]; ok {
		r.entries[idx] = entry
		return
	}
	r.index[name] = len(r.entries)
	r.entries = append(r.entries, entry)
}

// Get returns the recorded entry for name.
func (r *Record) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.index[name]
	if !ok {
		return Entry{}, false
	}
	return r.entries[idx], true
}

// Entries returns a copy of the recorded entries.
func (r *Record) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
