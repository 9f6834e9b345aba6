package domain

import (
	"encoding/json"
	"time"
)

// Label is an issue label. Tracker payloads carry labels either as plain
// strings or as objects with a "name" field; both forms decode into Label
// so nothing downstream has to care.
type Label struct {
	Name string
}

func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		l.Name = s
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	l.Name = obj.Name
	return nil
}

func (l Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name string `json:"name"`
	}{l.Name})
}

// Issue is one issue-tracker record, already materialized by the fetch
// layer. ClosedAt is the zero time for issues that are still open or whose
// close timestamp failed to parse.
type Issue struct {
	Number    int
	Title     string
	Body      string
	State     string // "open" or "closed"
	Labels    []Label
	CreatedAt time.Time
	ClosedAt  time.Time
}

// LabelNames returns the plain label names, skipping empties.
func (i Issue) LabelNames() []string {
	var names []string
	for _, l := range i.Labels {
		if l.Name != "" {
			names = append(names, l.Name)
		}
	}
	return names
}

// Open reports whether the issue is currently open.
func (i Issue) Open() bool {
	return i.State != "closed"
}
