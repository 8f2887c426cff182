package resolve

import (
	"context"
	"errors"
	"fmt"
)

// Source records which step produced a display name.
type Source string

const (
	SourceCache     Source = "cache"
	SourceBackend   Source = "backend"
	SourceHeuristic Source = "heuristic"
	SourceRaw       Source = "raw"
)

// Hints carries locale metadata the enumerator found next to an item.
type Hints struct {
	DisplayName string `json:"display_name,omitempty"` // may be a placeholder like "ms-resource:AppName"
	Publisher   string `json:"publisher,omitempty"`
}

// IsZero reports whether no hint is set.
func (h Hints) IsZero() bool {
	return h.DisplayName == "" && h.Publisher == ""
}

// Candidate is one enumerated item awaiting a display name.
type Candidate struct {
	Key        string `json:"key"`      // cache key: package full name or folder name
	RawName    string `json:"raw_name"` // fallback when nothing better resolves
	Hints      Hints  `json:"hints,omitzero"`
	ExternalID string `json:"external_id,omitempty"` // backend lookup id, e.g. a Steam app id
}

// Result is the resolved name for one Candidate.
type Result struct {
	Key         string `json:"key"`
	DisplayName string `json:"name"`
	Source      Source `json:"source"`
	Err         error  `json:"-"` // backend or candidate error that forced a fallback

	degraded bool
}

// Degraded reports whether the backend failed for this item and a
// fallback name was used instead.
func (r Result) Degraded() bool {
	return r.degraded
}

// Backend looks up a display name for an external id.
// found=false with a nil error means the id is unknown to the backend.
// Errors should wrap ErrNetwork or ErrMalformedResponse.
type Backend interface {
	Lookup(ctx context.Context, externalID string) (name string, found bool, err error)
}

// Cache is the key/name store the pipeline reads and updates.
type Cache interface {
	Get(key string) (string, bool)
	Put(key, name string)
	Persist() error
}

var (
	// ErrNetwork means the backend was unreachable or timed out.
	ErrNetwork = errors.New("backend unreachable")

	// ErrMalformedResponse means the backend answered with something unparseable.
	ErrMalformedResponse = errors.New("malformed backend response")

	// ErrInvalidCandidate means an item had no raw name to fall back on.
	ErrInvalidCandidate = errors.New("candidate has no raw name")

	// ErrPersist is matched by PersistError.
	ErrPersist = errors.New("name cache not saved")
)

// PersistError is returned alongside a complete Batch when the final
// cache write failed. The batch results are still valid.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%v: %v", ErrPersist, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{ErrPersist, e.Err}
}
