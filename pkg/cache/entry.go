package cache

import (
	"time"
)

// Entry represents a cached response.
type Entry struct {
	// Content is the response body
	Content []byte `json:"content"`

	// CreatedAt is when the entry was stored
	CreatedAt time.Time `json:"created_at"`

	// ETag for conditional requests (If-None-Match)
	ETag string `json:"etag,omitempty"`

	// LastModified is the raw Last-Modified header value (If-Modified-Since)
	LastModified string `json:"last_modified,omitempty"`

	// Tags label the entry for bulk invalidation
	Tags []string `json:"tags,omitempty"`

	// Size is the byte length of Content at insertion time
	Size int `json:"size"`
}

// Age returns how long ago the entry was stored, relative to now.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// IsExpired returns true if the entry is older than maxAge.
func (e *Entry) IsExpired(now time.Time, maxAge time.Duration) bool {
	return e.Age(now) > maxAge
}

// HasTag reports whether the entry carries the given tag.
func (e *Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasValidators returns true if a conditional request can be made for this entry.
func (e *Entry) HasValidators() bool {
	return e.ETag != "" || e.LastModified != ""
}

// uniqueTags drops duplicates while keeping first-seen order.
func uniqueTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
