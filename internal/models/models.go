package models

import (
	"strings"
	"time"
)

// Record is a single quote entry
type Record struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Normalize returns the record with surrounding whitespace trimmed from both fields
func (r Record) Normalize() Record {
	return Record{
		Text:     strings.TrimSpace(r.Text),
		Category: strings.TrimSpace(r.Category),
	}
}

// Valid reports whether both text and category are non-empty
func (r Record) Valid() bool {
	return strings.TrimSpace(r.Text) != "" && strings.TrimSpace(r.Category) != ""
}

// Collection is the ordered set of records held by a client.
// Insertion order is preserved and duplicates are allowed.
type Collection []Record

// Clone returns a copy that does not share backing storage with c
func (c Collection) Clone() Collection {
	if c == nil {
		return Collection{}
	}
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// Equal reports element-wise, order-preserving equality
func (c Collection) Equal(other Collection) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// SyncStatus is the status surfaced to the display on every engine transition
type SyncStatus string

const (
	SyncIdle     SyncStatus = "idle"
	SyncSyncing  SyncStatus = "syncing"
	SyncConflict SyncStatus = "conflict"
	SyncResolved SyncStatus = "resolved"
	SyncError    SyncStatus = "error"
)

// Severity tags a notification for styling
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a status message emitted by the sync engine and resolver
type Notification struct {
	Status   SyncStatus `json:"status"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	At       time.Time  `json:"at"`
}

// Decision is a user's answer to a sync conflict
type Decision string

const (
	KeepLocal  Decision = "keep-local"
	KeepRemote Decision = "keep-remote"
)

// ParseDecision accepts the canonical names plus the short forms "local" and "remote"
func ParseDecision(s string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep-local", "local":
		return KeepLocal, true
	case "keep-remote", "remote", "server":
		return KeepRemote, true
	}
	return "", false
}

// Policy selects how divergence between local and remote is handled
type Policy string

const (
	PolicyServer Policy = "server" // remote always wins, no prompt
	PolicyManual Policy = "manual" // wait for an explicit Decision
)

// ParsePolicy returns the policy for s, reporting false when unknown
func ParsePolicy(s string) (Policy, bool) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyServer:
		return PolicyServer, true
	case PolicyManual:
		return PolicyManual, true
	}
	return "", false
}

// CompareMode selects how local and remote snapshots are tested for equality
type CompareMode string

const (
	CompareBytes      CompareMode = "bytes"
	CompareStructural CompareMode = "structural"
)

// ParseCompareMode returns the compare mode for s, reporting false when unknown
func ParseCompareMode(s string) (CompareMode, bool) {
	switch CompareMode(strings.ToLower(strings.TrimSpace(s))) {
	case CompareBytes:
		return CompareBytes, true
	case CompareStructural:
		return CompareStructural, true
	}
	return "", false
}
