// Package pkgmgr connects package-manager lifecycle events to the registry.
// A Source delivers events, a Subscription feeds them one at a time to the
// Router, and the Router decides which registry work each event triggers.
package pkgmgr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EventKind is the package operation an event reports on.
type EventKind string

const (
	KindInstall      EventKind = "install"
	KindUninstall    EventKind = "uninstall"
	KindUpdate       EventKind = "update"
	KindResourceCopy EventKind = "resource_copy"
	KindUnknown      EventKind = "unknown"
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	return string(k)
}

// IsValid returns true if the kind is a recognized event kind.
func (k EventKind) IsValid() bool {
	switch k {
	case KindInstall, KindUninstall, KindUpdate, KindResourceCopy, KindUnknown:
		return true
	default:
		return false
	}
}

// UnmarshalText accepts any case. Unrecognized kinds decode as KindUnknown.
func (k *EventKind) UnmarshalText(text []byte) error {
	*k = EventKind(strings.ToLower(strings.TrimSpace(string(text))))
	if !k.IsValid() {
		*k = KindUnknown
	}
	return nil
}

// EventPhase is how far the operation has progressed.
type EventPhase string

const (
	PhaseStarted    EventPhase = "started"
	PhaseProcessing EventPhase = "processing"
	PhaseCompleted  EventPhase = "completed"
	PhaseFailed     EventPhase = "failed"
	PhaseUnknown    EventPhase = "unknown"
)

// String returns the string representation of the event phase.
func (p EventPhase) String() string {
	return string(p)
}

// IsValid returns true if the phase is a recognized event phase.
func (p EventPhase) IsValid() bool {
	switch p {
	case PhaseStarted, PhaseProcessing, PhaseCompleted, PhaseFailed, PhaseUnknown:
		return true
	default:
		return false
	}
}

// UnmarshalText accepts any case. Unrecognized phases decode as PhaseUnknown.
func (p *EventPhase) UnmarshalText(text []byte) error {
	*p = EventPhase(strings.ToLower(strings.TrimSpace(string(text))))
	if !p.IsValid() {
		*p = PhaseUnknown
	}
	return nil
}

// LifecycleEvent is one notification from the package manager.
// Progress is advisory and Error is an optional error code.
type LifecycleEvent struct {
	ID        string     `json:"id"`
	Category  string     `json:"category"`
	PackageID string     `json:"package_id"`
	Kind      EventKind  `json:"kind"`
	Phase     EventPhase `json:"phase"`
	Progress  int        `json:"progress"`
	Error     string     `json:"error,omitempty"`
}

// Event decoding errors.
var (
	ErrMissingPackageID = errors.New("event has no package_id")
	ErrInvalidProgress  = errors.New("event progress out of range")
)

// NewEvent builds an event with a fresh ID.
func NewEvent(category, packageID string, kind EventKind, phase EventPhase) LifecycleEvent {
	return LifecycleEvent{
		ID:        uuid.NewString(),
		Category:  category,
		PackageID: packageID,
		Kind:      kind,
		Phase:     phase,
	}
}

// DecodeEvent parses the JSON wire form of an event. Missing kind or phase
// decode as unknown and a missing id is generated.
func DecodeEvent(data []byte) (LifecycleEvent, error) {
	var ev LifecycleEvent
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&ev); err != nil {
		return LifecycleEvent{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if ev.PackageID == "" {
		return LifecycleEvent{}, ErrMissingPackageID
	}
	if ev.Progress < 0 || ev.Progress > 100 {
		return LifecycleEvent{}, fmt.Errorf("%w: %d", ErrInvalidProgress, ev.Progress)
	}
	if ev.Kind == "" {
		ev.Kind = KindUnknown
	}
	if ev.Phase == "" {
		ev.Phase = PhaseUnknown
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	return ev, nil
}

// Encode returns the JSON wire form of ev.
func (ev LifecycleEvent) Encode() ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return data, nil
}

// String summarizes the event for logs.
func (ev LifecycleEvent) String() string {
	return fmt.Sprintf("%s %s/%s (%s)", ev.PackageID, ev.Kind, ev.Phase, ev.Category)
}
