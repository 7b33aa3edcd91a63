package domain

import "time"

// Model is one registered version of a model.
type Model struct {
	Name        string
	Version     int
	Path        string
	Description string
	AppInfo     string // serialized AppInfo, empty when added outside a package event
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Provenance decodes the stored app info. Malformed blobs decode to a zero AppInfo.
func (m Model) Provenance() AppInfo {
	info, _ := ParseAppInfo(m.AppInfo)
	return info
}

// Pipeline is a named pipeline description.
type Pipeline struct {
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Resource is one path registered under a resource name.
type Resource struct {
	Name        string
	Path        string
	Description string
	AppInfo     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Provenance decodes the stored app info. Malformed blobs decode to a zero AppInfo.
func (r Resource) Provenance() AppInfo {
	info, _ := ParseAppInfo(r.AppInfo)
	return info
}
