package sqlite

import (
	"time"

	"github.com/zjrosen/mlagent/internal/registry/domain"
)

// ModelRow represents a row of the models table.
// Timestamps are stored as Unix seconds.
type ModelRow struct {
	Name        string
	Version     int
	Path        string
	Description string
	AppInfo     string
	Active      bool
	CreatedAt   int64
	UpdatedAt   int64
}

func (m *ModelRow) toDomain() *domain.Model {
	return &domain.Model{
		Name:        m.Name,
		Version:     m.Version,
		Path:        m.Path,
		Description: m.Description,
		AppInfo:     m.AppInfo,
		Active:      m.Active,
		CreatedAt:   time.Unix(m.CreatedAt, 0),
		UpdatedAt:   time.Unix(m.UpdatedAt, 0),
	}
}

// PipelineRow represents a row of the pipelines table.
type PipelineRow struct {
	Name        string
	Description string
	CreatedAt   int64
	UpdatedAt   int64
}

func (p *PipelineRow) toDomain() *domain.Pipeline {
	return &domain.Pipeline{
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   time.Unix(p.CreatedAt, 0),
		UpdatedAt:   time.Unix(p.UpdatedAt, 0),
	}
}

// ResourceRow represents a row of the resources table.
type ResourceRow struct {
	Name        string
	Path        string
	Description string
	AppInfo     string
	CreatedAt   int64
	UpdatedAt   int64
}

func (r *ResourceRow) toDomain() *domain.Resource {
	return &domain.Resource{
		Name:        r.Name,
		Path:        r.Path,
		Description: r.Description,
		AppInfo:     r.AppInfo,
		CreatedAt:   time.Unix(r.CreatedAt, 0),
		UpdatedAt:   time.Unix(r.UpdatedAt, 0),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

// appIDMatch selects rows whose app_info blob names the given app id.
// Rows with empty or malformed blobs never match.
const appIDMatch = `CASE WHEN json_valid(app_info) THEN json_extract(app_info, '$.app_id') END = ?`
