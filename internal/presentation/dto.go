package presentation

import (
	"time"

	"github.com/zjrosen/mlagent/internal/registry/application"
	"github.com/zjrosen/mlagent/internal/registry/domain"
)

// AppInfoDTO is the decoded provenance of an artifact.
type AppInfoDTO struct {
	AppID      string `json:"app_id"`
	ResType    string `json:"res_type"`
	ResVersion string `json:"res_version"`
	IsRPK      bool   `json:"is_rpk"`
}

// ModelDTO represents one model version for presentation
type ModelDTO struct {
	Name        string      `json:"name"`
	Version     int         `json:"version"`
	Path        string      `json:"path"`
	Description string      `json:"description,omitempty"`
	Active      bool        `json:"active"`
	AppInfo     *AppInfoDTO `json:"app_info,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// PipelineDTO represents a pipeline for presentation
type PipelineDTO struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ResourceDTO represents one resource path for presentation
type ResourceDTO struct {
	Name        string      `json:"name"`
	Path        string      `json:"path"`
	Description string      `json:"description,omitempty"`
	AppInfo     *AppInfoDTO `json:"app_info,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// KindReportDTO summarizes one descriptor file of a sync
type KindReportDTO struct {
	Kind       string `json:"kind"`
	Path       string `json:"path,omitempty"`
	Found      bool   `json:"found"`
	ParseError string `json:"parse_error,omitempty"`
	Registered int    `json:"registered"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Versions   []int  `json:"versions,omitempty"`
}

// SyncReportDTO summarizes a sync of one package
type SyncReportDTO struct {
	Root       string          `json:"root"`
	AppInfo    AppInfoDTO      `json:"app_info"`
	Registered int             `json:"registered"`
	Kinds      []KindReportDTO `json:"kinds"`
}

// InvalidationDTO lists the names removed for a package
type InvalidationDTO struct {
	AppID     string   `json:"app_id"`
	Models    []string `json:"models"`
	Resources []string `json:"resources"`
}

func fromAppInfo(info domain.AppInfo) AppInfoDTO {
	return AppInfoDTO{
		AppID:      info.AppID,
		ResType:    info.ResType,
		ResVersion: info.ResVersion,
		IsRPK:      info.IsRPK,
	}
}

// provenance decodes a stored blob; artifacts without one have no app_info.
func provenance(info domain.AppInfo) *AppInfoDTO {
	if info.IsZero() {
		return nil
	}
	dto := fromAppInfo(info)
	return &dto
}

// FromDomainModel converts a model version to a DTO
func FromDomainModel(m *domain.Model) ModelDTO {
	return ModelDTO{
		Name:        m.Name,
		Version:     m.Version,
		Path:        m.Path,
		Description: m.Description,
		Active:      m.Active,
		AppInfo:     provenance(m.Provenance()),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomainModels converts a list of model versions
func FromDomainModels(models []*domain.Model) []ModelDTO {
	out := make([]ModelDTO, 0, len(models))
	for _, m := range models {
		out = append(out, FromDomainModel(m))
	}
	return out
}

// FromDomainPipelines converts a list of pipelines
func FromDomainPipelines(pipelines []*domain.Pipeline) []PipelineDTO {
	out := make([]PipelineDTO, 0, len(pipelines))
	for _, p := range pipelines {
		out = append(out, PipelineDTO{Name: p.Name, Description: p.Description, UpdatedAt: p.UpdatedAt})
	}
	return out
}

// FromDomainResources converts a list of resource paths
func FromDomainResources(resources []*domain.Resource) []ResourceDTO {
	out := make([]ResourceDTO, 0, len(resources))
	for _, r := range resources {
		out = append(out, ResourceDTO{
			Name:        r.Name,
			Path:        r.Path,
			Description: r.Description,
			AppInfo:     provenance(r.Provenance()),
			UpdatedAt:   r.UpdatedAt,
		})
	}
	return out
}

// FromReport converts an ingestion report
func FromReport(r application.Report) SyncReportDTO {
	kinds := make([]KindReportDTO, 0, len(r.Kinds))
	for _, k := range r.Kinds {
		dto := KindReportDTO{
			Kind:       string(k.Kind),
			Path:       k.Path,
			Found:      k.Found,
			Registered: k.Registered,
			Skipped:    k.Skipped,
			Failed:     k.Failed,
			Versions:   k.Versions,
		}
		if k.ParseErr != nil {
			dto.ParseError = k.ParseErr.Error()
		}
		kinds = append(kinds, dto)
	}
	return SyncReportDTO{
		Root:       r.Root,
		AppInfo:    fromAppInfo(r.AppInfo),
		Registered: r.Registered(),
		Kinds:      kinds,
	}
}

// FromInvalidation converts an invalidation result
func FromInvalidation(appID string, inv application.Invalidation) InvalidationDTO {
	dto := InvalidationDTO{AppID: appID, Models: inv.Models, Resources: inv.Resources}
	if dto.Models == nil {
		dto.Models = []string{}
	}
	if dto.Resources == nil {
		dto.Resources = []string{}
	}
	return dto
}
