// Package descriptor finds, parses and validates the JSON descriptor files a
// resource package ships for each artifact kind.
package descriptor

import "github.com/zjrosen/mlagent/internal/registry/domain"

// Kind is the artifact kind a descriptor file describes.
type Kind = domain.ArtifactKind

const (
	KindModel    = domain.KindModel
	KindPipeline = domain.KindPipeline
	KindResource = domain.KindResource
)

// Kinds returns every kind in processing order: models, then pipelines, then resources.
func Kinds() []Kind {
	return []Kind{KindModel, KindPipeline, KindResource}
}

// Filename returns the descriptor file name for kind, or "" for an unknown kind.
func Filename(kind Kind) string {
	switch kind {
	case KindModel:
		return "model_description.json"
	case KindPipeline:
		return "pipeline_description.json"
	case KindResource:
		return "resource_description.json"
	default:
		return ""
	}
}

// requiredFields lists the fields each kind's schema requires, in reporting order.
func requiredFields(kind Kind) []string {
	switch kind {
	case KindModel:
		return []string{"name", "model"}
	case KindPipeline:
		return []string{"name", "description"}
	case KindResource:
		return []string{"name", "path"}
	default:
		return nil
	}
}
