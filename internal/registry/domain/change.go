package domain

// ArtifactKind names the three kinds of registry records.
type ArtifactKind string

const (
	KindModel    ArtifactKind = "model"
	KindPipeline ArtifactKind = "pipeline"
	KindResource ArtifactKind = "resource"
)

// Change describes a registry mutation. It is the payload of the change bus.
// Version is set for model additions and zero otherwise.
type Change struct {
	Kind    ArtifactKind
	Name    string
	Version int
	AppID   string
}
