package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// Format writes v as indented JSON
func (f *Formatter) Format(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatModels formats model versions as JSON
func (f *Formatter) FormatModels(models []ModelDTO) error {
	return f.Format(models)
}

// FormatPipelines formats pipelines as JSON
func (f *Formatter) FormatPipelines(pipelines []PipelineDTO) error {
	return f.Format(pipelines)
}

// FormatResources formats resource paths as JSON
func (f *Formatter) FormatResources(resources []ResourceDTO) error {
	return f.Format(resources)
}

// FormatReport formats a sync report as JSON
func (f *Formatter) FormatReport(report SyncReportDTO) error {
	return f.Format(report)
}
