package descriptor

import (
	"os"
	"path/filepath"

	"github.com/zjrosen/mlagent/internal/log"
)

// Locate returns the descriptor path for kind under root and whether a
// regular file exists there. A missing descriptor is logged as a warning.
func Locate(root string, kind Kind) (string, bool) {
	name := Filename(kind)
	if name == "" {
		log.Error(log.CatDescriptor, "Unknown artifact kind", "kind", kind)
		return "", false
	}

	path := filepath.Join(root, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		log.Warn(log.CatDescriptor, "Descriptor not found; packages using the ML service should provide it",
			"kind", kind, "path", path)
		return path, false
	}
	return path, true
}
