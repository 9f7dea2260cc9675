package filesystem

import (
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
)

// UnknownVolume labels paths outside every configured volume.
const UnknownVolume = "unknown"

// Volumes names the directory trees the server reads from, for metric labels.
// The longest matching root wins.
type Volumes struct {
	roots []volumeRoot
}

type volumeRoot struct {
	dir  string // absolute, with trailing separator
	name string
}

// NewVolumes builds Volumes from name → directory.
func NewVolumes(dirs map[string]string) *Volumes {
	roots := make([]volumeRoot, 0, len(dirs))
	for name, dir := range dirs {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		roots = append(roots, volumeRoot{dir: strings.TrimSuffix(dir, "/") + "/", name: name})
	}
	slices.SortFunc(roots, func(a, b volumeRoot) int {
		return len(b.dir) - len(a.dir)
	})
	return &Volumes{roots: roots}
}

// Name returns the volume containing path, or UnknownVolume.
func (v *Volumes) Name(path string) string {
	if v == nil {
		return UnknownVolume
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return UnknownVolume
	}
	abs += "/"
	for _, r := range v.roots {
		if strings.HasPrefix(abs, r.dir) {
			return r.name
		}
	}
	return UnknownVolume
}

var defaultVolumes atomic.Pointer[Volumes]

// SetDefaultVolumes sets the Volumes used by policies that have none.
func SetDefaultVolumes(v *Volumes) {
	defaultVolumes.Store(v)
}
