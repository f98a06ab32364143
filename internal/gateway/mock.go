package gateway

import (
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MockLibrary locates the local images used when no camera is reachable:
// still snapshots in SnapshotDir and the ordered frame sequence in FramesDir.
// Directories are listed on every use rather than cached, so dropping new
// files in takes effect without a restart.
type MockLibrary struct {
	SnapshotDir string
	FramesDir   string

	// Pick selects an index in [0,n) for random snapshot choice. Tests
	// inject a deterministic function; nil means math/rand.
	Pick func(n int) int
}

// NewMockLibrary returns a MockLibrary over the two directories.
func NewMockLibrary(snapshotDir, framesDir string) *MockLibrary {
	return &MockLibrary{SnapshotDir: snapshotDir, FramesDir: framesDir}
}

// RandomSnapshot returns the path and content type of a randomly chosen image
// from the snapshot directory. ok is false when the directory is missing or
// holds no images.
func (l *MockLibrary) RandomSnapshot() (path, contentType string, ok bool) {
	files := listImages(l.SnapshotDir)
	if len(files) == 0 {
		return "", "", false
	}
	pick := l.Pick
	if pick == nil {
		pick = rand.Intn
	}
	name := files[pick(len(files))]
	return filepath.Join(l.SnapshotDir, name), contentTypeForFile(name), true
}

// Frames returns the full paths of the mock MJPEG frames, sorted by name.
func (l *MockLibrary) Frames() []string {
	files := listImages(l.FramesDir)
	paths := make([]string, len(files))
	for i, name := range files {
		paths[i] = filepath.Join(l.FramesDir, name)
	}
	return paths
}

// listImages lists the image files in dir, sorted by name. A missing or
// unreadable directory yields nil.
func listImages(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !isImageFile(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func contentTypeForFile(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
