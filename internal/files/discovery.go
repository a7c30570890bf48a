package files

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"probecli/internal/config"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds probe result files on disk
type Discovery struct {
	basePath   string
	extensions []string
}

// NewDiscovery creates a discovery rooted at basePath. Relative directories are
// resolved against it. With no extensions the default probe extensions apply.
func NewDiscovery(basePath string, extensions []string) *Discovery {
	if len(extensions) == 0 {
		extensions = config.ProbeFileExtensions
	}
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return &Discovery{basePath: basePath, extensions: normalized}
}

// IsProbeFile reports whether name carries an accepted extension
func (d *Discovery) IsProbeFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range d.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// FindProbeFiles lists the probe files directly inside dir, sorted by name
func (d *Discovery) FindProbeFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !d.IsProbeFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, newFileInfo(filepath.Join(fullPath, entry.Name()), info))
	}

	sortByName(files)
	return files, nil
}

// Collect expands a mix of files and directories into probe files. Directories
// are walked when recursive is set, otherwise only their top level is read.
// Explicit files must carry an accepted extension. Paths seen twice are kept once.
func (d *Discovery) Collect(paths []string, recursive bool) ([]FileInfo, error) {
	seen := make(map[string]bool)
	var result []FileInfo

	add := func(found []FileInfo) {
		for _, f := range found {
			key, err := filepath.Abs(f.Path)
			if err != nil {
				key = f.Path
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			result = append(result, f)
		}
	}

	for _, p := range paths {
		fullPath := d.resolve(p)
		info, err := os.Stat(fullPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", fullPath, err)
		}

		switch {
		case !info.IsDir():
			if !d.IsProbeFile(info.Name()) {
				return nil, fmt.Errorf("%s: unsupported file type, expected one of %s",
					fullPath, strings.Join(d.extensions, ", "))
			}
			add([]FileInfo{newFileInfo(fullPath, info)})
		case recursive:
			found, err := d.walk(fullPath)
			if err != nil {
				return nil, err
			}
			add(found)
		default:
			found, err := d.FindProbeFiles(fullPath)
			if err != nil {
				return nil, err
			}
			add(found)
		}
	}

	return result, nil
}

func (d *Discovery) walk(root string) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !d.IsProbeFile(entry.Name()) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		files = append(files, newFileInfo(path, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func (d *Discovery) resolve(p string) string {
	if filepath.IsAbs(p) || d.basePath == "" {
		return p
	}
	return filepath.Join(d.basePath, p)
}

func newFileInfo(path string, info fs.FileInfo) FileInfo {
	return FileInfo{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

func sortByName(files []FileInfo) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}
