package matching

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/viant/afs/url"
	"github.com/viant/tinypic/matching/option"
)

// Manager decides which files and directories the optimizer visits
type Manager struct {
	options *option.Options
}

// New creates a new matching manager with the given options
func New(opts ...option.Option) *Manager {
	return &Manager{options: option.NewOptions(opts...)}
}

// IsCandidate checks if a file path ends with the configured suffix.
// The path has to be strictly longer than the suffix, the match is case-sensitive.
func (m *Manager) IsCandidate(location string) bool {
	p := normalize(location)
	suffix := m.options.Suffix
	return len(p) > len(suffix) && strings.HasSuffix(p, suffix)
}

// IsEligible checks if a file should be compressed, relative is its path below the traversal root
func (m *Manager) IsEligible(location, relative string, size int) bool {
	return m.IsCandidate(location) && !m.IsExcluded(relative, size)
}

// IsExcludedDir checks if a directory subtree should be skipped.
// Patterns are matched against relative, the directory path below the traversal root.
func (m *Manager) IsExcludedDir(relative string) bool {
	if len(m.options.Exclusions) == 0 {
		return false
	}
	p := strings.TrimSuffix(clean(relative), "/") + "/"
	if p == "/" {
		return false
	}
	for _, pattern := range m.options.Exclusions {
		pattern = strings.TrimSpace(pattern)
		if !strings.HasSuffix(pattern, "/") {
			continue
		}
		if matchDir(p, pattern) {
			return true
		}
	}
	return false
}

// IsExcluded checks if a file path below the traversal root should be excluded
func (m *Manager) IsExcluded(relative string, size int) bool {
	if m.options.MaxFileSize > 0 && size > m.options.MaxFileSize {
		return true
	}
	p := clean(relative)
	for _, pattern := range m.options.Exclusions {
		pattern = strings.TrimSpace(pattern)
		// Skip comments or empty lines
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		if isExcluded(p, pattern) {
			return true
		}
	}
	return false
}

func normalize(location string) string {
	return filepath.ToSlash(url.Path(location))
}

func clean(relative string) string {
	return strings.TrimPrefix(filepath.ToSlash(relative), "/")
}

func isExcluded(p string, pattern string) bool {
	if strings.HasSuffix(pattern, "/") {
		return matchDir(p, pattern)
	}
	pattern = strings.TrimPrefix(pattern, "**/")
	if !strings.Contains(pattern, "/") {
		matched, _ := path.Match(pattern, path.Base(p))
		return matched
	}
	pattern = strings.TrimPrefix(pattern, "/")
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	count := strings.Count(pattern, "/") + 1
	if count > len(segments) {
		return false
	}
	matched, _ := path.Match(pattern, strings.Join(segments[len(segments)-count:], "/"))
	return matched
}

func matchDir(p string, pattern string) bool {
	dir := strings.Trim(strings.TrimPrefix(pattern, "**/"), "/")
	if dir == "" {
		return false
	}
	return strings.HasPrefix(p, dir+"/") || strings.Contains(p, "/"+dir+"/")
}
