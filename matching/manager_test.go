package matching

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/tinypic/matching/option"
)

func TestManager_IsCandidate(t *testing.T) {
	m := New()
	tests := []struct {
		path      string
		candidate bool
	}{
		{path: "file://localhost/tmp/a/logo.png", candidate: true},
		{path: "s3://bucket/dir/icon.png", candidate: true},
		{path: "file://localhost/tmp/a/logo.PNG", candidate: false},
		{path: "file://localhost/tmp/a/logo.png.bak", candidate: false},
		{path: "file://localhost/tmp/a/logo.jpg", candidate: false},
		{path: "file://localhost/tmp/a/png", candidate: false},
		{path: "file://localhost/tmp/a/.tinypic.json", candidate: false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.candidate, m.IsCandidate(tc.path), tc.path)
	}
}

func TestManager_CustomSuffix(t *testing.T) {
	m := New(option.WithSuffix(".webp"))
	assert.True(t, m.IsCandidate("file://localhost/tmp/a.webp"))
	assert.False(t, m.IsCandidate("file://localhost/tmp/a.png"))
}

func TestManager_IsExcluded_Table(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		size     int
		options  []option.Option
		excluded bool
	}{
		{
			name:     "no patterns",
			path:     "a/logo.png",
			size:     1,
			excluded: false,
		},
		{
			name:     "basename wildcard matches",
			path:     "a/b/logo.min.png",
			size:     1,
			options:  []option.Option{option.WithExclusionPatterns("*.min.png")},
			excluded: true,
		},
		{
			name:     "leading **/ matches basename",
			path:     "dir/sprite.png",
			size:     1,
			options:  []option.Option{option.WithExclusionPatterns("**/sprite.png")},
			excluded: true,
		},
		{
			name:     "directory pattern with slash",
			path:     "app/node_modules/pkg/icon.png",
			size:     1,
			options:  []option.Option{option.WithExclusionPatterns("node_modules/")},
			excluded: true,
		},
		{
			name:     "directory pattern does not match substring",
			path:     "app/my_node_modules/icon.png",
			size:     1,
			options:  []option.Option{option.WithExclusionPatterns("node_modules/")},
			excluded: false,
		},
		{
			name:     "path pattern matches tail",
			path:     "site/docs/shot.png",
			size:     1,
			options:  []option.Option{option.WithExclusionPatterns("docs/*.png")},
			excluded: true,
		},
		{
			name:     "path pattern does not match other dir",
			path:     "site/img/shot.png",
			size:     1,
			options:  []option.Option{option.WithExclusionPatterns("docs/*.png")},
			excluded: false,
		},
		{
			name:     "max size excludes",
			path:     "big.png",
			size:     101,
			options:  []option.Option{option.WithMaxFileSize(100)},
			excluded: true,
		},
		{
			name:     "max size allows smaller",
			path:     "small.png",
			size:     99,
			options:  []option.Option{option.WithMaxFileSize(100)},
			excluded: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.options...)
			if got := m.IsExcluded(tt.path, tt.size); got != tt.excluded {
				t.Fatalf("IsExcluded(%q)=%v want %v", tt.path, got, tt.excluded)
			}
			if !tt.excluded {
				assert.True(t, m.IsEligible("file://localhost/tmp/"+tt.path, tt.path, tt.size))
			}
		})
	}
}

func TestManager_IsExcludedDir(t *testing.T) {
	patterns := option.ParseGitignore(strings.NewReader(`
# generated assets
build/
*.min.png
`))
	m := New(option.WithExclusionPatterns(patterns...))
	assert.True(t, m.IsExcludedDir("build"))
	assert.True(t, m.IsExcludedDir("site/build/"))
	assert.False(t, m.IsExcludedDir("builder"))
	assert.False(t, m.IsExcludedDir("img"))
	assert.False(t, m.IsExcludedDir(""))
	assert.True(t, m.IsExcluded("a.min.png", 1))
	assert.False(t, m.IsExcluded("assets/a.png", 1))
	assert.False(t, New().IsExcludedDir("build"))
}

func TestManager_IsEligible_RootBelowExcludedName(t *testing.T) {
	m := New(option.WithExclusionPatterns("build/"))
	// the root itself lives under a build directory, only the part below it is matched
	assert.True(t, m.IsEligible("file://localhost/x/build/assets/a.png", "a.png", 1))
	assert.True(t, m.IsEligible("file://localhost/x/build/assets/sub/b.png", "sub/b.png", 1))
	assert.False(t, m.IsEligible("file://localhost/x/build/assets/build/c.png", "build/c.png", 1))
}
