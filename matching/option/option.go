package option

import (
	"bufio"
	"io"
	"strings"
)

// DefaultSuffix is the only file suffix processed unless configured otherwise
const DefaultSuffix = ".png"

// Options controls which files enter the compression pipeline
type Options struct {

	// Suffix is a case-sensitive file path suffix a candidate must end with
	Suffix string

	// Exclusions contains patterns of files/directories to skip
	Exclusions []string

	// MaxFileSize is the maximum size of files to compress in bytes
	MaxFileSize int
}

// NewOptions creates a new Options instance with default values
func NewOptions(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.Suffix == "" {
		options.Suffix = DefaultSuffix
	}
	return options
}

// Option is a function that modifies Options
type Option func(*Options)

// WithSuffix sets candidate file suffix
func WithSuffix(suffix string) Option {
	return func(o *Options) {
		o.Suffix = suffix
	}
}

// WithExclusionPatterns sets exclusion patterns
func WithExclusionPatterns(patterns ...string) Option {
	return func(o *Options) {
		o.Exclusions = append(o.Exclusions, patterns...)
	}
}

// WithMaxFileSize sets the maximum file size
func WithMaxFileSize(size int) Option {
	return func(o *Options) {
		o.MaxFileSize = size
	}
}

// ParseGitignore reads .gitignore-style patterns from a reader
func ParseGitignore(reader io.Reader) []string {
	var patterns []string
	scanner := bufio.NewScanner(reader)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}

	return patterns
}
