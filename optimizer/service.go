package optimizer

import (
	"context"
	"log"
	"path"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/tinypic"
	"github.com/viant/tinypic/cache"
	"github.com/viant/tinypic/journal"
	"github.com/viant/tinypic/matching"
	"github.com/viant/tinypic/matching/option"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds in-flight file pipelines when Config leaves it unset
const DefaultConcurrency = 8

// Compressor shrinks image content
type Compressor interface {
	Compress(ctx context.Context, data []byte) ([]byte, error)
}

type compressionCounter interface {
	CompressionCount() int
}

// Journal records successful compressions
type Journal interface {
	Record(ctx context.Context, entry journal.Entry) error
}

// Config is created once at startup and read-only afterwards
type Config struct {
	Version     string
	Digest      cache.Digest
	Concurrency int
	Suffix      string
	Exclusions  []string
	MaxFileSize int
}

// Optimizer walks storage trees and compresses candidate files in place
type Optimizer struct {
	fs         Service
	storeFS    afs.Service
	compressor Compressor
	matcher    *matching.Manager
	journal    Journal
	config     Config
	logf       func(format string, args ...any)
}

// Option configures the Optimizer
type Option func(*Optimizer)

// WithAFS sets afs service used for traversal and manifests
func WithAFS(svc afs.Service) Option {
	return func(o *Optimizer) {
		o.storeFS = svc
		o.fs = NewAFS(svc)
	}
}

// WithService overrides traversal storage, manifests keep using afs
func WithService(svc Service) Option {
	return func(o *Optimizer) { o.fs = svc }
}

// WithJournal sets compression journal
func WithJournal(j Journal) Option {
	return func(o *Optimizer) { o.journal = j }
}

// WithLogf sets logger, log.Printf by default
func WithLogf(logf func(format string, args ...any)) Option {
	return func(o *Optimizer) { o.logf = logf }
}

// New creates an optimizer
func New(compressor Compressor, config Config, opts ...Option) *Optimizer {
	if config.Version == "" {
		config.Version = tinypic.Version
	}
	if config.Digest == "" {
		config.Digest = cache.MD5
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	o := &Optimizer{
		compressor: compressor,
		config:     config,
		matcher: matching.New(
			option.WithSuffix(config.Suffix),
			option.WithExclusionPatterns(config.Exclusions...),
			option.WithMaxFileSize(config.MaxFileSize),
		),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.storeFS == nil {
		o.storeFS = afs.New()
	}
	if o.fs == nil {
		o.fs = NewAFS(o.storeFS)
	}
	if o.logf == nil {
		o.logf = log.Printf
	}
	return o
}

// Run optimizes every location, each one starts without an inherited store
func (o *Optimizer) Run(ctx context.Context, locations ...string) *Stats {
	ctx, stats := o.ensureStats(ctx)
	group := o.newGroup()
	for _, location := range locations {
		o.process(ctx, group, location, nil)
	}
	_ = group.Wait()
	return stats
}

// Process optimizes location, store is the inherited scope and may be nil.
// It returns once every dispatched file pipeline completed.
func (o *Optimizer) Process(ctx context.Context, location string, store *cache.Store) *Stats {
	ctx, stats := o.ensureStats(ctx)
	group := o.newGroup()
	o.process(ctx, group, location, store)
	_ = group.Wait()
	return stats
}

// Load returns a store scoped to directory location configured like the ones created while walking
func (o *Optimizer) Load(ctx context.Context, location string) *cache.Store {
	return cache.Load(ctx, normalize(location), o.storeOptions()...)
}

func (o *Optimizer) ensureStats(ctx context.Context) (context.Context, *Stats) {
	if stats := statsFrom(ctx); stats != nil {
		return ctx, stats
	}
	stats := &Stats{}
	return WithStats(ctx, stats), stats
}

func (o *Optimizer) newGroup() *errgroup.Group {
	group := &errgroup.Group{}
	group.SetLimit(o.config.Concurrency)
	return group
}

func (o *Optimizer) storeOptions() []cache.Option {
	return []cache.Option{
		cache.WithFS(o.storeFS),
		cache.WithVersion(o.config.Version),
		cache.WithDigest(o.config.Digest),
		cache.WithLogf(o.logf),
	}
}

func (o *Optimizer) process(ctx context.Context, group *errgroup.Group, location string, store *cache.Store) {
	if ctx.Err() != nil {
		return
	}
	r := newRoot(location)
	object, err := o.fs.Object(ctx, r.URL)
	if err != nil || object == nil {
		o.logf("stat: %s: %v", location, err)
		return
	}
	o.dispatch(ctx, group, r, r.URL, object, store)
}

func (o *Optimizer) dispatch(ctx context.Context, group *errgroup.Group, r root, location string, object storage.Object, store *cache.Store) {
	switch {
	case object.IsDir():
		o.processDir(ctx, group, r, location, store)
	case object.Mode().IsRegular():
		group.Go(func() error {
			o.processFile(ctx, r, location, object, store)
			return nil
		})
	default:
		// symlinks, devices, sockets are ignored
	}
}

func (o *Optimizer) processDir(ctx context.Context, group *errgroup.Group, r root, location string, store *cache.Store) {
	objects, err := o.fs.List(ctx, location)
	if err != nil {
		o.logf("readdir: %s: %v", r.display(location), err)
		return
	}
	if store == nil {
		store = cache.Load(ctx, location, o.storeOptions()...)
	}
	for _, object := range objects {
		if ctx.Err() != nil {
			return
		}
		if samePath(object.URL(), location) {
			continue
		}
		child := url.Join(location, object.Name())
		if object.IsDir() && o.matcher.IsExcludedDir(r.relative(child)) {
			continue
		}
		o.dispatch(ctx, group, r, child, object, store)
	}
}

// root is a traversal starting point as given by the caller and as normalized URL
type root struct {
	Location string
	URL      string
}

func newRoot(location string) root {
	return root{Location: location, URL: normalize(location)}
}

// relative returns location path below the root, a file root yields its base name
func (r root) relative(location string) string {
	rootPath := strings.TrimRight(url.Path(r.URL), "/")
	locationPath := url.Path(location)
	rel := strings.TrimPrefix(strings.TrimPrefix(locationPath, rootPath), "/")
	if rel == "" || rel == locationPath {
		return path.Base(locationPath)
	}
	return rel
}

// display returns location prefixed with the root as the caller spelled it
func (r root) display(location string) string {
	if samePath(location, r.URL) {
		return r.Location
	}
	rel := r.relative(location)
	if url.Scheme(r.Location, "") != "" {
		return url.Join(r.Location, rel)
	}
	return filepath.Join(r.Location, filepath.FromSlash(rel))
}

// normalize turns relative and absolute OS paths into file URLs
func normalize(location string) string {
	norm := location
	if url.Scheme(norm, "") == "" && url.IsRelative(norm) {
		if abs, err := filepath.Abs(norm); err == nil {
			norm = abs
		}
	}
	if url.Scheme(norm, "") == "" && !url.IsRelative(norm) {
		norm = url.ToFileURL(norm)
	}
	return norm
}

func samePath(a, b string) bool {
	return strings.TrimRight(url.Path(a), "/") == strings.TrimRight(url.Path(b), "/")
}

// absolute returns OS path for local files and URL otherwise
func absolute(location string) string {
	if url.Scheme(location, file.Scheme) == file.Scheme {
		return url.Path(location)
	}
	return location
}
