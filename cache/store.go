package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/tinypic"
)

// ManifestName is the per-directory manifest file name
const ManifestName = ".tinypic.json"

// manifest is the persisted shape of a Store
type manifest struct {
	Version string          `json:"version"`
	Tinied  json.RawMessage `json:"tinied"`
}

// Store is a directory scoped set of digests of already compressed payloads.
// A nil *Store is valid: it contains nothing and records nothing.
type Store struct {
	fs      afs.Service
	baseURL string
	version string
	digest  Digest
	logf    func(format string, args ...any)
	digests *Set[string]
	writeMu sync.Mutex
}

// Option configures a Store
type Option func(*Store)

// WithFS sets storage service used to read and write the manifest
func WithFS(fs afs.Service) Option {
	return func(s *Store) { s.fs = fs }
}

// WithVersion sets version written into the manifest
func WithVersion(version string) Option {
	return func(s *Store) { s.version = version }
}

// WithDigest sets content digest algorithm
func WithDigest(digest Digest) Option {
	return func(s *Store) { s.digest = digest }
}

// WithLogf sets persist failure logger
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Store) { s.logf = logf }
}

// New creates an empty store scoped to baseURL directory, nothing is read
func New(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL: baseURL,
		version: tinypic.Version,
		digest:  MD5,
		digests: NewSet[string](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.logf == nil {
		s.logf = log.Printf
	}
	return s
}

// Load creates a store for baseURL directory populated from its manifest.
// A missing, unreadable or malformed manifest yields an empty store.
func Load(ctx context.Context, baseURL string, opts ...Option) *Store {
	s := New(baseURL, opts...)
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	URL := s.URL()
	if exists, _ := s.fs.Exists(ctx, URL); !exists {
		return
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return
	}
	var m manifest
	if err = json.Unmarshal(data, &m); err != nil {
		return
	}
	_ = s.digests.Load(m.Tinied)
}

// URL returns manifest location
func (s *Store) URL() string {
	return url.Join(s.baseURL, ManifestName)
}

// Contains reports whether payload digest was already recorded
func (s *Store) Contains(payload []byte) bool {
	if s == nil {
		return false
	}
	digest, err := s.digest.Hash(payload)
	if err != nil {
		return false
	}
	return s.digests.Has(digest)
}

// Has reports whether digest was recorded
func (s *Store) Has(digest string) bool {
	if s == nil {
		return false
	}
	return s.digests.Has(digest)
}

// Record adds payload digest and persists the store, known digests are no-op
func (s *Store) Record(ctx context.Context, payload []byte) {
	if s == nil || payload == nil {
		return
	}
	digest, err := s.digest.Hash(payload)
	if err != nil {
		s.logf("cache: digest %s: %v", s.URL(), err)
		return
	}
	if !s.digests.Add(digest) {
		return
	}
	s.persist(ctx)
}

// Digests returns recorded digests in ascending order
func (s *Store) Digests() []string {
	if s == nil {
		return nil
	}
	return s.digests.Keys()
}

// Len returns number of recorded digests
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return s.digests.Size()
}

// persist writes the full current set, writers are serialized so the last
// write always carries every digest recorded before it started
func (s *Store) persist(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	tinied, err := s.digests.Data()
	if err != nil {
		s.logf("cache: marshal %s: %v", s.URL(), err)
		return
	}
	data, err := json.Marshal(&manifest{Version: s.version, Tinied: tinied})
	if err != nil {
		s.logf("cache: marshal %s: %v", s.URL(), err)
		return
	}
	if err = s.fs.Upload(ctx, s.URL(), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		s.logf("cache: write %s: %v", s.URL(), err)
	}
}
