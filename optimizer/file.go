package optimizer

import (
	"bytes"
	"context"
	"os"

	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/tinypic/cache"
	"github.com/viant/tinypic/journal"
)

// processFile reads, compresses and writes back a single candidate.
// The compressed digest is recorded before the write, a failed write leaves it recorded.
func (o *Optimizer) processFile(ctx context.Context, r root, location string, object storage.Object, store *cache.Store) {
	if object.Name() == cache.ManifestName || !o.matcher.IsEligible(location, r.relative(location), int(object.Size())) {
		return
	}
	stats := statsFrom(ctx)
	stats.Candidates.Add(1)
	path := r.display(location)

	source, err := o.fs.Download(ctx, object)
	if err != nil {
		o.logf("readFile: Fail %s: %v", path, err)
		stats.Failed.Add(1)
		return
	}
	if store.Contains(source) {
		o.logf("Skip: %s", path)
		stats.Skipped.Add(1)
		return
	}
	compressed, err := o.compressor.Compress(ctx, source)
	if err != nil {
		o.logf("toBuffer: Fail %s: %v", path, err)
		stats.Failed.Add(1)
		return
	}
	store.Record(ctx, compressed)
	if err = o.fs.Upload(ctx, location, fileMode(object), bytes.NewReader(compressed)); err != nil {
		o.logf("writeFile: Fail %s: %v", path, err)
		stats.Failed.Add(1)
		return
	}
	stats.Compressed.Add(1)
	stats.BytesIn.Add(int64(len(source)))
	stats.BytesOut.Add(int64(len(compressed)))
	count := o.compressionCount()
	o.journalRecord(ctx, absolute(location), source, compressed, count)
	o.logf("Tiny: count=%d %s", count, path)
}

func (o *Optimizer) journalRecord(ctx context.Context, path string, source, compressed []byte, count int) {
	if o.journal == nil {
		return
	}
	digest, err := o.config.Digest.Hash(compressed)
	if err != nil {
		o.logf("journal: %s: %v", path, err)
		return
	}
	entry := journal.Entry{Path: path, InputSize: len(source), OutputSize: len(compressed), Digest: digest, Count: count}
	if err = o.journal.Record(ctx, entry); err != nil {
		o.logf("journal: %s: %v", path, err)
	}
}

func (o *Optimizer) compressionCount() int {
	if counter, ok := o.compressor.(compressionCounter); ok {
		return counter.CompressionCount()
	}
	return 0
}

func fileMode(object storage.Object) os.FileMode {
	if mode := object.Mode().Perm(); mode != 0 {
		return mode
	}
	return file.DefaultFileOsMode
}
