package optimizer

import (
	"context"
	"io"
	"os"

	"github.com/viant/afs/storage"
)

// Service abstracts storage access so the optimizer can run on
// local file systems as well as any afs backed remote storage.
type Service interface {
	// Object returns object info for the location
	Object(ctx context.Context, location string) (storage.Object, error)
	// List returns the directory itself followed by its immediate children.
	List(ctx context.Context, location string) ([]storage.Object, error)
	// Download returns the content of the given object.
	Download(ctx context.Context, object storage.Object) ([]byte, error)
	// Upload overwrites location with reader content.
	Upload(ctx context.Context, location string, mode os.FileMode, reader io.Reader) error
}
