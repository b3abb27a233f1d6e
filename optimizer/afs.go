package optimizer

import (
	"context"
	"io"
	"os"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
)

// afsService is a Service implemented using github.com/viant/afs
type afsService struct {
	svc afs.Service
}

// NewAFS constructs a Service backed by the supplied or default AFS service.
func NewAFS(svc afs.Service) Service {
	if svc == nil {
		svc = afs.New()
	}
	return &afsService{svc: svc}
}

func (a *afsService) Object(ctx context.Context, location string) (storage.Object, error) {
	return a.svc.Object(ctx, location)
}

func (a *afsService) List(ctx context.Context, location string) ([]storage.Object, error) {
	return a.svc.List(ctx, location)
}

func (a *afsService) Download(ctx context.Context, object storage.Object) ([]byte, error) {
	return a.svc.Download(ctx, object)
}

func (a *afsService) Upload(ctx context.Context, location string, mode os.FileMode, reader io.Reader) error {
	return a.svc.Upload(ctx, location, mode, reader)
}
