package lexicon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"cloud.google.com/go/storage"
)

// DirSource reads lexicon files from a file system
type DirSource struct {
	fsys fs.FS
}

// NewDirSource reads lexicons from a directory on disk
func NewDirSource(dir string) *DirSource {
	return &DirSource{fsys: os.DirFS(dir)}
}

// NewFSSource reads lexicons from any fs.FS
func NewFSSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys}
}

// Open opens the named lexicon file
func (d *DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := d.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingLexicon, name)
		}
		return nil, err
	}
	return f, nil
}

// GCSSource reads lexicon files from a Cloud Storage bucket
type GCSSource struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSSource creates a source reading gs://bucket/prefix/<name>
func NewGCSSource(client *storage.Client, bucket, prefix string) *GCSSource {
	return &GCSSource{client: client, bucket: bucket, prefix: prefix}
}

// Open opens the named lexicon object
func (g *GCSSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	objectName := path.Join(g.prefix, name)
	reader, err := g.client.Bucket(g.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", ErrMissingLexicon, g.bucket, objectName)
		}
		return nil, fmt.Errorf("opening object reader: %w", err)
	}
	return reader, nil
}
