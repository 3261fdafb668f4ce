package storage

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// Bucket is where finished packages are published.
type Bucket interface {
	Get(ctx context.Context, key string) (data []byte, err error)
	Read(ctx context.Context, key string, output io.Writer) (err error)
	Store(ctx context.Context, key string, data []byte) (err error)
	Write(ctx context.Context, key string, input io.Reader) (err error)
	List(ctx context.Context, prefix string) (keys []string, err error)
	// Delete removes every object under prefix.
	Delete(ctx context.Context, prefix string) (err error)
	Close() error
}

// Open opens a bucket from a URL (file:///data, s3://bucket?region=x,
// gs://bucket) using the environment's default credentials.
func Open(ctx context.Context, url string) (Bucket, error) {
	bucket, err := blob.OpenBucket(ctx, url)

	if err != nil {
		return nil, errors.Wrapf(err, "open bucket '%s'", url)
	}

	return &gocloud{bucket: bucket}, nil
}

type gocloud struct {
	bucket *blob.Bucket
}

func (g *gocloud) Get(ctx context.Context, key string) ([]byte, error) {
	return g.bucket.ReadAll(ctx, key)
}

func (g *gocloud) Read(ctx context.Context, key string, output io.Writer) error {
	reader, err := g.bucket.NewReader(ctx, key, nil)

	if err != nil {
		return err
	}

	defer reader.Close()

	_, err = io.Copy(output, reader)
	return err
}

func (g *gocloud) Store(ctx context.Context, key string, data []byte) error {
	return g.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: ContentType(key)})
}

// Write streams input to key. The object is only committed when input is read
// to the end; a failed copy cancels the writer so nothing partial is stored.
func (g *gocloud) Write(ctx context.Context, key string, input io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer, err := g.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: ContentType(key)})

	if err != nil {
		return err
	}

	if _, err = io.Copy(writer, input); err != nil {
		cancel()
		_ = writer.Close()
		return err
	}

	return writer.Close()
}

func (g *gocloud) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	iter := g.bucket.List(&blob.ListOptions{Prefix: prefix})

	for {
		obj, err := iter.Next(ctx)

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, err
		}

		if obj.IsDir {
			continue
		}

		keys = append(keys, obj.Key)
	}

	return keys, nil
}

func (g *gocloud) Delete(ctx context.Context, prefix string) error {
	keys, err := g.List(ctx, prefix)

	if err != nil {
		return err
	}

	for _, key := range keys {
		if err = g.bucket.Delete(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

func (g *gocloud) Close() error {
	return g.bucket.Close()
}
