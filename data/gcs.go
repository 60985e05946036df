// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// gcsClient uses the given service account credentials, or the application
// default credentials when none are given.
func gcsClient(ctx context.Context, credentials []byte) (*storage.Client, error) {
	var opts []option.ClientOption
	if len(credentials) > 0 {
		opts = append(opts, option.WithCredentialsJSON(credentials))
	}
	return storage.NewClient(ctx, opts...)
}

func ListGcsObjects(ctx context.Context, bucket, prefix string, credentials []byte) ([]string, error) {
	client, err := gcsClient(ctx, credentials)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var objects []string

	bucketHandle := client.Bucket(bucket)
	it := bucketHandle.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		objAttrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		objects = append(objects, objAttrs.Name)
	}

	return objects, nil
}

type gcsReader struct {
	*storage.Reader
	client *storage.Client
}

func (r *gcsReader) Close() error {
	err := r.Reader.Close()
	if cerr := r.client.Close(); err == nil {
		err = cerr
	}
	return err
}

func CreateGcsReader(ctx context.Context, bucket, name string, credentials []byte) (io.ReadCloser, error) {
	client, err := gcsClient(ctx, credentials)
	if err != nil {
		return nil, err
	}

	objectReader, err := client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &gcsReader{Reader: objectReader, client: client}, nil
}

type gcsWriter struct {
	*storage.Writer
	client *storage.Client
}

func (w *gcsWriter) Close() error {
	err := w.Writer.Close()
	if cerr := w.client.Close(); err == nil {
		err = cerr
	}
	return err
}

func CreateGcsWriter(ctx context.Context, bucket, name string, credentials []byte) (io.WriteCloser, error) {
	client, err := gcsClient(ctx, credentials)
	if err != nil {
		return nil, err
	}

	objectWriter := client.Bucket(bucket).Object(name).NewWriter(ctx)
	return &gcsWriter{Writer: objectWriter, client: client}, nil
}
