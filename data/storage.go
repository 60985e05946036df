// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

var ErrBadScheme = errors.New("bad url scheme")

// localPath resolves a file url or a bare path. ok is false for other
// schemes.
func localPath(thisUrl *url.URL) (p string, ok bool) {
	switch thisUrl.Scheme {
	case "":
		return filepath.Clean(thisUrl.Path), true
	case "file":
		if thisUrl.Host == "" {
			return filepath.Clean(thisUrl.Path), true
		}
		return filepath.Clean(thisUrl.Host + "/" + strings.TrimLeft(thisUrl.Path, "/")), true
	}
	return "", false
}

// ListResources lists the resources under urlString whose base name matches
// pattern. Results keep the scheme of urlString and are sorted.
func ListResources(ctx context.Context, urlString, pattern, credentials string) (names []string, err error) {
	var thisUrl *url.URL
	thisUrl, err = url.Parse(urlString)
	if err != nil {
		return
	}

	if dir, ok := localPath(thisUrl); ok {
		var files []string
		files, err = filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return
		}
		for _, file := range files {
			if thisUrl.Scheme == "file" {
				file = "file://" + filepath.ToSlash(file)
			}
			names = append(names, file)
		}
		sort.Strings(names)
		return
	}

	switch thisUrl.Scheme {
	case "gs":
		var objects []string
		objects, err = ListGcsObjects(
			ctx,
			thisUrl.Host,
			strings.TrimLeft(thisUrl.Path, "/"),
			[]byte(credentials),
		)
		if err != nil {
			return
		}
		for _, obj := range objects {
			if match, _ := path.Match(pattern, path.Base(obj)); match {
				names = append(names, "gs://"+thisUrl.Host+"/"+obj)
			}
		}
		sort.Strings(names)
	default:
		err = ErrBadScheme
	}
	return
}

func GetReader(ctx context.Context, urlString, credentials string) (reader io.ReadCloser, err error) {
	var thisUrl *url.URL
	thisUrl, err = url.Parse(urlString)
	if err != nil {
		return
	}

	if p, ok := localPath(thisUrl); ok {
		var f *os.File
		if f, err = os.Open(p); err != nil {
			return nil, err
		}
		return f, nil
	}

	switch thisUrl.Scheme {
	case "gs":
		reader, err = CreateGcsReader(
			ctx,
			thisUrl.Host,
			strings.TrimLeft(thisUrl.Path, "/"),
			[]byte(credentials),
		)
	default:
		err = ErrBadScheme
	}
	return
}

// GetWriter creates the resource at urlString. Local parent directories are
// created as needed.
func GetWriter(ctx context.Context, urlString, credentials string) (writer io.WriteCloser, err error) {
	var thisUrl *url.URL
	thisUrl, err = url.Parse(urlString)
	if err != nil {
		return
	}

	if p, ok := localPath(thisUrl); ok {
		if err = os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return
		}
		var f *os.File
		if f, err = os.Create(p); err != nil {
			return nil, err
		}
		return f, nil
	}

	switch thisUrl.Scheme {
	case "gs":
		writer, err = CreateGcsWriter(
			ctx,
			thisUrl.Host,
			strings.TrimLeft(thisUrl.Path, "/"),
			[]byte(credentials),
		)
	default:
		err = ErrBadScheme
	}
	return
}

// JoinURL appends name to a directory url or path.
func JoinURL(dir, name string) string {
	if strings.Contains(dir, "://") {
		return strings.TrimRight(dir, "/") + "/" + name
	}
	return filepath.Join(dir, name)
}

// BaseName is the last element of a url or path.
func BaseName(urlString string) string {
	if thisUrl, err := url.Parse(urlString); err == nil && thisUrl.Scheme != "" {
		return path.Base(thisUrl.Path)
	}
	return filepath.Base(urlString)
}
