// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rditech/tca/artifact"
	"github.com/rditech/tca/event"
	"github.com/rditech/tca/logging"
	"github.com/rditech/tca/rawlog"
	"github.com/rditech/tca/results"
)

// DateRange selects artifacts by the date their name starts with. Empty
// bounds are open; artifacts without a date only pass an open range.
type DateRange struct {
	From string
	To   string
}

func (r DateRange) Contains(name string) bool {
	date := artifact.EventDate(name)
	if date == rawlog.UnknownDate {
		return r.From == "" && r.To == ""
	}
	return (r.From == "" || date >= r.From) && (r.To == "" || date <= r.To)
}

// ListArtifacts lists the event artifacts under dir within r.
func ListArtifacts(ctx context.Context, dir string, r DateRange, credentials string) ([]string, error) {
	all, err := ListResources(ctx, dir, "*"+artifact.Suffix, credentials)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, u := range all {
		if r.Contains(BaseName(u)) {
			names = append(names, u)
		}
	}
	return names, nil
}

func LoadArtifact(ctx context.Context, urlString, credentials string) (*event.Curve, error) {
	r, err := GetReader(ctx, urlString, credentials)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	c, err := artifact.Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", urlString, err)
	}
	if c.Name == "" {
		c.Name = BaseName(urlString)
	}
	return c, nil
}

// Summarize rebuilds a result set from saved artifacts, in the given order.
// Artifacts that cannot be read or do not match the schema of the first one
// are skipped and reported.
func Summarize(ctx context.Context, a *event.Analyzer, urls []string, credentials string, logger *slog.Logger) (*results.ResultSet, []error) {
	if logger == nil {
		logger = slog.Default()
	}
	set := results.New()
	var errs []error
	for _, u := range urls {
		c, err := LoadArtifact(ctx, u, credentials)
		if err == nil {
			name := BaseName(u)
			err = set.Append(results.Entry{
				Name:   name,
				Date:   artifact.EventDate(name),
				Record: a.Restore(c),
				Curve:  c,
			})
		}
		if err != nil {
			logger.Warn("skipping artifact", logging.File(u), logging.Error(err))
			errs = append(errs, err)
		}
	}
	return set, errs
}
