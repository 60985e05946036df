// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package server serves a read-only view of the saved event artifacts.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/rditech/tca/artifact"
	"github.com/rditech/tca/data"
	"github.com/rditech/tca/event"
	"github.com/rditech/tca/plot"
	"github.com/rditech/tca/publish"
	"github.com/rditech/tca/results"
)

type Server struct {
	EventsDir     string
	Credentials   string
	Analyzer      *event.Analyzer
	HistogramBins int
	// Recent is optional; /recent is only routed when it is set.
	Recent *publish.Recent
	Logger *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/events", s.listEvents).Methods(http.MethodGet)
	router.HandleFunc("/events/{name}", s.getEvent).Methods(http.MethodGet)
	router.HandleFunc("/events/{name}/plot.svg", s.plotEvent).Methods(http.MethodGet)
	router.HandleFunc("/summary", s.summary).Methods(http.MethodGet)
	router.HandleFunc("/histogram.svg", s.histogram).Methods(http.MethodGet)
	if s.Recent != nil {
		router.HandleFunc("/recent", s.recent).Methods(http.MethodGet)
	}
	return router
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger().Warn("writing response", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, results.ErrEmpty) || errors.Is(err, plot.ErrNoData) {
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger().Error("request failed", "path", r.URL.Path, "error", err)
	}
	http.Error(w, err.Error(), status)
}

func (s *Server) dateRange(r *http.Request) data.DateRange {
	q := r.URL.Query()
	return data.DateRange{From: q.Get("from"), To: q.Get("to")}
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	urls, err := data.ListArtifacts(r.Context(), s.EventsDir, s.dateRange(r), s.Credentials)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	names := make([]string, 0, len(urls))
	for _, u := range urls {
		names = append(names, data.BaseName(u))
	}
	s.writeJSON(w, names)
}

// eventURL resolves the name route variable. Only artifact names are
// accepted.
func (s *Server) eventURL(r *http.Request) (string, bool) {
	name := mux.Vars(r)["name"]
	if !strings.HasSuffix(name, artifact.Suffix) || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", false
	}
	return data.JoinURL(s.EventsDir, name), true
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	u, ok := s.eventURL(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	c, err := data.LoadArtifact(r.Context(), u, s.Credentials)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := artifact.Write(&buf, c); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	buf.WriteTo(w)
}

func (s *Server) plotEvent(w http.ResponseWriter, r *http.Request) {
	u, ok := s.eventURL(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	c, err := data.LoadArtifact(r.Context(), u, s.Credentials)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := plot.RenderEvent(&buf, c, nil); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	buf.WriteTo(w)
}

func (s *Server) results(r *http.Request) (*results.ResultSet, error) {
	urls, err := data.ListArtifacts(r.Context(), s.EventsDir, s.dateRange(r), s.Credentials)
	if err != nil {
		return nil, err
	}
	set, _ := data.Summarize(r.Context(), s.Analyzer, urls, s.Credentials, s.logger())
	return set, nil
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	set, err := s.results(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := set.WriteSummary(&buf); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	buf.WriteTo(w)
}

func (s *Server) histogram(w http.ResponseWriter, r *http.Request) {
	set, err := s.results(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bins := s.HistogramBins
	if v, err := strconv.Atoi(r.URL.Query().Get("bins")); err == nil && v > 0 {
		bins = v
	}
	h, err := set.Histogram(bins)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := plot.RenderHistogram(&buf, h, "tc"); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	buf.WriteTo(w)
}

func (s *Server) recent(w http.ResponseWriter, r *http.Request) {
	type item struct {
		Type     string
		Metadata map[string]string
	}
	msgs := s.Recent.List()
	items := make([]item, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, item{Type: m.Type, Metadata: m.Metadata})
	}
	s.writeJSON(w, items)
}
