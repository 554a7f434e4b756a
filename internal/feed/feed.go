// Package feed serves the two dashboard datasets from fixture files so a
// single process can run the whole page. Payloads are passed through as
// stored; only their shape is checked when they are loaded.
package feed

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"cruscotto/internal/core"
	"cruscotto/internal/log"
)

// Dataset names one fixture served under /api.
type Dataset struct {
	Route string
	File  string
	// Default is served when File is absent from the fixtures directory.
	Default []byte
}

var (
	Categories = Dataset{
		Route:   "/category_data",
		File:    "category_data.json",
		Default: []byte(`{}`),
	}
	Accounts = Dataset{
		Route:   "/account_data",
		File:    "account_data.json",
		Default: []byte(`{"Main Savings": 1000, "Wallet": 200, "Credit Card": 0}`),
	}
)

// Datasets lists every dataset the feed serves.
func Datasets() []Dataset {
	return []Dataset{Categories, Accounts}
}

// Store holds the validated payload of each dataset.
type Store struct {
	payloads map[string][]byte
}

// Load reads every dataset from dir. A missing dir or file falls back to the
// dataset default. A file that is not a flat object of numbers fails the load.
func Load(dir string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentFeed)

	s := &Store{payloads: make(map[string][]byte)}
	for _, ds := range Datasets() {
		payload, source, err := readDataset(dir, ds)
		if err != nil {
			return nil, err
		}
		series, err := core.ParseLabeledSeries(payload)
		if err != nil {
			return nil, fmt.Errorf("validate %s: %w", source, err)
		}
		s.payloads[ds.Route] = payload
		logger.Info("Dataset loaded",
			log.FieldOperation, log.OpLoad,
			log.FieldEndpoint, ds.Route,
			"source", source,
			log.FieldEntries, series.Len())
	}
	return s, nil
}

func readDataset(dir string, ds Dataset) ([]byte, string, error) {
	if dir == "" {
		return ds.Default, "default", nil
	}
	path := filepath.Join(dir, ds.File)
	payload, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ds.Default, "default", nil
	}
	if err != nil {
		return nil, path, fmt.Errorf("read %s: %w", path, err)
	}
	return payload, path, nil
}

// Payload returns the stored bytes for route.
func (s *Store) Payload(route string) ([]byte, bool) {
	p, ok := s.payloads[route]
	return p, ok
}

// Routes mounts one GET handler per dataset.
func (s *Store) Routes() chi.Router {
	r := chi.NewRouter()
	for _, ds := range Datasets() {
		r.Get(ds.Route, s.serve(ds.Route))
	}
	return r
}

func (s *Store) serve(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := s.Payload(route)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	}
}
