package server

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/panevka/nhsmongifyer/internal/server/response"
	"github.com/panevka/nhsmongifyer/internal/store"
	"github.com/panevka/nhsmongifyer/pkg/collections"
	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/nfz"
)

// EnumEntry is one code/name pair.
type EnumEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Partition describes one harvested partition.
type Partition struct {
	Branch      EnumEntry      `json:"branch"`
	Service     EnumEntry      `json:"service"`
	Collections map[string]int `json:"collections"`
}

// CollectionPage is a window over a collection.
type CollectionPage struct {
	Collection collections.Kind  `json:"collection"`
	Total      int               `json:"total"`
	Offset     int               `json:"offset"`
	Items      []json.RawMessage `json:"items"`
}

// ProviderView joins the info and geo documents of one provider.
type ProviderView struct {
	Info *collections.ProviderInfo    `json:"info"`
	Geo  *collections.ProviderGeoData `json:"geo"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "nhsmongifyer",
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleBranches(w http.ResponseWriter, _ *http.Request) {
	entries := make([]EnumEntry, 0, len(nfz.Branches()))
	for _, b := range nfz.Branches() {
		entries = append(entries, EnumEntry{Code: string(b), Name: b.Name()})
	}
	response.OK(w, entries)
}

func (s *Server) handleServices(w http.ResponseWriter, _ *http.Request) {
	entries := make([]EnumEntry, 0, len(nfz.ServiceTypes()))
	for _, st := range nfz.ServiceTypes() {
		entries = append(entries, EnumEntry{Code: string(st), Name: st.Name()})
	}
	response.OK(w, entries)
}

func (s *Server) handlePartitions(w http.ResponseWriter, _ *http.Request) {
	layouts, err := store.ListPartitions(s.config.OutputDir)
	if err != nil {
		s.logger.Error().Err(err).Msg("Listing partitions failed")
		response.ErrorFromType(w, err)
		return
	}

	partitions := make([]Partition, 0, len(layouts))
	for _, l := range layouts {
		st := store.New(l, s.logger)
		counts := make(map[string]int, len(collections.Kinds()))
		for _, kind := range collections.Kinds() {
			counts[string(kind)] = len(st.LoadArray(l.CollectionPath(kind)))
		}
		partitions = append(partitions, Partition{
			Branch:      EnumEntry{Code: string(l.Branch), Name: l.Branch.Name()},
			Service:     EnumEntry{Code: string(l.Service), Name: l.Service.Name()},
			Collections: counts,
		})
	}
	response.OK(w, partitions)
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	st, err := s.partition(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	kind, ok := collections.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		response.NotFound(w, "Unknown collection", chi.URLParam(r, "kind"))
		return
	}
	offset, limit, err := window(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	items := st.LoadArray(st.Layout().CollectionPath(kind))
	page := CollectionPage{Collection: kind, Total: len(items), Offset: offset, Items: []json.RawMessage{}}
	if offset < len(items) {
		end := len(items)
		if limit > 0 && limit < end-offset {
			end = offset + limit
		}
		page.Items = items[offset:end]
	}
	response.OK(w, page)
}

func (s *Server) handleProvider(w http.ResponseWriter, r *http.Request) {
	st, err := s.partition(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	code := chi.URLParam(r, "code")
	layout := st.Layout()

	var view ProviderView
	infos := store.OpenCollection(st, layout.CollectionPath(collections.ProvidersInfo),
		func(p collections.ProviderInfo) string { return p.Code })
	if info, ok := infos.Get(code); ok {
		view.Info = &info
	}
	geos := store.OpenCollection(st, layout.CollectionPath(collections.ProvidersGeo),
		func(g collections.ProviderGeoData) string { return g.Code })
	if g, ok := geos.Get(code); ok {
		view.Geo = &g
	}

	if view.Info == nil && view.Geo == nil {
		response.ErrorFromType(w, errors.NewLookupMiss("provider", code))
		return
	}
	response.OK(w, view)
}

// partition resolves the branch and service of the request to an existing
// partition store.
func (s *Server) partition(r *http.Request) (*store.Store, error) {
	branch, ok := nfz.ParseBranch(chi.URLParam(r, "branch"))
	if !ok {
		return nil, errors.NewSchemaError("partition", "branch", "branch")
	}
	service, ok := nfz.ParseServiceType(chi.URLParam(r, "service"))
	if !ok {
		return nil, errors.NewSchemaError("partition", "service", "servicetype")
	}

	layout := store.NewLayout(s.config.OutputDir, branch, service)
	if _, err := os.Stat(layout.Dir()); err != nil {
		return nil, errors.NewLookupMiss("partition", string(branch)+"/"+string(service))
	}
	return store.New(layout, s.logger), nil
}

// window reads the offset and limit query parameters.
func window(r *http.Request) (int, int, error) {
	offset, err := intParam(r, "offset")
	if err != nil {
		return 0, 0, err
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.NewSchemaError("query", name, "non-negative integer")
	}
	return n, nil
}
