package app

import (
	"strconv"
	"time"

	"github.com/panevka/nhsmongifyer/internal/cmd/output"
	"github.com/panevka/nhsmongifyer/internal/ingest"
	"github.com/panevka/nhsmongifyer/internal/merge"
	"github.com/panevka/nhsmongifyer/pkg/nfz"
)

// partitionView is the printable outcome of one partition.
type partitionView struct {
	Branch      string         `json:"branch" yaml:"branch"`
	Service     string         `json:"service_type" yaml:"service_type"`
	Year        int            `json:"year" yaml:"year"`
	Status      string         `json:"status" yaml:"status"`
	Pages       int            `json:"pages" yaml:"pages"`
	Agreements  int            `json:"agreements" yaml:"agreements"`
	Rejected    int            `json:"rejected" yaml:"rejected"`
	Providers   lookupView     `json:"providers" yaml:"providers"`
	Geo         lookupView     `json:"geo" yaml:"geo"`
	Collections []merge.Report `json:"collections,omitempty" yaml:"collections,omitempty"`
	Duration    string         `json:"duration" yaml:"duration"`
	Error       string         `json:"error,omitempty" yaml:"error,omitempty"`
}

type lookupView struct {
	Resolved   int `json:"resolved" yaml:"resolved"`
	Unresolved int `json:"unresolved" yaml:"unresolved"`
	Failed     int `json:"failed" yaml:"failed"`
}

// summaryView is the printable form of a RunSummary.
type summaryView struct {
	RunID      string          `json:"run_id" yaml:"run_id"`
	Duration   string          `json:"duration" yaml:"duration"`
	Partitions []partitionView `json:"partitions" yaml:"partitions"`
}

func newSummaryView(s *ingest.RunSummary) summaryView {
	view := summaryView{
		RunID:      s.RunID,
		Duration:   s.Duration.Round(time.Millisecond).String(),
		Partitions: make([]partitionView, 0, len(s.Partitions)),
	}
	for _, p := range s.Partitions {
		pv := partitionView{
			Branch:      p.Config.Branch.Name(),
			Service:     p.Config.ServiceType.Name(),
			Year:        p.Config.Year,
			Status:      p.Status.String(),
			Providers:   newLookupView(p.Providers),
			Geo:         newLookupView(p.Geo),
			Collections: p.Merge,
			Duration:    p.Duration.Round(time.Millisecond).String(),
		}
		if p.Harvest != nil {
			pv.Pages = p.Harvest.Pages
			pv.Agreements = p.Harvest.Records
			pv.Rejected = p.Harvest.Skipped
		}
		if p.Err != nil {
			pv.Error = p.Err.Error()
		}
		view.Partitions = append(view.Partitions, pv)
	}
	return view
}

func newLookupView(r *ingest.LookupReport) lookupView {
	if r == nil {
		return lookupView{}
	}
	return lookupView{Resolved: len(r.Resolved), Unresolved: len(r.Unresolved), Failed: len(r.Failed)}
}

func (l lookupView) String() string {
	return strconv.Itoa(l.Resolved) + "/" + strconv.Itoa(l.Unresolved) + "/" + strconv.Itoa(l.Failed)
}

// Table implements output.Tabular.
func (s summaryView) Table() output.Data {
	data := output.Data{
		Headers: []string{"BRANCH", "SERVICE", "YEAR", "STATUS", "PAGES", "AGREEMENTS", "REJECTED", "PROVIDERS", "GEO", "DURATION", "ERROR"},
	}
	for _, p := range s.Partitions {
		data.Rows = append(data.Rows, []string{
			p.Branch,
			p.Service,
			strconv.Itoa(p.Year),
			p.Status,
			strconv.Itoa(p.Pages),
			strconv.Itoa(p.Agreements),
			strconv.Itoa(p.Rejected),
			p.Providers.String(),
			p.Geo.String(),
			p.Duration,
			p.Error,
		})
	}
	return data
}

// enumEntry is one code/name pair of an enumeration.
type enumEntry struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

type enumView []enumEntry

func branchesView() enumView {
	view := enumView{}
	for _, b := range nfz.Branches() {
		view = append(view, enumEntry{Code: string(b), Name: b.Name()})
	}
	return view
}

func servicesView() enumView {
	view := enumView{}
	for _, s := range nfz.ServiceTypes() {
		view = append(view, enumEntry{Code: string(s), Name: s.Name()})
	}
	return view
}

// Table implements output.Tabular.
func (v enumView) Table() output.Data {
	data := output.Data{Headers: []string{"CODE", "NAME"}}
	for _, e := range v {
		data.Rows = append(data.Rows, []string{e.Code, e.Name})
	}
	return data
}
