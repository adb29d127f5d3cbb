package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/panevka/nhsmongifyer/pkg/collections"
	"github.com/panevka/nhsmongifyer/pkg/constants"
	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/nfz"
)

// File names inside a partition's Data directory.
const (
	ProvidersFile = "ProvidersData.json"
	GeoFile       = "ProvidersGeographicalData.json"
)

// Layout resolves the paths of one (branch, service) partition:
//
//	<root>/HealthCareData/SERVICE[<service>]/<branch>/
//	    Data/Agreements/Page<N>_limit<M>.json
//	    Data/ProvidersData.json
//	    Data/ProvidersGeographicalData.json
//	    Collections/<collection>.json
type Layout struct {
	Root    string
	Branch  nfz.Branch
	Service nfz.ServiceType
}

// NewLayout creates a layout under root.
func NewLayout(root string, branch nfz.Branch, service nfz.ServiceType) Layout {
	return Layout{Root: root, Branch: branch, Service: service}
}

// Dir is the partition directory.
func (l Layout) Dir() string {
	return filepath.Join(l.Root, constants.DataRoot, "SERVICE["+l.Service.Name()+"]", l.Branch.Name())
}

// DataDir holds raw harvested data.
func (l Layout) DataDir() string {
	return filepath.Join(l.Dir(), "Data")
}

// AgreementsDir holds one file per harvested page.
func (l Layout) AgreementsDir() string {
	return filepath.Join(l.DataDir(), "Agreements")
}

// CollectionsDir holds the merged output collections.
func (l Layout) CollectionsDir() string {
	return filepath.Join(l.Dir(), "Collections")
}

// ProvidersPath is the file of resolved providers.
func (l Layout) ProvidersPath() string {
	return filepath.Join(l.DataDir(), ProvidersFile)
}

// GeoPath is the file of geocoded providers.
func (l Layout) GeoPath() string {
	return filepath.Join(l.DataDir(), GeoFile)
}

// CollectionPath is the file of the given output collection.
func (l Layout) CollectionPath(kind collections.Kind) string {
	return filepath.Join(l.CollectionsDir(), kind.File())
}

// PagePath is the file of one harvested page.
func (l Layout) PagePath(page, limit int) string {
	return filepath.Join(l.AgreementsDir(), PageFileName(page, limit))
}

// PageFileName formats Page<N>_limit<M>.json.
func PageFileName(page, limit int) string {
	return fmt.Sprintf("Page%d_limit%d.json", page, limit)
}

// seedFiles are created empty by Initialize.
func (l Layout) seedFiles() []string {
	files := []string{l.ProvidersPath(), l.GeoPath()}
	for _, k := range collections.Kinds() {
		files = append(files, l.CollectionPath(k))
	}
	return files
}

// ListPartitions finds every partition directory under root. Directories
// whose names do not map to a known service or branch are ignored.
func ListPartitions(root string) ([]Layout, error) {
	base := filepath.Join(root, constants.DataRoot)
	services, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.WrapStorage("list", base, err)
	}

	var layouts []Layout
	for _, sdir := range services {
		name, ok := strings.CutPrefix(sdir.Name(), "SERVICE[")
		if !sdir.IsDir() || !ok {
			continue
		}
		service, ok := nfz.ParseServiceType(strings.TrimSuffix(name, "]"))
		if !ok {
			continue
		}
		branches, err := os.ReadDir(filepath.Join(base, sdir.Name()))
		if err != nil {
			return nil, errors.WrapStorage("list", filepath.Join(base, sdir.Name()), err)
		}
		for _, bdir := range branches {
			branch, ok := nfz.ParseBranch(bdir.Name())
			if !bdir.IsDir() || !ok {
				continue
			}
			layouts = append(layouts, NewLayout(root, branch, service))
		}
	}
	return layouts, nil
}
