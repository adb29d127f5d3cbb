// Package store persists one partition's raw pages, resolved records and
// merged collections as JSON files. Writes are not safe for concurrent
// writers on the same partition.
package store

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/panevka/nhsmongifyer/internal/validation"
	"github.com/panevka/nhsmongifyer/pkg/constants"
	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/logging"
)

var pageFilePattern = regexp.MustCompile(`^Page(\d+)_limit(\d+)\.json$`)

// Store is the document store of one partition.
type Store struct {
	layout Layout
	logger *zerolog.Logger
}

// New creates a store for layout.
func New(layout Layout, logger *zerolog.Logger) *Store {
	return &Store{layout: layout, logger: logging.OrNop(logger)}
}

// Layout returns the paths of the partition.
func (s *Store) Layout() Layout {
	return s.layout
}

// Initialize creates the directory tree and empty seed files. Existing
// files are left alone.
func (s *Store) Initialize() error {
	for _, dir := range []string{s.layout.AgreementsDir(), s.layout.CollectionsDir()} {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapStorage("create", dir, err)
		}
	}
	for _, path := range s.layout.seedFiles() {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, constants.FilePermissions)
		if err != nil {
			return errors.WrapStorage("create", path, err)
		}
		if err := f.Close(); err != nil {
			return errors.WrapStorage("create", path, err)
		}
	}
	s.logger.Debug().Str("dir", s.layout.Dir()).Msg("Initialized partition storage")
	return nil
}

// SavePage writes the records of one page, replacing any earlier file.
func (s *Store) SavePage(records any, page, limit int) error {
	path := s.layout.PagePath(page, limit)
	if err := WriteJSON(path, records); err != nil {
		return err
	}
	s.logger.Debug().Int("page", page).Int("limit", limit).Str("path", path).Msg("Saved page")
	return nil
}

// AppendRecord appends record to the JSON array at path. A missing, empty
// or unreadable file counts as an empty array.
func (s *Store) AppendRecord(path string, record any) error {
	items := s.LoadArray(path)

	raw, err := json.Marshal(record)
	if err != nil {
		return errors.WrapStorage("encode", path, err)
	}
	items = append(items, raw)
	return WriteJSON(path, items)
}

// LoadArray reads the JSON array at path. Missing, empty, invalid or
// non-array content yields an empty slice and a warning.
func (s *Store) LoadArray(path string) []json.RawMessage {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(errors.WrapStorage("read", path, err)).Msg("Treating unreadable file as empty")
		}
		return []json.RawMessage{}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []json.RawMessage{}
	}

	var items []json.RawMessage
	err = json.Unmarshal(data, &items)
	if err == nil && items == nil {
		err = errors.New("not a JSON array")
	}
	if err != nil {
		s.logger.Warn().Err(errors.WrapStorage("decode", path, err)).Msg("Treating malformed file as empty")
		return []json.RawMessage{}
	}
	return items
}

// Page is a harvested page file.
type Page struct {
	Path   string
	Number int
	Limit  int
}

// ListPages enumerates page files in directory order. Files that do not
// follow the page naming scheme are ignored.
func (s *Store) ListPages() ([]Page, error) {
	dir := s.layout.AgreementsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.WrapStorage("list", dir, err)
	}

	pages := make([]Page, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pageFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			s.logger.Debug().Str("file", e.Name()).Msg("Skipping non-page file")
			continue
		}
		number, _ := strconv.Atoi(m[1])
		limit, _ := strconv.Atoi(m[2])
		pages = append(pages, Page{Path: filepath.Join(dir, e.Name()), Number: number, Limit: limit})
	}
	return pages, nil
}

// SortedPages returns ListPages ordered by page number.
func (s *Store) SortedPages() ([]Page, error) {
	pages, err := s.ListPages()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].Number != pages[j].Number {
			return pages[i].Number < pages[j].Number
		}
		return pages[i].Limit < pages[j].Limit
	})
	return pages, nil
}

// ReadRecords loads the array at path and keeps the elements that pass
// validation as T. Rejected elements are logged and skipped.
func ReadRecords[T any](s *Store, path string) []T {
	out := make([]T, 0)
	ScanRecords(s, path, func(_ int, v T, err error) {
		if err == nil {
			out = append(out, v)
		}
	})
	return out
}

// ScanRecords validates each element of the array at path as T and passes
// it to fn with the validation error, if any. It returns the number of
// rejected elements.
func ScanRecords[T any](s *Store, path string, fn func(index int, v T, err error)) int {
	rejected := 0
	for i, item := range s.LoadArray(path) {
		v, err := validation.Validate[T](item)
		if err != nil {
			rejected++
			s.logger.Warn().Err(err).Str("path", path).Int("index", i).Msg("Skipping invalid record")
		}
		fn(i, v, err)
	}
	return rejected
}

// WriteJSON writes v as indented JSON through a temporary file and rename.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return errors.WrapStorage("encode", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapStorage("create", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return errors.WrapStorage("write", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.WrapStorage("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapStorage("write", path, err)
	}
	if err := os.Chmod(tmpPath, constants.FilePermissions); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapStorage("write", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapStorage("write", path, err)
	}
	return nil
}
