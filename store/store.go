package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/Rituraj200000/googlemapscraper/models"
)

// Store is the append-only record file plus its identity-key index.
//
// The file is the authoritative log; the SeenSet is rebuilt from it every
// time a Store is opened and is never trusted across runs. A Store has a
// single writer and is not safe for concurrent use.
type Store struct {
	path     string
	file     *os.File
	writer   *csv.Writer
	columns  []string
	seen     *SeenSet
	accepted int
}

// Open opens (or creates) the record file at path and loads the keys of
// every row already in it.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storeErr("create record directory", err)
		}
	}

	s := &Store{path: path, columns: models.RecordColumns, seen: NewSeenSet()}

	info, statErr := os.Stat(path)
	switch {
	case statErr == nil && info.Size() > 0:
		head, err := ReadHeader(path)
		if err != nil {
			return nil, err
		}
		if len(head) > 0 {
			s.columns = head
		}
		if !slices.Equal(s.columns, models.RecordColumns) {
			slog.Warn("record file has a non-standard header, appending in its layout",
				"path", path, "columns", s.columns)
		}
		seen, err := s.Load()
		if err != nil {
			return nil, err
		}
		s.seen = seen
	case statErr != nil && !errors.Is(statErr, os.ErrNotExist):
		return nil, storeErr("stat record file", statErr)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, storeErr("open record file", err)
	}
	s.file = f
	s.writer = csv.NewWriter(f)

	if statErr != nil || info.Size() == 0 {
		if err := s.writeRow(models.RecordColumns); err != nil {
			f.Close()
			return nil, err
		}
	}

	slog.Info("record store opened", "path", path, "known", s.seen.Len())
	return s, nil
}

// Load reads every persisted row and returns the set of their identity keys.
// Rows missing columns are keyed with NotAvailable for the missing fields.
func (s *Store) Load() (*SeenSet, error) {
	records, err := ReadAll(s.path)
	if err != nil {
		return nil, err
	}
	seen := NewSeenSet()
	for _, r := range records {
		seen.Add(r.Key())
	}
	return seen, nil
}

// Append persists rec unless its key is already known. It reports whether
// the record was written. Rows follow the header already in the file, so a
// later Load reads back the same key. Every accepted row is flushed and
// synced before Append returns.
func (s *Store) Append(rec models.Record) (bool, error) {
	key := rec.Key()
	if s.seen.Has(key) {
		slog.Debug("skipping duplicate", "name", rec.Name)
		return false, nil
	}
	if err := s.writeRow(rec.Project(s.columns)); err != nil {
		return false, err
	}
	s.seen.Add(key)
	s.accepted++
	slog.Info("saved place", "n", s.accepted, "name", rec.Name)
	return true, nil
}

// Seen reports whether k is already persisted.
func (s *Store) Seen(k models.Key) bool {
	return s.seen.Has(k)
}

// SeenListing reports whether a card showing k was already persisted. The
// card shows a short address while the stored record carries the longer
// detail-pane address, so a stored address that continues the card's
// address after a comma also matches.
func (s *Store) SeenListing(k models.Key) bool {
	return s.seen.HasListing(k)
}

// Columns returns the header rows are written under.
func (s *Store) Columns() []string {
	return s.columns
}

// Len returns the number of known keys, including those from prior runs.
func (s *Store) Len() int {
	return s.seen.Len()
}

// Accepted returns how many records this Store has written.
func (s *Store) Accepted() int {
	return s.accepted
}

// Path returns the record file path.
func (s *Store) Path() string {
	return s.path
}

// Close flushes and closes the record file.
func (s *Store) Close() error {
	if s.file == nil {
		return nil
	}
	s.writer.Flush()
	err := errors.Join(s.writer.Error(), s.file.Close())
	s.file = nil
	if err != nil {
		return storeErr("close record file", err)
	}
	return nil
}

func (s *Store) writeRow(row []string) error {
	if err := s.writer.Write(row); err != nil {
		return storeErr("write row", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return storeErr("flush row", err)
	}
	if err := s.file.Sync(); err != nil {
		return storeErr("sync record file", err)
	}
	return nil
}

// ReadAll parses the record file at path. The header row decides which
// column holds which field; unknown columns are ignored and absent ones
// read as NotAvailable.
func ReadAll(path string) ([]models.Record, error) {
	rows, header, err := readRows(path)
	if err != nil {
		return nil, err
	}
	out := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.RecordFromFields(lookup(header, row)))
	}
	return out, nil
}

// ReadHeader returns the header row of the file at path, or nil for an
// empty file.
func ReadHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, storeErr("open "+path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	head, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("read header", err)
	}
	return head, nil
}

// ReadColumn returns every value of the named column in file order. It
// returns nil when the file or the column does not exist.
func ReadColumn(path, col string) ([]string, error) {
	rows, header, err := readRows(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	idx, ok := header[col]
	if !ok {
		return nil, nil
	}
	var out []string
	for _, row := range rows {
		if idx < len(row) {
			out = append(out, row[idx])
		}
	}
	return out, nil
}

func readRows(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, storeErr("open "+path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	head, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, map[string]int{}, nil
	}
	if err != nil {
		return nil, nil, storeErr("read header", err)
	}
	header := make(map[string]int, len(head))
	for i, name := range head {
		header[name] = i
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, storeErr(fmt.Sprintf("read row %d", len(rows)+2), err)
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

func lookup(header map[string]int, row []string) func(string) (string, bool) {
	return func(col string) (string, bool) {
		i, ok := header[col]
		if !ok || i >= len(row) {
			return "", false
		}
		return row[i], true
	}
}

func storeErr(msg string, err error) error {
	return models.NewScrapeError(models.ErrCodeStore, msg, err)
}
