package enrich

import (
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Rituraj200000/googlemapscraper/models"
	"github.com/Rituraj200000/googlemapscraper/store"
)

// OutputColumns is the header of the enriched file: the record columns
// followed by the emails column.
var OutputColumns = append(slices.Clone(models.RecordColumns), models.ColEmails)

// Output is the append-only enriched CSV file. Every row is flushed as soon
// as it is written so an interrupted run keeps what it found.
type Output struct {
	path   string
	file   *os.File
	writer  *csv.Writer
	columns []string
	rows    int
}

// OpenOutput opens (or creates) the enriched file at path, writing the
// header when the file is new or empty.
func OpenOutput(path string) (*Output, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, outputErr("create output directory", err)
		}
	}

	info, statErr := os.Stat(path)
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return nil, outputErr("stat output file", statErr)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, outputErr("open output file", err)
	}
	o := &Output{path: path, file: f, writer: csv.NewWriter(f), columns: OutputColumns}

	if statErr == nil && info.Size() > 0 {
		head, err := store.ReadHeader(path)
		if err != nil {
			f.Close()
			return nil, err
		}
		if len(head) > 0 {
			o.columns = head
		}
	}
	if statErr != nil || info.Size() == 0 {
		if err := o.writeRow(OutputColumns); err != nil {
			f.Close()
			return nil, err
		}
	}
	return o, nil
}

// Write appends rec with its emails. An empty list is written as
// NotAvailable.
func (o *Output) Write(rec models.Record, emails []string) error {
	cell := models.NotAvailable
	if len(emails) > 0 {
		cell = strings.Join(emails, EmailSeparator)
	}
	row := rec.Project(o.columns)
	for i, col := range o.columns {
		if col == models.ColEmails {
			row[i] = cell
		}
	}
	if err := o.writeRow(row); err != nil {
		return err
	}
	o.rows++
	return nil
}

// Rows returns how many records this Output has written.
func (o *Output) Rows() int { return o.rows }

// Path returns the output file path.
func (o *Output) Path() string { return o.path }

// Close flushes and closes the output file.
func (o *Output) Close() error {
	if o.file == nil {
		return nil
	}
	o.writer.Flush()
	err := errors.Join(o.writer.Error(), o.file.Close())
	o.file = nil
	if err != nil {
		return outputErr("close output file", err)
	}
	return nil
}

func (o *Output) writeRow(row []string) error {
	if err := o.writer.Write(row); err != nil {
		return outputErr("write row", err)
	}
	o.writer.Flush()
	if err := o.writer.Error(); err != nil {
		return outputErr("flush row", err)
	}
	return nil
}

// LoadSeenEmails seeds an EmailSet from the emails column of an existing
// output file, so a rerun does not report the same addresses again. A
// missing file or column yields an empty set.
func LoadSeenEmails(path string) (*EmailSet, error) {
	cells, err := store.ReadColumn(path, models.ColEmails)
	if err != nil {
		return nil, err
	}
	set := NewEmailSet()
	set.SeedFromColumn(cells)
	if set.Len() > 0 {
		slog.Info("loaded known emails", "path", path, "count", set.Len())
	}
	return set, nil
}

// LoadEnriched returns the keys of the records already in the output file
// at path. A missing file yields an empty set.
func LoadEnriched(path string) (*store.SeenSet, error) {
	keys := store.NewSeenSet()
	records, err := store.ReadAll(path)
	if errors.Is(err, os.ErrNotExist) {
		return keys, nil
	}
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		keys.Add(r.Key())
	}
	return keys, nil
}

func outputErr(msg string, err error) error {
	return models.NewScrapeError(models.ErrCodeStore, msg, err)
}
