package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/valter-silva-au/drl-monitor/pkg/models"
)

// Table is a fully parsed CSV file.
type Table struct {
	Header []string
	Rows   []models.Row
}

// EnsureTable creates path with a header row if it does not exist yet.
// An existing file is left untouched, whatever its content.
func EnsureTable(path string, header []string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("creating table %s: %w", path, err)
	}
	return writeAndClose(f, path, header)
}

// AppendRow appends one record to path and syncs it to disk before returning.
// The file is opened and closed on every call so a concurrent reader that
// opens the file afterwards always sees the complete row.
func AppendRow(path string, record []string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("opening table %s for append: %w", path, err)
	}
	return writeAndClose(f, path, record)
}

// WriteTable replaces path with header followed by records.
func WriteTable(path string, header []string, records [][]string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("opening table %s for write: %w", path, err)
	}
	return writeAndClose(f, path, append([][]string{header}, records...)...)
}

func writeAndClose(f *os.File, path string, records ...[]string) (err error) {
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing table %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("writing table %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing table %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing table %s: %w", path, err)
	}
	return nil
}

// ReadTable parses the whole file in one pass. It returns nil, nil when the
// file does not exist and a table with no rows for a header-only file.
// Every data row must have as many fields as the header; a torn trailing row
// is reported as an error.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening table %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{Rows: []models.Row{}}, nil
		}
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	t := &Table{Header: header, Rows: []models.Row{}}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		row := make(models.Row, len(header))
		for i, col := range header {
			row[col] = rec[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
