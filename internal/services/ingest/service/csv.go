// Package service reads feed files into raw tables
package service

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"time"

	"golang.org/x/text/encoding/unicode"

	perr "salesdw/internal/platform/errors"
	"salesdw/internal/platform/logger"
	"salesdw/internal/platform/tabular"
	"salesdw/internal/services/ingest/domain"
)

// Service is the public ingest port
type Service interface{ domain.SourcePort }

// CSVSource reads a local CSV feed. A UTF-8 BOM is tolerated, field
// counts are enforced by the csv reader
type CSVSource struct {
	log logger.Logger
}

// New constructs the CSV source
func New(log logger.Logger) *CSVSource {
	return &CSVSource{log: log.With().Str("component", "ingest").Logger()}
}

// Read loads path into a table of raw string columns. The header row
// supplies column names exactly as written; empty cells become nulls
func (s *CSVSource) Read(_ context.Context, path string) (*tabular.Table, error) {
	start := time.Now()
	t, err := s.readFile(path)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("path", path).
		Int("rows", t.NumRows()).
		Int("cols", t.NumCols()).
		Dur("elapsed", time.Since(start)).
		Msg("feed read")
	return t, nil
}

func (s *CSVSource) readFile(path string) (*tabular.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "open feed %s", path)
	}
	defer func() { _ = f.Close() }()

	// strip the BOM some spreadsheet exports prepend
	dec := unicode.UTF8BOM.NewDecoder()
	r := csv.NewReader(dec.Reader(f))
	r.TrimLeadingSpace = false

	header, err := r.Read()
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "read header of %s", path)
	}

	cols := make([][]tabular.Value, len(header))
	rows := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "read %s row %d", path, rows+2)
		}
		for i, cell := range rec {
			if cell == "" {
				cols[i] = append(cols[i], tabular.Null(tabular.KindString))
				continue
			}
			cols[i] = append(cols[i], tabular.String(cell))
		}
		rows++
	}

	t, err := tabular.New()
	if err != nil {
		return nil, err
	}
	for i, name := range header {
		if err := t.AddCol(tabular.Column{Name: name, Kind: tabular.KindString, Vals: cols[i]}); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "feed %s", path)
		}
	}
	return t, nil
}
