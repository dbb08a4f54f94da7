// Package tsv reads the study's tab-separated collaborator files (sample
// metadata, PCoA ordinations) and writes the persisted result tables.
package tsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/sample"
)

// DefaultIDColumn is the metadata column holding the sample label.
const DefaultIDColumn = "id"

// ReadMetadata parses a tab-separated metadata table into raw sample records.
// The first row must be a header naming idColumn; every other column is kept
// verbatim for the joiner to coerce.
func ReadMetadata(r io.Reader, name, idColumn string) ([]sample.Record, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, core.NewFormatError(name, 1, fmt.Sprintf("reading header: %v", err))
	}
	idIdx := -1
	for i, h := range header {
		if strings.TrimSpace(h) == idColumn {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		return nil, core.NewFormatError(name, 1, fmt.Sprintf("no %q column in header", idColumn))
	}

	var records []sample.Record
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, core.NewFormatError(name, line, err.Error())
		}
		if len(row) != len(header) {
			return nil, core.NewFormatError(name, line,
				fmt.Sprintf("%d fields, header has %d", len(row), len(header)))
		}
		id := strings.TrimSpace(row[idIdx])
		if id == "" {
			return nil, core.NewFormatError(name, line, "empty sample id")
		}
		values := make(map[string]string, len(header)-1)
		for i, h := range header {
			if i == idIdx {
				continue
			}
			values[strings.TrimSpace(h)] = strings.TrimSpace(row[i])
		}
		records = append(records, sample.Record{ID: core.SampleLabel(id), Values: values})
	}
	return records, nil
}

// ReadMetadataFile parses a metadata table from disk.
func ReadMetadataFile(path, idColumn string) ([]sample.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening metadata: %w", err)
	}
	defer f.Close()
	return ReadMetadata(f, path, idColumn)
}
