// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package ner

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Column names required in tabular input.
const (
	EntityColumn = "entity"
	TypeColumn   = "type"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// CSVOptions configures ReadCSV.
type CSVOptions struct {
	// Comma is the field delimiter, ',' when zero.
	Comma rune
}

type csvRow struct {
	Entity string `validate:"required"`
	Type   string `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ReadCSV reads entity records from delimited text with a header row.
//
// The entity and type columns are required (matched case insensitively); every
// other column ends up in EntityRecord.Source. A row with an empty entity or
// type is an error: records are never defaulted.
func ReadCSV(r io.Reader, opts CSVOptions) ([]EntityRecord, error) {
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading header: %w: %s", ErrMissingColumn, EntityColumn)
		}

		return nil, fmt.Errorf("reading header: %w", err)
	}

	entityIdx, typeIdx := -1, -1

	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case EntityColumn:
			entityIdx = i
		case TypeColumn:
			typeIdx = i
		}
	}

	if entityIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, EntityColumn)
	}

	if typeIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, TypeColumn)
	}

	var records []EntityRecord

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading records: %w", err)
		}

		line, _ := reader.FieldPos(0)

		row := csvRow{Entity: field(fields, entityIdx), Type: field(fields, typeIdx)}
		if err := validate.Struct(row); err != nil {
			return nil, fmt.Errorf("line %d: invalid record: %w", line, err)
		}

		source := make(map[string]string, len(header))

		for i, h := range header {
			if i == entityIdx || i == typeIdx {
				continue
			}

			source[strings.TrimSpace(h)] = field(fields, i)
		}

		records = append(records, EntityRecord{
			Name:   row.Entity,
			Type:   row.Type,
			Source: source,
		})
	}

	return records, nil
}

func field(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}

	return strings.TrimSpace(fields[i])
}
