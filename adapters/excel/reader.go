package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golifetime/domain/core"
	"golifetime/domain/lifedata"
	"golifetime/internal/errors"
	"golifetime/ports"

	"github.com/xuri/excelize/v2"
)

// DataReader reads lifetime observations from Excel and CSV files.
//
// Expected layout: a header row naming a characteristic column and a status
// column, plus an optional id column. Status cells accept f/s, failed /
// suspended, true/false, or 1/0. A cell that parses as none of these is an
// error; rows are never silently dropped.
type DataReader struct{}

var _ ports.ObservationReader = (*DataReader)(nil)

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader() *DataReader {
	return &DataReader{}
}

// ReadObservations reads a sample from the file at path, dispatching on the
// file extension.
func (r *DataReader) ReadObservations(ctx context.Context, path string) (lifedata.Sample, error) {
	if err := ctx.Err(); err != nil {
		return lifedata.Sample{}, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return lifedata.Sample{}, fmt.Errorf("observation file not found: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	log.Printf("[DataReader] Reading %s observations from %s", ext, path)

	switch ext {
	case ".csv":
		return r.readCSV(path)
	case ".xlsx", ".xlsm":
		return r.readWorkbook(path)
	default:
		return lifedata.Sample{}, errors.DataFormat(fmt.Sprintf("unsupported file type %q (want .csv, .xlsx, or .xlsm)", ext))
	}
}

func (r *DataReader) readWorkbook(path string) (lifedata.Sample, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return lifedata.Sample{}, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	// Always use Sheet1
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return lifedata.Sample{}, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	log.Printf("[DataReader] Sheet1 read (%d rows)", len(rows))

	return r.parseRows(rows)
}

func (r *DataReader) readCSV(path string) (lifedata.Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return lifedata.Sample{}, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return lifedata.Sample{}, errors.Wrap(err, "failed to read CSV file")
	}
	log.Printf("[DataReader] CSV file read (%d rows)", len(rows))

	return r.parseRows(rows)
}

// parseRows converts raw string rows into a validated sample.
func (r *DataReader) parseRows(rows [][]string) (lifedata.Sample, error) {
	if len(rows) < 2 {
		return lifedata.Sample{}, errors.DataFormat("observation file must have a header row and at least one data row")
	}

	layout, err := resolveColumns(rows[0])
	if err != nil {
		return lifedata.Sample{}, err
	}

	var observations []lifedata.Observation
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}

		obs, err := layout.parseRow(row)
		if err != nil {
			return lifedata.Sample{}, errors.Wrapf(err, "row %d", i+1)
		}
		observations = append(observations, obs)
	}

	sample, err := lifedata.NewSample(observations)
	if err != nil {
		return lifedata.Sample{}, err
	}
	log.Printf("[DataReader] Parsed %d observations (%d failures, %d censored)",
		sample.Size(), sample.FailureCount(), sample.CensoredCount())
	return sample, nil
}

// columnLayout records which header position holds which field.
type columnLayout struct {
	id             int // -1 when absent
	characteristic int
	status         int
}

var characteristicHeaders = []string{"characteristic", "lifetime", "time", "cycles", "hours", "distance"}
var statusHeaders = []string{"status", "event", "state", "failure"}
var idHeaders = []string{"id", "unit", "serial", "item"}

func resolveColumns(header []string) (columnLayout, error) {
	layout := columnLayout{id: -1, characteristic: -1, status: -1}
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case layout.id < 0 && matchesHeader(name, idHeaders):
			layout.id = i
		case layout.characteristic < 0 && matchesHeader(name, characteristicHeaders):
			layout.characteristic = i
		case layout.status < 0 && matchesHeader(name, statusHeaders):
			layout.status = i
		}
	}

	if layout.characteristic < 0 {
		return layout, errors.DataFormat("no characteristic column found (accepted headers: " + strings.Join(characteristicHeaders, ", ") + ")")
	}
	if layout.status < 0 {
		return layout, errors.DataFormat("no status column found (accepted headers: " + strings.Join(statusHeaders, ", ") + ")")
	}
	return layout, nil
}

func matchesHeader(name string, accepted []string) bool {
	for _, candidate := range accepted {
		if name == candidate {
			return true
		}
	}
	return false
}

func (l columnLayout) parseRow(row []string) (lifedata.Observation, error) {
	characteristic, err := l.cell(row, l.characteristic)
	if err != nil {
		return lifedata.Observation{}, err
	}
	value, err := strconv.ParseFloat(characteristic, 64)
	if err != nil {
		return lifedata.Observation{}, errors.DataFormat(fmt.Sprintf("characteristic %q is not numeric", characteristic))
	}

	status, err := l.cell(row, l.status)
	if err != nil {
		return lifedata.Observation{}, err
	}
	failure, err := parseEventFlag(status)
	if err != nil {
		return lifedata.Observation{}, err
	}

	obs := lifedata.NewObservation(value, failure)
	if l.id >= 0 && l.id < len(row) {
		if id := strings.TrimSpace(row[l.id]); id != "" {
			obs.ID = core.ObservationID(id)
		}
	}
	return obs, nil
}

func (l columnLayout) cell(row []string, index int) (string, error) {
	if index >= len(row) {
		return "", errors.DataFormat(fmt.Sprintf("missing cell in column %d", index+1))
	}
	value := strings.TrimSpace(row[index])
	if value == "" {
		return "", errors.DataFormat(fmt.Sprintf("empty cell in column %d", index+1))
	}
	return value, nil
}

// parseEventFlag maps the status vocabulary onto failure/censored.
func parseEventFlag(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "f", "failed", "failure", "1", "true", "t", "yes":
		return true, nil
	case "s", "suspended", "suspension", "censored", "survived", "0", "false", "no":
		return false, nil
	default:
		return false, errors.DataFormat(fmt.Sprintf("status %q is neither a failure nor a suspension marker", value))
	}
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
