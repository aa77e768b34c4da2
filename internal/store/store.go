// Package store handles dataset persistence: binary matrix snapshots for
// offline reloading and whitespace-text observation files for the CLI.
//
// The binary snapshot layout is two little-endian int64 values (rows, then
// columns) followed by rows*columns little-endian float64 values in
// row-major order. Each row is one sample: feature values (state then
// action) followed by outcome values.
package store

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/dynlearn/internal/model"
)

// ErrBadLayout indicates a snapshot or observation file whose shape does
// not match what was requested.
var ErrBadLayout = errors.New("store: file layout mismatch")

// WriteBinary writes samples and outcomes as one binary snapshot matrix,
// each row holding the feature values followed by the outcome values.
func WriteBinary(path string, samples, outcomes [][]float64) error {
	if len(samples) == 0 || len(samples) != len(outcomes) {
		return fmt.Errorf("%w: %d samples vs %d outcomes", ErrBadLayout, len(samples), len(outcomes))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	rows := int64(len(samples))
	cols := int64(len(samples[0]) + len(outcomes[0]))
	if err := binary.Write(w, binary.LittleEndian, rows); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, cols); err != nil {
		return err
	}

	for i := range samples {
		if int64(len(samples[i])+len(outcomes[i])) != cols {
			return fmt.Errorf("%w: ragged row %d", ErrBadLayout, i)
		}
		if err := binary.Write(w, binary.LittleEndian, samples[i]); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, outcomes[i]); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteText writes samples and outcomes as whitespace text, one sample
// per line, feature values then outcome values, with no trailing line
// terminator after the last sample.
func WriteText(path string, samples, outcomes [][]float64) error {
	if len(samples) == 0 || len(samples) != len(outcomes) {
		return fmt.Errorf("%w: %d samples vs %d outcomes", ErrBadLayout, len(samples), len(outcomes))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := range samples {
		if i != 0 {
			if _, err := w.WriteString("\n"); err != nil {
				return err
			}
		}
		fields := make([]string, 0, len(samples[i])+len(outcomes[i]))
		for _, v := range samples[i] {
			fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
		}
		for _, v := range outcomes[i] {
			fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if _, err := w.WriteString(strings.Join(fields, " ")); err != nil {
			return err
		}
	}
	return w.Flush()
}

// BinarySnapshot returns a model.SnapshotWriter persisting to path.
func BinarySnapshot(path string) model.SnapshotWriter {
	return func(samples, outcomes [][]float64) error {
		return WriteBinary(path, samples, outcomes)
	}
}

// ReadBinary loads a binary snapshot back into a dense row matrix.
func ReadBinary(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var rows, cols int64
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &cols); err != nil {
		return nil, err
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d header", ErrBadLayout, rows, cols)
	}

	data := make([][]float64, rows)
	for i := range data {
		data[i] = make([]float64, cols)
		if err := binary.Read(r, binary.LittleEndian, data[i]); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// Split separates a dense snapshot matrix back into sample and outcome
// matrices given the feature dimensionality.
func Split(data [][]float64, featureDim int) (samples, outcomes [][]float64, err error) {
	samples = make([][]float64, len(data))
	outcomes = make([][]float64, len(data))
	for i, row := range data {
		if len(row) <= featureDim {
			return nil, nil, fmt.Errorf("%w: row %d has %d columns, need more than %d",
				ErrBadLayout, i, len(row), featureDim)
		}
		samples[i] = append([]float64(nil), row[:featureDim]...)
		outcomes[i] = append([]float64(nil), row[featureDim:]...)
	}
	return samples, outcomes, nil
}

// ReadObservations parses a whitespace-text dataset: one row per
// observation with state, action, and outcome values in order.
func ReadObservations(path string, stateDim, actionDim, predDim int) ([]model.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	want := stateDim + actionDim + predDim
	var observations []model.Observation

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != want {
			return nil, fmt.Errorf("%w: line %d has %d values, expected %d", ErrBadLayout, line, len(fields), want)
		}

		vals := make([]float64, want)
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("store: line %d: %w", line, err)
			}
			vals[i] = v
		}

		observations = append(observations, model.Observation{
			State:   vals[:stateDim],
			Action:  vals[stateDim : stateDim+actionDim],
			Outcome: vals[stateDim+actionDim:],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return observations, nil
}
