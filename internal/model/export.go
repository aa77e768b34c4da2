package model

import (
	"bufio"
	"os"
	"strconv"
)

// writeData writes the dataset as plain text: one line per sample, feature
// values then outcome values, space separated, no trailing line terminator
// after the last sample.
func writeData(path string, samples, outcomes [][]float64) error {
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
		if err := writeRow(w, samples[i], outcomes[i]); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeRow(w *bufio.Writer, sample, outcome []float64) error {
	first := true
	for _, vals := range [][]float64{sample, outcome} {
		for _, v := range vals {
			if !first {
				if _, err := w.WriteString(" "); err != nil {
					return err
				}
			}
			first = false
			if _, err := w.WriteString(strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
				return err
			}
		}
	}
	return nil
}
