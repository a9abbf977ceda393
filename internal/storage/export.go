package storage

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
)

// ExportData is the self-contained JSON form of a stored propagation.
type ExportData struct {
	Run     RunMetadata `json:"run"`
	Epochs  []string    `json:"epochs"`
	Elapsed []float64   `json:"elapsed_s"`
	States  [][]float64 `json:"states"`
}

// Export loads a stored run and writes it as indented JSON to w.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	data := ExportData{Run: *meta}

	if meta.Kind != KindMonteCarlo {
		samples, err := s.LoadStates(runID)
		if err != nil {
			return err
		}
		data.Epochs = make([]string, len(samples))
		data.Elapsed = make([]float64, len(samples))
		data.States = make([][]float64, len(samples))
		for i, sample := range samples {
			data.Epochs[i] = sample.Epoch.Format(time.RFC3339Nano)
			data.Elapsed[i] = sample.Epoch.Sub(samples[0].Epoch).Seconds()
			data.States[i] = sample.State
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(data), "encoding export")
}

// ExportJSON writes the export of runID to path.
func (s *Store) ExportJSON(path, runID string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()
	return s.Export(f, runID)
}
