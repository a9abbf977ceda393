package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/montecarlo"
	"github.com/san-kum/astroprop/internal/propagator"
)

const (
	KindPropagation = "propagation"
	KindMonteCarlo  = "montecarlo"

	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	finalsFile   = "finals.csv"
)

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return errors.Wrapf(os.MkdirAll(s.baseDir, 0755), "creating store %s", s.baseDir)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID          string             `json:"id"`
	Kind        string             `json:"kind"`
	Scenario    string             `json:"scenario"`
	Timestamp   time.Time          `json:"timestamp"`
	Body        string             `json:"body"`
	Forces      []string           `json:"forces"`
	Method      string             `json:"method"`
	Epoch       time.Time          `json:"epoch"`
	Target      time.Time          `json:"target"`
	Samples     int                `json:"samples"`
	Steps       int                `json:"steps,omitempty"`
	Rejections  int                `json:"rejections,omitempty"`
	Evaluations int                `json:"evaluations,omitempty"`
	ElapsedMs   float64            `json:"elapsed_ms"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Seed        int64              `json:"seed,omitempty"`
	Summary     *BatchSummary      `json:"summary,omitempty"`
}

// BatchSummary is the stored form of montecarlo.Summary.
type BatchSummary struct {
	Requested  int       `json:"requested"`
	Runs       int       `json:"runs"`
	Failed     int       `json:"failed"`
	Mean       []float64 `json:"mean"`
	StdDev     []float64 `json:"std_dev"`
	RadiusMean float64   `json:"radius_mean"`
	RadiusStd  float64   `json:"radius_std"`
	RadiusMax  float64   `json:"radius_max"`
}

func newID() string { return uuid.NewString() }

// Save writes the metadata and every sample of res. ID, Kind, Timestamp and
// the result statistics are filled in; the rest of meta is stored as given.
func (s *Store) Save(meta RunMetadata, res *propagator.Result) (string, error) {
	meta.ID = newID()
	meta.Kind = KindPropagation
	meta.Timestamp = time.Now().UTC()
	meta.Method = res.Method
	meta.Samples = res.Len()
	meta.Steps = res.Stats.Steps
	meta.Rejections = res.Stats.Rejections
	meta.Evaluations = res.Stats.Evaluations
	meta.ElapsedMs = float64(res.Elapsed.Microseconds()) / 1000
	if res.Len() > 0 {
		meta.Epoch = res.Initial().Epoch
		meta.Target = res.Final().Epoch
	}

	runDir, err := s.createRunDir(meta.ID)
	if err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), res); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// SaveBatch stores a Monte Carlo batch: the summary in the metadata and one
// row per executed run in finals.csv.
func (s *Store) SaveBatch(meta RunMetadata, batch *montecarlo.Batch) (string, error) {
	meta.ID = newID()
	meta.Kind = KindMonteCarlo
	meta.Timestamp = time.Now().UTC()
	meta.Samples = batch.Len()

	sum := batch.Summary()
	meta.Summary = &BatchSummary{
		Requested:  batch.Requested,
		Runs:       sum.Runs,
		Failed:     sum.Failed,
		Mean:       sum.Mean,
		StdDev:     sum.StdDev,
		RadiusMean: sum.RadiusMean,
		RadiusStd:  sum.RadiusStd,
		RadiusMax:  sum.RadiusMax,
	}

	runDir, err := s.createRunDir(meta.ID)
	if err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeFinals(filepath.Join(runDir, finalsFile), batch); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *Store) createRunDir(id string) (string, error) {
	runDir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrapf(err, "creating run directory %s", runDir)
	}
	return runDir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return errors.Wrapf(enc.Encode(v), "encoding %s", path)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func writeStates(path string, res *propagator.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if res.Len() == 0 {
		w.Flush()
		return w.Error()
	}

	header := []string{"epoch", "elapsed_s"}
	for i := range res.Initial().State {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	start := res.Initial().Epoch
	for _, sample := range res.Samples {
		row := make([]string, 0, len(header))
		row = append(row, sample.Epoch.Format(time.RFC3339Nano), formatFloat(sample.Epoch.Sub(start).Seconds()))
		for _, v := range sample.State {
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, "writing state")
		}
	}
	w.Flush()
	return errors.Wrapf(w.Error(), "writing %s", path)
}

func writeFinals(path string, batch *montecarlo.Batch) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	dim := 0
	if batch.Len() > 0 {
		dim = len(batch.Runs[0].Initial)
	}
	header := []string{"run", "seed", "error"}
	for i := 0; i < dim; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	for _, r := range batch.Runs {
		row := []string{strconv.Itoa(r.Index), strconv.FormatInt(r.Seed, 10), ""}
		if r.Succeeded() {
			for _, v := range r.Result.Final().State {
				row = append(row, formatFloat(v))
			}
		} else {
			row[2] = r.Err.Error()
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, "writing run")
		}
	}
	w.Flush()
	return errors.Wrapf(w.Error(), "writing %s", path)
}

// List returns the stored runs, newest first. Unreadable entries are
// skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, errors.Wrapf(err, "listing %s", s.baseDir)
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, metadataFile)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, errors.Wrapf(err, "loading run %s", runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decoding run %s", runID)
	}
	return &meta, nil
}

// LoadStates reads back the samples of a propagation run.
func (s *Store) LoadStates(runID string) ([]propagator.Sample, error) {
	csvPath := filepath.Join(s.baseDir, runID, statesFile)
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, errors.Wrapf(err, "loading states of %s", runID)
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", csvPath)
	}
	if len(records) < 2 {
		return []propagator.Sample{}, nil
	}

	samples := make([]propagator.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		epoch, err := time.Parse(time.RFC3339Nano, record[0])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d epoch", i+1)
		}
		state := make(dynamo.State, 0, len(record)-2)
		for j := 2; j < len(record); j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %d", i+1, j)
			}
			state = append(state, v)
		}
		samples = append(samples, propagator.Sample{Epoch: epoch, State: state})
	}
	return samples, nil
}
