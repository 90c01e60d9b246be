package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/graspsim/internal/session"
)

var ErrNoTrace = errors.New("storage: trace has no rows")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	TickRate   float64            `json:"tick_rate"`
	Ticks      int                `json:"ticks"`
	Integrator string             `json:"integrator"`
	Hands      int                `json:"hands"`
	Events     int                `json:"events"`
	Metrics    map[string]float64 `json:"metrics"`
}

// RunInfo is what the caller knows about a run beyond its result.
type RunInfo struct {
	Scenario   string
	Preset     string
	TickRate   float64
	Integrator string
}

func handColumns(i int) []string {
	p := fmt.Sprintf("h%d_", i)
	return []string{p + "x", p + "y", p + "z", p + "state", p + "held", p + "candidate", p + "error", p + "fingers"}
}

func format(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func meanOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// Save writes a run directory named <scenario>_<id8> holding metadata.json
// and trace.csv, and returns the run id.
func (s *Store) Save(info RunInfo, result *session.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s", info.Scenario, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	hands := 0
	if len(result.Samples) > 0 {
		hands = len(result.Samples[0].Hands)
	}
	meta := RunMetadata{
		ID:         runID,
		Scenario:   info.Scenario,
		Preset:     info.Preset,
		Timestamp:  time.Now(),
		TickRate:   info.TickRate,
		Ticks:      result.TicksTaken,
		Integrator: info.Integrator,
		Hands:      hands,
		Events:     len(result.Events),
		Metrics:    result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trace.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	header := []string{"tick", "time"}
	for i := 0; i < hands; i++ {
		header = append(header, handColumns(i)...)
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, sample := range result.Samples {
		row := []string{strconv.FormatUint(sample.Tick, 10), format(sample.Time)}
		for _, h := range sample.Hands {
			row = append(row,
				format(h.Position.X()), format(h.Position.Y()), format(h.Position.Z()),
				strconv.Itoa(int(h.State)), strconv.Itoa(int(h.Held)), strconv.Itoa(int(h.Candidate)),
				format(h.TrackingError), format(meanOf(h.Fingers)),
			)
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}

	return &meta, nil
}

// Trace is a loaded trace.csv, one row of values per tick.
type Trace struct {
	Header []string
	Rows   [][]float64
}

// Column returns the named column, or false if the trace has none.
func (t *Trace) Column(name string) ([]float64, bool) {
	idx := -1
	for i, h := range t.Header {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		}
	}
	return out, true
}

func (s *Store) LoadTrace(runID string) (*Trace, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trace.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrNoTrace, runID)
	}

	trace := &Trace{Header: records[0], Rows: make([][]float64, 0, len(records)-1)}
	for _, record := range records[1:] {
		row := make([]float64, 0, len(record))
		for _, field := range record {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s: %w", runID, err)
			}
			row = append(row, val)
		}
		trace.Rows = append(trace.Rows, row)
	}

	return trace, nil
}
