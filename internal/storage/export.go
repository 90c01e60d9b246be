package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/graspsim/internal/session"
)

type EventRecord struct {
	Tick      uint64 `json:"tick"`
	Kind      string `json:"kind"`
	Hand      int    `json:"hand"`
	Side      string `json:"side"`
	Grabbable int    `json:"grabbable"`
	Error     string `json:"error,omitempty"`
}

type ExportData struct {
	Scenario string             `json:"scenario"`
	Ticks    int                `json:"ticks"`
	Events   []EventRecord      `json:"events"`
	Metrics  map[string]float64 `json:"metrics"`
}

// ExportJSON writes the event log and metrics of a run to w.
func ExportJSON(w io.Writer, scenario string, result *session.Result) error {
	data := ExportData{
		Scenario: scenario,
		Ticks:    result.TicksTaken,
		Events:   make([]EventRecord, len(result.Events)),
		Metrics:  result.Metrics,
	}
	for i, ev := range result.Events {
		data.Events[i] = EventRecord{
			Tick:      ev.Tick,
			Kind:      ev.Kind.String(),
			Hand:      int(ev.Hand),
			Side:      ev.Side.String(),
			Grabbable: int(ev.Grabbable),
		}
		if ev.Err != nil {
			data.Events[i].Error = ev.Err.Error()
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
