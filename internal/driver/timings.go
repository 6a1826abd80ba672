package driver

import (
	"encoding/json"
	"fmt"

	"veq/internal/diag"
	"veq/internal/observ"
	"veq/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Unit    string               `json:"unit,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// AppendTimingDiagnostic records the timer's phase report as an info
// diagnostic so every output format carries it. The machine-readable
// payload travels in a note.
func AppendTimingDiagnostic(bag *diag.Bag, unitName string, timer *observ.Timer) {
	if bag == nil || timer == nil {
		return
	}
	report := timer.Report()
	payload := timingPayload{
		Kind:    "analysis",
		Unit:    unitName,
		TotalMS: report.TotalMS,
		Phases:  report.Phases,
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if payload.Unit != "" {
		msg = fmt.Sprintf("%s for unit %s", msg, payload.Unit)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  msg,
		Primary:  source.Span{},
		Notes: []diag.Note{
			{Span: source.Span{}, Msg: string(data)},
		},
	}

	if bag.Add(entry) {
		return
	}
	// Full bag: grow past the cap so the report is never dropped.
	overflow := diag.NewBag(bag.Len() + 1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
