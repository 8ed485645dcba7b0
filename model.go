package holt

import (
	"fmt"
	"io"
	"time"

	"github.com/aouyang1/go-holt/gridsearch"
	"github.com/aouyang1/go-holt/score"
	"github.com/aouyang1/go-holt/smoothing"
)

// Model represents a serializeable format of a fit forecaster storing the options, the chosen
// smoothing parameters, fit scores, and the level and trend at the final training point
type Model struct {
	Options      *Options           `json:"options"`
	Params       smoothing.Params   `json:"params"`
	Search       *gridsearch.Result `json:"search,omitempty"`
	Scores       *score.Scores      `json:"scores"`
	Level        float64            `json:"level"`
	Trend        float64            `json:"trend"`
	TrainEndTime time.Time          `json:"train_end_time"`
	Interval     time.Duration      `json:"interval"`
}

// TablePrint writes a human readable summary of the model
func (m Model) TablePrint(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Holt:\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%sTraining End Time: %s\n", indentExpand("  ", 1), m.TrainEndTime); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%sInterval: %s\n", indentExpand("  ", 1), m.Interval); err != nil {
		return err
	}
	if m.Options != nil && m.Options.SmoothingOptions != nil {
		if _, err := fmt.Fprintf(w, "%sInitial Trend: %s\n", indentExpand("  ", 1), m.Options.SmoothingOptions.InitialTrend); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%sParams:\n%sAlpha: %.3f    Beta: %.3f\n",
		indentExpand("  ", 1), indentExpand("  ", 2),
		m.Params.Alpha, m.Params.Beta); err != nil {
		return err
	}

	if m.Search != nil {
		if _, err := fmt.Fprintf(w, "%sGrid Search:\n%sEvaluated: %d    MSE: %.3f\n",
			indentExpand("  ", 1), indentExpand("  ", 2),
			m.Search.Evaluated, m.Search.MSE); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "%sFinal State:\n%sLevel: %.3f    Trend: %.3f    Next: %.3f\n",
		indentExpand("  ", 1), indentExpand("  ", 2),
		m.Level, m.Trend, smoothing.ForecastNext(m.Level, m.Trend)); err != nil {
		return err
	}

	if m.Scores != nil {
		if _, err := fmt.Fprintf(w, "Scores:\n%sMAPE: %.3f    MSE: %.3f    R2: %.3f\n",
			indentExpand("  ", 1),
			m.Scores.MAPE,
			m.Scores.MSE,
			m.Scores.R2,
		); err != nil {
			return err
		}
	}
	return nil
}

func indentExpand(indent string, growth int) string {
	indentByte := []byte(indent)
	out := make([]byte, 0, len(indent)*growth)
	for i := 0; i < growth; i++ {
		out = append(out, indentByte...)
	}
	return string(out)
}
