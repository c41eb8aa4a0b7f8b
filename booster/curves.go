package booster

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/tarstars/forust/pkg/errors"
)

// LearningCurves holds the loss of every evaluation set after every tree.
// Values[i][j] is the loss of set Titles[j] once tree i was added.
type LearningCurves struct {
	Titles []string    `json:"titles"`
	Values [][]float64 `json:"values"`
}

// Curve returns the losses recorded for the named set.
func (lc LearningCurves) Curve(name string) ([]float64, bool) {
	col := -1
	for j, title := range lc.Titles {
		if title == name {
			col = j
			break
		}
	}
	if col < 0 {
		return nil, false
	}
	curve := make([]float64, len(lc.Values))
	for i, row := range lc.Values {
		curve[i] = row[col]
	}
	return curve, true
}

// WriteJSON writes the curves as an indented JSON document.
func (lc LearningCurves) WriteJSON(w io.Writer) error {
	raw, err := json.MarshalIndent(lc, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode learning curves")
	}
	if _, err := w.Write(raw); err != nil {
		return errors.Wrapf(err, "write learning curves")
	}
	return nil
}

func (lc LearningCurves) clone() LearningCurves {
	out := LearningCurves{
		Titles: append([]string(nil), lc.Titles...),
		Values: make([][]float64, len(lc.Values)),
	}
	for i, row := range lc.Values {
		out.Values[i] = append([]float64(nil), row...)
	}
	return out
}
