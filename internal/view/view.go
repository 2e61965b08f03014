// Package view formats the two metric screens shown by the rotation:
// GPU temperatures and GPU clock speeds.
package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"codeberg.org/mutker/hwoled/internal/errors"
	"codeberg.org/mutker/hwoled/internal/gamesense"
)

const ErrNotNumeric = errors.ErrorCode("view_not_numeric")

// Kind selects one of the rotating views.
type Kind int

const (
	Temperature Kind = iota
	ClockSpeed
)

func (k Kind) String() string {
	if k == ClockSpeed {
		return "clock"
	}
	return "temperature"
}

type layout struct {
	header string
	unit   string
	row1   string
	row2   string
}

var layouts = map[Kind]layout{
	Temperature: {header: "GPU  Temp  Avg.", unit: "°C", row1: "Mem ", row2: "Hot   "},
	ClockSpeed:  {header: "GPU  MHz  Avg.", unit: "", row1: "Clock", row2: "Mem  "},
}

// Pair is the current and average reading of one row, as reported by the
// telemetry source.
type Pair struct {
	Current string
	Average string
}

// Format builds the frame of kind from the two rows' readings. A reading that
// is not a number fails the whole frame.
func Format(kind Kind, a, b Pair) (gamesense.Frame, error) {
	l, ok := layouts[kind]
	if !ok {
		return nil, errors.New().WithData(errors.ErrInvalidArgument, fmt.Sprintf("unknown view %d", kind))
	}

	row1, err := formatRow(l.row1, l.unit, a)
	if err != nil {
		return nil, err
	}
	row2, err := formatRow(l.row2, l.unit, b)
	if err != nil {
		return nil, err
	}

	return gamesense.Frame{
		gamesense.KeyLabels: l.header,
		gamesense.KeyRow1:   row1,
		gamesense.KeyRow2:   row2,
	}, nil
}

func formatRow(label, unit string, p Pair) (string, error) {
	cur, err := ParseNumber(p.Current)
	if err != nil {
		return "", err
	}
	avg, err := ParseNumber(p.Average)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%s %s\t%s", label, unit, round(cur), round(avg)), nil
}

// ParseNumber parses a reading value. Surrounding blanks and a decimal comma
// are accepted.
func ParseNumber(s string) (float64, error) {
	v := strings.TrimSpace(s)
	if strings.Count(v, ",") == 1 && !strings.Contains(v, ".") {
		v = strings.Replace(v, ",", ".", 1)
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New().WithData(ErrNotNumeric, s)
	}

	return f, nil
}

// round formats v with no decimals, halves away from zero.
func round(v float64) string {
	r := math.Round(v)
	if r == 0 {
		r = 0 // drop the sign of -0
	}

	return strconv.FormatFloat(r, 'f', 0, 64)
}
