// Package export writes digitization results in the formats downstream
// tools consume: long-format sample CSV, polynomial coefficient CSV and a
// PNG preview plot.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ironsheep/pump-curve-digitizer/internal/digitizer"
)

// SampleHeader is the header row of WriteSamplesCSV.
var SampleHeader = []string{"curve", "x_axis", "y_axis", "x", "y", "flag"}

// WriteSamplesCSV writes one row per curve sample. Unavailable samples
// have an empty y column.
func WriteSamplesCSV(w io.Writer, res *digitizer.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SampleHeader); err != nil {
		return err
	}
	for _, c := range res.Curves {
		for _, s := range c.Samples {
			y := ""
			if s.Y != nil {
				y = formatFloat(*s.Y)
			}
			row := []string{c.ID, string(c.XAxis), string(c.YAxis), formatFloat(s.X), y, string(s.Flag)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// CoefficientHeader is the header row of WriteCoefficientsCSV. The
// coefficient columns run from the fifth power down to the constant.
var CoefficientHeader = []string{
	"PumpName", "Coefficient5", "Coefficient4", "Coefficient3",
	"Coefficient2", "Coefficient1", "Coefficient0", "BEP",
}

// WriteCoefficientsCSV writes one row per curve that has a polynomial fit
// of degree five or less, named "<pump>_<curve>" (just the curve id when
// pump is empty). Missing high powers are written as zero. The BEP column
// holds the best efficiency flow, or is empty when unknown.
func WriteCoefficientsCSV(w io.Writer, res *digitizer.Result, pump string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CoefficientHeader); err != nil {
		return err
	}
	bep := ""
	if res.BEP != nil {
		bep = formatFloat(res.BEP.Flow)
	}
	for _, c := range res.Curves {
		p := c.Polynomial
		if p == nil || p.Degree > 5 {
			continue
		}
		name := c.ID
		if pump != "" {
			name = pump + "_" + c.ID
		}
		row := []string{name}
		for k := 5; k >= 0; k-- {
			v := 0.0
			if k <= p.Degree {
				v = p.Coefficients[p.Degree-k]
			}
			row = append(row, fmt.Sprintf("%.5e", v))
		}
		row = append(row, bep)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}
