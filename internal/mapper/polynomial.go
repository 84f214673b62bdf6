package mapper

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Polynomial is a least-squares polynomial in raw x.
type Polynomial struct {
	Degree int `json:"degree"`

	// Coefficients are ordered from the highest power down to the
	// constant term.
	Coefficients []float64 `json:"coefficients"`

	// RMSE is the root mean square residual over the fitted points.
	RMSE float64 `json:"rmse"`
}

// Eval evaluates the polynomial at x.
func (p *Polynomial) Eval(x float64) float64 {
	var y float64
	for _, c := range p.Coefficients {
		y = y*x + c
	}
	return y
}

// FitPolynomial fits a polynomial of the given degree to the points. The
// degree is lowered when there are too few points; nil is returned when
// the fit is impossible.
func FitPolynomial(xs, ys []float64, degree int) *Polynomial {
	n := len(xs)
	if degree > n-1 {
		degree = n - 1
	}
	if degree < 1 || n != len(ys) {
		return nil
	}

	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	c := (lo + hi) / 2
	h := (hi - lo) / 2
	if h == 0 {
		return nil
	}

	// Solve on u = (x-c)/h to keep the Vandermonde matrix well conditioned.
	cols := degree + 1
	a := mat.NewDense(n, cols, nil)
	for i, x := range xs {
		u := (x - c) / h
		v := 1.0
		for k := 0; k < cols; k++ {
			a.Set(i, k, v)
			v *= u
		}
	}
	var qr mat.QR
	qr.Factorize(a)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, mat.NewVecDense(n, append([]float64(nil), ys...))); err != nil {
		return nil
	}

	raw := make([]float64, cols)
	for k := 0; k < cols; k++ {
		ak := sol.AtVec(k) / math.Pow(h, float64(k))
		for j := 0; j <= k; j++ {
			raw[j] += ak * binomial(k, j) * math.Pow(-c, float64(k-j))
		}
	}
	coeffs := make([]float64, cols)
	for j := range raw {
		coeffs[cols-1-j] = raw[j]
	}
	p := &Polynomial{Degree: degree, Coefficients: coeffs}

	var ss float64
	for i, x := range xs {
		d := p.Eval(x) - ys[i]
		ss += d * d
	}
	p.RMSE = math.Sqrt(ss / float64(n))
	return p
}

func binomial(n, k int) float64 {
	r := 1.0
	for i := 1; i <= k; i++ {
		r = r * float64(n-k+i) / float64(i)
	}
	return r
}
