package pool

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/brookluers/cmimpute/utils"
)

var (
	// ErrRankDeficient is returned when the design matrix does not have
	// full column rank.
	ErrRankDeficient = errors.New("design matrix is rank deficient")

	// ErrNoResidualDF is returned when there are no more rows than
	// coefficients.
	ErrNoResidualDF = errors.New("no residual degrees of freedom")
)

// maxCond bounds the condition number of XᵀX.
const maxCond = 1e14

// OLSResult holds the least squares fit of a linear model.
type OLSResult struct {

	// Coefficient names, in the order of Coef
	Names []string

	// Least squares estimates
	Coef []float64

	// Estimated sampling variances of Coef
	Var []float64

	// Residual variance
	Scale float64

	// Residual degrees of freedom
	DF int
}

// FitOLS fits the linear model f to tb by ordinary least squares.
func FitOLS(tb *utils.Table, f *Formula) (*OLSResult, error) {

	y, x, err := f.Design(tb)
	if err != nil {
		return nil, err
	}
	n, p := x.Dims()
	if n <= p {
		return nil, fmt.Errorf("%d rows, %d coefficients: %w", n, p, ErrNoResidualDF)
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok || chol.Cond() > maxCond {
		return nil, ErrRankDeficient
	}

	yv := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrRankDeficient)
	}

	var resid mat.VecDense
	resid.MulVec(x, &beta)
	resid.SubVec(yv, &resid)
	df := n - p
	scale := mat.Dot(&resid, &resid) / float64(df)

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrRankDeficient)
	}

	r := &OLSResult{
		Names: f.Names(),
		Coef:  make([]float64, p),
		Var:   make([]float64, p),
		Scale: scale,
		DF:    df,
	}
	for j := 0; j < p; j++ {
		r.Coef[j] = beta.AtVec(j)
		r.Var[j] = scale * inv.At(j, j)
	}

	return r, nil
}

// StdErr returns the standard errors of the coefficients.
func (r *OLSResult) StdErr() []float64 {
	se := make([]float64, len(r.Var))
	for j, v := range r.Var {
		se[j] = math.Sqrt(v)
	}
	return se
}
