// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package fit

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	errNotConverged = errors.New("iteration limit reached")
	errSingular     = errors.New("singular covariance")
)

const (
	ftol      = 1e-8
	xtol      = 1e-8
	maxLambda = 1e16
	epsilon   = 2.220446049250313e-16
)

// solution of a least squares problem
type solution struct {
	params     []float64
	cov        *mat.SymDense
	ss         float64
	iterations int
}

// solve minimizes the squared residuals of the model against (x, y) with a
// Levenberg-Marquardt iteration whose steps are projected into the box of
// the model. Parameters resting on a bound with the gradient pointing out of
// the box are held fixed for the step.
func solve(m Model, x, y []float64, maxIter int) (*solution, error) {
	np := len(m.Guess)
	n := len(x)

	p := append([]float64(nil), m.Guess...)
	m.project(p)

	jac := mat.NewDense(n, np, nil)
	res := mat.NewVecDense(n, nil)
	grad := make([]float64, np)

	evaluate := func(p []float64, r *mat.VecDense) float64 {
		ss := 0.0
		for i := range x {
			d := y[i] - Eval(p, x[i])
			r.SetVec(i, d)
			ss += d * d
		}
		return ss
	}
	jacobian := func(p []float64) {
		for i := range x {
			gradient(grad, p, x[i])
			jac.SetRow(i, grad)
		}
	}

	ss := evaluate(p, res)
	lambda := 1e-3
	trial := make([]float64, np)
	trialRes := mat.NewVecDense(n, nil)
	pinned := make([]bool, np)

	a := mat.NewSymDense(np, nil)
	rhs := mat.NewVecDense(np, nil)
	var (
		jtj  mat.SymDense
		g    mat.VecDense
		step mat.VecDense
		chol mat.Cholesky
		iter int
		done bool
	)
	for iter = 0; iter < maxIter && !done; iter++ {
		jacobian(p)
		jtj.SymOuterK(1, jac.T())
		g.MulVec(jac.T(), res)

		for i := range pinned {
			lo, hi := m.bounds(i)
			gi := g.AtVec(i)
			pinned[i] = (p[i] <= lo && gi < 0) || (p[i] >= hi && gi > 0)
			if pinned[i] {
				gi = 0
			}
			rhs.SetVec(i, gi)
		}

		for {
			a.CopySym(&jtj)
			for i := 0; i < np; i++ {
				if pinned[i] {
					for j := 0; j < np; j++ {
						a.SetSym(i, j, 0)
					}
					a.SetSym(i, i, 1)
					continue
				}
				d := jtj.At(i, i)
				if d == 0 {
					d = 1
				}
				a.SetSym(i, i, jtj.At(i, i)+lambda*d)
			}

			if ok := chol.Factorize(a); ok {
				if err := chol.SolveVecTo(&step, rhs); err == nil {
					for i := range trial {
						trial[i] = p[i] + step.AtVec(i)
					}
					m.project(trial)
					trialSS := evaluate(trial, trialRes)

					if trialSS < ss {
						moved := 0.0
						for i := range trial {
							moved = math.Max(moved, math.Abs(trial[i]-p[i])/(math.Abs(p[i])+xtol))
						}
						copy(p, trial)
						res.CopyVec(trialRes)
						done = trialSS == 0 || ss-trialSS <= ftol*ss || moved <= xtol
						ss = trialSS
						lambda = math.Max(lambda/10, 1e-12)
						break
					}
				}
			}

			lambda *= 10
			if lambda > maxLambda {
				// no downhill step left
				done = true
				break
			}
		}
	}
	if !done {
		return nil, errNotConverged
	}
	if floats.HasNaN(p) {
		return nil, errSingular
	}

	jacobian(p)
	cov, err := covariance(jac, ss)
	if err != nil {
		return nil, err
	}
	return &solution{params: p, cov: cov, ss: ss, iterations: iter}, nil
}

// covariance estimates the parameter covariance from the pseudo-inverse of
// JᵀJ, scaled by the residual variance. Directions the data do not
// constrain, such as the center of a peak with zero area, are dropped.
func covariance(jac *mat.Dense, ss float64) (*mat.SymDense, error) {
	n, np := jac.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(jac, mat.SVDThin); !ok {
		return nil, errSingular
	}
	s := svd.Values(nil)
	if len(s) == 0 || s[0] == 0 || math.IsNaN(s[0]) {
		return nil, errSingular
	}
	var v mat.Dense
	svd.VTo(&v)

	cut := epsilon * float64(max(n, np)) * s[0]
	scale := ss / float64(n-np)
	cov := mat.NewSymDense(np, nil)
	for i := 0; i < np; i++ {
		for j := i; j < np; j++ {
			c := 0.0
			for k, sk := range s {
				if sk > cut {
					c += v.At(i, k) * v.At(j, k) / (sk * sk)
				}
			}
			cov.SetSym(i, j, c*scale)
		}
	}
	for i := 0; i < np; i++ {
		if d := cov.At(i, i); d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, errSingular
		}
	}
	return cov, nil
}
