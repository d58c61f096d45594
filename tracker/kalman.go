package tracker

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// kalmanFilter is a constant velocity Kalman filter over the state
// (cx, cy, aspect, height, vcx, vcy, vaspect, vheight).  Observation noise
// scales with the box height so larger, closer objects tolerate larger
// pixel motion.
type kalmanFilter struct {
	stdWeightPos float64
	stdWeightVel float64
	// motion is the 8x8 state transition matrix
	motion *mat.Dense
	// project is the 4x8 state to measurement projection matrix
	project *mat.Dense
}

// newKalmanFilter returns a filter with the given position and velocity
// noise weights.
func newKalmanFilter(stdWeightPos, stdWeightVel float64) *kalmanFilter {

	const ndim = 4

	motion := mat.NewDense(2*ndim, 2*ndim, nil)

	for i := 0; i < 2*ndim; i++ {
		motion.Set(i, i, 1)
	}

	// unit time step couples position to velocity
	for i := 0; i < ndim; i++ {
		motion.Set(i, ndim+i, 1)
	}

	project := mat.NewDense(ndim, 2*ndim, nil)

	for i := 0; i < ndim; i++ {
		project.Set(i, i, 1)
	}

	return &kalmanFilter{
		stdWeightPos: stdWeightPos,
		stdWeightVel: stdWeightVel,
		motion:       motion,
		project:      project,
	}
}

// initiate fills mean and covariance from an initial measurement.
func (kf *kalmanFilter) initiate(mean []float64, cov *mat.Dense, meas [4]float64) {

	copy(mean[:4], meas[:])

	for i := 4; i < 8; i++ {
		mean[i] = 0
	}

	h := meas[3]

	std := []float64{
		2 * kf.stdWeightPos * h,
		2 * kf.stdWeightPos * h,
		1e-2,
		2 * kf.stdWeightPos * h,
		10 * kf.stdWeightVel * h,
		10 * kf.stdWeightVel * h,
		1e-5,
		10 * kf.stdWeightVel * h,
	}

	cov.Zero()

	for i, v := range std {
		cov.Set(i, i, v*v)
	}
}

// predict advances mean and covariance by one time step.
func (kf *kalmanFilter) predict(mean []float64, cov *mat.Dense) {

	h := mean[3]

	std := []float64{
		kf.stdWeightPos * h,
		kf.stdWeightPos * h,
		1e-2,
		kf.stdWeightPos * h,
		kf.stdWeightVel * h,
		kf.stdWeightVel * h,
		1e-5,
		kf.stdWeightVel * h,
	}

	motionCov := mat.NewDense(8, 8, nil)

	for i, v := range std {
		motionCov.Set(i, i, v*v)
	}

	meanVec := mat.NewVecDense(8, mean)

	var next mat.VecDense
	next.MulVec(kf.motion, meanVec)
	copy(mean, next.RawVector().Data)

	var tmp mat.Dense
	tmp.Mul(kf.motion, cov)
	cov.Mul(&tmp, kf.motion.T())
	cov.Add(cov, motionCov)
}

// projectState maps the state into measurement space, returning the
// projected mean and the innovation covariance.
func (kf *kalmanFilter) projectState(mean []float64, cov *mat.Dense) ([]float64, *mat.SymDense) {

	h := mean[3]

	std := []float64{
		kf.stdWeightPos * h,
		kf.stdWeightPos * h,
		1e-1,
		kf.stdWeightPos * h,
	}

	measCov := mat.NewSymDense(4, nil)

	for i, v := range std {
		measCov.SetSym(i, i, v*v)
	}

	var projMean mat.VecDense
	projMean.MulVec(kf.project, mat.NewVecDense(8, mean))

	var tmp, proj mat.Dense
	tmp.Mul(kf.project, cov)
	proj.Mul(&tmp, kf.project.T())

	projCov := mat.NewSymDense(4, nil)

	for i := 0; i < 4; i++ {
		for j := i; j < 4; j++ {
			projCov.SetSym(i, j, proj.At(i, j))
		}
	}

	projCov.AddSym(projCov, measCov)

	out := make([]float64, 4)
	copy(out, projMean.RawVector().Data)

	return out, projCov
}

// update corrects mean and covariance with a new measurement.
func (kf *kalmanFilter) update(mean []float64, cov *mat.Dense, meas [4]float64) error {

	projMean, projCov := kf.projectState(mean, cov)

	var chol mat.Cholesky

	if ok := chol.Factorize(projCov); !ok {
		return errors.New("projected covariance is not positive definite")
	}

	// B = cov * Hᵀ, gain solves S * gain = Bᵀ
	var b mat.Dense
	b.Mul(cov, kf.project.T())

	var gain mat.Dense

	if err := chol.SolveTo(&gain, b.T()); err != nil {
		return fmt.Errorf("solving for kalman gain: %w", err)
	}

	innov := mat.NewVecDense(4, []float64{
		meas[0] - projMean[0],
		meas[1] - projMean[1],
		meas[2] - projMean[2],
		meas[3] - projMean[3],
	})

	var corr mat.VecDense
	corr.MulVec(gain.T(), innov)

	for i := 0; i < 8; i++ {
		mean[i] += corr.AtVec(i)
	}

	var tmp, reduce mat.Dense
	tmp.Mul(gain.T(), projCov)
	reduce.Mul(&tmp, &gain)
	cov.Sub(cov, &reduce)

	return nil
}
