// Package model implements the probability models feeding the coder. A
// Predictor composes any number of models; each contributes weighted
// counter votes which the predictor folds into a single 16-bit
// probability of the next bit being a 1.
package model

// A Model is one contributor to a prediction.
type Model interface {
	// Predict returns counts (n0, n1) such that the model expects the
	// next bit to be a 1 with probability n1/(n0+n1) and confidence
	// n0+n1.
	Predict() (n0, n1 int)
	// Update appends the observed bit y (0 or 1) to the model.
	Update(y int)
}
