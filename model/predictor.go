package model

// A Predictor predicts the next bit given the bits so far, using a
// collection of models. The zero-model predictor is the uniform prior.
type Predictor struct {
	models []Model
}

// New returns a predictor combining the given models.
func New(models ...Model) *Predictor {
	return &Predictor{models: models}
}

// Default returns the predictor used by the archiver: a nonstationary
// PPM model over contexts of 0 to 7 preceding bytes.
func Default() *Predictor {
	return New(NewNonstationaryPPM())
}

// P returns the probability of a 1 being the next bit as a 16-bit
// number. Every model's votes are summed onto a (1, 1) prior; the result
// is kept within [1, 65534] so the coder's range split never collapses.
func (p *Predictor) P() uint16 {
	n0, n1 := 1, 1
	for _, m := range p.models {
		a, b := m.Predict()
		n0 += a
		n1 += b
	}
	v := uint64(65535) * uint64(n1) / uint64(n0+n1)
	if v < 1 {
		v = 1
	} else if v > 65534 {
		v = 65534
	}
	return uint16(v)
}

// Update feeds the observed bit y into every model, in composition
// order.
func (p *Predictor) Update(y int) {
	for _, m := range p.models {
		m.Update(y)
	}
}
