package param

// Composite concatenates parameterisations into one flat free-parameter
// vector in construction order. The composite owns its constituents: the
// engine talks only to the composite, and offsets are derived on demand so
// they can never go stale after a SetFixed on any constituent.
//
// Invariant: TotalFree() == Σ constituent NumFree() at all times.
type Composite struct {
	parts []Parameterisation
}

// NewComposite builds a Composite over parts, which must be non-empty.
func NewComposite(parts ...Parameterisation) (*Composite, error) {
	if len(parts) == 0 {
		return nil, ErrNilModel
	}
	for _, p := range parts {
		if p == nil {
			return nil, ErrNilModel
		}
	}
	owned := make([]Parameterisation, len(parts))
	copy(owned, parts)

	return &Composite{parts: owned}, nil
}

// Len returns the number of constituents.
func (c *Composite) Len() int { return len(c.parts) }

// Part returns constituent i.
func (c *Composite) Part(i int) Parameterisation { return c.parts[i] }

// TotalFree returns the length of the global free-parameter vector.
func (c *Composite) TotalFree() int {
	n := 0
	for _, p := range c.parts {
		n += p.NumFree()
	}

	return n
}

// Offset returns the position of constituent i's first free parameter in
// the global vector.
func (c *Composite) Offset(i int) int {
	off := 0
	for _, p := range c.parts[:i] {
		off += p.NumFree()
	}

	return off
}

// Params returns the concatenated free parameter values.
func (c *Composite) Params() []float64 {
	out := make([]float64, 0, c.TotalFree())
	for _, p := range c.parts {
		out = append(out, p.Params()...)
	}

	return out
}

// SetParams distributes the flat vector to the constituents in order and
// recomposes each. Returns ErrDimensionMismatch if len(vals) does not
// equal TotalFree(); in that case no constituent is modified.
func (c *Composite) SetParams(vals []float64) error {
	if len(vals) != c.TotalFree() {
		return ErrDimensionMismatch
	}
	off := 0
	for _, p := range c.parts {
		n := p.NumFree()
		if err := p.SetParams(vals[off : off+n]); err != nil {
			return err
		}
		off += n
	}

	return nil
}

// Compose recomposes every constituent in order.
func (c *Composite) Compose() error {
	for _, p := range c.parts {
		if err := p.Compose(); err != nil {
			return err
		}
	}

	return nil
}

// Tags returns the constituent tags in order, for diagnostics.
func (c *Composite) Tags() []string {
	tags := make([]string, len(c.parts))
	for i, p := range c.parts {
		tags[i] = p.Tag()
	}

	return tags
}
