package matching

// Option applies a configuration option to an Evaluator.
type Option func(*Evaluator)

// WithPolicy sets the eligibility policy.
func WithPolicy(p Policy) Option {
	return func(e *Evaluator) {
		if p != "" {
			e.policy = p
		}
	}
}
