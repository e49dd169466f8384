package metrics

import "errors"

var (
	// ErrLabelArity is returned when an update supplies a label vector
	// whose length differs from the family's declared label count.
	// This indicates a programming error at the call site.
	ErrLabelArity = errors.New("label vector length does not match family label count")

	// ErrNegativeIncrement is returned when a counter is incremented by a
	// negative amount. Counters are monotonically non-decreasing.
	ErrNegativeIncrement = errors.New("counter increment must not be negative")

	// ErrCapacityExhausted is returned when creating a new series would
	// exceed the substrate's configured capacity. The specific update is
	// dropped; existing series continue to update normally.
	ErrCapacityExhausted = errors.New("aggregation substrate capacity exhausted")

	// ErrRegistryDisabled is returned when an operation is attempted on a
	// registry whose initialization failed. Updates become logging no-ops
	// and scrapes return an error response.
	ErrRegistryDisabled = errors.New("metric registry is disabled")

	// ErrDuplicateFamily is returned when a family is registered under a
	// name that is already taken.
	ErrDuplicateFamily = errors.New("metric family already registered")
)
