package breaker

type disabled struct{}

// Disabled returns a breaker that is never open and records nothing.
func Disabled() Breaker {
	return disabled{}
}

func (disabled) IsOpen() bool { return false }

func (disabled) Allow() (func(err error), error) {
	return func(error) {}, nil
}

func (disabled) Snapshot() Snapshot {
	return Snapshot{State: StateClosed}
}
