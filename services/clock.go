package services

import "time"

// Clock supplies the current instant so booking rules can be tested
// against a controlled time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func SystemClock() Clock { return systemClock{} }
