package service

import "time"

// Clock — источник текущего времени. В тестах подменяется фиксированными часами.
type Clock interface {
	Now() time.Time
}

// SystemClock возвращает системное время в UTC
type SystemClock struct{}

// Now реализует Clock
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
