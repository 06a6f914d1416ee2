// Package timebox вычисляет оставшееся время ограниченной по времени активности:
// всей попытки теста или записи одного видеоответа. Функции чистые, опрос
// (например, раз в секунду) — ответственность вызывающего кода.
package timebox

import "time"

// Deadline возвращает момент окончания активности
func Deadline(startedAt time.Time, durationSeconds int) time.Time {
	return startedAt.Add(time.Duration(durationSeconds) * time.Second)
}

// RemainingSeconds возвращает max(0, (startedAt + duration) - now) в целых секундах.
// Дробная часть отбрасывается, чтобы никогда не сообщать больше времени, чем осталось.
func RemainingSeconds(startedAt time.Time, durationSeconds int, now time.Time) int {
	left := Deadline(startedAt, durationSeconds).Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// IsExpired возвращает true, когда оставшееся время равно нулю
func IsExpired(startedAt time.Time, durationSeconds int, now time.Time) bool {
	return RemainingSeconds(startedAt, durationSeconds, now) == 0
}

// Window — ограниченная по времени активность с собственным началом.
// Незаданный Limit означает неограниченное время.
type Window struct {
	StartedAt time.Time
	Limit     *int // секунды
}

// Bounded сообщает, задан ли лимит
func (w Window) Bounded() bool {
	return w.Limit != nil
}

// Remaining возвращает оставшиеся секунды; ok == false для неограниченного окна
func (w Window) Remaining(now time.Time) (seconds int, ok bool) {
	if !w.Bounded() {
		return 0, false
	}
	return RemainingSeconds(w.StartedAt, *w.Limit, now), true
}

// Expired возвращает true только для ограниченного окна с истекшим временем
func (w Window) Expired(now time.Time) bool {
	if !w.Bounded() {
		return false
	}
	return IsExpired(w.StartedAt, *w.Limit, now)
}

// Overran сообщает, что событие at произошло строго после дедлайна ограниченного окна.
// В отличие от Expired, момент ровно на дедлайне перерасходом не считается.
func (w Window) Overran(at time.Time) bool {
	if !w.Bounded() {
		return false
	}
	return at.After(Deadline(w.StartedAt, *w.Limit))
}

// VideoQuestionWindow — окно записи одного видеоответа. Начало фиксирует клиент
// (момент старта записи), лимит берется из вопроса.
func VideoQuestionWindow(recordingStartedAt time.Time, timeLimitSec int) Window {
	limit := timeLimitSec
	return Window{StartedAt: recordingStartedAt, Limit: &limit}
}
