// Package clearing содержит чистые правила клирингового окна и проекцию
// отображаемого статуса заявки. Пакет не делает I/O.
package clearing

import "time"

// CanFlag сообщает, открыто ли окно для флага: now внутри
// [createdAt, clearingEndsAt). Проверяется на сервере в момент вызова,
// по истечении окна средства считаются подлежащими выплате.
func CanFlag(createdAt, clearingEndsAt, now time.Time) bool {
	if now.Before(createdAt) {
		return false
	}
	return now.Before(clearingEndsAt)
}

// Remaining возвращает оставшееся время окна; ноль, если окно истекло.
func Remaining(clearingEndsAt, now time.Time) time.Duration {
	d := clearingEndsAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
