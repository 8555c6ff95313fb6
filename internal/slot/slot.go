// Package slot реализует постоянные слоты хоста: именованные строковые значения,
// которые переживают перезапуск процесса.
package slot

import (
	"errors"
)

var (
	// ErrQuotaExceeded возвращается, когда запись не помещается в лимит хранилища
	ErrQuotaExceeded = errors.New("slot quota exceeded")
	ErrInvalidKey    = errors.New("invalid slot key")
)

type Store interface {
	// Get возвращает значение слота; ok == false, если слот пуст
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}
