package apperr

import (
	"errors"
	"fmt"
)

// Hata sınıfları. Alan hataları bunlara errors.Is ile eşlenir.
var (
	// ErrValidation eksik veya geçersiz alan.
	ErrValidation = errors.New("geçersiz veri")

	// ErrNotFound çözümlenemeyen kayıt (kasa, oturum, ödeme).
	ErrNotFound = errors.New("kayıt bulunamadı")

	// ErrNetwork uzak servis çağrısı reddedildi veya başarısız oldu.
	ErrNetwork = errors.New("uzak servis hatası")

	// ErrUnprocessable kurallara aykırı işlem (ör. tahsilat tutmazken kesinleştirme).
	ErrUnprocessable = errors.New("işlem gerçekleştirilemez")

	// ErrConflict kaydın mevcut durumu işleme izin vermiyor.
	ErrConflict = errors.New("kayıt durumu çakışıyor")
)

// ValidationError bir alanın neden reddedildiğini taşır.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s bulunamadı", e.Entity)
	}
	return fmt.Sprintf("%s bulunamadı (%s)", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: fmt.Sprint(id)}
}

// NetworkError uzak backend çağrısının başarısızlığını sarar.
type NetworkError struct {
	// Op başarısız olan çağrı (ör. "GET /vaults/3").
	Op string

	// Status HTTP durum kodu; bağlantı kurulamadıysa 0.
	Status int

	Err     error
	Details string
}

func (e *NetworkError) Error() string {
	switch {
	case e.Status != 0 && e.Details != "":
		return fmt.Sprintf("backend: %s başarısız (%d): %s", e.Op, e.Status, e.Details)
	case e.Status != 0:
		return fmt.Sprintf("backend: %s başarısız (%d)", e.Op, e.Status)
	default:
		return fmt.Sprintf("backend: %s başarısız: %v", e.Op, e.Err)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}
