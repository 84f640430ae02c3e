package services

import (
	"errors"
	"strings"
)

// Domain errors. Handlers translate these into HTTP statuses: ErrNotFound
// to 404, ErrForbidden to 403, everything below to 400.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyCredited fires on resubmission of an approved mission.
	ErrAlreadyCredited = errors.New("Миссия уже зачтена")

	// ErrOutOfSequence fires when a pilot tries to skip ahead in a coding mission.
	ErrOutOfSequence = errors.New("Сначала выполните предыдущее задание")

	ErrRegistrationClosed = errors.New("Регистрация завершена")
	ErrEventStarted       = errors.New("Мероприятие уже началось")
	ErrNoSeatsLeft        = errors.New("Свободные места закончились")
	ErrOnlineMission      = errors.New("Это онлайн-миссия")

	ErrOutOfStock       = errors.New("Товар закончился")
	ErrNotEnoughMana    = errors.New("Недостаточно маны")
	ErrArtifactNotOwned = errors.New("Артефакт ещё не получен")
)

// UnavailableError carries the human-readable block reasons for a mission
// the pilot cannot currently take.
type UnavailableError struct {
	Reasons []string
}

func (e *UnavailableError) Error() string {
	return strings.Join(e.Reasons, "; ")
}
