package domain

import "errors"

// Validation errors. The action is aborted without side effects.
var (
	ErrEmptyStaff           = errors.New("staff name is required")
	ErrEmptyText            = errors.New("note text is required")
	ErrEmptyName            = errors.New("show name is required")
	ErrEmptyCatalog         = errors.New("routine list is empty")
	ErrDuplicateShow        = errors.New("a show with that name already exists")
	ErrConfirmationMismatch = errors.New("confirmation does not match the show name")
	ErrBreakRoutine         = errors.New("breaks do not take notes")
)

// Not found errors.
var (
	ErrNoteNotFound    = errors.New("note not found")
	ErrShowNotFound    = errors.New("show not found")
	ErrRoutineNotFound = errors.New("routine not found")
)

var validationErrors = []error{
	ErrEmptyStaff,
	ErrEmptyText,
	ErrEmptyName,
	ErrEmptyCatalog,
	ErrDuplicateShow,
	ErrConfirmationMismatch,
	ErrBreakRoutine,
}

// IsValidation reports whether err is caused by bad caller input.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err means the target no longer exists.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoteNotFound) || errors.Is(err, ErrShowNotFound) || errors.Is(err, ErrRoutineNotFound)
}
