package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates invalid user input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a unique constraint conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInUse indicates the record is referenced by other rows.
	ErrInUse = errors.New("record in use")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// FieldError carries a user-facing message for a single form field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Is lets errors.Is(err, ErrValidation) match field errors.
func (e FieldError) Is(target error) bool {
	return target == ErrValidation
}

// UserSafeMessage converts an error into text that can be shown in the UI.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var fieldErr FieldError
	switch {
	case errors.As(err, &fieldErr):
		return fieldErr.Message
	case errors.Is(err, ErrNotFound):
		return "Registro não encontrado"
	case errors.Is(err, ErrDuplicate):
		return "Já existe um registro com esses dados"
	case errors.Is(err, ErrInUse):
		return "Registro em uso por outros lançamentos e não pode ser removido"
	case errors.Is(err, ErrValidation):
		return "Dados inválidos, verifique o formulário"
	case errors.Is(err, ErrInvalidCredentials):
		return "E-mail ou senha inválidos"
	default:
		return "Erro inesperado, tente novamente"
	}
}
