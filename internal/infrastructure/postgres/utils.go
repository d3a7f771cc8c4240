package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/agro-inventario/internal/domain"
)

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	// 22P02: texto que no convierte al tipo de la columna (p. ej. un id que no es UUID).
	codeInvalidText = "22P02"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// isInvalidText indica un valor que Postgres no pudo convertir (22P02).
func isInvalidText(err error) bool {
	return pgCode(err) == codeInvalidText
}

// validIDs indica si todos los ids son UUID. Las búsquedas lo comprueban antes de
// consultar: un id mal formado no existe, y el error 22P02 abortaría la transacción.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

// writeError traduce errores de constraint a errores de dominio y envuelve el resto.
func writeError(op string, err error) error {
	switch pgCode(err) {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, op)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s: referencia inexistente o en uso", domain.ErrConflict, op)
	case codeCheckViolation:
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, op, err)
	case codeInvalidText:
		return fmt.Errorf("%w: %s: identificador con formato inválido", domain.ErrInvalidInput, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}
