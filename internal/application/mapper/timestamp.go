// Package mapper convierte entidades de dominio a los DTO de la API.
package mapper

import (
	"time"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
)

// ToTimestamp convierte time.Time; la fecha cero se serializa como null.
func ToTimestamp(t time.Time) *dto.Timestamp {
	if t.IsZero() {
		return nil
	}
	return &dto.Timestamp{Seconds: t.Unix(), Nanoseconds: int64(t.Nanosecond())}
}

// ToTimestampPtr variante para fechas opcionales.
func ToTimestampPtr(t *time.Time) *dto.Timestamp {
	if t == nil {
		return nil
	}
	return ToTimestamp(*t)
}

// FromTimestamp convierte el DTO a time.Time en UTC; nil devuelve nil.
func FromTimestamp(ts *dto.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := time.Unix(ts.Seconds, ts.Nanoseconds).UTC()
	return &t
}
