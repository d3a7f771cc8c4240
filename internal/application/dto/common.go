package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IDResponse respuesta de operaciones que solo devuelven el identificador.
type IDResponse struct {
	ID string `json:"id"`
}

// Timestamp fecha en formato {seconds, nanoseconds}, compatible con los clientes existentes.
// Al decodificar acepta también una cadena RFC3339 o "2006-01-02".
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

// UnmarshalJSON acepta objeto {seconds,nanoseconds} o cadena de fecha.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Seconds = parsed.Unix()
				t.Nanoseconds = int64(parsed.Nanosecond())
				return nil
			}
		}
		return fmt.Errorf("fecha inválida: %q", s)
	}
	type raw Timestamp
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*t = Timestamp(r)
	return nil
}
