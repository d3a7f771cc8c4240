package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/agro-inventario/internal/domain"
)

const maxPageLimit = 500

// pathID lee el parámetro :id. Un id que no es UUID no puede existir: 404.
func pathID(c *fiber.Ctx) (string, error) {
	raw := c.Params("id")
	if _, err := uuid.Parse(raw); err != nil {
		return "", fmt.Errorf("%w: id %q", domain.ErrNotFound, raw)
	}
	return raw, nil
}

// pagination lee limit/offset. limit=0 significa sin límite; se recorta a maxPageLimit.
func pagination(c *fiber.Ctx) (int, int, error) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		return 0, 0, err
	}
	offset, err := intQuery(c, "offset")
	if err != nil {
		return 0, 0, err
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return limit, offset, nil
}

func intQuery(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("INVALID_QUERY", key+" debe ser un entero no negativo")
	}
	return n, nil
}

func boolQuery(c *fiber.Ctx, key string) bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "1", "true", "si", "sí", "yes":
		return true
	}
	return false
}

// dateRange lee desde/hasta (RFC3339 o 2006-01-02). Una fecha sin hora en "hasta"
// cubre el día completo.
func dateRange(c *fiber.Ctx, fromKey, toKey string) (*time.Time, *time.Time, error) {
	from, _, err := parseDate(c.Query(fromKey))
	if err != nil {
		return nil, nil, badRequest("INVALID_QUERY", fromKey+": "+err.Error())
	}
	to, dateOnly, err := parseDate(c.Query(toKey))
	if err != nil {
		return nil, nil, badRequest("INVALID_QUERY", toKey+": "+err.Error())
	}
	if to != nil && dateOnly {
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, badRequest("INVALID_QUERY", toKey+" es anterior a "+fromKey)
	}
	return from, to, nil
}

func parseDate(raw string) (*time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		u := t.UTC()
		return &u, false, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return nil, false, err
	}
	return &t, true, nil
}

// csvQuery separa un parámetro "a,b,c" descartando vacíos.
func csvQuery(c *fiber.Ctx, key string) []string {
	var out []string
	for _, part := range strings.Split(c.Query(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sendFile responde un archivo para descarga.
func sendFile(c *fiber.Ctx, data []byte, filename, contentType string) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
