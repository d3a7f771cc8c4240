package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agro-inventario/internal/application/ports"
)

func TestParseTables(t *testing.T) {
	all, err := parseTables("")
	require.NoError(t, err)
	assert.Equal(t, observableTables, all)

	got, err := parseTables(" products , transfers,products,")
	require.NoError(t, err)
	assert.Equal(t, []string{ports.TableProducts, ports.TableTransfers}, got)

	_, err = parseTables("products,facturas")
	require.Error(t, err)
	var ae *apiError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "INVALID_QUERY", ae.code)
}

func TestParseDate(t *testing.T) {
	d, dateOnly, err := parseDate("2024-03-05")
	require.NoError(t, err)
	assert.True(t, dateOnly)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), *d)

	d, dateOnly, err = parseDate("2024-03-05T10:00:00-03:00")
	require.NoError(t, err)
	assert.False(t, dateOnly)
	assert.Equal(t, time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC), *d)

	d, _, err = parseDate("  ")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, _, err = parseDate("05/03/2024")
	assert.Error(t, err)
}

// queryApp ejecuta fn con un contexto Fiber que tiene la query indicada.
func queryApp(t *testing.T, query string, fn func(c *fiber.Ctx) error) {
	t.Helper()
	app := fiber.New()
	app.Get("/", fn)
	resp, err := app.Test(httptest.NewRequest("GET", "/?"+query, nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
}

func TestDateRange_HastaCubreElDia(t *testing.T) {
	queryApp(t, "desde=2024-03-01&hasta=2024-03-31", func(c *fiber.Ctx) error {
		from, to, err := dateRange(c, "desde", "hasta")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *from)
		assert.Equal(t, time.Date(2024, 3, 31, 23, 59, 59, 999999999, time.UTC), *to)
		return nil
	})
	queryApp(t, "desde=2024-03-10&hasta=2024-03-01", func(c *fiber.Ctx) error {
		_, _, err := dateRange(c, "desde", "hasta")
		assert.Error(t, err)
		return nil
	})
}

func TestPagination(t *testing.T) {
	queryApp(t, "limit=9000&offset=20", func(c *fiber.Ctx) error {
		limit, offset, err := pagination(c)
		require.NoError(t, err)
		assert.Equal(t, maxPageLimit, limit)
		assert.Equal(t, 20, offset)
		return nil
	})
	queryApp(t, "limit=-1", func(c *fiber.Ctx) error {
		_, _, err := pagination(c)
		assert.Error(t, err)
		return nil
	})
}
