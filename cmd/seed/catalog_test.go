package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestReadCatalog_CSVAgrupaPorProductoYLote(t *testing.T) {
	csv := "nombre;categoria;unidad;lote;vencimiento;stock_minimo;almacen;cantidad\n" +
		"Glifosato 48%;Herbicidas;L;G-01;31/12/2025;10;Galpón;100,5\n" +
		"Glifosato 48%;Herbicidas;L;G-01;;;Depósito norte;20\n" +
		"glifosato 48%;;;G-01;;;Galpón;4,5\n" +
		"Urea;Fertilizantes;kg;;;;;\n"

	items, err := readCatalog(strings.NewReader(csv), "catalogo.csv", false)
	require.NoError(t, err)
	require.Len(t, items, 2)

	g := items[0]
	assert.Equal(t, "Glifosato 48%", g.Name)
	assert.Equal(t, "L", g.Unit)
	assert.True(t, g.MinStock.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, g.Expiry)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), *g.Expiry)
	assert.True(t, g.Stock["Galpón"].Equal(decimal.NewFromInt(105)))
	assert.True(t, g.Stock["Depósito norte"].Equal(decimal.NewFromInt(20)))

	assert.Equal(t, "Urea", items[1].Name)
	assert.Empty(t, items[1].Stock)
}

func TestReadCatalog_CSVLatin1(t *testing.T) {
	raw := "nombre,almacen,cantidad\nFungicida cúprico,Galpón,3\n"
	encoded, err := charmap.ISO8859_1.NewEncoder().String(raw)
	require.NoError(t, err)

	items, err := readCatalog(strings.NewReader(encoded), "catalogo.csv", true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Fungicida cúprico", items[0].Name)
	assert.True(t, items[0].Stock["Galpón"].Equal(decimal.NewFromInt(3)))
}

func TestReadCatalog_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Nombre", "Almacen", "Cantidad"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Cipermetrina", "Galpón", 7}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	items, err := readCatalog(bytes.NewReader(buf.Bytes()), "catalogo.xlsx", false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Cipermetrina", items[0].Name)
	assert.True(t, items[0].Stock["Galpón"].Equal(decimal.NewFromInt(7)))
}

func TestReadCatalog_Errores(t *testing.T) {
	_, err := readCatalog(strings.NewReader("producto;cantidad\nx;1\n"), "c.csv", false)
	assert.ErrorContains(t, err, "nombre")

	_, err = readCatalog(strings.NewReader("nombre;almacen;cantidad\nx;A;-1\n"), "c.csv", false)
	assert.ErrorContains(t, err, "negativa")

	_, err = readCatalog(strings.NewReader("nombre;vencimiento\nx;mañana\n"), "c.csv", false)
	assert.ErrorContains(t, err, "línea 2")

	_, err = readCatalog(strings.NewReader(""), "c.json", false)
	assert.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	cases := map[string]string{
		"12":       "12",
		"12,5":     "12.5",
		"12.5":     "12.5",
		"1.234,75": "1234.75",
	}
	for in, want := range cases {
		got, err := parseNumber(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%s -> %s", in, got)
	}
}
