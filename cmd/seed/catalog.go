package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Columnas reconocidas en la fila de encabezado (sin distinguir mayúsculas).
const (
	colName     = "nombre"
	colCategory = "categoria"
	colUnit     = "unidad"
	colLot      = "lote"
	colExpiry   = "vencimiento"
	colMinStock = "stock_minimo"
	colStore    = "almacen"
	colQuantity = "cantidad"
)

// catalogItem producto a cargar con su stock inicial por nombre de almacén.
type catalogItem struct {
	Name      string
	Category  string
	Unit      string
	LotNumber string
	Expiry    *time.Time
	MinStock  decimal.Decimal
	Stock     map[string]decimal.Decimal
}

// readCatalog lee un .xlsx (primera hoja) o un .csv separado por ';' o ','.
// latin1 decodifica el CSV como ISO-8859-1 (exportaciones de Excel en español).
func readCatalog(r io.Reader, filename string, latin1 bool) ([]*catalogItem, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		rows, err = readXLSX(r)
	case ".csv", ".txt":
		if latin1 {
			r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
		}
		rows, err = readCSV(r)
	default:
		return nil, fmt.Errorf("formato no soportado: %s", filename)
	}
	if err != nil {
		return nil, err
	}
	return parseRows(rows)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("abrir xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("el libro no tiene hojas")
	}
	return f.GetRows(sheets[0])
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if first, _, _ := strings.Cut(text, "\n"); strings.Count(first, ";") > strings.Count(first, ",") {
		cr.Comma = ';'
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("leer csv: %w", err)
	}
	return rows, nil
}

// parseRows agrupa las filas por (nombre, lote) y suma cantidades por almacén.
func parseRows(rows [][]string) ([]*catalogItem, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("archivo vacío")
	}
	idx := make(map[string]int)
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx[colName]; !ok {
		return nil, fmt.Errorf("falta la columna %q", colName)
	}
	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var items []*catalogItem
	byKey := make(map[string]*catalogItem)
	for n, row := range rows[1:] {
		line := n + 2
		name := get(row, colName)
		if name == "" {
			continue
		}
		key := strings.ToLower(name) + "|" + strings.ToLower(get(row, colLot))
		item, ok := byKey[key]
		if !ok {
			item = &catalogItem{
				Name:      name,
				Category:  get(row, colCategory),
				Unit:      get(row, colUnit),
				LotNumber: get(row, colLot),
				Stock:     map[string]decimal.Decimal{},
			}
			if raw := get(row, colMinStock); raw != "" {
				v, err := parseNumber(raw)
				if err != nil {
					return nil, fmt.Errorf("línea %d: %s: %w", line, colMinStock, err)
				}
				item.MinStock = v
			}
			if raw := get(row, colExpiry); raw != "" {
				t, err := parseExpiry(raw)
				if err != nil {
					return nil, fmt.Errorf("línea %d: %s: %w", line, colExpiry, err)
				}
				item.Expiry = &t
			}
			byKey[key] = item
			items = append(items, item)
		}
		store := get(row, colStore)
		raw := get(row, colQuantity)
		if store == "" || raw == "" {
			continue
		}
		qty, err := parseNumber(raw)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %s: %w", line, colQuantity, err)
		}
		if qty.IsNegative() {
			return nil, fmt.Errorf("línea %d: cantidad negativa", line)
		}
		item.Stock[store] = item.Stock[store].Add(qty)
	}
	return items, nil
}

// parseNumber acepta coma decimal ("12,5") y punto ("12.5").
func parseNumber(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

func parseExpiry(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2/1/2006"} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha inválida %q (AAAA-MM-DD o DD/MM/AAAA)", raw)
}
