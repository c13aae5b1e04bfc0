package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// scheduleRow is one parsed line of a schedule CSV, before it is mapped to a
// repository write.
type scheduleRow struct {
	SKU   string
	Date  string
	Value float64
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// skuFromFilename extracts the SKU prefix from names like
// "0500ML-STD_demand.csv". Empty when the name has no underscore-separated
// prefix.
func skuFromFilename(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if idx := strings.Index(base, "_"); idx > 0 {
		return strings.TrimSpace(base[:idx])
	}
	return ""
}

// readScheduleCSV parses a schedule file. Column headers are matched
// tolerantly ("Planned Cases", "planned_cases" and "cases" are all the cases
// column); a missing sku column falls back to the filename prefix.
func readScheduleCSV(path string, valueColumns []string) ([]scheduleRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed reading header of %s: %w", path, err)
	}

	colIndex := func(names ...string) int {
		targets := make(map[string]struct{}, len(names))
		for _, name := range names {
			targets[normalizeColumnName(name)] = struct{}{}
		}
		for i, h := range header {
			if _, ok := targets[normalizeColumnName(h)]; ok {
				return i
			}
		}
		return -1
	}

	idxSKU := colIndex("sku", "product")
	idxDate := colIndex("date", "entry date", "plan date")
	idxValue := colIndex(valueColumns...)

	if idxDate < 0 {
		return nil, fmt.Errorf("%s has no date column", path)
	}
	if idxValue < 0 {
		return nil, fmt.Errorf("%s has none of the value columns %v", path, valueColumns)
	}

	fallbackSKU := skuFromFilename(path)

	rows := make([]scheduleRow, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed reading %s: %w", path, err)
		}

		get := func(idx int) string {
			if idx < 0 || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		sku := get(idxSKU)
		if sku == "" {
			sku = fallbackSKU
		}
		date := get(idxDate)
		if sku == "" || date == "" {
			continue
		}

		raw := strings.ReplaceAll(get(idxValue), ",", "")
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q in %s: %w", raw, path, err)
		}

		rows = append(rows, scheduleRow{SKU: sku, Date: date, Value: value})
	}

	return rows, nil
}
