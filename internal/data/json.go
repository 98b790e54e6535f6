package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"battery-dispatch/internal/model"
)

// LoadSeries loads a price/demand series, picking the format from the file extension
// (.json or .csv).
func LoadSeries(path string) (*model.Series, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadSeriesJSON(path)
	case ".csv":
		return LoadSeriesCSV(path)
	default:
		return nil, fmt.Errorf("unsupported series file %q, expected .json or .csv", path)
	}
}

func LoadSeriesJSON(path string) (*model.Series, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s model.Series
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to parse series %s: %w", path, err)
	}
	if len(s.Price) != len(s.Demand) {
		return nil, fmt.Errorf("series %s: %d prices but %d demand values", path, len(s.Price), len(s.Demand))
	}
	return &s, nil
}

// WriteSeriesJSON writes s in the shape LoadSeriesJSON reads.
func WriteSeriesJSON(path string, s model.Series) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
