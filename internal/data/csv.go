package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"battery-dispatch/internal/model"
)

// LoadSeriesCSV reads a CSV file with "price" and "demand" columns (any order,
// header required). Other columns are ignored.
func LoadSeriesCSV(path string) (*model.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ReadSeriesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", path, err)
	}
	return s, nil
}

func ReadSeriesCSV(in io.Reader) (*model.Series, error) {
	r := csv.NewReader(in)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	priceCol, demandCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "price":
			priceCol = i
		case "demand":
			demandCol = i
		}
	}
	if priceCol < 0 || demandCol < 0 {
		return nil, fmt.Errorf("header must contain price and demand columns, got %v", header)
	}

	s := &model.Series{}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[priceCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid price %q", line, rec[priceCol])
		}
		demand, err := strconv.ParseFloat(strings.TrimSpace(rec[demandCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid demand %q", line, rec[demandCol])
		}
		s.Price = append(s.Price, price)
		s.Demand = append(s.Demand, demand)
	}
	return s, nil
}
