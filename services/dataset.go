package services

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// USDToINR is the fixed conversion applied to the bundled USD datasets and to
// AI estimates. All monetary values downstream are INR.
const USDToINR = 83.0

// ─── Types ────────────────────────────────────────────────────────────────────

type CityCoordinate struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CityCostProfile holds per-city lodging and meal reference costs.
// Values are converted to INR at load time.
type CityCostProfile struct {
	CityName    string  `json:"city_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	MealsBasic  float64 `json:"meals_basic"`
	MealsMedium float64 `json:"meals_medium"`
	MealsLuxury float64 `json:"meals_luxury"`
	HotelBasic  float64 `json:"hotel_basic"`
	HotelMedium float64 `json:"hotel_medium"`
	HotelLuxury float64 `json:"hotel_luxury"`
}

// Datasets is the in-memory view of the bundled reference CSVs.
// Immutable after Load; safe for concurrent readers.
type Datasets struct {
	coordinates map[string]CityCoordinate
	costs       map[string]CityCostProfile
}

var datasets *Datasets

// InitDatasets loads the bundled reference data. Must complete before any
// estimate request is served, so failures here are fatal.
func InitDatasets() {
	coordPath := getEnvOr("CITY_COORDINATES_PATH", "data/city_coordinates.csv")
	costPath := getEnvOr("CITY_COSTS_PATH", "data/city_costs.csv")

	ds, err := LoadDatasets(coordPath, costPath)
	if err != nil {
		log.Fatalf("❌ Failed to load reference datasets: %v", err)
	}
	datasets = ds
	log.Printf("✅ Reference data loaded: %d coordinates, %d cost profiles",
		len(ds.coordinates), len(ds.costs))
}

func GetDatasets() *Datasets {
	return datasets
}

// LoadDatasets parses both CSVs. Header rows are skipped and malformed rows
// are dropped with a warning rather than failing the whole load.
func LoadDatasets(coordPath, costPath string) (*Datasets, error) {
	ds := &Datasets{
		coordinates: make(map[string]CityCoordinate),
		costs:       make(map[string]CityCostProfile),
	}

	coordRows, err := readCSV(coordPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load coordinate dataset: %w", err)
	}
	for i, row := range coordRows {
		if i == 0 {
			continue // header
		}
		if len(row) < 3 {
			log.Printf("⚠️  Skipping short row %d in %s", i+1, coordPath)
			continue
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		lon, err2 := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err1 != nil || err2 != nil {
			log.Printf("⚠️  Skipping unparseable row %d in %s", i+1, coordPath)
			continue
		}
		name := strings.ToLower(strings.TrimSpace(row[0]))
		ds.coordinates[name] = CityCoordinate{Name: name, Latitude: lat, Longitude: lon}
	}

	costRows, err := readCSV(costPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load cost dataset: %w", err)
	}
	for i, row := range costRows {
		if i == 0 {
			continue // header
		}
		if len(row) < 9 {
			log.Printf("⚠️  Skipping short row %d in %s", i+1, costPath)
			continue
		}
		vals := make([]float64, 8)
		ok := true
		for j := 1; j <= 8; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64)
			if err != nil {
				ok = false
				break
			}
			vals[j-1] = v
		}
		if !ok {
			log.Printf("⚠️  Skipping unparseable row %d in %s", i+1, costPath)
			continue
		}
		name := strings.ToLower(strings.TrimSpace(row[0]))
		ds.costs[name] = CityCostProfile{
			CityName:    name,
			Latitude:    vals[0],
			Longitude:   vals[1],
			MealsBasic:  vals[2] * USDToINR,
			MealsMedium: vals[3] * USDToINR,
			MealsLuxury: vals[4] * USDToINR,
			HotelBasic:  vals[5] * USDToINR,
			HotelMedium: vals[6] * USDToINR,
			HotelLuxury: vals[7] * USDToINR,
		}
	}

	return ds, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	return reader.ReadAll()
}

// Coordinates looks up the coordinate dataset by normalized city name.
func (d *Datasets) Coordinates(city string) (CityCoordinate, bool) {
	c, ok := d.coordinates[normalizeCity(city)]
	return c, ok
}

// CostProfile looks up the cost dataset by normalized city name.
func (d *Datasets) CostProfile(city string) (CityCostProfile, bool) {
	c, ok := d.costs[normalizeCity(city)]
	return c, ok
}

func (d *Datasets) CoordinateCount() int { return len(d.coordinates) }
func (d *Datasets) CostProfileCount() int { return len(d.costs) }

func normalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
