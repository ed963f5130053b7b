package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Crop is one entry in the crop catalog.
type Crop struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"` // e.g., "cereal", "vegetable", "pulse"
	Unit     string `json:"unit"`     // price unit, e.g. "INR/quintal"
}

// CropCatalog is the list of crops the price importer knows about.
type CropCatalog struct {
	UpdatedAt string `json:"updated_at"` // ISO 8601 timestamp
	Crops     []Crop `json:"crops"`
}

// LoadCatalog loads a crop catalog from a JSON file
func LoadCatalog(filePath string) (*CropCatalog, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read crop catalog: %w", err)
	}

	var list CropCatalog
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse crop catalog: %w", err)
	}

	return &list, nil
}

// SaveCatalog saves a crop catalog to a JSON file
func SaveCatalog(list *CropCatalog, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	raw, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal crop catalog: %w", err)
	}

	if err := os.WriteFile(filePath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write crop catalog: %w", err)
	}

	return nil
}

// GetDefaultCatalogPath returns the default path for the crop catalog
func GetDefaultCatalogPath() string {
	if path := os.Getenv("CROPS_FILE"); path != "" {
		return path
	}
	return "./data/crops.json"
}

// DefaultCatalog is used when no catalog file exists.
func DefaultCatalog() *CropCatalog {
	return &CropCatalog{
		Crops: []Crop{
			{ID: "wheat", Name: "Wheat", Category: "cereal", Unit: "INR/quintal"},
			{ID: "rice", Name: "Rice", Category: "cereal", Unit: "INR/quintal"},
			{ID: "maize", Name: "Maize", Category: "cereal", Unit: "INR/quintal"},
			{ID: "tomato", Name: "Tomato", Category: "vegetable", Unit: "INR/quintal"},
			{ID: "onion", Name: "Onion", Category: "vegetable", Unit: "INR/quintal"},
			{ID: "chickpea", Name: "Chickpea", Category: "pulse", Unit: "INR/quintal"},
		},
	}
}
