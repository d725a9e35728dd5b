package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"parceldesk/internal/domain/models"
)

// FileStore mirrors record sets as one JSON file per tenant per collection
// under a data directory. It is the default backend and the closest
// equivalent of the browser variants' localStorage mirror.
type FileStore struct {
	dataDir string
}

// NewFileStore creates the data directory if needed and returns the store.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dataDir, err)
	}
	return &FileStore{dataDir: dataDir}, nil
}

// SavePackages overwrites the tenant's parcel mirror.
func (s *FileStore) SavePackages(ctx context.Context, tenantID string, pkgs []models.Package) error {
	return writeJSON(s.path(tenantID, "packages"), pkgs)
}

// LoadPackages returns the tenant's parcel mirror, or an empty slice when no
// mirror exists yet.
func (s *FileStore) LoadPackages(ctx context.Context, tenantID string) ([]models.Package, error) {
	var pkgs []models.Package
	if err := readJSON(s.path(tenantID, "packages"), &pkgs); err != nil {
		return nil, err
	}
	return pkgs, nil
}

// SaveProducts overwrites the tenant's product mirror.
func (s *FileStore) SaveProducts(ctx context.Context, tenantID string, products []models.Product) error {
	return writeJSON(s.path(tenantID, "products"), products)
}

// LoadProducts returns the tenant's product mirror, or an empty slice.
func (s *FileStore) LoadProducts(ctx context.Context, tenantID string) ([]models.Product, error) {
	var products []models.Product
	if err := readJSON(s.path(tenantID, "products"), &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *FileStore) path(tenantID, collection string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s_%s.json", collection, tenantID))
}

func writeJSON(path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache file %s: %w", path, err)
	}

	// Write-then-rename keeps a crash from truncating the previous mirror.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write cache file %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace cache file %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, target any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache file %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode cache file %s: %w", path, err)
	}
	return nil
}
