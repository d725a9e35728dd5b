package cache

import (
	"context"

	"parceldesk/internal/domain/models"
)

// Store is the durable local mirror of the last known good record set,
// keyed by tenant. It is overwritten wholesale on every successful remote
// read and on every optimistic mutation. Implementations never need to be
// authoritative: callers treat write failures as log-and-continue.
type Store interface {
	SavePackages(ctx context.Context, tenantID string, pkgs []models.Package) error
	LoadPackages(ctx context.Context, tenantID string) ([]models.Package, error)
	SaveProducts(ctx context.Context, tenantID string, products []models.Product) error
	LoadProducts(ctx context.Context, tenantID string) ([]models.Product, error)
}
