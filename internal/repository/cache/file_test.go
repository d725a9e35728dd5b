package cache

import (
	"context"
	"reflect"
	"testing"
	"time"

	"parceldesk/internal/domain/models"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ctx := context.Background()
	pkgs := []models.Package{
		{ID: "R1", TrackingNumber: "SF123", ItemName: "Socks", Status: models.StatusPending, CostPrice: 5, Quantity: 2, CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		{ID: "R2", ItemName: "Lamp", Status: models.StatusReceived, Quantity: 1, CreatedAt: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)},
	}

	if err := store.SavePackages(ctx, "t1", pkgs); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.LoadPackages(ctx, "t1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(pkgs, loaded) {
		t.Fatalf("round trip mismatch:\nsaved  %+v\nloaded %+v", pkgs, loaded)
	}
}

func TestFileStoreOverwritesWholesale(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if err := store.SavePackages(ctx, "t1", []models.Package{{ID: "R1", ItemName: "a", Quantity: 1}}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.SavePackages(ctx, "t1", []models.Package{{ID: "R2", ItemName: "b", Quantity: 1}}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := store.LoadPackages(ctx, "t1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "R2" {
		t.Fatalf("expected wholesale overwrite, got %+v", loaded)
	}
}

func TestFileStoreUnknownTenantIsEmpty(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	loaded, err := store.LoadPackages(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty set, got %+v", loaded)
	}

	products, err := store.LoadProducts(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("load products: %v", err)
	}
	if len(products) != 0 {
		t.Fatalf("expected empty products, got %+v", products)
	}
}

func TestFileStoreTenantsIsolated(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if err := store.SavePackages(ctx, "t1", []models.Package{{ID: "R1", ItemName: "a", Quantity: 1}}); err != nil {
		t.Fatalf("save t1: %v", err)
	}
	if err := store.SaveProducts(ctx, "t2", []models.Product{{ID: "P1", Name: "rice"}}); err != nil {
		t.Fatalf("save t2: %v", err)
	}

	other, err := store.LoadPackages(ctx, "t2")
	if err != nil {
		t.Fatalf("load t2: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("tenant t2 must not see t1 packages: %+v", other)
	}
}
