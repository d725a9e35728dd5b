package cache

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"parceldesk/internal/domain/models"
)

const (
	packagesMirrorColl = "package_mirrors"
	productsMirrorColl = "product_mirrors"
)

// MongoStore keeps one mirror document per tenant per collection, upserted
// wholesale. Useful when several devices of the same household share a small
// hosted MongoDB instead of local disk.
type MongoStore struct {
	client *mongo.Client
	dbName string
}

type packagesMirror struct {
	TenantID string           `bson:"tenant_id"`
	Packages []models.Package `bson:"packages"`
}

type productsMirror struct {
	TenantID string           `bson:"tenant_id"`
	Products []models.Product `bson:"products"`
}

// NewMongoStore connects and pings the configured MongoDB deployment.
func NewMongoStore(ctx context.Context, uri string, dbName string) (*MongoStore, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{client: client, dbName: dbName}, nil
}

// SavePackages upserts the tenant's parcel mirror document.
func (s *MongoStore) SavePackages(ctx context.Context, tenantID string, pkgs []models.Package) error {
	coll := s.client.Database(s.dbName).Collection(packagesMirrorColl)
	_, err := coll.ReplaceOne(ctx,
		bson.M{"tenant_id": tenantID},
		packagesMirror{TenantID: tenantID, Packages: pkgs},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert package mirror: %w", err)
	}
	return nil
}

// LoadPackages returns the tenant's parcel mirror, or an empty slice when the
// tenant has no mirror document yet.
func (s *MongoStore) LoadPackages(ctx context.Context, tenantID string) ([]models.Package, error) {
	coll := s.client.Database(s.dbName).Collection(packagesMirrorColl)

	var mirror packagesMirror
	err := coll.FindOne(ctx, bson.M{"tenant_id": tenantID}).Decode(&mirror)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("load package mirror: %w", err)
	}
	return mirror.Packages, nil
}

// SaveProducts upserts the tenant's product mirror document.
func (s *MongoStore) SaveProducts(ctx context.Context, tenantID string, products []models.Product) error {
	coll := s.client.Database(s.dbName).Collection(productsMirrorColl)
	_, err := coll.ReplaceOne(ctx,
		bson.M{"tenant_id": tenantID},
		productsMirror{TenantID: tenantID, Products: products},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert product mirror: %w", err)
	}
	return nil
}

// LoadProducts returns the tenant's product mirror, or an empty slice.
func (s *MongoStore) LoadProducts(ctx context.Context, tenantID string) ([]models.Product, error) {
	coll := s.client.Database(s.dbName).Collection(productsMirrorColl)

	var mirror productsMirror
	err := coll.FindOne(ctx, bson.M{"tenant_id": tenantID}).Decode(&mirror)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("load product mirror: %w", err)
	}
	return mirror.Products, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
