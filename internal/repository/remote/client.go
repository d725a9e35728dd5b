package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"parceldesk/internal/config"
	"parceldesk/internal/domain/models"
)

// PackageStore exposes the hosted "packages" collection.
type PackageStore interface {
	ListPackages(ctx context.Context, tenantID string) ([]models.Package, error)
	InsertPackage(ctx context.Context, tenantID string, pkg models.Package) (models.Package, error)
	UpdatePackageStatus(ctx context.Context, tenantID, id string, status models.Status) error
	DeletePackage(ctx context.Context, tenantID, id string) error
}

// ProductStore exposes the secondary "products" lookup collection.
type ProductStore interface {
	FindProductByName(ctx context.Context, tenantID, name string) (models.Product, error)
	InsertProduct(ctx context.Context, tenantID string, product models.Product) (models.Product, error)
	UpdateProduct(ctx context.Context, tenantID string, product models.Product) error
}

// Client is a resty-backed implementation of both stores against a
// LeanCloud-compatible classes API. It holds no local state; all I/O is
// network only.
type Client struct {
	httpClient   *resty.Client
	packageClass string
	productClass string
	listLimit    int
	logger       *zap.Logger
}

// NewClient builds the remote store client from configuration.
func NewClient(cfg config.RemoteConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base+"/1.1").
		SetHeader("X-LC-Id", cfg.AppID).
		SetHeader("X-LC-Key", cfg.AppKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	return &Client{
		httpClient:   restyClient,
		packageClass: cfg.PackageClass,
		productClass: cfg.ProductClass,
		listLimit:    cfg.ListLimit,
		logger:       logger,
	}
}

// packageObject is the wire shape of one parcel. Field names follow the
// original collection schema; translation to the canonical model happens
// here and nowhere else.
type packageObject struct {
	ObjectID    string  `json:"objectId,omitempty"`
	TenantID    string  `json:"tenantId,omitempty"`
	TrackingNum string  `json:"trackingNum,omitempty"`
	ItemName    string  `json:"itemName,omitempty"`
	Recipient   string  `json:"recipient,omitempty"`
	Sender      string  `json:"sender,omitempty"`
	CostPrice   float64 `json:"costPrice,omitempty"`
	Quantity    int     `json:"quantity,omitempty"`
	Status      string  `json:"status,omitempty"`
	ProductID   string  `json:"productId,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

// productObject is the wire shape of one price-memory entry.
type productObject struct {
	ObjectID      string  `json:"objectId,omitempty"`
	TenantID      string  `json:"tenantId,omitempty"`
	Name          string  `json:"name,omitempty"`
	LastPrice     float64 `json:"lastPrice,omitempty"`
	TotalQuantity int     `json:"totalQuantity,omitempty"`
	UpdatedAt     string  `json:"updatedAt,omitempty"`
}

// apiError mirrors the backend's error payload.
type apiError struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

type listResponse[T any] struct {
	Results []T `json:"results"`
}

type insertResponse struct {
	ObjectID  string `json:"objectId"`
	CreatedAt string `json:"createdAt"`
}

// ListPackages fetches the tenant's parcels ordered by createdAt descending,
// capped at the configured page limit.
func (c *Client) ListPackages(ctx context.Context, tenantID string) ([]models.Package, error) {
	result := new(listResponse[packageObject])
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("where", whereClause(map[string]string{"tenantId": tenantID})).
		SetQueryParam("order", "-createdAt").
		SetQueryParam("limit", fmt.Sprint(c.listLimit)).
		SetResult(result).
		SetError(apiErr).
		Get("/classes/" + c.packageClass)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w: %w", ErrRemoteUnavailable, err)
	}
	if err := c.checkStatus(resp, apiErr, "list packages"); err != nil {
		return nil, err
	}

	pkgs := make([]models.Package, 0, len(result.Results))
	for _, obj := range result.Results {
		pkgs = append(pkgs, obj.toModel())
	}
	return pkgs, nil
}

// InsertPackage creates the parcel remotely and returns it with the
// authoritative id and creation timestamp filled in.
func (c *Client) InsertPackage(ctx context.Context, tenantID string, pkg models.Package) (models.Package, error) {
	if pkg.ItemName == "" {
		return models.Package{}, fmt.Errorf("insert package: %w: itemName is required", ErrValidation)
	}

	payload := fromModel(pkg)
	payload.ObjectID = ""
	payload.CreatedAt = ""
	payload.TenantID = tenantID

	result := new(insertResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(result).
		SetError(apiErr).
		Post("/classes/" + c.packageClass)
	if err != nil {
		return models.Package{}, fmt.Errorf("insert package: %w: %w", ErrRemoteUnavailable, err)
	}
	if err := c.checkStatus(resp, apiErr, "insert package"); err != nil {
		return models.Package{}, err
	}

	confirmed := pkg
	confirmed.ID = result.ObjectID
	if created, ok := parseTimestamp(result.CreatedAt); ok {
		confirmed.CreatedAt = created
	}
	return confirmed, nil
}

// UpdatePackageStatus persists a status transition for one parcel.
func (c *Client) UpdatePackageStatus(ctx context.Context, tenantID, id string, status models.Status) error {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"status": string(status), "tenantId": tenantID}).
		SetError(apiErr).
		Put(fmt.Sprintf("/classes/%s/%s", c.packageClass, id))
	if err != nil {
		return fmt.Errorf("update package status: %w: %w", ErrRemoteUnavailable, err)
	}
	return c.checkStatus(resp, apiErr, "update package status")
}

// DeletePackage removes the parcel remotely.
func (c *Client) DeletePackage(ctx context.Context, tenantID, id string) error {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetError(apiErr).
		Delete(fmt.Sprintf("/classes/%s/%s", c.packageClass, id))
	if err != nil {
		return fmt.Errorf("delete package: %w: %w", ErrRemoteUnavailable, err)
	}
	return c.checkStatus(resp, apiErr, "delete package")
}

// FindProductByName looks up the tenant's product entry for an item name.
func (c *Client) FindProductByName(ctx context.Context, tenantID, name string) (models.Product, error) {
	result := new(listResponse[productObject])
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("where", whereClause(map[string]string{"tenantId": tenantID, "name": name})).
		SetQueryParam("limit", "1").
		SetResult(result).
		SetError(apiErr).
		Get("/classes/" + c.productClass)
	if err != nil {
		return models.Product{}, fmt.Errorf("find product: %w: %w", ErrRemoteUnavailable, err)
	}
	if err := c.checkStatus(resp, apiErr, "find product"); err != nil {
		return models.Product{}, err
	}
	if len(result.Results) == 0 {
		return models.Product{}, fmt.Errorf("find product %q: %w", name, ErrNotFound)
	}
	return result.Results[0].toModel(), nil
}

// InsertProduct creates the product entry remotely.
func (c *Client) InsertProduct(ctx context.Context, tenantID string, product models.Product) (models.Product, error) {
	payload := productObject{
		TenantID:      tenantID,
		Name:          product.Name,
		LastPrice:     product.LastPrice,
		TotalQuantity: product.TotalQuantity,
	}

	result := new(insertResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(result).
		SetError(apiErr).
		Post("/classes/" + c.productClass)
	if err != nil {
		return models.Product{}, fmt.Errorf("insert product: %w: %w", ErrRemoteUnavailable, err)
	}
	if err := c.checkStatus(resp, apiErr, "insert product"); err != nil {
		return models.Product{}, err
	}

	confirmed := product
	confirmed.ID = result.ObjectID
	return confirmed, nil
}

// UpdateProduct persists the latest observed price and running quantity.
func (c *Client) UpdateProduct(ctx context.Context, tenantID string, product models.Product) error {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"lastPrice":     product.LastPrice,
			"totalQuantity": product.TotalQuantity,
			"tenantId":      tenantID,
		}).
		SetError(apiErr).
		Put(fmt.Sprintf("/classes/%s/%s", c.productClass, product.ID))
	if err != nil {
		return fmt.Errorf("update product: %w: %w", ErrRemoteUnavailable, err)
	}
	return c.checkStatus(resp, apiErr, "update product")
}

// checkStatus translates HTTP and backend error codes into the client's
// error taxonomy.
func (c *Client) checkStatus(resp *resty.Response, apiErr *apiError, op string) error {
	code := resp.StatusCode()
	if code < http.StatusBadRequest {
		return nil
	}

	message := ""
	backendCode := 0
	if apiErr != nil {
		message = apiErr.Error
		backendCode = apiErr.Code
	}

	c.logger.Debug("remote call rejected",
		zap.String("op", op),
		zap.Int("status", code),
		zap.Int("backend_code", backendCode),
		zap.String("message", message))

	switch {
	case code == http.StatusNotFound || backendCode == 101:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w: %s", op, ErrValidation, message)
	default:
		// 401/403 and 5xx collapse into unavailability: nothing the user can
		// do differently, the session just degrades.
		return fmt.Errorf("%s: %w: status=%d message=%s", op, ErrRemoteUnavailable, code, message)
	}
}

func whereClause(fields map[string]string) string {
	raw, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func (o packageObject) toModel() models.Package {
	created, _ := parseTimestamp(o.CreatedAt)
	status := models.Status(o.Status)
	if !status.Valid() {
		status = models.StatusPending
	}
	quantity := o.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	return models.Package{
		ID:             o.ObjectID,
		TrackingNumber: o.TrackingNum,
		ItemName:       o.ItemName,
		Recipient:      o.Recipient,
		Sender:         o.Sender,
		CostPrice:      o.CostPrice,
		Quantity:       quantity,
		Status:         status,
		ProductID:      o.ProductID,
		CreatedAt:      created,
	}
}

func fromModel(pkg models.Package) packageObject {
	return packageObject{
		ObjectID:    pkg.ID,
		TrackingNum: pkg.TrackingNumber,
		ItemName:    pkg.ItemName,
		Recipient:   pkg.Recipient,
		Sender:      pkg.Sender,
		CostPrice:   pkg.CostPrice,
		Quantity:    pkg.Quantity,
		Status:      string(pkg.Status),
		ProductID:   pkg.ProductID,
	}
}

func (o productObject) toModel() models.Product {
	updated, _ := parseTimestamp(o.UpdatedAt)
	return models.Product{
		ID:            o.ObjectID,
		Name:          o.Name,
		LastPrice:     o.LastPrice,
		TotalQuantity: o.TotalQuantity,
		UpdatedAt:     updated,
	}
}
