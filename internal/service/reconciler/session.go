// Package reconciler owns the local/remote consistency of one tenant's
// record set. Every mutating operation applies optimistically to the
// in-memory set, mirrors it to the local cache, then attempts to replicate to
// the remote store; failures either roll the state back (strict policy) or
// keep the local truth and flip the session into degraded mode (lenient
// policy). Mutations are serialized by the session mutex end to end, so two
// concurrent adds can never lose an update.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parceldesk/internal/config"
	"parceldesk/internal/domain/models"
	"parceldesk/internal/repository/cache"
	"parceldesk/internal/repository/remote"
	"parceldesk/internal/service/view"
)

const tempIDPrefix = "local-"

const maxNotices = 32

// Validation errors raised before any remote call is attempted.
var (
	ErrItemNameRequired = errors.New("item name is required")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidCost      = errors.New("cost price must not be negative")
)

// ErrUnknownPackage means the target id is not in the current record set.
var ErrUnknownPackage = errors.New("unknown package id")

// ErrTerminalStatus means the record is already received and cannot advance.
var ErrTerminalStatus = errors.New("package already received")

// Options tune a session's policies.
type Options struct {
	// AddPolicy is config.AddPolicyLenient (keep local truth on remote
	// failure, default) or config.AddPolicyStrict (roll back).
	AddPolicy string
	// NoticeTTL is how long a toast stays visible.
	NoticeTTL time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Session is the reconciler for one tenant. It exclusively owns the
// in-memory record set, the cache entry and the degraded-mode flag; no other
// component mutates them.
type Session struct {
	tenantID  string
	remote    remote.PackageStore
	products  remote.ProductStore
	cache     cache.Store
	logger    *zap.Logger
	addPolicy string
	noticeTTL time.Duration
	now       func() time.Time

	mu         sync.Mutex
	pkgs       []models.Package
	productSet []models.Product
	degraded   bool
	notices    []models.Notice
}

// NewSession wires a session. The remote stores and cache must be non-nil.
func NewSession(tenantID string, pkgStore remote.PackageStore, productStore remote.ProductStore, cacheStore cache.Store, opts Options, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.AddPolicy == "" {
		opts.AddPolicy = config.AddPolicyLenient
	}
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Session{
		tenantID:  tenantID,
		remote:    pkgStore,
		products:  productStore,
		cache:     cacheStore,
		logger:    logger,
		addPolicy: opts.AddPolicy,
		noticeTTL: opts.NoticeTTL,
		now:       opts.Now,
	}
}

// Start performs the initial load: a remote refresh when possible, otherwise
// the cached mirror with the session marked degraded. Products always come
// from the cache; they are rebuilt lazily as records are added.
func (s *Session) Start(ctx context.Context) error {
	if products, err := s.cache.LoadProducts(ctx, s.tenantID); err != nil {
		s.logger.Warn("product cache unreadable", zap.Error(err))
	} else {
		s.mu.Lock()
		s.productSet = products
		s.mu.Unlock()
	}

	if err := s.Refresh(ctx); err != nil {
		cached, cacheErr := s.cache.LoadPackages(ctx, s.tenantID)
		if cacheErr != nil {
			s.logger.Warn("package cache unreadable", zap.Error(cacheErr))
		}

		s.mu.Lock()
		s.pkgs = cached
		s.degraded = true
		s.pushNotice(models.NoticeError, "cloud unreachable, working from local copy")
		s.mu.Unlock()

		s.logger.Warn("starting in degraded mode",
			zap.Int("cached_packages", len(cached)),
			zap.Error(err))
		return nil
	}
	return nil
}

// Refresh re-reads the remote record set, replaces the in-memory state and
// rewrites the cache. A successful refresh clears degraded mode: it is the
// only signal that connectivity is restored. Refreshes are idempotent reads
// and may race pending mutations; the last remote response wins.
func (s *Session) Refresh(ctx context.Context) error {
	pkgs, err := s.remote.ListPackages(ctx, s.tenantID)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	s.mu.Lock()
	// Records that only exist locally are durable truth; the remote list
	// cannot contain them, so carry them over.
	for _, pkg := range s.pkgs {
		if s.isTemporary(pkg.ID) {
			pkgs = append(pkgs, pkg)
		}
	}
	view.Sort(pkgs)
	s.pkgs = pkgs
	wasDegraded := s.degraded
	s.degraded = false
	s.saveCacheLocked(ctx)
	s.mu.Unlock()

	if wasDegraded {
		s.logger.Info("connectivity restored", zap.Int("packages", len(pkgs)))
	}
	return nil
}

// Add validates the form input, applies the new record optimistically with a
// temporary id, mirrors the cache, then replicates to the remote store. On
// success the temporary id is swapped for the authoritative one. On failure
// the configured add policy decides between rollback (strict) and keeping the
// local truth in degraded mode (lenient).
func (s *Session) Add(ctx context.Context, input models.AddPackageInput) (models.Package, error) {
	if strings.TrimSpace(input.ItemName) == "" {
		return models.Package{}, ErrItemNameRequired
	}
	if input.Quantity < 0 {
		return models.Package{}, ErrInvalidQuantity
	}
	if input.CostPrice < 0 {
		return models.Package{}, ErrInvalidCost
	}

	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pkg := models.Package{
		ID:             tempIDPrefix + uuid.NewString(),
		TrackingNumber: strings.TrimSpace(input.TrackingNumber),
		ItemName:       strings.TrimSpace(input.ItemName),
		Recipient:      strings.TrimSpace(input.Recipient),
		Sender:         strings.TrimSpace(input.Sender),
		CostPrice:      input.CostPrice,
		Quantity:       quantity,
		Status:         models.StatusPending,
		CreatedAt:      s.now(),
	}

	snapshot := s.snapshotLocked()
	productSnapshot := append([]models.Product(nil), s.productSet...)

	product := s.upsertProductLocked(pkg)
	pkg.ProductID = product.ID

	// Optimistic apply: new pending records belong at the top of the list.
	s.pkgs = append([]models.Package{pkg}, s.pkgs...)
	s.saveCacheLocked(ctx)

	if s.degraded {
		s.pushNotice(models.NoticeInfo, fmt.Sprintf("%s saved locally (offline)", pkg.ItemName))
		return pkg, nil
	}

	// Resolve the product link before the parcel leaves the process: the
	// remote object must carry the authoritative product id, never a
	// temporary one.
	s.syncProductLocked(ctx, product)
	if idx := s.indexLocked(pkg.ID); idx >= 0 {
		pkg = s.pkgs[idx]
	}

	outbound := pkg
	if s.isTemporary(outbound.ProductID) {
		outbound.ProductID = ""
	}

	confirmed, err := s.remote.InsertPackage(ctx, s.tenantID, outbound)
	if err != nil {
		if s.addPolicy == config.AddPolicyStrict {
			s.productSet = productSnapshot
			s.restoreLocked(ctx, snapshot)
			s.pushNotice(models.NoticeError, fmt.Sprintf("adding %s failed", pkg.ItemName))
			return models.Package{}, err
		}

		// Lenient: the optimistic record becomes the durable truth and the
		// session stops trying the remote until a refresh succeeds.
		s.degraded = true
		s.pushNotice(models.NoticeError, fmt.Sprintf("%s saved locally, sync failed", pkg.ItemName))
		s.logger.Warn("add not replicated, entering degraded mode",
			zap.String("temp_id", pkg.ID),
			zap.Error(err))
		return pkg, nil
	}

	s.replaceLocked(pkg.ID, confirmed)
	s.saveCacheLocked(ctx)
	s.pushNotice(models.NoticeInfo, fmt.Sprintf("%s added", confirmed.ItemName))
	return confirmed, nil
}

// Toggle flips a record between pending and received. Strict policy: a
// failed remote update restores the pre-operation state.
func (s *Session) Toggle(ctx context.Context, id string) (models.Package, error) {
	return s.transition(ctx, id, func(current models.Status) (models.Status, error) {
		return current.Toggled(), nil
	})
}

// Advance moves a record one step along pending, shipped, received. Strict
// policy, and received is terminal.
func (s *Session) Advance(ctx context.Context, id string) (models.Package, error) {
	return s.transition(ctx, id, func(current models.Status) (models.Status, error) {
		if current == models.StatusReceived {
			return current, ErrTerminalStatus
		}
		return current.Next(), nil
	})
}

func (s *Session) transition(ctx context.Context, id string, step func(models.Status) (models.Status, error)) (models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return models.Package{}, fmt.Errorf("%w: %s", ErrUnknownPackage, id)
	}

	next, err := step(s.pkgs[idx].Status)
	if err != nil {
		return models.Package{}, err
	}

	snapshot := s.snapshotLocked()

	s.pkgs[idx].Status = next
	updated := s.pkgs[idx]
	// A status change moves the record between the pending and done groups.
	view.Sort(s.pkgs)
	s.saveCacheLocked(ctx)

	if s.degraded || s.isTemporary(id) {
		// Offline, or the record never reached the remote store: the local
		// mirror is the only truth there is.
		s.pushNotice(models.NoticeInfo, fmt.Sprintf("%s marked %s (offline)", updated.ItemName, next))
		return updated, nil
	}

	if err := s.remote.UpdatePackageStatus(ctx, s.tenantID, id, next); err != nil {
		s.restoreLocked(ctx, snapshot)
		s.pushNotice(models.NoticeError, fmt.Sprintf("updating %s failed", updated.ItemName))
		s.logger.Warn("status update rolled back", zap.String("id", id), zap.Error(err))
		return models.Package{}, err
	}

	s.pushNotice(models.NoticeInfo, fmt.Sprintf("%s marked %s", updated.ItemName, next))
	return updated, nil
}

// Delete removes a record. Strict policy, with one exception: when the
// remote store reports the object already gone, the optimistic deletion
// stands, since both sides agree the record no longer exists.
func (s *Session) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPackage, id)
	}

	snapshot := s.snapshotLocked()
	removed := s.pkgs[idx]

	s.pkgs = append(s.pkgs[:idx:idx], s.pkgs[idx+1:]...)
	s.saveCacheLocked(ctx)

	if s.degraded || s.isTemporary(id) {
		s.pushNotice(models.NoticeInfo, fmt.Sprintf("%s deleted (offline)", removed.ItemName))
		return nil
	}

	if err := s.remote.DeletePackage(ctx, s.tenantID, id); err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			s.pushNotice(models.NoticeInfo, fmt.Sprintf("%s deleted", removed.ItemName))
			return nil
		}
		s.restoreLocked(ctx, snapshot)
		s.pushNotice(models.NoticeError, fmt.Sprintf("deleting %s failed", removed.ItemName))
		s.logger.Warn("delete rolled back", zap.String("id", id), zap.Error(err))
		return err
	}

	s.pushNotice(models.NoticeInfo, fmt.Sprintf("%s deleted", removed.ItemName))
	return nil
}

// Packages returns a copy of the current in-memory record set.
func (s *Session) Packages() []models.Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Products returns a copy of the current product set.
func (s *Session) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.productSet))
	copy(out, s.productSet)
	return out
}

// Notices returns the unexpired toasts and prunes the rest.
func (s *Session) Notices() []models.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	kept := s.notices[:0]
	for _, n := range s.notices {
		if n.ExpiresAt.After(now) {
			kept = append(kept, n)
		}
	}
	s.notices = kept

	out := make([]models.Notice, len(kept))
	copy(out, kept)
	return out
}

// Degraded reports whether the session is in local-only mode.
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// TenantID returns the identifier the session is scoped to.
func (s *Session) TenantID() string {
	return s.tenantID
}

func (s *Session) isTemporary(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

func (s *Session) indexLocked(id string) int {
	for i := range s.pkgs {
		if s.pkgs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) snapshotLocked() []models.Package {
	out := make([]models.Package, len(s.pkgs))
	copy(out, s.pkgs)
	return out
}

func (s *Session) restoreLocked(ctx context.Context, snapshot []models.Package) {
	s.pkgs = snapshot
	s.saveCacheLocked(ctx)
}

func (s *Session) replaceLocked(tempID string, confirmed models.Package) {
	if idx := s.indexLocked(tempID); idx >= 0 {
		s.pkgs[idx] = confirmed
	}
}

// saveCacheLocked mirrors the current state. The cache is best-effort, a
// write failure must never block the operation that triggered it.
func (s *Session) saveCacheLocked(ctx context.Context) {
	if err := s.cache.SavePackages(ctx, s.tenantID, s.pkgs); err != nil {
		s.logger.Warn("package cache write failed", zap.Error(err))
	}
	if err := s.cache.SaveProducts(ctx, s.tenantID, s.productSet); err != nil {
		s.logger.Warn("product cache write failed", zap.Error(err))
	}
}

// upsertProductLocked records the price observation for the item name:
// created lazily on first sight, lastPrice and running quantity updated on
// every add after that.
func (s *Session) upsertProductLocked(pkg models.Package) models.Product {
	for i := range s.productSet {
		if s.productSet[i].Name == pkg.ItemName {
			s.productSet[i].LastPrice = pkg.CostPrice
			s.productSet[i].TotalQuantity += pkg.Quantity
			s.productSet[i].UpdatedAt = pkg.CreatedAt
			return s.productSet[i]
		}
	}

	product := models.Product{
		ID:            tempIDPrefix + uuid.NewString(),
		Name:          pkg.ItemName,
		LastPrice:     pkg.CostPrice,
		TotalQuantity: pkg.Quantity,
		UpdatedAt:     pkg.CreatedAt,
	}
	s.productSet = append(s.productSet, product)
	return product
}

// syncProductLocked replicates the product entry remotely. The product
// collection is informational, so failures only log; they never roll back
// the parcel that triggered the update.
func (s *Session) syncProductLocked(ctx context.Context, product models.Product) {
	if s.products == nil {
		return
	}

	if !s.isTemporary(product.ID) {
		if err := s.products.UpdateProduct(ctx, s.tenantID, product); err != nil {
			s.logger.Warn("product update not replicated", zap.String("name", product.Name), zap.Error(err))
		}
		return
	}

	existing, err := s.products.FindProductByName(ctx, s.tenantID, product.Name)
	switch {
	case err == nil:
		existing.LastPrice = product.LastPrice
		existing.TotalQuantity = product.TotalQuantity
		s.adoptProductIDLocked(product.Name, existing.ID)
		if err := s.products.UpdateProduct(ctx, s.tenantID, existing); err != nil {
			s.logger.Warn("product update not replicated", zap.String("name", product.Name), zap.Error(err))
		}
	case errors.Is(err, remote.ErrNotFound):
		confirmed, insertErr := s.products.InsertProduct(ctx, s.tenantID, product)
		if insertErr != nil {
			s.logger.Warn("product insert not replicated", zap.String("name", product.Name), zap.Error(insertErr))
			return
		}
		s.adoptProductIDLocked(product.Name, confirmed.ID)
	default:
		s.logger.Warn("product lookup failed", zap.String("name", product.Name), zap.Error(err))
	}
}

// adoptProductIDLocked swaps a temporary product id for the authoritative
// one, on the product entry and on every parcel referencing it.
func (s *Session) adoptProductIDLocked(name, authoritativeID string) {
	var tempID string
	for i := range s.productSet {
		if s.productSet[i].Name == name {
			tempID = s.productSet[i].ID
			s.productSet[i].ID = authoritativeID
			break
		}
	}
	if tempID == "" || tempID == authoritativeID {
		return
	}
	for i := range s.pkgs {
		if s.pkgs[i].ProductID == tempID {
			s.pkgs[i].ProductID = authoritativeID
		}
	}
}

func (s *Session) pushNotice(level models.NoticeLevel, message string) {
	now := s.now()
	s.notices = append(s.notices, models.Notice{
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(s.noticeTTL),
	})
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}
