package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const tenantFileName = "tenant_id"

// Provisioner produces and persists the stable tenant identifier scoping
// every record to one household or shop.
type Provisioner struct {
	dataDir string
	logger  *zap.Logger
}

// NewProvisioner builds a file-backed provisioner rooted at the cache data
// directory.
func NewProvisioner(dataDir string, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{dataDir: dataDir, logger: logger}
}

// GetOrCreate returns the persisted tenant identifier, generating and storing
// a fresh one on first use. It never fails: when durable storage is
// unavailable the identifier is simply regenerated per call, which degrades
// scoping but keeps the application usable.
func (p *Provisioner) GetOrCreate() string {
	path := filepath.Join(p.dataDir, tenantFileName)

	if raw, err := os.ReadFile(path); err == nil {
		if id := strings.TrimSpace(string(raw)); id != "" {
			return id
		}
	}

	id := newTenantID()

	if err := os.MkdirAll(p.dataDir, 0o755); err != nil {
		p.logger.Warn("tenant id not persisted, data dir unavailable", zap.Error(err))
		return id
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		p.logger.Warn("tenant id not persisted", zap.Error(err))
		return id
	}

	p.logger.Info("provisioned new tenant id", zap.String("tenant_id", id))
	return id
}

func newTenantID() string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("t%dx%s", time.Now().UnixMilli(), suffix)
}
