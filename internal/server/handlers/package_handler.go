package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parceldesk/internal/domain/models"
	"parceldesk/internal/repository/remote"
	"parceldesk/internal/repository/sheets"
	"parceldesk/internal/service/reconciler"
	"parceldesk/internal/service/view"
)

// PackageHandler adapts the reconciler session and the derived-state layer
// to HTTP.
type PackageHandler struct {
	session  *reconciler.Session
	exporter sheets.Exporter
	logger   *zap.Logger
}

// NewPackageHandler constructs the HTTP handler adapter. The exporter may be
// nil when no spreadsheet target is configured.
func NewPackageHandler(session *reconciler.Session, exporter sheets.Exporter, logger *zap.Logger) *PackageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PackageHandler{session: session, exporter: exporter, logger: logger}
}

// List returns the record set filtered by the live search term and status
// filter, plus the session's sync state.
func (h *PackageHandler) List(c *gin.Context) {
	term := c.Query("q")
	status := c.DefaultQuery("status", view.StatusAll)

	pkgs := view.Filter(h.session.Packages(), term, status)

	c.JSON(http.StatusOK, gin.H{
		"packages": pkgs,
		"degraded": h.session.Degraded(),
	})
}

// Add ingests the add form.
func (h *PackageHandler) Add(c *gin.Context) {
	var input models.AddPackageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid add payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pkg, err := h.session.Add(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err, "add")
		return
	}

	c.JSON(http.StatusCreated, pkg)
}

// Toggle flips a record between pending and received.
func (h *PackageHandler) Toggle(c *gin.Context) {
	pkg, err := h.session.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "toggle")
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// Advance moves a record one step along the three-state chain.
func (h *PackageHandler) Advance(c *gin.Context) {
	pkg, err := h.session.Advance(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "advance")
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// Delete removes a record.
func (h *PackageHandler) Delete(c *gin.Context) {
	if err := h.session.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "delete")
		return
	}
	c.Status(http.StatusNoContent)
}

// Refresh re-reads the remote record set on demand.
func (h *PackageHandler) Refresh(c *gin.Context) {
	if err := h.session.Refresh(c.Request.Context()); err != nil {
		h.respondError(c, err, "refresh")
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": h.session.Packages()})
}

// Stats returns the aggregate header-card numbers.
func (h *PackageHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, view.Stats(h.session.Packages()))
}

// Notices returns the currently visible toasts.
func (h *PackageHandler) Notices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notices": h.session.Notices()})
}

// Products lists the price-memory entries.
func (h *PackageHandler) Products(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": h.session.Products()})
}

// PriceHistory returns the chart series for one product, matched by id or,
// as a fallback for unlinked records, by name.
func (h *PackageHandler) PriceHistory(c *gin.Context) {
	productID := c.Query("id")
	productName := c.Query("name")
	if productID == "" && productName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id or name query parameter required"})
		return
	}

	points := view.PriceHistory(h.session.Packages(), productID, productName)
	c.JSON(http.StatusOK, gin.H{"points": points})
}

// ExportCSV streams the full record set as a downloadable CSV file.
func (h *PackageHandler) ExportCSV(c *gin.Context) {
	blob, err := view.ExportCSV(h.session.Packages())
	if err != nil {
		h.logger.Error("csv export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="packages.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", blob)
}

// ExportSheets appends the full record set to the configured spreadsheet.
func (h *PackageHandler) ExportSheets(c *gin.Context) {
	if h.exporter == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "spreadsheet export not configured"})
		return
	}

	pkgs := h.session.Packages()
	if err := h.exporter.AppendRecords(c.Request.Context(), pkgs); err != nil {
		h.logger.Error("sheet export failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to export to spreadsheet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"exported": len(pkgs)})
}

func (h *PackageHandler) respondError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, reconciler.ErrItemNameRequired),
		errors.Is(err, reconciler.ErrInvalidQuantity),
		errors.Is(err, reconciler.ErrInvalidCost),
		errors.Is(err, reconciler.ErrTerminalStatus):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, reconciler.ErrUnknownPackage), errors.Is(err, remote.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("operation failed", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "cloud sync failed"})
	}
}
