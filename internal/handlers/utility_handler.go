package handlers

import (
	"audit-service/internal/models"
	"audit-service/internal/services"
	"audit-service/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgReportNotFound = "Report not found"

// UtilityHandler serves the audit record endpoints under /api/utilities.
type UtilityHandler struct {
	auditService services.IAuditService
	middleware   *Middleware
	errs         errorWriter
}

func NewUtilityHandler(auditService services.IAuditService, middleware *Middleware, exposeDetails bool, logger *zap.Logger) *UtilityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UtilityHandler{
		auditService: auditService,
		middleware:   middleware,
		errs:         errorWriter{exposeDetails: exposeDetails, logger: logger},
	}
}

func (h *UtilityHandler) RegisterRoutes(router *gin.Engine) {
	utilGr := router.Group("/api/utilities", h.middleware.RequireAuth())

	utilGr.POST("/submit", h.Submit)
	utilGr.GET("/all", h.ListAll)
	utilGr.GET("/critical", h.Critical)
	utilGr.GET("/filter", h.Filter)
	utilGr.GET("/mine", h.ListMine)
	utilGr.GET("/:id", h.Get)

	adminGr := utilGr.Group("", h.middleware.RequireAdmin())
	adminGr.PATCH("/:id", h.Update)
	adminGr.POST("/:id/resolve", h.Resolve)
	adminGr.DELETE("/:id", h.Delete)
}

func (h *UtilityHandler) Submit(c *gin.Context) {
	claims, _ := GetClaims(c)

	var req models.SubmitRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.badRequest(c, "Failed to log audit report", err)
		return
	}

	record, err := h.auditService.Submit(c.Request.Context(), claims, req)
	if err != nil {
		if verr, ok := asValidation(err); ok {
			c.JSON(http.StatusBadRequest, utils.CreateErrorResponseWithDetail("VALIDATION_ERROR", "Failed to log audit report", verr.Error()))
			return
		}
		h.errs.write(c, err, msgReportNotFound)
		return
	}

	c.JSON(http.StatusCreated, utils.CreateSuccessResponse("Infrastructure audit logged successfully", record))
}

func (h *UtilityHandler) ListAll(c *gin.Context) {
	claims, _ := GetClaims(c)
	h.respondList(c, func() ([]*models.AuditRecord, error) {
		return h.auditService.ListAll(c.Request.Context(), claims)
	})
}

func (h *UtilityHandler) Critical(c *gin.Context) {
	claims, _ := GetClaims(c)
	h.respondList(c, func() ([]*models.AuditRecord, error) {
		return h.auditService.Critical(c.Request.Context(), claims)
	})
}

func (h *UtilityHandler) Filter(c *gin.Context) {
	claims, _ := GetClaims(c)

	var query models.FilterQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.errs.badRequest(c, "Invalid filter parameters", err)
		return
	}

	h.respondList(c, func() ([]*models.AuditRecord, error) {
		return h.auditService.Filter(c.Request.Context(), claims, query)
	})
}

func (h *UtilityHandler) ListMine(c *gin.Context) {
	claims, _ := GetClaims(c)
	h.respondList(c, func() ([]*models.AuditRecord, error) {
		return h.auditService.ListMine(c.Request.Context(), claims)
	})
}

func (h *UtilityHandler) Get(c *gin.Context) {
	claims, _ := GetClaims(c)

	record, err := h.auditService.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		h.errs.write(c, err, msgReportNotFound)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *UtilityHandler) Update(c *gin.Context) {
	claims, _ := GetClaims(c)

	var patch models.RecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.errs.badRequest(c, "Invalid request format", err)
		return
	}

	record, err := h.auditService.Update(c.Request.Context(), claims, c.Param("id"), patch)
	if err != nil {
		h.errs.write(c, err, msgReportNotFound)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse("Audit report updated", record))
}

func (h *UtilityHandler) Resolve(c *gin.Context) {
	claims, _ := GetClaims(c)

	record, err := h.auditService.Resolve(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		h.errs.write(c, err, msgReportNotFound)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse("Audit report resolved", record))
}

func (h *UtilityHandler) Delete(c *gin.Context) {
	claims, _ := GetClaims(c)

	if err := h.auditService.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		h.errs.write(c, err, msgReportNotFound)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse("Audit report deleted", nil))
}

func (h *UtilityHandler) respondList(c *gin.Context, load func() ([]*models.AuditRecord, error)) {
	records, err := load()
	if err != nil {
		h.errs.write(c, err, msgReportNotFound)
		return
	}
	if records == nil {
		records = []*models.AuditRecord{}
	}
	c.JSON(http.StatusOK, records)
}
