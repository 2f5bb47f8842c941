package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/crm-contracts/internal/http/middleware"
	"github.com/nurpe/crm-contracts/internal/model"
	"github.com/nurpe/crm-contracts/internal/repository"
	"github.com/nurpe/crm-contracts/internal/service"
)

type Handler struct {
	fields  *service.FieldService
	send    *service.SendService
	reports *service.ContractService
	log     zerolog.Logger
}

func NewHandler(fields *service.FieldService, send *service.SendService, reports *service.ContractService, log zerolog.Logger) *Handler {
	return &Handler{fields: fields, send: send, reports: reports, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.GET("/contracts/:id/fields", h.listFields)
	protected.POST("/contracts/:id/fields", h.createField)
	protected.PUT("/contracts/:id/fields", h.updateField)
	protected.DELETE("/contracts/:id/fields", h.deleteField)
	protected.GET("/contracts/:id/fields/preview", h.previewLayout)
	protected.POST("/contracts/:id/send", h.sendContract)
	protected.GET("/reports/contracts", h.exportRegister)
}

// Database ids are 64-bit integers; the JSON boundary carries them as
// decimal strings so clients never lose precision.
type fieldResponse struct {
	ID               string         `json:"id"`
	DocumentID       string         `json:"documentId"`
	SignerID         *string        `json:"signerId"`
	FieldType        string         `json:"fieldType"`
	Pages            string         `json:"pages"`
	Position         model.Position `json:"position"`
	Size             model.Size     `json:"size"`
	HorizontalAdjust int            `json:"horizontalAdjust"`
	VerticalAdjust   int            `json:"verticalAdjust"`
	Content          *string        `json:"content"`
	DocumentFilename string         `json:"documentFilename"`
	SignerName       *string        `json:"signerName"`
}

func toFieldResponse(field model.FieldWithRefs) fieldResponse {
	resp := fieldResponse{
		ID:               strconv.FormatInt(field.ID, 10),
		DocumentID:       strconv.FormatInt(field.DocumentID, 10),
		FieldType:        string(field.FieldType),
		Pages:            field.Pages,
		Position:         field.Position,
		Size:             field.Size,
		HorizontalAdjust: field.HorizontalAdjust,
		VerticalAdjust:   field.VerticalAdjust,
		Content:          field.Content,
		DocumentFilename: field.DocumentFilename,
		SignerName:       field.SignerName,
	}
	if field.SignerID != nil {
		id := strconv.FormatInt(*field.SignerID, 10)
		resp.SignerID = &id
	}
	return resp
}

func (h *Handler) listFields(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	contractID, ok := pathID(c)
	if !ok {
		return
	}

	fields, err := h.fields.ListFields(c.Request.Context(), contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	out := make([]fieldResponse, 0, len(fields))
	for _, field := range fields {
		out = append(out, toFieldResponse(field))
	}
	c.JSON(http.StatusOK, gin.H{"fields": out})
}

type createFieldRequest struct {
	DocumentID       string          `json:"documentId" binding:"required"`
	SignerID         *string         `json:"signerId"`
	FieldType        string          `json:"fieldType" binding:"required"`
	Pages            string          `json:"pages" binding:"required"`
	Position         *model.Position `json:"position" binding:"required"`
	Size             *model.Size     `json:"size" binding:"required"`
	HorizontalAdjust int             `json:"horizontalAdjust"`
	VerticalAdjust   int             `json:"verticalAdjust"`
	Content          *string         `json:"content"`
}

func (h *Handler) createField(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	contractID, ok := pathID(c)
	if !ok {
		return
	}

	var req createFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	documentID, err := strconv.ParseInt(req.DocumentID, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid documentId"})
		return
	}

	input := service.CreateFieldInput{
		ContractID:       contractID,
		DocumentID:       documentID,
		FieldType:        model.FieldType(req.FieldType),
		Pages:            req.Pages,
		Position:         *req.Position,
		Size:             *req.Size,
		HorizontalAdjust: req.HorizontalAdjust,
		VerticalAdjust:   req.VerticalAdjust,
		Content:          req.Content,
	}
	if req.SignerID != nil {
		signerID, err := strconv.ParseInt(*req.SignerID, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signerId"})
			return
		}
		input.SignerID = &signerID
	}

	created, err := h.fields.CreateField(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"field": toFieldResponse(*created)})
}

type updateFieldRequest struct {
	FieldID          string                         `json:"fieldId" binding:"required"`
	SignerID         model.Optional[string]         `json:"signerId"`
	FieldType        model.Optional[string]         `json:"fieldType"`
	Pages            model.Optional[string]         `json:"pages"`
	Position         model.Optional[model.Position] `json:"position"`
	Size             model.Optional[model.Size]     `json:"size"`
	HorizontalAdjust model.Optional[int]            `json:"horizontalAdjust"`
	VerticalAdjust   model.Optional[int]            `json:"verticalAdjust"`
	Content          model.Optional[string]         `json:"content"`
}

func (h *Handler) updateField(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	contractID, ok := pathID(c)
	if !ok {
		return
	}

	var req updateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fieldID, err := strconv.ParseInt(req.FieldID, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fieldId"})
		return
	}

	patch := repository.FieldPatch{
		Pages:            req.Pages,
		Position:         req.Position,
		Size:             req.Size,
		HorizontalAdjust: req.HorizontalAdjust,
		VerticalAdjust:   req.VerticalAdjust,
		Content:          req.Content,
	}
	if req.FieldType.Set {
		patch.FieldType.Set = true
		if req.FieldType.Value != nil {
			fieldType := model.FieldType(*req.FieldType.Value)
			patch.FieldType.Value = &fieldType
		}
	}
	if req.SignerID.Set {
		patch.SignerID.Set = true
		if req.SignerID.Value != nil {
			signerID, err := strconv.ParseInt(*req.SignerID.Value, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signerId"})
				return
			}
			patch.SignerID.Value = &signerID
		}
	}

	updated, err := h.fields.UpdateField(c.Request.Context(), contractID, fieldID, patch)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"field": toFieldResponse(*updated)})
}

func (h *Handler) deleteField(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	contractID, ok := pathID(c)
	if !ok {
		return
	}

	fieldID, err := strconv.ParseInt(c.Query("fieldId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fieldId"})
		return
	}

	if err := h.fields.DeleteField(c.Request.Context(), contractID, fieldID); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) sendContract(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	contractID, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.send.SendContract(c.Request.Context(), contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	links := make(map[string]string, len(result.SigningLinks))
	for signerID, link := range result.SigningLinks {
		links[strconv.FormatInt(signerID, 10)] = link
	}
	c.JSON(http.StatusOK, gin.H{
		"submissionId":   result.SubmissionID,
		"submissionSlug": result.SubmissionSlug,
		"expiresAt":      result.ExpiresAt,
		"signingLinks":   links,
	})
}

func (h *Handler) previewLayout(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	contractID, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.reports.PreviewLayout(c.Request.Context(), contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) exportRegister(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	result, err := h.reports.ExportRegister(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrExternalService):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "signing provider rejected the submission",
			"details": err.Error(),
		})
	case errors.Is(err, service.ErrStorage):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return 0, false
	}
	return id, true
}
