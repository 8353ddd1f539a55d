package medical

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-rbac/internal/handler"
	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/service/medical"
	"github.com/jwalitptl/clinic-rbac/pkg/httputil"
)

type Handler struct {
	service *medical.Service
}

func NewHandler(service *medical.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects r to be behind authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/medical-records")
	{
		records.POST("", h.CreateRecord)
		records.GET("", h.ListRecords)
		records.GET("/:id", h.GetRecord)
		records.PUT("/:id", h.UpdateRecord)
		records.DELETE("/:id", h.DeleteRecord)
	}
}

func (h *Handler) CreateRecord(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateMedicalRecordRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	record, err := h.service.Create(c.Request.Context(), p, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, record)
}

func (h *Handler) ListRecords(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	records, err := h.service.List(c.Request.Context(), p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, records)
}

func (h *Handler) GetRecord(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	record, err := h.service.Get(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) UpdateRecord(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateMedicalRecordRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	record, err := h.service.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), p, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "medical record deleted")
}
