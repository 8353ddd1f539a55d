package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-rbac/internal/handler"
	"github.com/jwalitptl/clinic-rbac/internal/service/patient"
	"github.com/jwalitptl/clinic-rbac/pkg/httputil"
)

type Handler struct {
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects r to be behind authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("", h.ListPatients)
		patients.GET("/:id/records", h.GetPatientRecords)
	}
}

func (h *Handler) ListPatients(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	patients, err := h.service.List(c.Request.Context(), p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

// GetPatientRecords returns the patient's profile, appointments, medical
// records and summary, limited to what the caller may read.
func (h *Handler) GetPatientRecords(c *gin.Context) {
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

	agg, err := h.service.Aggregate(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, agg)
}
