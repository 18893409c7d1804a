package prescription

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rxguard/rxguard/internal/domain/patient"
	"github.com/rxguard/rxguard/internal/domain/recommendation"
	"github.com/rxguard/rxguard/internal/domain/safety"
	"github.com/rxguard/rxguard/internal/platform/auth"
	"github.com/rxguard/rxguard/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "clinician", "pharmacist"))
	readGroup.GET("/prescriptions", h.List)
	readGroup.GET("/prescriptions/:id", h.Get)
	readGroup.POST("/safety-checks", h.CheckSafety)
	readGroup.POST("/recommendations", h.Suggest)

	// Only prescribers write.
	writeGroup := api.Group("", auth.RequireRole("admin", "clinician"))
	writeGroup.POST("/prescriptions", h.Create)
	writeGroup.POST("/prescriptions/:id/cancel", h.Cancel)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	prescriberID := auth.UserIDFromContext(c.Request().Context())
	p, err := h.svc.Create(c.Request().Context(), prescriberID, &in)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, p)
	case errors.Is(err, patient.ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrBlockedBySafety):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrJustificationRequired):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	if raw := c.QueryParam("patient_id"); raw != "" {
		patientID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Cancel(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrPrescriptionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type safetyCheckRequest struct {
	PatientID uuid.UUID                   `json:"patient_id"`
	Items     []safety.ProposedMedication `json:"items"`
}

func (h *Handler) CheckSafety(c echo.Context) error {
	var req safetyCheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil || len(req.Items) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id and items are required")
	}
	result, err := h.svc.CheckSafety(c.Request().Context(), req.PatientID, req.Items)
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

type recommendationRequest struct {
	PatientID uuid.UUID               `json:"patient_id"`
	Clinical  patient.ClinicalContext `json:"clinical"`
}

func (h *Handler) Suggest(c echo.Context) error {
	var req recommendationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil || req.Clinical.Diagnosis == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id and clinical.diagnosis are required")
	}
	result, err := h.svc.Suggest(c.Request().Context(), req.PatientID, req.Clinical)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, result)
	case errors.Is(err, patient.ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, recommendation.ErrNoSuitableMedication):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
