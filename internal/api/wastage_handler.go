// internal/api/wastage_handler.go
package api

import (
	"net/http"
	"strconv"

	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/common/observability"
	"wastewise/internal/forecast"
	"wastewise/internal/wastage"

	"github.com/gin-gonic/gin"
)

type WasteRecordInput struct {
	FoodItem   string  `json:"food_item"`
	QuantityKg float64 `json:"quantity_kg"`
	LoggedOn   string  `json:"logged_on"`
}

type PredictionInput struct {
	MenuItems []string `json:"menu_items"`
	DayOfWeek *int     `json:"day_of_week"`
}

// WastageHandler serves the waste log CRUD, trend analysis, search, and
// the waste forecast.
type WastageHandler struct {
	wastage   *wastage.Service
	forecast  *forecast.Service
	telemetry *observability.Observability
	responder *errors.HTTPResponder
	logger    logger.Logger
}

func NewWastageHandler(wastageSvc *wastage.Service, forecastSvc *forecast.Service, telemetry *observability.Observability, responder *errors.HTTPResponder, log logger.Logger) *WastageHandler {
	return &WastageHandler{
		wastage:   wastageSvc,
		forecast:  forecastSvc,
		telemetry: telemetry,
		responder: responder,
		logger:    log.Named("wastage-handler"),
	}
}

// Create handles POST /wastage.
func (h *WastageHandler) Create(c *gin.Context) {
	var input WasteRecordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.responder.Respond(c, errors.NewInvalidInputError(err.Error()))
		return
	}

	record, err := h.wastage.Log(c.Request.Context(), c.GetString(ctxUserID), input.FoodItem, input.QuantityKg, input.LoggedOn)
	if err != nil {
		h.responder.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// List handles GET /wastage.
func (h *WastageHandler) List(c *gin.Context) {
	records, err := h.wastage.History(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.responder.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"count":   len(records),
	})
}

// Get handles GET /wastage/:id.
func (h *WastageHandler) Get(c *gin.Context) {
	record, err := h.wastage.Get(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	if err != nil {
		h.responder.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Update handles PUT /wastage/:id.
func (h *WastageHandler) Update(c *gin.Context) {
	var input WasteRecordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.responder.Respond(c, errors.NewInvalidInputError(err.Error()))
		return
	}

	record, err := h.wastage.Update(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"), input.FoodItem, input.QuantityKg, input.LoggedOn)
	if err != nil {
		h.responder.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Delete handles DELETE /wastage/:id.
func (h *WastageHandler) Delete(c *gin.Context) {
	if err := h.wastage.Remove(c.Request.Context(), c.GetString(ctxUserID), c.Param("id")); err != nil {
		h.responder.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Record deleted"})
}

// Analysis handles GET /wastage/analysis.
func (h *WastageHandler) Analysis(c *gin.Context) {
	report, err := h.wastage.Analysis(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.responder.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Search handles GET /wastage/search?q=&size=.
func (h *WastageHandler) Search(c *gin.Context) {
	size := 0
	if raw := c.Query("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.responder.Respond(c, errors.NewInvalidInputError("query parameter 'size' must be a positive integer"))
			return
		}
		size = parsed
	}

	result, err := h.wastage.SearchRecords(c.Request.Context(), c.GetString(ctxUserID), c.Query("q"), size)
	if err != nil {
		h.responder.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Predict handles POST /waste-prediction.
func (h *WastageHandler) Predict(c *gin.Context) {
	var input PredictionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.responder.Respond(c, errors.NewInvalidInputError(err.Error()))
		return
	}

	report, err := h.forecast.PredictWaste(c.Request.Context(), c.GetString(ctxUserID), input.MenuItems, input.DayOfWeek)
	if err != nil {
		h.responder.Respond(c, err)
		return
	}
	if h.telemetry != nil {
		h.telemetry.RecordPrediction(c.Request.Context(), report.Prediction.ConfidenceLevel)
	}
	c.JSON(http.StatusOK, report)
}
