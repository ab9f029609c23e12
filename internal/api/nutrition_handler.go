// internal/api/nutrition_handler.go
package api

import (
	"net/http"
	"strconv"

	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/common/observability"
	"wastewise/internal/nutrition/menu"
	"wastewise/internal/nutrition/similarity"

	"github.com/gin-gonic/gin"
)

type MenuInput struct {
	Menu []string `json:"menu"`
	TopK int      `json:"top_k"`
}

// NutritionHandler serves food and menu alternative lookups.
type NutritionHandler struct {
	engine     *similarity.Engine
	aggregator *menu.Aggregator
	telemetry  *observability.Observability
	responder  *errors.HTTPResponder
	logger     logger.Logger
}

func NewNutritionHandler(engine *similarity.Engine, aggregator *menu.Aggregator, telemetry *observability.Observability, responder *errors.HTTPResponder, log logger.Logger) *NutritionHandler {
	return &NutritionHandler{
		engine:     engine,
		aggregator: aggregator,
		telemetry:  telemetry,
		responder:  responder,
		logger:     log.Named("nutrition-handler"),
	}
}

// FoodAlternatives handles GET /food-alternatives?food=&k=.
func (h *NutritionHandler) FoodAlternatives(c *gin.Context) {
	food := c.Query("food")
	if food == "" {
		h.responder.Respond(c, errors.NewInvalidInputError("query parameter 'food' is required"))
		return
	}

	k := 0
	if raw := c.Query("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.responder.Respond(c, errors.NewInvalidInputError("query parameter 'k' must be a positive integer"))
			return
		}
		k = parsed
	}

	result, err := h.engine.FindAlternatives(food, k)
	if h.telemetry != nil {
		outcome := "found"
		if err != nil {
			outcome = "not_found"
		}
		h.telemetry.RecordSimilarityQuery(c.Request.Context(), outcome)
	}
	if err != nil {
		h.responder.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MenuAlternatives handles POST /menu-alternatives.
func (h *NutritionHandler) MenuAlternatives(c *gin.Context) {
	var input MenuInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.responder.Respond(c, errors.NewInvalidInputError(err.Error()))
		return
	}

	result, err := h.aggregator.FindMenuAlternatives(input.Menu, input.TopK)
	if err != nil {
		h.responder.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
