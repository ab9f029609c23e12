// internal/nutrition/menu/menu.go
package menu

import (
	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/models"
	"wastewise/internal/nutrition/similarity"
)

// Aggregator runs the similarity engine over a whole menu. Unknown
// items are reported per entry instead of failing the batch.
type Aggregator struct {
	engine *similarity.Engine
	logger logger.Logger
}

func NewAggregator(engine *similarity.Engine, log logger.Logger) *Aggregator {
	return &Aggregator{
		engine: engine,
		logger: log.Named("menu"),
	}
}

// FindMenuAlternatives resolves alternatives for each menu item,
// preserving input order. k <= 0 selects the engine default. An empty
// menu is rejected; anything else yields one tagged entry per item.
func (a *Aggregator) FindMenuAlternatives(items []string, k int) (*models.MenuResult, error) {
	if len(items) == 0 {
		return nil, errors.NewInvalidInputError("menu must contain at least one item")
	}

	result := &models.MenuResult{
		Items: make([]models.MenuItemAlternatives, 0, len(items)),
	}

	unresolved := 0
	for _, item := range items {
		alternatives, err := a.engine.FindAlternatives(item, k)
		if err != nil {
			if !errors.IsCode(err, errors.ErrCodeFoodNotFound) {
				return nil, err
			}
			unresolved++
			result.Items = append(result.Items, models.MenuItemAlternatives{
				MenuItem: item,
				Status:   models.MenuItemUnresolved,
				Message:  "food not found in nutrition catalog",
			})
			continue
		}

		result.Items = append(result.Items, models.MenuItemAlternatives{
			MenuItem: item,
			Status:   models.MenuItemResolved,
			Result:   alternatives,
		})
	}

	if unresolved > 0 {
		a.logger.Warn("menu batch finished with unresolved items", map[string]interface{}{
			"menuSize":   len(items),
			"unresolved": unresolved,
		})
	}
	return result, nil
}
