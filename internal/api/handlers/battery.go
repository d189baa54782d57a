package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"bess-dispatch/internal/api/models"
	"bess-dispatch/internal/config"
	"bess-dispatch/internal/logger"
)

// BatteryHandler handles battery-related requests
type BatteryHandler struct {
	batteryDir string
	log        logger.Logger
}

// NewBatteryHandler creates a new battery handler serving presets from dir
func NewBatteryHandler(dir string, log logger.Logger) *BatteryHandler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &BatteryHandler{batteryDir: dir, log: log}
}


// ListBatteries handles GET /api/v1/batteries
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	batteries := []models.BatteryInfo{}

	presets, skipped, err := config.ListBatteryFiles(h.batteryDir)
	if err != nil {
		if os.IsNotExist(err) {
			h.log.Warnf("battery directory does not exist: %s", h.batteryDir)
		} else {
			h.log.Errorf("read battery directory %s: %v", h.batteryDir, err)
		}
		c.JSON(http.StatusOK, gin.H{"batteries": batteries})
		return
	}
	for name, err := range skipped {
		h.log.Warnf("skipping battery file %s: %v", name, err)
	}

	for _, p := range presets {
		// Presets that would fail validation are still listed; using one
		// reports the problem as INVALID_CONFIG.
		name := p.Battery.Name
		if name == "" {
			name = p.ID
		}
		batteries = append(batteries, models.BatteryInfo{
			ID:   p.ID,
			Name: name,
			File: p.File,
			Specs: models.BatterySpecs{
				CapacityMWh:    p.Battery.CapacityMWh,
				PowerMW:        p.Battery.PowerMW,
				Efficiency:     p.Battery.Efficiency,
				BehindTheMeter: p.Battery.BehindTheMeter != nil && *p.Battery.BehindTheMeter,
			},
		})
	}

	h.log.Debugf("returning %d batteries", len(batteries))
	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}
