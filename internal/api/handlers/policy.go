package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bess-dispatch/internal/api/models"
	"bess-dispatch/internal/strategy"
)

var policies = []models.PolicyInfo{
	{
		Name:        "greedy",
		Description: "Decides from the current period's prices only. Discharges when the export price beats the import price, charges when the efficiency-adjusted export price beats it.",
		Parameters:  []models.ParameterInfo{},
	},
	{
		Name:        "optimized",
		Description: "Lookahead policy. Discharges only at the best export price in the window ahead and charges only at the cheapest import price, so it never does worse than greedy.",
		Parameters: []models.ParameterInfo{
			{
				Name:        "lookahead_periods",
				Type:        "int",
				Description: "Settlement periods to look ahead (0 behaves like greedy)",
				Default:     strategy.DefaultLookaheadPeriods,
			},
		},
	},
	{
		Name:        "schedule",
		Description: "Time-based schedule. Charges and discharges at fixed times each day.",
		Parameters: []models.ParameterInfo{
			{
				Name:        "charge_start",
				Type:        "string",
				Description: "Start time for charging (HH:MM format, e.g., '00:00')",
				Default:     "00:00",
			},
			{
				Name:        "charge_end",
				Type:        "string",
				Description: "End time for charging (HH:MM format)",
				Default:     "06:00",
			},
			{
				Name:        "discharge_start",
				Type:        "string",
				Description: "Start time for discharging (HH:MM format, e.g., '16:00')",
				Default:     "16:00",
			},
			{
				Name:        "discharge_end",
				Type:        "string",
				Description: "End time for discharging (HH:MM format)",
				Default:     "19:00",
			},
			{
				Name:        "charge_power_mw",
				Type:        "float",
				Description: "Charge power in MW (default: rated power)",
			},
			{
				Name:        "discharge_power_mw",
				Type:        "float",
				Description: "Discharge power in MW (default: rated power)",
			},
		},
	},
	{
		Name:        "oracle",
		Description: "Perfect foresight benchmark. Uses dynamic programming per day with full knowledge of that day's prices.",
		Parameters: []models.ParameterInfo{
			{
				Name:        "soc_steps",
				Type:        "int",
				Description: "Number of SOC discretization steps (higher = more accurate but slower)",
				Default:     200,
			},
			{
				Name:        "power_steps",
				Type:        "int",
				Description: "Number of power discretization steps",
				Default:     10,
			},
		},
	},
}

// ListPolicies handles GET /api/v1/policies
func ListPolicies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"policies": policies})
}
