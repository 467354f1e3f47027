package webserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ptrdsh/participatory-budgeting/src/api/budget"
	"github.com/ptrdsh/participatory-budgeting/src/api/cardano"
	"github.com/ptrdsh/participatory-budgeting/src/api/types"
)

type Budget struct{ db *gorm.DB }

func NewBudget(db *gorm.DB) Budget { return Budget{db: db} }

// Items lists all budget items. The aggregator keeps the derived consensus
// fields current on every vote, but while the active period is still open
// they are withheld from responses so running tallies cannot steer voters.
func (b Budget) Items(c *gin.Context) {
	var items []types.BudgetItem
	if err := b.db.Order("id").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	visible := b.resultsVisible()
	if !visible {
		for i := range items {
			items[i].CurrentMedianVote = 0
			items[i].PercentageOfSuggested = 0
		}
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "resultsVisible": visible})
}

func (b Budget) Categories(c *gin.Context) {
	var categories []types.BudgetCategory
	if err := b.db.Order("id").Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (b Budget) ActivePeriod(c *gin.Context) {
	period, err := budget.ActivePeriod(b.db)
	if err != nil {
		if errors.Is(err, budget.ErrNoActivePeriod) {
			c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"period":      period,
		"countdown":   budget.TimeRemaining(period, now),
		"votingEnded": budget.VotingEnded(period, now),
	})
}

func (b Budget) Statistics(c *gin.Context) {
	stats, err := budget.RefreshActiveStatistics(b.db)
	if err != nil {
		if errors.Is(err, budget.ErrNoActivePeriod) || errors.Is(err, budget.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (b Budget) DRepStatus(c *gin.Context) {
	stakeAddress := c.Query("stakeAddress")
	if stakeAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "stakeAddress is required"})
		return
	}

	status, err := cardano.CheckDRepStatus(b.db, stakeAddress)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (b Budget) resultsVisible() bool {
	period, err := budget.ActivePeriod(b.db)
	if err != nil {
		// No active period means no election in flight, nothing to hide.
		return true
	}
	return budget.VotingEnded(period, time.Now())
}
