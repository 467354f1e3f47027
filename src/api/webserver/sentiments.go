package webserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ptrdsh/participatory-budgeting/src/api/budget"
	"github.com/ptrdsh/participatory-budgeting/src/api/data"
)

type Sentiments struct{ db *gorm.DB }

func NewSentiments(db *gorm.DB) Sentiments { return Sentiments{db: db} }

func (s Sentiments) ForItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("budgetItemId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad budgetItemId"})
		return
	}

	stats, err := budget.ItemSentiments(s.db, itemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s Sentiments) ForUser(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("budgetItemId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad budgetItemId"})
		return
	}

	sentiment, err := budget.UserSentiment(s.db, c.GetUint64("uid"), itemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if sentiment == nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "no sentiment recorded"})
		return
	}
	c.JSON(http.StatusOK, sentiment)
}

func (s Sentiments) Submit(c *gin.Context) {
	var req struct {
		BudgetItemID uint64 `json:"budgetItemId" binding:"required"`
		Sentiment    string `json:"sentiment" binding:"required,max=32"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if !allowedSentiment(req.Sentiment) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "unknown sentiment"})
		return
	}

	sentiment, err := budget.SubmitSentiment(s.db, c.GetUint64("uid"), req.BudgetItemID, req.Sentiment)
	if err != nil {
		if errors.Is(err, budget.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sentiment)
}

func allowedSentiment(name string) bool {
	allowed := data.GetSetting("sentiments")
	if allowed == "" {
		return true
	}
	for _, s := range strings.Split(allowed, ",") {
		if strings.TrimSpace(s) == name {
			return true
		}
	}
	return false
}
