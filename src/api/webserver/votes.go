package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ptrdsh/participatory-budgeting/src/api/budget"
)

type Votes struct {
	db  *gorm.DB
	svc *budget.VotingService
}

func NewVotes(db *gorm.DB, svc *budget.VotingService) Votes {
	return Votes{db: db, svc: svc}
}

func (v Votes) Cast(c *gin.Context) {
	var req struct {
		BudgetItemID uint64 `json:"budgetItemId" binding:"required"`
		Amount       *int64 `json:"amount" binding:"required,min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	receipt, err := v.svc.Cast(c, c.GetUint64("uid"), req.BudgetItemID, *req.Amount)
	if err != nil {
		c.JSON(voteErrorStatus(err), gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transactionHash": receipt})
}

func (v Votes) CastBulk(c *gin.Context) {
	var req struct {
		Votes []budget.VoteEntry `json:"votes" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	receipt, err := v.svc.CastBulk(c, c.GetUint64("uid"), req.Votes)
	if err != nil {
		c.JSON(voteErrorStatus(err), gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transactionHash": receipt})
}

func (v Votes) Mine(c *gin.Context) {
	votes, err := v.svc.UserVotes(c.GetUint64("uid"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, votes)
}

func voteErrorStatus(err error) int {
	switch {
	case errors.Is(err, budget.ErrNotFound), errors.Is(err, budget.ErrNoActivePeriod):
		return http.StatusNotFound
	case errors.Is(err, budget.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, budget.ErrInvalidVote):
		return http.StatusBadRequest
	case errors.Is(err, budget.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
