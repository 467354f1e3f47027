package webserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ptrdsh/participatory-budgeting/src/api/budget"
	"github.com/ptrdsh/participatory-budgeting/src/api/cardano"
	"github.com/ptrdsh/participatory-budgeting/src/api/config"
)

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://budget.cardanodreps.org"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	voting := budget.NewVotingService(db, rdb, cardano.MockSubmitter{})

	authH := NewAuth(rdb, []byte(cfg.JWTSecret), db)
	budgetH := NewBudget(db)
	voteH := NewVotes(db, voting)
	sentimentH := NewSentiments(db)
	adminH := NewAdmin(db)

	voteLimiter := NewRateLimiter(cfg.RatePerMinute, time.Minute)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/challenge", authH.Challenge)
		v1.POST("/auth/verify", authH.Verify)

		v1.GET("/budget/items", budgetH.Items)
		v1.GET("/budget/categories", budgetH.Categories)
		v1.GET("/budget/period/active", budgetH.ActivePeriod)
		v1.GET("/budget/statistics", budgetH.Statistics)
		v1.GET("/drep/status", budgetH.DRepStatus)
		v1.GET("/sentiments/item/:budgetItemId", sentimentH.ForItem)

		secured := v1.Group("")
		secured.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
		{
			secured.GET("/votes/user", voteH.Mine)
			secured.POST("/votes", RateLimitMiddleware(voteLimiter), voteH.Cast)
			secured.POST("/votes/bulk", RateLimitMiddleware(voteLimiter), voteH.CastBulk)

			secured.GET("/sentiments/user/:budgetItemId", sentimentH.ForUser)
			secured.POST("/sentiments", sentimentH.Submit)

			secured.POST("/admin/import", adminH.Import)
		}
	}
}
