package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ptrdsh/participatory-budgeting/src/api/config"
	"github.com/ptrdsh/participatory-budgeting/src/api/data"
	"github.com/ptrdsh/participatory-budgeting/src/api/types"
	"github.com/ptrdsh/participatory-budgeting/src/api/webserver"
	"gorm.io/gorm"
)

var allModels = []interface{}{
	&types.User{}, &types.BudgetPeriod{}, &types.BudgetCategory{},
	&types.BudgetItem{}, &types.BudgetVote{}, &types.Statistics{},
	&types.BudgetSentiment{}, &types.BudgetSentimentStat{},
	&types.Setting{},
}

func migrate(db *gorm.DB) {
	if err := db.AutoMigrate(allModels...); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	migrate(db)

	if err := data.EnsureDefaultSettings(db); err != nil {
		log.Fatalf("seed settings: %v", err)
	}
	if err := data.LoadSettings(db); err != nil {
		log.Printf("load settings: %v", err)
	}

	rdb := data.MustRedis(cfg.RedisURL)

	router := webserver.New(cfg, db, rdb)
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("Participatory budgeting API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
