package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"loyalty/config"
	"loyalty/internal/database"
	"loyalty/internal/domain"
	"loyalty/internal/repository"
	"loyalty/internal/router"
)

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := database.SeedTiers(db); err != nil {
		log.Fatalf("seed tiers: %v", err)
	}
	database.SeedAdmin(db, &cfg.Admin)

	settingRepo := repository.NewSettingRepository(db)
	if err := settingRepo.SeedDefaults(map[string]string{
		domain.SettingAccrualRate:         strconv.FormatFloat(cfg.Loyalty.AccrualRate, 'f', -1, 64),
		domain.SettingReferrerBonusPoints: strconv.FormatInt(cfg.Loyalty.ReferrerBonusPoints, 10),
		domain.SettingReferredBonusPoints: strconv.FormatInt(cfg.Loyalty.ReferredBonusPoints, 10),
	}); err != nil {
		log.Fatalf("seed settings: %v", err)
	}

	engine := router.Setup(cfg, db)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	log.Println("server stopped")
}
