package main

import (
	"fmt"
	"os"

	"github.com/nurpe/crm-contracts/internal/auth"
	"github.com/nurpe/crm-contracts/internal/config"
	"github.com/nurpe/crm-contracts/internal/db"
	"github.com/nurpe/crm-contracts/internal/esign"
	"github.com/nurpe/crm-contracts/internal/excel"
	httphandler "github.com/nurpe/crm-contracts/internal/http"
	"github.com/nurpe/crm-contracts/internal/http/middleware"
	"github.com/nurpe/crm-contracts/internal/logger"
	"github.com/nurpe/crm-contracts/internal/pdf"
	"github.com/nurpe/crm-contracts/internal/repository"
	"github.com/nurpe/crm-contracts/internal/service"
	"github.com/nurpe/crm-contracts/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	contractRepo := repository.NewContractRepository(database)
	fieldRepo := repository.NewFieldRepository(database)

	fileStore := storage.NewFileStore(cfg.Storage.PublicDir)
	esignClient := esign.NewClient(cfg.ESign, log)

	fieldService := service.NewFieldService(contractRepo, fieldRepo, log)
	sendService := service.NewSendService(contractRepo, fieldRepo, fileStore, esignClient, cfg.ESign, log)
	contractService := service.NewContractService(contractRepo, fieldRepo, excel.NewGenerator(), pdf.NewGenerator())

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(fieldService, sendService, contractService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting contracts service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
