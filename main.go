package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/makki24/mybusiness-core/api"
	"github.com/makki24/mybusiness-core/internal/config"
)

func main() {
	cfg, err := config.Load(os.Getenv("MYBUSINESS_CONFIG"))
	if err != nil {
		panic(fmt.Errorf("error loading config: %v", err))
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	r := gin.Default()
	api.InitRoutes(r, cfg, logger)

	if err := r.Run(cfg.ListenAddr); err != nil {
		panic(fmt.Errorf("error trying to start server: %v", err))
	}
}
