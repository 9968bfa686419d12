package serve

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/inbox-digest/internal/bridge"
	"github.com/dtnitsch/inbox-digest/internal/common"
)

// ServeAction exposes the orchestrator to remote page runners.
func ServeAction(c *cli.Context) error {
	logger := common.NewLogger(c)
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), common.ExitUsage)
	}
	if !c.Bool("verbose") {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := common.OpenRunLog(c, cfg)
	if err != nil {
		logger.Error("failed to open run log", "error", err)
		return cli.Exit("", common.ExitRuntime)
	}
	if database != nil {
		defer database.Close()
	}

	provider := common.NewProvider(cfg, logger)
	orchestrator := common.NewOrchestrator(cfg, provider, database, logger)
	logger.Info("summarizer ready", "provider", provider.Name(), "availability", provider.Availability(c.Context).String())

	srv := bridge.NewServer(orchestrator,
		bridge.WithServerLogger(logger),
		bridge.WithAllowedOrigins(c.String("allow-origin")),
		bridge.WithServerRateLimit(c.Int("rate-limit")),
	)
	if err := srv.Run(c.Context, cfg.ListenAddr); err != nil {
		logger.Error("bridge server failed", "addr", cfg.ListenAddr, "error", err)
		return cli.Exit("", common.ExitRuntime)
	}
	return nil
}
