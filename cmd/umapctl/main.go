package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"umap/backend/config"
	"umap/backend/internal/document"
	"umap/backend/internal/model"
	"umap/backend/internal/repository"
	"umap/backend/internal/roomref"
	"umap/backend/internal/service"
	"umap/backend/pkg/database"
	applogger "umap/backend/pkg/logger"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "umapctl",
		Short:         "UMAP 房间数据运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("UMAP_CONFIG"), "配置文件路径")

	rootCmd.AddCommand(fixRoomNumbersCmd())
	rootCmd.AddCommand(updateRoomNamesCmd())
	rootCmd.AddCommand(fixSpecialRoomsCmd())
	rootCmd.AddCommand(importSVGCmd())
	rootCmd.AddCommand(roomRefCheckCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(revokeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// app 命令执行所需的依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	svc    *service.Service
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg.Log.Output = "stderr"
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, logger, nil
}

// setup 连接数据库并组装 Service
func setup(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, cfg.Database.Driver, logger, model.All()...); err != nil {
		return nil, err
	}

	names := roomref.New(roomref.CSVLoader{Path: cfg.RoomRef.CSVPath}, logger)
	if err := names.Load(ctx); err != nil {
		logger.Warn("房间名称参考表加载失败", zap.String("path", cfg.RoomRef.CSVPath), zap.Error(err))
	}

	repo := repository.NewRepository(db)
	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		svc:    service.NewService(cfg, repo, document.NewRegistry(), names, logger),
	}, nil
}

func (a *app) close() {
	if sqlDB, _ := a.db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
	a.logger.Sync()
}
