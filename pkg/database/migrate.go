package database

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// sqliteIndexes AutoMigrate 无法表达的部分索引，与 000001 迁移保持一致
var sqliteIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_room_profiles_placeholder ON room_profiles (number) WHERE number = 'TBA'`,
}

// Migrate 执行数据库迁移
// postgres 使用内嵌 SQL 迁移；sqlite 仅用于本地开发，直接 AutoMigrate 传入的模型
func Migrate(db *gorm.DB, driver string, logger *zap.Logger, models ...interface{}) error {
	if driver == "sqlite" {
		if err := db.AutoMigrate(models...); err != nil {
			return fmt.Errorf("sqlite 自动迁移失败: %w", err)
		}
		for _, stmt := range sqliteIndexes {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("sqlite 创建索引失败: %w", err)
			}
		}
		logger.Info("sqlite 自动迁移完成", zap.Int("models", len(models)))
		return nil
	}
	return runMigrations(db, logger)
}

func runMigrations(db *gorm.DB, logger *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		logger.Warn("数据库迁移处于 dirty 状态", zap.Uint("version", version))
	} else {
		logger.Info("数据库迁移完成", zap.Uint("version", version))
	}

	return nil
}
