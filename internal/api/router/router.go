package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"umap/backend/config"
	"umap/backend/internal/api/handler"
	"umap/backend/internal/api/middleware"
	"umap/backend/pkg/jwt"
	"umap/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
	{
		// 课表模块
		schedules := authorized.Group("/schedules")
		{
			schedules.POST("/upload",
				middleware.RateLimit(rdb, cfg.RateLimit.UploadLimit, cfg.RateLimit.UploadWindow, logger),
				h.Schedule.Upload)
			schedules.GET("", h.Schedule.List)
			schedules.POST("", h.Schedule.Create)
			schedules.PUT("/:id", h.Schedule.Update)
			schedules.DELETE("/:id", h.Schedule.Delete)
			schedules.DELETE("", h.Schedule.DeleteAll)
			schedules.GET("/export/:format", h.Export.Export)
		}

		// 楼层与房间
		floors := authorized.Group("/floors")
		{
			floors.GET("", h.Room.ListFloors)
			floors.POST("", middleware.RoleAuth(jwt.RoleAdmin), h.Room.CreateFloor)
			floors.GET("/:id/rooms", h.Room.ListRooms)
		}
		authorized.GET("/rooms/:number", h.Room.GetRoom)

		// 运维（管理员）
		admin := authorized.Group("/admin")
		admin.Use(middleware.RoleAuth(jwt.RoleAdmin))
		{
			admin.POST("/floorplans", h.FloorPlan.Import)
			admin.DELETE("/rooms/:id", h.Room.DeleteRoom)
			admin.POST("/roomref/reload", h.Admin.ReloadRoomRef)
			admin.POST("/maintenance/:command", h.Admin.RunMaintenance)
		}
	}

	return r
}
