// Package main 是应用程序的入口点。
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rebuilder-go/internal/config"
	"rebuilder-go/internal/handler"
	"rebuilder-go/internal/middleware"
	"rebuilder-go/internal/model"
	"rebuilder-go/internal/pipeline"
	"rebuilder-go/internal/repository"
	"rebuilder-go/internal/service"
	"rebuilder-go/pkg/database"
	"rebuilder-go/pkg/es"
	"rebuilder-go/pkg/kafka"
	"rebuilder-go/pkg/log"
	"rebuilder-go/pkg/rebrickable"
	"rebuilder-go/pkg/storage"
	"rebuilder-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、对象存储和 Elasticsearch
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.AutoMigrate(&model.User{}, &model.Submission{})
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	store, err := storage.NewMinIOStorage(cfg.MinIO)
	if err != nil {
		log.Fatalf("MinIO 初始化失败: %v", err)
	}
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	publisher := kafka.NewPublisher(cfg.Kafka)

	// 4. 初始化 Repository
	userRepository := repository.NewUserRepository(database.DB)
	submissionRepository := repository.NewSubmissionRepository(database.DB)
	partListCache := repository.NewPartListCacheRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	catalogClient := rebrickable.NewClient(cfg.Rebrickable)
	userService := service.NewUserService(userRepository, jwtManager)
	inventoryService := service.NewInventoryService(catalogClient, cfg.Inventory)
	sourceSetService := service.NewSourceSetService(catalogClient)
	submissionService := service.NewSubmissionService(
		submissionRepository,
		partListCache,
		inventoryService,
		sourceSetService,
		store,
		publisher,
		cfg.Submission,
	)
	searchService := service.NewSearchService(submissionRepository, cfg.Elasticsearch)

	// 6. 初始化投稿事件处理管道 (Processor)
	processor := pipeline.NewProcessor(cfg.Elasticsearch)

	// 7. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", handler.NewUserHandler(userService).Register)
			users.POST("/login", handler.NewUserHandler(userService).Login)

			// 需要认证的路由 (仅限登录用户访问)
			authed := users.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/me", handler.NewUserHandler(userService).GetProfile)
				authed.POST("/logout", handler.NewUserHandler(userService).Logout)
			}
		}

		// Submission 路由组
		submissionHandler := handler.NewSubmissionHandler(submissionService, sourceSetService)
		submissions := apiV1.Group("/submissions")
		{
			// 公开访问：列表、详情和零件清单
			submissions.GET("", submissionHandler.List)
			submissions.GET("/:id", submissionHandler.Get)
			submissions.GET("/:id/parts", submissionHandler.GetPartList)

			// 需要认证：创建和删除
			authed := submissions.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.POST("", submissionHandler.Create)
				authed.DELETE("/:id", submissionHandler.Delete)
			}
		}

		// 来源套装校验，供前端在提交前预检
		sets := apiV1.Group("/sets")
		{
			sets.POST("/validate", submissionHandler.ValidateSets)
		}

		// Search 路由组
		searchHandler := handler.NewSearchHandler(searchService)
		search := apiV1.Group("/search")
		{
			search.GET("", searchHandler.Search)
		}

		// Admin 路由组，需要管理员权限
		admin := apiV1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtManager, userService), middleware.AdminAuthMiddleware())
		{
			admin.POST("/search/reindex", searchHandler.Reindex)
		}
	}

	// 10. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Infof("服务器启动，监听端口: %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，开始优雅停机...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务器强制停机: %v", err)
	}

	log.Info("服务器已退出")
}
