// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adscan-go/internal/config"
	"adscan-go/internal/handler"
	"adscan-go/internal/middleware"
	"adscan-go/internal/model"
	"adscan-go/internal/pipeline"
	"adscan-go/internal/repository"
	"adscan-go/internal/service"
	"adscan-go/pkg/classifier"
	"adscan-go/pkg/database"
	"adscan-go/pkg/es"
	"adscan-go/pkg/kafka"
	"adscan-go/pkg/log"
	"adscan-go/pkg/mailer"
	"adscan-go/pkg/storage"
	"adscan-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、缓存与外部服务
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 3.1 迁移表结构
	if err := database.DB.AutoMigrate(&model.User{}, &model.Chat{}, &model.ContactMessage{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	chatRepo := repository.NewChatRepository(database.DB)
	contactRepo := repository.NewContactRepository(database.DB)
	verifyRepo := repository.NewVerificationRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	mail := mailer.NewMailer(cfg.Mail)
	classifierClient := classifier.NewClient(cfg.Classifier)

	userService := service.NewUserService(userRepo, verifyRepo, jwtManager, mail)
	scanService := service.NewScanService(classifierClient)
	assessmentService := service.NewAssessmentService(chatRepo, kafka.ProduceRenderTask)
	historyService := service.NewHistoryService(chatRepo)
	chatService := service.NewChatService(chatRepo)
	contactService := service.NewContactService(contactRepo)
	adminService := service.NewAdminService(userRepo, chatRepo)

	// 6. 启动后台渲染消费者：PDF 渲染与分析索引写入都在请求路径之外
	renderer := pipeline.NewRenderer(historyService)
	go kafka.StartConsumer(cfg.Kafka, renderer)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	authMW := middleware.AuthMiddleware(jwtManager, userService, verifyRepo)

	authHandler := handler.NewAuthHandler(userService)
	userHandler := handler.NewUserHandler(userService)
	scanHandler := handler.NewScanHandler(scanService)
	assessmentHandler := handler.NewAssessmentHandler(assessmentService)
	historyHandler := handler.NewHistoryHandler(historyService)
	contactHandler := handler.NewContactHandler(contactService)
	chatHandler := handler.NewChatHandler(chatService, verifyRepo)
	adminHandler := handler.NewAdminHandler(adminService, contactService)

	// 8. 注册路由
	api := r.Group("/api")
	{
		// 无需认证的路由 (公开访问)
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
		api.POST("/verify-2fa", authHandler.Verify2FA)
		api.POST("/resend-2fa", authHandler.Resend2FA)
		api.POST("/token/refresh", authHandler.RefreshToken)
		api.POST("/password-reset", authHandler.ForgotPassword)
		api.POST("/password-reset/confirm", authHandler.ResetPassword)
		api.POST("/contact", contactHandler.Submit)

		// 需要认证的路由 (仅限登录用户访问)
		authed := api.Group("/")
		authed.Use(authMW)
		{
			authed.POST("/logout", authHandler.Logout)
			authed.GET("/profile", userHandler.GetProfile)
			authed.PUT("/profile", userHandler.UpdateProfile)

			// 扫描与评估
			authed.POST("/adscan/upload", scanHandler.Upload)
			authed.POST("/universal-assessment", assessmentHandler.UniversalAssessment)

			// 评估历史
			authed.GET("/scan-history", historyHandler.ScanHistory)
			authed.GET("/scan-details/:id", historyHandler.ScanDetails)
			authed.GET("/download-scan-pdf/:id", historyHandler.DownloadPDF)
			authed.DELETE("/delete-scan/:id", historyHandler.DeleteScan)

			// 随访助手
			authed.GET("/assistant/ws-ticket", chatHandler.GetWSTicket)
			authed.GET("/assistant/history", chatHandler.History)
		}

		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		admin := api.Group("/admin")
		admin.Use(authMW, middleware.AdminAuthMiddleware())
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:id", adminHandler.UpdateUser)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.GET("/messages", adminHandler.ListMessages)
			admin.DELETE("/messages/:id", adminHandler.DeleteMessage)
			admin.GET("/analytics", adminHandler.Analytics)
		}
	}

	// WebSocket 路由 (票据认证，不走 Authorization 头)
	r.GET("/ws/assistant/:ticket", chatHandler.Handle)

	// 9. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
