package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"probsvc/internal/common/cache"
	"probsvc/internal/common/db"
	commonmw "probsvc/internal/common/http/middleware"
	"probsvc/internal/common/mq"
	"probsvc/internal/judge"
	problemController "probsvc/internal/problem/controller"
	problemRepo "probsvc/internal/problem/repository"
	problemService "probsvc/internal/problem/service"
	submissionController "probsvc/internal/submission/controller"
	submissionRepo "probsvc/internal/submission/repository"
	submissionService "probsvc/internal/submission/service"
	"probsvc/internal/userclient"
	"probsvc/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/problem_service.yaml"

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	mysqlDB, err := db.NewMySQLWithConfig(&appCfg.Database)
	if err != nil {
		logger.Error(context.Background(), "init database failed", zap.Error(err))
		return
	}
	defer func() {
		_ = mysqlDB.Close()
	}()

	redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
	if err != nil {
		logger.Error(context.Background(), "init redis failed", zap.Error(err))
		return
	}
	defer func() {
		_ = redisCache.Close()
	}()

	var mqClient mq.MessageQueue
	mqClient, err = mq.NewKafkaQueue(appCfg.Kafka)
	if err != nil {
		logger.Error(context.Background(), "init kafka failed", zap.Error(err))
		return
	}
	defer func() {
		_ = mqClient.Close()
	}()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = mqClient.Ping(pingCtx)
	cancelPing()
	if err != nil {
		logger.Error(context.Background(), "kafka unreachable", zap.Error(err))
		return
	}

	judgeClient, err := judge.NewClient(appCfg.Judge)
	if err != nil {
		logger.Error(context.Background(), "init judge client failed", zap.Error(err))
		return
	}

	userClient, err := userclient.NewClient(appCfg.UserService)
	if err != nil {
		logger.Error(context.Background(), "init user client failed", zap.Error(err))
		return
	}

	probRepo := problemRepo.NewProblemRepository(mysqlDB, redisCache)
	subRepo := submissionRepo.NewSubmissionRepository(mysqlDB)

	probService, err := problemService.NewProblemService(problemService.Config{
		ProblemRepo: probRepo,
		Judge:       judgeClient,
	})
	if err != nil {
		logger.Error(context.Background(), "init problem service failed", zap.Error(err))
		return
	}

	solvedPublisher := submissionService.NewSolvedPublisher(redisCache, mqClient, appCfg.Solved.Topic)
	subService, err := submissionService.NewSubmissionService(submissionService.Config{
		SubmissionRepo:  subRepo,
		ProblemRepo:     probRepo,
		Judge:           judgeClient,
		SolvedPublisher: solvedPublisher,
	})
	if err != nil {
		logger.Error(context.Background(), "init submission service failed", zap.Error(err))
		return
	}

	solvedConsumer := submissionService.NewSolvedConsumer(userClient)
	if err := solvedConsumer.RegisterConsumer(context.Background(), mqClient, appCfg.Solved.Topic); err != nil {
		logger.Error(context.Background(), "subscribe solved topic failed", zap.Error(err))
		return
	}
	if err := mqClient.Start(); err != nil {
		logger.Error(context.Background(), "start kafka consumer failed", zap.Error(err))
		return
	}

	httpServer := buildHTTPServer(appCfg, probService, subService)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "problem http server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
	_ = mqClient.Stop()
}

func buildHTTPServer(cfg *AppConfig, probService *problemService.ProblemService, subService *submissionService.SubmissionService) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(requestLogger())

	auth := commonmw.AuthMiddleware(cfg.Auth.JWTSecret)
	adminOnly := commonmw.RequireRole(cfg.Auth.AdminRole)

	probCtrl := problemController.NewProblemController(probService)
	problems := router.Group("/api/v1/problems", auth)
	problems.GET("", probCtrl.List)
	problems.GET("/:id", probCtrl.Get)

	admin := router.Group("/api/v1/problems", auth, adminOnly)
	admin.POST("", probCtrl.Create)
	admin.PUT("/:id", probCtrl.Update)
	admin.DELETE("/:id", probCtrl.Delete)
	admin.GET("/:id/full", probCtrl.GetFull)

	subCtrl := submissionController.NewSubmissionController(subService)
	submissions := router.Group("/api/v1", auth)
	submissions.POST("/problems/:id/submit", subCtrl.Submit)
	submissions.POST("/problems/:id/run", subCtrl.Run)
	submissions.GET("/problems/:id/submissions", subCtrl.History)
	submissions.GET("/submissions/:id", subCtrl.Get)

	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
