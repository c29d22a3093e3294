package main

import (
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/application"
	appborrow "github.com/xiebiao/library/internal/application/borrow"
	appstats "github.com/xiebiao/library/internal/application/stats"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/profile"
	"github.com/xiebiao/library/internal/domain/stats"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/event"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/internal/interface/http/router"
	"github.com/xiebiao/library/pkg/jwt"
)

// 需要从配置中取参数或需要清理函数的依赖，用自定义Provider构造

// provideDB 数据库连接，退出时关闭连接池
func provideDB(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

// provideRedis Redis连接，退出时关闭
func provideRedis(cfg *config.Config) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// providePublisher 借阅事件发布者，mq.enabled=false时为Noop
func providePublisher(cfg *config.Config) (event.Publisher, func(), error) {
	p, err := event.NewPublisher(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := p.Close(); err != nil {
			zap.L().Warn("关闭事件发布者失败", zap.Error(err))
		}
	}
	return p, cleanup, nil
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

func provideUserService(repo user.Repository) user.Service {
	return user.NewService(repo)
}

func providePolicy(repo profile.Repository, cfg *config.Config) *profile.Policy {
	return profile.NewPolicy(repo, cfg.Borrow.DefaultLimit)
}

// provideLoginUseCase 会话有效期与Refresh Token一致
func provideLoginUseCase(userService user.Service, jwtManager *jwt.Manager, sessions appuser.SessionStore, cfg *config.Config) *appuser.LoginUseCase {
	return appuser.NewLoginUseCase(userService, jwtManager, sessions, cfg.JWT.RefreshTokenExpire)
}

func provideBorrowBookUseCase(
	tx application.Transactor,
	bookRepo book.Repository,
	borrowRepo borrow.Repository,
	policy *profile.Policy,
	publisher event.Publisher,
	cache stats.Cache,
) *appborrow.BorrowBookUseCase {
	return appborrow.NewBorrowBookUseCase(tx, bookRepo, borrowRepo, policy,
		appborrow.WithPublisher(publisher),
		appborrow.WithStatsCache(cache),
	)
}

func provideReturnBookUseCase(
	tx application.Transactor,
	bookRepo book.Repository,
	borrowRepo borrow.Repository,
	policy *profile.Policy,
	publisher event.Publisher,
	cache stats.Cache,
) *appborrow.ReturnBookUseCase {
	return appborrow.NewReturnBookUseCase(tx, bookRepo, borrowRepo, policy,
		appborrow.WithPublisher(publisher),
		appborrow.WithStatsCache(cache),
	)
}

func provideStatsUseCase(reader stats.Reader, cache stats.Cache, policy *profile.Policy, cfg *config.Config) *appstats.StatsUseCase {
	return appstats.NewStatsUseCase(reader, cache, policy, cfg.Stats.CacheTTL)
}

func provideEngine(cfg *config.Config, handlers *router.Handlers, auth *middleware.AuthMiddleware) *gin.Engine {
	cors := middleware.CORS(middleware.CORSOptions{
		Enabled:          cfg.CORS.Enabled,
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     cfg.CORS.AllowMethods,
		AllowHeaders:     cfg.CORS.AllowHeaders,
		ExposeHeaders:    cfg.CORS.ExposeHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})
	return router.New(cfg.Server.Mode, handlers, auth, cors)
}
