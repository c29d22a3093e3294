//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 修改后执行 `wire gen ./cmd/api` 重新生成wire_gen.go
package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"

	"github.com/xiebiao/library/internal/application"
	appbook "github.com/xiebiao/library/internal/application/book"
	appborrow "github.com/xiebiao/library/internal/application/borrow"
	appcategory "github.com/xiebiao/library/internal/application/category"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/internal/interface/http/router"
)

// infrastructureSet 数据库、Redis、消息队列
var infrastructureSet = wire.NewSet(
	provideDB,
	provideRedis,
	providePublisher,
)

// repositorySet 仓储与事务
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewProfileRepository,
	mysql.NewCategoryRepository,
	mysql.NewBookRepository,
	mysql.NewBorrowRepository,
	mysql.NewStatsRepository,
	mysql.NewTxManager,
	wire.Bind(new(application.Transactor), new(*mysql.TxManager)),
	redis.NewSessionStore,
	wire.Bind(new(appuser.SessionStore), new(*redis.SessionStore)),
	wire.Bind(new(middleware.Blacklist), new(*redis.SessionStore)),
	wire.Bind(new(middleware.AccountReader), new(user.Repository)),
	redis.NewStatsCache,
)

// domainSet 领域服务与策略
var domainSet = wire.NewSet(
	provideUserService,
	providePolicy,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,
	provideLoginUseCase,
	appuser.NewLogoutUseCase,
	appuser.NewRefreshUseCase,
	appuser.NewProfileUseCase,
	appbook.NewListBooksUseCase,
	appbook.NewManageBookUseCase,
	appcategory.NewCategoryUseCase,
	provideBorrowBookUseCase,
	provideReturnBookUseCase,
	appborrow.NewQueryUseCase,
	provideStatsUseCase,
)

// interfaceSet 中间件、处理器与路由
var interfaceSet = wire.NewSet(
	provideJWTManager,
	middleware.NewAuthMiddleware,
	handler.NewUserHandler,
	handler.NewBookHandler,
	handler.NewCategoryHandler,
	handler.NewBorrowHandler,
	handler.NewStatsHandler,
	wire.Struct(new(router.Handlers), "*"),
	provideEngine,
)

// InitializeApp 组装整个应用
// 返回的cleanup按依赖的逆序关闭发布者、Redis与数据库
func InitializeApp(cfg *config.Config) (*gin.Engine, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
	)
	return nil, nil, nil
}
