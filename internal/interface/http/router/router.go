// Package router 注册全部HTTP路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/xiebiao/library/docs"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// Handlers 路由依赖的全部处理器
type Handlers struct {
	User     *handler.UserHandler
	Book     *handler.BookHandler
	Category *handler.CategoryHandler
	Borrow   *handler.BorrowHandler
	Stats    *handler.StatsHandler
}

// New 创建Gin引擎并注册路由
// mode: debug | release | test
// global为额外的全局中间件（如CORS），在日志与指标之后执行
func New(mode string, h *Handlers, auth *middleware.AuthMiddleware, global ...gin.HandlerFunc) *gin.Engine {
	switch mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(mode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(), middleware.Metrics())
	r.Use(global...)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	// 访问 /swagger/index.html 查看API文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	users := v1.Group("/users")
	{
		users.POST("/register", h.User.Register)
		users.POST("/login", h.User.Login)
		users.POST("/refresh", h.User.Refresh)
		users.POST("/logout", auth.RequireAuth(), h.User.Logout)
	}

	// 公开的目录查询
	v1.GET("/books", h.Book.ListBooks)
	v1.GET("/books/:id", h.Book.GetBook)
	v1.GET("/categories", h.Category.ListCategories)
	v1.GET("/categories/:id", h.Category.GetCategory)
	v1.GET("/categories/:id/books", h.Category.CategoryBooks)

	authorized := v1.Group("")
	authorized.Use(auth.RequireAuth())
	{
		authorized.GET("/me", h.User.Me)
		authorized.GET("/profile", h.User.GetProfile)
		authorized.PUT("/profile", h.User.UpdateProfile)

		authorized.POST("/borrows", h.Borrow.BorrowBook)
		authorized.GET("/borrows", h.Borrow.ListBorrows)
		authorized.GET("/borrows/my-active", h.Borrow.MyActive)
		authorized.GET("/borrows/:id", h.Borrow.GetBorrow)
		authorized.POST("/borrows/:id/return", h.Borrow.ReturnBook)

		authorized.GET("/stats", h.Stats.UserStats)
	}

	admin := v1.Group("")
	admin.Use(auth.RequireAuth(), auth.RequireAdmin())
	{
		admin.POST("/books", h.Book.CreateBook)
		admin.PUT("/books/:id", h.Book.UpdateBook)
		admin.DELETE("/books/:id", h.Book.DeleteBook)

		admin.POST("/categories", h.Category.CreateCategory)
		admin.PUT("/categories/:id", h.Category.UpdateCategory)
		admin.DELETE("/categories/:id", h.Category.DeleteCategory)

		admin.GET("/stats/admin", h.Stats.LibraryStats)
	}

	return r
}
