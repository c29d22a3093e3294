package handler

import (
	"github.com/gin-gonic/gin"

	appstats "github.com/xiebiao/library/internal/application/stats"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// StatsHandler 统计
type StatsHandler struct {
	statsUseCase *appstats.StatsUseCase
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(statsUseCase *appstats.StatsUseCase) *StatsHandler {
	return &StatsHandler{statsUseCase: statsUseCase}
}

// UserStats 我的借阅统计
// @Summary      我的借阅统计
// @Tags         统计
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appstats.UserStatsResponse}
// @Router       /api/v1/stats [get]
func (h *StatsHandler) UserStats(c *gin.Context) {
	result, err := h.statsUseCase.User(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// LibraryStats 全馆统计
// @Summary      全馆统计
// @Description  结果缓存在Redis中,借还操作后失效
// @Tags         统计
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appstats.LibraryStatsResponse}
// @Router       /api/v1/stats/admin [get]
func (h *StatsHandler) LibraryStats(c *gin.Context) {
	result, err := h.statsUseCase.Library(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
