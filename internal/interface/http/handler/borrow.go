package handler

import (
	"github.com/gin-gonic/gin"

	appborrow "github.com/xiebiao/library/internal/application/borrow"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// BorrowHandler 借阅HTTP处理器
type BorrowHandler struct {
	borrowBookUseCase *appborrow.BorrowBookUseCase
	returnBookUseCase *appborrow.ReturnBookUseCase
	queryUseCase      *appborrow.QueryUseCase
}

// NewBorrowHandler 创建借阅处理器
func NewBorrowHandler(
	borrowBookUseCase *appborrow.BorrowBookUseCase,
	returnBookUseCase *appborrow.ReturnBookUseCase,
	queryUseCase *appborrow.QueryUseCase,
) *BorrowHandler {
	return &BorrowHandler{
		borrowBookUseCase: borrowBookUseCase,
		returnBookUseCase: returnBookUseCase,
		queryUseCase:      queryUseCase,
	}
}

// BorrowBook 借书
// @Summary      借书
// @Description  扣减可借副本并创建借阅记录,return_date为读者指定的应还日期
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.BorrowRequest true "借阅信息"
// @Success      200 {object} response.Response{data=appborrow.BorrowDTO}
// @Failure      default {object} response.Response "40402 图书不存在 / 40001 无可借副本 / 40006 超出借阅上限 / 40007 重复借阅"
// @Router       /api/v1/borrows [post]
func (h *BorrowHandler) BorrowBook(c *gin.Context) {
	var req dto.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.borrowBookUseCase.Execute(c.Request.Context(), appborrow.BorrowBookRequest{
		UserID:  middleware.MustGetUserID(c),
		BookID:  req.BookID,
		DueDate: req.ReturnDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ReturnBook 还书
// @Summary      还书
// @Description  借阅人本人或管理员可以归还;逾期归还仍然成功,借阅人警告次数加1
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅记录ID"
// @Success      200 {object} response.Response{data=appborrow.ReturnBookResponse}
// @Failure      default {object} response.Response "40404 借阅记录不存在 / 40104 无权操作 / 40008 已归还"
// @Router       /api/v1/borrows/{id}/return [post]
func (h *BorrowHandler) ReturnBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.returnBookUseCase.Execute(c.Request.Context(), appborrow.ReturnBookRequest{
		Actor:    middleware.Actor(c),
		BorrowID: id,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListBorrows 借阅记录列表
// @Summary      借阅记录
// @Description  管理员查看全部(可按user_id过滤),普通读者只能查看自己的
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码" default(1)
// @Param        limit query int false "每页数量" default(10)
// @Param        user_id query int false "读者ID(仅管理员)"
// @Param        is_return query bool false "是否已归还"
// @Success      200 {object} response.Response{data=response.PageData{list=[]appborrow.BorrowDTO}}
// @Router       /api/v1/borrows [get]
func (h *BorrowHandler) ListBorrows(c *gin.Context) {
	var q dto.ListBorrowsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.queryUseCase.List(c.Request.Context(), appborrow.ListRequest{
		Actor:    middleware.Actor(c),
		UserID:   q.UserID,
		IsReturn: q.IsReturn,
		Page:     q.Page,
		PageSize: q.Limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// GetBorrow 借阅详情
// @Summary      借阅详情
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅记录ID"
// @Success      200 {object} response.Response{data=appborrow.BorrowDTO}
// @Router       /api/v1/borrows/{id} [get]
func (h *BorrowHandler) GetBorrow(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.queryUseCase.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// MyActive 我的未还借阅
// @Summary      当前借阅
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]appborrow.BorrowDTO}
// @Router       /api/v1/borrows/my-active [get]
func (h *BorrowHandler) MyActive(c *gin.Context) {
	result, err := h.queryUseCase.MyActive(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
