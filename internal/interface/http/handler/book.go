package handler

import (
	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/pkg/response"
)

// BookHandler 图书HTTP处理器
type BookHandler struct {
	listBooksUseCase  *appbook.ListBooksUseCase
	manageBookUseCase *appbook.ManageBookUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(listBooksUseCase *appbook.ListBooksUseCase, manageBookUseCase *appbook.ManageBookUseCase) *BookHandler {
	return &BookHandler{
		listBooksUseCase:  listBooksUseCase,
		manageBookUseCase: manageBookUseCase,
	}
}

// ListBooks 图书列表
// @Summary      图书列表
// @Description  支持按书名搜索、分类、是否在售、是否可借过滤,order_by前加"-"表示降序
// @Tags         图书
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        limit query int false "每页数量" default(10)
// @Param        search query string false "书名关键字"
// @Param        category query int false "分类ID"
// @Param        sell query bool false "是否在售"
// @Param        available query bool false "是否有可借副本"
// @Param        order_by query string false "排序字段" Enums(name, -name, price, -price, date, -date, available_copy, -available_copy)
// @Success      200 {object} response.Response{data=response.PageData{list=[]appbook.BookDTO}}
// @Router       /api/v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var q dto.ListBooksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.listBooksUseCase.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Page:       q.Page,
		PageSize:   q.Limit,
		Search:     q.Search,
		CategoryID: q.Category,
		Sell:       q.Sell,
		Available:  q.Available,
		OrderBy:    q.OrderBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// GetBook 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=appbook.BookDTO}
// @Failure      default {object} response.Response "40402 图书不存在"
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.listBooksUseCase.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CreateBook 新增图书
// @Summary      新增图书
// @Tags         图书管理
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.BookRequest true "图书信息"
// @Success      200 {object} response.Response{data=appbook.BookDTO}
// @Failure      default {object} response.Response "40004 ISBN已存在 / 40403 分类不存在"
// @Router       /api/v1/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req dto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	result, err := h.manageBookUseCase.Create(c.Request.Context(), toBookRequest(req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateBook 修改图书
// @Summary      修改图书
// @Description  不传available_copy时保持当前可借副本数
// @Tags         图书管理
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Param        request body dto.BookRequest true "图书信息"
// @Success      200 {object} response.Response{data=appbook.BookDTO}
// @Router       /api/v1/books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	result, err := h.manageBookUseCase.Update(c.Request.Context(), id, toBookRequest(req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteBook 删除图书
// @Summary      删除图书
// @Description  仍有未归还借阅时拒绝删除
// @Tags         图书管理
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response
// @Failure      default {object} response.Response "40012 图书仍有未还借阅"
// @Router       /api/v1/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.manageBookUseCase.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func toBookRequest(req dto.BookRequest) appbook.BookRequest {
	return appbook.BookRequest{
		Name:          req.Name,
		ISBN:          req.ISBN,
		Price:         req.Price,
		Sell:          req.Sell,
		Date:          req.Date,
		AvailableCopy: req.AvailableCopy,
		CoverImage:    req.CoverImage,
		Description:   req.Description,
		CategoryIDs:   req.Categories,
	}
}
