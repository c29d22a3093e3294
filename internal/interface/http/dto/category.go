package dto

// CategoryRequest 新增/修改分类
type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=100" example:"编程语言"`
}
