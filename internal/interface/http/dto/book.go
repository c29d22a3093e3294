package dto

import "time"

// BookRequest 新增/修改图书
// price单位为分；available_copy不传时新增取1、修改保持不变
type BookRequest struct {
	Name          string    `json:"name" binding:"required,max=200" example:"Go语言实战"`
	ISBN          string    `json:"isbn" binding:"required,max=20" example:"9787115428028"`
	Price         int64     `json:"price" binding:"min=0,max=99999999" example:"5900"`
	Sell          bool      `json:"sell" example:"true"`
	Date          time.Time `json:"date" example:"2017-01-01T00:00:00Z"`
	AvailableCopy *int      `json:"available_copy" binding:"omitempty,min=0" example:"3"`
	CoverImage    string    `json:"cover_image" binding:"omitempty,url,max=500" example:"https://example.com/cover.jpg"`
	Description   string    `json:"description" binding:"max=5000"`
	Categories    []uint    `json:"categories" example:"1,2"`
}

// ListBooksQuery 图书列表查询参数
type ListBooksQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1" example:"1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100" example:"10"`
	Search    string `form:"search" binding:"omitempty,max=100" example:"Go"`
	Category  uint   `form:"category" example:"1"`
	Sell      *bool  `form:"sell"`
	Available *bool  `form:"available"`
	OrderBy   string `form:"order_by" binding:"omitempty,oneof=name -name price -price date -date available_copy -available_copy" example:"-date"`
}
