package book

import (
	"fmt"
	"time"

	"github.com/xiebiao/library/internal/domain/book"
)

// BookDTO 图书响应
type BookDTO struct {
	ID            uint          `json:"id"`
	Name          string        `json:"name"`
	ISBN          string        `json:"isbn"`
	Price         int64         `json:"price"` // 分
	PriceYuan     string        `json:"price_yuan"`
	Sell          bool          `json:"sell"`
	Date          time.Time     `json:"date"`
	AvailableCopy int           `json:"available_copy"`
	CoverImage    string        `json:"cover_image"`
	Description   string        `json:"description,omitempty"`
	Categories    []CategoryDTO `json:"categories"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CategoryDTO 图书所属分类
type CategoryDTO struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ToDTO 领域实体 → 响应DTO，列表场景不返回description
func ToDTO(b *book.Book, withDescription bool) BookDTO {
	dto := BookDTO{
		ID:            b.ID,
		Name:          b.Name,
		ISBN:          b.ISBN,
		Price:         b.Price,
		PriceYuan:     fmt.Sprintf("%.2f", float64(b.Price)/100),
		Sell:          b.Sell,
		Date:          b.Date,
		AvailableCopy: b.AvailableCopy,
		CoverImage:    b.CoverImage,
		Categories:    make([]CategoryDTO, len(b.Categories)),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if withDescription {
		dto.Description = b.Description
	}
	for i, c := range b.Categories {
		dto.Categories[i] = CategoryDTO{ID: c.ID, Name: c.Name}
	}
	return dto
}
