package book

import (
	"strings"
	"time"
)

// Book 图书实体（聚合根）
// 设计说明：
// 1. AvailableCopy是可借副本数，只能通过Inventory原子地增减，永远>=0
// 2. 价格使用int64存储"分"为单位（避免浮点数精度问题）
// 3. ISBN作为业务唯一标识（数据库层保证唯一性）
type Book struct {
	ID            uint
	Name          string // 书名
	ISBN          string // ISBN号
	Price         int64  // 价格（分）
	Sell          bool   // 是否在售
	Date          time.Time
	AvailableCopy int    // 可借副本数
	CoverImage    string // 封面图片URL
	Description   string
	CategoryIDs   []uint
	Categories    []CategoryRef
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CategoryRef 图书所属分类的只读投影
type CategoryRef struct {
	ID   uint
	Name string
}

// DefaultAvailableCopy 新书默认可借副本数
const DefaultAvailableCopy = 1

// NewBook 创建新图书（工厂方法）
func NewBook(name, isbn string, price int64, sell bool, date time.Time, availableCopy int, coverImage, description string, categoryIDs []uint) (*Book, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > 200 {
		return nil, ErrInvalidName
	}
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	if availableCopy < 0 {
		return nil, ErrInvalidCopies
	}
	if !isValidISBN(isbn) {
		return nil, ErrInvalidISBN
	}

	now := time.Now()
	return &Book{
		Name:          name,
		ISBN:          strings.TrimSpace(isbn),
		Price:         price,
		Sell:          sell,
		Date:          date,
		AvailableCopy: availableCopy,
		CoverImage:    coverImage,
		Description:   description,
		CategoryIDs:   categoryIDs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsAvailable 是否还有可借副本
func (b *Book) IsAvailable() bool {
	return b.AvailableCopy > 0
}

// SetAvailableCopy 管理员盘点后直接设置副本数
func (b *Book) SetAvailableCopy(n int) error {
	if n < 0 {
		return ErrInvalidCopies
	}
	b.AvailableCopy = n
	b.UpdatedAt = time.Now()
	return nil
}

// UpdatePrice 更新价格
func (b *Book) UpdatePrice(price int64) error {
	if price < 0 {
		return ErrInvalidPrice
	}
	b.Price = price
	b.UpdatedAt = time.Now()
	return nil
}

// isValidISBN 校验ISBN格式（10位或13位数字，允许连字符）
func isValidISBN(isbn string) bool {
	digits := 0
	for _, r := range isbn {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-' || r == ' ':
		case (r == 'X' || r == 'x') && digits == 9:
			digits++
		default:
			return false
		}
	}
	return digits == 10 || digits == 13
}
