package stats

import (
	"context"
	"time"
)

// LibraryStats 全馆统计
type LibraryStats struct {
	TotalBooks       int64
	AvailableBooks   int64
	UnavailableBooks int64
	TotalBorrows     int64
	ActiveBorrows    int64
	ReturnedBorrows  int64
	OverdueBorrows   int64
	TotalUsers       int64
	TotalCategories  int64
	PopularBooks     []PopularBook
	GeneratedAt      time.Time
}

// PopularBook 借阅次数排行
type PopularBook struct {
	BookID      uint
	Name        string
	BorrowCount int64
}

// BorrowCounts 单个读者的借阅计数
type BorrowCounts struct {
	Total    int64
	Active   int64
	Returned int64
	Overdue  int64
}

// PopularLimit 热门图书排行数量
const PopularLimit = 5

// Reader 统计查询（只读）
type Reader interface {
	Library(ctx context.Context, now time.Time) (*LibraryStats, error)
	UserBorrowCounts(ctx context.Context, userID uint, now time.Time) (*BorrowCounts, error)
}

// Cache 全馆统计缓存
// Get未命中时返回（nil, nil）
type Cache interface {
	GetLibrary(ctx context.Context) (*LibraryStats, error)
	SetLibrary(ctx context.Context, s *LibraryStats, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}
