package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/stats"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// statsRepository 统计查询，只读
type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository 创建统计查询
func NewStatsRepository(db *gorm.DB) stats.Reader {
	return &statsRepository{db: db}
}

// Library 全馆统计
func (r *statsRepository) Library(ctx context.Context, now time.Time) (*stats.LibraryStats, error) {
	db := dbFrom(ctx, r.db)
	s := &stats.LibraryStats{GeneratedAt: now}

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&s.TotalBooks, db.Model(&BookModel{})},
		{&s.AvailableBooks, db.Model(&BookModel{}).Where("available_copy > 0")},
		{&s.TotalBorrows, db.Model(&BorrowModel{})},
		{&s.ActiveBorrows, db.Model(&BorrowModel{}).Where("is_return = ?", false)},
		{&s.OverdueBorrows, db.Model(&BorrowModel{}).Where("is_return = ? AND return_date < ?", false, now)},
		{&s.TotalUsers, db.Model(&UserModel{})},
		{&s.TotalCategories, db.Model(&CategoryModel{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, apperrors.Wrap(err, "查询统计数据失败")
		}
	}
	s.UnavailableBooks = s.TotalBooks - s.AvailableBooks
	s.ReturnedBorrows = s.TotalBorrows - s.ActiveBorrows

	popular, err := r.popular(db)
	if err != nil {
		return nil, err
	}
	s.PopularBooks = popular
	return s, nil
}

// popular 借阅次数最多的图书，次数相同按图书ID升序
func (r *statsRepository) popular(db *gorm.DB) ([]stats.PopularBook, error) {
	var rows []struct {
		BookID      uint
		Name        string
		BorrowCount int64
	}
	err := db.Table("borrows").
		Select("borrows.book_id AS book_id, books.name AS name, COUNT(*) AS borrow_count").
		Joins("JOIN books ON books.id = borrows.book_id AND books.deleted_at IS NULL").
		Group("borrows.book_id, books.name").
		Order("borrow_count DESC, borrows.book_id ASC").
		Limit(stats.PopularLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询热门图书失败")
	}

	popular := make([]stats.PopularBook, len(rows))
	for i, row := range rows {
		popular[i] = stats.PopularBook{BookID: row.BookID, Name: row.Name, BorrowCount: row.BorrowCount}
	}
	return popular, nil
}

// UserBorrowCounts 单个读者的借阅计数
func (r *statsRepository) UserBorrowCounts(ctx context.Context, userID uint, now time.Time) (*stats.BorrowCounts, error) {
	var row struct {
		Total   int64
		Active  int64
		Overdue int64
	}
	err := dbFrom(ctx, r.db).Model(&BorrowModel{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_return = ? THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN is_return = ? AND return_date < ? THEN 1 ELSE 0 END), 0) AS overdue`,
			false, false, now).
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询借阅统计失败")
	}

	return &stats.BorrowCounts{
		Total:    row.Total,
		Active:   row.Active,
		Returned: row.Total - row.Active,
		Overdue:  row.Overdue,
	}, nil
}
