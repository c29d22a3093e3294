package stats

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/domain/profile"
	"github.com/xiebiao/library/internal/domain/stats"
)

// StatsUseCase 读者统计与全馆统计
type StatsUseCase struct {
	reader stats.Reader
	cache  stats.Cache
	policy *profile.Policy
	ttl    time.Duration
	now    func() time.Time
}

// NewStatsUseCase 创建统计用例，cache为nil时每次直接查库
func NewStatsUseCase(reader stats.Reader, cache stats.Cache, policy *profile.Policy, ttl time.Duration) *StatsUseCase {
	return &StatsUseCase{
		reader: reader,
		cache:  cache,
		policy: policy,
		ttl:    ttl,
		now:    time.Now,
	}
}

// UserStatsResponse 读者统计
type UserStatsResponse struct {
	TotalBorrows    int64 `json:"total_borrows"`
	ActiveBorrows   int64 `json:"active_borrows"`
	ReturnedBorrows int64 `json:"returned_borrows"`
	OverdueBorrows  int64 `json:"overdue_borrows"`
	BorrowLimit     int   `json:"borrow_limit"`
	RemainingLimit  int   `json:"remaining_borrow_limit"`
	Warning         int   `json:"warning"`
}

// LibraryStatsResponse 全馆统计
type LibraryStatsResponse struct {
	TotalBooks       int64             `json:"total_books"`
	AvailableBooks   int64             `json:"available_books"`
	UnavailableBooks int64             `json:"unavailable_books"`
	TotalBorrows     int64             `json:"total_borrows"`
	ActiveBorrows    int64             `json:"active_borrows"`
	ReturnedBorrows  int64             `json:"returned_borrows"`
	OverdueBorrows   int64             `json:"overdue_borrows"`
	TotalUsers       int64             `json:"total_users"`
	TotalCategories  int64             `json:"total_categories"`
	PopularBooks     []PopularBookItem `json:"popular_books"`
	GeneratedAt      time.Time         `json:"generated_at"`
	Cached           bool              `json:"cached"`
}

// PopularBookItem 热门图书
type PopularBookItem struct {
	BookID      uint   `json:"book_id"`
	Name        string `json:"name"`
	BorrowCount int64  `json:"borrow_count"`
}

// User 当前读者的借阅统计
func (uc *StatsUseCase) User(ctx context.Context, userID uint) (*UserStatsResponse, error) {
	counts, err := uc.reader.UserBorrowCounts(ctx, userID, uc.now())
	if err != nil {
		return nil, err
	}
	p, err := uc.policy.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserStatsResponse{
		TotalBorrows:    counts.Total,
		ActiveBorrows:   counts.Active,
		ReturnedBorrows: counts.Returned,
		OverdueBorrows:  counts.Overdue,
		BorrowLimit:     p.BorrowLimit,
		RemainingLimit:  p.Remaining(counts.Active),
		Warning:         p.Warning,
	}, nil
}

// Library 全馆统计
// 先读缓存，未命中再查库并回填；缓存故障只降级为查库
func (uc *StatsUseCase) Library(ctx context.Context) (*LibraryStatsResponse, error) {
	if uc.cache != nil {
		cached, err := uc.cache.GetLibrary(ctx)
		if err != nil {
			zap.L().Warn("读取统计缓存失败", zap.Error(err))
		} else if cached != nil {
			resp := toLibraryResponse(cached)
			resp.Cached = true
			return resp, nil
		}
	}

	s, err := uc.reader.Library(ctx, uc.now())
	if err != nil {
		return nil, err
	}

	if uc.cache != nil && uc.ttl > 0 {
		if err := uc.cache.SetLibrary(ctx, s, uc.ttl); err != nil {
			zap.L().Warn("写入统计缓存失败", zap.Error(err))
		}
	}
	return toLibraryResponse(s), nil
}

func toLibraryResponse(s *stats.LibraryStats) *LibraryStatsResponse {
	popular := make([]PopularBookItem, len(s.PopularBooks))
	for i, p := range s.PopularBooks {
		popular[i] = PopularBookItem{BookID: p.BookID, Name: p.Name, BorrowCount: p.BorrowCount}
	}
	return &LibraryStatsResponse{
		TotalBooks:       s.TotalBooks,
		AvailableBooks:   s.AvailableBooks,
		UnavailableBooks: s.UnavailableBooks,
		TotalBorrows:     s.TotalBorrows,
		ActiveBorrows:    s.ActiveBorrows,
		ReturnedBorrows:  s.ReturnedBorrows,
		OverdueBorrows:   s.OverdueBorrows,
		TotalUsers:       s.TotalUsers,
		TotalCategories:  s.TotalCategories,
		PopularBooks:     popular,
		GeneratedAt:      s.GeneratedAt,
	}
}
