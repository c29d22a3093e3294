package borrow

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/application"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/profile"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// BorrowBookUseCase 借书
//
// 整个流程在一个事务内完成，加锁顺序固定为 图书 → 借阅档案：
//  1. SELECT ... FOR UPDATE 锁定图书，不存在返回ErrBookNotFound
//  2. available_copy <= 0 返回ErrOutOfStock
//  3. 档案不存在则按默认值创建，并锁定档案行（同一读者的借书请求在此串行）
//  4. 未还数量 >= borrow_limit 返回ErrLimitExceeded
//  5. 已有该书的未还记录返回ErrDuplicateBorrow
//  6. 条件扣减副本 + 创建借阅记录
//  7. COMMIT后发布事件、清除统计缓存
type BorrowBookUseCase struct {
	tx         application.Transactor
	bookRepo   book.Repository
	borrowRepo borrow.Repository
	policy     *profile.Policy
	opts       options
}

// NewBorrowBookUseCase 创建借书用例
func NewBorrowBookUseCase(
	tx application.Transactor,
	bookRepo book.Repository,
	borrowRepo borrow.Repository,
	policy *profile.Policy,
	opts ...Option,
) *BorrowBookUseCase {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &BorrowBookUseCase{
		tx:         tx,
		bookRepo:   bookRepo,
		borrowRepo: borrowRepo,
		policy:     policy,
		opts:       o,
	}
}

// BorrowBookRequest 借书请求
type BorrowBookRequest struct {
	UserID  uint // 从JWT中提取
	BookID  uint
	DueDate time.Time // 应还日期
}

// Execute 执行借书
func (uc *BorrowBookUseCase) Execute(ctx context.Context, req BorrowBookRequest) (_ *BorrowDTO, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "BorrowBook", trace.WithAttributes(
		attribute.Int64("user_id", int64(req.UserID)),
		attribute.Int64("book_id", int64(req.BookID)),
	))
	defer func() {
		tracing.End(span, err)
		metrics.ObserveBorrow(err, time.Since(start).Seconds())
	}()

	if req.DueDate.IsZero() {
		return nil, borrow.ErrInvalidDueDate
	}

	now := uc.opts.now()
	var record *borrow.Borrow

	err = uc.tx.Transaction(ctx, func(ctx context.Context) error {
		// 1. 锁定图书
		b, err := uc.bookRepo.LockByID(ctx, req.BookID)
		if err != nil {
			return err
		}

		// 2. 库存检查
		if !b.IsAvailable() {
			return book.ErrOutOfStock
		}

		// 3. 获取并锁定借阅档案
		p, err := uc.policy.Ensure(ctx, req.UserID)
		if err != nil {
			return err
		}

		// 4. 借阅上限
		open, err := uc.borrowRepo.CountOpenByUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		if !uc.policy.CanBorrow(p, open) {
			return profile.ErrLimitExceeded
		}

		// 5. 重复借阅
		existing, err := uc.borrowRepo.FindOpen(ctx, req.UserID, req.BookID)
		if err != nil {
			return err
		}
		if existing != nil {
			return borrow.ErrDuplicateBorrow
		}

		// 6. 扣减副本并创建记录
		if err := uc.bookRepo.ReserveCopy(ctx, b.ID); err != nil {
			return err
		}
		record = borrow.NewBorrow(req.UserID, b.ID, req.DueDate, now)
		if err := uc.borrowRepo.Create(ctx, record); err != nil {
			return err
		}
		record.Book = &borrow.BookRef{ID: b.ID, Name: b.Name, ISBN: b.ISBN}
		return nil
	})
	if err != nil {
		zap.L().Info("借书失败",
			zap.Uint("user_id", req.UserID),
			zap.Uint("book_id", req.BookID),
			zap.Error(err),
		)
		return nil, err
	}

	zap.L().Info("借书成功",
		zap.Uint("borrow_id", record.ID),
		zap.Uint("user_id", req.UserID),
		zap.Uint("book_id", req.BookID),
		zap.Time("return_date", record.ReturnDate),
	)
	uc.opts.afterCommit(ctx, borrow.NewBorrowedEvent(record))

	dto := ToDTO(record, now)
	return &dto, nil
}
