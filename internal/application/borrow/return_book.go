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

// ReturnBookUseCase 还书
//
// 事务内加锁顺序 借阅记录 → 图书 → 借阅档案：
//  1. 锁定借阅记录，不存在返回ErrBorrowNotFound
//  2. 非本人且非管理员返回ErrForbidden
//  3. 已归还返回ErrAlreadyReturned
//  4. 条件更新is_return + 归还副本
//  5. 当前时间晚于应还日期时warning加1，仍然算归还成功
type ReturnBookUseCase struct {
	tx         application.Transactor
	bookRepo   book.Repository
	borrowRepo borrow.Repository
	policy     *profile.Policy
	opts       options
}

// NewReturnBookUseCase 创建还书用例
func NewReturnBookUseCase(
	tx application.Transactor,
	bookRepo book.Repository,
	borrowRepo borrow.Repository,
	policy *profile.Policy,
	opts ...Option,
) *ReturnBookUseCase {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &ReturnBookUseCase{
		tx:         tx,
		bookRepo:   bookRepo,
		borrowRepo: borrowRepo,
		policy:     policy,
		opts:       o,
	}
}

// ReturnBookRequest 还书请求
type ReturnBookRequest struct {
	Actor    borrow.Actor
	BorrowID uint
}

// ReturnBookResponse 还书结果
type ReturnBookResponse struct {
	Borrow  BorrowDTO `json:"borrow"`
	Late    bool      `json:"late"`
	Warning int       `json:"warning"` // 读者当前的逾期警告次数
}

// Execute 执行还书
func (uc *ReturnBookUseCase) Execute(ctx context.Context, req ReturnBookRequest) (_ *ReturnBookResponse, err error) {
	start := time.Now()
	var late bool
	ctx, span := tracing.StartSpan(ctx, "ReturnBook", trace.WithAttributes(
		attribute.Int64("borrow_id", int64(req.BorrowID)),
		attribute.Int64("actor_id", int64(req.Actor.UserID)),
		attribute.Bool("actor_admin", req.Actor.IsAdmin),
	))
	defer func() {
		span.SetAttributes(attribute.Bool("late", late))
		tracing.End(span, err)
		metrics.ObserveReturn(err, late, time.Since(start).Seconds())
	}()

	now := uc.opts.now()
	var (
		record  *borrow.Borrow
		warning int
	)

	err = uc.tx.Transaction(ctx, func(ctx context.Context) error {
		// 1. 锁定借阅记录
		r, err := uc.borrowRepo.LockByID(ctx, req.BorrowID)
		if err != nil {
			return err
		}

		// 2. 权限
		if !req.Actor.CanManage(r) {
			return borrow.ErrForbidden
		}

		// 3. 状态
		if r.IsReturn {
			return borrow.ErrAlreadyReturned
		}

		// 4. 标记归还 + 归还副本
		if err := uc.borrowRepo.MarkReturned(ctx, r.ID, now); err != nil {
			return err
		}
		if err := r.MarkReturned(now); err != nil {
			return err
		}
		if err := uc.bookRepo.ReleaseCopy(ctx, r.BookID); err != nil {
			return err
		}

		// 5. 逾期警告
		isLate := r.IsLateAt(now)
		if isLate {
			p, err := uc.policy.RecordLateReturn(ctx, r.UserID)
			if err != nil {
				return err
			}
			warning = p.Warning
		} else {
			p, err := uc.policy.Get(ctx, r.UserID)
			if err != nil {
				return err
			}
			warning = p.Warning
		}

		record, late = r, isLate
		return nil
	})
	if err != nil {
		zap.L().Info("还书失败",
			zap.Uint("borrow_id", req.BorrowID),
			zap.Uint("actor_id", req.Actor.UserID),
			zap.Error(err),
		)
		return nil, err
	}

	if late {
		zap.L().Warn("逾期归还",
			zap.Uint("borrow_id", record.ID),
			zap.Uint("user_id", record.UserID),
			zap.Time("return_date", record.ReturnDate),
			zap.Int("warning", warning),
		)
	} else {
		zap.L().Info("还书成功", zap.Uint("borrow_id", record.ID), zap.Uint("user_id", record.UserID))
	}
	uc.opts.afterCommit(ctx, borrow.NewReturnedEvent(record, late, now))

	// 带上图书与读者摘要
	if full, err := uc.borrowRepo.FindByID(ctx, record.ID); err == nil {
		record = full
	}

	return &ReturnBookResponse{
		Borrow:  ToDTO(record, now),
		Late:    late,
		Warning: warning,
	}, nil
}
