package borrow

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 借阅领域错误定义
var (
	// ErrBorrowNotFound 借阅记录不存在
	ErrBorrowNotFound = apperrors.New(apperrors.ErrCodeBorrowNotFound, "借阅记录不存在")

	// ErrDuplicateBorrow 同一本书尚未归还
	ErrDuplicateBorrow = apperrors.New(apperrors.ErrCodeDuplicateBorrow, "您已借阅该图书且尚未归还")

	// ErrAlreadyReturned 重复归还
	ErrAlreadyReturned = apperrors.New(apperrors.ErrCodeAlreadyReturned, "该图书已归还")

	// ErrForbidden 非本人且非管理员
	ErrForbidden = apperrors.New(apperrors.ErrCodeForbidden, "无权操作该借阅记录")

	// ErrInvalidState 存储层发现同一读者同一本书已有未还记录
	ErrInvalidState = apperrors.New(apperrors.ErrCodeInvalidState, "借阅记录状态冲突")

	// ErrInvalidDueDate 应还日期缺失
	ErrInvalidDueDate = apperrors.New(apperrors.ErrCodeInvalidParams, "应还日期不能为空")
)
