package book

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrOutOfStock 没有可借副本
	ErrOutOfStock = apperrors.New(apperrors.ErrCodeOutOfStock, "该图书暂无可借副本")

	// ErrISBNDuplicate ISBN已存在
	ErrISBNDuplicate = apperrors.New(apperrors.ErrCodeISBNDuplicate, "ISBN号已存在")

	// ErrBookInUse 仍有未归还的借阅记录，不能删除
	ErrBookInUse = apperrors.New(apperrors.ErrCodeBookInUse, "该图书仍有未归还的借阅,不能删除")

	// ErrInvalidPrice 无效的价格
	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "价格不能为负数")

	// ErrInvalidCopies 无效的副本数
	ErrInvalidCopies = apperrors.New(apperrors.ErrCodeInvalidParams, "可借副本数不能为负数")

	// ErrInvalidName 书名为空或过长
	ErrInvalidName = apperrors.New(apperrors.ErrCodeInvalidParams, "书名长度应为1-200个字符")

	// ErrInvalidISBN ISBN格式不正确
	ErrInvalidISBN = apperrors.New(apperrors.ErrCodeInvalidParams, "ISBN格式不正确")
)
