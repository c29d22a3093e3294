package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/profile"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// profileRepository 借阅档案仓储
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建借阅档案仓储
func NewProfileRepository(db *gorm.DB) profile.Repository {
	return &profileRepository{db: db}
}

// CreateIfAbsent 插入默认档案
// MySQL: INSERT ... ON DUPLICATE KEY UPDATE id=id
// SQLite: INSERT ... ON CONFLICT DO NOTHING
// 并发首次访问时只有一条INSERT生效，另一条静默跳过
func (r *profileRepository) CreateIfAbsent(ctx context.Context, p *profile.Profile) error {
	model := &ProfileModel{
		UserID:      p.UserID,
		BorrowLimit: p.BorrowLimit,
		Warning:     p.Warning,
		Address:     p.Address,
		Phone:       p.Phone,
	}
	err := dbFrom(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(model).Error
	if err != nil {
		return apperrors.Wrap(err, "创建借阅档案失败")
	}
	return nil
}

// LockByUserID SELECT ... FOR UPDATE
func (r *profileRepository) LockByUserID(ctx context.Context, userID uint) (*profile.Profile, error) {
	var model ProfileModel
	err := dbFrom(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, apperrors.Wrap(err, "锁定借阅档案失败")
	}
	return toProfileEntity(&model), nil
}

// FindByUserID 根据用户ID查询
func (r *profileRepository) FindByUserID(ctx context.Context, userID uint) (*profile.Profile, error) {
	var model ProfileModel
	err := dbFrom(ctx, r.db).Where("user_id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, apperrors.Wrap(err, "查询借阅档案失败")
	}
	return toProfileEntity(&model), nil
}

// Update 保存联系方式与借阅上限，warning只能通过IncrWarning修改
func (r *profileRepository) Update(ctx context.Context, p *profile.Profile) error {
	result := dbFrom(ctx, r.db).Model(&ProfileModel{}).Where("user_id = ?", p.UserID).Updates(map[string]interface{}{
		"borrow_limit": p.BorrowLimit,
		"address":      p.Address,
		"phone":        p.Phone,
	})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新借阅档案失败")
	}
	if result.RowsAffected == 0 {
		return profile.ErrProfileNotFound
	}
	return nil
}

// IncrWarning UPDATE profiles SET warning = warning + 1 WHERE user_id = ?
func (r *profileRepository) IncrWarning(ctx context.Context, userID uint) error {
	result := dbFrom(ctx, r.db).Model(&ProfileModel{}).
		Where("user_id = ?", userID).
		Update("warning", gorm.Expr("warning + ?", 1))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "记录逾期警告失败")
	}
	if result.RowsAffected == 0 {
		return profile.ErrProfileNotFound
	}
	return nil
}

// SumWarnings 警告总数
func (r *profileRepository) SumWarnings(ctx context.Context) (int64, error) {
	var sum int64
	err := dbFrom(ctx, r.db).Model(&ProfileModel{}).Select("COALESCE(SUM(warning), 0)").Scan(&sum).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "统计警告数失败")
	}
	return sum, nil
}

func toProfileEntity(model *ProfileModel) *profile.Profile {
	return &profile.Profile{
		ID:          model.ID,
		UserID:      model.UserID,
		BorrowLimit: model.BorrowLimit,
		Warning:     model.Warning,
		Address:     model.Address,
		Phone:       model.Phone,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
