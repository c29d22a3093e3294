package mysql

import (
	"time"

	"gorm.io/gorm"
)

// UserModel GORM用户模型
// infrastructure层的数据模型，domain/user/entity.go是领域实体
type UserModel struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"uniqueIndex;size:50;not null;comment:用户名"`
	Email     string    `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string    `gorm:"size:255;not null;comment:密码(bcrypt加密)"`
	IsActive  bool      `gorm:"not null;default:true;comment:是否启用"`
	IsAdmin   bool      `gorm:"not null;default:false;comment:是否管理员"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// ProfileModel 借阅档案
// 1. user_id唯一索引，"不存在则创建"依赖它做冲突检测
// 2. borrow_limit/warning不设default tag，否则GORM会把0当成零值替换为默认值
type ProfileModel struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"uniqueIndex;not null;comment:用户ID"`
	BorrowLimit int       `gorm:"not null;check:chk_profiles_borrow_limit,borrow_limit >= 0;comment:借阅上限"`
	Warning     int       `gorm:"not null;check:chk_profiles_warning,warning >= 0;comment:逾期警告次数"`
	Address     string    `gorm:"size:255;comment:地址"`
	Phone       string    `gorm:"size:20;comment:电话"`
	CreatedAt   time.Time `gorm:"comment:创建时间"`
	UpdatedAt   time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (ProfileModel) TableName() string {
	return "profiles"
}

// CategoryModel 图书分类
type CategoryModel struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:100;not null;comment:分类名称"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (CategoryModel) TableName() string {
	return "categories"
}

// BookModel GORM图书模型
// 1. available_copy有CHECK约束兜底，应用层的条件更新是第一道防线
// 2. 软删除，历史借阅记录仍能关联到书名
type BookModel struct {
	ID            uint           `gorm:"primaryKey"`
	Name          string         `gorm:"index;size:200;not null;comment:书名"`
	ISBN          string         `gorm:"uniqueIndex;size:20;not null;comment:ISBN号"`
	Price         int64          `gorm:"not null;comment:价格(分)"`
	Sell          bool           `gorm:"index;not null;comment:是否在售"`
	Date          time.Time      `gorm:"comment:出版日期"`
	AvailableCopy int            `gorm:"index;not null;check:chk_books_available_copy,available_copy >= 0;comment:可借副本数"`
	CoverImage    string         `gorm:"size:500;comment:封面图片URL"`
	Description   string         `gorm:"type:text;comment:图书描述"`
	CreatedAt     time.Time      `gorm:"comment:创建时间"`
	UpdatedAt     time.Time      `gorm:"comment:更新时间"`
	DeletedAt     gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// BookCategoryModel 图书-分类关联表
type BookCategoryModel struct {
	BookID     uint `gorm:"primaryKey;autoIncrement:false"`
	CategoryID uint `gorm:"primaryKey;autoIncrement:false;index"`
}

// TableName 指定表名
func (BookCategoryModel) TableName() string {
	return "book_categories"
}

// BorrowModel 借阅记录
// idx_borrows_open(user_id, book_id, is_return)服务于"是否已有未还记录"查询
type BorrowModel struct {
	ID         uint       `gorm:"primaryKey"`
	UserID     uint       `gorm:"index:idx_borrows_open,priority:1;not null;comment:读者ID"`
	BookID     uint       `gorm:"index:idx_borrows_open,priority:2;index;not null;comment:图书ID"`
	IsReturn   bool       `gorm:"index:idx_borrows_open,priority:3;not null;comment:是否已归还"`
	BorrowDate time.Time  `gorm:"index;not null;comment:借出时间"`
	ReturnDate time.Time  `gorm:"index;not null;comment:应还日期"`
	ReturnedAt *time.Time `gorm:"comment:实际归还时间"`
	User       *UserModel `gorm:"foreignKey:UserID"`
	Book       *BookModel `gorm:"foreignKey:BookID"`
}

// TableName 指定表名
func (BorrowModel) TableName() string {
	return "borrows"
}
