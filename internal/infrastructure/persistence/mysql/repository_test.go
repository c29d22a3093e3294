package mysql_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/category"
	"github.com/xiebiao/library/internal/domain/profile"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql/mysqltest"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

var isbnSeq int

func newBook(t *testing.T, repo book.Repository, name string, copies int, categoryIDs ...uint) *book.Book {
	t.Helper()
	isbnSeq++
	b, err := book.NewBook(name, fmt.Sprintf("978%010d", isbnSeq), 3900, true,
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), copies, "", "", categoryIDs)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

func newUser(t *testing.T, repo user.Repository, username string) *user.User {
	t.Helper()
	u := user.NewUser(username, username+"@example.com", "hashed")
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestBookRepository_ReserveAndRelease(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewBookRepository(db)
	ctx := context.Background()

	b := newBook(t, repo, "Go语言圣经", 1)

	require.NoError(t, repo.ReserveCopy(ctx, b.ID))
	assert.ErrorIs(t, repo.ReserveCopy(ctx, b.ID), book.ErrOutOfStock)
	assert.ErrorIs(t, repo.ReserveCopy(ctx, 9999), book.ErrBookNotFound)

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableCopy)

	require.NoError(t, repo.ReleaseCopy(ctx, b.ID))
	assert.ErrorIs(t, repo.ReleaseCopy(ctx, 9999), book.ErrBookNotFound)

	got, err = repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopy)
}

func TestBookRepository_ReleaseSoftDeleted(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewBookRepository(db)
	ctx := context.Background()

	b := newBook(t, repo, "已下架", 0)
	require.NoError(t, repo.Delete(ctx, b.ID))

	_, err := repo.FindByID(ctx, b.ID)
	assert.ErrorIs(t, err, book.ErrBookNotFound)
	assert.NoError(t, repo.ReleaseCopy(ctx, b.ID))
}

func TestBookRepository_ISBNDuplicate(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewBookRepository(db)

	b := newBook(t, repo, "第一本", 1)
	dup, err := book.NewBook("第二本", b.ISBN, 100, true, time.Now().UTC(), 1, "", "", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Create(context.Background(), dup), book.ErrISBNDuplicate)
}

func TestBookRepository_List(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewBookRepository(db)
	categories := mysql.NewCategoryRepository(db)
	ctx := context.Background()

	fiction, _ := category.NewCategory("小说")
	require.NoError(t, categories.Create(ctx, fiction))
	tech, _ := category.NewCategory("技术")
	require.NoError(t, categories.Create(ctx, tech))

	newBook(t, repo, "三体", 2, fiction.ID)
	newBook(t, repo, "Go并发编程", 0, tech.ID)
	newBook(t, repo, "Go Web编程", 3, tech.ID, fiction.ID)

	available := true
	tests := []struct {
		name      string
		params    book.ListParams
		wantNames []string
	}{
		{"默认按ID倒序", book.ListParams{}, []string{"Go Web编程", "Go并发编程", "三体"}},
		{"书名搜索", book.ListParams{Search: "Go", OrderBy: "name"}, []string{"Go Web编程", "Go并发编程"}},
		{"按分类", book.ListParams{CategoryID: fiction.ID, OrderBy: "-available_copy"}, []string{"Go Web编程", "三体"}},
		{"只看可借", book.ListParams{Available: &available, OrderBy: "available_copy"}, []string{"三体", "Go Web编程"}},
		{"非法排序字段回退默认", book.ListParams{OrderBy: "password"}, []string{"Go Web编程", "Go并发编程", "三体"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, total, err := repo.List(ctx, tt.params)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.wantNames)), total)

			names := make([]string, len(books))
			for i, b := range books {
				names[i] = b.Name
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}

	count, err := repo.CountByCategory(ctx, tech.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestBookRepository_UpdateReplacesCategories(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewBookRepository(db)
	categories := mysql.NewCategoryRepository(db)
	ctx := context.Background()

	a, _ := category.NewCategory("A")
	require.NoError(t, categories.Create(ctx, a))
	b, _ := category.NewCategory("B")
	require.NoError(t, categories.Create(ctx, b))

	bk := newBook(t, repo, "分类调整", 1, a.ID)
	bk.CategoryIDs = []uint{b.ID, b.ID}
	require.NoError(t, repo.Update(ctx, bk))

	got, err := repo.FindByID(ctx, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, got.CategoryIDs)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, "B", got.Categories[0].Name)
}

func TestBorrowRepository_OneOpenPerPair(t *testing.T) {
	db := mysqltest.New(t)
	books := mysql.NewBookRepository(db)
	users := mysql.NewUserRepository(db)
	repo := mysql.NewBorrowRepository(db)
	ctx := context.Background()

	b := newBook(t, books, "重复借阅", 2)
	u := newUser(t, users, "alice")
	now := time.Now().UTC().Truncate(time.Second)
	due := now.Add(14 * 24 * time.Hour)

	first := borrow.NewBorrow(u.ID, b.ID, due, now)
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)

	assert.ErrorIs(t, repo.Create(ctx, borrow.NewBorrow(u.ID, b.ID, due, now)), borrow.ErrInvalidState)

	open, err := repo.FindOpen(ctx, u.ID, b.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, first.ID, open.ID)

	require.NoError(t, repo.MarkReturned(ctx, first.ID, now))

	open, err = repo.FindOpen(ctx, u.ID, b.ID)
	require.NoError(t, err)
	assert.Nil(t, open)
	assert.NoError(t, repo.Create(ctx, borrow.NewBorrow(u.ID, b.ID, due, now)))
}

func TestBorrowRepository_MarkReturned(t *testing.T) {
	db := mysqltest.New(t)
	books := mysql.NewBookRepository(db)
	users := mysql.NewUserRepository(db)
	repo := mysql.NewBorrowRepository(db)
	ctx := context.Background()

	b := newBook(t, books, "归还", 1)
	u := newUser(t, users, "bob")
	now := time.Now().UTC().Truncate(time.Second)

	record := borrow.NewBorrow(u.ID, b.ID, now.Add(time.Hour), now)
	require.NoError(t, repo.Create(ctx, record))

	returnedAt := now.Add(2 * time.Hour)
	require.NoError(t, repo.MarkReturned(ctx, record.ID, returnedAt))
	assert.ErrorIs(t, repo.MarkReturned(ctx, record.ID, returnedAt), borrow.ErrAlreadyReturned)
	assert.ErrorIs(t, repo.MarkReturned(ctx, 9999, returnedAt), borrow.ErrBorrowNotFound)

	got, err := repo.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.True(t, got.IsReturn)
	require.NotNil(t, got.ReturnedAt)
	assert.WithinDuration(t, returnedAt, *got.ReturnedAt, time.Second)
	require.NotNil(t, got.Book)
	assert.Equal(t, "归还", got.Book.Name)
	require.NotNil(t, got.User)
	assert.Equal(t, "bob", got.User.Username)

	count, err := repo.CountOpenByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBorrowRepository_List(t *testing.T) {
	db := mysqltest.New(t)
	books := mysql.NewBookRepository(db)
	users := mysql.NewUserRepository(db)
	repo := mysql.NewBorrowRepository(db)
	ctx := context.Background()

	alice := newUser(t, users, "alice")
	bob := newUser(t, users, "bob")
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	var ids []uint
	for i := 0; i < 3; i++ {
		b := newBook(t, books, fmt.Sprintf("书%d", i), 1)
		r := borrow.NewBorrow(alice.ID, b.ID, base.AddDate(0, 1, 0), base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Create(ctx, r))
		ids = append(ids, r.ID)
	}
	other := newBook(t, books, "别人的书", 1)
	require.NoError(t, repo.Create(ctx, borrow.NewBorrow(bob.ID, other.ID, base.AddDate(0, 1, 0), base)))
	require.NoError(t, repo.MarkReturned(ctx, ids[0], base.Add(24*time.Hour)))

	list, total, err := repo.List(ctx, borrow.ListParams{UserID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 3)
	assert.Equal(t, []uint{ids[2], ids[1], ids[0]}, []uint{list[0].ID, list[1].ID, list[2].ID})

	open := false
	list, total, err = repo.List(ctx, borrow.ListParams{UserID: alice.ID, IsReturn: &open})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	_, total, err = repo.List(ctx, borrow.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	count, err := repo.CountOpenByBook(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	active, err := repo.ListOpenByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, []uint{ids[2], ids[1]}, []uint{active[0].ID, active[1].ID})
	require.NotNil(t, active[0].Book)
	assert.Equal(t, "书2", active[0].Book.Name)
}

func TestProfileRepository_CreateIfAbsentIsIdempotent(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewProfileRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateIfAbsent(ctx, profile.New(1, 2)))
	require.NoError(t, repo.CreateIfAbsent(ctx, profile.New(1, 5)))

	p, err := repo.FindByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, p.BorrowLimit)
	assert.Zero(t, p.Warning)

	var count int64
	require.NoError(t, db.Model(&mysql.ProfileModel{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.IncrWarning(ctx, 1))
	require.NoError(t, repo.IncrWarning(ctx, 1))
	p, err = repo.LockByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Warning)

	assert.ErrorIs(t, repo.IncrWarning(ctx, 42), profile.ErrProfileNotFound)

	sum, err := repo.SumWarnings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum)
}

func TestProfileRepository_ZeroLimitIsKept(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewProfileRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateIfAbsent(ctx, profile.New(7, 0)))
	p, err := repo.FindByUserID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, p.BorrowLimit)
}

func TestTxManager_RollbackOnError(t *testing.T) {
	db := mysqltest.New(t)
	tx := mysql.NewTxManager(db)
	books := mysql.NewBookRepository(db)
	ctx := context.Background()

	b := newBook(t, books, "回滚", 1)
	boom := errors.New("boom")

	err := tx.Transaction(ctx, func(ctx context.Context) error {
		if err := books.ReserveCopy(ctx, b.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := books.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopy)
}

func TestUserRepository_Duplicates(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewUserRepository(db)
	ctx := context.Background()

	newUser(t, repo, "carol")

	err := repo.Create(ctx, user.NewUser("carol", "other@example.com", "x"))
	assert.ErrorIs(t, err, apperrors.ErrUsernameDuplicate)

	err = repo.Create(ctx, user.NewUser("carol2", "carol@example.com", "x"))
	assert.ErrorIs(t, err, apperrors.ErrEmailDuplicate)
}

func TestCategoryRepository(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewCategoryRepository(db)
	ctx := context.Background()

	for _, name := range []string{"历史", "计算机", "哲学"} {
		c, err := category.NewCategory(name)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, c))
	}

	dup, _ := category.NewCategory("历史")
	assert.ErrorIs(t, repo.Create(ctx, dup), category.ErrCategoryDuplicate)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)

	ok, err := repo.ExistAll(ctx, []uint{list[0].ID, list[1].ID, list[0].ID})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistAll(ctx, []uint{list[0].ID, 999})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Delete(ctx, list[0].ID))
	assert.ErrorIs(t, repo.Delete(ctx, list[0].ID), category.ErrCategoryNotFound)
}

func TestStatsRepository_Library(t *testing.T) {
	db := mysqltest.New(t)
	books := mysql.NewBookRepository(db)
	users := mysql.NewUserRepository(db)
	borrows := mysql.NewBorrowRepository(db)
	statsRepo := mysql.NewStatsRepository(db)
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	hot := newBook(t, books, "热门", 5)
	cold := newBook(t, books, "冷门", 0)

	var readers []*user.User
	for i := 0; i < 3; i++ {
		readers = append(readers, newUser(t, users, fmt.Sprintf("reader%d", i)))
	}
	for i, u := range readers {
		due := now.AddDate(0, 0, 7)
		if i == 0 {
			due = now.AddDate(0, 0, -1)
		}
		require.NoError(t, borrows.Create(ctx, borrow.NewBorrow(u.ID, hot.ID, due, now.AddDate(0, 0, -10))))
	}
	r := borrow.NewBorrow(readers[1].ID, cold.ID, now.AddDate(0, 0, 7), now.AddDate(0, 0, -2))
	require.NoError(t, borrows.Create(ctx, r))
	require.NoError(t, borrows.MarkReturned(ctx, r.ID, now))

	s, err := statsRepo.Library(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.TotalBooks)
	assert.Equal(t, int64(1), s.AvailableBooks)
	assert.Equal(t, int64(1), s.UnavailableBooks)
	assert.Equal(t, int64(4), s.TotalBorrows)
	assert.Equal(t, int64(3), s.ActiveBorrows)
	assert.Equal(t, int64(1), s.ReturnedBorrows)
	assert.Equal(t, int64(1), s.OverdueBorrows)
	assert.Equal(t, int64(3), s.TotalUsers)
	require.Len(t, s.PopularBooks, 2)
	assert.Equal(t, hot.ID, s.PopularBooks[0].BookID)
	assert.Equal(t, int64(3), s.PopularBooks[0].BorrowCount)

	counts, err := statsRepo.UserBorrowCounts(ctx, readers[1].ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Total)
	assert.Equal(t, int64(1), counts.Active)
	assert.Equal(t, int64(1), counts.Returned)
	assert.Zero(t, counts.Overdue)

	counts, err = statsRepo.UserBorrowCounts(ctx, readers[0].ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Overdue)
}
