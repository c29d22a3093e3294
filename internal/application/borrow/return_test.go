package borrow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appborrow "github.com/xiebiao/library/internal/application/borrow"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/profile"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// borrowOne 以baseTime借出一本书，应还日期为due
func borrowOne(t *testing.T, f *fixture, userID, bookID uint, due time.Time) *appborrow.BorrowDTO {
	t.Helper()
	got, err := f.borrowUC().Execute(context.Background(), appborrow.BorrowBookRequest{
		UserID: userID, BookID: bookID, DueDate: due,
	})
	require.NoError(t, err)
	return got
}

func TestReturnBook_OnTime(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1)
	u := f.reader(t, "alice", 2)
	due := baseTime.Add(7 * 24 * time.Hour)
	rec := borrowOne(t, f, u.ID, b.ID, due)

	// 恰好在应还时刻归还不算逾期
	f.now = due
	got, err := f.returnUC().Execute(context.Background(), appborrow.ReturnBookRequest{
		Actor:    borrow.Actor{UserID: u.ID},
		BorrowID: rec.ID,
	})
	require.NoError(t, err)
	assert.False(t, got.Late)
	assert.Equal(t, 0, got.Warning)
	assert.True(t, got.Borrow.IsReturn)
	require.NotNil(t, got.Borrow.ReturnedAt)
	assert.True(t, due.Equal(*got.Borrow.ReturnedAt))
	require.NotNil(t, got.Borrow.Book)
	assert.Equal(t, b.Name, got.Borrow.Book.Name)

	assert.Equal(t, 1, f.available(t, b.ID))
	assert.Equal(t, 0, f.warning(t, u.ID))
	assert.Equal(t, []string{borrow.EventBorrowed, borrow.EventReturned}, f.events.types())
	assert.Equal(t, 2, f.cache.invalidated)
}

func TestReturnBook_Late(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1)
	u := f.reader(t, "bob", 2)
	due := baseTime.Add(24 * time.Hour)
	rec := borrowOne(t, f, u.ID, b.ID, due)

	f.now = due.Add(time.Second)
	got, err := f.returnUC().Execute(context.Background(), appborrow.ReturnBookRequest{
		Actor:    borrow.Actor{UserID: u.ID},
		BorrowID: rec.ID,
	})
	require.NoError(t, err)
	assert.True(t, got.Late)
	assert.Equal(t, 1, got.Warning)
	assert.True(t, got.Borrow.IsReturn)
	assert.Equal(t, 1, f.available(t, b.ID))
	assert.Equal(t, 1, f.warning(t, u.ID))

	f.events.mu.Lock()
	last := f.events.events[len(f.events.events)-1]
	f.events.mu.Unlock()
	assert.Equal(t, borrow.EventReturned, last.Type)
	assert.True(t, last.Late)

	// 警告不影响后续借阅
	f.now = baseTime.Add(48 * time.Hour)
	borrowOne(t, f, u.ID, b.ID, f.now.Add(time.Hour))
}

func TestReturnBook_Forbidden(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1)
	owner := f.reader(t, "carol", 2)
	other := f.reader(t, "dave", 2)
	rec := borrowOne(t, f, owner.ID, b.ID, baseTime.Add(-time.Hour))

	f.now = baseTime.Add(time.Hour)
	_, err := f.returnUC().Execute(context.Background(), appborrow.ReturnBookRequest{
		Actor:    borrow.Actor{UserID: other.ID},
		BorrowID: rec.ID,
	})
	assert.ErrorIs(t, err, borrow.ErrForbidden)

	got, err := f.borrows.FindByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.False(t, got.IsReturn)
	assert.Equal(t, 0, f.available(t, b.ID))
	assert.Equal(t, 0, f.warning(t, owner.ID))
}

func TestReturnBook_AdminOnBehalf(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1)
	owner := f.reader(t, "erin", 2)
	admin := f.reader(t, "root", 2)
	rec := borrowOne(t, f, owner.ID, b.ID, baseTime.Add(-time.Hour))

	f.now = baseTime.Add(time.Hour)
	got, err := f.returnUC().Execute(context.Background(), appborrow.ReturnBookRequest{
		Actor:    borrow.Actor{UserID: admin.ID, IsAdmin: true},
		BorrowID: rec.ID,
	})
	require.NoError(t, err)
	assert.True(t, got.Late)
	// 警告记在借阅人名下
	assert.Equal(t, 1, f.warning(t, owner.ID))
	assert.Equal(t, 0, f.warning(t, admin.ID))
}

func TestReturnBook_Idempotence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, 1)
	u := f.reader(t, "frank", 2)
	rec := borrowOne(t, f, u.ID, b.ID, baseTime.Add(time.Hour))
	req := appborrow.ReturnBookRequest{Actor: borrow.Actor{UserID: u.ID}, BorrowID: rec.ID}

	_, err := f.returnUC().Execute(ctx, req)
	require.NoError(t, err)

	_, err = f.returnUC().Execute(ctx, req)
	assert.ErrorIs(t, err, borrow.ErrAlreadyReturned)
	assert.Equal(t, 1, f.available(t, b.ID))

	_, err = f.returnUC().Execute(ctx, appborrow.ReturnBookRequest{Actor: borrow.Actor{UserID: u.ID}, BorrowID: 999})
	assert.ErrorIs(t, err, borrow.ErrBorrowNotFound)
}

// failingBooks 归还副本时失败
type failingBooks struct {
	book.Repository
}

func (failingBooks) ReleaseCopy(context.Context, uint) error {
	return apperrors.Wrap(errors.New("connection reset"), "归还副本失败")
}

// failingProfiles 记录逾期警告时失败
type failingProfiles struct {
	profile.Repository
}

func (failingProfiles) IncrWarning(context.Context, uint) error {
	return apperrors.Wrap(errors.New("lock wait timeout"), "增加逾期警告失败")
}

func TestReturnBook_RollsBackOnPersistenceFailure(t *testing.T) {
	cases := []struct {
		name  string
		build func(f *fixture) *appborrow.ReturnBookUseCase
	}{
		{
			name: "归还副本失败",
			build: func(f *fixture) *appborrow.ReturnBookUseCase {
				return appborrow.NewReturnBookUseCase(f.tx, failingBooks{f.books}, f.borrows, f.policy, f.options()...)
			},
		},
		{
			name: "记录警告失败",
			build: func(f *fixture) *appborrow.ReturnBookUseCase {
				policy := profile.NewPolicy(failingProfiles{f.profiles}, profile.DefaultBorrowLimit)
				return appborrow.NewReturnBookUseCase(f.tx, f.books, f.borrows, policy, f.options()...)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			b := f.book(t, 1)
			u := f.reader(t, "hank", 2)
			// 已逾期，成功时会同时改动三张表
			rec := borrowOne(t, f, u.ID, b.ID, baseTime.Add(-time.Minute))
			f.now = baseTime.Add(time.Hour)

			_, err := tc.build(f).Execute(ctx, appborrow.ReturnBookRequest{
				Actor: borrow.Actor{UserID: u.ID}, BorrowID: rec.ID,
			})
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeInternal, apperrors.GetAppError(err).Code)

			got, err := f.borrows.FindByID(ctx, rec.ID)
			require.NoError(t, err)
			assert.False(t, got.IsReturn)
			assert.Nil(t, got.ReturnedAt)
			assert.Equal(t, 0, f.available(t, b.ID))
			assert.Equal(t, 0, f.warning(t, u.ID))

			// 只有借书时的事件与缓存失效
			assert.Equal(t, []string{borrow.EventBorrowed}, f.events.types())
			assert.Equal(t, 1, f.cache.invalidated)

			// 故障排除后可以正常归还
			res, err := f.returnUC().Execute(ctx, appborrow.ReturnBookRequest{
				Actor: borrow.Actor{UserID: u.ID}, BorrowID: rec.ID,
			})
			require.NoError(t, err)
			assert.True(t, res.Late)
			assert.Equal(t, 1, f.available(t, b.ID))
			assert.Equal(t, 1, f.warning(t, u.ID))
		})
	}
}

// 借出与归还成对出现：任意交替后库存回到初始值
func TestBorrowReturn_PairingRestoresInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, 2)
	readers := []uint{f.reader(t, "r1", 2).ID, f.reader(t, "r2", 2).ID}

	for round := 0; round < 3; round++ {
		var ids []uint
		for _, uid := range readers {
			ids = append(ids, borrowOne(t, f, uid, b.ID, f.now.Add(time.Hour)).ID)
		}
		assert.Equal(t, 0, f.available(t, b.ID))
		for i, id := range ids {
			_, err := f.returnUC().Execute(ctx, appborrow.ReturnBookRequest{
				Actor: borrow.Actor{UserID: readers[i]}, BorrowID: id,
			})
			require.NoError(t, err)
		}
		assert.Equal(t, 2, f.available(t, b.ID))
		f.now = f.now.Add(time.Minute)
	}
}

func TestQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b1, b2 := f.book(t, 2), f.book(t, 2)
	alice := f.reader(t, "alice", 3)
	bob := f.reader(t, "bob", 3)

	r1 := borrowOne(t, f, alice.ID, b1.ID, baseTime.Add(-time.Hour))
	f.now = baseTime.Add(time.Minute)
	borrowOne(t, f, alice.ID, b2.ID, baseTime.Add(48*time.Hour))
	r3 := borrowOne(t, f, bob.ID, b1.ID, baseTime.Add(48*time.Hour))
	_, err := f.returnUC().Execute(ctx, appborrow.ReturnBookRequest{Actor: borrow.Actor{UserID: bob.ID}, BorrowID: r3.ID})
	require.NoError(t, err)

	q := appborrow.NewQueryUseCase(f.borrows)

	t.Run("普通读者只能看到自己的记录", func(t *testing.T) {
		res, err := q.List(ctx, appborrow.ListRequest{Actor: borrow.Actor{UserID: alice.ID}, UserID: bob.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.Total)
		for _, item := range res.List {
			assert.Equal(t, alice.ID, item.UserID)
		}
	})

	t.Run("管理员可以查看全部并按状态过滤", func(t *testing.T) {
		admin := borrow.Actor{UserID: 999, IsAdmin: true}
		res, err := q.List(ctx, appborrow.ListRequest{Actor: admin})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Total)

		returned := true
		res, err = q.List(ctx, appborrow.ListRequest{Actor: admin, IsReturn: &returned})
		require.NoError(t, err)
		require.Len(t, res.List, 1)
		assert.Equal(t, r3.ID, res.List[0].ID)
		assert.Equal(t, "已归还", res.List[0].Status)
	})

	t.Run("详情权限", func(t *testing.T) {
		got, err := q.Get(ctx, borrow.Actor{UserID: alice.ID}, r1.ID)
		require.NoError(t, err)
		assert.True(t, got.Overdue)
		require.NotNil(t, got.User)
		assert.Equal(t, "alice", got.User.Username)

		_, err = q.Get(ctx, borrow.Actor{UserID: bob.ID}, r1.ID)
		assert.ErrorIs(t, err, borrow.ErrForbidden)
	})

	t.Run("当前借阅", func(t *testing.T) {
		active, err := q.MyActive(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, active, 2)

		active, err = q.MyActive(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, active)
	})
}

// 上限调高后当前借阅不能被分页截断
func TestQuery_MyActiveBeyondOnePage(t *testing.T) {
	const open = 105
	f := newFixture(t)
	u := f.reader(t, "scholar", open)
	for i := 0; i < open; i++ {
		borrowOne(t, f, u.ID, f.book(t, 1).ID, baseTime.Add(time.Hour))
	}

	active, err := appborrow.NewQueryUseCase(f.borrows).MyActive(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Len(t, active, open)
	for _, item := range active {
		require.NotNil(t, item.Book)
	}
}
