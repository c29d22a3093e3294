package borrow_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appborrow "github.com/xiebiao/library/internal/application/borrow"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql/mysqltest"
)

// sharedFixture 多连接的文件库，并发事务真正在数据库层排队
func sharedFixture(t *testing.T) *fixture {
	return newFixtureOn(mysqltest.NewShared(t, 8))
}

func TestBorrowBook_Concurrent(t *testing.T) {
	runConcurrentBorrow(t, sharedFixture(t))
}

func TestBorrowBook_ConcurrentSamePair(t *testing.T) {
	runConcurrentSamePair(t, sharedFixture(t))
}

func TestReturnBook_ConcurrentReleasesOnce(t *testing.T) {
	runConcurrentReturn(t, sharedFixture(t))
}

// runConcurrentBorrow 12个读者同时借4本副本
func runConcurrentBorrow(t *testing.T, f *fixture) {
	const (
		readers = 12
		copies  = 4
	)
	b := f.book(t, copies)

	ids := make([]uint, readers)
	for i := range ids {
		ids[i] = f.reader(t, fmt.Sprintf("reader%02d", i), 2).ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		outOf     int
		others    []error
	)
	uc := f.borrowUC()
	start := make(chan struct{})
	for _, id := range ids {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			<-start
			_, err := uc.Execute(context.Background(), appborrow.BorrowBookRequest{
				UserID: userID, BookID: b.ID, DueDate: baseTime.Add(time.Hour),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, book.ErrOutOfStock):
				outOf++
			default:
				others = append(others, err)
			}
		}(id)
	}
	close(start)
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, copies, succeeded)
	assert.Equal(t, readers-copies, outOf)
	assert.Equal(t, 0, f.available(t, b.ID))

	open, err := f.borrows.CountOpenByBook(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(copies), open)
}

// runConcurrentSamePair 同一读者对同一本书并发借阅，只能成功一次
func runConcurrentSamePair(t *testing.T, f *fixture) {
	b := f.book(t, 10)
	u := f.reader(t, "jack", 10)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		others    []error
	)
	uc := f.borrowUC()
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := uc.Execute(context.Background(), appborrow.BorrowBookRequest{
				UserID: u.ID, BookID: b.ID, DueDate: baseTime.Add(time.Hour),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, borrow.ErrDuplicateBorrow):
			default:
				others = append(others, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(1), f.openCount(t, u.ID))
	assert.Equal(t, 9, f.available(t, b.ID))
}

// runConcurrentReturn 同一条记录并发归还，副本和警告只记一次
func runConcurrentReturn(t *testing.T, f *fixture) {
	b := f.book(t, 1)
	u := f.reader(t, "gina", 2)
	rec := borrowOne(t, f, u.ID, b.ID, baseTime.Add(-time.Minute))
	f.now = baseTime.Add(time.Hour)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		returned  int
		others    []error
	)
	uc := f.returnUC()
	start := make(chan struct{})
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := uc.Execute(context.Background(), appborrow.ReturnBookRequest{
				Actor: borrow.Actor{UserID: u.ID}, BorrowID: rec.ID,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, borrow.ErrAlreadyReturned):
				returned++
			default:
				others = append(others, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 5, returned)
	assert.Equal(t, 1, f.available(t, b.ID))
	assert.Equal(t, 1, f.warning(t, u.ID))
}

// staleBooks 锁定时拿到的是别的事务扣减之前的库存
type staleBooks struct {
	book.Repository
}

func (s staleBooks) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	b, err := s.Repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.AvailableCopy < 1 {
		b.AvailableCopy = 1
	}
	return b, nil
}

// 库存快照过期时，条件扣减仍然拒绝把副本扣成负数
func TestBorrowBook_StaleStockSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, 1)
	alice := f.reader(t, "alice", 2)
	bob := f.reader(t, "bob", 2)
	borrowOne(t, f, alice.ID, b.ID, baseTime.Add(time.Hour))

	uc := appborrow.NewBorrowBookUseCase(f.tx, staleBooks{f.books}, f.borrows, f.policy, f.options()...)
	_, err := uc.Execute(ctx, appborrow.BorrowBookRequest{UserID: bob.ID, BookID: b.ID, DueDate: baseTime.Add(time.Hour)})
	assert.ErrorIs(t, err, book.ErrOutOfStock)

	assert.Equal(t, 0, f.available(t, b.ID))
	assert.Equal(t, int64(0), f.openCount(t, bob.ID))
	assert.Equal(t, []string{borrow.EventBorrowed}, f.events.types())
}

// staleBorrows 锁定时拿到的是别的事务归还之前的记录
type staleBorrows struct {
	borrow.Repository
}

func (s staleBorrows) LockByID(ctx context.Context, id uint) (*borrow.Borrow, error) {
	r, err := s.Repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.IsReturn = false
	r.ReturnedAt = nil
	return r, nil
}

// 记录快照过期时，条件翻转阻止第二次归还副本
func TestReturnBook_StaleRecordSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, 1)
	u := f.reader(t, "kate", 2)
	rec := borrowOne(t, f, u.ID, b.ID, baseTime.Add(-time.Minute))
	f.now = baseTime.Add(time.Hour)

	req := appborrow.ReturnBookRequest{Actor: borrow.Actor{UserID: u.ID}, BorrowID: rec.ID}
	_, err := f.returnUC().Execute(ctx, req)
	require.NoError(t, err)

	uc := appborrow.NewReturnBookUseCase(f.tx, f.books, staleBorrows{f.borrows}, f.policy, f.options()...)
	_, err = uc.Execute(ctx, req)
	assert.ErrorIs(t, err, borrow.ErrAlreadyReturned)

	assert.Equal(t, 1, f.available(t, b.ID))
	assert.Equal(t, 1, f.warning(t, u.ID))
	assert.Equal(t, []string{borrow.EventBorrowed, borrow.EventReturned}, f.events.types())
}
