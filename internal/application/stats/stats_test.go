package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appstats "github.com/xiebiao/library/internal/application/stats"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/profile"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql/mysqltest"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
)

func TestStatsUseCase(t *testing.T) {
	db := mysqltest.New(t)
	ctx := context.Background()

	books := mysql.NewBookRepository(db)
	borrows := mysql.NewBorrowRepository(db)
	users := mysql.NewUserRepository(db)
	profiles := mysql.NewProfileRepository(db)
	policy := profile.NewPolicy(profiles, profile.DefaultBorrowLimit)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := redis.NewStatsCache(client)

	b, err := book.NewBook("数据密集型应用系统设计", "9787519817043", 12800, true, time.Now(), 2, "", "", nil)
	require.NoError(t, err)
	require.NoError(t, books.Create(ctx, b))

	u := user.NewUser("alice", "alice@example.com", "hashed")
	require.NoError(t, users.Create(ctx, u))
	require.NoError(t, profiles.CreateIfAbsent(ctx, profile.New(u.ID, 3)))

	past := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, borrows.Create(ctx, borrow.NewBorrow(u.ID, b.ID, past.Add(24*time.Hour), past)))
	require.NoError(t, books.ReserveCopy(ctx, b.ID))

	uc := appstats.NewStatsUseCase(mysql.NewStatsRepository(db), cache, policy, time.Minute)

	t.Run("读者统计", func(t *testing.T) {
		got, err := uc.User(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.TotalBorrows)
		assert.Equal(t, int64(1), got.ActiveBorrows)
		assert.Equal(t, int64(1), got.OverdueBorrows)
		assert.Equal(t, 3, got.BorrowLimit)
		assert.Equal(t, 2, got.RemainingLimit)
		assert.Equal(t, 0, got.Warning)
	})

	t.Run("没有档案的读者按默认值统计", func(t *testing.T) {
		other := user.NewUser("bob", "bob@example.com", "hashed")
		require.NoError(t, users.Create(ctx, other))

		got, err := uc.User(ctx, other.ID)
		require.NoError(t, err)
		assert.Zero(t, got.TotalBorrows)
		assert.Equal(t, profile.DefaultBorrowLimit, got.RemainingLimit)
	})

	t.Run("全馆统计走缓存", func(t *testing.T) {
		first, err := uc.Library(ctx)
		require.NoError(t, err)
		assert.False(t, first.Cached)
		assert.Equal(t, int64(1), first.TotalBooks)
		assert.Equal(t, int64(1), first.ActiveBorrows)
		require.Len(t, first.PopularBooks, 1)
		assert.Equal(t, b.ID, first.PopularBooks[0].BookID)
		assert.True(t, mr.Exists("library:stats:library"))

		second, err := uc.Library(ctx)
		require.NoError(t, err)
		assert.True(t, second.Cached)
		assert.Equal(t, first.TotalBorrows, second.TotalBorrows)

		require.NoError(t, cache.Invalidate(ctx))
		third, err := uc.Library(ctx)
		require.NoError(t, err)
		assert.False(t, third.Cached)
	})

	t.Run("缓存不可用时降级查库", func(t *testing.T) {
		mr.Close()
		got, err := uc.Library(ctx)
		require.NoError(t, err)
		assert.False(t, got.Cached)
		assert.Equal(t, int64(2), got.TotalUsers)
	})
}
