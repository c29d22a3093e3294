package profile

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu       sync.Mutex
	profiles map[uint]*Profile
	creates  int
}

func newMemRepo() *memRepo {
	return &memRepo{profiles: make(map[uint]*Profile)}
}

func (m *memRepo) CreateIfAbsent(_ context.Context, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.UserID]; ok {
		return nil
	}
	m.creates++
	cp := *p
	cp.ID = uint(len(m.profiles) + 1)
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *memRepo) LockByUserID(ctx context.Context, userID uint) (*Profile, error) {
	return m.FindByUserID(ctx, userID)
}

func (m *memRepo) FindByUserID(_ context.Context, userID uint) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) Update(_ context.Context, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *memRepo) IncrWarning(_ context.Context, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return ErrProfileNotFound
	}
	p.Warning++
	return nil
}

func (m *memRepo) SumWarnings(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, p := range m.profiles {
		sum += int64(p.Warning)
	}
	return sum, nil
}

func TestCanBorrow(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		open  int64
		want  bool
	}{
		{"未达上限", 2, 1, true},
		{"恰好达到上限", 2, 2, false},
		{"超过上限", 2, 3, false},
		{"上限为0", 0, 0, false},
		{"无未还记录", 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{BorrowLimit: tt.limit}
			assert.Equal(t, tt.want, p.CanBorrow(tt.open))
		})
	}
}

func TestRemaining(t *testing.T) {
	p := &Profile{BorrowLimit: 2}
	assert.Equal(t, 2, p.Remaining(0))
	assert.Equal(t, 0, p.Remaining(2))
	assert.Equal(t, 0, p.Remaining(5))
}

func TestPolicy_EnsureIsIdempotent(t *testing.T) {
	repo := newMemRepo()
	policy := NewPolicy(repo, DefaultBorrowLimit)
	ctx := context.Background()

	p, err := policy.Ensure(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, DefaultBorrowLimit, p.BorrowLimit)
	assert.Equal(t, 0, p.Warning)

	p.UpdateContact("Main St 1", "555-0100")
	require.NoError(t, repo.Update(ctx, p))

	again, err := policy.Ensure(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Main St 1", again.Address)
	assert.Equal(t, 1, repo.creates)
}

func TestPolicy_RecordLateReturn(t *testing.T) {
	repo := newMemRepo()
	policy := NewPolicy(repo, 3)
	ctx := context.Background()

	_, err := policy.Ensure(ctx, 1)
	require.NoError(t, err)

	p, err := policy.RecordLateReturn(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Warning)

	p, err = policy.RecordLateReturn(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Warning)

	// 警告不影响借阅资格
	assert.True(t, policy.CanBorrow(p, 0))
}

func TestSetBorrowLimit(t *testing.T) {
	p := New(1, DefaultBorrowLimit)
	require.NoError(t, p.SetBorrowLimit(0))
	assert.False(t, p.CanBorrow(0))
	assert.ErrorIs(t, p.SetBorrowLimit(-1), ErrInvalidLimit)
}
