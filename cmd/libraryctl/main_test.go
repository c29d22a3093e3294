package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/domain/profile"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql/mysqltest"
	"github.com/xiebiao/library/pkg/mq"
)

func sqliteAdmin(t *testing.T) (adminOpener, user.Repository) {
	db := mysqltest.New(t)
	users := mysql.NewUserRepository(db)
	profiles := mysql.NewProfileRepository(db)
	uc := appuser.NewAdminUseCase(mysql.NewTxManager(db), users, profiles, profile.NewPolicy(profiles, 3))

	require.NoError(t, users.Create(context.Background(), user.NewUser("alice", "alice@example.com", "hashed")))
	return func(context.Context) (*appuser.AdminUseCase, func(), error) {
		return uc, func() {}, nil
	}, users
}

func TestPromoteCmd(t *testing.T) {
	open, users := sqliteAdmin(t)

	var out bytes.Buffer
	cmd := newPromoteCmd(open)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"alice"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "is_admin=true")

	u, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	cmd = newPromoteCmd(open)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"nobody"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestSetLimitCmd(t *testing.T) {
	open, _ := sqliteAdmin(t)

	var out bytes.Buffer
	cmd := newSetLimitCmd(open)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"alice", "7"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "borrow_limit=7")

	cmd = newSetLimitCmd(open)
	cmd.SetArgs([]string{"alice", "seven"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))

	cmd = newSetLimitCmd(open)
	cmd.SetArgs([]string{"alice", "-1"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestPrintEvents(t *testing.T) {
	var out bytes.Buffer
	handle := printEvents(&out)

	due := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	body := []byte(`{"id":"e1","type":"borrow.returned","borrow_id":9,"user_id":2,"book_id":5,"due_date":"2026-03-15T00:00:00Z","late":true,"occurred_at":"2026-03-16T08:00:00Z"}`)
	require.NoError(t, handle(context.Background(), mq.Message{RoutingKey: borrow.EventReturned, Body: body}))
	assert.Contains(t, out.String(), "borrow.returned\tborrow=9 user=2 book=5 due="+due.Format(time.DateOnly)+" late")

	out.Reset()
	require.NoError(t, handle(context.Background(), mq.Message{RoutingKey: "borrow.created", Body: []byte("{")}))
	assert.Contains(t, out.String(), "invalid")
}
