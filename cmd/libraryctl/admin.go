package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/profile"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
)

// adminOpener 打开数据库并构造运维用例，返回的close用于释放连接
type adminOpener func(ctx context.Context) (*appuser.AdminUseCase, func(), error)

func dbAdmin(cfg *config.Config) adminOpener {
	return func(ctx context.Context) (*appuser.AdminUseCase, func(), error) {
		db, err := mysql.NewDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		profileRepo := mysql.NewProfileRepository(db)
		uc := appuser.NewAdminUseCase(
			mysql.NewTxManager(db),
			mysql.NewUserRepository(db),
			profileRepo,
			profile.NewPolicy(profileRepo, cfg.Borrow.DefaultLimit),
		)
		return uc, closeDB, nil
	}
}

func newPromoteCmd(open adminOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <username>",
		Short: "授予管理员权限",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			info, err := uc.Promote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s (id=%d) is_admin=%t\n", info.Username, info.ID, info.IsAdmin)
			return nil
		},
	}
}

func newSetLimitCmd(open adminOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "set-limit <username> <n>",
		Short: "调整借阅上限",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("借阅上限必须是整数: %q", args[1])
			}

			uc, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := uc.SetBorrowLimit(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s borrow_limit=%d warning=%d\n", args[0], p.BorrowLimit, p.Warning)
			return nil
		},
	}
}
