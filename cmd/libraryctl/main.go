// libraryctl 运维命令行
//
//	libraryctl promote alice
//	libraryctl set-limit alice 10
//	libraryctl events tail --queue audit
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir string
	cfg := &config.Config{}

	root := &cobra.Command{
		Use:           "libraryctl",
		Short:         "图书借阅服务运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadFrom(configDir, ".")
			if err != nil {
				return err
			}
			lg, err := logger.New(loaded.Log.LoggerOptions())
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(lg)
			*cfg = *loaded
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configDir, "config", "./config", "配置文件目录")

	admin := dbAdmin(cfg)
	root.AddCommand(
		newPromoteCmd(admin),
		newSetLimitCmd(admin),
		newEventsCmd(cfg),
	)
	return root
}
