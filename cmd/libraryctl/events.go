package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiebiao/library/internal/domain/borrow"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/event"
	"github.com/xiebiao/library/pkg/mq"
)

func newEventsCmd(cfg *config.Config) *cobra.Command {
	events := &cobra.Command{
		Use:   "events",
		Short: "借阅事件",
	}

	var queue string
	var keys []string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "订阅并打印借阅事件,Ctrl+C退出",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.MQ.Enabled {
				return fmt.Errorf("mq未启用,请设置mq.enabled=true")
			}
			consumer, err := mq.NewConsumer(cfg.MQ.URL, cfg.MQ.Exchange, mq.ExchangeTopic, queue, keys)
			if err != nil {
				return err
			}
			defer consumer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "listening on queue %s\n", consumer.Queue())
			return consumer.Consume(ctx, printEvents(cmd.OutOrStdout()))
		},
	}
	// 不指定队列时使用临时队列，退出即删除
	tail.Flags().StringVar(&queue, "queue", "", "持久队列名")
	tail.Flags().StringSliceVar(&keys, "key", []string{"borrow.*"}, "路由键")

	events.AddCommand(tail)
	return events
}

// printEvents 每条事件输出一行，无法解析的消息只打印不重新入队
func printEvents(w io.Writer) mq.Handler {
	return func(_ context.Context, msg mq.Message) error {
		e, err := event.Decode(msg)
		if err != nil {
			fmt.Fprintf(w, "%s\tinvalid\t%s\n", msg.RoutingKey, err)
			return nil
		}
		fmt.Fprintln(w, formatEvent(e))
		return nil
	}
}

func formatEvent(e borrow.Event) string {
	line := fmt.Sprintf("%s\t%s\tborrow=%d user=%d book=%d due=%s",
		e.OccurredAt.Format(time.RFC3339), e.Type, e.BorrowID, e.UserID, e.BookID, e.DueDate.Format(time.DateOnly))
	if e.Late {
		line += " late"
	}
	return line
}
