package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/assetvault/pkg/configs"
	"github.com/yeisme/assetvault/pkg/internal/storage/mq"
	"github.com/yeisme/assetvault/pkg/log"
	"github.com/yeisme/assetvault/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "inspect the asset event bus",
		Aliases: []string{"events"},
	}

	mqTypesCmd = &cobra.Command{
		Use:     "types",
		Short:   "list compiled-in event bus backends",
		Aliases: []string{"list", "ls"},
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range mq.GetRegisteredTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}

	mqTopicsCmd = &cobra.Command{
		Use:   "topics",
		Short: "list the event topics published by the server",
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range queue.AllTopics() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}

	mqTailCmd = &cobra.Command{
		Use:   "tail [TOPIC...]",
		Short: "print events from a running server until interrupted",
		Long: "Subscribes to the configured event bus and prints one line per event.\n" +
			"Without arguments every asset topic is followed. The gochannel backend\n" +
			"is in-process only, so tail needs nats or redis.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if cfg.MQ.Type == configs.MQTypeGoChannel {
				return fmt.Errorf("mq tail: %s backend is not shared between processes", cfg.MQ.Type)
			}

			topics := args
			if len(topics) == 0 {
				topics = queue.AllTopics()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Init(cfg)

			client, err := mq.New(ctx, cfg.MQ, mq.WithLogger(log.Component("mq")))
			if err != nil {
				return err
			}
			defer client.Close()

			return tail(ctx, cmd, client, topics)
		},
	}
)

func tail(ctx context.Context, cmd *cobra.Command, client *mq.Client, topics []string) error {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out = cmd.OutOrStdout()
	)

	for _, topic := range topics {
		ch, err := client.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			for msg := range ch {
				ev, err := queue.ParseWatermillMessage[map[string]any](msg)

				mu.Lock()
				if err != nil {
					fmt.Fprintf(out, "%s\t<undecodable: %v>\n", topic, err)
				} else {
					fmt.Fprintf(out, "%s\t%s\t%s\t%v\n",
						ev.Header.OccurredAt.Format("15:04:05.000"), topic, msg.UUID, ev.Payload)
				}
				mu.Unlock()

				msg.Ack()
			}
		}()
	}

	wg.Wait()

	return nil
}

func registerMQCommands() {
	mqCmd.AddCommand(mqTypesCmd, mqTopicsCmd, mqTailCmd)
	rootCmd.AddCommand(mqCmd)
}
