package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/trogers1052/trade-journal/internal/kafka"
	"go.uber.org/zap"
)

func newAuditCmd(opts *rootOptions) *cobra.Command {
	var groupID string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Tail journal events from Kafka and log them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			if !cfg.Kafka.Enabled() {
				return errors.New("KAFKA_BROKERS must be set")
			}
			if groupID == "" {
				groupID = cfg.Kafka.GroupID
			}

			consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, groupID, kafka.LogHandler{Logger: log}, log)
			defer consumer.Close()

			log.Info("Auditing journal events",
				zap.Strings("brokers", cfg.Kafka.Brokers),
				zap.String("topic", cfg.Kafka.Topic),
				zap.String("group_id", groupID))
			return consumer.Start(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&groupID, "group", "", "consumer group id (default from KAFKA_GROUP_ID)")

	return cmd
}
