/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nova-jack/novafusion/internal/mq"
	"github.com/nova-jack/novafusion/types"
)

// notifyCmd consumes enquiry events published by the server.
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Consume enquiry events and log a notification for each",
	Long: `Subscribes to the enquiry topic on the configured broker (MQ_BACKEND)
and writes one structured log line per new enquiry. Usage:

	novafusion notify
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}

		broker, err := mq.New(cmd.Context(), cfg.MQ)
		if err != nil {
			return fmt.Errorf("connecting to broker: %w", err)
		}
		if broker == nil {
			return errors.New("notify needs MQ_BACKEND to be set")
		}
		defer broker.Close()

		topic := cfg.MQ.EnquiryTopic
		logger.Info().Str("topic", topic).Str("backend", cfg.MQ.Backend).Msg("waiting for enquiries")

		err = broker.Subscribe(cmd.Context(), topic, func(ctx context.Context, msg mq.Message) error {
			var event types.EnquiryEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				logger.Error().Err(err).Str("message_id", msg.ID).Msg("discarding malformed enquiry event")
				return mq.Discard(err)
			}
			logger.Info().
				Str("message_id", msg.ID).
				Str("enquiry_id", event.ID).
				Str("name", event.Name).
				Str("email", event.Email).
				Str("service", event.Service).
				Str("source", event.Source).
				Time("created_at", event.CreatedAt).
				Msg("new enquiry")
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}
