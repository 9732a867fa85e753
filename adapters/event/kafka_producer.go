package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/profile-service/internal/application/service"
	"github.com/khoahotran/profile-service/internal/config"
	"github.com/khoahotran/profile-service/pkg/logger"
)

const (
	TopicProfileEvents = "profile.events"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducerClient struct {
	ProfileEventsWriter messageWriter
	logger              logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	profileWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicProfileEvents,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}

	log.Info("Initialize Kafka Producers successfully.", zap.Strings("brokers", brokers))

	return &KafkaProducerClient{
		ProfileEventsWriter: profileWriter,
		logger:              log,
	}, nil
}

// PublishProfileEvent keys messages by profile id so events for one profile
// stay ordered within a partition.
func (c *KafkaProducerClient) PublishProfileEvent(ctx context.Context, evt service.ProfileEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal profile event failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.Profile.ID, 10)),
		Value: value,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.EventType)},
		},
	}

	if err := c.ProfileEventsWriter.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write profile event failed: %w", err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.ProfileEventsWriter != nil {
		if err := c.ProfileEventsWriter.Close(); err != nil {
			c.logger.Error("Failed to close Kafka writer", err)
		}
	}
	c.logger.Info("Closed Kafka Producers")
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishProfileEvent(ctx context.Context, evt service.ProfileEvent) error {
	return nil
}

// DecodeProfileEvent parses a message written by PublishProfileEvent.
func DecodeProfileEvent(msg kafka.Message) (service.ProfileEvent, error) {
	var evt service.ProfileEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return evt, fmt.Errorf("unmarshal profile event failed: %w", err)
	}
	return evt, nil
}
