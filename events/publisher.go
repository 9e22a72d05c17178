package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	aws_pkg "restaurant-service/pkg/aws"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status_changed"
)

// Publisher delivers domain events to a message backend.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                               { return nil }

// SNSPublisher publishes JSON events to a single SNS topic.
type SNSPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
}

func NewSNSPublisher(client aws_pkg.SNSPublisher, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) Publish(ctx context.Context, _ string, event any) error {
	data, eventType, err := encode(event)
	if err != nil {
		return err
	}
	var attrs map[string]string
	if eventType != "" {
		attrs = map[string]string{"event_type": eventType}
	}
	return p.client.Publish(ctx, p.topicArn, data, attrs)
}

func (p *SNSPublisher) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaBatchTimeout bounds how long a synchronous write waits for a batch to fill.
const kafkaBatchTimeout = 10 * time.Millisecond

// KafkaPublisher writes JSON events to one topic, keyed by order id.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           kafkaBatchTimeout,
		AllowAutoTopicCreation: true,
	}
	logger.Info("Kafka producer initialized", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &KafkaPublisher{writer: w, topic: topic, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, event any) error {
	data, eventType, err := encode(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{Key: []byte(key), Value: data}
	if eventType != "" {
		msg.Headers = []kafka.Header{{Key: "event_type", Value: []byte(eventType)}}
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka producer", zap.String("topic", p.topic))
	return p.writer.Close()
}

// encode marshals event and reads back its event_type field, if any.
func encode(event any) ([]byte, string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, "", fmt.Errorf("marshal event: %w", err)
	}
	var head struct {
		EventType string `json:"event_type"`
	}
	_ = json.Unmarshal(data, &head)
	return data, head.EventType, nil
}

// Options selects and configures a backend.
type Options struct {
	Backend      string
	SNSClient    aws_pkg.SNSPublisher
	SNSTopicArn  string
	KafkaBrokers string
	KafkaTopic   string
}

// New builds the Publisher named by opts.Backend.
func New(opts Options, logger *zap.Logger) (Publisher, error) {
	switch opts.Backend {
	case "", "none":
		return NoopPublisher{}, nil
	case "sns":
		if opts.SNSClient == nil || opts.SNSTopicArn == "" {
			return nil, fmt.Errorf("sns backend requires a client and topic ARN")
		}
		return NewSNSPublisher(opts.SNSClient, opts.SNSTopicArn), nil
	case "kafka":
		brokers := splitBrokers(opts.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, fmt.Errorf("kafka backend requires at least one broker")
		}
		return NewKafkaPublisher(brokers, opts.KafkaTopic, logger), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", opts.Backend)
	}
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
