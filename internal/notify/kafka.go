package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig contains configurable parameters for the Kafka notifier.
type KafkaConfig struct {
	// Brokers is the list of Kafka broker addresses (host:port).
	Brokers []string

	// Topic is the topic report events are written to.
	Topic string

	// MaxAttempts is how many times a publish is retried on transient error.
	// Defaults to 3 if <= 0.
	MaxAttempts int

	// WriteTimeout is the per-attempt timeout for Write operations.
	// Defaults to 10s if zero.
	WriteTimeout time.Duration

	// Balancer decides partition selection. If nil, a Hash balancer is used
	// so events for the same filename land on the same partition.
	Balancer kafka.Balancer
}

// fileEvent is the message body published for each delivered artifact. The
// payload travels base64-encoded so CSV bytes survive JSON transport intact.
type fileEvent struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Message     string `json:"message,omitempty"`
	SizeBytes   int    `json:"sizeBytes"`
	Payload     string `json:"payload"`
	SentAt      string `json:"sentAt"`
}

// KafkaNotifier publishes report artifacts to a Kafka topic, one message per
// file, keyed by filename.
type KafkaNotifier struct {
	writer      *kafka.Writer
	maxAttempts int
}

func NewKafkaNotifier(cfg KafkaConfig) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.Balancer == nil {
		cfg.Balancer = &kafka.Hash{}
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     cfg.Balancer,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		// Async=false ensures WriteMessages returns only after the message was
		// acknowledged by the writer pipeline (within WriteTimeout).
		Async: false,
	})

	return &KafkaNotifier{
		writer:      w,
		maxAttempts: cfg.MaxAttempts,
	}, nil
}

func (n *KafkaNotifier) SendFile(ctx context.Context, filename string, payload []byte, message string) error {
	value, err := json.Marshal(fileEvent{
		Filename:    filename,
		ContentType: attachmentType(filename),
		Message:     message,
		SizeBytes:   len(payload),
		Payload:     base64.StdEncoding.EncodeToString(payload),
		SentAt:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal file event: %w", err)
	}

	var lastErr error
	backoff := 100 * time.Millisecond

	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		msg := kafka.Message{
			Key:   []byte(filename),
			Value: value,
			Time:  time.Now().UTC(),
		}

		// Per-attempt context with timeout to avoid indefinite hangs.
		ctxAttempt, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := n.writer.WriteMessages(ctxAttempt, msg)
		cancel()

		if err == nil {
			return nil
		}

		lastErr = err
		time.Sleep(backoff)
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}

	return fmt.Errorf("publish %s failed after %d attempts: %w", filename, n.maxAttempts, lastErr)
}

// Close shuts down the underlying writer and releases resources.
func (n *KafkaNotifier) Close() error {
	if n == nil || n.writer == nil {
		return nil
	}
	return n.writer.Close()
}
