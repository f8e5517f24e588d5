package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/chrisdamba/dishrank/internal/models"
	"go.uber.org/zap"
)

// KafkaOutput publishes one message per ranked dish, keyed by zone so a
// zone's rankings stay ordered within a partition.
type KafkaOutput struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

func NewKafkaOutput(cfg models.KafkaConfig, logger *zap.Logger) (*KafkaOutput, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	brokerList := strings.Split(cfg.BrokerList, ",")
	producer, err := sarama.NewSyncProducer(brokerList, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	logger.Info("kafka producer created", zap.Strings("brokers", brokerList), zap.String("topic", cfg.Topic))
	return NewKafkaOutputWithProducer(producer, cfg.Topic, logger), nil
}

func NewKafkaOutputWithProducer(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaOutput {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaOutput{producer: producer, topic: topic, logger: logger}
}

func (k *KafkaOutput) WriteRanking(r Ranking) error {
	if k.producer == nil {
		return fmt.Errorf("kafka producer is closed")
	}
	topic := k.topic
	if topic == "" {
		topic = r.Topic
	}

	msgs := make([]*sarama.ProducerMessage, len(r.Rows))
	for i, row := range r.Rows {
		value, err := json.Marshal(row)
		if err != nil {
			return err
		}
		msgs[i] = &sarama.ProducerMessage{
			Topic: topic,
			Key:   sarama.StringEncoder(r.Zone),
			Value: sarama.ByteEncoder(value),
		}
	}
	if err := k.producer.SendMessages(msgs); err != nil {
		k.logger.Error("failed to send rankings", zap.String("topic", topic), zap.Error(err))
		return err
	}
	return nil
}

func (k *KafkaOutput) Close() error {
	if k.producer == nil {
		return nil
	}
	err := k.producer.Close()
	k.producer = nil
	return err
}
