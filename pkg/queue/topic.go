package queue

import (
	"fmt"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/amitgarg31/tradesense-ai/pkg/config"
)

// EnsureTopic creates the task topic if it does not exist yet. Callers retry
// around this until the broker is reachable.
func EnsureTopic(cfg config.KafkaConfig) error {
	conn, err := kafka.Dial("tcp", cfg.Brokers[0])
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("resolve controller: %w", err)
	}

	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer controllerConn.Close()

	topicConfig := kafka.TopicConfig{
		Topic:             cfg.Topic,
		NumPartitions:     4,
		ReplicationFactor: 1,
	}

	if err := controllerConn.CreateTopics(topicConfig); err != nil {
		return fmt.Errorf("create topic %s: %w", cfg.Topic, err)
	}
	return nil
}
