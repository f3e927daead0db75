package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"commuto/internal/general/contracts"
	"commuto/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MQPublisher emits domain events through the resilient Client.
type MQPublisher struct {
	Client *Client
}

var _ ports.EventPublisher = (*MQPublisher)(nil)

// NewMQPublisher constructs an MQPublisher using the provided RabbitMQ client.
func NewMQPublisher(client *Client) *MQPublisher {
	return &MQPublisher{Client: client}
}

// PublishTripEvent sends a trip lifecycle message to the trip topic exchange.
func (publisher *MQPublisher) PublishTripEvent(ctx context.Context, routingKey string, data contracts.TripEventData) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal trip event: %w", err)
	}
	return publisher.Client.PublishMessage(contracts.ExchangeTripTopic, routingKey, body)
}

// PublishBidEvent sends a bid lifecycle message to the bid topic exchange.
func (publisher *MQPublisher) PublishBidEvent(ctx context.Context, routingKey string, data contracts.BidEventData) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal bid event: %w", err)
	}
	return publisher.Client.PublishMessage(contracts.ExchangeBidTopic, routingKey, body)
}

// PublishLocationSample fans a driver ping out to the location exchange.
func (publisher *MQPublisher) PublishLocationSample(ctx context.Context, msg contracts.LocationSampleMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal location sample: %w", err)
	}
	return publisher.Client.PublishMessage(contracts.ExchangeLocationFanout, "", body)
}

// PublishMessage publishes JSON messages with persistence and AMQP.
func (client *Client) PublishMessage(exchange, routingKey string, body []byte) error {
	client.mu.RLock()
	ch := client.pubChan
	conn := client.conn
	client.mu.RUnlock()

	// quick fail if no channel
	if conn == nil || conn.IsClosed() {
		return errors.New("rabbitmq: connection is not open")
	}
	if ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq: publish channel is not open")
	}

	client.pubMu.Lock()
	defer client.pubMu.Unlock()
	confirms := client.pubConfirms

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ch.PublishWithContext(ctx, exchange, routingKey, true /* mandatory */, false, /* immediate */
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	); err != nil {
		return err
	}

	select {
	case c := <-confirms:
		if !c.Ack {
			return fmt.Errorf("rabbitmq: publish not acknowledged")
		}
	case <-ctx.Done():
		// keep the confirm stream aligned: try to consume exactly one confirm even if we return a timeout to the caller
		select {
		case c := <-confirms:
			// if we got a confirm now, return an error if it was a nack
			if !c.Ack {
				return fmt.Errorf("rabbitmq: publish not acknowledged after timeout")
			}
		case <-time.After(2 * time.Second):
			// give up trying to read from the confirms channel
		}

		// return the original context error
		return ctx.Err()
	}

	return nil
}
