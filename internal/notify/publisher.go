// Package notify publishes vehicle change events to an MQTT broker so other
// systems (dashboards, trackers) can react to inventory changes.
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const defaultTopic = "appcorte/vehicles"

type event struct {
	Event     string    `json:"event"`
	VehicleID string    `json:"vehicle_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits vehicle events. With no broker configured every call is a
// no-op, and a failed publish only logs; requests never fail because of it.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// NewPublisher connects to the broker named by MQTT_BROKER. When the
// variable is unset the returned publisher is inert.
func NewPublisher() (*Publisher, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		log.Info("MQTT_BROKER not set, vehicle events disabled")
		return &Publisher{topic: defaultTopic}, nil
	}
	topic := os.Getenv("MQTT_TOPIC")
	if topic == "" {
		topic = defaultTopic
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("app-corte-server").
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", token.Error())
	}
	log.WithField("broker", broker).Info("connected to MQTT broker")
	return &Publisher{client: client, topic: topic}, nil
}

// VehicleSaved publishes a created or updated event.
func (p *Publisher) VehicleSaved(vehicleID string, created bool) {
	name := "vehicle.updated"
	if created {
		name = "vehicle.created"
	}
	p.publish(event{Event: name, VehicleID: vehicleID, Timestamp: time.Now()})
}

// VehicleDeleted publishes a deleted event.
func (p *Publisher) VehicleDeleted(vehicleID string) {
	p.publish(event{Event: "vehicle.deleted", VehicleID: vehicleID, Timestamp: time.Now()})
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.client != nil {
		p.client.Disconnect(250)
	}
}

func (p *Publisher) publish(e event) {
	if p.client == nil {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		log.WithError(err).Error("failed to encode vehicle event")
		return
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.WithError(token.Error()).WithField("event", e.Event).Error("failed to publish vehicle event")
		}
	}()
}
