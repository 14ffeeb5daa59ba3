package remote

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// client is the slice of the MQTT client this package needs. The real
// implementation wraps paho; the fake in fake.go is a loopback broker.
type client interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
	Unsubscribe(topic string) error
	IsConnected() bool
	Disconnect()
}

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// pahoClient adapts a paho client to the client interface, converting token
// waits into plain errors.
type pahoClient struct {
	c paho.Client
}

// dial connects to the broker with auto-reconnect enabled. onConnect, if
// non-nil, runs on every (re)connect.
func dial(broker, clientID string, onConnect func()) (*pahoClient, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if onConnect != nil {
		opts.SetOnConnectHandler(func(paho.Client) { onConnect() })
	}

	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return &pahoClient{c: c}, nil
}

func (p *pahoClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.c.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *pahoClient) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	token := p.c.Subscribe(topic, qos, func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

func (p *pahoClient) Unsubscribe(topic string) error {
	token := p.c.Unsubscribe(topic)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("unsubscribe timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (p *pahoClient) IsConnected() bool {
	return p.c.IsConnected()
}

func (p *pahoClient) Disconnect() {
	p.c.Disconnect(1000) // milliseconds to flush in-flight messages
}
