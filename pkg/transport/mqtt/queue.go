// Package mqtt bridges the link byte stream over an MQTT broker, for
// devices reachable through a serial-to-MQTT gateway instead of a
// local port.
package mqtt

import (
	"fmt"
	"net/url"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// Handler is the callback when a message is received.
type Handler func(topic string, payload []byte)

// Queue wraps the MQTT client with an optional topic prefix.
type Queue struct {
	Client      paho.Client
	TopicPrefix string
}

// ClientOptionsFromURL creates ClientOptions from a URL of the form
// mqtt://host:port/topic-prefix. The path becomes the topic prefix.
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	topicPrefix := strings.Trim(u.Path, "/")

	opts := paho.NewClientOptions().AddBroker(server)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if password, exist := u.User.Password(); exist {
			opts.SetPassword(password)
		}
	}
	return opts, topicPrefix, nil
}

// NewQueue connects to the broker described by serverURL.
func NewQueue(serverURL string) (*Queue, error) {
	opts, prefix, err := ClientOptionsFromURL(serverURL)
	if err != nil {
		return nil, err
	}
	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	glog.V(2).Infof("mqtt connected, prefix %q", prefix)
	return &Queue{Client: client, TopicPrefix: prefix}, nil
}

// Topic expands a relative topic with the queue's prefix.
func (q *Queue) Topic(topic string) string {
	if q.TopicPrefix == "" {
		return topic
	}
	return q.TopicPrefix + "/" + topic
}

// Pub publishes a message.
func (q *Queue) Pub(topic string, payload []byte) paho.Token {
	return q.Client.Publish(q.Topic(topic), 0, false, payload)
}

// Sub subscribes to a topic.
func (q *Queue) Sub(topic string, handler Handler) error {
	token := q.Client.Subscribe(q.Topic(topic), 0, func(_ paho.Client, m paho.Message) {
		handler(m.Topic(), m.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %v", topic, token.Error())
	}
	return nil
}

// Unsub unsubscribes from a topic.
func (q *Queue) Unsub(topic string) {
	q.Client.Unsubscribe(q.Topic(topic))
}

// Close disconnects from the broker.
func (q *Queue) Close() {
	q.Client.Disconnect(100)
}
