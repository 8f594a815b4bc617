package publish

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/hockijo/techconnect/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err      error
	complete bool
}

func (t *fakeToken) Wait() bool                     { return t.complete }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.complete }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.complete {
		close(ch)
	}
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	token        *fakeToken
	messages     []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload any) mqtt.Token {
	c.messages = append(c.messages, published{topic, qos, retained, payload.([]byte)})
	return c.token
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestMQTTPublisherPublish(t *testing.T) {
	client := &fakeClient{token: &fakeToken{complete: true}}
	p := newMQTTPublisher(client, time.Second)

	payload := map[string]any{"run_id": 3, "average": 15.2}
	require.NoError(t, p.Publish("lab/finesse", payload))
	require.Len(t, client.messages, 1)

	msg := client.messages[0]
	assert.Equal(t, "lab/finesse", msg.topic)
	assert.Equal(t, byte(DefaultQoS), msg.qos)
	assert.True(t, msg.retained)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &decoded))
	assert.Equal(t, 15.2, decoded["average"])

	p.Close()
	assert.True(t, client.disconnected)
}

func TestMQTTPublisherErrors(t *testing.T) {
	client := &fakeClient{token: &fakeToken{complete: true, err: errors.New("not authorized")}}
	p := newMQTTPublisher(client, time.Second)
	err := p.Publish("lab/finesse", 1)
	assert.ErrorContains(t, err, "not authorized")

	client.token = &fakeToken{complete: false}
	err = p.Publish("lab/finesse", 1)
	assert.ErrorContains(t, err, "timed out")

	err = p.Publish("lab/finesse", make(chan int))
	assert.ErrorContains(t, err, "json marshal error")
}

func TestNew(t *testing.T) {
	p, err := New(&contract.Config{})
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, p)
	assert.NoError(t, p.Publish("any", struct{}{}))
	p.Close()
}

func TestNewMQTTPublisherUnreachable(t *testing.T) {
	_, err := NewMQTTPublisher("tcp://127.0.0.1:1", "techconnect-test", 500*time.Millisecond)
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "techconnect/results/acquisition", Topic(contract.DefaultMQTTTopic, "acquisition"))
}
