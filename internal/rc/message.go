package rc

import (
	"encoding/json"
	"math"
	"time"

	"github.com/pkg/errors"
)

// Message is the JSON channel frame published on the RC topic by a ground
// station or a radio bridge.
type Message struct {
	Channels []int32 `json:"channels"`
}

// DecodeMessage parses an RC frame. Missing trailing channels read as 1000,
// the low switch position.
func DecodeMessage(payload []byte) ([NumChannels]int32, error) {
	var ch [NumChannels]int32
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return ch, errors.Wrap(err, "decode rc frame")
	}
	if len(msg.Channels) < numSticks {
		return ch, errors.Errorf("rc frame has %d channels, need at least %d", len(msg.Channels), numSticks)
	}
	if len(msg.Channels) > NumChannels {
		return ch, errors.Errorf("rc frame has %d channels, max %d", len(msg.Channels), NumChannels)
	}
	for i := range ch {
		ch[i] = MinThrottle
		if i < len(msg.Channels) {
			ch[i] = msg.Channels[i]
		}
	}
	return ch, nil
}

// MockSource produces a gentle stick pattern for bench runs: sticks sweep
// slowly around centre, throttle stays low and the aircraft is disarmed
// unless Armed is set.
type MockSource struct {
	Armed bool
	start time.Time
}

func NewMockSource(armed bool) *MockSource {
	return &MockSource{Armed: armed, start: time.Now()}
}

func (m *MockSource) Next() [NumChannels]int32 {
	elapsed := time.Since(m.start).Seconds()

	var ch [NumChannels]int32
	for i := range ch {
		ch[i] = MinThrottle
	}
	ch[ChannelRoll] = Center + int32(100*math.Sin(elapsed))
	ch[ChannelPitch] = Center + int32(80*math.Cos(elapsed*0.7))
	ch[ChannelYaw] = Center
	ch[ChannelThrottle] = MinThrottle
	if m.Armed {
		ch[ChannelArm] = MaxThrottle
	}
	return ch
}
