package mqtt

import "go.uber.org/zap"

// DefaultBufferSize is the number of messages held while the broker is unreachable.
const DefaultBufferSize = 256

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO that stores messages while disconnected.
// The oldest message is dropped when full. Not safe for concurrent use.
type ringBuffer struct {
	buf      []bufferedMsg
	capacity int
	head     int // next write position
	count    int
	dropped  int // messages overwritten since last drain
	logger   *zap.SugaredLogger
}

func newRingBuffer(capacity int, logger *zap.SugaredLogger) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ringBuffer{
		buf:      make([]bufferedMsg, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	r.buf[r.head] = msg
	r.head = (r.head + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
		return
	}
	// Full: the write above replaced the oldest message.
	if r.dropped == 0 {
		r.logger.Warnf("buffer full (%d messages), dropping oldest", r.capacity)
	}
	r.dropped++
}

// drainAll returns buffered messages oldest first and empties the buffer.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}

	result := make([]bufferedMsg, r.count)
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.buf[(start+i)%r.capacity]
	}

	if r.dropped > 0 {
		r.logger.Warnf("%d buffered messages were dropped while disconnected", r.dropped)
	}
	r.count = 0
	r.head = 0
	r.dropped = 0
	return result
}

func (r *ringBuffer) len() int {
	return r.count
}
