package boundedbuffer

import "sync/atomic"

// Stats is a point-in-time snapshot of a Strategy.
type Stats struct {
	Produced uint64
	Consumed uint64

	// ProduceWaits counts Produce calls that found no free slot and had to block.
	ProduceWaits uint64
	// ConsumeWaits counts Consume calls that found no item and had to block.
	ConsumeWaits uint64
	// Canceled counts waits abandoned because the context ended or the
	// strategy was closed.
	Canceled uint64

	Len int
	Cap int
}

type counters struct {
	produced     uint64
	consumed     uint64
	produceWaits uint64
	consumeWaits uint64
	canceled     uint64

	metrics *bufferMetrics // nil unless WithMetrics was given
}

// produce is called with the buffer mutex held.
func (c *counters) produce(size int) {
	atomic.AddUint64(&c.produced, 1)
	if c.metrics != nil {
		c.metrics.recordProduce(size)
	}
}

// consume is called with the buffer mutex held.
func (c *counters) consume(size int) {
	atomic.AddUint64(&c.consumed, 1)
	if c.metrics != nil {
		c.metrics.recordConsume(size)
	}
}

func (c *counters) produceWait() {
	atomic.AddUint64(&c.produceWaits, 1)
	if c.metrics != nil {
		c.metrics.recordWait("produce")
	}
}

func (c *counters) consumeWait() {
	atomic.AddUint64(&c.consumeWaits, 1)
	if c.metrics != nil {
		c.metrics.recordWait("consume")
	}
}

func (c *counters) cancel() {
	atomic.AddUint64(&c.canceled, 1)
}

func (c *counters) snapshot(size, capacity int) Stats {
	return Stats{
		Produced:     atomic.LoadUint64(&c.produced),
		Consumed:     atomic.LoadUint64(&c.consumed),
		ProduceWaits: atomic.LoadUint64(&c.produceWaits),
		ConsumeWaits: atomic.LoadUint64(&c.consumeWaits),
		Canceled:     atomic.LoadUint64(&c.canceled),
		Len:          size,
		Cap:          capacity,
	}
}
