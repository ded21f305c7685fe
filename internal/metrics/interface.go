package metrics

// Recorder is the write side of the store, used by the control loop.
type Recorder interface {
	Record(temperature, fanSpeed float64)
}

// Reader is the read side of the store, used per scrape.
type Reader interface {
	Read() Snapshot
}

// Snapshot is a consistent pair of the latest observed values.
type Snapshot struct {
	Temperature float64
	FanSpeed    float64
}
