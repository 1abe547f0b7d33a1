package entities

import "time"

const EventDatasetRefreshed = "dataset_refreshed"

// DatasetEvent announces a new dataset snapshot to stream subscribers and
// the event bus.
type DatasetEvent struct {
	Type            string    `json:"type"`
	Version         string    `json:"version"`
	PreviousVersion string    `json:"previousVersion,omitempty"`
	Seed            int64     `json:"seed"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

func NewDatasetRefreshedEvent(previous, current *Dataset) DatasetEvent {
	event := DatasetEvent{
		Type:        EventDatasetRefreshed,
		Version:     current.Version,
		Seed:        current.Seed,
		GeneratedAt: current.GeneratedAt,
	}
	if previous != nil {
		event.PreviousVersion = previous.Version
	}
	return event
}
