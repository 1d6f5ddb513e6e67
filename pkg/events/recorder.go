package events

import (
	"context"
	"encoding/json"
	"sync"
)

type Recorded struct {
	Topic string
	Key   string
	Body  map[string]any
}

// Recorder keeps published events in memory. Tests use it in place of Kafka.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
	Err    error
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	if r.Err != nil {
		return r.Err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Topic: topic, Key: key, Body: body})
	return nil
}

func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Types(topic string) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Topic != topic {
			continue
		}
		if t, ok := e.Body["type"].(string); ok {
			out = append(out, t)
		}
	}
	return out
}
