package httpapi

import (
	"encoding/json"
	"net/http"

	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"
)

var _ output.EventEmitter = (*ndjsonEmitter)(nil)

// ndjsonEmitter writes one event per line and flushes it immediately. After
// the first write error later events are dropped; the run itself goes on.
type ndjsonEmitter struct {
	encoder *json.Encoder
	flusher http.Flusher
	err     error
}

func newNDJSONEmitter(w http.ResponseWriter, flusher http.Flusher) *ndjsonEmitter {
	return &ndjsonEmitter{encoder: json.NewEncoder(w), flusher: flusher}
}

func (e *ndjsonEmitter) Emit(event entity.DisplayEvent) {
	if e.err != nil {
		return
	}
	if err := e.encoder.Encode(event); err != nil {
		e.err = err
		return
	}
	e.flusher.Flush()
}

func (e *ndjsonEmitter) Err() error {
	return e.err
}
