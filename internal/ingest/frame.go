// Package ingest consumes document-change deliveries from the event store's
// trigger feed and routes them into the aggregation and insight pipelines.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
)

// cborDec decodes untyped CBOR maps as map[string]interface{} so snapshot
// values can be re-encoded as JSON.
var cborDec = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// Collections carried on the change feed.
const (
	CollectionAttendance = "attendance"
	CollectionFeedback   = "event_feedback"
	CollectionAnalytics  = "event_analytics"
)

// Change kinds.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// Frame decoding errors.
var (
	ErrInvalidFrame      = errors.New("invalid change frame")
	ErrMissingDocID      = errors.New("missing document id in change frame")
	ErrMissingCollection = errors.New("missing collection in change frame")
	ErrUnknownFrameType  = errors.New("unknown websocket frame type")
)

// Frame is one document-change delivery. Before and After hold JSON-encoded
// document snapshots; Before is empty for created frames.
//
// Delivery is at-least-once with no cross-document ordering. DocID is the
// de-duplication key for created frames.
type Frame struct {
	DocID      string
	Collection string
	Kind       string
	TimeUS     int64
	Before     json.RawMessage
	After      json.RawMessage
}

// wireFrame is the envelope as sent on the feed. Text frames are JSON,
// binary frames are CBOR; field names are shared between the two encodings.
type wireFrame struct {
	DocID      string          `json:"doc_id" cbor:"doc_id"`
	Collection string          `json:"collection" cbor:"collection"`
	Kind       string          `json:"kind" cbor:"kind"`
	TimeUS     int64           `json:"time_us" cbor:"time_us"`
	Before     json.RawMessage `json:"before,omitempty" cbor:"-"`
	After      json.RawMessage `json:"after,omitempty" cbor:"-"`
	BeforeCBOR cbor.RawMessage `json:"-" cbor:"before,omitempty"`
	AfterCBOR  cbor.RawMessage `json:"-" cbor:"after,omitempty"`
}

// DecodeFrame parses a websocket message into a Frame. Text messages are
// decoded as JSON, binary messages as CBOR; CBOR snapshots are re-encoded to
// JSON so downstream document decoding has a single path.
func DecodeFrame(messageType int, payload []byte) (*Frame, error) {
	var wire wireFrame
	switch messageType {
	case websocket.TextMessage:
		if err := json.Unmarshal(payload, &wire); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
		}
	case websocket.BinaryMessage:
		if err := cbor.Unmarshal(payload, &wire); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
		}
		var err error
		if wire.Before, err = cborToJSON(wire.BeforeCBOR); err != nil {
			return nil, fmt.Errorf("%w: before snapshot: %v", ErrInvalidFrame, err)
		}
		if wire.After, err = cborToJSON(wire.AfterCBOR); err != nil {
			return nil, fmt.Errorf("%w: after snapshot: %v", ErrInvalidFrame, err)
		}
	default:
		return nil, ErrUnknownFrameType
	}

	if wire.DocID == "" {
		return nil, ErrMissingDocID
	}
	if wire.Collection == "" {
		return nil, ErrMissingCollection
	}

	return &Frame{
		DocID:      wire.DocID,
		Collection: wire.Collection,
		Kind:       wire.Kind,
		TimeUS:     wire.TimeUS,
		Before:     wire.Before,
		After:      wire.After,
	}, nil
}

// cborToJSON re-encodes a raw CBOR value as JSON. Empty input stays empty.
func cborToJSON(raw cbor.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var value interface{}
	if err := cborDec.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return json.Marshal(value)
}
