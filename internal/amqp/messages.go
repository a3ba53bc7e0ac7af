package amqp

import (
	"encoding/json"
	"time"
)

// ImportJobMessage carries one CSV import request to the worker. The
// blob travels with the message; the worker needs no other state.
type ImportJobMessage struct {
	Owner     string    `json:"owner"`
	Blob      string    `json:"blob"`
	Timestamp time.Time `json:"timestamp"`
}

func NewImportJobMessage(owner, blob string) *ImportJobMessage {
	return &ImportJobMessage{
		Owner:     owner,
		Blob:      blob,
		Timestamp: time.Now(),
	}
}

func (m *ImportJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ImportJobMessageFromJSON(data []byte) (*ImportJobMessage, error) {
	var msg ImportJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// TransactionCreatedMessage is the event emitted after a single
// transaction write. Published fire-and-forget for downstream
// consumers; nothing in this repo subscribes to it.
type TransactionCreatedMessage struct {
	ID          int64     `json:"id"`
	Owner       string    `json:"owner"`
	AmountCents int64     `json:"amountCents"`
	Category    string    `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
}

func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
