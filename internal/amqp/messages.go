package amqp

import (
	"encoding/json"
	"time"
)

// TransactionSyncMessage is the lightweight outbox message for exporting a
// transaction to the external ledger. It carries only identifiers; the
// worker fetches the full record from the database.
type TransactionSyncMessage struct {
	ID        string    `json:"id"`
	GymID     string    `json:"gym_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionSyncMessage(id, gymID string) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		ID:        id,
		GymID:     gymID,
		Timestamp: time.Now(),
	}
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
