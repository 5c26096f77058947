package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"finboard/internal/core"
)

// LedgerRow is one mirrored transaction in wire form. Amounts travel as
// dollar floats to match the store's representation.
type LedgerRow struct {
	Date     string  `json:"date"`
	Amount   float64 `json:"amount"`
	Details  string  `json:"details"`
	Purpose  string  `json:"purpose,omitempty"`
	Category int64   `json:"category,omitempty"`
	Account  string  `json:"account"`
}

// LedgerMirrorMessage carries one confirmed statement batch to the
// worker that appends it to the Google Sheets ledger copy. The rows ride
// in the message so the worker needs no store access.
type LedgerMirrorMessage struct {
	BatchID   string      `json:"batch_id"`
	FileName  string      `json:"file_name"`
	Rows      []LedgerRow `json:"rows"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewLedgerMirrorMessage builds a mirror message for a confirmed batch.
func NewLedgerMirrorMessage(fileName string, txs []core.Transaction) *LedgerMirrorMessage {
	rows := make([]LedgerRow, len(txs))
	for i, tx := range txs {
		rows[i] = LedgerRow{
			Date:     tx.Date.String(),
			Amount:   tx.Amount.Dollars(),
			Details:  tx.Details,
			Purpose:  tx.Purpose,
			Category: tx.BudgetCategory,
			Account:  tx.Account,
		}
	}
	return &LedgerMirrorMessage{
		BatchID:   uuid.NewString(),
		FileName:  fileName,
		Rows:      rows,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerMirrorMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerMirrorMessageFromJSON creates a message from JSON bytes
func LedgerMirrorMessageFromJSON(data []byte) (*LedgerMirrorMessage, error) {
	var msg LedgerMirrorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
