package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"billed/internal/core"
)

// BillPayload is the wire form of a bill.
type BillPayload struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Amount     int64  `json:"amount"`
	VAT        int64  `json:"vat"`
	Pct        int    `json:"pct"`
	Commentary string `json:"commentary,omitempty"`
	FileURL    string `json:"fileUrl,omitempty"`
	FileName   string `json:"fileName,omitempty"`
	Status     string `json:"status"`
}

// BillSubmittedMessage announces a bill that reached the submitted state.
// It carries the whole bill so consumers do not need access to the store.
type BillSubmittedMessage struct {
	BillID    string      `json:"bill_id"`
	Bill      BillPayload `json:"bill"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewBillSubmittedMessage(b core.Bill) *BillSubmittedMessage {
	return &BillSubmittedMessage{
		BillID: b.ID,
		Bill: BillPayload{
			ID:         b.ID,
			Email:      b.Email,
			Type:       b.Type,
			Name:       b.Name,
			Date:       b.Date.ISO(),
			Amount:     b.Amount,
			VAT:        b.VAT,
			Pct:        b.Pct,
			Commentary: b.Commentary,
			FileURL:    b.FileURL,
			FileName:   b.FileName,
			Status:     string(b.Status),
		},
		Timestamp: time.Now(),
	}
}

// ToBill converts the payload back to the domain type.
func (m *BillSubmittedMessage) ToBill() (core.Bill, error) {
	d, err := core.ParseISODate(m.Bill.Date)
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill %s date: %w", m.BillID, err)
	}
	return core.Bill{
		ID:         m.Bill.ID,
		Email:      m.Bill.Email,
		Type:       m.Bill.Type,
		Name:       m.Bill.Name,
		Date:       d,
		Amount:     m.Bill.Amount,
		VAT:        m.Bill.VAT,
		Pct:        m.Bill.Pct,
		Commentary: m.Bill.Commentary,
		FileURL:    m.Bill.FileURL,
		FileName:   m.Bill.FileName,
		Status:     core.Status(m.Bill.Status),
	}, nil
}

// ToJSON converts the message to JSON bytes
func (m *BillSubmittedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BillSubmittedMessageFromJSON decodes a message and checks it names a bill.
func BillSubmittedMessageFromJSON(data []byte) (*BillSubmittedMessage, error) {
	var msg BillSubmittedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.BillID == "" {
		return nil, fmt.Errorf("message without bill_id")
	}
	return &msg, nil
}
