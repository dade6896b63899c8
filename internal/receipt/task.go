package receipt

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/skytecs/hermes/internal/device"
)

type PaymentType string

const (
	PaymentCash       PaymentType = "cash"
	PaymentElectronic PaymentType = "electronically"
)

// Position is a receipt line as the device expects it.
type Position struct {
	Name          string
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	Amount        decimal.Decimal
	Vat           VatType
	PaymentObject PaymentObject
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type          string        `json:"type"`
		Name          string        `json:"name"`
		Price         float64       `json:"price"`
		Quantity      float64       `json:"quantity"`
		Amount        float64       `json:"amount"`
		Tax           Tax           `json:"tax"`
		PaymentObject PaymentObject `json:"paymentObject"`
	}{
		Type:          "position",
		Name:          p.Name,
		Price:         p.Price.InexactFloat64(),
		Quantity:      p.Quantity.InexactFloat64(),
		Amount:        p.Amount.InexactFloat64(),
		Tax:           Tax{Type: p.Vat},
		PaymentObject: p.PaymentObject,
	})
}

type Payment struct {
	Type PaymentType
	Sum  decimal.Decimal
}

func (p Payment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type PaymentType `json:"type"`
		Sum  float64     `json:"sum"`
	}{p.Type, p.Sum.InexactFloat64()})
}

// Tax is a VAT entry. Sum is only sent for correction documents.
type Tax struct {
	Type VatType
	Sum  *decimal.Decimal
}

func (t Tax) MarshalJSON() ([]byte, error) {
	out := struct {
		Type VatType  `json:"type"`
		Sum  *float64 `json:"sum,omitempty"`
	}{Type: t.Type}

	if t.Sum != nil {
		out.Sum = new(t.Sum.InexactFloat64())
	}

	return json.Marshal(out)
}

// SubReceipt is one fiscal document covering the items of a single
// taxation type.
type SubReceipt struct {
	Type         string          `json:"type"`
	TaxationType TaxationType    `json:"taxationType"`
	Operator     device.Operator `json:"operator"`
	Items        []Position      `json:"items"`
	Payments     []Payment       `json:"payments"`

	ContractItemIDs []int64 `json:"-"`
}

func (s SubReceipt) TaskType() string { return s.Type }

func (s SubReceipt) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Payments {
		total = total.Add(p.Sum)
	}

	return total
}

// CorrectionTask is a sellCorrection document. The correction metadata is
// left out entirely for FFD versions that do not know it.
type CorrectionTask struct {
	Type                 string          `json:"type"`
	TaxationType         TaxationType    `json:"taxationType"`
	Operator             device.Operator `json:"operator"`
	CorrectionType       CorrectionType  `json:"correctionType,omitempty"`
	CorrectionBaseName   string          `json:"correctionBaseName,omitempty"`
	CorrectionBaseDate   *Date           `json:"correctionBaseDate,omitempty"`
	CorrectionBaseNumber string          `json:"correctionBaseNumber,omitempty"`
	Payments             []Payment       `json:"payments"`
	Taxes                []Tax           `json:"taxes"`
}

func (c CorrectionTask) TaskType() string { return c.Type }
