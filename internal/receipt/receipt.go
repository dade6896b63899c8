package receipt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TaxationType is the tax regime a document is fiscalized under.
type TaxationType string

const (
	TaxationOSN              TaxationType = "osn"
	TaxationUSNIncome        TaxationType = "usnIncome"
	TaxationUSNIncomeOutcome TaxationType = "usnIncomeOutcome"
	TaxationENVD             TaxationType = "envd"
	TaxationESN              TaxationType = "esn"
	TaxationPatent           TaxationType = "patent"
)

func (t TaxationType) Valid() bool {
	switch t {
	case TaxationOSN, TaxationUSNIncome, TaxationUSNIncomeOutcome, TaxationENVD, TaxationESN, TaxationPatent:
		return true
	}

	return false
}

type VatType string

const (
	VatNone VatType = "none"
	Vat0    VatType = "vat0"
	Vat10   VatType = "vat10"
	Vat18   VatType = "vat18"
	Vat20   VatType = "vat20"
	Vat110  VatType = "vat110"
	Vat118  VatType = "vat118"
	Vat120  VatType = "vat120"
)

type PaymentObject string

const (
	PaymentObjectCommodity PaymentObject = "commodity"
	PaymentObjectExcise    PaymentObject = "excise"
	PaymentObjectJob       PaymentObject = "job"
	PaymentObjectService   PaymentObject = "service"
	PaymentObjectPayment   PaymentObject = "payment"
	PaymentObjectAnother   PaymentObject = "another"
)

type CorrectionType string

const (
	CorrectionSelf        CorrectionType = "self"
	CorrectionInstruction CorrectionType = "instruction"
)

// Item is one line of a clinic receipt.
type Item struct {
	ContractItemIDs   []int64         `json:"contractItemIds"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	VatType           VatType         `json:"taxType"`
	TaxationType      TaxationType    `json:"taxationType"`
	PaymentObjectType PaymentObject   `json:"paymentObjectType"`
}

// Amount is the line total. An explicit unit price wins over the line price.
func (i Item) Amount() decimal.Decimal {
	if !i.UnitPrice.IsZero() {
		return i.UnitPrice.Mul(i.Quantity).Round(2)
	}

	return i.Price.Round(2)
}

func (i Item) unitPrice() decimal.Decimal {
	if !i.UnitPrice.IsZero() {
		return i.UnitPrice
	}

	return i.Price.Div(i.Quantity).Round(2)
}

type Receipt struct {
	Items []Item `json:"items"`
	// Wire name kept as the clinic sends it.
	IsPaidByCard bool `json:"isPaydByCard"`
}

func (r Receipt) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range r.Items {
		sum = sum.Add(it.Amount())
	}

	return sum
}

// Correction is a retroactive fiscal document for an unregistered amount.
type Correction struct {
	Sum                  decimal.Decimal `json:"sum"`
	IsPaidByCard         bool            `json:"isPaydByCard"`
	VatType              VatType         `json:"taxType"`
	TaxationType         TaxationType    `json:"taxationType"`
	CorrectionType       CorrectionType  `json:"correctionType"`
	CorrectionBaseName   string          `json:"correctionBaseName"`
	CorrectionBaseDate   *Date           `json:"correctionBaseDate"`
	CorrectionBaseNumber string          `json:"correctionBaseNumber"`
}

const deviceDateLayout = "2006.01.02"

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	deviceDateLayout,
	"02.01.2006",
}

// Date is a calendar date. It accepts the layouts clinics send and is
// written in the device layout.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) *Date {
	return &Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}

	if s == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}

	return fmt.Errorf("unrecognized date %q", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(deviceDateLayout))
}
