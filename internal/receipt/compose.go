// Package receipt turns clinic receipts into device documents. A receipt is
// split into one sub-receipt per taxation type because the device fiscalizes
// a single tax regime per document.
package receipt

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/skytecs/hermes/internal/device"
)

// Kind selects the document type a receipt is printed as.
type Kind string

const (
	KindSell   Kind = device.TaskSell
	KindRefund Kind = device.TaskSellReturn
)

// FFD versions from this one on require correction metadata.
var correctionMetadataSince = decimal.RequireFromString("1.1")

type vatRate struct {
	num, den int64
}

var vatRates = map[VatType]vatRate{
	Vat0:   {0, 1},
	Vat10:  {10, 110},
	Vat18:  {18, 118},
	Vat20:  {20, 120},
	Vat110: {10, 110},
	Vat118: {18, 118},
	Vat120: {20, 120},
}

func Compose(r Receipt, kind Kind) ([]SubReceipt, error) {
	if len(r.Items) == 0 {
		return nil, invalid("receipt has no items")
	}

	var missing []string
	for _, it := range r.Items {
		if it.TaxationType == "" {
			missing = append(missing, it.Description)
		}
	}

	if len(missing) > 0 {
		return nil, &MissingTaxationTypeError{Descriptions: missing}
	}

	for _, it := range r.Items {
		if err := validateItem(it); err != nil {
			return nil, err
		}
	}

	paymentType := PaymentCash
	if r.IsPaidByCard {
		paymentType = PaymentElectronic
	}

	var order []TaxationType
	groups := make(map[TaxationType]*SubReceipt)

	for _, it := range r.Items {
		sub, ok := groups[it.TaxationType]
		if !ok {
			sub = &SubReceipt{Type: string(kind), TaxationType: it.TaxationType}
			groups[it.TaxationType] = sub
			order = append(order, it.TaxationType)
		}

		sub.Items = append(sub.Items, position(it))
		sub.ContractItemIDs = append(sub.ContractItemIDs, it.ContractItemIDs...)
	}

	out := make([]SubReceipt, 0, len(order))

	for _, tt := range order {
		sub := groups[tt]

		total := decimal.Zero
		for _, p := range sub.Items {
			total = total.Add(p.Amount)
		}

		sub.Payments = []Payment{{Type: paymentType, Sum: total}}
		out = append(out, *sub)
	}

	return out, nil
}

func validateItem(it Item) error {
	if !it.TaxationType.Valid() {
		return invalid("item %q has unknown taxation type %q", it.Description, it.TaxationType)
	}

	if !it.Quantity.IsPositive() {
		return invalid("item %q must have a positive quantity", it.Description)
	}

	if it.Price.IsNegative() || it.UnitPrice.IsNegative() {
		return invalid("item %q has a negative price", it.Description)
	}

	// The device prints unit price times quantity, so a line price must
	// split into whole kopecks.
	if it.UnitPrice.IsZero() && !it.Price.IsZero() && !it.unitPrice().Mul(it.Quantity).Round(2).Equal(it.Price.Round(2)) {
		return invalid("item %q: price %s does not split into %s units, unitPrice is required", it.Description, it.Price, it.Quantity)
	}

	if it.VatType != "" && it.VatType != VatNone {
		if _, ok := vatRates[it.VatType]; !ok {
			return invalid("item %q has unknown VAT type %q", it.Description, it.VatType)
		}
	}

	return nil
}

func position(it Item) Position {
	obj := it.PaymentObjectType
	if obj == "" {
		obj = PaymentObjectService
	}

	return Position{
		Name:          it.Description,
		Price:         it.unitPrice(),
		Quantity:      it.Quantity,
		Amount:        it.Amount(),
		Vat:           vatFor(it.TaxationType, it.VatType),
		PaymentObject: obj,
	}
}

// vatFor honours the declared VAT only under the general regime.
func vatFor(tt TaxationType, v VatType) VatType {
	if tt != TaxationOSN || v == "" {
		return VatNone
	}

	return v
}

// ComposeCorrection builds a correction document for a device working in
// the given FFD version.
func ComposeCorrection(c Correction, ffdVersion string) (*CorrectionTask, error) {
	if c.TaxationType == "" {
		return nil, fmt.Errorf("%w: %w: correction has no taxation type", ErrValidation, ErrMissingTaxationType)
	}

	if !c.TaxationType.Valid() {
		return nil, invalid("unknown taxation type %q", c.TaxationType)
	}

	if !c.Sum.IsPositive() {
		return nil, invalid("correction sum must be positive")
	}

	vat := vatFor(c.TaxationType, c.VatType)
	if _, ok := vatRates[vat]; !ok && vat != VatNone {
		return nil, invalid("unknown VAT type %q", c.VatType)
	}

	extended, err := requiresCorrectionMetadata(ffdVersion)
	if err != nil {
		return nil, err
	}

	paymentType := PaymentCash
	if c.IsPaidByCard {
		paymentType = PaymentElectronic
	}

	sum := c.Sum.Round(2)

	task := &CorrectionTask{
		Type:         device.TaskSellCorrection,
		TaxationType: c.TaxationType,
		Payments:     []Payment{{Type: paymentType, Sum: sum}},
		Taxes:        []Tax{correctionTax(vat, sum)},
	}

	if !extended {
		return task, nil
	}

	if err := validateCorrectionMetadata(c, ffdVersion); err != nil {
		return nil, err
	}

	task.CorrectionType = c.CorrectionType
	task.CorrectionBaseName = c.CorrectionBaseName
	task.CorrectionBaseDate = c.CorrectionBaseDate
	task.CorrectionBaseNumber = c.CorrectionBaseNumber

	return task, nil
}

func validateCorrectionMetadata(c Correction, version string) error {
	switch {
	case c.CorrectionType == "":
		return &IncompleteCorrectionError{Field: "correctionType", Version: version}
	case strings.TrimSpace(c.CorrectionBaseName) == "":
		return &IncompleteCorrectionError{Field: "correctionBaseName", Version: version}
	case c.CorrectionBaseDate == nil || c.CorrectionBaseDate.IsZero():
		return &IncompleteCorrectionError{Field: "correctionBaseDate", Version: version}
	case strings.TrimSpace(c.CorrectionBaseNumber) == "":
		return &IncompleteCorrectionError{Field: "correctionBaseNumber", Version: version}
	}

	if c.CorrectionType != CorrectionSelf && c.CorrectionType != CorrectionInstruction {
		return invalid("unknown correction type %q", c.CorrectionType)
	}

	return nil
}

func correctionTax(vat VatType, sum decimal.Decimal) Tax {
	rate, ok := vatRates[vat]
	if !ok {
		return Tax{Type: vat}
	}

	taxSum := sum.Mul(decimal.NewFromInt(rate.num)).Div(decimal.NewFromInt(rate.den)).Round(2)

	return Tax{Type: vat, Sum: &taxSum}
}

func requiresCorrectionMetadata(version string) (bool, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(version))
	if err != nil {
		return false, fmt.Errorf("unrecognized FFD version %q", version)
	}

	return v.GreaterThanOrEqual(correctionMetadataSince), nil
}
