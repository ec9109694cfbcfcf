package parser

import (
	"fmt"
	"regexp"
)

// FieldID identifies one extractable column of a payroll statement.
type FieldID string

const (
	FieldName                      FieldID = "name"
	FieldRemWithContribution       FieldID = "remuneration_with_contribution"
	FieldRemWithoutContribution    FieldID = "remuneration_without_contribution"
	FieldNetPayable                FieldID = "net_payable"
	FieldRemunerativeSupplement    FieldID = "remunerative_supplement"
	FieldHealthFundAdjustment      FieldID = "health_fund_adjustment"
	FieldFamilyHealthFundDeduction FieldID = "family_health_fund_deduction"
)

// MonetaryFields returns every monetary field in canonical order. The order
// is fixed so that iteration over a block's amounts is deterministic.
func MonetaryFields() []FieldID {
	return []FieldID{
		FieldRemWithContribution,
		FieldRemWithoutContribution,
		FieldNetPayable,
		FieldRemunerativeSupplement,
		FieldHealthFundAdjustment,
		FieldFamilyHealthFundDeduction,
	}
}

// displayNames maps field identifiers to the column headers used by the
// issuing system, which is what users expect to see in exports.
var displayNames = map[FieldID]string{
	FieldName:                      "Apellido y Nombre",
	FieldRemWithContribution:       "Rem c/ Aporte",
	FieldRemWithoutContribution:    "Rem s/ Aporte",
	FieldNetPayable:                "Líquido",
	FieldRemunerativeSupplement:    "Complemento Remunerativo",
	FieldHealthFundAdjustment:      "Ajuste Dif. Aporte Mínimo APROSS",
	FieldFamilyHealthFundDeduction: "Descuento APROSS por afiliados Familiares Voluntar",
}

// DisplayName returns the user-facing header for a field.
func DisplayName(f FieldID) string {
	if name, ok := displayNames[f]; ok {
		return name
	}
	return string(f)
}

// ParseFieldID validates a field identifier coming from configuration or the
// command line.
func ParseFieldID(s string) (FieldID, error) {
	f := FieldID(s)
	if f == FieldName {
		return f, nil
	}
	if _, ok := displayNames[f]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// fieldSpec binds a monetary field to the pattern that locates it inside an
// employee block. Adding a field is a table change, not a control-flow change.
type fieldSpec struct {
	id FieldID
	re *regexp.Regexp
}

// amountGroup matches an Argentine-formatted amount with an optional sign:
// thousands separated by dots, decimals after a comma.
const amountGroup = `(-?\s?[\d.]+,\d{2})`

// amountSpecs is compiled once at package load; the patterns mirror the line
// items of the provincial statement layout.
var amountSpecs = []fieldSpec{
	{FieldRemWithContribution, regexp.MustCompile(`Rem c/ Aporte\s+` + amountGroup)},
	{FieldRemWithoutContribution, regexp.MustCompile(`Rem s/ Aporte\s+` + amountGroup)},
	{FieldNetPayable, regexp.MustCompile(`Liq\.\s*Pesos:\s*` + amountGroup)},
	{FieldRemunerativeSupplement, regexp.MustCompile(`Complemento Remunerativo\s+` + amountGroup)},
	{FieldHealthFundAdjustment, regexp.MustCompile(`Ajuste Dif.*?APROSS\s+` + amountGroup)},
	{FieldFamilyHealthFundDeduction, regexp.MustCompile(`Descuento APROSS.*?Voluntar\s+` + amountGroup)},
}
