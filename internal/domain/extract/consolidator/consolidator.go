// Package consolidator merges the parsed blocks of one or more statements
// into a single record per employee. An employee holding several
// appointments, in one statement or across months, appears once with every
// monetary field summed.
//
// Identity is decided by a normalized form of the printed name; the
// normalized form never reaches the user, who always sees the first printed
// spelling.
package consolidator

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/gersimian1/LiquidaPro/internal/domain/extract/parser"
)

// Ordering selects how consolidated employees are returned.
type Ordering int

const (
	// OrderOriginal keeps first-seen order of each employee.
	OrderOriginal Ordering = iota
	// OrderAlphabetical sorts by display name with Spanish collation.
	OrderAlphabetical
)

// Employee is the canonical, deduplicated record for one person.
type Employee struct {
	NormalizedName string // merge key, internal only
	DisplayName    string // first-seen printed form

	// Amounts carries the exact sum of every monetary field over all
	// contributing blocks.
	Amounts map[parser.FieldID]decimal.Decimal

	// Concepts carries the summed itemized lines, keyed "DV 101 Sueldo
	// Basico" style; ConceptOrder preserves first-seen key order.
	Concepts     map[string]decimal.Decimal
	ConceptOrder []string

	BlockCount int
}

// Amount returns the consolidated value of a monetary field, zero when the
// field is unknown.
func (e Employee) Amount(f parser.FieldID) decimal.Decimal {
	if d, ok := e.Amounts[f]; ok {
		return d
	}
	return decimal.Zero
}

// NormalizeName produces the internal merge key for a printed name:
// NFKC-normalized, lowercased, trimmed, with internal whitespace collapsed.
func NormalizeName(name string) string {
	name = norm.NFKC.String(name)
	name = strings.ToLower(name)
	return strings.Join(strings.Fields(name), " ")
}

// Accumulator folds blocks into per-employee records while preserving
// first-seen order. It is a value threaded through the consolidation pass,
// not shared state; create one with NewAccumulator and call Fold per block.
type Accumulator struct {
	order []string
	byKey map[string]*Employee
}

func NewAccumulator() *Accumulator {
	return &Accumulator{byKey: make(map[string]*Employee)}
}

// Fold merges one block into the accumulator.
func (a *Accumulator) Fold(block parser.Block) {
	key := NormalizeName(block.Name)

	emp, ok := a.byKey[key]
	if !ok {
		emp = &Employee{
			NormalizedName: key,
			DisplayName:    strings.TrimSpace(block.Name),
			Amounts:        make(map[parser.FieldID]decimal.Decimal, len(parser.MonetaryFields())),
			Concepts:       make(map[string]decimal.Decimal),
		}
		for _, f := range parser.MonetaryFields() {
			emp.Amounts[f] = decimal.Zero
		}
		a.byKey[key] = emp
		a.order = append(a.order, key)
	}

	for _, f := range parser.MonetaryFields() {
		emp.Amounts[f] = emp.Amounts[f].Add(block.Amount(f))
	}
	a.foldConcepts("DV", block.Accruals, emp)
	a.foldConcepts("RT", block.Withholdings, emp)
	emp.BlockCount++
}

func (a *Accumulator) foldConcepts(kind string, concepts []parser.Concept, emp *Employee) {
	for _, c := range concepts {
		key := kind + " " + c.Code + " " + c.Label
		if _, ok := emp.Concepts[key]; !ok {
			emp.ConceptOrder = append(emp.ConceptOrder, key)
		}
		emp.Concepts[key] = emp.Concepts[key].Add(c.Amount)
	}
}

// Employees returns the consolidated records in the requested ordering.
// First-seen order is inherent to the accumulator; alphabetical ordering
// compares display names with Spanish collation so accented names sort the
// way users expect.
func (a *Accumulator) Employees(ordering Ordering) []Employee {
	out := make([]Employee, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, *a.byKey[key])
	}

	if ordering == OrderAlphabetical {
		c := collate.New(language.Spanish)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].DisplayName, out[j].DisplayName) < 0
		})
	}
	return out
}

// Consolidate folds a block sequence and returns one record per employee in
// the requested ordering.
func Consolidate(blocks []parser.Block, ordering Ordering) []Employee {
	acc := NewAccumulator()
	for _, b := range blocks {
		acc.Fold(b)
	}
	return acc.Employees(ordering)
}

// AvailableFields reports which optional monetary fields carry a non-zero
// value anywhere in the consolidated dataset. The name and the two always-
// present summary amounts are reported unconditionally.
func AvailableFields(employees []Employee) []parser.FieldID {
	fields := []parser.FieldID{
		parser.FieldName,
		parser.FieldRemWithContribution,
		parser.FieldNetPayable,
	}
	always := map[parser.FieldID]bool{
		parser.FieldName:                true,
		parser.FieldRemWithContribution: true,
		parser.FieldNetPayable:          true,
	}

	for _, f := range parser.MonetaryFields() {
		if always[f] {
			continue
		}
		for _, e := range employees {
			if !e.Amount(f).IsZero() {
				fields = append(fields, f)
				break
			}
		}
	}
	return fields
}
