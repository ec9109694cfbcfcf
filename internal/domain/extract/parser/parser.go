// Package parser extracts per-employee payroll records from the flat text of
// a statement. A statement is a sequence of blocks, one per employee and
// appointment, each opened by an "Id. Hr:" header line. Field extraction is
// driven by a declarative pattern table so that new line items are a data
// change rather than new parsing code.
package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Regexes are compiled once at package load; parsing runs them over hundreds
// of blocks per statement.
var (
	// reBlockStart marks the beginning of an employee/appointment block.
	// It is the one line present in both the real PDF rendering and the
	// plain-text exports.
	reBlockStart = regexp.MustCompile(`Id\.\s*Hr:`)

	reName      = regexp.MustCompile(`Apellido y Nombre\s*:\s*(.+?)\s*Centro Pago`)
	reHRID      = regexp.MustCompile(`Id\.\s*Hr:\s*(\d+)`)
	rePosition  = regexp.MustCompile(`Cargo:\s*(\d+)`)
	reRole      = regexp.MustCompile(`Rol:\s*(\d+)`)
	reDays      = regexp.MustCompile(`Dias Trab:\s*(\d+)`)
	reStartDate = regexp.MustCompile(`Fecha Alta:\s*([\d/]+)`)

	// Itemized concept lines: DV (devengado/accrual) and RT (retención/
	// withholding), each "CODE LABEL AMOUNT" at end of line.
	reAccrual     = regexp.MustCompile(`(?m)DV\s+(\d+)\s+(.+?)\s+` + amountGroup + `\s*$`)
	reWithholding = regexp.MustCompile(`(?m)RT\s+(\d+)\s+(.+?)\s+` + amountGroup + `\s*$`)
)

// Concept is one itemized accrual or withholding line within a block.
type Concept struct {
	Code   string
	Label  string
	Amount decimal.Decimal
}

// Block is one parsed employee/appointment entry. An employee holding several
// appointments produces several blocks. Blocks are immutable once parsed.
type Block struct {
	Name string // as printed, unnormalized

	// Identity details, kept as printed for diagnostics.
	HRID       string
	Position   string
	Role       string
	DaysWorked string
	StartDate  string

	// Amounts always carries every monetary field; a line item absent from
	// the block is zero, not missing.
	Amounts map[FieldID]decimal.Decimal

	Accruals     []Concept
	Withholdings []Concept

	SourceDocument string
	Index          int // position within the source document
}

// Amount returns the value of a monetary field, zero when the field is
// unknown.
func (b Block) Amount(f FieldID) decimal.Decimal {
	if d, ok := b.Amounts[f]; ok {
		return d
	}
	return decimal.Zero
}

// Result is the outcome of parsing one statement's text.
type Result struct {
	Blocks  []Block // document order
	Skipped int     // blocks dropped for having no extractable name
}

// Parser extracts employee blocks from statement text.
type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse segments text into employee blocks and extracts every field of each.
// Blocks are emitted in document order. A segment without a recognizable
// name cannot be consolidated and is dropped, counted in Skipped; a block
// whose monetary fields are all absent is still emitted with zeros.
func (p *Parser) Parse(text, sourceID string) *Result {
	res := &Result{}

	starts := reBlockStart.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		p.logger.Debug("parser.no_blocks", "source", sourceID, "chars", len(text))
		return res
	}

	for i, loc := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		segment := text[loc[0]:end]

		block, ok := p.parseBlock(segment, sourceID, len(res.Blocks))
		if !ok {
			res.Skipped++
			continue
		}
		res.Blocks = append(res.Blocks, block)
	}

	p.logger.Debug("parser.ok",
		"source", sourceID,
		"blocks", len(res.Blocks),
		"skipped", res.Skipped,
	)
	return res
}

// parseBlock extracts one block from its text segment. It reports ok=false
// only when the segment has no employee name.
func (p *Parser) parseBlock(segment, sourceID string, index int) (Block, bool) {
	name := firstGroup(reName, segment)
	if name == "" {
		return Block{}, false
	}

	block := Block{
		Name:           strings.TrimSpace(name),
		HRID:           firstGroup(reHRID, segment),
		Position:       firstGroup(rePosition, segment),
		Role:           firstGroup(reRole, segment),
		DaysWorked:     firstGroup(reDays, segment),
		StartDate:      firstGroup(reStartDate, segment),
		Amounts:        make(map[FieldID]decimal.Decimal, len(amountSpecs)),
		SourceDocument: sourceID,
		Index:          index,
	}

	for _, spec := range amountSpecs {
		block.Amounts[spec.id] = p.matchAmount(spec.re, segment, sourceID)
	}

	block.Accruals = parseConcepts(reAccrual, segment)
	block.Withholdings = parseConcepts(reWithholding, segment)

	return block, true
}

// matchAmount applies one field pattern to a segment. No match means the
// line item is not part of this appointment: the value is zero, not an error.
func (p *Parser) matchAmount(re *regexp.Regexp, segment, sourceID string) decimal.Decimal {
	m := re.FindStringSubmatch(segment)
	if m == nil {
		return decimal.Zero
	}
	d, err := ParseAmount(m[1])
	if err != nil {
		p.logger.Warn("unparseable amount", "source", sourceID, "raw", m[1], "error", err)
		return decimal.Zero
	}
	return d
}

func parseConcepts(re *regexp.Regexp, segment string) []Concept {
	var concepts []Concept
	for _, m := range re.FindAllStringSubmatch(segment, -1) {
		amount, err := ParseAmount(m[3])
		if err != nil {
			continue
		}
		concepts = append(concepts, Concept{
			Code:   m[1],
			Label:  strings.TrimSpace(m[2]),
			Amount: amount,
		})
	}
	return concepts
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
