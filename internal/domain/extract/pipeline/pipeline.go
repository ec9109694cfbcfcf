// Package pipeline orchestrates the full extraction run: every input
// document is sniffed, decoded and parsed independently, then a single
// consolidation pass merges all blocks into one record per employee.
//
// A failing document never aborts the run; its error is recorded on the
// result and the remaining documents proceed. The run as a whole fails only
// when no document yields a single usable block.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/gersimian1/LiquidaPro/internal/domain/extract/consolidator"
	"github.com/gersimian1/LiquidaPro/internal/domain/extract/parser"
	"github.com/gersimian1/LiquidaPro/internal/domain/extract/sniffer"
	"github.com/gersimian1/LiquidaPro/internal/domain/extract/textextract"
)

// ErrNoRecords is the fatal outcome of a run in which no document produced
// any employee block.
var ErrNoRecords = errors.New("no employee records found in any document")

// Document is one input payload. Name is used for diagnostics and labeling
// only; format decisions come exclusively from the bytes.
type Document struct {
	Name string
	Data []byte
}

// DocumentError records why one document contributed nothing to the run.
type DocumentError struct {
	Document string
	Err      error
}

func (e DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Document, e.Err)
}

// Options configures one run.
type Options struct {
	// Fields is the ordered projection applied after consolidation. Empty
	// means every field in canonical order, name first.
	Fields []parser.FieldID
	// Ordering of the consolidated employees.
	Ordering consolidator.Ordering
	// Workers bounds the per-document fan-out; 0 means GOMAXPROCS.
	Workers int
	// Progress, when set, is called after each document finishes, with the
	// number of completed documents and the total. Calls may come from
	// concurrent workers.
	Progress func(done, total int)
}

// Result is the outcome of a run, handed off once and read-only afterward.
type Result struct {
	Employees []consolidator.Employee

	// Fields is the applied projection; Totals holds the grand total of
	// each retained monetary field over all employees.
	Fields []parser.FieldID
	Totals map[parser.FieldID]decimal.Decimal

	TotalBlocks     int
	UniqueEmployees int
	SkippedBlocks   int
	DocumentErrors  []DocumentError
}

// Pipeline runs extraction and consolidation over a set of documents.
type Pipeline struct {
	extractor *textextract.Extractor
	parser    *parser.Parser
	logger    *slog.Logger
}

func New(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		extractor: textextract.New(logger),
		parser:    parser.NewParser(logger),
		logger:    logger,
	}
}

// docOutcome is the per-document fan-out product; results are written into
// per-index slots so the merged block sequence is deterministic.
type docOutcome struct {
	parsed *parser.Result
	err    error
}

// Run processes every document and returns the consolidated result. Each
// document is independent until consolidation, so extraction and parsing
// fan out across workers; consolidation itself is a single ordered pass.
// Cancellation is honored at document boundaries and discards everything.
func (p *Pipeline) Run(ctx context.Context, docs []Document, opts Options) (*Result, error) {
	if len(docs) == 0 {
		return nil, ErrNoRecords
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	outcomes := make([]docOutcome, len(docs))
	var done atomic.Int64

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			outcomes[i] = p.processDocument(groupCtx, doc)
			if opts.Progress != nil {
				opts.Progress(int(done.Add(1)), len(docs))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Only cancellation reaches here; per-document failures are
		// recorded in their outcome slot.
		return nil, err
	}

	res := &Result{}
	acc := consolidator.NewAccumulator()
	for i, out := range outcomes {
		if out.err != nil {
			res.DocumentErrors = append(res.DocumentErrors, DocumentError{Document: docs[i].Name, Err: out.err})
			continue
		}
		for _, b := range out.parsed.Blocks {
			acc.Fold(b)
		}
		res.TotalBlocks += len(out.parsed.Blocks)
		res.SkippedBlocks += out.parsed.Skipped
	}

	if res.TotalBlocks == 0 {
		p.logger.Error("pipeline.run.empty", "documents", len(docs), "errors", len(res.DocumentErrors))
		return nil, fmt.Errorf("%w (%d documents, %d failed)", ErrNoRecords, len(docs), len(res.DocumentErrors))
	}

	res.Employees = acc.Employees(opts.Ordering)
	res.UniqueEmployees = len(res.Employees)
	res.Fields = resolveFields(opts.Fields)
	res.Totals = grandTotals(res.Employees, res.Fields)

	p.logger.Info("pipeline.run.ok",
		"documents", len(docs),
		"failed_documents", len(res.DocumentErrors),
		"blocks", res.TotalBlocks,
		"skipped_blocks", res.SkippedBlocks,
		"employees", res.UniqueEmployees,
	)
	return res, nil
}

// processDocument runs sniff → extract → parse for one document. A document
// that yields no blocks is an error at this level so the caller can report
// it alongside extraction failures.
func (p *Pipeline) processDocument(ctx context.Context, doc Document) docOutcome {
	class := sniffer.Classify(doc.Data)

	extracted, err := p.extractor.Extract(ctx, doc.Data, class)
	if err != nil {
		p.logger.Warn("document extraction failed", "document", doc.Name, "format", class.String(), "error", err)
		return docOutcome{err: err}
	}

	parsed := p.parser.Parse(extracted.Text, doc.Name)
	if len(parsed.Blocks) == 0 {
		return docOutcome{err: fmt.Errorf("no employee records found (format %s, method %s)", class, extracted.Method)}
	}

	p.logger.Debug("document processed",
		"document", doc.Name,
		"format", class.String(),
		"method", extracted.Method,
		"blocks", len(parsed.Blocks),
		"skipped", parsed.Skipped,
	)
	return docOutcome{parsed: parsed}
}

// resolveFields applies the default projection when none is given.
func resolveFields(fields []parser.FieldID) []parser.FieldID {
	if len(fields) > 0 {
		out := make([]parser.FieldID, len(fields))
		copy(out, fields)
		return out
	}
	return append([]parser.FieldID{parser.FieldName}, parser.MonetaryFields()...)
}

// grandTotals sums each retained monetary field over all employees.
func grandTotals(employees []consolidator.Employee, fields []parser.FieldID) map[parser.FieldID]decimal.Decimal {
	totals := make(map[parser.FieldID]decimal.Decimal, len(fields))
	for _, f := range fields {
		if f == parser.FieldName {
			continue
		}
		sum := decimal.Zero
		for _, e := range employees {
			sum = sum.Add(e.Amount(f))
		}
		totals[f] = sum
	}
	return totals
}
