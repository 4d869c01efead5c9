package query

import (
	"context"
	"time"

	"cbg/internal/config"
	"cbg/internal/llm"
	"cbg/internal/logging"
	"cbg/internal/safety"
	"cbg/internal/telemetry"
)

// Engine runs the full question pipeline. It holds no per-query state, so a
// single Engine serves concurrent questions over the same read-only store.
type Engine struct {
	store    Store
	cfg      *config.Config
	filter   *safety.Filter
	owners   OwnerResolver
	rewriter llm.Rewriter
	sink     *telemetry.Sink
	logger   *logging.Logger
}

// New creates an Engine. owners, rewriter, and sink may be nil.
func New(store Store, cfg *config.Config, owners OwnerResolver, rewriter llm.Rewriter, sink *telemetry.Sink, logger *logging.Logger) *Engine {
	return &Engine{
		store:    store,
		cfg:      cfg,
		filter:   safety.NewFilter(cfg.Safety.Categories),
		owners:   owners,
		rewriter: rewriter,
		sink:     sink,
		logger:   logger,
	}
}

// Request is one question.
type Request struct {
	Question string
	// PathHint optionally points owner lookup at a repo path.
	PathHint string
}

// Ask answers a plain question.
func (e *Engine) Ask(ctx context.Context, question string) (*AnswerResponse, error) {
	return e.Answer(ctx, Request{Question: question})
}

// Answer runs extraction, retrieval, ranking, the abstain policy, and
// composition. Zero terms or zero evidence are not errors; they produce a
// well-formed needs_human response.
func (e *Engine) Answer(ctx context.Context, req Request) (*AnswerResponse, error) {
	start := time.Now()

	qc := QueryContext{
		Question: req.Question,
		Terms:    ExtractTerms(req.Question, e.cfg.Topics.Keywords),
		PathHint: req.PathHint,
	}
	flags := e.filter.DetectTopics(req.Question)

	items, err := Retrieve(e.store, qc, e.cfg.Ask.HopLimit)
	if err != nil {
		return nil, err
	}

	inbound, err := e.store.InboundCounts()
	if err != nil {
		// Importance falls back to neutral; never fabricate confidence from
		// a failed read.
		e.logger.Warn("inbound counts unavailable", map[string]any{"error": err.Error()})
		inbound = nil
	}

	ranked := Rank(items, qc, e.cfg.Ranking, inbound, e.cfg.Ask.TopK)
	dec := Evaluate(ranked, qc.Terms, e.cfg.Thresholds, e.cfg.Ask.TopK, flags)
	resp := Compose(qc, ranked, dec, flags, e.owners)

	if e.rewriter != nil && e.cfg.LLM.Enabled && dec.Mode == ModeAnswer && len(ranked) > 0 {
		e.rewrite(ctx, req.Question, resp)
	}

	if err := e.sink.Append(telemetry.Record{
		Question:      req.Question,
		Terms:         termTexts(qc.Terms),
		EvidenceCount: len(ranked),
		Confidence:    dec.Confidence,
		Band:          dec.Band,
		NeedsHuman:    dec.NeedsHuman,
		Mode:          dec.Mode,
		Flags:         flags,
		DurationMs:    time.Since(start).Milliseconds(),
	}); err != nil {
		e.logger.Warn("telemetry append failed", map[string]any{"error": err.Error()})
	}

	return resp, nil
}

// rewrite replaces the template answer with LLM prose grounded on the same
// evidence. Any failure falls back to the template; the safety filter runs
// on the rewritten text either way.
func (e *Engine) rewrite(ctx context.Context, question string, resp *AnswerResponse) {
	draft := resp.Answer
	for _, c := range resp.Components {
		draft += "\n- " + c.Description
	}

	out, err := e.rewriter.Rewrite(ctx, question, draft)
	if err != nil {
		e.logger.Warn("rewrite failed, keeping template answer", map[string]any{"error": err.Error()})
		return
	}
	resp.Answer = safety.RedactPII(out)
	resp.Rewritten = true
}
