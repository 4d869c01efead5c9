package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cbg/internal/config"
	"cbg/internal/logging"
	"cbg/internal/storage"
	"cbg/internal/telemetry"
)

type seedSymbol struct {
	file      string
	name      string
	kind      string
	startLine int
	endLine   int
}

type seedCall struct {
	src  string
	dst  string
	line int
}

func seedStore(t *testing.T, symbols []seedSymbol, calls []seedCall) *storage.DB {
	t.Helper()
	db, err := storage.OpenPath(filepath.Join(t.TempDir(), "graph.db"), logging.NewDiscard())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	err = db.WithTx(func(tx *sql.Tx) error {
		fileIDs := map[string]int64{}
		symbolIDs := map[string]int64{}
		for _, s := range symbols {
			fid, ok := fileIDs[s.file]
			if !ok {
				var err error
				fid, err = db.UpsertFile(tx, s.file, "python", 100)
				if err != nil {
					return err
				}
				fileIDs[s.file] = fid
			}
			id, err := db.InsertSymbol(tx, fid, s.name, s.kind, s.startLine, s.endLine)
			if err != nil {
				return err
			}
			symbolIDs[s.name] = id
		}
		for _, c := range calls {
			src := symbolIDs[c.src]
			var fid int64
			for _, s := range symbols {
				if s.name == c.src {
					fid = fileIDs[s.file]
				}
			}
			if err := db.InsertRelation(tx, src, c.dst, storage.RelationCalls, fid, c.line); err != nil {
				return err
			}
		}
		return db.ResolveRelationTargets(tx)
	})
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func authGraph(t *testing.T) *storage.DB {
	return seedStore(t,
		[]seedSymbol{
			{"auth.py", "login", "function", 1, 3},
			{"crypto.py", "verify_password", "function", 1, 3},
			{"crypto.py", "hash_compare", "function", 5, 7},
			{"shop.py", "checkout_cart", "function", 1, 4},
		},
		[]seedCall{
			{"login", "verify_password", 2},
			{"verify_password", "hash_compare", 2},
		},
	)
}

func newEngine(t *testing.T, db *storage.DB, cfg *config.Config) *Engine {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	return New(db, cfg, nil, nil, nil, logging.NewDiscard())
}

func TestZeroTermsAbstains(t *testing.T) {
	eng := newEngine(t, authGraph(t), nil)

	resp, err := eng.Ask(context.Background(), "what is the meaning of life?")
	if err != nil {
		t.Fatal(err)
	}
	if !resp.NeedsHuman {
		t.Error("zero-term question must be flagged needs_human")
	}
	if len(resp.Components) != 0 {
		t.Errorf("expected empty evidence, got %d components", len(resp.Components))
	}
	if resp.Answer == "" || resp.Uncertainty == "" {
		t.Error("abstaining response must still be well-formed")
	}
}

func TestNoEvidenceForUnknownIdentifier(t *testing.T) {
	eng := newEngine(t, authGraph(t), nil)

	resp, err := eng.Ask(context.Background(), "where is frobnicate_widget defined?")
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Terms) == 0 {
		t.Fatal("underscored token should extract as a term")
	}
	if !resp.NeedsHuman || len(resp.Components) != 0 {
		t.Errorf("unknown identifier should abstain: needsHuman=%v components=%d",
			resp.NeedsHuman, len(resp.Components))
	}
}

func TestAuthQuestionNamesAuthFile(t *testing.T) {
	eng := newEngine(t, authGraph(t), nil)

	resp, err := eng.Ask(context.Background(), "Where does authentication happen?")
	if err != nil {
		t.Fatal(err)
	}

	foundTopic := false
	for _, term := range resp.Terms {
		if term == "auth" {
			foundTopic = true
		}
	}
	if !foundTopic {
		t.Errorf("expected topic term auth, got %v", resp.Terms)
	}
	if len(resp.Components) == 0 {
		t.Fatal("expected evidence")
	}
	if !strings.Contains(resp.Components[0].Path, "auth.py") {
		t.Errorf("top evidence should reference auth.py, got %q", resp.Components[0].Path)
	}
	if !strings.Contains(resp.Answer, "auth.py") {
		t.Errorf("direct answer should name auth.py, got %q", resp.Answer)
	}
}

func TestDirectMatchAndCallPath(t *testing.T) {
	eng := newEngine(t, authGraph(t), nil)

	resp, err := eng.Ask(context.Background(), "What does verify_password do?")
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Components) < 2 {
		t.Fatalf("expected direct match plus call path, got %d components", len(resp.Components))
	}
	if resp.Components[0].Kind != string(EvidenceDirect) {
		t.Errorf("direct match should rank first, got %s", resp.Components[0].Kind)
	}

	foundPath := false
	for _, c := range resp.Components {
		if c.Kind == string(EvidenceCallPath) && strings.Contains(c.Description, "hash_compare") {
			foundPath = true
		}
	}
	if !foundPath {
		t.Error("call-path evidence for hash_compare missing")
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	eng := newEngine(t, authGraph(t), nil)

	first, err := eng.Ask(context.Background(), "How is login implemented?")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := eng.Ask(context.Background(), "How is login implemented?")
		if err != nil {
			t.Fatal(err)
		}
		a, _ := json.Marshal(first)
		b, _ := json.Marshal(again)
		if string(a) != string(b) {
			t.Fatalf("run %d differs:\n%s\n%s", i, a, b)
		}
	}
}

func TestRankingIsTotalOrder(t *testing.T) {
	eng := newEngine(t, authGraph(t), nil)

	resp, err := eng.Ask(context.Background(), "How is login implemented?")
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(resp.Components); i++ {
		if resp.Components[i-1].Score < resp.Components[i].Score {
			t.Errorf("component %d outranks %d with lower score", i-1, i)
		}
	}
}

func TestCyclicCallGraphTerminates(t *testing.T) {
	db := seedStore(t,
		[]seedSymbol{
			{"rec.py", "do_ping", "function", 1, 2},
			{"rec.py", "do_pong", "function", 4, 5},
		},
		[]seedCall{
			{"do_ping", "do_pong", 2},
			{"do_pong", "do_ping", 5},
		},
	)
	eng := newEngine(t, db, nil)

	// Traversal over the a-calls-b-calls-a cycle must terminate.
	resp, err := eng.Ask(context.Background(), "What happens inside do_ping?")
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Components) < 2 {
		t.Fatalf("expected direct plus call-path evidence, got %d", len(resp.Components))
	}
}

func TestFlowBoostRaisesCalleeScore(t *testing.T) {
	db := authGraph(t)
	qc := QueryContext{
		Question: "verify_password",
		Terms:    []Term{{Text: "verify_password", Kind: TermIdentifier}},
	}

	items, err := Retrieve(db, qc, 2)
	if err != nil {
		t.Fatal(err)
	}
	inbound, err := db.InboundCounts()
	if err != nil {
		t.Fatal(err)
	}

	boosted := config.Default().Ranking
	flat := boosted
	flat.FlowBoost = 0

	withBoost := Rank(cloneItems(items), qc, boosted, inbound, 10)
	without := Rank(cloneItems(items), qc, flat, inbound, 10)

	if calleeScore(withBoost, "hash_compare") <= calleeScore(without, "hash_compare") {
		t.Error("flow boost should raise the score of a callee of high-scoring evidence")
	}
}

func cloneItems(items []EvidenceItem) []EvidenceItem {
	return append([]EvidenceItem(nil), items...)
}

func calleeScore(items []EvidenceItem, name string) float64 {
	for _, item := range items {
		if item.Symbol != nil && item.Symbol.Name == name {
			return item.Score
		}
	}
	return -1
}

func TestSensitiveConfidentAnswerEscalates(t *testing.T) {
	eng := newEngine(t, authGraph(t), nil)

	resp, err := eng.Ask(context.Background(), "Is verify_password exposed by the breach?")
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Flags) == 0 {
		t.Fatal("question should be flagged sensitive")
	}
	if resp.Mode != ModeEscalate {
		t.Errorf("sensitive + confident should escalate, got mode=%s confidence=%v",
			resp.Mode, resp.Confidence)
	}
	if !resp.NeedsHuman {
		t.Error("escalated answers must carry needs_human")
	}
}

func TestSensitiveLowConfidenceDoesNotEscalate(t *testing.T) {
	eng := newEngine(t, authGraph(t), nil)

	// Sensitive wording but no matching evidence: confidence stays below the
	// flagged cap, so the normal abstain path applies.
	resp, err := eng.Ask(context.Background(), "Did the gdpr lawsuit mention frobnicate_widget?")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Mode != ModeAnswer {
		t.Errorf("low-confidence sensitive question should not escalate, got %s", resp.Mode)
	}
	if !resp.NeedsHuman {
		t.Error("zero evidence must still abstain")
	}
}

func TestEvidencePIIRedacted(t *testing.T) {
	db := seedStore(t,
		[]seedSymbol{
			{"mail/contact_user@example.com.py", "send_mail", "function", 1, 4},
		},
		nil,
	)
	eng := newEngine(t, db, nil)

	resp, err := eng.Ask(context.Background(), "Where is send_mail defined?")
	if err != nil {
		t.Fatal(err)
	}

	blob, _ := json.Marshal(struct {
		Answer      string   `json:"answer"`
		Uncertainty string   `json:"uncertainty"`
		Actions     []string `json:"actions"`
	}{resp.Answer, resp.Uncertainty, resp.NextActions})
	if strings.Contains(string(blob), "user@example.com") {
		t.Errorf("literal email leaked into generated text: %s", blob)
	}
	if !strings.Contains(resp.Answer, "[REDACTED_EMAIL]") {
		t.Errorf("expected redaction placeholder in answer: %q", resp.Answer)
	}
}

type staticOwners struct{ owners []string }

func (s staticOwners) OwnersForPaths(paths []string) []string { return s.owners }

func TestOwnerSuggestionFromEvidence(t *testing.T) {
	cfg := config.Default()
	eng := New(authGraph(t), cfg, staticOwners{owners: []string{"@identity"}}, nil, nil, logging.NewDiscard())

	resp, err := eng.Ask(context.Background(), "How is login implemented?")
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Owners) != 1 || resp.Owners[0] != "@identity" {
		t.Errorf("owners = %v, want [@identity]", resp.Owners)
	}
}

type fakeRewriter struct {
	out string
	err error
}

func (f fakeRewriter) Rewrite(ctx context.Context, question, draft string) (string, error) {
	return f.out, f.err
}

func TestRewriterFailureFallsBackToTemplate(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Enabled = true
	eng := New(authGraph(t), cfg, nil, fakeRewriter{err: errors.New("timeout")}, nil, logging.NewDiscard())

	resp, err := eng.Ask(context.Background(), "How is login implemented?")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Rewritten {
		t.Error("failed rewrite must not be marked rewritten")
	}
	if !strings.HasPrefix(resp.Answer, "Relevant components:") {
		t.Errorf("expected template fallback, got %q", resp.Answer)
	}
}

func TestRewriterOutputIsRedacted(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Enabled = true
	eng := New(authGraph(t), cfg,
		nil, fakeRewriter{out: "login lives in auth.py, ping admin@corp.io"}, nil, logging.NewDiscard())

	resp, err := eng.Ask(context.Background(), "How is login implemented?")
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Rewritten {
		t.Error("successful rewrite should be marked")
	}
	if strings.Contains(resp.Answer, "admin@corp.io") {
		t.Errorf("rewriter output not redacted: %q", resp.Answer)
	}
}

func TestTelemetryRecordsQuestionAndTerms(t *testing.T) {
	root := t.TempDir()
	sink := telemetry.NewSink(root, true)
	eng := New(authGraph(t), config.Default(), nil, nil, sink, logging.NewDiscard())

	if _, err := eng.Ask(context.Background(), "How is login implemented?"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(root, ".cbg", "telemetry.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	var rec telemetry.Record
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Question != "How is login implemented?" {
		t.Errorf("question not recorded: %+v", rec)
	}
	if len(rec.Terms) != 1 || rec.Terms[0] != "login" {
		t.Errorf("terms not recorded: %v", rec.Terms)
	}
	if rec.ID == "" || rec.Timestamp == "" {
		t.Errorf("missing id or timestamp: %+v", rec)
	}
}

func TestExtractTermsShapes(t *testing.T) {
	topics := config.Default().Topics.Keywords

	tests := []struct {
		question string
		want     []string
	}{
		{"Where does verify_password live?", []string{"verify_password"}},
		{"Where does authentication happen?", []string{"auth"}},
		{"Does parseRequest call sendMail?", []string{"parseRequest", "sendMail"}},
		{"explain utils.helpers please", []string{"utils.helpers"}},
		{"What is the meaning of life?", nil},
		{"Is login checked during checkout?", []string{"login", "checkout"}},
	}
	for _, tt := range tests {
		got := termTexts(ExtractTerms(tt.question, topics))
		if len(got) != len(tt.want) {
			t.Errorf("ExtractTerms(%q) = %v, want %v", tt.question, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ExtractTerms(%q) = %v, want %v", tt.question, got, tt.want)
			}
		}
	}
}

func TestConfidenceBands(t *testing.T) {
	tests := []struct {
		confidence float64
		want       string
	}{
		{0.85, BandHigh},
		{0.7, BandHigh},
		{0.5, BandMedium},
		{0.4, BandMedium},
		{0.1, BandLow},
	}
	for _, tt := range tests {
		if got := band(tt.confidence); got != tt.want {
			t.Errorf("band(%v) = %s, want %s", tt.confidence, got, tt.want)
		}
	}
}
