package sqlexec

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tmc/langchaingo/llms"

	apperrors "sqlagent/cli/internal/errors"
)

type fakeDB struct {
	tables  []string
	info    string
	result  Result
	err     error
	queries []string
	infoFor [][]string
}

func (f *fakeDB) Dialect() string      { return "postgresql" }
func (f *fakeDB) TableNames() []string { return f.tables }
func (f *fakeDB) Close() error         { return nil }

func (f *fakeDB) TableInfo(_ context.Context, tables []string) (string, error) {
	f.infoFor = append(f.infoFor, tables)
	return f.info, f.err
}

func (f *fakeDB) Query(_ context.Context, q string) (Result, error) {
	f.queries = append(f.queries, q)
	return f.result, f.err
}

func TestQueryToolCall(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connect: connection refused")}

	tests := []struct {
		name      string
		input     string
		result    Result
		dbErr     error
		want      string
		wantQuery string
		wantKind  apperrors.Kind
	}{
		{
			name:      "raw sql",
			input:     "SELECT COUNT(*) FROM brands",
			result:    Result{Columns: []string{"count"}, Rows: [][]string{{"9"}}},
			want:      `{"columns":["count"],"rows":[["9"]]}`,
			wantQuery: "SELECT COUNT(*) FROM brands",
		},
		{
			name:      "json input",
			input:     `{"query": "SELECT 1"}`,
			result:    Result{Columns: []string{"?column?"}, Rows: [][]string{{"1"}}},
			want:      `{"columns":["?column?"],"rows":[["1"]]}`,
			wantQuery: "SELECT 1",
		},
		{
			name:      "empty result",
			input:     "SELECT * FROM brands WHERE 1=0",
			result:    Result{Columns: []string{"brand_id"}},
			want:      `{"columns":["brand_id"],"rows":[]}`,
			wantQuery: "SELECT * FROM brands WHERE 1=0",
		},
		{
			name:      "sql error becomes observation",
			input:     "SELECT nam FROM brands",
			dbErr:     errors.New(`ERROR: column "nam" does not exist (SQLSTATE 42703)`),
			want:      `Error: ERROR: column "nam" does not exist (SQLSTATE 42703)`,
			wantQuery: "SELECT nam FROM brands",
		},
		{
			name:      "connectivity failure is raised",
			input:     "SELECT 1",
			dbErr:     refused,
			wantQuery: "SELECT 1",
			wantKind:  apperrors.DatabaseConnectivity,
		},
		{
			name:  "blank input",
			input: "   ",
			want:  "Error: empty query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeDB{result: tt.result, err: tt.dbErr}
			got, err := QueryTool{DB: db}.Call(context.Background(), tt.input)

			if tt.wantKind != "" {
				if kind, _ := apperrors.KindOf(err); kind != tt.wantKind {
					t.Fatalf("error = %v, want kind %q", err, tt.wantKind)
				}
				if !errors.Is(err, refused) {
					t.Errorf("cause not preserved: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Call() = %q, want %q", got, tt.want)
			}
			if tt.wantQuery != "" && (len(db.queries) != 1 || db.queries[0] != tt.wantQuery) {
				t.Errorf("queries = %q, want [%q]", db.queries, tt.wantQuery)
			}
		})
	}
}

func TestQueryToolCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := QueryTool{DB: &fakeDB{err: errors.New("canceling statement due to user request")}}.Call(ctx, "SELECT pg_sleep(10)")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSchemaToolCall(t *testing.T) {
	db := &fakeDB{tables: []string{"brands", "stores"}, info: "CREATE TABLE brands (...)"}
	tool := SchemaTool{DB: db}

	got, err := tool.Call(context.Background(), "brands, `stores`")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != db.info {
		t.Errorf("Call() = %q", got)
	}
	if diff := cmp.Diff([][]string{{"brands", "stores"}}, db.infoFor); diff != "" {
		t.Errorf("TableInfo args mismatch (-want +got):\n%s", diff)
	}

	got, err = tool.Call(context.Background(), "brands, payments, shippers")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != "Error: table_names {payments, shippers} not found in database" {
		t.Errorf("Call() = %q", got)
	}

	got, _ = tool.Call(context.Background(), " , ")
	if !strings.HasPrefix(got, "Error:") {
		t.Errorf("Call() with no tables = %q", got)
	}
}

func TestListTablesToolCall(t *testing.T) {
	got, err := ListTablesTool{DB: &fakeDB{tables: []string{"brands", "categories", "products"}}}.Call(context.Background(), "")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != "brands, categories, products" {
		t.Errorf("Call() = %q", got)
	}
}

type fakeLLM struct {
	prompt string
	reply  string
	err    error
}

func (f *fakeLLM) GenerateContent(_ context.Context, msgs []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, m := range msgs {
		for _, p := range m.Parts {
			if tp, ok := p.(llms.TextContent); ok {
				f.prompt += tp.Text
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, opts...)
}

func TestQueryCheckerToolCall(t *testing.T) {
	llm := &fakeLLM{reply: "  SELECT brand_name FROM brands LIMIT 10\n"}
	tool := QueryCheckerTool{LLM: llm, Dialect: "postgresql"}

	got, err := tool.Call(context.Background(), "SELECT brand_name FROM brands LIMIT 10")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != "SELECT brand_name FROM brands LIMIT 10" {
		t.Errorf("Call() = %q", got)
	}
	if !strings.Contains(llm.prompt, "Double check the postgresql query above") {
		t.Errorf("prompt does not name the dialect: %q", llm.prompt)
	}

	llm.err = errors.New("401 Unauthorized")
	if _, err := tool.Call(context.Background(), "SELECT 1"); err == nil {
		t.Error("expected provider error to be returned")
	}
}

func TestToolkit(t *testing.T) {
	db := &fakeDB{}

	var names []string
	for _, tl := range Toolkit(db, &fakeLLM{}) {
		names = append(names, tl.Name())
	}
	want := []string{"sql_db_query", "sql_db_schema", "sql_db_list_tables", "sql_db_query_checker"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("tool names mismatch (-want +got):\n%s", diff)
	}

	if n := len(Toolkit(db, nil)); n != 3 {
		t.Errorf("Toolkit without model has %d tools, want 3", n)
	}
}
