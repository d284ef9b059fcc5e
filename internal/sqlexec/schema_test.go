package sqlexec

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractEnumValues(t *testing.T) {
	tests := []struct {
		name   string
		clause string
		want   []string
	}{
		{
			name:   "in list",
			clause: "status IN ('queued','running','done','failed')",
			want:   []string{"queued", "running", "done", "failed"},
		},
		{
			name:   "any array with casts",
			clause: "((order_status)::text = ANY ((ARRAY['pending'::character varying, 'shipped'::character varying])::text[]))",
			want:   []string{"pending", "shipped"},
		},
		{
			name:   "simple any array",
			clause: "status = ANY (ARRAY['a'::text, 'b'::text])",
			want:   []string{"a", "b"},
		},
		{
			name:   "range check",
			clause: "(discount >= 0 AND discount <= 1)",
			want:   nil,
		},
		{
			name:   "function call is not an in list",
			clause: "(length(name) > min_len(3))",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, extractEnumValues(tt.clause)); diff != "" {
				t.Errorf("extractEnumValues() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTableName(t *testing.T) {
	tests := []struct {
		in, schema, table string
	}{
		{"orders", "public", "orders"},
		{"sales.orders", "sales", "orders"},
	}
	for _, tt := range tests {
		s, tb := parseTableName(tt.in)
		if s != tt.schema || tb != tt.table {
			t.Errorf("parseTableName(%q) = %q, %q", tt.in, s, tb)
		}
	}
}

func TestSchemaInfoRender(t *testing.T) {
	info := &SchemaInfo{
		TableName:      "orders",
		PrimaryKeyCols: []string{"order_id"},
		ForeignKeys: []ForeignKey{
			{Column: "customer_id", RefTable: "customers", RefColumn: "customer_id"},
			{Column: "store_id", RefTable: "stores", RefColumn: "store_id"},
		},
		EnumValues: map[string][]string{
			"status":  {"open", "closed"},
			"channel": {"web", "store"},
		},
	}
	want := "- orders\n" +
		"  primary key: order_id\n" +
		"  customer_id references customers.customer_id\n" +
		"  store_id references stores.store_id\n" +
		"  channel allowed values: web, store\n" +
		"  status allowed values: open, closed\n"
	if got := info.render(); got != want {
		t.Errorf("render() = %q, want %q", got, want)
	}

	if got := (&SchemaInfo{TableName: "log"}).render(); got != "" {
		t.Errorf("render() of bare table = %q, want empty", got)
	}
}

func TestSchemaInspectorUsesCache(t *testing.T) {
	si := NewSchemaInspector(nil)
	si.cache["orders"] = &SchemaInfo{TableName: "orders", PrimaryKeyCols: []string{"order_id"}}

	got, err := si.Describe(context.Background(), []string{"orders"})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if got != "Constraints:\n- orders\n  primary key: order_id\n" {
		t.Errorf("Describe() = %q", got)
	}

	si.ClearCache()
	if len(si.cache) != 0 {
		t.Error("ClearCache left entries behind")
	}
}

func TestIntrospector(t *testing.T) {
	db := &fakeDB{tables: []string{"orders"}, info: "CREATE TABLE orders (order_id int)\n\n"}

	got, err := (&Introspector{DB: db}).Introspect(context.Background())
	if err != nil {
		t.Fatalf("Introspect: %v", err)
	}
	if got != "CREATE TABLE orders (order_id int)" {
		t.Errorf("Introspect() = %q", got)
	}
	if len(db.infoFor) != 1 || db.infoFor[0] != nil {
		t.Errorf("TableInfo should be asked for every table, got %q", db.infoFor)
	}

	si := NewSchemaInspector(nil)
	si.cache["orders"] = &SchemaInfo{TableName: "orders", ForeignKeys: []ForeignKey{{Column: "store_id", RefTable: "stores", RefColumn: "store_id"}}}
	got, err = (&Introspector{DB: db, Constraints: si}).Introspect(context.Background())
	if err != nil {
		t.Fatalf("Introspect: %v", err)
	}
	if !strings.HasSuffix(got, "\n\nConstraints:\n- orders\n  store_id references stores.store_id") {
		t.Errorf("Introspect() = %q", got)
	}
}

func TestIntrospectorError(t *testing.T) {
	boom := errors.New("connection refused")
	if _, err := (&Introspector{DB: &fakeDB{err: boom}}).Introspect(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
