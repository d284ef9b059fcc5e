package schema

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "sqlagent/cli/internal/errors"
)

type stubIntrospector struct {
	text  string
	err   error
	calls int
}

func (s *stubIntrospector) Introspect(context.Context) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestProviderDescribe(t *testing.T) {
	tiny := Catalog{Database: "shop", Tables: []Table{{Name: "items", Description: "Things for sale."}}}

	tests := []struct {
		name        string
		database    string
		mode        Mode
		wantSource  Source
		wantCalls   int
		expectError bool
		wantKind    apperrors.Kind
	}{
		{name: "auto uses curated catalog", database: "shop", mode: ModeAuto, wantSource: SourceCurated},
		{name: "auto falls back to introspection", database: "warehouse", mode: ModeAuto, wantSource: SourceDynamic, wantCalls: 1},
		{name: "lookup is exact", database: "Shop", mode: ModeAuto, wantSource: SourceDynamic, wantCalls: 1},
		{name: "no fuzzy match", database: "shop_v2", mode: ModeAuto, wantSource: SourceDynamic, wantCalls: 1},
		{name: "dynamic ignores catalog", database: "shop", mode: ModeDynamic, wantSource: SourceDynamic, wantCalls: 1},
		{name: "curated required", database: "shop", mode: ModeCurated, wantSource: SourceCurated},
		{name: "curated missing", database: "warehouse", mode: ModeCurated, expectError: true, wantKind: apperrors.ConfigurationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(tiny)
			in := &stubIntrospector{text: "CREATE TABLE items (id int)"}

			got, err := p.Describe(context.Background(), tt.database, tt.mode, in)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if kind, _ := apperrors.KindOf(err); kind != tt.wantKind {
					t.Errorf("kind = %q, want %q", kind, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Source != tt.wantSource {
				t.Errorf("source = %v, want %v", got.Source, tt.wantSource)
			}
			if in.calls != tt.wantCalls {
				t.Errorf("introspector called %d times, want %d", in.calls, tt.wantCalls)
			}
		})
	}
}

func TestProviderDescribeIntrospectionError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewProvider().Describe(context.Background(), "x", ModeAuto, &stubIntrospector{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
}

func TestProviderDescribeWithoutIntrospector(t *testing.T) {
	_, err := NewProvider().Describe(context.Background(), "x", ModeDynamic, nil)
	if kind, ok := apperrors.KindOf(err); !ok || kind != apperrors.ConfigurationError {
		t.Fatalf("KindOf(%v) = %q, %v", err, kind, ok)
	}
}

func TestDescriptionRender(t *testing.T) {
	curated := Description{Source: SourceCurated, Catalog: Catalog{
		Database: "shop",
		Tables: []Table{
			{Name: "items", Description: "Things for sale."},
			{Name: "orders", Description: "Purchases."},
		},
	}}
	want := "Here is the Database Schema for shop you must use:\n" +
		"\nTable: items\nThings for sale.\n" +
		"\nTable: orders\nPurchases.\n"
	if got := curated.Render(); got != want {
		t.Errorf("curated Render() = %q, want %q", got, want)
	}

	dynamic := Description{Source: SourceDynamic, Text: "CREATE TABLE t (id int)"}
	if got := dynamic.Render(); got != "Here is the schema of the database you are connected to:\nCREATE TABLE t (id int)" {
		t.Errorf("dynamic Render() = %q", got)
	}
}

func TestBuiltinCatalogs(t *testing.T) {
	cats := BuiltinCatalogs()
	if len(cats) != 1 || cats[0].Database != "bike_store" {
		t.Fatalf("unexpected builtin catalogs: %+v", cats)
	}

	var names []string
	for _, tbl := range cats[0].Tables {
		names = append(names, tbl.Name)
		if tbl.Name == "order_items" && !strings.Contains(tbl.Description, "quantity * list_price * (1 - discount)") {
			t.Error("order_items is missing the revenue rule")
		}
	}
	want := []string{"brands", "categories", "products", "customers", "orders", "order_items", "stocks", "stores", "staffs"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("table order mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCatalogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogs.yaml")
	content := `catalogs:
  - database: massive-bank
    tables:
      - name: accounts
        description: |
          Bank accounts.
          Columns:
          - account_id (Integer): Primary Key.
      - name: transfers
        description: Money movements between accounts.
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadCatalogs(path)
	if err != nil {
		t.Fatalf("LoadCatalogs: %v", err)
	}
	want := []Catalog{{
		Database: "massive-bank",
		Tables: []Table{
			{Name: "accounts", Description: "Bank accounts.\nColumns:\n- account_id (Integer): Primary Key."},
			{Name: "transfers", Description: "Money movements between accounts."},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadCatalogs mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCatalogsErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid yaml", content: "catalogs: [\n"},
		{name: "missing database", content: "catalogs:\n  - tables: []\n"},
		{name: "missing table name", content: "catalogs:\n  - database: x\n    tables:\n      - description: y\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadCatalogs(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	if _, err := LoadCatalogs(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRegisterOverridesBuiltin(t *testing.T) {
	p := NewProvider(BuiltinCatalogs()...)
	p.Register(Catalog{Database: "bike_store", Tables: []Table{{Name: "bikes", Description: "override"}}})

	c, ok := p.Lookup("bike_store")
	if !ok || len(c.Tables) != 1 || c.Tables[0].Name != "bikes" {
		t.Errorf("Lookup after Register = %+v, %v", c, ok)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in          string
		want        Mode
		expectError bool
	}{
		{in: "", want: ModeAuto},
		{in: "AUTO", want: ModeAuto},
		{in: " curated ", want: ModeCurated},
		{in: "dynamic", want: ModeDynamic},
		{in: "fuzzy", expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.expectError {
				t.Fatalf("ParseMode(%q) error = %v, expectError %v", tt.in, err, tt.expectError)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
