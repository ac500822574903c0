package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/veilwork/grimoire/internal/pql"
	"github.com/veilwork/grimoire/internal/settings"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpen_CreatesDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer c.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	for i := 0; i < 3; i++ {
		c, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		c.Close()
	}
}

func TestImportSources_RoundTrip(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	err := c.ImportSources(ctx, []SourceTable{
		{Name: "necronomicron", Database: "vault", Schema: "occult", Columns: []string{"source", "performed_at"}},
		{Name: "arcana", Columns: []string{"sigil", "circle"}},
	})
	if err != nil {
		t.Fatalf("ImportSources() failed: %v", err)
	}

	ok, err := c.HasSource(ctx, "necronomicron")
	if err != nil {
		t.Fatalf("HasSource() failed: %v", err)
	}
	if !ok {
		t.Error("HasSource(necronomicron) = false; want true")
	}

	ok, err = c.HasSource(ctx, "hollow")
	if err != nil {
		t.Fatalf("HasSource() failed: %v", err)
	}
	if ok {
		t.Error("HasSource(hollow) = true; want false")
	}

	cols, ok, err := c.SourceColumns(ctx, "necronomicron")
	if err != nil {
		t.Fatalf("SourceColumns() failed: %v", err)
	}
	if !ok {
		t.Fatal("SourceColumns(necronomicron) reported the source unknown")
	}
	if len(cols) != 2 || cols[0] != "source" || cols[1] != "performed_at" {
		t.Errorf("SourceColumns() = %v; want [source performed_at]", cols)
	}

	if _, ok, _ := c.SourceColumns(ctx, "hollow"); ok {
		t.Error("SourceColumns(hollow) reported a missing source as known")
	}
}

func TestImportSources_ReplacesColumns(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	first := []SourceTable{{Name: "arcana", Columns: []string{"sigil", "circle"}}}
	if err := c.ImportSources(ctx, first); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	second := []SourceTable{{Name: "arcana", Columns: []string{"circle", "warding"}}}
	if err := c.ImportSources(ctx, second); err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	cols, ok, err := c.SourceColumns(ctx, "arcana")
	if err != nil || !ok {
		t.Fatalf("SourceColumns() = %v, %v", ok, err)
	}
	if len(cols) != 2 || cols[0] != "circle" || cols[1] != "warding" {
		t.Errorf("SourceColumns() = %v; want [circle warding]", cols)
	}
}

func TestImportSources_UpdatesMetadata(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if err := c.ImportSources(ctx, []SourceTable{{Name: "arcana", Database: "crypt"}}); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	if err := c.ImportSources(ctx, []SourceTable{{Name: "arcana", Database: "vault", Schema: "occult"}}); err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	tables, err := c.Sources(ctx)
	if err != nil {
		t.Fatalf("Sources() failed: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("Sources() returned %d tables; want 1", len(tables))
	}
	if tables[0].Database != "vault" || tables[0].Schema != "occult" {
		t.Errorf("source metadata = %+v; want database vault, schema occult", tables[0])
	}
}

func TestImportSources_RejectsEmptyName(t *testing.T) {
	c := openTestCatalog(t)

	err := c.ImportSources(context.Background(), []SourceTable{{Name: ""}})
	if err == nil {
		t.Fatal("ImportSources() accepted a table with no name")
	}

	// The failed batch must not leave partial rows behind.
	tables, err := c.Sources(context.Background())
	if err != nil {
		t.Fatalf("Sources() failed: %v", err)
	}
	if len(tables) != 0 {
		t.Errorf("Sources() = %v; want empty after rolled-back import", tables)
	}
}

func TestSources_SortedByName(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	err := c.ImportSources(ctx, []SourceTable{
		{Name: "wards"},
		{Name: "arcana"},
		{Name: "rituals"},
	})
	if err != nil {
		t.Fatalf("ImportSources() failed: %v", err)
	}

	tables, err := c.Sources(ctx)
	if err != nil {
		t.Fatalf("Sources() failed: %v", err)
	}
	want := []string{"arcana", "rituals", "wards"}
	if len(tables) != len(want) {
		t.Fatalf("Sources() returned %d tables; want %d", len(tables), len(want))
	}
	for i, name := range want {
		if tables[i].Name != name {
			t.Errorf("tables[%d].Name = %q; want %q", i, tables[i].Name, name)
		}
	}
}

func TestSnapshot_SurvivesClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	ctx := context.Background()
	err = c.ImportSources(ctx, []SourceTable{{Name: "arcana", Columns: []string{"sigil"}}})
	if err != nil {
		t.Fatalf("ImportSources() failed: %v", err)
	}

	view, err := c.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if !view.HasTable("arcana") {
		t.Error("HasTable(arcana) = false after Close; want true")
	}
	cols, ok := view.TableColumns("arcana")
	if !ok || len(cols) != 1 || cols[0] != "sigil" {
		t.Errorf("TableColumns(arcana) = %v, %v; want [sigil], true", cols, ok)
	}
	if view.HasTable("hollow") {
		t.Error("HasTable(hollow) = true; want false")
	}
	if view.Len() != 1 {
		t.Errorf("Len() = %d; want 1", view.Len())
	}
}

func TestView_CopiesColumns(t *testing.T) {
	view := NewView([]SourceTable{{Name: "arcana", Columns: []string{"sigil", "circle"}}})

	cols, ok := view.TableColumns("arcana")
	if !ok {
		t.Fatal("TableColumns(arcana) = false; want true")
	}
	cols[0] = "tampered"

	again, _ := view.TableColumns("arcana")
	if again[0] != "sigil" {
		t.Errorf("view mutated through returned slice: %v", again)
	}
}

func TestView_ResolvesQueryColumns(t *testing.T) {
	view := NewView([]SourceTable{{Name: "arcana", Columns: []string{"sigil", "circle"}}})

	if _, err := pql.Prepare("from arcana\nselect sigil", pql.WithCatalog(view)); err != nil {
		t.Fatalf("resolve with known column failed: %v", err)
	}

	_, err := pql.Prepare("from arcana\nselect haunting", pql.WithCatalog(view))
	if err == nil {
		t.Fatal("resolve with unknown column succeeded; want error")
	}
	if !strings.Contains(err.Error(), "haunting") {
		t.Errorf("error %q does not name the bad column", err)
	}
}

func TestFromProperties(t *testing.T) {
	props := &settings.Properties{
		Sources: []settings.SourceProperties{{
			Name:     "necronomicron",
			Database: "vault",
			Schema:   "occult",
			Columns:  []settings.ColumnMetadata{{Name: "source"}, {Name: "performed_at"}},
		}},
	}

	tables := FromProperties(props)
	if len(tables) != 1 {
		t.Fatalf("FromProperties() returned %d tables; want 1", len(tables))
	}
	got := tables[0]
	if got.Name != "necronomicron" || got.Database != "vault" || got.Schema != "occult" {
		t.Errorf("table = %+v", got)
	}
	if len(got.Columns) != 2 || got.Columns[0] != "source" || got.Columns[1] != "performed_at" {
		t.Errorf("columns = %v; want [source performed_at]", got.Columns)
	}
}
