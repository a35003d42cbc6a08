package infra

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLX(ctx, DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, db, DriverSQLite, zerolog.Nop()); err != nil {
			t.Fatalf("migrate run %d: %v", i+1, err)
		}
	}

	var tables []string
	if err := db.SelectContext(ctx, &tables, "select name from sqlite_master where type = 'table' and name not like 'sqlite_%' order by name"); err != nil {
		t.Fatalf("list tables: %v", err)
	}
	want := []string{"generated_images", "prompt_slots", "prompts", "uploaded_images"}
	if len(tables) != len(want) {
		t.Fatalf("tables = %v, want %v", tables, want)
	}
	for i := range want {
		if tables[i] != want[i] {
			t.Fatalf("tables = %v, want %v", tables, want)
		}
	}
}

func TestSchemaForUnknownDriver(t *testing.T) {
	if _, err := SchemaFor("mysql"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
