package lookup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/crosscheck/internal/cache"
	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []model.AuthorityAgency {
	return []model.AuthorityAgency{
		{Authority: "市纪委监委", Category: "NSL", Agency: "第一纪检监察室"},
		{Authority: "市纪委监委", Category: "NSL", Agency: "第二纪检监察室"},
		{Authority: " 区纪委监委 ", Category: "NSL", Agency: "区第一纪检监察室"},
		{Authority: "市纪委监委", Category: "NSL", Agency: "第一纪检监察室"},
		{Authority: "市纪委监委", Category: "", Agency: ""},
		{Authority: "县纪委监委", Category: "XS", Agency: "县案件审理室"},
	}
}

func TestTable_Exists(t *testing.T) {
	table := NewTable(sampleEntries())

	tests := []struct {
		name      string
		authority string
		agency    string
		category  string
		want      bool
	}{
		{"listed", "市纪委监委", "第一纪检监察室", "NSL", true},
		{"whitespace ignored", "区纪委监委", " 区第一纪检监察室", "NSL", true},
		{"wrong category", "县纪委监委", "县案件审理室", "NSL", false},
		{"any category", "县纪委监委", "县案件审理室", "", true},
		{"unknown pair", "市纪委监委", "区第一纪检监察室", "NSL", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Exists(tt.authority, tt.agency, tt.category); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTable_DedupesAndSorts(t *testing.T) {
	table := NewTable(sampleEntries())

	assert.Equal(t, 4, table.Len())
	assert.Equal(t, []string{"NSL", "XS"}, table.Categories())

	want := []model.AuthorityAgency{
		{Authority: "区纪委监委", Category: "NSL", Agency: "区第一纪检监察室"},
		{Authority: "市纪委监委", Category: "NSL", Agency: "第一纪检监察室"},
		{Authority: "市纪委监委", Category: "NSL", Agency: "第二纪检监察室"},
	}
	if diff := cmp.Diff(want, table.List("NSL")); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		source string
		scheme string
		target string
		ok     bool
	}{
		{"csv:ref.csv", "csv", "ref.csv", true},
		{"sqlite:/var/lib/ref.db", "sqlite", "/var/lib/ref.db", true},
		{"postgres://u:p@localhost/db", "postgres", "postgres://u:p@localhost/db", true},
		{"postgres:postgres://u@h/db", "postgres", "postgres://u@h/db", true},
		{"ftp:ref.csv", "", "", false},
		{"ref.csv", "", "", false},
		{"csv:", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			scheme, target, err := ParseSource(tt.source)
			if !tt.ok {
				if !errors.Is(err, ErrUnknownSource) {
					t.Errorf("Expected ErrUnknownSource, got %v", err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, scheme)
			assert.Equal(t, tt.target, target)
		})
	}
}

func TestReadCSV(t *testing.T) {
	data := "\ufeff立案机关,类别,填报单位\n市纪委监委,NSL,第一纪检监察室\n区纪委监委,NSL\n"

	entries, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)

	want := []model.AuthorityAgency{
		{Authority: "市纪委监委", Category: "NSL", Agency: "第一纪检监察室"},
		{Authority: "区纪委监委", Category: "NSL", Agency: ""},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("ReadCSV mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSV_EnglishHeaders(t *testing.T) {
	entries, err := ReadCSV(strings.NewReader("Agency,Authority\nA,B\n"))
	require.NoError(t, err)
	assert.Equal(t, []model.AuthorityAgency{{Authority: "B", Agency: "A"}}, entries)
}

func TestReadCSV_MissingColumns(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("立案机关,类别\nx,y\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns: agency")

	_, err = ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestOpen_FileSources(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "ref.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("authority,category,agency\n市纪委监委,NSL,第一纪检监察室\n"), 0644))

	yamlPath := filepath.Join(dir, "ref.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("entries:\n  - authority: 市纪委监委\n    category: NSL\n    agency: 第一纪检监察室\n"), 0644))

	for _, source := range []string{"csv:" + csvPath, "yaml:" + yamlPath} {
		t.Run(source, func(t *testing.T) {
			table, err := Open(context.Background(), source)
			require.NoError(t, err)
			assert.True(t, table.Exists("市纪委监委", "第一纪检监察室", "NSL"))
		})
	}

	_, err := Open(context.Background(), "csv:"+filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestSQLiteStore_ImportAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ref.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)

	added, err := store.Import(ctx, sampleEntries())
	require.NoError(t, err)
	assert.Equal(t, 4, added)

	added, err = store.Import(ctx, sampleEntries()[:2])
	require.NoError(t, err)
	assert.Equal(t, 0, added, "re-import should add nothing")

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
	require.NoError(t, store.Close())

	table, err := Open(ctx, "sqlite:"+path)
	require.NoError(t, err)
	assert.True(t, table.Exists("区纪委监委", "区第一纪检监察室", "NSL"))
}

func TestSQLiteStore_Memory(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.Import(context.Background(), sampleEntries())
	require.NoError(t, err)

	entries, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestPostgresSource(t *testing.T) {
	dsn := os.Getenv("CROSSCHECK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CROSSCHECK_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	src, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	_, err = src.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS authority_agency (authority TEXT, category TEXT, agency TEXT)`)
	require.NoError(t, err)
	_, err = src.pool.Exec(ctx, `TRUNCATE authority_agency`)
	require.NoError(t, err)
	_, err = src.pool.Exec(ctx, `INSERT INTO authority_agency VALUES ('市纪委监委', NULL, '第一纪检监察室')`)
	require.NoError(t, err)

	entries, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.AuthorityAgency{{Authority: "市纪委监委", Agency: "第一纪检监察室"}}, entries)
}

func TestOpenCached(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.csv")
	require.NoError(t, os.WriteFile(path, []byte("authority,agency\nA,B\n"), 0644))

	mem := cache.NewMemoryCache(time.Minute, time.Minute)

	table, err := OpenCached(ctx, "csv:"+path, mem, time.Minute)
	require.NoError(t, err)
	assert.True(t, table.Exists("A", "B", ""))
	assert.Equal(t, 1, mem.Len())

	table, err = OpenCached(ctx, "csv:"+path, mem, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, int64(1), mem.Hits())

	// A rewritten file gets a new key.
	require.NoError(t, os.WriteFile(path, []byte("authority,agency\nA,B\nC,D\n"), 0644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	table, err = OpenCached(ctx, "csv:"+path, mem, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}
