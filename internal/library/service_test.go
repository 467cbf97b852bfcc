package library_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"curio/internal/autofill"
	"curio/internal/catalog"
	"curio/internal/config"
	"curio/internal/confirm"
	"curio/internal/document"
	"curio/internal/library"
	"curio/internal/revision"
	"curio/internal/schema"
	"curio/internal/storage"
	"curio/internal/testsupport"
)

var exportTime = time.Date(2024, 5, 4, 10, 30, 0, 0, time.UTC)

func openService(t *testing.T, cfg *config.Config, opts ...library.Option) *library.Service {
	t.Helper()
	opts = append([]library.Option{library.WithClock(func() time.Time { return exportTime })}, opts...)
	svc, err := library.Open(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

type recordingGate struct {
	answer  bool
	prompts []string
}

func (g *recordingGate) Confirm(prompt string) (bool, error) {
	g.prompts = append(g.prompts, prompt)
	return g.answer, nil
}

type fakeLookup struct {
	suggestion autofill.Suggestion
	err        error
	calls      int
}

func (f *fakeLookup) Lookup(_ context.Context, _ string, _ schema.Category) (autofill.Suggestion, error) {
	f.calls++
	return f.suggestion, f.err
}

func TestSaveAssignsIDAndPersistsAcrossReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	svc, err := library.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	saved, err := svc.Save(ctx, schema.Books, catalog.Item{
		Title:   "  Dune  ",
		Details: catalog.NewDetails(map[string]any{"author": "Frank Herbert", "year": 1965}),
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated id")
	}
	if saved.Title != "Dune" {
		t.Fatalf("expected trimmed title, got %q", saved.Title)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := openService(t, cfg)
	got, err := reopened.Item(schema.Books, saved.ID)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if !reflect.DeepEqual(got, saved) {
		t.Fatalf("reloaded item mismatch:\n got %#v\nwant %#v", got, saved)
	}
	if got.Details.Text("year") != "1965" {
		t.Fatalf("unexpected year %q", got.Details.Text("year"))
	}
}

func TestSaveExistingKeepsPosition(t *testing.T) {
	svc := openService(t, testsupport.NewConfig(t))
	ctx := context.Background()
	for _, title := range []string{"A", "B", "C"} {
		if _, err := svc.Save(ctx, schema.Records, catalog.Item{ID: "r-" + title, Title: title}); err != nil {
			t.Fatalf("Save %s: %v", title, err)
		}
	}
	if _, err := svc.Save(ctx, schema.Records, catalog.Item{ID: "r-B", Title: "B2"}); err != nil {
		t.Fatalf("Save edit: %v", err)
	}

	items := svc.Snapshot().Items(schema.Records)
	var titles []string
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	if strings.Join(titles, ",") != "A,B2,C" {
		t.Fatalf("unexpected order %v", titles)
	}
}

func TestSaveRejectsInvalidItems(t *testing.T) {
	svc := openService(t, testsupport.NewConfig(t))
	ctx := context.Background()

	cases := []struct {
		name     string
		category schema.Category
		item     catalog.Item
		want     error
	}{
		{"blank title", schema.Books, catalog.Item{Title: "   "}, catalog.ErrTitleRequired},
		{"foreign field", schema.Books, catalog.Item{Title: "Dune", Details: catalog.Details{"rarity": "rare"}}, catalog.ErrUnknownField},
		{"unknown category", schema.Category("stamps"), catalog.Item{Title: "Penny Black"}, catalog.ErrUnknownCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Save(ctx, tc.category, tc.item)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if svc.Status().Total != 0 {
		t.Fatalf("rejected saves changed the collection: %+v", svc.Status())
	}
}

func TestDeleteHonoursGate(t *testing.T) {
	gate := &recordingGate{answer: false}
	svc := openService(t, testsupport.NewConfig(t), library.WithGate(gate))
	ctx := context.Background()
	if _, err := svc.Save(ctx, schema.Books, catalog.Item{ID: "b1", Title: "Dune"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := svc.Delete(ctx, schema.Books, "b1"); !errors.Is(err, library.ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	if svc.Snapshot().Count(schema.Books) != 1 {
		t.Fatal("declined delete removed the item")
	}
	if len(gate.prompts) != 1 || gate.prompts[0] != `Delete book "Dune"?` {
		t.Fatalf("unexpected prompts %q", gate.prompts)
	}

	gate.answer = true
	removed, err := svc.Delete(ctx, schema.Books, "b1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed.Title != "Dune" || svc.Snapshot().Count(schema.Books) != 0 {
		t.Fatalf("expected Dune removed, got %+v", removed)
	}

	if _, err := svc.Delete(ctx, schema.Books, "b1"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(gate.prompts) != 2 {
		t.Fatalf("missing item should not prompt, got %d prompts", len(gate.prompts))
	}
}

func TestExportAdvancesRevisionAndWritesDocument(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := openService(t, cfg)
	ctx := context.Background()
	if _, err := svc.Save(ctx, schema.Books, catalog.Item{
		ID:      "b1",
		Title:   "Dune",
		Details: catalog.NewDetails(map[string]any{"author": "Frank Herbert", "year": 1965}),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !svc.Status().Dirty {
		t.Fatal("expected dirty before first export")
	}

	first, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	wantPath := filepath.Join(cfg.Paths.ExportDir, "curio-export-rev1.json")
	if first.Path != wantPath || first.Revision != 1 || first.LastSaved != "2024-05-04T10:30:00.000Z" {
		t.Fatalf("unexpected export result %+v", first)
	}
	data, err := os.ReadFile(first.Path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	restored, err := document.Import(data)
	if err != nil {
		t.Fatalf("exported document does not import: %v", err)
	}
	if !reflect.DeepEqual(restored, svc.Snapshot()) {
		t.Fatalf("export does not match snapshot:\n got %#v\nwant %#v", restored, svc.Snapshot())
	}
	if !strings.Contains(string(data), "\n  \"collections\"") {
		t.Fatalf("expected indented output:\n%s", data)
	}

	status := svc.Status()
	if status.Dirty || status.Revision != 1 {
		t.Fatalf("unexpected status after export %+v", status)
	}
	if status.NextExportPath != filepath.Join(cfg.Paths.ExportDir, "curio-export-rev2.json") {
		t.Fatalf("unexpected next export path %q", status.NextExportPath)
	}

	second, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("second Export: %v", err)
	}
	if second.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", second.Revision)
	}
}

func TestExportCompactWhenPrettyDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithExportProduct("shelf"))
	cfg.Export.Pretty = false
	svc := openService(t, cfg)

	result, err := svc.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Base(result.Path) != "shelf-export-rev1.json" {
		t.Fatalf("unexpected export file %q", result.Path)
	}
	data, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if strings.Count(string(data), "\n") != 1 {
		t.Fatalf("expected single-line document:\n%s", data)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("compact output is not JSON: %v", err)
	}
}

func TestExportFailureRollsBackRevision(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	blocker := filepath.Join(testsupport.BaseDir(cfg), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg.Paths.ExportDir = blocker
	svc := openService(t, cfg)
	ctx := context.Background()
	if _, err := svc.Save(ctx, schema.Books, catalog.Item{ID: "b1", Title: "Dune"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := svc.Export(ctx); err == nil {
		t.Fatal("expected export into a file path to fail")
	}
	status := svc.Status()
	if status.Revision != 0 || status.LastSaved != "" || !status.Dirty {
		t.Fatalf("expected rollback, got %+v", status)
	}
}

func TestExportAtLastRevisionIsRefused(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := openService(t, cfg, library.WithGate(confirm.Always(true)))
	ctx := context.Background()
	input := `{"collections":{"books":[],"tradingCards":[],"bluRays":[],"comicBooks":[],"records":[]},` +
		`"revision":9223372036854775807,"lastSaved":"2024-01-01T00:00:00.000Z"}`
	if _, err := svc.ImportText(ctx, []byte(input), "inline"); err != nil {
		t.Fatalf("ImportText: %v", err)
	}

	_, err := svc.Export(ctx)
	if !errors.Is(err, revision.ErrRevisionExhausted) {
		t.Fatalf("expected ErrRevisionExhausted, got %v", err)
	}
	status := svc.Status()
	if status.Revision != math.MaxInt64 || status.LastSaved != "2024-01-01T00:00:00.000Z" {
		t.Fatalf("refused export changed state: %+v", status)
	}
	if entries, _ := os.ReadDir(cfg.Paths.ExportDir); len(entries) != 0 {
		t.Fatalf("expected no export written, found %d files", len(entries))
	}
}

func TestImportReplacesCollectionAfterConfirmation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gate := &recordingGate{answer: false}
	svc := openService(t, cfg, library.WithGate(gate))
	ctx := context.Background()
	if _, err := svc.Save(ctx, schema.Books, catalog.Item{ID: "local", Title: "Local"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before := svc.Snapshot()

	incoming := testsupport.SampleCollection(t)
	incoming.Revision = 7
	incoming.LastSaved = "2024-01-01T00:00:00.000Z"
	text, err := document.Serialize(incoming)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "backup.json")
	if err := os.WriteFile(path, text, 0o644); err != nil {
		t.Fatalf("write import file: %v", err)
	}

	if _, err := svc.ImportFile(ctx, path); !errors.Is(err, library.ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	if !reflect.DeepEqual(svc.Snapshot(), before) {
		t.Fatal("declined import changed the collection")
	}
	if want := "Replace 1 items with 3 items from backup.json (revision 7)?"; gate.prompts[0] != want {
		t.Fatalf("unexpected prompt %q", gate.prompts[0])
	}

	gate.answer = true
	result, err := svc.ImportFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if result.Revision != 7 || result.Replaced != 1 {
		t.Fatalf("unexpected import result %+v", result)
	}
	if !reflect.DeepEqual(svc.Snapshot(), incoming) {
		t.Fatalf("imported state mismatch:\n got %#v\nwant %#v", svc.Snapshot(), incoming)
	}
	if svc.Status().Dirty {
		t.Fatal("freshly imported collection should be clean")
	}

	next, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if next.Revision != 8 {
		t.Fatalf("expected export after import to reach revision 8, got %d", next.Revision)
	}
}

func TestImportRejectsInvalidDocumentsWithoutPrompting(t *testing.T) {
	gate := &recordingGate{answer: true}
	svc := openService(t, testsupport.NewConfig(t), library.WithGate(gate))
	ctx := context.Background()
	if _, err := svc.Save(ctx, schema.Books, catalog.Item{ID: "b1", Title: "Dune"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before := svc.Snapshot()

	cases := []struct {
		name  string
		input string
		check func(error) bool
	}{
		{"malformed", `{"collections":`, func(err error) bool {
			var target *document.ParseError
			return errors.As(err, &target)
		}},
		{"missing category", `{"collections":{"books":[]},"revision":1,"lastSaved":null}`, func(err error) bool {
			var target *document.ValidationError
			return errors.As(err, &target)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ImportText(ctx, []byte(tc.input), "inline")
			if !tc.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
	if len(gate.prompts) != 0 {
		t.Fatalf("invalid documents should not prompt, got %q", gate.prompts)
	}
	if !reflect.DeepEqual(svc.Snapshot(), before) {
		t.Fatal("rejected import changed the collection")
	}
}

func TestImportSurvivesReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()
	svc, err := library.Open(ctx, cfg, library.WithGate(confirm.Always(true)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	input := `{
	  "collections": {"books": [{"id": "b", "title": "Kept", "shelf": "top"}], "tradingCards": [], "bluRays": [], "comicBooks": [], "records": [], "stamps": [1]},
	  "revision": 3,
	  "lastSaved": "2024-02-02T02:02:02.000Z"
	}`
	if _, err := svc.ImportText(ctx, []byte(input), "inline"); err != nil {
		t.Fatalf("ImportText: %v", err)
	}
	want := svc.Snapshot()
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := openService(t, cfg)
	if !reflect.DeepEqual(reopened.Snapshot(), want) {
		t.Fatalf("reopened state mismatch:\n got %#v\nwant %#v", reopened.Snapshot(), want)
	}
	status := reopened.Status()
	if status.Dirty || status.Revision != 3 || !reflect.DeepEqual(status.Carried, []string{"stamps"}) {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestImportedItemWithForeignKeysStaysEditable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()
	svc := openService(t, cfg, library.WithGate(confirm.Always(true)))
	input := `{
	  "collections": {"books": [{"id": "b1", "title": "Dune", "details": {"author": "FH", "isbn": "123"}}], "tradingCards": [], "bluRays": [], "comicBooks": [], "records": []},
	  "revision": 2,
	  "lastSaved": null
	}`
	if _, err := svc.ImportText(ctx, []byte(input), "inline"); err != nil {
		t.Fatalf("ImportText: %v", err)
	}

	item, err := svc.Item(schema.Books, "b1")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	item.Title = "Dune (1965)"
	saved, err := svc.Save(ctx, schema.Books, item)
	if err != nil {
		t.Fatalf("Save with only the title changed: %v", err)
	}
	if saved.Details.Text("isbn") != "123" {
		t.Fatalf("expected imported key kept, got %#v", saved.Details)
	}

	delete(item.Details, "isbn")
	if _, err := svc.Save(ctx, schema.Books, item); err != nil {
		t.Fatalf("Save clearing imported key: %v", err)
	}
	got, _ := svc.Item(schema.Books, "b1")
	if _, ok := got.Details["isbn"]; ok {
		t.Fatalf("expected isbn cleared, got %#v", got.Details)
	}

	got.Details["isbn"] = "456"
	if _, err := svc.Save(ctx, schema.Books, got); !errors.Is(err, catalog.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField once the key is gone, got %v", err)
	}
}

func TestOpenRefusesSecondWriter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	openService(t, cfg)

	_, err := library.Open(context.Background(), cfg)
	if !errors.Is(err, storage.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if library.ErrorKind(err) != "locked" {
		t.Fatalf("unexpected kind %q", library.ErrorKind(err))
	}
}

func TestAutofillMergesSuggestion(t *testing.T) {
	lookup := &fakeLookup{suggestion: autofill.Suggestion{
		ImageURL: "https://example.com/dune.jpg",
		Details:  catalog.NewDetails(map[string]any{"author": "Frank Herbert", "pages": 412}),
	}}
	svc := openService(t, testsupport.NewConfig(t), library.WithLookup(lookup))
	draft := catalog.Item{Title: "Dune", Details: catalog.Details{"notes": "signed", "author": "unknown"}}

	merged, suggestion, err := svc.Autofill(context.Background(), schema.Books, draft)
	if err != nil {
		t.Fatalf("Autofill: %v", err)
	}
	if suggestion.Empty() || lookup.calls != 1 {
		t.Fatalf("unexpected suggestion %+v (calls=%d)", suggestion, lookup.calls)
	}
	if merged.ImageURL != "https://example.com/dune.jpg" {
		t.Fatalf("unexpected image %q", merged.ImageURL)
	}
	if merged.Details.Text("author") != "Frank Herbert" || merged.Details.Text("notes") != "signed" || merged.Details.Text("pages") != "412" {
		t.Fatalf("unexpected merged details %#v", merged.Details)
	}
	if draft.Details.Text("author") != "unknown" {
		t.Fatal("draft was mutated")
	}
}

func TestAutofillFailureKeepsDraft(t *testing.T) {
	lookupErr := &autofill.LookupError{Title: "Dune", Category: "books", Err: errors.New("boom")}
	svc := openService(t, testsupport.NewConfig(t), library.WithLookup(&fakeLookup{err: lookupErr}))
	draft := catalog.Item{Title: "Dune", Details: catalog.Details{"notes": "signed"}}

	got, _, err := svc.Autofill(context.Background(), schema.Books, draft)
	if !errors.Is(err, lookupErr) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	if !reflect.DeepEqual(got, draft) {
		t.Fatalf("draft changed on failure: %#v", got)
	}
	if library.ErrorKind(err) != "transient" {
		t.Fatalf("unexpected kind %q", library.ErrorKind(err))
	}
}

func TestAutofillNotConfigured(t *testing.T) {
	svc := openService(t, testsupport.NewConfig(t))
	if svc.AutofillAvailable() {
		t.Fatal("auto-fill should be unavailable without credentials")
	}
	_, _, err := svc.Autofill(context.Background(), schema.Books, catalog.Item{Title: "Dune"})
	if !errors.Is(err, autofill.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSeedLoadsSampleOnlyWhenEmpty(t *testing.T) {
	svc := openService(t, testsupport.NewConfig(t))
	ctx := context.Background()

	added, err := svc.Seed(ctx)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if added != 3 {
		t.Fatalf("expected 3 items, got %d", added)
	}
	snapshot := svc.Snapshot()
	if snapshot.Count(schema.Books) != 2 || snapshot.Count(schema.TradingCards) != 1 {
		t.Fatalf("unexpected counts %+v", svc.Status().Counts)
	}
	dune, err := svc.Item(schema.Books, "book-1")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if dune.Details.Text("publisher") != "Chilton Books" || snapshot.Revision != 0 {
		t.Fatalf("unexpected seeded item %#v", dune)
	}

	if _, err := svc.Seed(ctx); !errors.Is(err, library.ErrNotEmpty) {
		t.Fatalf("expected ErrNotEmpty, got %v", err)
	}
}

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{library.ErrDeclined, "declined"},
		{catalog.ErrTitleRequired, "validation"},
		{catalog.ErrNotFound, "not_found"},
		{&document.ParseError{Err: errors.New("eof")}, "parse"},
		{&document.ValidationError{Field: "revision", Reason: "missing"}, "validation"},
		{confirm.ErrNotInteractive, "validation"},
		{fmt.Errorf("export: %w", revision.ErrRevisionExhausted), "validation"},
		{errors.New("disk on fire"), "internal"},
	}
	for _, tc := range cases {
		if got := library.ErrorKind(tc.err); got != tc.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
