package models_test

import (
	"reflect"
	"testing"

	"houseplants/models"
	"houseplants/storage"

	"github.com/vmihailenco/msgpack/v5"
)

// TestExportImportMsgPack moves history between two stores
func TestExportImportMsgPack(t *testing.T) {
	src, _, _ := setupHistory(t)
	src.Add("Fiddle Leaf Fig")
	src.Add("ZZ Plant")
	src.UpdateResultCount("ZZ Plant", 4)

	data, err := src.Export(models.FormatMsgPack)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	dstStore := storage.NewMemory(0)
	defer dstStore.Close()
	dst := models.NewHistoryService(dstStore)

	if !dst.Import(data, models.FormatMsgPack) {
		t.Fatal("expected import to succeed")
	}

	if got, want := dst.GetAll(), src.GetAll(); !reflect.DeepEqual(got, want) {
		t.Errorf("imported history differs:\ngot  %+v\nwant %+v", got, want)
	}
}

// TestExportJSONMatchesStore verifies JSON export is the stored envelope
func TestExportJSONMatchesStore(t *testing.T) {
	svc, store, _ := setupHistory(t)
	svc.Add("Hoya")

	data, err := svc.Export(models.FormatJSON)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if string(data) != rawHistory(t, store) {
		t.Errorf("expected export to equal stored value\nexport %s\nstored %s", data, rawHistory(t, store))
	}
}

// TestImportCleansSnapshot verifies dedup, blank removal and the cap
func TestImportCleansSnapshot(t *testing.T) {
	svc, _, _ := setupHistory(t)

	env := models.HistoryEnvelope{
		Version: models.SchemaVersion,
		Searches: []models.SearchRecord{
			{ID: "1", Term: "Pothos"},
			{ID: "2", Term: "  "},
			{ID: "3", Term: "pothos"},
			{ID: "4", Term: "Ivy"},
			{ID: "5", Term: "Fern"},
			{ID: "6", Term: "Palm"},
			{ID: "7", Term: "Cactus"},
			{ID: "8", Term: "Orchid"},
		},
	}
	data, err := msgpack.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}

	if !svc.Import(data, models.FormatMsgPack) {
		t.Fatal("expected import to succeed")
	}

	got := svc.GetAll()
	want := []string{"Pothos", "Ivy", "Fern", "Palm", "Cactus"}
	if !reflect.DeepEqual(got.Terms(), want) {
		t.Errorf("expected %v, got %v", want, got.Terms())
	}
	for _, rec := range got.Searches {
		if rec.Source != models.SourceManual {
			t.Errorf("expected default source on %s, got %q", rec.Term, rec.Source)
		}
	}
}

// TestImportRejectsForeignVersion verifies snapshots from other schemas are refused
func TestImportRejectsForeignVersion(t *testing.T) {
	svc, store, _ := setupHistory(t)
	svc.Add("Begonia")
	before := rawHistory(t, store)

	if svc.Import([]byte(`{"version":"2.0.0","searches":[]}`), models.FormatJSON) {
		t.Fatal("expected import to fail")
	}
	if svc.Import([]byte(`garbage`), models.FormatMsgPack) {
		t.Fatal("expected import of garbage to fail")
	}
	if rawHistory(t, store) != before {
		t.Error("failed import must not change the store")
	}
}

func TestExportUnknownFormat(t *testing.T) {
	svc, _, _ := setupHistory(t)
	if _, err := svc.Export("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
