package asr

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileHandleStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "lro-jobs.json")
	store := NewFileHandleStore(path)

	if _, ok, err := store.Get(1); err != nil || ok {
		t.Fatalf("empty store Get = %v, %v", ok, err)
	}

	h1 := Handle{OperationName: "operations/a", ObjectURI: "gs://b/one"}
	h2 := Handle{OperationName: "operations/b", ObjectURI: "gs://b/two"}
	if err := store.Put(1, h1); err != nil {
		t.Fatal(err)
	}
	if err := store.Put(2, h2); err != nil {
		t.Fatal(err)
	}

	// A fresh store over the same file must see both entries.
	reopened := NewFileHandleStore(path)
	all, err := reopened.ListAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[1] != h1 || all[2] != h2 {
		t.Fatalf("ListAll = %v", all)
	}

	if err := reopened.Remove(1); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := reopened.Get(1); ok {
		t.Error("handle 1 still present after Remove")
	}
	if got, ok, _ := reopened.Get(2); !ok || got != h2 {
		t.Errorf("handle 2 = %v, %v", got, ok)
	}
}

func TestFileHandleStoreRemoveMissing(t *testing.T) {
	store := NewFileHandleStore(filepath.Join(t.TempDir(), "lro-jobs.json"))
	if err := store.Remove(99); err != nil {
		t.Fatalf("remove of missing handle: %v", err)
	}
}

func TestFileHandleStorePutOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lro-jobs.json")
	store := NewFileHandleStore(path)

	store.Put(1, Handle{OperationName: "operations/old", ObjectURI: "gs://b/old"})
	h := Handle{OperationName: "operations/new", ObjectURI: "gs://b/new"}
	if err := store.Put(1, h); err != nil {
		t.Fatal(err)
	}

	got, ok, err := store.Get(1)
	if err != nil || !ok || got != h {
		t.Fatalf("Get = %v, %v, %v", got, ok, err)
	}
	all, _ := store.ListAll()
	if len(all) != 1 {
		t.Fatalf("len = %d, want 1", len(all))
	}
}

func TestFileHandleStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lro-jobs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewFileHandleStore(path)
	if _, _, err := store.Get(1); err == nil {
		t.Fatal("expected error on corrupt file")
	}
}
