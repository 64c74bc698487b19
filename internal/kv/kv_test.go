package kv

import (
	"os"
	"testing"
)

func openTemp(t *testing.T) *Store {
	dir, err := os.MkdirTemp("", "ivfdb-kv-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := Open(dir, Options{CreateIfMissing: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGetDelete(t *testing.T) {
	s := openTemp(t)

	if err := s.Put([]byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get([]byte("k1"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("Get = %q, want v1", got)
	}

	if err := s.Delete([]byte("k1")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get([]byte("k1")); err != ErrNotFound {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestIteratorScansPrefixOnly(t *testing.T) {
	s := openTemp(t)

	entries := map[string]string{
		"a:1": "x",
		"a:2": "y",
		"b:1": "z",
	}
	for k, v := range entries {
		if err := s.Put([]byte(k), []byte(v)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	it, err := s.NewIterator([]byte("a:"))
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	defer it.Close()

	seen := map[string]string{}
	for it.Next() {
		seen[string(it.Key())] = string(it.Value())
	}
	if len(seen) != 2 {
		t.Fatalf("scanned %d entries, want 2: %v", len(seen), seen)
	}
	if seen["a:1"] != "x" || seen["a:2"] != "y" {
		t.Fatalf("unexpected scan result: %v", seen)
	}
	if _, ok := seen["b:1"]; ok {
		t.Fatalf("iterator leaked a key outside its prefix")
	}
}
