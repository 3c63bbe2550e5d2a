package storage

import (
	"sort"
	"testing"
)

// kvContract exercises the behavior every KV implementation must share.
func kvContract(t *testing.T, kv KV) {
	t.Helper()

	data, err := kv.Get("missing")
	if err != nil {
		t.Fatalf("Get missing failed: %v", err)
	}
	if data != nil {
		t.Errorf("Get missing = %q, want nil", data)
	}

	if err := kv.Set("sessions/index", []byte("[1]")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := kv.Set("history/a", []byte("{}")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := kv.Set("history/b", []byte("{}")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, err = kv.Get("sessions/index")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "[1]" {
		t.Errorf("Get = %q", data)
	}

	// Overwrite.
	if err := kv.Set("sessions/index", []byte("[2]")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	data, _ = kv.Get("sessions/index")
	if string(data) != "[2]" {
		t.Errorf("after overwrite = %q", data)
	}

	keys, err := kv.Keys("history/")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "history/a" || keys[1] != "history/b" {
		t.Errorf("Keys = %v", keys)
	}

	if err := kv.Remove("history/a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	data, _ = kv.Get("history/a")
	if data != nil {
		t.Error("removed key still readable")
	}
	// Removing a missing key is not an error.
	if err := kv.Remove("history/a"); err != nil {
		t.Errorf("Remove missing failed: %v", err)
	}
}

func TestMemoryKV(t *testing.T) {
	kvContract(t, NewMemoryKV())
}

func TestFileKV(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV failed: %v", err)
	}
	kvContract(t, kv)
}

func TestSQLiteKV(t *testing.T) {
	kv, err := NewSQLiteKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewSQLiteKV failed: %v", err)
	}
	defer kv.Close()
	kvContract(t, kv)
}

func TestMemoryKVCopies(t *testing.T) {
	kv := NewMemoryKV()
	value := []byte("abc")
	if err := kv.Set("k", value); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value[0] = 'x'
	got, _ := kv.Get("k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller slice: %q", got)
	}
}
