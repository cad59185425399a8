package storage

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestMemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	if err := m.UploadObject(ctx, "b", "reports/1.json", []byte("one")); err != nil {
		t.Fatal(err)
	}
	got, err := m.DownloadObject(ctx, "b", "reports/1.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "one" {
		t.Errorf("DownloadObject = %q, want %q", got, "one")
	}

	// Returned slices are copies.
	got[0] = 'X'
	again, _ := m.DownloadObject(ctx, "b", "reports/1.json")
	if string(again) != "one" {
		t.Errorf("stored object mutated through returned slice: %q", again)
	}

	if _, err := m.DownloadObject(ctx, "other", "reports/1.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("object visible in another bucket: err = %v", err)
	}

	if err := m.DeleteObject(ctx, "b", "reports/1.json"); err != nil {
		t.Fatal(err)
	}
	_, err = m.DownloadObject(ctx, "b", "reports/1.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: err = %v, want ErrNotFound", err)
	}
}

func TestMemStoreList(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	for _, k := range []string{"reports/2.json", "reports/10.json", "callers/a/quota.json", "reports/1.json"} {
		_ = m.UploadObject(ctx, "b", k, []byte("x"))
	}

	keys, err := m.ListObjects(ctx, "b", "reports/", 100)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"reports/1.json", "reports/10.json", "reports/2.json"}
	if !slices.Equal(keys, want) {
		t.Errorf("ListObjects = %v, want %v", keys, want)
	}

	keys, _ = m.ListObjects(ctx, "b", "reports/", 2)
	if len(keys) != 2 {
		t.Errorf("ListObjects max=2 returned %d keys", len(keys))
	}
}
