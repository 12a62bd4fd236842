package migration

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoad_Embedded(t *testing.T) {
	src, err := Runner{}.source()
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	migs, err := Load(src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(migs) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migs))
	}
	if migs[0].Name != "job_listings" || migs[1].Name != "saved_jobs" {
		t.Fatalf("unexpected order: %s, %s", migs[0].Name, migs[1].Name)
	}
	if !strings.Contains(migs[0].SQL, "search_vector") {
		t.Fatalf("job_listings migration must define the search index column")
	}
}

func TestLoad_OrderingAndFiltering(t *testing.T) {
	src := fstest.MapFS{
		"V10__later.sql":  {Data: []byte("SELECT 10;")},
		"V2__second.sql":  {Data: []byte("SELECT 2;")},
		"README.md":       {Data: []byte("ignored")},
		"v3__lower.sql":   {Data: []byte("SELECT 3;")},
		"V1__first.sql":   {Data: []byte("SELECT 1;")},
	}
	migs, err := Load(src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(migs) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migs))
	}
	want := []int64{1, 2, 10}
	for i, m := range migs {
		if m.Version != want[i] {
			t.Fatalf("position %d: got version %d want %d", i, m.Version, want[i])
		}
		if m.Checksum == "" {
			t.Fatalf("missing checksum for %s", m.Filename)
		}
	}
}

func TestLoad_DuplicateVersion(t *testing.T) {
	src := fstest.MapFS{
		"V1__a.sql": {Data: []byte("SELECT 1;")},
		"V1__b.sql": {Data: []byte("SELECT 2;")},
	}
	if _, err := Load(src); err == nil {
		t.Fatalf("expected duplicate version error")
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	src := fstest.MapFS{"V1__empty.sql": {Data: []byte("   \n")}}
	if _, err := Load(src); err == nil {
		t.Fatalf("expected empty file error")
	}
}

func TestPlan(t *testing.T) {
	migs, err := Load(fstest.MapFS{
		"V1__a.sql": {Data: []byte("SELECT 1;")},
		"V2__b.sql": {Data: []byte("SELECT 2;")},
		"V3__c.sql": {Data: []byte("SELECT 3;")},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	pending, err := Plan(migs, map[int64]string{1: migs[0].Checksum})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(pending) != 2 || pending[0].Version != 2 || pending[1].Version != 3 {
		t.Fatalf("unexpected pending %+v", pending)
	}

	if _, err := Plan(migs, map[int64]string{1: "stale"}); err == nil || !strings.Contains(err.Error(), "edited") {
		t.Fatalf("expected checksum error, got %v", err)
	}

	_, err = Plan(migs, map[int64]string{1: migs[0].Checksum, 3: migs[2].Checksum})
	if err == nil || !strings.Contains(err.Error(), "older than applied version 3") {
		t.Fatalf("expected out-of-order error, got %v", err)
	}

	pending, err = Plan(migs, map[int64]string{1: migs[0].Checksum, 2: migs[1].Checksum, 3: migs[2].Checksum})
	if err != nil || len(pending) != 0 {
		t.Fatalf("expected nothing pending, got %v %v", pending, err)
	}
}
