package storage

import (
	"context"
	"errors"
	"sort"
	"testing"
)

// fakeRepo records Exec calls and reports every upserted row as applied.
type fakeRepo struct {
	dsn    string
	closed bool
	execs  []string
}

func (f *fakeRepo) Upsert(ctx context.Context, b Batch) (int64, error) {
	return int64(len(b.Rows)), nil
}
func (f *fakeRepo) TableExists(ctx context.Context, table string) (bool, error) { return true, nil }
func (f *fakeRepo) Exec(ctx context.Context, sql string) error {
	f.execs = append(f.execs, sql)
	return nil
}
func (f *fakeRepo) Query(ctx context.Context, sql string, args ...any) (*Result, error) {
	return &Result{}, nil
}
func (f *fakeRepo) Close() { f.closed = true }

func TestNew_PassesConfigToFactory(t *testing.T) {
	t.Parallel()

	Register("registry-dsn", func(ctx context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{dsn: cfg.DSN}, nil
	})

	repo, err := New(context.Background(), Config{Kind: "registry-dsn", DSN: "file:olympics.db"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := repo.(*fakeRepo).dsn; got != "file:olympics.db" {
		t.Fatalf("factory saw DSN %q", got)
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	Register("registry-fails", func(ctx context.Context, cfg Config) (Repository, error) {
		return nil, boom
	})

	tests := []struct {
		name    string
		kind    string
		wantErr error
		wantMsg string
	}{
		{name: "unsupported", kind: "oracle", wantMsg: "unsupported storage.kind=oracle"},
		{name: "factory error", kind: "registry-fails", wantErr: boom},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(context.Background(), Config{Kind: tt.kind})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Fatalf("err = %q, want %q", err, tt.wantMsg)
			}
		})
	}
}

func TestRegister_ReplacesFactory(t *testing.T) {
	t.Parallel()

	var used string
	Register("registry-replace", func(ctx context.Context, cfg Config) (Repository, error) {
		used = "first"
		return &fakeRepo{}, nil
	})
	Register("registry-replace", func(ctx context.Context, cfg Config) (Repository, error) {
		used = "second"
		return &fakeRepo{}, nil
	})

	if _, err := New(context.Background(), Config{Kind: "registry-replace"}); err != nil {
		t.Fatalf("New: %v", err)
	}
	if used != "second" {
		t.Fatalf("used %s factory, want second", used)
	}
}

func TestListKinds_SortedCopy(t *testing.T) {
	t.Parallel()

	Register("registry-list", func(ctx context.Context, cfg Config) (Repository, error) { return &fakeRepo{}, nil })

	kinds := ListKinds()
	if !sort.StringsAreSorted(kinds) {
		t.Fatalf("ListKinds not sorted: %v", kinds)
	}
	found := false
	for i, k := range kinds {
		if k == "registry-list" {
			found = true
			kinds[i] = "mutated"
		}
	}
	if !found {
		t.Fatalf("registry-list missing from %v", kinds)
	}
	for _, k := range ListKinds() {
		if k == "mutated" {
			t.Fatal("ListKinds exposed the registry")
		}
	}
}
