package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/jacoelho/webql/internal/filter"
	"github.com/jacoelho/webql/internal/query"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	input := `
repositories:
  pull_request:
    - owner: rusty-ferris-club
      repo: rust-starter
      priority: 1
      filters:
        - query: '"user"."login"'
          operation: "="
          values:
            - kaplanelad
        - query: '"labels"|={"name"}."name"'
          operation: "~"
          values:
            - enhancement
`

	cfg, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Repositories.PullRequest) != 1 {
		t.Fatalf("Load() pull_request count = %d, want 1", len(cfg.Repositories.PullRequest))
	}

	repository := cfg.Repositories.PullRequest[0]
	if repository.Owner != "rusty-ferris-club" || repository.Repo != "rust-starter" {
		t.Fatalf("Load() repository = %s/%s, want rusty-ferris-club/rust-starter", repository.Owner, repository.Repo)
	}
	if repository.Priority != 1 {
		t.Fatalf("Load() priority = %d, want 1", repository.Priority)
	}
	if len(repository.Filters) != 2 {
		t.Fatalf("Load() filters count = %d, want 2", len(repository.Filters))
	}
	if repository.Filters[0].Operation != filter.OpEqual {
		t.Fatalf("Load() operation = %q, want %q", repository.Filters[0].Operation, filter.OpEqual)
	}
	if repository.Filters[1].Query != `"labels"|={"name"}."name"` {
		t.Fatalf("Load() query = %q", repository.Filters[1].Query)
	}
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name: "missing_owner",
			input: `
repositories:
  pull_request:
    - repo: webql
`,
			wantErr: ErrEmptyOwner,
		},
		{
			name: "missing_repo",
			input: `
repositories:
  pull_request:
    - owner: rusty-ferris-club
`,
			wantErr: ErrEmptyRepo,
		},
		{
			name: "malformed_filter_query",
			input: `
repositories:
  pull_request:
    - owner: rusty-ferris-club
      repo: webql
      filters:
        - query: '"unbalanced'
          operation: "="
          values: [x]
`,
			wantErr: query.ErrSyntax,
		},
		{
			name: "unknown_operator",
			input: `
repositories:
  pull_request:
    - owner: rusty-ferris-club
      repo: webql
      filters:
        - query: '"body"'
          operation: ">="
          values: [x]
`,
			wantErr: filter.ErrUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadEmpty(t *testing.T) {
	t.Parallel()

	if _, err := Load(strings.NewReader("")); err == nil {
		t.Fatal("Load() expected error for empty configuration")
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile("does-not-exist.yaml"); err == nil {
		t.Fatal("LoadFile() expected error for missing file")
	}
}
