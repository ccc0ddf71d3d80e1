package github

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jacoelho/webql/internal/config"
	"github.com/jacoelho/webql/internal/event"
	"github.com/jacoelho/webql/internal/filter"
)

type stubClient struct {
	pullRequests  map[string][]json.RawMessage
	comments      []json.RawMessage
	issueEvents   []json.RawMessage
	commentCalls  int
	issueCalls    int
	pullReqErrFor string
}

func (s *stubClient) ListPullRequests(_ context.Context, owner, repo string, _ time.Time) ([]json.RawMessage, error) {
	if s.pullReqErrFor == owner+"/"+repo {
		return nil, errors.New("boom")
	}
	return s.pullRequests[owner+"/"+repo], nil
}

func (s *stubClient) ListIssueComments(context.Context, string, string, int64, time.Time) ([]json.RawMessage, error) {
	s.commentCalls++
	return s.comments, nil
}

func (s *stubClient) ListIssueEvents(context.Context, string, string, int64, time.Time) ([]json.RawMessage, error) {
	s.issueCalls++
	return s.issueEvents, nil
}

func repositoryConfig(filters ...filter.Filter) *config.Config {
	return &config.Config{
		Repositories: config.Repositories{
			PullRequest: []config.PullRequest{
				{
					Owner:    "rusty-ferris-club",
					Repo:     "webql",
					Priority: 3,
					Filters:  filters,
				},
			},
		},
	}
}

func TestFetcherEventsAggregatesMatchedPullRequest(t *testing.T) {
	t.Parallel()

	client := &stubClient{
		pullRequests: map[string][]json.RawMessage{
			"rusty-ferris-club/webql": {
				json.RawMessage(`{
					"number": 7,
					"html_url": "https://github.com/rusty-ferris-club/webql/pull/7",
					"title": "add resolver",
					"body": "",
					"user": {"login": "kaplanelad"},
					"updated_at": "2024-05-02T00:00:00Z"
				}`),
			},
		},
		comments: []json.RawMessage{
			json.RawMessage(`{"id": 11, "html_url": "https://example/comment/11", "body": "lgtm", "updated_at": "2024-05-02T01:00:00Z"}`),
		},
		issueEvents: []json.RawMessage{
			json.RawMessage(`{"id": 12, "event": "labeled", "created_at": "2024-05-02T02:00:00Z"}`),
		},
	}

	fetcher := NewFetcher(client, zerolog.Nop())
	cfg := repositoryConfig(filter.Filter{
		Query:     `"user"."login"`,
		Operation: filter.OpEqual,
		Values:    []string{"kaplanelad"},
	})

	events, err := fetcher.Events(context.Background(), cfg, time.Time{})
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("Events() count = %d, want 3", len(events))
	}

	wantKinds := []event.Kind{event.KindPRComment, event.KindPREvent, event.KindPullRequest}
	for i, kind := range wantKinds {
		if events[i].Kind != kind {
			t.Fatalf("Events()[%d].Kind = %q, want %q", i, events[i].Kind, kind)
		}
		if events[i].Priority != 3 {
			t.Fatalf("Events()[%d].Priority = %d, want 3", i, events[i].Priority)
		}
	}

	if events[0].ParentEventID != "7" || events[1].ParentEventID != "7" {
		t.Fatalf("child events not linked to pull request: %+v", events[:2])
	}
	if events[2].ID != "7" || events[2].Name != "add resolver" {
		t.Fatalf("pull request event = %+v", events[2])
	}
}

func TestFetcherEventsSkipsFilteredOutPullRequest(t *testing.T) {
	t.Parallel()

	client := &stubClient{
		pullRequests: map[string][]json.RawMessage{
			"rusty-ferris-club/webql": {
				json.RawMessage(`{"number": 7, "title": "x", "user": {"login": "someone-else"}}`),
			},
		},
	}

	fetcher := NewFetcher(client, zerolog.Nop())
	cfg := repositoryConfig(filter.Filter{
		Query:     `"user"."login"`,
		Operation: filter.OpEqual,
		Values:    []string{"kaplanelad"},
	})

	events, err := fetcher.Events(context.Background(), cfg, time.Time{})
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("Events() count = %d, want 0", len(events))
	}
	if client.commentCalls != 0 || client.issueCalls != 0 {
		t.Fatalf("child fetches for filtered pull request: comments=%d events=%d", client.commentCalls, client.issueCalls)
	}
}

func TestFetcherEventsSkipsFailingRepository(t *testing.T) {
	t.Parallel()

	client := &stubClient{
		pullRequests: map[string][]json.RawMessage{
			"good/repo": {
				json.RawMessage(`{"number": 1, "title": "ok", "user": {"login": "a"}}`),
			},
		},
		pullReqErrFor: "bad/repo",
	}

	cfg := &config.Config{
		Repositories: config.Repositories{
			PullRequest: []config.PullRequest{
				{Owner: "bad", Repo: "repo"},
				{Owner: "good", Repo: "repo"},
			},
		},
	}

	fetcher := NewFetcher(client, zerolog.Nop())
	events, err := fetcher.Events(context.Background(), cfg, time.Time{})
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Events() count = %d, want 1", len(events))
	}
	if events[0].ID != "1" {
		t.Fatalf("Events()[0].ID = %q, want 1", events[0].ID)
	}
}

func TestFetcherEventsMalformedQuerySkipsRepository(t *testing.T) {
	t.Parallel()

	client := &stubClient{
		pullRequests: map[string][]json.RawMessage{
			"rusty-ferris-club/webql": {
				json.RawMessage(`{"number": 7, "title": "x", "user": {"login": "a"}}`),
			},
		},
	}

	fetcher := NewFetcher(client, zerolog.Nop())
	cfg := repositoryConfig(filter.Filter{
		Query:     `"unbalanced`,
		Operation: filter.OpEqual,
		Values:    []string{"x"},
	})

	events, err := fetcher.Events(context.Background(), cfg, time.Time{})
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	// the repository is skipped, not the whole batch
	if len(events) != 0 {
		t.Fatalf("Events() count = %d, want 0", len(events))
	}
}
