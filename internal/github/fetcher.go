package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jacoelho/webql/internal/config"
	"github.com/jacoelho/webql/internal/document"
	"github.com/jacoelho/webql/internal/event"
	"github.com/jacoelho/webql/internal/filter"
)

// Fetcher turns configured repositories into matched events.
type Fetcher struct {
	client Client
	log    zerolog.Logger
}

// NewFetcher creates a fetcher on top of a GitHub client.
func NewFetcher(client Client, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		log:    logger,
	}
}

// Events fetches every configured repository and returns the events for
// pull requests that satisfy their filters: the pull request itself plus
// its comments and issue events inside the window. A repository that
// fails to fetch is logged and skipped so one bad repo does not lose the
// rest of the batch.
func (f *Fetcher) Events(ctx context.Context, cfg *config.Config, since time.Time) ([]event.Event, error) {
	var events []event.Event

	for _, repository := range cfg.Repositories.PullRequest {
		repoEvents, err := f.pullRequestEvents(ctx, repository, since)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.log.Warn().Err(err).Str("owner", repository.Owner).Str("repo", repository.Repo).Msg("skipping repository")
			continue
		}
		events = append(events, repoEvents...)
	}

	return events, nil
}

type pullRequestResponse struct {
	Number  int64  `json:"number"`
	HTMLURL string `json:"html_url"`
	Title   string `json:"title"`
	User    struct {
		Login string `json:"login"`
	} `json:"user"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type issueCommentResponse struct {
	ID        int64      `json:"id"`
	HTMLURL   string     `json:"html_url"`
	Body      string     `json:"body"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type issueEventResponse struct {
	ID        int64      `json:"id"`
	Event     string     `json:"event"`
	CreatedAt *time.Time `json:"created_at"`
}

func (f *Fetcher) pullRequestEvents(ctx context.Context, repository config.PullRequest, since time.Time) ([]event.Event, error) {
	logger := f.log.With().
		Str("session", uuid.NewString()).
		Str("owner", repository.Owner).
		Str("repo", repository.Repo).
		Logger()

	prs, err := f.client.ListPullRequests(ctx, repository.Owner, repository.Repo, since)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("count", len(prs)).Msg("pull requests fetched")

	var events []event.Event
	for _, raw := range prs {
		var pr pullRequestResponse
		if err := json.Unmarshal(raw, &pr); err != nil {
			return nil, fmt.Errorf("decode pull request: %w", err)
		}

		doc, err := document.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("pull request %d: %w", pr.Number, err)
		}

		matched, err := filter.MatchesAll(doc, repository.Filters)
		if err != nil {
			return nil, fmt.Errorf("pull request %d: %w", pr.Number, err)
		}
		if !matched {
			logger.Debug().Int64("number", pr.Number).Msg("pull request filtered out")
			continue
		}

		comments, err := f.commentEvents(ctx, repository, pr.Number, since)
		if err != nil {
			return nil, err
		}
		events = append(events, comments...)

		issueEvents, err := f.issueEvents(ctx, repository, pr.Number, since)
		if err != nil {
			return nil, err
		}
		events = append(events, issueEvents...)

		events = append(events, event.Event{
			Kind:     event.KindPullRequest,
			ID:       strconv.FormatInt(pr.Number, 10),
			Name:     pr.Title,
			Link:     pr.HTMLURL,
			Date:     pr.UpdatedAt,
			Priority: repository.Priority,
			RawData:  raw,
		})
	}

	return events, nil
}

func (f *Fetcher) commentEvents(ctx context.Context, repository config.PullRequest, issue int64, since time.Time) ([]event.Event, error) {
	comments, err := f.client.ListIssueComments(ctx, repository.Owner, repository.Repo, issue, since)
	if err != nil {
		return nil, err
	}

	events := make([]event.Event, 0, len(comments))
	for _, raw := range comments {
		var comment issueCommentResponse
		if err := json.Unmarshal(raw, &comment); err != nil {
			return nil, fmt.Errorf("decode comment on issue %d: %w", issue, err)
		}

		events = append(events, event.Event{
			Kind:          event.KindPRComment,
			ID:            strconv.FormatInt(comment.ID, 10),
			ParentEventID: strconv.FormatInt(issue, 10),
			Name:          comment.Body,
			Link:          comment.HTMLURL,
			Date:          comment.UpdatedAt,
			Priority:      repository.Priority,
			RawData:       raw,
		})
	}

	return events, nil
}

func (f *Fetcher) issueEvents(ctx context.Context, repository config.PullRequest, issue int64, since time.Time) ([]event.Event, error) {
	issueEvents, err := f.client.ListIssueEvents(ctx, repository.Owner, repository.Repo, issue, since)
	if err != nil {
		return nil, err
	}

	events := make([]event.Event, 0, len(issueEvents))
	for _, raw := range issueEvents {
		var issueEvent issueEventResponse
		if err := json.Unmarshal(raw, &issueEvent); err != nil {
			return nil, fmt.Errorf("decode event on issue %d: %w", issue, err)
		}

		events = append(events, event.Event{
			Kind:          event.KindPREvent,
			ID:            strconv.FormatInt(issueEvent.ID, 10),
			ParentEventID: strconv.FormatInt(issue, 10),
			Name:          issueEvent.Event,
			Date:          issueEvent.CreatedAt,
			Priority:      repository.Priority,
			RawData:       raw,
		})
	}

	return events, nil
}
