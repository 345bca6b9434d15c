package executor

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/CliForge/siemctl/pkg/api"
	"github.com/CliForge/siemctl/pkg/backup"
	"github.com/CliForge/siemctl/pkg/fieldmap"
	"github.com/CliForge/siemctl/pkg/interactive"
	"github.com/CliForge/siemctl/pkg/output"
	"github.com/CliForge/siemctl/pkg/request"
	"github.com/CliForge/siemctl/pkg/schema"
)

const (
	feedsPath = "/v1/feeds"

	feedSourceTypePath = "details.feed_source_type"
	feedLogTypePath    = "details.log_type"
)

func feedPath(id string) string {
	return feedsPath + "/" + id
}

func feedName(id string) string {
	return "feeds/" + id
}

// feedOptions returns the prompts surrounding the details schema. Create
// fills blanks with the values the service expects for an unset field.
func feedOptions(create bool) *request.Options {
	displayName := request.Extra{Node: &schema.Node{
		FieldPath:   "display_name",
		DisplayName: "Display name",
		Description: "Optional name shown for the feed",
		Type:        schema.TypeString,
	}}
	namespace := request.Extra{Node: &schema.Node{
		FieldPath:   "details.namespace",
		DisplayName: "Namespace",
		Description: "Asset namespace",
		Type:        schema.TypeString,
	}}
	labels := request.Extra{Node: &schema.Node{
		FieldPath:   "details.labels",
		DisplayName: "Labels",
		Description: "One key:value pair per line",
		Type:        schema.TypeLabel,
	}}

	if create {
		null := fieldmap.Raw(nil)
		empty := fieldmap.String("")
		noLabels := fieldmap.Labels(nil)
		displayName.Fallback = &null
		namespace.Fallback = &empty
		labels.Fallback = &noLabels
	}

	return &request.Options{
		Leading:  []request.Extra{displayName},
		Trailing: []request.Extra{namespace, labels},
	}
}

// CreateFeed creates a feed.
func (e *Executor) CreateFeed(ctx context.Context) error {
	cache, err := schema.Load(ctx, e.client, schema.FeedSchemaPath)
	if err != nil {
		return err
	}

	var seed map[string]interface{}
	var id backup.Identity
	record, err := e.resumeCreate(feedKind, backup.Identity{})
	if err != nil {
		return err
	}
	if record != nil {
		id, seed = record.Identity, record.Fields
	} else {
		id.FeedSourceType, id.LogType, err = e.selectFeedType(cache)
		if errors.Is(err, schema.ErrSchemaNotFound) {
			e.println(err.Error())
			return nil
		}
		if err != nil {
			return err
		}
	}

	root, err := cache.DetailedSchema(id.FeedSourceType, id.LogType)
	if errors.Is(err, schema.ErrSchemaNotFound) {
		e.println(err.Error())
		return nil
	}
	if err != nil {
		return err
	}
	id.DisplaySourceType, id.DisplayLogType = cache.DisplayNames(id.FeedSourceType, id.LogType)

	return e.submit(ctx, &mutation{
		kind:     feedKind,
		op:       backup.OpCreate,
		identity: e.identity(id),
		root:     root,
		seed:     seed,
		options:  feedOptions(true),
		fixed:    feedTypeFields(id),
		method:   http.MethodPost,
		path:     feedsPath,
	})
}

// UpdateFeed updates the feed with the given ID.
func (e *Executor) UpdateFeed(ctx context.Context, feedID string) error {
	if feedID == "" {
		return fmt.Errorf("feed ID is required")
	}

	resp, err := e.get(ctx, feedKind, feedPath(feedID))
	if resp == nil || err != nil {
		return err
	}

	id := backup.Identity{
		Name:           feedName(feedID),
		FeedSourceType: lookupString(resp.Body, "details.feedSourceType"),
		LogType:        lookupString(resp.Body, "details.logType"),
	}

	cache, err := schema.Load(ctx, e.client, schema.FeedSchemaPath)
	if err != nil {
		return err
	}
	root, err := cache.DetailedSchema(id.FeedSourceType, id.LogType)
	if errors.Is(err, schema.ErrSchemaNotFound) {
		e.println(err.Error())
		return nil
	}
	if err != nil {
		return err
	}
	id.DisplaySourceType, id.DisplayLogType = cache.DisplayNames(id.FeedSourceType, id.LogType)
	id = e.identity(id)

	seed := request.Seed(root, resp.Body)
	record, err := e.resumeUpdate(feedKind, id)
	if err != nil {
		return err
	}
	if record != nil {
		seed = record.Fields
	}

	return e.submit(ctx, &mutation{
		kind:        feedKind,
		op:          backup.OpUpdate,
		identity:    id,
		root:        root,
		seed:        seed,
		options:     feedOptions(false),
		fixed:       feedTypeFields(id),
		method:      http.MethodPatch,
		path:        feedPath(feedID),
		id:          feedID,
		maskExclude: []string{feedSourceTypePath, feedLogTypePath},
	})
}

func feedTypeFields(id backup.Identity) []fixedField {
	return []fixedField{
		{path: feedSourceTypePath, value: fieldmap.String(id.FeedSourceType)},
		{path: feedLogTypePath, value: fieldmap.String(id.LogType)},
	}
}

// selectFeedType asks for the source type and then the log type.
func (e *Executor) selectFeedType(cache *schema.Cache) (string, string, error) {
	sources := cache.SourceLogMap()
	if len(sources) == 0 {
		return "", "", schema.ErrSchemaNotFound
	}

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.DisplayName
	}
	si, err := e.prompter.Select(&interactive.SelectPromptOptions{
		Message:  "Select a source type:",
		Options:  names,
		Default:  -1,
		Required: true,
	})
	if err != nil {
		return "", "", err
	}
	source := sources[si]

	names = make([]string, len(source.LogTypes))
	for i, l := range source.LogTypes {
		names[i] = l.DisplayName
	}
	li, err := e.prompter.Select(&interactive.SelectPromptOptions{
		Message:  "Select a log type:",
		Options:  names,
		Default:  -1,
		Required: true,
	})
	if err != nil {
		return "", "", err
	}
	return source.SourceType, source.LogTypes[li].LogType, nil
}

const feedTemplate = `ID: {id}
Display Name: {displayName}
Source Type: {sourceType}
Log Type: {logType}
State: {state}
Namespace: {namespace}
Labels: {labels}`

func feedTable() *output.Table {
	return &output.Table{Headers: []string{"ID", "Display Name", "Source Type", "Log Type", "State", "Namespace", "Labels"}}
}

// feedRecord extracts the listed columns of a feed. names resolves display
// names and may be nil.
func feedRecord(feed map[string]interface{}, names *schema.Cache) map[string]interface{} {
	source := lookupString(feed, "details.feedSourceType")
	logType := lookupString(feed, "details.logType")
	if names != nil {
		source, logType = names.DisplayNames(source, logType)
	}
	return map[string]interface{}{
		"id":          resourceID(lookupString(feed, "name")),
		"displayName": lookupString(feed, "displayName"),
		"sourceType":  source,
		"logType":     logType,
		"state":       lookupString(feed, "state"),
		"namespace":   lookupString(feed, "details.namespace"),
		"labels":      labelsText(lookup(feed, "details.labels")),
	}
}

var feedColumns = []string{"id", "displayName", "sourceType", "logType", "state", "namespace", "labels"}

// feedNames loads the feed schema for display names. Failures are logged and
// the wire values are shown instead.
func (e *Executor) feedNames(ctx context.Context) *schema.Cache {
	cache, err := schema.Load(ctx, e.client, schema.FeedSchemaPath)
	if err != nil {
		e.logger.Debug("feed schema unavailable", e.logger.Args("error", err.Error()))
		return nil
	}
	return cache
}

// GetFeed prints one feed.
func (e *Executor) GetFeed(ctx context.Context, feedID string) error {
	resp, err := e.get(ctx, feedKind, feedPath(feedID))
	if resp == nil || err != nil {
		return err
	}

	settings := map[string]interface{}{}
	if details, ok := resp.Body["details"].(map[string]interface{}); ok {
		for k, v := range details {
			switch k {
			case "feedSourceType", "logType", "namespace", "labels":
			default:
				settings[k] = v
			}
		}
	}
	return e.printResource(feedTemplate, feedRecord(resp.Body, e.feedNames(ctx)), "Feed Settings", settings)
}

// ListFeeds prints every feed and optionally exports them.
func (e *Executor) ListFeeds(ctx context.Context, opts *ListOptions) error {
	names := e.feedNames(ctx)
	return e.list(ctx, &listing{
		kind:     feedKind,
		path:     feedsPath,
		template: feedTemplate,
		table:    feedTable(),
		columns:  feedColumns,
		record: func(feed map[string]interface{}) map[string]interface{} {
			return feedRecord(feed, names)
		},
	}, opts)
}

// DeleteFeed deletes a feed.
func (e *Executor) DeleteFeed(ctx context.Context, feedID string) error {
	return e.deleteResource(ctx, feedKind, feedPath(feedID), fmt.Sprintf("Feed with ID %s deleted successfully.", feedID))
}

// EnableFeed enables a feed.
func (e *Executor) EnableFeed(ctx context.Context, feedID string) error {
	return e.setFeedState(ctx, feedID, "enable", "enabled")
}

// DisableFeed disables a feed.
func (e *Executor) DisableFeed(ctx context.Context, feedID string) error {
	return e.setFeedState(ctx, feedID, "disable", "disabled")
}

func (e *Executor) setFeedState(ctx context.Context, feedID, verb, done string) error {
	resp, err := e.client.Do(ctx, &api.Request{
		Method:   http.MethodPost,
		Path:     feedPath(feedID) + ":" + verb,
		Activity: fmt.Sprintf("Requesting %s", verb),
	})
	if err != nil {
		return err
	}
	e.logBody(resp)
	if e.lookupFailed(feedKind, resp) {
		return nil
	}
	if !resp.OK() {
		e.reportFailure(verb[:len(verb)-1]+"ing", feedKind, resp)
		return nil
	}

	state, err := resp.String("state")
	if err != nil {
		return err
	}
	e.printf("Feed %s %s successfully with state: %s\n", feedID, done, state)
	return nil
}
