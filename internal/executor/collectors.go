package executor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/CliForge/siemctl/pkg/backup"
	"github.com/CliForge/siemctl/pkg/output"
	"github.com/CliForge/siemctl/pkg/request"
)

func collectorsPath(forwarderID string) string {
	return forwarderPath(forwarderID) + "/collectors"
}

func collectorPath(forwarderID, collectorID string) string {
	return collectorsPath(forwarderID) + "/" + collectorID
}

func requireIDs(ids ...string) error {
	names := []string{"forwarder ID", "collector ID"}
	for i, id := range ids {
		if id == "" {
			return fmt.Errorf("%s is required", names[i])
		}
	}
	return nil
}

// CreateCollector creates a collector under a forwarder.
func (e *Executor) CreateCollector(ctx context.Context, forwarderID string) error {
	if err := requireIDs(forwarderID); err != nil {
		return err
	}
	root, err := e.loadForwarderSchema(ctx, collectorKind)
	if root == nil || err != nil {
		return err
	}

	want := backup.Identity{ForwarderID: forwarderID}
	var seed map[string]interface{}
	record, err := e.resumeCreate(collectorKind, want)
	if err != nil {
		return err
	}
	if record != nil {
		seed = record.Fields
	}

	return e.submit(ctx, &mutation{
		kind:     collectorKind,
		op:       backup.OpCreate,
		identity: e.identity(want),
		root:     root,
		seed:     seed,
		options:  displayNameOptions(collectorKind, true),
		method:   http.MethodPost,
		path:     collectorsPath(forwarderID),
	})
}

// UpdateCollector updates a collector of a forwarder.
func (e *Executor) UpdateCollector(ctx context.Context, forwarderID, collectorID string) error {
	if err := requireIDs(forwarderID, collectorID); err != nil {
		return err
	}

	resp, err := e.get(ctx, collectorKind, collectorPath(forwarderID, collectorID))
	if resp == nil || err != nil {
		return err
	}
	root, err := e.loadForwarderSchema(ctx, collectorKind)
	if root == nil || err != nil {
		return err
	}

	id := e.identity(backup.Identity{
		Name:        fmt.Sprintf("forwarders/%s/collectors/%s", forwarderID, collectorID),
		ForwarderID: forwarderID,
	})
	seed := request.Seed(root, resp.Body)
	record, err := e.resumeUpdate(collectorKind, id)
	if err != nil {
		return err
	}
	if record != nil {
		seed = record.Fields
	}

	return e.submit(ctx, &mutation{
		kind:     collectorKind,
		op:       backup.OpUpdate,
		identity: id,
		root:     root,
		seed:     seed,
		options:  displayNameOptions(collectorKind, false),
		method:   http.MethodPatch,
		path:     collectorPath(forwarderID, collectorID),
		id:       collectorID,
	})
}

const collectorTemplate = `ID: {id}
Display Name: {displayName}
State: {state}
Log Type: {logType}
Asset Namespace: {assetNamespace}
Labels: {labels}`

var collectorColumns = []string{"id", "displayName", "state", "logType", "assetNamespace", "labels"}

func collectorRecord(c map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"id":             resourceID(lookupString(c, "name")),
		"displayName":    lookupString(c, "displayName"),
		"state":          lookupString(c, "state"),
		"logType":        lookupString(c, "config.logType"),
		"assetNamespace": lookupString(c, "config.metadata.assetNamespace"),
		"labels":         labelsText(lookup(c, "config.metadata.labels")),
	}
}

// GetCollector prints one collector.
func (e *Executor) GetCollector(ctx context.Context, forwarderID, collectorID string) error {
	if err := requireIDs(forwarderID, collectorID); err != nil {
		return err
	}
	resp, err := e.get(ctx, collectorKind, collectorPath(forwarderID, collectorID))
	if resp == nil || err != nil {
		return err
	}
	config, _ := resp.Body["config"].(map[string]interface{})
	return e.printResource(collectorTemplate, collectorRecord(resp.Body), "Config", config)
}

// ListCollectors prints every collector of a forwarder and optionally
// exports them.
func (e *Executor) ListCollectors(ctx context.Context, forwarderID string, opts *ListOptions) error {
	if err := requireIDs(forwarderID); err != nil {
		return err
	}
	return e.list(ctx, &listing{
		kind:     collectorKind,
		path:     collectorsPath(forwarderID),
		template: collectorTemplate,
		table:    &output.Table{Headers: []string{"ID", "Display Name", "State", "Log Type", "Asset Namespace", "Labels"}},
		parent:   forwarderKind,
		columns:  collectorColumns,
		record:   collectorRecord,
	}, opts)
}

// DeleteCollector deletes a collector of a forwarder.
func (e *Executor) DeleteCollector(ctx context.Context, forwarderID, collectorID string) error {
	if err := requireIDs(forwarderID, collectorID); err != nil {
		return err
	}
	return e.deleteResource(ctx, collectorKind, collectorPath(forwarderID, collectorID),
		fmt.Sprintf("Collector (ID: %s) deleted successfully.", collectorID))
}
