package executor

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/CliForge/siemctl/pkg/backup"
	"github.com/CliForge/siemctl/pkg/output"
	"github.com/CliForge/siemctl/pkg/request"
	"github.com/CliForge/siemctl/pkg/schema"
)

const forwardersPath = "/v2/forwarders"

func forwarderPath(id string) string {
	return forwardersPath + "/" + id
}

// displayNameOptions prompts for the display name before the schema. The
// name is mandatory when the resource is created.
func displayNameOptions(k *kind, create bool) *request.Options {
	return &request.Options{
		Leading: []request.Extra{{Node: &schema.Node{
			FieldPath:   "display_name",
			DisplayName: "Display name",
			Description: fmt.Sprintf("Name shown for the %s", k.name),
			Type:        schema.TypeString,
			IsRequired:  create,
		}}},
	}
}

// loadForwarderSchema fetches the forwarder document and selects the tree
// of k. It returns nil after reporting a missing schema.
func (e *Executor) loadForwarderSchema(ctx context.Context, k *kind) (*schema.Node, error) {
	cache, err := schema.Load(ctx, e.client, schema.ForwarderSchemaPath)
	if err != nil {
		return nil, err
	}
	var root *schema.Node
	if k == collectorKind {
		root, err = cache.Collector()
	} else {
		root, err = cache.Forwarder()
	}
	if errors.Is(err, schema.ErrSchemaNotFound) {
		e.println(err.Error())
		return nil, nil
	}
	return root, err
}

// CreateForwarder creates a forwarder.
func (e *Executor) CreateForwarder(ctx context.Context) error {
	root, err := e.loadForwarderSchema(ctx, forwarderKind)
	if root == nil || err != nil {
		return err
	}

	var seed map[string]interface{}
	record, err := e.resumeCreate(forwarderKind, backup.Identity{})
	if err != nil {
		return err
	}
	if record != nil {
		seed = record.Fields
	}

	return e.submit(ctx, &mutation{
		kind:     forwarderKind,
		op:       backup.OpCreate,
		identity: e.identity(backup.Identity{}),
		root:     root,
		seed:     seed,
		options:  displayNameOptions(forwarderKind, true),
		method:   http.MethodPost,
		path:     forwardersPath,
	})
}

// UpdateForwarder updates the forwarder with the given ID.
func (e *Executor) UpdateForwarder(ctx context.Context, forwarderID string) error {
	if forwarderID == "" {
		return fmt.Errorf("forwarder ID is required")
	}

	resp, err := e.get(ctx, forwarderKind, forwarderPath(forwarderID))
	if resp == nil || err != nil {
		return err
	}
	root, err := e.loadForwarderSchema(ctx, forwarderKind)
	if root == nil || err != nil {
		return err
	}

	id := e.identity(backup.Identity{Name: "forwarders/" + forwarderID})
	seed := request.Seed(root, resp.Body)
	record, err := e.resumeUpdate(forwarderKind, id)
	if err != nil {
		return err
	}
	if record != nil {
		seed = record.Fields
	}

	return e.submit(ctx, &mutation{
		kind:     forwarderKind,
		op:       backup.OpUpdate,
		identity: id,
		root:     root,
		seed:     seed,
		options:  displayNameOptions(forwarderKind, false),
		method:   http.MethodPatch,
		path:     forwarderPath(forwarderID),
		id:       forwarderID,
	})
}

const forwarderTemplate = `ID: {id}
Display Name: {displayName}
State: {state}
Upload Compression: {uploadCompression}
Asset Namespace: {assetNamespace}
Labels: {labels}`

var forwarderColumns = []string{"id", "displayName", "state", "uploadCompression", "assetNamespace", "labels"}

func forwarderRecord(f map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"id":                resourceID(lookupString(f, "name")),
		"displayName":       lookupString(f, "displayName"),
		"state":             lookupString(f, "state"),
		"uploadCompression": lookupString(f, "config.uploadCompression"),
		"assetNamespace":    lookupString(f, "config.metadata.assetNamespace"),
		"labels":            labelsText(lookup(f, "config.metadata.labels")),
	}
}

// GetForwarder prints one forwarder.
func (e *Executor) GetForwarder(ctx context.Context, forwarderID string) error {
	resp, err := e.get(ctx, forwarderKind, forwarderPath(forwarderID))
	if resp == nil || err != nil {
		return err
	}
	config, _ := resp.Body["config"].(map[string]interface{})
	return e.printResource(forwarderTemplate, forwarderRecord(resp.Body), "Config", config)
}

// ListForwarders prints every forwarder and optionally exports them.
func (e *Executor) ListForwarders(ctx context.Context, opts *ListOptions) error {
	return e.list(ctx, &listing{
		kind:     forwarderKind,
		path:     forwardersPath,
		template: forwarderTemplate,
		table:    &output.Table{Headers: []string{"ID", "Display Name", "State", "Upload Compression", "Asset Namespace", "Labels"}},
		columns:  forwarderColumns,
		record:   forwarderRecord,
	}, opts)
}

// DeleteForwarder deletes a forwarder.
func (e *Executor) DeleteForwarder(ctx context.Context, forwarderID string) error {
	return e.deleteResource(ctx, forwarderKind, forwarderPath(forwarderID),
		fmt.Sprintf("Forwarder (ID: %s) deleted successfully.", forwarderID))
}
