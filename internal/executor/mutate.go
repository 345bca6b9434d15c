package executor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/CliForge/siemctl/pkg/api"
	"github.com/CliForge/siemctl/pkg/backup"
	"github.com/CliForge/siemctl/pkg/fieldmap"
	"github.com/CliForge/siemctl/pkg/interactive"
	"github.com/CliForge/siemctl/pkg/request"
	"github.com/CliForge/siemctl/pkg/schema"
)

// fixedField is written to the request after the build.
type fixedField struct {
	path  string
	value fieldmap.Value
}

// mutation is one create or update request.
type mutation struct {
	kind     *kind
	op       backup.Op
	identity backup.Identity
	root     *schema.Node
	seed     map[string]interface{}
	options  *request.Options
	fixed    []fixedField
	method   string
	path     string
	// id is reported on success when the response carries no name.
	id string
	// maskExclude lists snake_case paths never sent in update_mask.
	maskExclude []string
}

func (m *mutation) activity() string {
	if m.op == backup.OpCreate {
		return "creating"
	}
	return "updating"
}

func (m *mutation) progressLabel() string {
	if m.op == backup.OpCreate {
		return "Creating " + m.kind.name
	}
	return "Updating " + m.kind.name
}

func (m *mutation) done() string {
	if m.op == backup.OpCreate {
		return "created"
	}
	return "updated"
}

// submit builds, previews and sends a mutation, then updates the backup.
func (e *Executor) submit(ctx context.Context, m *mutation) error {
	opts := m.options
	if opts == nil {
		opts = &request.Options{}
	}
	if opts.SkipRules == nil {
		opts.SkipRules = e.skipRules
	}
	builder, err := request.NewBuilder(e.prompter, opts)
	if err != nil {
		return err
	}

	result, err := builder.Build(m.root, m.seed)
	if err != nil {
		return err
	}
	for _, f := range m.fixed {
		result.Fields.Set(f.path, f.value)
	}

	confirmed, err := e.confirmRequest(fmt.Sprintf("%s %s request", m.kind.title, m.op), result.Fields)
	if err != nil {
		return err
	}
	if !confirmed {
		return e.backups.Remove(m.kind.plural, m.op)
	}

	body, err := result.Body()
	if err != nil {
		return fmt.Errorf("failed to build request body: %w", err)
	}
	req := &api.Request{
		Method:   m.method,
		Path:     m.path,
		Body:     body,
		Activity: m.progressLabel(),
	}
	if m.op == backup.OpUpdate {
		mask := result.UpdateMask(m.maskExclude...)
		req.Query = url.Values{"update_mask": {strings.Join(mask, ",")}}
	}

	resp, err := e.client.Do(ctx, req)
	if err != nil {
		return err
	}
	e.logBody(resp)

	if resp.StatusCode != http.StatusOK {
		e.reportFailure(m.activity(), m.kind, resp)
		record := backup.NewRecord(m.identity, result.Fields)
		if err := e.backups.Save(m.kind.plural, m.op, record); err != nil {
			return err
		}
		e.logger.Debug("backup written", e.logger.Args("path", e.backups.Path(m.kind.plural, m.op)))
		return nil
	}

	id := m.id
	if name, err := resp.String("name"); err == nil {
		id = resourceID(name)
	} else if id == "" {
		return err
	}
	e.printf("%s %s successfully with %s ID: %s\n", m.kind.title, m.done(), m.kind.title, id)
	return e.backups.Remove(m.kind.plural, m.op)
}

// resumeCreate returns the create backup of k when the operator wants to
// retry with it. A declined backup is removed. want narrows the backups
// considered to those of the same parent resource.
func (e *Executor) resumeCreate(k *kind, want backup.Identity) (*backup.Record, error) {
	record, err := e.loadBackup(k, backup.OpCreate)
	if record == nil || err != nil {
		return nil, err
	}
	if record.Identity.ForwarderID != want.ForwarderID {
		e.logger.Debug("create backup belongs to another forwarder", e.logger.Args("forwarder", record.Identity.ForwarderID))
		return nil, nil
	}
	return e.offerBackup(k, backup.OpCreate, record,
		fmt.Sprintf("A backup of a previous attempt to create a %s was found. Do you want to retry with it?", k.name))
}

// resumeUpdate returns the update backup of the resource want names when the
// operator wants to retry with it. Backups of any other resource, region or
// environment are stale and removed.
func (e *Executor) resumeUpdate(k *kind, want backup.Identity) (*backup.Record, error) {
	record, err := e.loadBackup(k, backup.OpUpdate)
	if record == nil || err != nil {
		return nil, err
	}
	if !record.Identity.Matches(want) {
		e.logger.Debug("discarding stale update backup", e.logger.Args("name", record.Identity.Name))
		return nil, e.backups.Remove(k.plural, backup.OpUpdate)
	}
	return e.offerBackup(k, backup.OpUpdate, record,
		fmt.Sprintf("A backup of a previous attempt to update %s %s was found. Do you want to retry with it?", k.name, resourceID(want.Name)))
}

func (e *Executor) loadBackup(k *kind, op backup.Op) (*backup.Record, error) {
	record, err := e.backups.Load(k.plural, op)
	if errors.Is(err, backup.ErrNoBackup) {
		return nil, nil
	}
	if err != nil {
		e.prompter.Warn(fmt.Sprintf("Ignoring unreadable backup: %v", err))
		return nil, e.backups.Remove(k.plural, op)
	}
	return record, nil
}

func (e *Executor) offerBackup(k *kind, op backup.Op, record *backup.Record, message string) (*backup.Record, error) {
	retry, err := e.prompter.Confirm(&interactive.ConfirmPromptOptions{Message: message, Default: true})
	if err != nil {
		return nil, err
	}
	if !retry {
		return nil, e.backups.Remove(k.plural, op)
	}
	return record, nil
}

// identity returns an identity stamped with the current region and
// environment.
func (e *Executor) identity(id backup.Identity) backup.Identity {
	id.Region = e.region
	id.Env = e.env
	return id
}
