package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/CliForge/siemctl/pkg/api"
	"github.com/CliForge/siemctl/pkg/output"
)

// ListOptions configures a list command.
type ListOptions struct {
	// Export is the file the list is written to. Empty skips the export.
	Export string
	Format output.Format
}

// listing describes how one kind is listed.
type listing struct {
	kind     *kind
	path     string
	template string
	table    *output.Table
	// parent names the resource an invalid path ID refers to, if any.
	parent *kind
	// columns are the record keys in table column order.
	columns []string
	record  func(map[string]interface{}) map[string]interface{}
}

// list fetches every page of a collection, prints one block per resource and
// exports the result when asked.
func (e *Executor) list(ctx context.Context, l *listing, opts *ListOptions) error {
	if opts == nil {
		opts = &ListOptions{}
	}

	var items []map[string]interface{}
	var raw []byte
	pages := 0
	query := url.Values{}
	for {
		resp, err := e.client.Do(ctx, &api.Request{
			Method:   http.MethodGet,
			Path:     l.path,
			Query:    query,
			Activity: "Fetching " + l.kind.plural,
		})
		if err != nil {
			return err
		}
		e.logBody(resp)
		if resp.StatusCode != http.StatusOK {
			if l.parent != nil && e.lookupFailed(l.parent, resp) {
				return nil
			}
			e.reportFailure("listing", l.kind, resp)
			return nil
		}

		page, err := resp.List(l.kind.plural)
		if err != nil {
			return err
		}
		items = append(items, page...)
		raw = resp.Raw
		pages++

		token, _ := resp.Body["nextPageToken"].(string)
		if token == "" {
			break
		}
		query = url.Values{"page_token": {token}}
	}

	if len(items) == 0 {
		e.printf("No %s found.\n", l.kind.plural)
		return nil
	}

	engine := output.NewTemplateEngine()
	records := make([]map[string]interface{}, 0, len(items))
	for i, item := range items {
		record := l.record(item)
		records = append(records, record)

		block, err := engine.Render(l.template, record)
		if err != nil {
			return err
		}
		if i > 0 {
			e.println()
		}
		e.println(block)

		cells := make([]string, len(l.columns))
		for c, key := range l.columns {
			cells[c] = fmt.Sprint(record[key])
		}
		l.table.Append(cells...)
	}

	if opts.Export == "" {
		return nil
	}
	format := opts.Format
	if format == "" {
		format = output.FormatCSV
	}
	if pages > 1 {
		combined, err := json.Marshal(map[string]interface{}{l.kind.plural: items})
		if err != nil {
			return err
		}
		raw = combined
	}
	target, err := output.Export(opts.Export, format, &output.ExportData{
		Raw:      raw,
		Table:    l.table,
		Records:  records,
		Template: l.template,
	})
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", l.kind.plural, err)
	}
	e.printf("%s data successfully exported to: %s\n", l.kind.title, target)
	return nil
}

// printResource prints the templated summary of a resource followed by a
// YAML section.
func (e *Executor) printResource(template string, record map[string]interface{}, section string, body map[string]interface{}) error {
	block, err := output.NewTemplateEngine().Render(template, record)
	if err != nil {
		return err
	}
	e.println(block)
	if len(body) == 0 {
		return nil
	}

	text, err := output.YAML(body)
	if err != nil {
		return err
	}
	e.printf("%s:\n", section)
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		e.printf("  %s\n", line)
	}
	return nil
}

// deleteResource issues a DELETE and prints success on 200.
func (e *Executor) deleteResource(ctx context.Context, k *kind, path, success string) error {
	resp, err := e.client.Do(ctx, &api.Request{Method: http.MethodDelete, Path: path, Activity: "Deleting " + k.name})
	if err != nil {
		return err
	}
	e.logBody(resp)
	if e.lookupFailed(k, resp) {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		e.reportFailure("deleting", k, resp)
		return nil
	}
	e.println(success)
	return nil
}

// get fetches one resource. It returns nil when the failure was reported.
func (e *Executor) get(ctx context.Context, k *kind, path string) (*api.Response, error) {
	resp, err := e.client.Do(ctx, &api.Request{Method: http.MethodGet, Path: path, Activity: "Fetching " + k.name})
	if err != nil {
		return nil, err
	}
	e.logBody(resp)
	if e.lookupFailed(k, resp) {
		return nil, nil
	}
	if !resp.OK() {
		e.reportFailure("fetching", k, resp)
		return nil, nil
	}
	return resp, nil
}
