package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/CliForge/siemctl/pkg/api"
)

// Schema document endpoints.
const (
	FeedSchemaPath      = "/v1/feedSchema"
	ForwarderSchemaPath = "/v2/forwarderSchema"
)

// ErrSchemaNotFound is returned when the document has no schema for the
// requested resource.
var ErrSchemaNotFound = errors.New("Schema Not Found.")

// excludedSourceTypes are never offered for feed creation.
var excludedSourceTypes = map[string]bool{"SFTP": true}

// Getter fetches a path relative to the service base URL.
type Getter interface {
	Get(ctx context.Context, path string) (*api.Response, error)
}

// LogTypeSchema is the schema of one (source type, log type) pair.
type LogTypeSchema struct {
	LogType     string  `json:"logType"`
	DisplayName string  `json:"displayName"`
	ReadOnly    bool    `json:"readOnly,omitempty"`
	Details     []*Node `json:"detailsFieldSchemas,omitempty"`
}

// SourceTypeSchema groups the log types of one feed source type.
type SourceTypeSchema struct {
	FeedSourceType string           `json:"feedSourceType"`
	DisplayName    string           `json:"displayName"`
	ReadOnly       bool             `json:"readOnly,omitempty"`
	LogTypes       []*LogTypeSchema `json:"logTypeSchemas,omitempty"`
}

// Document is a decoded schema document. Feed and forwarder documents share
// the type; each populates its own keys.
type Document struct {
	FeedSourceTypes []*SourceTypeSchema `json:"feedSourceTypeSchemas,omitempty"`
	Forwarder       []*Node             `json:"forwarderFieldSchemas,omitempty"`
	Collector       []*Node             `json:"collectorFieldSchemas,omitempty"`
}

// LogTypeEntry is one selectable log type.
type LogTypeEntry struct {
	LogType     string
	DisplayName string
}

// SourceEntry is one selectable source type with its log types.
type SourceEntry struct {
	SourceType  string
	DisplayName string
	LogTypes    []LogTypeEntry
}

// Cache holds one schema document for the lifetime of a command. It is never
// mutated after construction.
type Cache struct {
	doc *Document
}

// Load fetches the schema document at path. Any failure is fatal for the
// calling command.
func Load(ctx context.Context, getter Getter, path string) (*Cache, error) {
	resp, err := getter.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schema: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("failed to fetch schema: Response Code: %d, Error: %s", resp.StatusCode, resp.ErrorMessage())
	}
	return Parse(resp.Raw)
}

// Parse decodes a schema document.
func Parse(data []byte) (*Cache, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return &Cache{doc: &doc}, nil
}

// DetailedSchema returns the details schema of a feed as a MESSAGE node
// rooted at "details".
func (c *Cache) DetailedSchema(sourceType, logType string) (*Node, error) {
	for _, src := range c.doc.FeedSourceTypes {
		if src.FeedSourceType != sourceType {
			continue
		}
		for _, lt := range src.LogTypes {
			if lt.LogType == logType {
				return &Node{
					FieldPath:   "details",
					DisplayName: lt.DisplayName,
					Type:        TypeMessage,
					IsRequired:  true,
					Children:    lt.Details,
				}, nil
			}
		}
	}
	return nil, ErrSchemaNotFound
}

// SourceLogMap returns the selectable source types and their log types in
// document order. Read-only entries and excluded source types are dropped, as
// are source types left without any selectable log type.
func (c *Cache) SourceLogMap() []SourceEntry {
	var out []SourceEntry
	for _, src := range c.doc.FeedSourceTypes {
		if src.ReadOnly || excludedSourceTypes[src.FeedSourceType] {
			continue
		}
		entry := SourceEntry{SourceType: src.FeedSourceType, DisplayName: src.DisplayName}
		for _, lt := range src.LogTypes {
			if lt.ReadOnly {
				continue
			}
			entry.LogTypes = append(entry.LogTypes, LogTypeEntry{LogType: lt.LogType, DisplayName: lt.DisplayName})
		}
		if len(entry.LogTypes) == 0 {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// DisplayNames returns the display names of a source/log type pair. Unknown
// types fall back to their wire values.
func (c *Cache) DisplayNames(sourceType, logType string) (string, string) {
	sourceName, logName := sourceType, logType
	for _, src := range c.doc.FeedSourceTypes {
		if src.FeedSourceType != sourceType {
			continue
		}
		if src.DisplayName != "" {
			sourceName = src.DisplayName
		}
		for _, lt := range src.LogTypes {
			if lt.LogType == logType && lt.DisplayName != "" {
				logName = lt.DisplayName
			}
		}
	}
	return sourceName, logName
}

// Forwarder returns the forwarder schema as a root MESSAGE node.
func (c *Cache) Forwarder() (*Node, error) {
	return rootNode("Forwarder", c.doc.Forwarder)
}

// Collector returns the collector schema as a root MESSAGE node.
func (c *Cache) Collector() (*Node, error) {
	return rootNode("Collector", c.doc.Collector)
}

func rootNode(name string, children []*Node) (*Node, error) {
	if len(children) == 0 {
		return nil, ErrSchemaNotFound
	}
	return &Node{DisplayName: name, Type: TypeMessage, IsRequired: true, Children: children}, nil
}
