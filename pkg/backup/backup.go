// Package backup persists an in-progress request so a failed create or update
// can be resumed by the next invocation.
//
// Each resource kind owns two files under the configuration directory:
//
//	<dir>/<kind>/create_backup.json
//	<dir>/<kind>/update_backup.json
//
// A file holds one JSON object: the flattened request fields plus the
// identity keys of the resource they belong to. Secret values never reach
// this package because Record is built from fieldmap.Map.Backup, which drops
// them by value kind.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CliForge/siemctl/pkg/fieldmap"
)

// Op selects the create or update backup of a kind.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
)

// ErrNoBackup is returned by Load when no usable backup exists.
var ErrNoBackup = errors.New("no backup found")

// Identity keys stored next to the fields.
const (
	keyName              = "name"
	keyFeedSourceType    = "feedSourceType"
	keyLogType           = "logType"
	keyDisplaySourceType = "display_source_type"
	keyDisplayLogType    = "display_log_type"
	keyForwarderID       = "forwarderId"
	keyRegion            = "region"
	keyEnv               = "env"
)

// Identity names the resource a backup belongs to.
type Identity struct {
	Name              string
	FeedSourceType    string
	LogType           string
	DisplaySourceType string
	DisplayLogType    string
	ForwarderID       string
	Region            string
	Env               string
}

// Matches reports whether a stored identity belongs to the resource want
// names. Backups written without a region or environment match any.
func (id Identity) Matches(want Identity) bool {
	if id.Name != want.Name || id.ForwarderID != want.ForwarderID {
		return false
	}
	if id.Region != "" && !strings.EqualFold(id.Region, want.Region) {
		return false
	}
	if id.Env != "" && !strings.EqualFold(id.Env, want.Env) {
		return false
	}
	return true
}

// Record is the content of a backup file.
type Record struct {
	Identity Identity
	// Fields maps snake_case field paths to JSON values.
	Fields map[string]interface{}
}

// NewRecord builds a record from the builder's field map. Secrets are
// dropped.
func NewRecord(id Identity, fields *fieldmap.Map) *Record {
	return &Record{Identity: id, Fields: fields.Backup()}
}

// MarshalJSON writes identity keys and fields as one flat object.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Fields)+8)
	for k, v := range r.Fields {
		out[k] = v
	}
	setIfNotEmpty(out, keyName, r.Identity.Name)
	setIfNotEmpty(out, keyFeedSourceType, r.Identity.FeedSourceType)
	setIfNotEmpty(out, keyLogType, r.Identity.LogType)
	setIfNotEmpty(out, keyDisplaySourceType, r.Identity.DisplaySourceType)
	setIfNotEmpty(out, keyDisplayLogType, r.Identity.DisplayLogType)
	setIfNotEmpty(out, keyForwarderID, r.Identity.ForwarderID)
	setIfNotEmpty(out, keyRegion, r.Identity.Region)
	setIfNotEmpty(out, keyEnv, r.Identity.Env)
	return json.Marshal(out)
}

// UnmarshalJSON splits a flat object into identity keys and fields.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in map[string]interface{}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.Identity = Identity{
		Name:              takeString(in, keyName),
		FeedSourceType:    takeString(in, keyFeedSourceType),
		LogType:           takeString(in, keyLogType),
		DisplaySourceType: takeString(in, keyDisplaySourceType),
		DisplayLogType:    takeString(in, keyDisplayLogType),
		ForwarderID:       takeString(in, keyForwarderID),
		Region:            takeString(in, keyRegion),
		Env:               takeString(in, keyEnv),
	}
	r.Fields = in
	return nil
}

func setIfNotEmpty(m map[string]interface{}, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func takeString(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	delete(m, key)
	s, _ := v.(string)
	return s
}

// Store reads and writes backup files under one directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the backup file of kind and op.
func (s *Store) Path(kind string, op Op) string {
	return filepath.Join(s.dir, kind, string(op)+"_backup.json")
}

// Load reads a backup. A missing or empty file yields ErrNoBackup.
func (s *Store) Load(kind string, op Op) (*Record, error) {
	data, err := os.ReadFile(s.Path(kind, op))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoBackup
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrNoBackup
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse backup %s: %w", s.Path(kind, op), err)
	}
	if len(r.Fields) == 0 && r.Identity == (Identity{}) {
		return nil, ErrNoBackup
	}
	return &r, nil
}

// Save writes a backup atomically.
func (s *Store) Save(kind string, op Op, r *Record) error {
	path := s.Path(kind, op)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save backup file: %w", err)
	}
	return nil
}

// Remove deletes a backup. A missing file is not an error.
func (s *Store) Remove(kind string, op Op) error {
	err := os.Remove(s.Path(kind, op))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove backup: %w", err)
	}
	return nil
}
