// Package executor runs siemctl operations against the SIEM API.
//
// Each resource kind (feed, forwarder, collector) exposes the same set of
// drivers. Create and update share one flow:
//
//  1. Resume from a backup left by a failed attempt, or start fresh
//  2. Load the schema and walk it with the request builder
//  3. Preview the body and ask for confirmation
//  4. Send the request
//  5. On failure report the error and write the backup; on success remove it
//
// Handled failures (invalid IDs, server errors already reported to the user)
// return nil. Only unexpected conditions surface as errors.
package executor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/CliForge/siemctl/pkg/api"
	"github.com/CliForge/siemctl/pkg/backup"
	"github.com/CliForge/siemctl/pkg/request"
	"github.com/CliForge/siemctl/pkg/secrets"
	"github.com/pterm/pterm"
)

// Prompter is the interactive input the drivers depend on.
type Prompter interface {
	request.Prompter
}

// Executor runs resource operations for one command invocation.
type Executor struct {
	client    *api.Client
	prompter  Prompter
	backups   *backup.Store
	out       io.Writer
	logger    *pterm.Logger
	redactor  *secrets.Redactor
	masking   *secrets.Masking
	skipRules []request.SkipRule
	pager     []string
	region    string
	env       string
}

// Config configures an Executor.
type Config struct {
	Client   *api.Client
	Prompter Prompter
	Backups  *backup.Store
	// Output receives result lines (default: stdout).
	Output io.Writer
	Logger *pterm.Logger
	// Region and Env are recorded in backups.
	Region string
	Env    string
	// Pager is the command previews are piped through. Empty prints directly.
	Pager []string
	// SkipRules default to request.DefaultSkipRules when nil.
	SkipRules []request.SkipRule
	Masking   *secrets.Masking
}

// NewExecutor creates a new Executor.
func NewExecutor(config *Config) (*Executor, error) {
	if config == nil {
		return nil, fmt.Errorf("executor config is required")
	}
	if config.Client == nil {
		return nil, fmt.Errorf("API client is required")
	}
	if config.Prompter == nil {
		return nil, fmt.Errorf("prompter is required")
	}
	if config.Backups == nil {
		return nil, fmt.Errorf("backup store is required")
	}

	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	logger := config.Logger
	if logger == nil {
		logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}
	masking := config.Masking
	if masking == nil {
		masking = secrets.DefaultMasking
	}
	redactor, err := secrets.NewRedactor(masking)
	if err != nil {
		return nil, err
	}

	return &Executor{
		client:    config.Client,
		prompter:  config.Prompter,
		backups:   config.Backups,
		out:       out,
		logger:    logger,
		redactor:  redactor,
		masking:   masking,
		skipRules: config.SkipRules,
		pager:     config.Pager,
		region:    config.Region,
		env:       config.Env,
	}, nil
}

// kind describes one resource kind.
type kind struct {
	// name is used in messages ("feed").
	name string
	// title is the capitalized name ("Feed").
	title string
	// plural is the list key and the backup directory ("feeds").
	plural    string
	invalidID string
	notFound  string
}

var (
	feedKind = &kind{
		name:      "feed",
		title:     "Feed",
		plural:    "feeds",
		invalidID: "Invalid Feed ID. Please enter valid Feed ID.",
		notFound:  "Invalid Feed ID. Please enter valid Feed ID.",
	}
	forwarderKind = &kind{
		name:      "forwarder",
		title:     "Forwarder",
		plural:    "forwarders",
		invalidID: "Invalid Forwarder ID. Please enter valid Forwarder ID.",
		notFound:  "Forwarder does not exist.",
	}
	collectorKind = &kind{
		name:      "collector",
		title:     "Collector",
		plural:    "collectors",
		invalidID: "Invalid Collector ID. Please enter valid Collector ID.",
		notFound:  "Collector does not exist.",
	}
)

func (e *Executor) println(a ...interface{}) {
	fmt.Fprintln(e.out, a...)
}

func (e *Executor) printf(format string, a ...interface{}) {
	fmt.Fprintf(e.out, format, a...)
}

// lookupFailed prints the ID message for 400 and 404 responses and reports
// whether it did.
func (e *Executor) lookupFailed(k *kind, resp *api.Response) bool {
	switch resp.StatusCode {
	case 400:
		e.println(k.invalidID)
	case 404:
		e.println(k.notFound)
	default:
		return false
	}
	return true
}

// reportFailure prints the status and server message of a failed call.
func (e *Executor) reportFailure(activity string, k *kind, resp *api.Response) {
	e.printf("Error occurred while %s %s\n", activity, k.name)
	e.printf("Response Code: %d\n", resp.StatusCode)
	e.printf("Error: %s\n", resp.ErrorMessage())
}

// logBody logs a response body with secret-looking keys masked.
func (e *Executor) logBody(resp *api.Response) {
	body := ""
	if len(resp.Body) > 0 {
		data, err := json.MarshalIndent(e.redactor.RedactJSON(resp.Body), "", "  ")
		if err == nil {
			body = string(data)
		}
	} else {
		body = strings.TrimSpace(string(resp.Raw))
	}
	e.logger.Debug("response body", e.logger.Args("status", resp.StatusCode, "body", body))
}

// resourceID returns the last segment of a resource name such as
// "forwarders/f1/collectors/c1".
func resourceID(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// lookup walks a camelCase dotted path through a decoded body.
func lookup(m map[string]interface{}, path string) interface{} {
	var current interface{} = m
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = obj[part]
	}
	return current
}

func lookupString(m map[string]interface{}, path string) string {
	switch v := lookup(m, path).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// labelsText renders a label list as "k:v, k2:v2".
func labelsText(v interface{}) string {
	items, ok := v.([]interface{})
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		switch l := item.(type) {
		case map[string]interface{}:
			parts = append(parts, fmt.Sprintf("%v:%v", l["key"], l["value"]))
		default:
			parts = append(parts, fmt.Sprint(l))
		}
	}
	return strings.Join(parts, ", ")
}
