package request

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/CliForge/siemctl/pkg/fieldmap"
	"github.com/CliForge/siemctl/pkg/interactive"
	"github.com/CliForge/siemctl/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder(t *testing.T, input string, opts *Options) (*Builder, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	p := interactive.NewPrompter(&interactive.PrompterConfig{
		Input:        strings.NewReader(input),
		Output:       out,
		DisableColor: true,
	})
	b, err := NewBuilder(p, opts)
	require.NoError(t, err)
	return b, out
}

func bodyJSON(t *testing.T, r *Result) string {
	t.Helper()
	body, err := r.Body()
	require.NoError(t, err)
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return string(data)
}

func dummySchema() *schema.Node {
	return &schema.Node{
		FieldPath:  "details",
		Type:       schema.TypeMessage,
		IsRequired: true,
		Children: []*schema.Node{
			{FieldPath: "details.dummy_settings.field1", DisplayName: "Field 1", Type: schema.TypeString, IsRequired: true},
			{FieldPath: "details.dummy_settings.field2", DisplayName: "Field 2", Type: schema.TypeString, IsRequired: true},
		},
	}
}

func feedOptions() *Options {
	null := fieldmap.Raw(nil)
	empty := fieldmap.String("")
	noLabels := fieldmap.Labels(nil)
	return &Options{
		Leading: []Extra{
			{Node: &schema.Node{FieldPath: "display_name", DisplayName: "Display name", Type: schema.TypeString}, Fallback: &null},
		},
		Trailing: []Extra{
			{Node: &schema.Node{FieldPath: "details.namespace", DisplayName: "Namespace", Type: schema.TypeString}, Fallback: &empty},
			{Node: &schema.Node{FieldPath: "details.labels", DisplayName: "Labels", Type: schema.TypeLabel}, Fallback: &noLabels},
		},
	}
}

func TestBuildCreate(t *testing.T) {
	b, _ := newBuilder(t, "\nabc.dummy.com\nID\n\n.\n", feedOptions())

	r, err := b.Build(dummySchema(), nil)
	require.NoError(t, err)
	r.Fields.Set("details.feed_source_type", fieldmap.String("DUMMY"))
	r.Fields.Set("details.log_type", fieldmap.String("DUMMY_LOGTYPE"))

	assert.JSONEq(t,
		`{"details":{"dummySettings":{"field1":"abc.dummy.com","field2":"ID"},"feedSourceType":"DUMMY","logType":"DUMMY_LOGTYPE","namespace":"","labels":[]},"displayName":null}`,
		bodyJSON(t, r))
	assert.Empty(t, r.RepeatedRoots)
}

func TestBuildUpdateKeepsExisting(t *testing.T) {
	b, out := newBuilder(t, "\nNEW\n", nil)

	seed := map[string]interface{}{
		"details.dummy_settings.field1": "old.host",
		"details.dummy_settings.field2": "OLD",
		"details.feed_source_type":      "DUMMY",
	}
	r, err := b.Build(dummySchema(), seed)
	require.NoError(t, err)

	assert.JSONEq(t, `{"details":{"dummySettings":{"field1":"old.host","field2":"NEW"}}}`, bodyJSON(t, r))
	assert.Equal(t, []string{"details.dummySettings.field1", "details.dummySettings.field2"}, r.UpdateMask())
	assert.Contains(t, out.String(), "[old.host]")
}

func collectorSchema(optional bool) *schema.Node {
	return &schema.Node{
		Type:       schema.TypeMessage,
		IsRequired: true,
		Children: []*schema.Node{{
			FieldPath:   "config",
			DisplayName: "Ingestion settings",
			Type:        schema.TypeOneOf,
			IsRequired:  true,
			OneOfOptions: []schema.Option{
				{DisplayName: "File", FieldPath: "config.file_settings", Children: []*schema.Node{
					{FieldPath: "config.file_settings.file_path", DisplayName: "File path", Type: schema.TypeString, IsRequired: !optional},
				}},
				{DisplayName: "Kafka", FieldPath: "config.kafka_settings", Children: []*schema.Node{
					{FieldPath: "config.kafka_settings.topic", DisplayName: "Topic", Type: schema.TypeString, IsRequired: !optional},
					{FieldPath: "config.kafka_settings.brokers", DisplayName: "Brokers", Type: schema.TypeRepeatedString, IsRequired: !optional},
				}},
			},
		}},
	}
}

func TestBuildOneOf(t *testing.T) {
	b, _ := newBuilder(t, "2\nt1\nb1, b2\n", nil)

	r, err := b.Build(collectorSchema(false), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"config":{"kafkaSettings":{"topic":"t1","brokers":["b1","b2"]}}}`, bodyJSON(t, r))
}

func TestBuildOneOfRequiresAField(t *testing.T) {
	b, out := newBuilder(t, "2\n\n\n2\nt1\n\n", nil)

	r, err := b.Build(collectorSchema(true), nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "At least one field of Kafka must be set.")
	assert.JSONEq(t, `{"config":{"kafkaSettings":{"topic":"t1"}}}`, bodyJSON(t, r))
}

func TestBuildOneOfPreselectsExisting(t *testing.T) {
	b, out := newBuilder(t, "\n\n\n", nil)

	seed := map[string]interface{}{
		"config.kafka_settings.topic":   "old",
		"config.kafka_settings.brokers": []interface{}{"b0"},
	}
	r, err := b.Build(collectorSchema(false), seed)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Enter your choice [2]")
	assert.JSONEq(t, `{"config":{"kafkaSettings":{"topic":"old","brokers":["b0"]}}}`, bodyJSON(t, r))
}

func syslogSchema() *schema.Node {
	return &schema.Node{
		FieldPath:  "config.syslog_settings",
		Type:       schema.TypeMessage,
		IsRequired: true,
		Children: []*schema.Node{
			{FieldPath: "config.syslog_settings.protocol", DisplayName: "Protocol", Type: schema.TypeEnum, IsRequired: true,
				EnumChoices: []schema.Choice{{DisplayName: "TCP", Value: "TCP"}, {DisplayName: "UDP", Value: "UDP"}}},
			{FieldPath: "config.syslog_settings.connection_timeout", DisplayName: "Connection timeout", Type: schema.TypeInt},
			{FieldPath: "config.syslog_settings.tls_settings", DisplayName: "TLS settings", Type: schema.TypeMessage, Children: []*schema.Node{
				{FieldPath: "config.syslog_settings.tls_settings.certificate", DisplayName: "Certificate", Type: schema.TypeString},
			}},
			{FieldPath: "config.syslog_settings.address", DisplayName: "Address", Type: schema.TypeString, IsRequired: true},
		},
	}
}

func TestBuildSkipsConnectionSettingsForUDP(t *testing.T) {
	b, out := newBuilder(t, "2\n0.0.0.0:514\n", nil)

	r, err := b.Build(syslogSchema(), nil)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "Connection timeout")
	assert.NotContains(t, out.String(), "TLS settings")
	assert.JSONEq(t, `{"config":{"syslogSettings":{"protocol":"UDP","address":"0.0.0.0:514"}}}`, bodyJSON(t, r))
}

func TestBuildPromptsConnectionSettingsForTCP(t *testing.T) {
	b, out := newBuilder(t, "1\n30\ny\ncert\n0.0.0.0:514\n", nil)

	r, err := b.Build(syslogSchema(), nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Do you want to configure TLS settings?")
	assert.JSONEq(t,
		`{"config":{"syslogSettings":{"protocol":"TCP","connectionTimeout":30,"tlsSettings":{"certificate":"cert"},"address":"0.0.0.0:514"}}}`,
		bodyJSON(t, r))
}

func filterSchema() *schema.Node {
	return &schema.Node{
		Type:       schema.TypeMessage,
		IsRequired: true,
		Children: []*schema.Node{
			{FieldPath: "config.upload_compression", DisplayName: "Upload compression", Type: schema.TypeBool},
			{FieldPath: "config.regex_filters", DisplayName: "Regex filter", Type: schema.TypeMessage, IsRepeated: true, Children: []*schema.Node{
				{FieldPath: "config.regex_filters.regexp", DisplayName: "Regexp", Type: schema.TypeString, IsRequired: true},
				{FieldPath: "config.regex_filters.description", DisplayName: "Description", Type: schema.TypeString},
			}},
		},
	}
}

func TestBuildRepeatedMessages(t *testing.T) {
	b, _ := newBuilder(t, "y\ny\n.*\ndesc\ny\na+\n\nn\n", nil)

	r, err := b.Build(filterSchema(), nil)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"config":{"uploadCompression":true,"regexFilters":[{"regexp":".*","description":"desc"},{"regexp":"a+"}]}}`,
		bodyJSON(t, r))
	assert.Equal(t, []string{"config.regex_filters"}, r.RepeatedRoots)
	assert.Equal(t, []string{"config.regexFilters", "config.uploadCompression"}, r.UpdateMask())
}

func TestBuildRepeatedMessagesWithExistingItems(t *testing.T) {
	seed := map[string]interface{}{
		"config.upload_compression": false,
		"config.regex_filters":      []interface{}{map[string]interface{}{"regexp": "old", "description": "kept"}},
	}

	t.Run("keep", func(t *testing.T) {
		b, out := newBuilder(t, "\nn\n", nil)
		r, err := b.Build(filterSchema(), seed)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Regex filter has 1 existing item(s)")
		assert.JSONEq(t,
			`{"config":{"uploadCompression":false,"regexFilters":[{"regexp":"old","description":"kept"}]}}`,
			bodyJSON(t, r))
	})

	t.Run("reconfigure", func(t *testing.T) {
		b, _ := newBuilder(t, "\ny\n\nnew\n\n", nil)
		r, err := b.Build(filterSchema(), seed)
		require.NoError(t, err)
		assert.JSONEq(t,
			`{"config":{"uploadCompression":false,"regexFilters":[{"regexp":"old","description":"new"}]}}`,
			bodyJSON(t, r))
	})
}

func TestBuildAlternatives(t *testing.T) {
	root := &schema.Node{
		FieldPath:  "details",
		Type:       schema.TypeMessage,
		IsRequired: true,
		Children: []*schema.Node{{
			FieldPath:   "details.auth",
			DisplayName: "Authentication",
			Type:        schema.TypeMessage,
			IsRequired:  true,
			Alternatives: []*schema.Alternative{
				{DisplayName: "OAuth client credentials", Children: []*schema.Node{
					{FieldPath: "details.auth.client_id", DisplayName: "Client ID", Type: schema.TypeString, IsRequired: true},
				}},
				{DisplayName: "Basic", Children: []*schema.Node{
					{FieldPath: "details.auth.user", DisplayName: "User", Type: schema.TypeString, IsRequired: true},
				}},
			},
		}},
	}

	b, _ := newBuilder(t, "2\nbob\n", nil)
	r, err := b.Build(root, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"details":{"auth":{"user":"bob"}}}`, bodyJSON(t, r))

	b, out := newBuilder(t, "\n\n", nil)
	r, err = b.Build(root, map[string]interface{}{"details.auth.client_id": "cid"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Enter your choice [1]")
	assert.JSONEq(t, `{"details":{"auth":{"clientId":"cid"}}}`, bodyJSON(t, r))
}

func TestBuildSkipsReadOnly(t *testing.T) {
	root := dummySchema()
	root.Children[0].ReadOnly = true

	b, out := newBuilder(t, "ID\n", nil)
	r, err := b.Build(root, nil)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "Field 1")
	assert.JSONEq(t, `{"details":{"dummySettings":{"field2":"ID"}}}`, bodyJSON(t, r))
}

func TestBuildSecretsStayOutOfBackup(t *testing.T) {
	root := &schema.Node{
		FieldPath:  "details",
		Type:       schema.TypeMessage,
		IsRequired: true,
		Children: []*schema.Node{
			{FieldPath: "details.user", DisplayName: "User", Type: schema.TypeString, IsRequired: true},
			{FieldPath: "details.secret", DisplayName: "Secret", Type: schema.TypeStringSecret, IsRequired: true},
		},
	}

	b, _ := newBuilder(t, "admin\nhunter2\n", nil)
	r, err := b.Build(root, nil)
	require.NoError(t, err)

	assert.Contains(t, bodyJSON(t, r), "hunter2")
	backup, err := json.Marshal(r.Fields.Backup())
	require.NoError(t, err)
	assert.NotContains(t, string(backup), "hunter2")
	assert.Contains(t, string(backup), "admin")
}

func TestBuildAborted(t *testing.T) {
	b, _ := newBuilder(t, "abc\n", nil)
	_, err := b.Build(dummySchema(), nil)
	assert.ErrorIs(t, err, interactive.ErrAborted)
}

func TestNewBuilderRejectsBadRule(t *testing.T) {
	p := interactive.NewPrompter(&interactive.PrompterConfig{Input: strings.NewReader(""), Output: &bytes.Buffer{}})
	_, err := NewBuilder(p, &Options{SkipRules: []SkipRule{{When: "protocol ==", Fields: []string{"x"}}}})
	assert.Error(t, err)
}

func TestBuildEmptyInputKeepsFetchedValue(t *testing.T) {
	tests := []struct {
		name  string
		node  *schema.Node
		value interface{}
		input string
	}{
		{
			name:  "map keys are kept verbatim",
			node:  &schema.Node{FieldPath: "details.http_settings.headers", Type: schema.TypeMapStringString},
			value: map[string]interface{}{"api_key": "v", "X-Trace": "t", "Accept": "json"},
			input: ".\n",
		},
		{
			name:  "key value list",
			node:  &schema.Node{FieldPath: "details.http_settings.params", Type: schema.TypeKeyValueList},
			value: []interface{}{map[string]interface{}{"key": "page_size", "value": "10"}},
			input: ".\n",
		},
		{
			name:  "labels",
			node:  &schema.Node{FieldPath: "details.http_settings.labels", Type: schema.TypeLabel},
			value: []interface{}{map[string]interface{}{"key": "env", "value": "prod"}},
			input: ".\n",
		},
		{
			name:  "string",
			node:  &schema.Node{FieldPath: "details.http_settings.host", Type: schema.TypeString, IsRequired: true},
			value: "old.host",
			input: "\n",
		},
		{
			name:  "integer",
			node:  &schema.Node{FieldPath: "details.http_settings.port", Type: schema.TypeInt},
			value: float64(514),
			input: "\n",
		},
		{
			name:  "bool",
			node:  &schema.Node{FieldPath: "details.http_settings.verify_tls", Type: schema.TypeBool},
			value: true,
			input: "\n",
		},
		{
			name: "enum",
			node: &schema.Node{FieldPath: "details.http_settings.protocol", Type: schema.TypeEnum, EnumChoices: []schema.Choice{
				{DisplayName: "Udp", Value: "UDP"},
				{DisplayName: "Tcp", Value: "TCP"},
			}},
			value: "TCP",
			input: "\n",
		},
		{
			name:  "secret",
			node:  &schema.Node{FieldPath: "details.http_settings.api_token", Type: schema.TypeStringSecret},
			value: "hunter2",
			input: "\n",
		},
		{
			name:  "multiline",
			node:  &schema.Node{FieldPath: "details.http_settings.banner", Type: schema.TypeStringMultiline},
			value: "line one\nline two",
			input: ".\n",
		},
		{
			name:  "multiline secret",
			node:  &schema.Node{FieldPath: "details.http_settings.private_key", Type: schema.TypeStringMultilineSecret},
			value: "-----BEGIN KEY-----\nabc",
			input: ".\n",
		},
		{
			name:  "repeated string",
			node:  &schema.Node{FieldPath: "details.http_settings.hosts", Type: schema.TypeRepeatedString},
			value: []interface{}{"a", "b"},
			input: "\n",
		},
		{
			name:  "string list",
			node:  &schema.Node{FieldPath: "details.http_settings.scopes", Type: schema.TypeStringList},
			value: []interface{}{"read"},
			input: "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := &schema.Node{
				FieldPath:  "details",
				Type:       schema.TypeMessage,
				IsRequired: true,
				Children:   []*schema.Node{tt.node},
			}
			body := map[string]interface{}{
				"details": map[string]interface{}{
					"httpSettings": map[string]interface{}{
						fieldmap.ToCamel(fieldmap.LastSegment(tt.node.FieldPath)): tt.value,
					},
				},
			}
			want, err := json.Marshal(body)
			require.NoError(t, err)

			b, _ := newBuilder(t, tt.input, nil)
			r, err := b.Build(root, Seed(root, body))
			require.NoError(t, err)

			assert.JSONEq(t, string(want), bodyJSON(t, r))
			assert.Equal(t, []string{fieldmap.CamelPath(tt.node.FieldPath)}, r.UpdateMask())
		})
	}
}

func TestBuildRepeatedItemKeepsFetchedMap(t *testing.T) {
	root := &schema.Node{
		Type:       schema.TypeMessage,
		IsRequired: true,
		Children: []*schema.Node{
			{FieldPath: "config.endpoints", DisplayName: "Endpoint", Type: schema.TypeMessage, IsRepeated: true, Children: []*schema.Node{
				{FieldPath: "config.endpoints.url", DisplayName: "URL", Type: schema.TypeString, IsRequired: true},
				{FieldPath: "config.endpoints.headers", DisplayName: "Headers", Type: schema.TypeMapStringString},
			}},
		},
	}
	body := map[string]interface{}{
		"config": map[string]interface{}{
			"endpoints": []interface{}{
				map[string]interface{}{
					"url":     "https://a.example.com",
					"headers": map[string]interface{}{"api_key": "v", "X-Trace": "t"},
				},
			},
		},
	}

	// Reconfigure the item, keep both fields, add no other item.
	b, _ := newBuilder(t, "y\n\n.\n\n", nil)
	r, err := b.Build(root, Seed(root, body))
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"config":{"endpoints":[{"url":"https://a.example.com","headers":{"api_key":"v","X-Trace":"t"}}]}}`,
		bodyJSON(t, r))
	assert.Equal(t, []string{"config.endpoints"}, r.RepeatedRoots)
}

func TestSeedStopsAtMapFields(t *testing.T) {
	root := &schema.Node{
		FieldPath: "details",
		Type:      schema.TypeMessage,
		Children: []*schema.Node{{
			FieldPath: "details.source",
			Type:      schema.TypeOneOf,
			OneOfOptions: []schema.Option{{FieldPath: "details.source.http", Children: []*schema.Node{
				{FieldPath: "details.source.http.headers", Type: schema.TypeMapStringString},
			}}},
		}},
	}
	body := map[string]interface{}{
		"details": map[string]interface{}{
			"source": map[string]interface{}{
				"http": map[string]interface{}{
					"headers":  map[string]interface{}{"X-Trace": "t"},
					"hostName": "h",
				},
			},
		},
	}

	assert.Equal(t, map[string]interface{}{
		"details.source.http.headers":   map[string]interface{}{"X-Trace": "t"},
		"details.source.http.host_name": "h",
	}, Seed(root, body))
}
