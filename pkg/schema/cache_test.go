package schema

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CliForge/siemctl/pkg/api"
	"github.com/CliForge/siemctl/pkg/fieldmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedDocument = `{
  "feedSourceTypeSchemas": [
    {"feedSourceType": "DUMMY", "displayName": "Dummy",
     "logTypeSchemas": [
       {"logType": "DUMMY_LOGTYPE", "displayName": "Dummy LogType",
        "detailsFieldSchemas": [
          {"fieldPath": "details.dummy_settings.field1", "displayName": "Field 1", "type": "STRING", "isRequired": true},
          {"fieldPath": "details.dummy_settings.field2", "displayName": "Field 2", "type": "STRING", "isRequired": true}
        ]},
       {"logType": "HIDDEN", "displayName": "Hidden", "readOnly": true}
     ]},
    {"feedSourceType": "SFTP", "displayName": "SFTP",
     "logTypeSchemas": [{"logType": "X", "displayName": "X"}]},
    {"feedSourceType": "LEGACY", "displayName": "Legacy", "readOnly": true,
     "logTypeSchemas": [{"logType": "Y", "displayName": "Y"}]},
    {"feedSourceType": "API", "displayName": "Third party API",
     "logTypeSchemas": [{"logType": "WORKDAY", "displayName": "Workday"}]}
  ]
}`

func TestDetailedSchema(t *testing.T) {
	c, err := Parse([]byte(feedDocument))
	require.NoError(t, err)

	node, err := c.DetailedSchema("DUMMY", "DUMMY_LOGTYPE")
	require.NoError(t, err)
	assert.Equal(t, TypeMessage, node.Type)
	assert.Equal(t, "details", node.FieldPath)
	require.Len(t, node.Children, 2)
	assert.Equal(t, "field1", node.Children[0].Name())

	_, err = c.DetailedSchema("DUMMY", "MISSING")
	assert.True(t, errors.Is(err, ErrSchemaNotFound))
	assert.Equal(t, "Schema Not Found.", err.Error())
}

func TestSourceLogMap(t *testing.T) {
	c, err := Parse([]byte(feedDocument))
	require.NoError(t, err)

	entries := c.SourceLogMap()
	require.Len(t, entries, 2)
	assert.Equal(t, "DUMMY", entries[0].SourceType)
	assert.Equal(t, []LogTypeEntry{{LogType: "DUMMY_LOGTYPE", DisplayName: "Dummy LogType"}}, entries[0].LogTypes)
	assert.Equal(t, "API", entries[1].SourceType)
}

func TestDisplayNames(t *testing.T) {
	c, err := Parse([]byte(feedDocument))
	require.NoError(t, err)

	src, lt := c.DisplayNames("DUMMY", "DUMMY_LOGTYPE")
	assert.Equal(t, "Dummy", src)
	assert.Equal(t, "Dummy LogType", lt)

	src, lt = c.DisplayNames("NOPE", "NADA")
	assert.Equal(t, "NOPE", src)
	assert.Equal(t, "NADA", lt)
}

func TestForwarderDocument(t *testing.T) {
	c, err := Parse([]byte(`{
	  "forwarderFieldSchemas": [{"fieldPath": "config.upload_compression", "displayName": "Upload compression", "type": "BOOL"}],
	  "collectorFieldSchemas": [{"fieldPath": "config", "displayName": "Config", "type": "ONEOF",
	    "oneOfFieldSchemas": [
	      {"displayName": "File", "fieldPath": "config.file_settings", "fieldSchemas": [{"fieldPath": "config.file_settings.file_path", "type": "STRING"}]},
	      {"displayName": "Kafka", "fieldPath": "config.kafka_settings"}
	    ]}]
	}`))
	require.NoError(t, err)

	fwd, err := c.Forwarder()
	require.NoError(t, err)
	assert.Len(t, fwd.Children, 1)

	col, err := c.Collector()
	require.NoError(t, err)
	require.Len(t, col.Children[0].OneOfOptions, 2)
	assert.Equal(t, "config.kafka_settings", col.Children[0].OneOfOptions[1].FieldPath)

	_, err = (&Cache{doc: &Document{}}).Forwarder()
	assert.True(t, errors.Is(err, ErrSchemaNotFound))
}

func TestLoad(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != FeedSchemaPath {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}
		_, _ = w.Write([]byte(feedDocument))
	}))
	defer server.Close()

	client, err := api.NewClient(&api.Config{BaseURL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)

	c, err := Load(context.Background(), client, FeedSchemaPath)
	require.NoError(t, err)
	assert.Len(t, c.SourceLogMap(), 2)

	_, err = Load(context.Background(), client, ForwarderSchemaPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRelativize(t *testing.T) {
	node := &Node{
		FieldPath:  "config.regex_filters",
		Type:       TypeMessage,
		IsRepeated: true,
		Children: []*Node{
			{FieldPath: "config.regex_filters.regexp", Type: TypeString},
			{FieldPath: "config.regex_filters.behavior", Type: TypeOneOf, OneOfOptions: []Option{
				{FieldPath: "config.regex_filters.behavior.allow", Children: []*Node{{FieldPath: "config.regex_filters.behavior.allow.x"}}},
			}},
		},
	}

	rel := node.Relativize("config.regex_filters")
	assert.Equal(t, "", rel.FieldPath)
	assert.Equal(t, "regexp", rel.Children[0].FieldPath)
	assert.Equal(t, "behavior.allow", rel.Children[1].OneOfOptions[0].FieldPath)
	assert.Equal(t, "behavior.allow.x", rel.Children[1].OneOfOptions[0].Children[0].FieldPath)
	assert.Equal(t, "config.regex_filters.regexp", node.Children[0].FieldPath, "original must not change")
}

func TestTypeHelpers(t *testing.T) {
	tests := []struct {
		typ       Type
		secret    bool
		multiline bool
		kind      fieldmap.Kind
	}{
		{TypeString, false, false, fieldmap.KindString},
		{TypeInt, false, false, fieldmap.KindInt},
		{TypeStringSecret, true, false, fieldmap.KindSecret},
		{TypeStringMultilineSecret, true, true, fieldmap.KindSecret},
		{TypeKeyValueList, false, true, fieldmap.KindLabels},
		{TypeLabel, false, true, fieldmap.KindLabels},
		{TypeRepeatedString, false, false, fieldmap.KindStrings},
		{TypeMapStringString, false, true, fieldmap.KindRaw},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if !tt.typ.Valid() {
				t.Errorf("%s should be valid", tt.typ)
			}
			if got := tt.typ.IsSecret(); got != tt.secret {
				t.Errorf("IsSecret() = %v, want %v", got, tt.secret)
			}
			if got := tt.typ.IsMultiline(); got != tt.multiline {
				t.Errorf("IsMultiline() = %v, want %v", got, tt.multiline)
			}
			if got := tt.typ.ValueKind(); got != tt.kind {
				t.Errorf("ValueKind() = %v, want %v", got, tt.kind)
			}
		})
	}

	if Type("BOGUS").Valid() {
		t.Error("unknown type reported valid")
	}
}

func TestChoiceIndex(t *testing.T) {
	n := &Node{Type: TypeEnum, EnumChoices: []Choice{{"Tcp", "TCP"}, {"Udp", "UDP"}}}
	assert.Equal(t, 1, n.ChoiceIndex("UDP"))
	assert.Equal(t, -1, n.ChoiceIndex("SCTP"))
	assert.Equal(t, -1, n.ChoiceIndex(3))
}
