package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "lookup", "phone"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "ringstreak", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestOutputFlags(t *testing.T) {
	for _, c := range []string{"lookup", "phone"} {
		cmd, _, err := rootCmd.Find([]string{c})
		require.NoError(t, err)
		flag := cmd.Flags().Lookup("output")
		require.NotNil(t, flag, "%s should have --output flag", c)
		assert.Equal(t, "json", flag.DefValue)
		assert.Equal(t, "o", flag.Shorthand)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPhoneCommand_JSON(t *testing.T) {
	t.Setenv("RINGSTREAK_LOG_LEVEL", "error")

	out, err := execute(t, "phone", "(555) 123-4567", "-o", "json")
	require.NoError(t, err)

	var report phoneReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "(555) 123-4567", report.Input)
	require.NotNil(t, report.Normalized)
	assert.Equal(t, "+15551234567", *report.Normalized)
	assert.Contains(t, report.Variants, "5551234567")
	assert.Contains(t, report.Variants, "(555) 123-4567")
}

func TestPhoneCommand_YAML(t *testing.T) {
	t.Setenv("RINGSTREAK_LOG_LEVEL", "error")

	out, err := execute(t, "phone", "5551234567", "-o", "yaml")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "input: "), out)
	assert.Contains(t, out, "normalized: \"+15551234567\"")
	assert.Contains(t, out, "variants:\n")
	assert.NotContains(t, out, "{")
}

func TestPhoneCommand_Unparseable(t *testing.T) {
	t.Setenv("RINGSTREAK_LOG_LEVEL", "error")

	out, err := execute(t, "phone", "no digits here", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"normalized": null`)
	assert.Contains(t, out, `"variants": []`)
}

func TestWriteOutput_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := writeOutput(&buf, "xml", map[string]string{"a": "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestToYAML_KeepsFieldOrder(t *testing.T) {
	v := struct {
		Zeta  string `json:"zeta"`
		Alpha int    `json:"alpha"`
	}{Zeta: "123", Alpha: 1}

	b, err := toYAML(v)
	require.NoError(t, err)
	assert.Equal(t, "zeta: \"123\"\nalpha: 1\n", string(b))
}

func TestLookupCommand_RequiresAPIKey(t *testing.T) {
	t.Setenv("RINGSTREAK_LOG_LEVEL", "error")
	t.Setenv("RINGSTREAK_STREAK_API_KEY", "")

	_, err := execute(t, "lookup", "5551234567", "-o", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "streak.api_key is required")
}

func fakeStreak(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/search":
			q := r.URL.Query().Get("query")
			if strings.Contains(q, "123") && strings.Contains(q, "4567") {
				_, _ = w.Write([]byte(`{"results":{"contacts":[{"key":"c1","givenName":"Ada","familyName":"Lovelace","phoneNumbers":["+1 555 123 4567"]}],"boxes":[]}}`))
				return
			}
			_, _ = w.Write([]byte(`{"results":{}}`))
		case "/api/v2/contacts/c1":
			_, _ = w.Write([]byte(`{"key":"c1","givenName":"Ada","familyName":"Lovelace","phoneNumbers":["+1 555 123 4567"],"emailAddresses":["ada@engines.example"]}`))
		case "/api/v2/contacts/c1/boxes":
			_, _ = w.Write([]byte(`[{"key":"b1","name":"Engine deal","pipelineKey":"p1","stageKey":"s1","lastUpdatedTimestamp":1700000000000}]`))
		case "/api/v2/pipelines/p1/stages":
			_, _ = w.Write([]byte(`[{"key":"s1","name":"Negotiation"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookupCommand_EndToEnd(t *testing.T) {
	srv := fakeStreak(t)
	t.Setenv("RINGSTREAK_LOG_LEVEL", "error")
	t.Setenv("RINGSTREAK_STREAK_API_KEY", "test-key")
	t.Setenv("RINGSTREAK_STREAK_BASE_URL", srv.URL)
	t.Setenv("RINGSTREAK_STREAK_MAX_ATTEMPTS", "1")

	out, err := execute(t, "lookup", "555-123-4567", "-o", "json")
	require.NoError(t, err)

	var resp struct {
		Query      string  `json:"query"`
		Normalized *string `json:"normalized"`
		Matches    []struct {
			Score  int `json:"score"`
			Person struct {
				Key   string `json:"key"`
				Name  string `json:"name"`
				Email string `json:"email"`
			} `json:"person"`
			Record *struct {
				Key       string `json:"key"`
				StageName string `json:"stageName"`
			} `json:"record"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)

	assert.Equal(t, "555-123-4567", resp.Query)
	require.NotNil(t, resp.Normalized)
	assert.Equal(t, "+15551234567", *resp.Normalized)
	require.Len(t, resp.Matches, 1)
	m := resp.Matches[0]
	assert.Equal(t, 2, m.Score)
	assert.Equal(t, "c1", m.Person.Key)
	assert.Equal(t, "Ada Lovelace", m.Person.Name)
	assert.Equal(t, "ada@engines.example", m.Person.Email)
	require.NotNil(t, m.Record)
	assert.Equal(t, "b1", m.Record.Key)
	assert.Equal(t, "Negotiation", m.Record.StageName)
}
