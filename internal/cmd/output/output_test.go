package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/reconcile"
)

func failed() *reconcile.Result {
	r := reconcile.NewResult()
	r.Violations = append(r.Violations,
		errors.Violation{Check: reconcile.CheckMissingInRoster, Source: "slack", Email: "ghost@example.org", Message: "volunteer in chat but not in roster"},
		errors.Violation{Check: reconcile.CheckMissingInChat, Source: "roster", Email: "ada@example.org", Message: "no chat account"},
	)
	return r
}

func TestFormatResultTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatResult(&buf, FormatTable, failed()))

	out := buf.String()
	assert.Contains(t, out, "2 violation(s)")
	assert.Contains(t, out, "ghost@example.org")
	assert.Contains(t, out, reconcile.CheckMissingInChat)
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("ghost@")), bytes.Index(buf.Bytes(), []byte("ada@")))
}

func TestFormatResultStatsTable(t *testing.T) {
	r := reconcile.NewResult()
	r.Stats = &reconcile.Stats{
		Volunteers: 3,
		Complete:   2,
		Incomplete: 1,
		Missing:    []reconcile.MissingFields{{Person: "Jean Dupont", Fields: []string{"phone", "team"}}},
	}

	var buf bytes.Buffer
	require.NoError(t, FormatResult(&buf, FormatTable, r))
	assert.Contains(t, buf.String(), "Volunteer records")
	assert.Contains(t, buf.String(), "Jean Dupont")
	assert.Contains(t, buf.String(), "phone, team")
}

func TestFormatResultJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatResult(&buf, FormatJSON, failed()))

	var decoded struct {
		Violations []errors.Violation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Violations, 2)
	assert.Equal(t, "ghost@example.org", decoded.Violations[0].Email)
}

func TestFormatResultYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatResult(&buf, FormatYAML, failed()))
	assert.Contains(t, buf.String(), "violations:")
	assert.Contains(t, buf.String(), "check: missing_in_roster")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Missing Fields", Title("missing_fields"))
}

func TestTableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}
