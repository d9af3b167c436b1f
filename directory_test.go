package directory

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/covidliste/directory/internal/config"
	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/logging"
	"github.com/covidliste/directory/pkg/people"
	"github.com/covidliste/directory/pkg/publish"
	"github.com/covidliste/directory/pkg/reconcile"
)

const rosterCSV = `Liste des bénévoles,,,,,,,,
Nom complet,Type de personne,Prénom 👀,Nom 👀,Adresse mail,"Téléphone portable (si numéro français, format français, sinon format international +32 XX...)",J'accepte d'être mentionné comme bénévole en public (site + twitter),Votre équipe dans Covidliste 👀,GitHub (pseudo seulement) 👀
Ada Lovelace,Bénévole,Ada,Lovelace,ada@example.org,0600000001,Oui : nom complet,Tech,adal
Jean Dupont,Bénévole,Jean,Dupont,Jean@Example.org,0600000002,Oui : uniquement Prénom,Ops,
,,,,,,,,
`

// organisation is a fake of every upstream of a build.
type organisation struct {
	*httptest.Server
	ghost bool
	slack string
}

func newOrganisation(t *testing.T) *organisation {
	t.Helper()
	o := &organisation{}

	var avatar bytes.Buffer
	require.NoError(t, png.Encode(&avatar, image.NewNRGBA(image.Rect(0, 0, 60, 80))))

	mux := http.NewServeMux()
	mux.HandleFunc("/roster.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(rosterCSV))
	})
	mux.HandleFunc("/slack/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(o.slackMethod(filepath.Base(r.URL.Path), r.URL.Query().Get("channel"))))
	})
	mux.HandleFunc("/website", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"users":[{"email":"ada@example.org","name":"Ada","role":"admin"}]}`))
	})
	mux.HandleFunc("/helpdesk", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"admins":[{"email":"jean@example.org","name":"Jean","type":"admin"}]}`))
	})
	mux.HandleFunc("/telephony", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"users":[],"meta":{"next_page_link":null}}`))
	})
	mux.HandleFunc("/notion", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[],"has_more":false,"next_cursor":null}`))
	})
	mux.HandleFunc("/github/adal", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<img class="avatar avatar-user width-full" src="/avatars/adal.png">`))
	})
	mux.HandleFunc("/avatars/adal.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(avatar.Bytes())
	})

	o.Server = httptest.NewServer(mux)
	t.Cleanup(o.Close)
	return o
}

func (o *organisation) slackMethod(method, channel string) string {
	if o.slack != "" {
		return o.slack
	}

	volunteers := `"U1","U2"`
	ghost := ""
	if o.ghost {
		volunteers = `"U1","U2","U9"`
		ghost = `,{"id":"U9","name":"ghost","profile":{"email":"ghost@example.org"}}`
	}

	switch method {
	case "users.list":
		return `{"ok":true,"members":[` +
			`{"id":"U1","name":"ada","profile":{"email":"ada@example.org"}},` +
			`{"id":"U2","name":"jean","profile":{"email":"jean@example.org"}}` + ghost +
			`],"response_metadata":{"next_cursor":""}}`
	case "usergroups.list":
		return `{"ok":true,"usergroups":[{"id":"S1","handle":"benevoles","users":[` + volunteers + `]}]}`
	case "conversations.list":
		return `{"ok":true,"channels":[{"id":"C1","name":"general"},{"id":"C2","name":"benevoles"}],"response_metadata":{"next_cursor":""}}`
	case "conversations.members":
		members := `"U1","U2"`
		if channel == "C2" {
			members = volunteers
		}
		return `{"ok":true,"members":[` + members + `],"response_metadata":{"next_cursor":""}}`
	case "team.billableInfo":
		return `{"ok":true,"billable_info":{"U1":{"billing_active":true},"U2":{"billing_active":true}}}`
	}
	return `{"ok":false,"error":"unknown_method"}`
}

func (o *organisation) credentials() *appconfig.Credentials {
	return &appconfig.Credentials{
		RosterURL:            o.URL + "/roster.csv",
		SlackURL:             o.URL + "/slack",
		SlackToken:           "xoxb-test",
		WebsiteURL:           o.URL + "/website",
		WebsiteToken:         "web",
		HelpdeskURL:          o.URL + "/helpdesk",
		HelpdeskToken:        "help",
		TelephonyURL:         o.URL + "/telephony",
		TelephonyAPIID:       "id",
		TelephonyAPIToken:    "token",
		KnowledgeBaseURL:     o.URL + "/notion",
		KnowledgeBaseToken:   "notion",
		KnowledgeBaseVersion: appconfig.DefaultKnowledgeBaseVersion,
		GitHubURL:            o.URL + "/github",
	}
}

type paths struct {
	out      string
	pictures string
}

func newDirectory(t *testing.T, o *organisation) (Directory, paths) {
	t.Helper()
	dir := t.TempDir()
	p := paths{
		out:      filepath.Join(dir, "site", "volunteers.json"),
		pictures: filepath.Join(dir, "site", "pictures"),
	}
	d, err := New(
		WithCredentials(o.credentials()),
		WithHTTPClient(o.Client()),
		WithOutput(p.out),
		WithPicturesDir(p.pictures),
		WithWorkers(2),
	)
	require.NoError(t, err)
	return d, p
}

func testContext(t *testing.T) (context.Context, *logging.TestLogger) {
	tl := logging.NewTestLogger(t)
	return logging.WithLogger(context.Background(), tl.Logger), tl
}

func TestBuild(t *testing.T) {
	o := newOrganisation(t)
	d, p := newDirectory(t, o)
	ctx, tl := testContext(t)

	var published *publish.Report
	d.OnPublished(func(r *publish.Report) { published = r })

	result, err := d.Build(ctx)
	require.NoError(t, err)
	require.NotNil(t, result.Reconcile)
	assert.True(t, result.Reconcile.IsSuccess())
	assert.NotEmpty(t, result.RunID)

	stats := result.Reconcile.Stats
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.Volunteers)
	assert.Equal(t, 2, stats.Complete)
	assert.Equal(t, 0, stats.Incomplete)

	require.NotNil(t, result.Publish)
	assert.Equal(t, result.Publish, published)
	assert.Equal(t, 2, result.Publish.Published)
	assert.Equal(t, 1, result.Publish.Pictures)

	data, err := os.ReadFile(p.out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n"))
	assert.Contains(t, string(data), `"anonymous": false`)
	assert.Contains(t, string(data), `"firstname": "Ada"`)
	assert.Contains(t, string(data), `"lastname": ""`, "first name only consent drops the last name")
	assert.NotContains(t, string(data), "example.org")
	assert.NotContains(t, string(data), "0600000001")

	adaID := people.DeriveID("ada@example.org")
	assert.Contains(t, string(data), fmt.Sprintf(`"picture": "volunteer-%s.jpg"`, adaID))
	_, err = os.Stat(filepath.Join(p.pictures, people.AvatarFilename(adaID)))
	assert.NoError(t, err)

	tl.AssertContains(t, result.RunID)
	tl.AssertContains(t, `"complete":2`)
}

func TestBuildAbortsOnViolation(t *testing.T) {
	o := newOrganisation(t)
	o.ghost = true
	d, p := newDirectory(t, o)
	ctx, _ := testContext(t)

	var violations []errors.Violation
	d.OnViolation(func(v errors.Violation) { violations = append(violations, v) })

	result, err := d.Build(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsConsistency(err))

	require.Len(t, result.Reconcile.Violations, 1)
	assert.Equal(t, reconcile.CheckMissingInRoster, result.Reconcile.Violations[0].Check)
	assert.Equal(t, "ghost@example.org", result.Reconcile.Violations[0].Email)
	assert.Equal(t, result.Reconcile.Violations, violations)
	assert.Nil(t, result.Publish)

	_, err = os.Stat(p.out)
	assert.True(t, os.IsNotExist(err), "no document is written")
	_, err = os.Stat(p.pictures)
	assert.True(t, os.IsNotExist(err), "no picture is written")
}

func TestBuildAbortsOnSourceFailure(t *testing.T) {
	o := newOrganisation(t)
	o.slack = `{"ok":false,"error":"invalid_auth"}`
	d, p := newDirectory(t, o)
	ctx, _ := testContext(t)

	result, err := d.Build(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsSourceUnavailable(err))
	assert.Contains(t, err.Error(), "invalid_auth")
	assert.Nil(t, result.Reconcile)

	_, err = os.Stat(p.out)
	assert.True(t, os.IsNotExist(err))
}

func TestCheckWritesNothing(t *testing.T) {
	o := newOrganisation(t)
	d, p := newDirectory(t, o)
	ctx, _ := testContext(t)

	result, err := d.Check(ctx)
	require.NoError(t, err)
	assert.True(t, result.Reconcile.IsSuccess())
	assert.Nil(t, result.Publish)

	_, err = os.Stat(p.out)
	assert.True(t, os.IsNotExist(err))
}

func TestNewRequiresSources(t *testing.T) {
	_, err := New()
	assert.True(t, errors.IsConfig(err))

	_, err = New(WithCredentials(&appconfig.Credentials{}), WithOutput(""))
	assert.True(t, errors.IsValidationError(err))

	_, err = New(WithTimeout(0))
	assert.True(t, errors.IsValidationError(err))
}
