package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covidliste/directory/pkg/logging"
	"github.com/covidliste/directory/pkg/people"
	"github.com/covidliste/directory/pkg/picture"
	"github.com/covidliste/directory/pkg/policy"
)

type fakePictures struct {
	seen     []string
	commits  int
	discards int
}

func (f *fakePictures) Resolve(_ context.Context, p *people.Person) string {
	f.seen = append(f.seen, p.ID)
	if p.GitHub == "" {
		return ""
	}
	return people.AvatarFilename(p.ID)
}

func (f *fakePictures) Commit() error {
	f.commits++
	return nil
}

func (f *fakePictures) Discard() error {
	f.discards++
	return nil
}

func roster() []*people.Person {
	return []*people.Person{
		{
			ID: "z1", Email: "zoe@example.org", FirstName: "Zoé", LastName: "Martin",
			Phone: "0600000000", Team: "Dev", GitHub: "zoe", LinkedIn: "linkedin.com/in/zoe/",
			Bio: "<b>Backend</b> & ops", Consent: people.ConsentFullName, ConsentText: "Oui",
			Comment: "internal", Picture: "https://example.org/z.png", Kind: people.KindVolunteer,
		},
		{
			ID: "a1", Email: "anon@example.org", FirstName: "Anne", LastName: "Onyme",
			Team: "Ops", LeadingTeam: "Ops", GitHub: "anne", Kind: people.KindVolunteer,
			Consent: people.ConsentDeclined,
		},
		{
			ID: "f1", Email: "old@example.org", FirstName: "Fred", Kind: people.KindFormerVolunteer,
			Consent: people.ConsentFullName,
		},
		{
			ID: "m1", Email: "maybe@example.org", FirstName: "Max", Kind: people.KindVolunteer,
			Consent: people.ConsentManualReview, ConsentText: "à voir", Comment: "call me",
		},
		{
			ID: "b1", Email: "bea@example.org", FirstName: "Béa", LastName: "Durand", Alias: "bd",
			LinkedIn: "bea-durand", Kind: people.KindVolunteer, Consent: people.ConsentFirstNameLastInitial,
		},
	}
}

func readDocument(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc []map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestPublish(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	out := filepath.Join(t.TempDir(), "volunteers.json")
	pics := &fakePictures{}
	input := roster()

	report, err := New(policy.Default(), WithOutput(out), WithPictures(pics)).Publish(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, &Report{Path: out, Published: 3, Anonymized: 1, Rejected: 1, Pictures: 1}, report)
	assert.Equal(t, []string{"z1", "b1"}, pics.seen, "anonymous records get no picture")
	assert.Equal(t, 1, pics.commits)
	assert.Zero(t, pics.discards)

	doc := readDocument(t, out)
	require.Len(t, doc, 3)
	assert.Equal(t, "z1", doc[0]["id"])
	assert.Equal(t, "a1", doc[1]["id"])
	assert.Equal(t, "b1", doc[2]["id"])

	zoe := doc[0]
	assert.Equal(t, "Zoé", zoe["firstname"])
	assert.Equal(t, "Backend & ops", zoe["bio"])
	assert.Equal(t, "https://www.linkedin.com/in/zoe", zoe["linkedin"])
	assert.Equal(t, "volunteer-z1.jpg", zoe["picture"])
	assert.Equal(t, false, zoe["anonymous"])
	for _, private := range []string{"email", "phone", "comment", "mention", "pic", "type", "fullname"} {
		assert.NotContains(t, zoe, private)
	}

	keys := make([]string, 0, len(zoe))
	for k := range zoe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, policy.Default().PublicFields, keys)

	anon := doc[1]
	assert.Equal(t, true, anon["anonymous"])
	assert.Equal(t, "", anon["firstname"])
	assert.Equal(t, "", anon["github"])
	assert.Equal(t, "Ops", anon["team"])
	assert.Equal(t, "Ops", anon["leading_team"])
	assert.Equal(t, "", anon["picture"])

	bea := doc[2]
	assert.Equal(t, "D", bea["lastname"])
	assert.Equal(t, "bd", bea["other_nick"])
	assert.Equal(t, "https://www.linkedin.com/in/bea-durand", bea["linkedin"])

	assert.Equal(t, "Zoé", input[0].FirstName)
	assert.Equal(t, "Onyme", input[1].LastName, "input records are not redacted in place")

	tl.AssertContains(t, "call me")
	tl.AssertContains(t, `"published":3`)
}

func TestPublishSortedIndentedOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "volunteers.json")
	pol := policy.Default()
	pol.PublicFields = []string{"team", "id", "anonymous"}

	_, err := New(pol, WithOutput(out)).Publish(context.Background(), []*people.Person{
		{ID: "x", Team: "Dev", Kind: people.KindVolunteer, Consent: people.ConsentFullName},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"anonymous\": false,\n    \"id\": \"x\",\n    \"team\": \"Dev\"\n  }\n]\n", string(data))
}

func TestPublishEmpty(t *testing.T) {
	out := filepath.Join(t.TempDir(), "volunteers.json")
	report, err := New(policy.Default(), WithOutput(out)).Publish(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, report.Published)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestPublishWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	pics := &fakePictures{}

	_, err := New(policy.Default(), WithOutput(filepath.Join(blocker, "out.json")), WithPictures(pics)).
		Publish(context.Background(), roster())
	assert.Error(t, err)
	assert.Zero(t, pics.commits, "staged pictures are not published")
	assert.Equal(t, 1, pics.discards)
}

func TestPublishKeepsPlainCharacters(t *testing.T) {
	out := filepath.Join(t.TempDir(), "volunteers.json")

	_, err := New(policy.Default(), WithOutput(out)).Publish(context.Background(), []*people.Person{{
		ID: "o1", FirstName: "Seán", LastName: "O'Brien", Bio: "I <3 Go & Rust <script>x</script>",
		Kind: people.KindVolunteer, Consent: people.ConsentFullName,
	}})
	require.NoError(t, err)

	doc := readDocument(t, out)
	require.Len(t, doc, 1)
	assert.Equal(t, "O'Brien", doc[0]["lastname"])
	assert.Equal(t, "I <3 Go & Rust", doc[0]["bio"])
}

func TestCanonicalLinkedIn(t *testing.T) {
	tests := map[string]string{
		"":                                         "",
		"https://fr.linkedin.com/in/ada-lovelace/": "https://www.linkedin.com/in/ada-lovelace",
		"http://linkedin.com/in/ada?trk=x":         "https://www.linkedin.com/in/ada",
		"www.linkedin.com/in/ada":                  "https://www.linkedin.com/in/ada",
		"ada-lovelace":                             "https://www.linkedin.com/in/ada-lovelace",
		"@ada":                                     "https://www.linkedin.com/in/ada",
		"https://linkedin.com/":                    "",
		"Ada Lovelace":                             "",
		"in/ada":                                   "https://www.linkedin.com/in/ada",
		"/in/ada/":                                 "https://www.linkedin.com/in/ada",
	}
	for in, want := range tests {
		assert.Equal(t, want, CanonicalLinkedIn(in), in)
	}
}

func TestPublishRemovesWithdrawnAvatar(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 20, 20))))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)

	root := t.TempDir()
	out := filepath.Join(root, "volunteers.json")
	pics := picture.New(picture.Config{Dir: filepath.Join(root, "pictures"), HTTPClient: srv.Client()})
	publisher := New(policy.Default(), WithOutput(out), WithPictures(pics))
	avatar := filepath.Join(pics.Dir(), people.AvatarFilename("z1"))

	zoe := &people.Person{
		ID: "z1", FirstName: "Zoé", Picture: srv.URL + "/z.png",
		Kind: people.KindVolunteer, Consent: people.ConsentFullName,
	}
	report, err := publisher.Publish(context.Background(), []*people.Person{zoe})
	require.NoError(t, err)
	require.Equal(t, 1, report.Pictures)
	_, err = os.Stat(avatar)
	require.NoError(t, err)

	zoe.Consent = people.ConsentDeclined
	report, err = publisher.Publish(context.Background(), []*people.Person{zoe})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Anonymized)
	_, err = os.Stat(avatar)
	assert.True(t, os.IsNotExist(err), "the avatar of an anonymized volunteer is removed")
}

func TestPublishWriteFailureWritesNoAvatar(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 20, 20))))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)

	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	pics := picture.New(picture.Config{Dir: filepath.Join(root, "pictures"), HTTPClient: srv.Client()})

	_, err := New(policy.Default(), WithOutput(filepath.Join(blocker, "out.json")), WithPictures(pics)).
		Publish(context.Background(), []*people.Person{{
			ID: "z1", FirstName: "Zoé", Picture: srv.URL + "/z.png",
			Kind: people.KindVolunteer, Consent: people.ConsentFullName,
		}})
	require.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1, "neither the pictures nor a staging directory exist")
	assert.Equal(t, "file", entries[0].Name())
}
