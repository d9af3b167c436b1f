package picture

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/covidliste/directory/internal/transport"
	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/people"
)

// GitHub marks the profile picture with these classes.
const githubAvatarSelector = "img.avatar-user.width-full"

type candidate struct {
	name  string
	value string

	// resolve returns the image URL; nil means the candidate is never fetched.
	resolve func(ctx context.Context, value string) (string, error)
}

// candidates lists the non-empty candidates of person in priority order.
func (p *Pipeline) candidates(person *people.Person) []candidate {
	all := []candidate{
		{name: "pic", value: person.Picture, resolve: p.explicitURL},
		{name: "twitter", value: Handle(person.Twitter)},
		{name: "linkedin", value: person.LinkedIn},
		{name: "github", value: Handle(person.GitHub), resolve: p.githubAvatar},
	}
	if p.twitter != nil {
		all[1].resolve = p.twitterAvatar
	}

	out := all[:0]
	for _, c := range all {
		if strings.TrimSpace(c.value) != "" {
			out = append(out, c)
		}
	}
	return out
}

// Handle strips the decorations people type around a handle: a leading @,
// or a full profile URL.
func Handle(raw string) string {
	h := strings.TrimSpace(raw)
	if strings.Contains(h, "/") {
		if u, err := url.Parse(h); err == nil && u.Host != "" {
			h = u.Path
		}
		h = strings.Trim(h, "/")
		if i := strings.LastIndex(h, "/"); i >= 0 {
			h = h[i+1:]
		}
	}
	h = strings.TrimPrefix(h, "@")
	if i := strings.IndexAny(h, "?#"); i >= 0 {
		h = h[:i]
	}
	return strings.TrimSpace(h)
}

// explicitURL validates a picture link and unwraps image viewer pages.
func (p *Pipeline) explicitURL(_ context.Context, raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", &errors.PictureError{URL: raw, Message: "not an absolute link"}
	}

	if strings.Contains(u.Host, "zupimages.net") && strings.Contains(u.Path, "viewer.php") {
		return "https://www.zupimages.net/up/" + strings.ReplaceAll(u.RawQuery, "id=", ""), nil
	}
	return u.String(), nil
}

// githubAvatar reads the avatar URL from the public profile page.
func (p *Pipeline) githubAvatar(ctx context.Context, handle string) (string, error) {
	page := strings.TrimRight(p.githubURL, "/") + "/" + url.PathEscape(handle)

	resp, err := p.web.Get(ctx, page, http.Header{"Accept": {"text/html"}})
	if err != nil {
		return "", err
	}
	body, err := transport.ReadBody(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &errors.PictureError{URL: page, Message: "profile page answered " + resp.Status}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", errors.WrapParse("html", page, err)
	}

	src, ok := doc.Find(githubAvatarSelector).First().Attr("src")
	if !ok || src == "" {
		return "", &errors.PictureError{URL: page, Message: "no avatar on profile page"}
	}

	base, _ := url.Parse(page)
	ref, err := url.Parse(src)
	if err != nil {
		return "", &errors.PictureError{URL: src, Message: "invalid avatar link", Err: err}
	}
	return base.ResolveReference(ref).String(), nil
}

type twitterUser struct {
	ProfileImageURL     string `json:"profile_image_url_https"`
	DefaultProfileImage bool   `json:"default_profile_image"`
}

// twitterAvatar asks the Twitter API for the full size profile image.
func (p *Pipeline) twitterAvatar(ctx context.Context, handle string) (string, error) {
	endpoint, err := url.Parse(p.twitterURL)
	if err != nil {
		return "", &errors.PictureError{URL: p.twitterURL, Message: "invalid endpoint", Err: err}
	}
	q := endpoint.Query()
	q.Set("screen_name", handle)
	endpoint.RawQuery = q.Encode()

	var user twitterUser
	if err := p.twitter.GetJSON(ctx, endpoint.String(), &user); err != nil {
		return "", err
	}

	if user.DefaultProfileImage || user.ProfileImageURL == "" ||
		strings.Contains(user.ProfileImageURL, "default_profile_images") {
		return "", &errors.PictureError{URL: user.ProfileImageURL, Message: "account uses the default picture"}
	}
	return strings.Replace(user.ProfileImageURL, "_normal", "", 1), nil
}
