package transport

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/covidliste/directory/pkg/constants"
	"github.com/covidliste/directory/pkg/errors"
	"github.com/covidliste/directory/pkg/logging"
)

// IsSuccess reports whether status is a 2xx code.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// ContentType returns the media type of resp without parameters, lower-cased.
func ContentType(resp *http.Response) string {
	raw := resp.Header.Get("Content-Type")
	if raw == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil {
		mt, _, _ = strings.Cut(raw, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// ReadBody reads at most constants.MaxResponseBytes of the body and closes it.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Debug().Err(err).Msg("failed to close response body")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxResponseBytes))
	if err != nil {
		return nil, errors.WrapIO("read", "response body", err)
	}
	return body, nil
}

// DecodeResponse decodes a JSON response into target. Any non-2xx status is
// an APIError carrying the beginning of the body.
func DecodeResponse(source string, resp *http.Response, target any) error {
	body, err := ReadBody(resp)
	if err != nil {
		return err
	}

	endpoint := ""
	if resp.Request != nil && resp.Request.URL != nil {
		endpoint = resp.Request.URL.String()
	}

	if !IsSuccess(resp.StatusCode) {
		return &errors.APIError{
			Source:     source,
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    truncate(string(body), 200),
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", endpoint, err)
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
