package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/covidliste/directory/pkg/errors"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "email",
			Message: "cannot be empty",
		}
		assert.Equal(t, "validation failed for field email: cannot be empty", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("", nil, "invalid policy")
		assert.Equal(t, "validation failed: invalid policy", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestAPIError(t *testing.T) {
	t.Run("with status code", func(t *testing.T) {
		err := pkgerrors.NewAPIError("slack", 429, "ratelimited")
		assert.Contains(t, err.Error(), "slack")
		assert.Contains(t, err.Error(), "429")
		assert.True(t, errors.Is(err, pkgerrors.ErrRateLimited))
		assert.True(t, pkgerrors.IsSourceUnavailable(err))
	})

	t.Run("wrapped", func(t *testing.T) {
		base := errors.New("connection reset")
		err := pkgerrors.WrapAPI("telephony", "https://api.aircall.io/v1/users", base)
		assert.ErrorIs(t, err, base)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("nil passthrough", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapAPI("website", "", nil))
	})
}

func TestConfigError(t *testing.T) {
	err := &pkgerrors.ConfigError{
		Component: "credentials",
		Message:   "missing required keys",
		Missing:   []string{"SLACK_TOKEN", "WEBSITE_TOKEN"},
	}
	assert.Equal(t, "configuration error in credentials: missing required keys: SLACK_TOKEN, WEBSITE_TOKEN", err.Error())
	assert.True(t, errors.Is(err, pkgerrors.ErrCredentialRequired))
	assert.True(t, pkgerrors.IsConfig(err))

	plain := pkgerrors.NewConfigError("policy", "bad file", nil)
	assert.False(t, errors.Is(plain, pkgerrors.ErrCredentialRequired))
}

func TestConsistencyError(t *testing.T) {
	single := &pkgerrors.ConsistencyError{Violations: []pkgerrors.Violation{{
		Check:   "missing_in_roster",
		Source:  "slack",
		Email:   "ghost@example.org",
		Message: "volunteer in chat but not in roster",
	}}}
	assert.Contains(t, single.Error(), "ghost@example.org")
	assert.True(t, pkgerrors.IsConsistency(single))

	many := &pkgerrors.ConsistencyError{Violations: make([]pkgerrors.Violation, 3)}
	assert.Equal(t, "reconciliation failed with 3 violations", many.Error())

	joined := errors.Join(errors.New("other"), many)
	var ce *pkgerrors.ConsistencyError
	require.True(t, errors.As(joined, &ce))
	assert.Len(t, ce.Violations, 3)
}

func TestPictureError(t *testing.T) {
	base := errors.New("unexpected EOF")
	err := &pkgerrors.PictureError{
		Person:    "Ada L",
		Candidate: "github",
		URL:       "https://avatars.example/ada",
		Message:   "decode failed",
		Err:       base,
	}
	assert.Contains(t, err.Error(), "github picture for Ada L")
	assert.ErrorIs(t, err, base)
	assert.ErrorIs(t, err, pkgerrors.ErrPictureUnavailable)
}

func TestManualReviewError(t *testing.T) {
	err := &pkgerrors.ManualReviewError{Person: "Jean D", Consent: "peut-être", Comment: "voir avec moi"}
	assert.Contains(t, err.Error(), "voir avec moi")
	assert.True(t, pkgerrors.IsManualReview(err))
}

func TestIOAndParseWrapping(t *testing.T) {
	base := errors.New("disk full")
	err := pkgerrors.WrapIO("write", "/tmp/out.json", base)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "IO error during write of /tmp/out.json: disk full", err.Error())
	assert.NoError(t, pkgerrors.WrapIO("write", "x", nil))

	perr := pkgerrors.WrapParse("csv", "roster", base)
	assert.Contains(t, perr.Error(), "csv")
	assert.ErrorIs(t, perr, base)

	lined := &pkgerrors.ParseError{Format: "csv", File: "roster", Line: 12, Message: "duplicate email"}
	assert.Equal(t, "parse error in csv at roster:12: duplicate email", lined.Error())
}
