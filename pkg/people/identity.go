package people

import (
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // obfuscation only, see DeriveID
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/covidliste/directory/pkg/constants"
)

// CanonicalEmail trims and lower-cases an email so it can be used as a join
// key. Lower-casing keeps distinct mailboxes such as ß and ss apart.
func CanonicalEmail(email string) string {
	// Casers are stateful; sources call this from several goroutines.
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}

// IDFunc derives a person id from an email.
type IDFunc func(email string) string

// DeriveID returns hex(MD5(hex(SHA256(email)))) of the canonical email.
// The chained hash only hides emails from casual inspection; it is not a secret.
func DeriveID(email string) string {
	sum := sha256.Sum256([]byte(CanonicalEmail(email)))
	inner := hex.EncodeToString(sum[:])
	outer := md5.Sum([]byte(inner)) //nolint:gosec // obfuscation only
	return hex.EncodeToString(outer[:])
}

// KeyedID returns an IDFunc based on HMAC-SHA256 with a secret salt. Ids keep
// the 32 hex characters of DeriveID so avatar filenames look the same.
func KeyedID(salt []byte) IDFunc {
	return func(email string) string {
		mac := hmac.New(sha256.New, salt)
		mac.Write([]byte(CanonicalEmail(email)))
		return hex.EncodeToString(mac.Sum(nil))[:32]
	}
}

// AvatarFilename returns the avatar file name for a person id.
func AvatarFilename(id string) string {
	return constants.AvatarPrefix + id + constants.AvatarExt
}
