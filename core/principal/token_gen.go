package principal

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	salt    = []byte("shuleni.backend.core.principal.token_gen")
	NowFunc = time.Now // mockable

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// EncodeUID base64 encodes an account's role and ID into an opaque UID.
func EncodeUID(acct Account) string {
	return base64.RawURLEncoding.EncodeToString([]byte(string(acct.Role) + ":" + acct.ID))
}

// decodeUID recovers the role and ID encoded by EncodeUID.
func decodeUID(uid string) (Role, string, error) {
	data, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(string(data), ":", 2)
	if len(parts) < 2 {
		return "", "", errInvalidToken
	}
	role := Role(parts[0])
	if !role.Valid() {
		return "", "", errInvalidToken
	}
	return role, parts[1], nil
}

// makeToken generates a password reset token for a given account. Changing
// the password invalidates any token issued before the change.
func (svc *Service) makeToken(acct Account) (string, error) {
	return svc.makeTokenWithTimestamp(acct, numDaysSince2001(NowFunc()))
}

// verifyToken checks that a password reset token for a given account is valid.
func (svc *Service) verifyToken(acct Account, token string) error {
	if token == "" {
		return errInvalidToken
	}

	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return errInvalidToken
	}
	tsB32 := parts[0]

	data, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(tsB32)
	if err != nil {
		return errInvalidToken
	}
	ts, err := strconv.Atoi(string(data))
	if err != nil {
		return errInvalidToken
	}

	// check that token has not been tampered with
	newToken, err := svc.makeTokenWithTimestamp(acct, ts)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(newToken), []byte(token)) == 0 {
		return errInvalidToken
	}

	// check that the timestamp is within limit
	if (numDaysSince2001(time.Now()) - ts) > int(svc.conf.Server.PasswordResetTimeoutDelta/(24*time.Hour)) {
		return errTokenExpired
	}
	return nil
}

func (svc *Service) makeTokenWithTimestamp(acct Account, ts int) (string, error) {
	tsB32 := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte(strconv.Itoa(ts)))
	sig, err := svc.sign(hashValue(acct, ts))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", tsB32, sig), nil
}

func numDaysSince2001(t time.Time) int {
	ref := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(t.Sub(ref).Hours() / 24))
}

func (svc *Service) sign(val []byte) (string, error) {
	key := sha256.Sum256(append(salt, svc.conf.SecretKey...))
	h := hmac.New(sha256.New, key[:])
	if _, err := h.Write(val); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

func hashValue(acct Account, ts int) []byte {
	var val bytes.Buffer
	val.WriteString(string(acct.Role))
	val.WriteString(acct.ID)
	val.Write(acct.PasswordHash)
	val.WriteString(strconv.Itoa(ts))
	return val.Bytes()
}
