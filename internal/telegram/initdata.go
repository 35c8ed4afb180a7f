package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadInitData = errors.New("malformed init data")
	ErrBadHash     = errors.New("init data hash mismatch")
	ErrStale       = errors.New("init data expired")
)

const (
	maxInitDataAge = time.Hour
	maxClockSkew   = 5 * time.Minute
)

type WebAppUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// ValidateInitData verifies the HMAC of Telegram WebApp init data signed with
// botToken and returns the user it carries. auth_date must be within the last
// hour of now.
func ValidateInitData(initData, botToken string, now time.Time) (*WebAppUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrBadInitData
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrBadInitData
	}
	values.Del("hash")

	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, ErrBadInitData
	}
	if !hmac.Equal(Sign(values, botToken), provided) {
		return nil, ErrBadHash
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, ErrBadInitData
	}
	age := now.Sub(time.Unix(authDate, 0))
	if age > maxInitDataAge || age < -maxClockSkew {
		return nil, ErrStale
	}

	var user WebAppUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return nil, ErrBadInitData
	}
	return &user, nil
}

// Sign computes the init data HMAC over the sorted key=value lines of values.
func Sign(values url.Values, botToken string) []byte {
	var dataCheck []string
	for k, v := range values {
		dataCheck = append(dataCheck, k+"="+strings.Join(v, ""))
	}
	sort.Strings(dataCheck)

	secret := sha256.Sum256([]byte(botToken))
	h := hmac.New(sha256.New, secret[:])
	h.Write([]byte(strings.Join(dataCheck, "\n")))
	return h.Sum(nil)
}
