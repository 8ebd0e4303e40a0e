package session

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/brizzai/miniauth/internal/auth/autherr"
	"github.com/brizzai/miniauth/internal/auth/constants"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the session token payload: the user id plus iat/exp.
type Claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Minter signs session tokens with HS256.
type Minter struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewMinter(secret string, ttl time.Duration) *Minter {
	if ttl <= 0 {
		ttl = constants.DefaultTokenTTL
	}
	return &Minter{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime given to every minted token
func (m *Minter) TTL() time.Duration { return m.ttl }

// Mint signs a token for userID. iat is truncated to whole seconds.
func (m *Minter) Mint(userID int64) (string, *Claims, error) {
	if len(m.secret) == 0 {
		return "", nil, autherr.New(autherr.SigningFailure, "signing secret is empty")
	}

	issuedAt := m.now().Truncate(time.Second)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, autherr.Wrap(autherr.SigningFailure, err, "failed to sign session token")
	}
	return signed, claims, nil
}

var (
	digitsPattern   = regexp.MustCompile(`^\d+$`)
	durationPattern = regexp.MustCompile(`^(\d*\.?\d+) *([a-z]+)?$`)
)

var unitDurations = map[string]time.Duration{
	"ms": time.Millisecond, "msec": time.Millisecond, "msecs": time.Millisecond,
	"millisecond": time.Millisecond, "milliseconds": time.Millisecond,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
	"y": 365*24*time.Hour + 6*time.Hour, "yr": 365*24*time.Hour + 6*time.Hour, "yrs": 365*24*time.Hour + 6*time.Hour,
	"year": 365*24*time.Hour + 6*time.Hour, "years": 365*24*time.Hour + 6*time.Hour,
}

// ParseExpiry interprets token.expires_in. Only digits means seconds; otherwise a
// duration expression ("7d", "12 hours", "1.5h", or Go syntax such as "1h30m").
// Anything else, including non-positive values, yields the 7 day default and ok=false.
func ParseExpiry(raw string) (ttl time.Duration, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return constants.DefaultTokenTTL, false
	}

	if digitsPattern.MatchString(raw) {
		seconds, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || seconds <= 0 {
			return constants.DefaultTokenTTL, false
		}
		return time.Duration(seconds) * time.Second, true
	}

	if m := durationPattern.FindStringSubmatch(strings.ToLower(raw)); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		unit := time.Millisecond
		if m[2] != "" {
			u, known := unitDurations[m[2]]
			if !known {
				err = strconv.ErrSyntax
			}
			unit = u
		}
		if err == nil && n > 0 {
			return time.Duration(n * float64(unit)), true
		}
	}

	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d, true
	}
	return constants.DefaultTokenTTL, false
}
