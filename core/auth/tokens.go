package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/crreddy/polysis/core"
)

const audience = "Polytechnic SIS"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
}

// Person identifies the admin in log reports.
func (c *Claims) Person() core.Person {
	return core.Person{ID: c.Subject, Username: c.Username, Email: c.Email}
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Tokens signs and verifies access and refresh tokens.
type Tokens struct {
	appName       string
	accessKey     []byte
	refreshKey    []byte
	accessTTL     time.Duration
	refreshWindow time.Duration
	now           func() time.Time
}

func NewTokens(conf *core.Config) *Tokens {
	return &Tokens{
		appName:       conf.AppName,
		accessKey:     []byte(conf.SecretKey),
		refreshKey:    []byte(conf.RefreshSecretKey),
		accessTTL:     conf.JWTExpirationDelta,
		refreshWindow: conf.JWTRefreshExpirationDelta,
		now:           time.Now,
	}
}

// AccessKey is the key access tokens are signed with.
func (t *Tokens) AccessKey() []byte { return t.accessKey }

func (t *Tokens) claims(usr AdminUser, expiresAt time.Time, oriat int64) *Claims {
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    t.appName,
			Subject:   usr.ID.Hex(),
			Audience:  audience,
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  t.now().Unix(),
		},
		OrigIssuedAt: oriat,
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         RoleClaimAdmin,
	}
}

// Generate returns a new token pair. The refresh token stays valid until the end of the refresh
// window opened at origIat (now when not given); refreshing never extends it.
func (t *Tokens) Generate(usr AdminUser, origIat ...int64) (TokenPair, error) {
	now := t.now()
	oriat := now.Unix()
	if len(origIat) > 0 && origIat[0] > 0 {
		oriat = origIat[0]
	}

	access, err := sign(t.claims(usr, now.Add(t.accessTTL), oriat), t.accessKey)
	if err != nil {
		return TokenPair{}, err
	}
	refreshExp := time.Unix(oriat, 0).Add(t.refreshWindow)
	refresh, err := sign(t.claims(usr, refreshExp, oriat), t.refreshKey)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccess verifies an access token and returns its claims.
func (t *Tokens) ParseAccess(token string) (*Claims, error) {
	return parse(token, t.accessKey)
}

// ParseRefresh verifies a refresh token and returns its claims.
func (t *Tokens) ParseRefresh(token string) (*Claims, error) {
	return parse(token, t.refreshKey)
}

func sign(claims *Claims, key []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func parse(tokenStr string, key []byte) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.Errorf("unexpected signing method %s", token.Method.Alg())
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
