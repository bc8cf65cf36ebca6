package auth

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crreddy/polysis/core"
)

func TestTokens(t *testing.T) {
	conf := core.NewTestConfig()
	tokens := NewTokens(conf)
	usr := newAdminUser("admin@polytechnic.test", time.Now())
	usr.ID = primitive.NewObjectID()

	pair, err := tokens.Generate(usr)
	require.NoError(t, err)

	claims, err := tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, usr.ID.Hex(), claims.Subject)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, usr.Email, claims.Email)
	assert.Equal(t, RoleClaimAdmin, claims.Role)
	assert.Equal(t, audience, claims.Audience)
	assert.Equal(t, claims.IssuedAt, claims.OrigIssuedAt)
	assert.Equal(t, claims.IssuedAt+int64(conf.JWTExpirationDelta.Seconds()), claims.ExpiresAt)
	assert.Equal(t, core.Person{ID: usr.ID.Hex(), Username: "admin", Email: usr.Email}, claims.Person())

	refresh, err := tokens.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, refresh.OrigIssuedAt+int64(conf.JWTRefreshExpirationDelta.Seconds()), refresh.ExpiresAt)

	t.Run("keys are not interchangeable", func(t *testing.T) {
		_, err := tokens.ParseAccess(pair.RefreshToken)
		assert.Error(t, err)
		_, err = tokens.ParseRefresh(pair.AccessToken)
		assert.Error(t, err)
		_, err = tokens.ParseAccess("lol")
		assert.Error(t, err)
	})

	t.Run("refresh keeps the window", func(t *testing.T) {
		oriat := time.Now().Add(-3 * time.Hour).Unix()
		pair, err := tokens.Generate(usr, oriat)
		require.NoError(t, err)
		refresh, err := tokens.ParseRefresh(pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, oriat, refresh.OrigIssuedAt)
		assert.Equal(t, oriat+int64(conf.JWTRefreshExpirationDelta.Seconds()), refresh.ExpiresAt)

		// window closed
		pair, err = tokens.Generate(usr, time.Now().Add(-conf.JWTRefreshExpirationDelta-time.Minute).Unix())
		require.NoError(t, err)
		_, err = tokens.ParseRefresh(pair.RefreshToken)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		tokens.now = func() time.Time { return time.Now().Add(-conf.JWTExpirationDelta - time.Minute) }
		defer func() { tokens.now = time.Now }()

		pair, err := tokens.Generate(usr)
		require.NoError(t, err)
		_, err = tokens.ParseAccess(pair.AccessToken)
		var vErr *jwt.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.NotZero(t, vErr.Errors&jwt.ValidationErrorExpired)
	})

	t.Run("other signing method", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, tokens.claims(usr, time.Now().Add(time.Hour), 0))
		ss, err := token.SignedString(tokens.AccessKey())
		require.NoError(t, err)
		_, err = tokens.ParseAccess(ss)
		assert.Error(t, err)
	})
}
