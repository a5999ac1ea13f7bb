package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-quiz/internal/dto"
)

func TestTokenService(t *testing.T) {
	tokens, err := NewTokenService("test-secret")
	require.NoError(t, err)

	valid, err := tokens.CreateToken("alice", time.Hour)
	require.NoError(t, err)
	expired, err := tokens.CreateToken("alice", -time.Minute)
	require.NoError(t, err)

	other, err := NewTokenService("other-secret")
	require.NoError(t, err)
	foreign, err := other.CreateToken("alice", time.Hour)
	require.NoError(t, err)

	noneSigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, dto.AuthClaims{Username: "alice"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name         string
		token        string
		wantUsername string
		wantErr      bool
	}{
		{name: "valid token", token: valid, wantUsername: "alice"},
		{name: "expired token", token: expired, wantErr: true},
		{name: "foreign signature", token: foreign, wantErr: true},
		{name: "unsigned token", token: noneSigned, wantErr: true},
		{name: "garbage", token: "not.a.token", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := tokens.ValidateToken(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUsername, claims.Username)
			assert.Equal(t, tt.wantUsername, claims.Subject)
		})
	}
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService("")
	assert.Error(t, err)
}
