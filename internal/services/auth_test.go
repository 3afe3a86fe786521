package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fpda/academy-backend/internal/pkg/ctxutil"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return tok
}

func TestAuthServiceSetContextFromToken(t *testing.T) {
	t.Parallel()
	const secret = "test-secret"
	svc := NewAuthService(logger.NewNop(), AuthConfig{Secret: secret, Audience: "authenticated"})
	userID := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	cases := []struct {
		name    string
		claims  jwt.MapClaims
		secret  string
		wantErr bool
	}{
		{
			name: "valid",
			claims: jwt.MapClaims{
				"sub": userID.String(), "aud": "authenticated", "exp": exp,
				"email": "learner@example.com", "user_metadata": map[string]any{"full_name": "Lee Learner"},
			},
			secret: secret,
		},
		{
			name:    "wrong audience",
			claims:  jwt.MapClaims{"sub": userID.String(), "aud": "anon", "exp": exp},
			secret:  secret,
			wantErr: true,
		},
		{
			name:    "expired",
			claims:  jwt.MapClaims{"sub": userID.String(), "aud": "authenticated", "exp": time.Now().Add(-time.Hour).Unix()},
			secret:  secret,
			wantErr: true,
		},
		{
			name:    "missing expiry",
			claims:  jwt.MapClaims{"sub": userID.String(), "aud": "authenticated"},
			secret:  secret,
			wantErr: true,
		},
		{
			name:    "bad signature",
			claims:  jwt.MapClaims{"sub": userID.String(), "aud": "authenticated", "exp": exp},
			secret:  "other",
			wantErr: true,
		},
		{
			name:    "subject not uuid",
			claims:  jwt.MapClaims{"sub": "user-1", "aud": "authenticated", "exp": exp},
			secret:  secret,
			wantErr: true,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx, err := svc.SetContextFromToken(context.Background(), signTestToken(t, tc.secret, tc.claims))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				if ctxutil.GetRequestData(ctx) != nil {
					t.Fatalf("request data must not be attached on failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("SetContextFromToken: %v", err)
			}
			rd := ctxutil.GetRequestData(ctx)
			if rd == nil || rd.UserID != userID {
				t.Fatalf("unexpected request data: %+v", rd)
			}
			if rd.Email != "learner@example.com" || rd.Name != "Lee Learner" {
				t.Fatalf("unexpected identity: %+v", rd)
			}
		})
	}
}
