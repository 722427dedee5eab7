package walletd

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/twitchtv/twirp"
	"github.com/yiplee/go-cache"
)

func extractBearerToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	return strings.TrimPrefix(token, "Bearer ")
}

// handleAuth validates the bearer token's claims and issuer and attaches
// the resolved user to the request context.
func handleAuth(issuer string) func(next http.Handler) http.Handler {
	users := cache.New[string, *User]()

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := extractBearerToken(r)

			var claim jwt.StandardClaims
			_, _ = jwt.ParseWithClaims(token, &claim, nil)

			if err := claim.Valid(); err != nil {
				_ = twirp.WriteError(w, twirp.Unauthenticated.Error(err.Error()))
				return
			}

			if claim.Issuer != issuer {
				_ = twirp.WriteError(w, twirp.NewError(twirp.Unauthenticated, "auth required"))
				return
			}

			user, ok := users.Get(token)
			if !ok {
				user = &User{
					ID:    claim.Subject,
					Token: token,
				}
				users.Set(token, user)
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		}

		return http.HandlerFunc(fn)
	}
}
