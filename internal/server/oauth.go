package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/wardenhq/warden/internal/auth"
)

const oauthStateCookie = "warden_oauth_state"

// registerOAuthRoutes wires the platform OAuth login flow. The callback
// only issues tokens when the verified identity is linked to a
// provisioned operator.
func registerOAuthRoutes(r chi.Router, provider *auth.OAuthProvider, logins ExternalLoginService) {
	r.Get("/auth/oauth/start", func(w http.ResponseWriter, req *http.Request) {
		state, err := randomState()
		if err != nil {
			http.Error(w, `{"title":"Internal Server Error","status":500}`, http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Path:     "/api/v1/auth/oauth",
			MaxAge:   int((10 * time.Minute).Seconds()),
			HttpOnly: true,
			Secure:   req.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, req, provider.AuthorizationURL(state), http.StatusTemporaryRedirect)
	})

	r.Get("/auth/oauth/callback", func(w http.ResponseWriter, req *http.Request) {
		cookie, err := req.Cookie(oauthStateCookie)
		if err != nil || cookie.Value == "" || cookie.Value != req.URL.Query().Get("state") {
			http.Error(w, `{"title":"Bad Request","status":400,"detail":"state mismatch"}`, http.StatusBadRequest)
			return
		}

		code := req.URL.Query().Get("code")
		if code == "" {
			http.Error(w, `{"title":"Bad Request","status":400,"detail":"missing code"}`, http.StatusBadRequest)
			return
		}

		identity, err := provider.ExchangeCode(req.Context(), code)
		if err != nil {
			log.Warn().Err(err).Msg("oauth: code exchange failed")
			http.Error(w, `{"title":"Unauthorized","status":401,"detail":"code exchange failed"}`, http.StatusUnauthorized)
			return
		}

		pair, err := logins.LoginExternal(req.Context(), identity.ID)
		if err != nil {
			if errors.Is(err, auth.ErrUnknownIdentity) {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"account not linked to an operator"}`, http.StatusForbidden)
				return
			}
			http.Error(w, `{"title":"Internal Server Error","status":500}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
		})
	})
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
