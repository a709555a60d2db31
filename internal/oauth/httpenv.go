package oauth

import (
	"fmt"
	"net/http"
	"time"
)

// handshakeTTL bounds how long a login attempt may sit between the redirect
// to the provider and the callback.
const handshakeTTL = 10 * time.Minute

// HTTPEnv implements the Env interface using HTTP cookies. Values are scoped
// to the handshake: HttpOnly, SameSite=Lax so the provider's redirect still
// carries them, Secure when the request arrived over TLS, and expiring with
// the handshake itself.
type HTTPEnv struct {
	scope string
	w     http.ResponseWriter
	r     *http.Request
}

// NewHTTPEnv creates a new HTTPEnv instance
func NewHTTPEnv(scope string, w http.ResponseWriter, r *http.Request) *HTTPEnv {
	return &HTTPEnv{scope: scope, w: w, r: r}
}

func (e *HTTPEnv) Save(key, val string) error {
	http.SetCookie(e.w, &http.Cookie{
		Name:     fmt.Sprintf("%s-%s", e.scope, key),
		Value:    val,
		Path:     "/",
		MaxAge:   int(handshakeTTL.Seconds()),
		HttpOnly: true,
		Secure:   e.r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (e *HTTPEnv) Load(key string) (string, error) {
	c, err := e.r.Cookie(fmt.Sprintf("%s-%s", e.scope, key))
	if err != nil {
		return "", err
	}

	return c.Value, nil
}
