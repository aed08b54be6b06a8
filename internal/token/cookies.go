package token

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AttachCookies sets both token cookies. The refresh cookie is scoped to the
// auth routes so it is never sent with ordinary API traffic.
func (s *Service) AttachCookies(c *gin.Context, pair Pair) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessCookieName, pair.AccessToken, int(s.accessTTL.Seconds()), accessCookiePath, "", s.secureCookies, true)
	c.SetCookie(RefreshCookieName, pair.RefreshToken, int(s.refreshTTL.Seconds()), refreshCookiePath, "", s.secureCookies, true)
}

func (s *Service) ClearCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessCookieName, "", -1, accessCookiePath, "", s.secureCookies, true)
	c.SetCookie(RefreshCookieName, "", -1, refreshCookiePath, "", s.secureCookies, true)
}
