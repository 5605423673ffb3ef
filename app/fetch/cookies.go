package fetch

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"

	cookiemonster "github.com/MercuryEngineering/CookieMonster"
)

// loadCookieJar parses a Netscape/Mozilla cookie file into a jar usable with
// net/http. A missing, unparsable or empty file means there is no session to
// authenticate with, so all of those fail KindAuthRequired.
func loadCookieJar(path string) (http.CookieJar, error) {
	if path == "" {
		return nil, newError(KindAuthRequired, "cookies file is not configured")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, wrapError(KindAuthRequired, err, "cookies file is missing")
	}

	cookies, err := cookiemonster.ParseFile(path)
	if err != nil {
		return nil, wrapError(KindAuthRequired, err, "failed to parse cookies file")
	}
	if len(cookies) == 0 {
		return nil, newError(KindAuthRequired, "cookies file is empty")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, wrapError(KindUnexpected, err, "failed to build cookie jar")
	}

	byDomain := make(map[string][]*http.Cookie)
	for _, cookie := range cookies {
		domain := strings.TrimPrefix(cookie.Domain, ".")
		if domain == "" {
			continue
		}
		byDomain[domain] = append(byDomain[domain], cookie)
	}
	for domain, domainCookies := range byDomain {
		jar.SetCookies(&url.URL{Scheme: "https", Host: domain}, domainCookies)
	}
	return jar, nil
}
