package botdetection

import "strings"

// automatedPatterns are lowercase fragments of user agents sent by crawlers,
// headless browsers, uptime checkers and scripted HTTP clients
var automatedPatterns = []string{
	"bot",
	"crawler",
	"spider",
	"slurp",
	"headlesschrome",
	"phantomjs",
	"selenium",
	"puppeteer",
	"playwright",
	"uptime",
	"pingdom",
	"statuscake",
	"python-requests",
	"python-urllib",
	"aiohttp",
	"curl",
	"wget",
	"httpie",
	"go-http-client",
	"okhttp",
	"java/",
	"node-fetch",
	"axios",
	"postman",
	"insomnia",
}

// IsAutomatedUserAgent reports whether a user agent looks like a script or
// crawler rather than a browser. An empty user agent counts as automated.
func IsAutomatedUserAgent(userAgent string) bool {
	if userAgent == "" {
		return true
	}

	ua := strings.ToLower(userAgent)
	for _, pattern := range automatedPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
