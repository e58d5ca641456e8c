package transfer

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
)

// BuildResourceURL returns scheme://[username:password@]host[:port]/remotePath.
// The credential segment is omitted when either username or password is
// empty, the port when it is not positive. Credentials and path are
// percent-escaped and a trailing '/' is trimmed.
func BuildResourceURL(scheme, username, password, host string, port int, remotePath string) string {
	u := url.URL{
		Scheme: scheme,
		Host:   host,
	}
	if port > 0 {
		u.Host = net.JoinHostPort(host, strconv.Itoa(port))
	}
	if username != "" && password != "" {
		u.User = url.UserPassword(username, password)
	}
	if p := strings.Trim(remotePath, "/"); p != "" {
		u.Path = "/" + p
	}

	return strings.TrimSuffix(u.String(), "/")
}

// ResourceURL builds the URL for remotePath on the server described by creds,
// using the effective scheme and port.
func ResourceURL(creds models.ServerCredentials, remotePath string) string {
	return BuildResourceURL(creds.EffectiveScheme(), creds.Username, creds.Password, creds.Host, creds.EffectivePort(), remotePath)
}
