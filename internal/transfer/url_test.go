package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
)

func TestBuildResourceURL(t *testing.T) {
	tests := []struct {
		name     string
		scheme   string
		user     string
		password string
		host     string
		port     int
		path     string
		want     string
	}{
		{"full", "ftp", "u", "p", "h", 21, "image_unknown.jpg", "ftp://u:p@h:21/image_unknown.jpg"},
		{"no user", "ftp", "", "p", "h", 21, "a.txt", "ftp://h:21/a.txt"},
		{"no password", "ftp", "u", "", "h", 21, "a.txt", "ftp://h:21/a.txt"},
		{"no port", "ftp", "u", "p", "h", 0, "a.txt", "ftp://u:p@h/a.txt"},
		{"trailing slash trimmed", "ftp", "u", "p", "h", 2121, "dir/", "ftp://u:p@h:2121/dir"},
		{"leading slash not doubled", "ftp", "u", "p", "h", 21, "/FTP_SERVER_ROOT/a.pdf", "ftp://u:p@h:21/FTP_SERVER_ROOT/a.pdf"},
		{"empty path", "ftp", "u", "p", "h", 21, "", "ftp://u:p@h:21"},
		{"escaped credentials", "ftp", "anna@corp", "p:ss/w", "h", 21, "x.bin", "ftp://anna%40corp:p%3Ass%2Fw@h:21/x.bin"},
		{"escaped path", "ftp", "", "", "h", 21, "my file.txt", "ftp://h:21/my%20file.txt"},
		{"s3 scheme", "s3", "key", "secret", "minio", 9000, "video_1.mp4", "s3://key:secret@minio:9000/video_1.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildResourceURL(tt.scheme, tt.user, tt.password, tt.host, tt.port, tt.path)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResourceURL_UsesDefaults(t *testing.T) {
	creds := models.ServerCredentials{Host: "h", Username: "u", Password: "p"}
	assert.Equal(t, "ftp://u:p@h:21/image_unknown.jpg", ResourceURL(creds, "image_unknown.jpg"))
}
