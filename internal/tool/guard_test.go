package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

func TestURLGuard_Check(t *testing.T) {
	tests := []struct {
		url     string
		private bool
		wantErr bool
	}{
		{"https://example.com/api", false, false},
		{"http://localhost:5173", false, false},
		{"http://127.0.0.1:8000/health", false, false},
		{"http://[::1]:8000/", false, false},
		{"ftp://example.com/file", false, true},
		{"file:///etc/passwd", false, true},
		{"http://10.1.2.3/", false, true},
		{"http://192.168.0.10/", false, true},
		{"http://169.254.169.254/latest/meta-data", false, true},
		{"http://printer.local/", false, true},
		{"http://0.0.0.0/", false, true},
		{"http:///nohost", false, true},
		{"http://10.1.2.3/", true, false},
	}
	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			g := &URLGuard{AllowPrivate: tc.private}
			err := g.Check(tc.url)
			if tc.wantErr {
				require.ErrorIs(t, err, foundryerrors.ErrUnsafeURL)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestURLGuard_Control(t *testing.T) {
	g := &URLGuard{}
	require.NoError(t, g.Control("tcp", "93.184.216.34:443", nil))
	require.NoError(t, g.Control("tcp", "127.0.0.1:80", nil))
	require.ErrorIs(t, g.Control("tcp", "10.0.0.5:80", nil), foundryerrors.ErrUnsafeURL)
	require.ErrorIs(t, g.Control("tcp", "garbage", nil), foundryerrors.ErrUnsafeURL)

	open := &URLGuard{AllowPrivate: true}
	assert.NoError(t, open.Control("tcp", "10.0.0.5:80", nil))
}
