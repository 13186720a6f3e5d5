package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo_String(t *testing.T) {
	info := Info{CommitHash: "0123456789abcdef", BuildTime: "2026-01-01", Version: "dev"}
	assert.Equal(t, "cersei dev (commit 0123456, built 2026-01-01)", info.String())

	info.Version = "v1.2.0"
	assert.Equal(t, "cersei v1.2.0 (commit 0123456789abcdef, built 2026-01-01)", info.String())
}

func TestInfo_Short(t *testing.T) {
	assert.Equal(t, "abc", Info{CommitHash: "abc"}.Short())
	assert.Equal(t, "abcdefg", Info{CommitHash: "abcdefghij"}.Short())
}

func TestGet(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.CommitHash)
	assert.True(t, strings.HasPrefix(info.GoVersion, "go"))
	assert.Contains(t, info.Platform, "/")
	assert.True(t, strings.HasPrefix(info.UserAgent(), "cersei/"))
}
