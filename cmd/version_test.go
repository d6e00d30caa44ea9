package cmd

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBuildInfo(t *testing.T) {
	var buf bytes.Buffer
	printBuildInfo(&buf, buildInfo{Version: "v1.2.0", Commit: "abc123", Date: "2025-11-03", Runtime: "go1.25.0"})

	assert.Equal(t, "prpulse CLI\n"+
		"  Version: v1.2.0\n"+
		"  Commit:  abc123\n"+
		"  Built:   2025-11-03\n"+
		"  Runtime: go1.25.0\n", buf.String())
}

func TestResolveBuildInfo(t *testing.T) {
	info := resolveBuildInfo()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.Commit)
	assert.NotEmpty(t, info.Date)
	assert.Equal(t, runtime.Version(), info.Runtime)
}
