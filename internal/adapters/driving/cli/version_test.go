package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	for _, v := range []string{"dev", "1.4.0"} {
		t.Run(v, func(t *testing.T) {
			original := version
			version = v
			defer func() { version = original }()

			out, err := execute("version")
			require.NoError(t, err)
			assert.Contains(t, out, "sercha-kb version "+v)
			assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
		})
	}
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	_, err := execute("version", "extra")
	assert.Error(t, err)
}
