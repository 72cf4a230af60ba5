package privilege

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHint(t *testing.T) {
	denied := fmt.Errorf("block /etc/hosts: %w", &fs.PathError{Op: "open", Path: "/etc/hosts", Err: fs.ErrPermission})
	notElevated := func() bool { return false }
	elevated := func() bool { return true }

	assert.Equal(t, hint, hintFor(denied, notElevated))
	assert.Empty(t, hintFor(denied, elevated))
	assert.Empty(t, hintFor(errors.New("malformed block section"), notElevated))
	assert.Empty(t, hintFor(nil, notElevated))
}

func TestEffectiveUID(t *testing.T) {
	assert.Equal(t, int32(0), effectiveUID([]int32{1000, 0, 0, 0}))
	assert.Equal(t, int32(1000), effectiveUID([]int32{0, 1000, 1000, 1000}))
	assert.Equal(t, int32(501), effectiveUID([]int32{501}))
}

func TestElevatedMatchesEuid(t *testing.T) {
	if runtime.GOOS == "windows" {
		assert.False(t, Elevated())
		return
	}
	assert.Equal(t, os.Geteuid() == 0, Elevated())
}
