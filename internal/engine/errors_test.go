package engine

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := ioError("open", "/x/a.jpg", os.ErrNotExist)

	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrWalk)
	assert.True(t, IsNotExist(err))
	assert.Equal(t, "open /x/a.jpg: file does not exist", err.Error())

	var e *Error
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, "/x/a.jpg", e.Path)
}

func TestConfigError(t *testing.T) {
	err := ConfigError("no roots for %s", "image")
	assert.ErrorIs(t, err, ErrConfig)
	assert.Equal(t, "setup: no roots for image", err.Error())
}
