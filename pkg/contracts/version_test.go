package contracts

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, DocumentFormatVersion, info.DocumentFormat)
	assert.Equal(t, APIVersion, info.APIVersion)
}

func TestVersionStrings(t *testing.T) {
	assert.Equal(t, "finpanel v"+Version, GetVersionString())
	assert.True(t, strings.HasPrefix(GetFullVersionString(), GetVersionString()+" (built: "))
	assert.False(t, IsStable())
	assert.False(t, IsPrerelease())
}
