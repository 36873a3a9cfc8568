package cmd

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmdHealthySetup(t *testing.T) {
	logger := zerolog.Nop()

	cmd := NewDoctorCmd(testConfig(t), &logger)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{})

	assert.NoError(t, cmd.Execute())
}

func TestDoctorCmdMetadata(t *testing.T) {
	logger := zerolog.Nop()

	cmd := NewDoctorCmd(testConfig(t), &logger)
	require.NotNil(t, cmd)
	assert.Equal(t, "doctor", cmd.Use)
}
