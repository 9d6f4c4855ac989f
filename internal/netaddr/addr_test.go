package netaddr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateHostPort_Valid(t *testing.T) {
	require.NoError(t, ValidateHostPort("127.0.0.1:8080"))
	require.NoError(t, ValidateHostPort("localhost:8080"))
	require.NoError(t, ValidateHostPort(":8080"))
	require.NoError(t, ValidateHostPort("[::1]:8080"))
}

func TestValidateHostPort_BadPort(t *testing.T) {
	require.Error(t, ValidateHostPort("127.0.0.1:070"))
	require.Error(t, ValidateHostPort("127.0.0.1:99999"))
}

func TestValidateHostPort_BadHost(t *testing.T) {
	require.Error(t, ValidateHostPort("999.1.1.1:8080"))
	require.Error(t, ValidateHostPort("-bad-.com:8080"))
}

func TestValidateHostPort_NotHostPort(t *testing.T) {
	require.Error(t, ValidateHostPort("not-a-host-port"))
}
