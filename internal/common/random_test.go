package common

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	s, err := MakeRandHexString(16)
	require.NoError(t, err)
	require.Len(t, s, 32, "hex string should be twice the byte size")

	s2, err := MakeRandHexString(16)
	require.NoError(t, err)
	require.NotEqual(t, s, s2)
}

func TestMakeVerificationCode_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := MakeVerificationCode()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
}
