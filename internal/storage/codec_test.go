package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coalseq/internal/model"
)

func TestParametersTextRoundTrip(t *testing.T) {
	want := testContainer().Parameters

	text, err := EncodeParameters(want)
	require.NoError(t, err)
	got, err := DecodeParameters(text)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = DecodeParameters("{not json")
	require.Error(t, err)
}

func TestEnvironmentTextRoundTrip(t *testing.T) {
	want := model.CurrentEnvironment()

	text, err := EncodeEnvironment(want)
	require.NoError(t, err)
	got, err := DecodeEnvironment(text)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = DecodeEnvironment("")
	require.Error(t, err)
}

func TestContainerRoundTrip(t *testing.T) {
	want := testContainer()

	data, err := EncodeContainer(want)
	require.NoError(t, err)
	got, err := DecodeContainer(data)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// Re-encoding is byte-stable.
	again, err := EncodeContainer(got)
	require.NoError(t, err)
	require.Equal(t, data, again)

	_, err = DecodeContainer([]byte("[]"))
	require.Error(t, err)
}
