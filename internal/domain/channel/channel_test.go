package channel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAll verifies the fixed order and that callers get an independent copy.
func TestAll(t *testing.T) {
	t.Parallel()

	require.Equal(t, []Channel{Stable, Beta, Nightly}, All())

	first := All()
	first[0] = Nightly

	require.Equal(t, Stable, All()[0])
}

// TestParse checks known tags, normalisation and rejection of unknown values.
func TestParse(t *testing.T) {
	t.Parallel()

	cases := map[string]Channel{
		"stable":     Stable,
		"beta":       Beta,
		"nightly":    Nightly,
		" Nightly\n": Nightly,
		"BETA":       Beta,
	}
	for s, want := range cases {
		got, err := Parse(s)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	got, err := Parse("canary")
	require.ErrorIs(t, err, ErrUnknown)
	require.Equal(t, Stable, got)
}

// TestFromTag accepts only the exact serialized tags.
func TestFromTag(t *testing.T) {
	t.Parallel()

	for _, c := range All() {
		got, err := FromTag(c.String())
		require.NoError(t, err)
		require.Equal(t, c, got)
	}

	for _, tag := range []string{"BETA", "Beta", " beta", "nightly\n", ""} {
		got, err := FromTag(tag)
		require.ErrorIs(t, err, ErrUnknown, tag)
		require.Equal(t, Stable, got)
	}
}

// TestString ensures tags are lowercase and out-of-range values do not panic.
func TestString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "stable", Stable.String())
	require.Equal(t, "beta", Beta.String())
	require.Equal(t, "nightly", Nightly.String())
	require.Equal(t, "channel(9)", Channel(9).String())
	require.True(t, Stable.IsDefault())
	require.False(t, Beta.IsDefault())
}

// TestJSON verifies channels encode as JSON string literals and decode back.
func TestJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Beta)
	require.NoError(t, err)
	require.JSONEq(t, `"beta"`, string(data))

	var c Channel
	require.NoError(t, json.Unmarshal([]byte(`"nightly"`), &c))
	require.Equal(t, Nightly, c)

	require.Error(t, json.Unmarshal([]byte(`"weekly"`), &c))
	require.Error(t, json.Unmarshal([]byte(`"Nightly"`), &c))

	_, err = json.Marshal(Channel(42))
	require.Error(t, err)
}
