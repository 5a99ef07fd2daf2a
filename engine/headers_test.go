package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderListAppend(t *testing.T) {
	testcases := []struct {
		desc    string
		name    string
		value   string
		wantErr bool
	}{
		{
			desc:  "plain header",
			name:  "Content-Type",
			value: "text/plain",
		},
		{
			desc:  "suppression marker",
			name:  "Expect",
			value: "",
		},
		{
			desc:    "empty name",
			name:    "",
			value:   "v",
			wantErr: true,
		},
		{
			desc:    "colon in name",
			name:    "Bad:Name",
			value:   "v",
			wantErr: true,
		},
		{
			desc:    "crlf injection in value",
			name:    "X-Test",
			value:   "a\r\nInjected: yes",
			wantErr: true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			l := NewHeaderList()
			err := l.Append(tc.name, tc.value)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, 1, l.Len())
		})
	}
}

func TestHeaderListSendable(t *testing.T) {
	l := NewHeaderList()
	require.NoError(t, l.Append("Content-Type", "text/plain"))
	require.NoError(t, l.Append("Expect", "")) // suppression marker
	require.NoError(t, l.Append("X-Ms-Version", "2021-08-06"))

	sendable := l.sendable()
	require.Len(t, sendable, 2)
	assert.Equal(t, "Content-Type", sendable[0].name)
	assert.Equal(t, "X-Ms-Version", sendable[1].name)

	// A marker still counts as present, so automatic headers stay off.
	assert.True(t, l.has("expect"))
	assert.True(t, l.has("content-type"))
	assert.False(t, l.has("Authorization"))
}
