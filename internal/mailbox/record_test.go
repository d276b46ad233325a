package mailbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CHESTERFIELD/simple-chat/internal/errs"
)

func TestMessageRecordCreatedPrecision(t *testing.T) {
	m := Message{Sender: "alice", Recipient: "bob", Body: "hi", Created: time.Unix(1700000000, 654321000).UTC()}
	b, err := encodeMessage(m)
	require.NoError(t, err)
	require.JSONEq(t, `{"sender":"alice","recipient":"bob","body":"hi","created":1700000000.654321}`, string(b))

	got, err := decodeMessage(b)
	require.NoError(t, err)
	require.True(t, got.Created.Equal(m.Created), "got %v want %v", got.Created, m.Created)
	require.Equal(t, m.Body, got.Body)
}

func TestDecodeMessageRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"sender":`,
		"missing sender":    `{"recipient":"bob","body":"x","created":1}`,
		"missing recipient": `{"sender":"alice","body":"x","created":1}`,
		"missing created":   `{"sender":"alice","recipient":"bob","body":"x"}`,
		"wrong type":        `{"sender":"alice","recipient":"bob","body":"x","created":"yesterday"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeMessage([]byte(raw))
			require.ErrorIs(t, err, errs.ErrDeserialization)
		})
	}
}

func TestDecodeMessageAllowsEmptyBody(t *testing.T) {
	m, err := decodeMessage([]byte(`{"sender":"alice","recipient":"bob","body":"","created":1700000000}`))
	require.NoError(t, err)
	require.Equal(t, int64(1700000000), m.Created.Unix())
}

func TestUserRecord(t *testing.T) {
	b, err := encodeUser(User{Login: "alice", FullName: "Alice A"})
	require.NoError(t, err)
	require.JSONEq(t, `{"login":"alice","full_name":"Alice A"}`, string(b))

	_, err = decodeUser([]byte(`{"full_name":"nobody"}`))
	require.ErrorIs(t, err, errs.ErrDeserialization)
}
