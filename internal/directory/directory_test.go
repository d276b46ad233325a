package directory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CHESTERFIELD/simple-chat/internal/errs"
	"github.com/CHESTERFIELD/simple-chat/internal/mailbox"
)

type recorder struct {
	users []mailbox.User
	fail  map[string]error
}

func (r *recorder) RegisterUser(_ context.Context, u mailbox.User) error {
	if err := r.fail[u.Login]; err != nil {
		return err
	}
	r.users = append(r.users, u)
	return nil
}

func TestLoad(t *testing.T) {
	rec := &recorder{}
	n, err := Load(context.Background(), strings.NewReader(`[
		{"login": "alice", "full_name": "Alice A"},
		{"login": "bob"}
	]`), rec)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []mailbox.User{{Login: "alice", FullName: "Alice A"}, {Login: "bob"}}, rec.users)
}

func TestLoadRejectsBeforeWriting(t *testing.T) {
	cases := map[string]string{
		"not json":      `{`,
		"not an array":  `{"login":"alice"}`,
		"missing login": `[{"login":"alice"},{"full_name":"Nobody"}]`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			rec := &recorder{}
			n, err := Load(context.Background(), strings.NewReader(in), rec)
			require.ErrorIs(t, err, errs.ErrInvalidRequest)
			assert.Zero(t, n)
			assert.Empty(t, rec.users)
		})
	}
}

func TestLoadStopsOnStorageFailure(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{fail: map[string]error{"bob": boom}}
	n, err := Load(context.Background(), strings.NewReader(`[{"login":"alice"},{"login":"bob"},{"login":"carol"}]`), rec)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
	assert.Len(t, rec.users, 1)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"login":"alice","full_name":"Alice A"}]`), 0o600))

	rec := &recorder{}
	n, err := LoadFile(context.Background(), path, rec)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"), rec)
	require.ErrorIs(t, err, os.ErrNotExist)
}
