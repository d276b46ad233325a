// Package directory bulk-loads users into the store from a JSON file of
// {"login", "full_name"} records.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/CHESTERFIELD/simple-chat/internal/errs"
	"github.com/CHESTERFIELD/simple-chat/internal/mailbox"
)

// Registrar stores a single user. *mailbox.Engine satisfies it.
type Registrar interface {
	RegisterUser(ctx context.Context, u mailbox.User) error
}

type record struct {
	Login    string `json:"login"`
	FullName string `json:"full_name"`
}

// Load decodes a JSON array of user records from r and registers each one in
// order. Every record is validated before the first write, so a malformed
// file leaves the store untouched. It returns the number of users written;
// on a storage failure that is the count written before the failing record.
func Load(ctx context.Context, r io.Reader, reg Registrar) (int, error) {
	var recs []record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return 0, fmt.Errorf("directory: decode: %w: %v", errs.ErrInvalidRequest, err)
	}
	for i, rec := range recs {
		if rec.Login == "" {
			return 0, fmt.Errorf("directory: record %d: %w: login is required", i, errs.ErrInvalidRequest)
		}
	}
	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := reg.RegisterUser(ctx, mailbox.User{Login: rec.Login, FullName: rec.FullName}); err != nil {
			return i, fmt.Errorf("directory: register %q: %w", rec.Login, err)
		}
	}
	return len(recs), nil
}

// LoadFile is Load over the file at path.
func LoadFile(ctx context.Context, path string, reg Registrar) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("directory: %w", err)
	}
	defer f.Close()
	return Load(ctx, f, reg)
}
