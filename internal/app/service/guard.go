package service

import (
	"context"
	"fmt"

	"github.com/sifan077/PowerRead/internal/app/model"
	"github.com/sifan077/PowerRead/internal/app/repository"
)

func authorizeOwner(userID uint, entry *model.Entry) error {
	if entry.UserID != userID {
		return fmt.Errorf("entry %d: %w", entry.ID, ErrAccessDenied)
	}
	return nil
}

// loadOwned fetches an entry and checks it belongs to userID.
func loadOwned(ctx context.Context, entries repository.EntryRepository, userID, entryID uint) (*model.Entry, error) {
	entry, err := entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("load entry: %w", err)
	}
	if err := authorizeOwner(userID, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
