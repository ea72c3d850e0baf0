package store

import (
	"context"
	"errors"

	"github.com/kirotools/switchboard/internal/db/models"
	"gorm.io/gorm"
)

// GetMachineBinding returns the machine identifier bound to an account, or an
// empty string when no binding exists.
func (s *Store) GetMachineBinding(ctx context.Context, accountID string) (string, error) {
	var binding models.MachineBinding
	err := s.db.WithContext(ctx).First(&binding, "account_id = ?", accountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return binding.MachineID, nil
}

// EnsureMachineBinding creates a binding if the account has none and returns
// the effective machine identifier. An existing binding is never overwritten:
// the bound identifier must stay stable for the lifetime of the account.
func (s *Store) EnsureMachineBinding(ctx context.Context, accountID, machineID string) (string, error) {
	existing, err := s.GetMachineBinding(ctx, accountID)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}
	binding := models.MachineBinding{AccountID: accountID, MachineID: machineID}
	if err := s.db.WithContext(ctx).Create(&binding).Error; err != nil {
		return "", err
	}
	return machineID, nil
}
