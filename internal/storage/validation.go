package storage

import (
	"context"
	"fmt"

	"github.com/ledgerline/lockbox-lens/internal/model"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return ctx.Err()
}

func validateString(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

func validateFile(file *model.File) error {
	if file == nil {
		return fmt.Errorf("file cannot be nil")
	}
	if err := validateString(file.ID, "file.ID"); err != nil {
		return err
	}
	if err := validateString(file.Name, "file.Name"); err != nil {
		return err
	}
	for i := range file.Payments {
		p := &file.Payments[i]
		if err := validateString(p.ID, fmt.Sprintf("payment[%d].ID", i)); err != nil {
			return err
		}
		if p.Amount.IsNegative() {
			return fmt.Errorf("payment %s has negative amount %s", p.ID, p.Amount)
		}
	}
	return nil
}
