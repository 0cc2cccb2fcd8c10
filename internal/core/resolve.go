package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ResolveCustomer finds a customer by normalized email, then by normalized
// phone, and creates one only when both lookups miss. An existing match is
// returned unchanged even if this row carries a different name or contact.
func ResolveCustomer(ctx context.Context, tx Tx, fullName, rawEmail, rawPhone string) (*Customer, error) {
	email := NormalizeEmail(rawEmail)
	phone := NormalizePhone(rawPhone)

	if email != nil {
		c, err := tx.CustomerByEmail(ctx, *email)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("find customer by email: %w", err)
		}
	}

	if phone != nil {
		c, err := tx.CustomerByPhone(ctx, *phone)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("find customer by phone: %w", err)
		}
	}

	c := &Customer{
		FullName:       strings.TrimSpace(fullName),
		Email:          email,
		WhatsAppNumber: phone,
	}
	err := tx.InsertCustomer(ctx, c)
	if errors.Is(err, ErrConflict) && email != nil {
		// Another import inserted this email after our lookup.
		existing, lookupErr := tx.CustomerByEmail(ctx, *email)
		if lookupErr != nil {
			return nil, fmt.Errorf("re-read conflicting customer: %w", lookupErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}

// ResolveVehicle finds a vehicle by normalized registration or creates it.
// On a hit the make/model and color from this row are discarded.
func ResolveVehicle(ctx context.Context, tx Tx, registration, makeModel, color string) (*Vehicle, error) {
	reg := NormalizeRegistration(registration)

	v, err := tx.VehicleByRegistration(ctx, reg)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find vehicle: %w", err)
	}

	v = &Vehicle{
		Registration: reg,
		MakeModel:    strings.TrimSpace(makeModel),
		Color:        optionalText(color),
	}
	err = tx.InsertVehicle(ctx, v)
	if errors.Is(err, ErrConflict) {
		existing, lookupErr := tx.VehicleByRegistration(ctx, reg)
		if lookupErr != nil {
			return nil, fmt.Errorf("re-read conflicting vehicle: %w", lookupErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("insert vehicle: %w", err)
	}
	return v, nil
}
