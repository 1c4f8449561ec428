package topup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxQuantity     = 20
	maxCodeAttempts = 5
)

// Service registers top-up intents and answers status lookups.
type Service struct {
	repo      Repository
	extractor *Extractor
	prefix    string
	newCode   func(prefix string) (string, error)
	now       func() time.Time
}

// NewService builds a registry issuing codes with the given prefix.
func NewService(repo Repository, prefix string) *Service {
	return &Service{
		repo:      repo,
		extractor: NewExtractor(prefix),
		prefix:    prefix,
		newCode:   GenerateCode,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput describes a create request. With BeneficiaryIDs set, one intent
// is issued per beneficiary; otherwise Quantity intents go to the requester.
type CreateInput struct {
	RequesterID    string
	BeneficiaryIDs []string
	Quantity       int
	Amount         int64
	BankAccountNo  string
}

// Create validates in and persists one PENDING intent per owner. The batch is
// stored atomically: on error nothing was persisted.
func (s *Service) Create(ctx context.Context, in CreateInput) ([]Topup, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(in.RequesterID) == "" {
		return nil, &ValidationError{Field: "requester_id", Message: "requester is required"}
	}

	owners, err := ownersFor(in)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		batch, err := s.buildBatch(owners, in)
		if err == nil {
			err = s.repo.CreateBatch(ctx, batch)
		}
		if errors.Is(err, ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return batch, nil
	}
	return nil, fmt.Errorf("no unique codes after %d attempts: %w", maxCodeAttempts, ErrDuplicateCode)
}

func ownersFor(in CreateInput) ([]string, error) {
	if len(in.BeneficiaryIDs) > 0 {
		if len(in.BeneficiaryIDs) > maxQuantity {
			return nil, &ValidationError{Field: "beneficiary_ids", Message: fmt.Sprintf("at most %d beneficiaries per request", maxQuantity)}
		}
		owners := make([]string, 0, len(in.BeneficiaryIDs))
		for _, id := range in.BeneficiaryIDs {
			id = strings.TrimSpace(id)
			if id == "" {
				return nil, &ValidationError{Field: "beneficiary_ids", Message: "beneficiary id must not be empty"}
			}
			owners = append(owners, id)
		}
		return owners, nil
	}

	n := in.Quantity
	if n == 0 {
		n = 1
	}
	if n < 0 || n > maxQuantity {
		return nil, &ValidationError{Field: "quantity", Message: fmt.Sprintf("quantity must be between 1 and %d", maxQuantity)}
	}
	owners := make([]string, n)
	for i := range owners {
		owners[i] = in.RequesterID
	}
	return owners, nil
}

// buildBatch draws a fresh code per owner, distinct within the batch.
func (s *Service) buildBatch(owners []string, in CreateInput) ([]Topup, error) {
	now := s.now()
	account := strings.TrimSpace(in.BankAccountNo)
	batch := make([]Topup, 0, len(owners))
	seen := make(map[string]bool, len(owners))
	for _, owner := range owners {
		code, err := s.newCode(s.prefix)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		if seen[strings.ToUpper(code)] {
			return nil, ErrDuplicateCode
		}
		seen[strings.ToUpper(code)] = true
		batch = append(batch, Topup{
			ID:            uuid.NewString(),
			Code:          code,
			OwnerID:       owner,
			RequesterID:   in.RequesterID,
			Amount:        in.Amount,
			BankAccountNo: account,
			Status:        StatusPending,
			CreatedAt:     now,
		})
	}
	return batch, nil
}

// Status returns the most recent top-up carrying code.
func (s *Service) Status(ctx context.Context, code string) (Topup, error) {
	code = s.extractor.Canonical(code)
	if code == "" {
		return Topup{}, ErrNotFound
	}
	return s.repo.FindLatestByCode(ctx, code)
}
