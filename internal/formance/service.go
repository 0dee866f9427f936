package formance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crowdfund-client-go/internal/models"
	"crowdfund-client-go/internal/store"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// Compile-time checks: *Service is a call journal with fund totals.
var (
	_ store.CallJournal = (*Service)(nil)
	_ store.FundLedger  = (*Service)(nil)
)

const defaultLedgerName = "iota-crowdfunding"

// Service implements store.CallJournal backed by a Formance Stack ledger.
// Only confirmed calls are posted; each becomes one transaction mirroring the
// on-chain movement, referenced by the call id.
type Service struct {
	client *v3.Formance
	ledger string
	fundId string
}

// NewService connects to the stack and makes sure the journal ledger exists
func NewService(ctx context.Context, cfg models.FormanceConfig, fundId string) (*Service, error) {
	if err := validateConfig(cfg, fundId); err != nil {
		return nil, err
	}
	if cfg.LedgerName == "" {
		cfg.LedgerName = defaultLedgerName
	}

	zap.L().Info("Connecting to Formance Stack",
		zap.String("stack_url", cfg.StackURL),
		zap.String("ledger", cfg.LedgerName))

	svc := &Service{client: newClient(cfg), ledger: cfg.LedgerName, fundId: fundId}
	if err := svc.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger exists: %w", err)
	}

	zap.L().Info("Formance call journal ready",
		zap.String("ledger", cfg.LedgerName),
		zap.String("fund_account", fundAccount(fundId)))
	return svc, nil
}

func validateConfig(cfg models.FormanceConfig, fundId string) error {
	var missing []string
	if cfg.StackURL == "" {
		missing = append(missing, "FORMANCE_STACK_URL")
	}
	if cfg.ClientID == "" {
		missing = append(missing, "FORMANCE_CLIENT_ID")
	}
	if cfg.ClientSecret == "" {
		missing = append(missing, "FORMANCE_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("formance journal requires %s", strings.Join(missing, ", "))
	}
	if fundId == "" {
		return fmt.Errorf("formance journal requires the fund object id")
	}
	return nil
}

func newClient(cfg models.FormanceConfig) *v3.Formance {
	return v3.New(
		v3.WithServerURL(cfg.StackURL),
		v3.WithSecurity(shared.Security{
			ClientID:     v3.Pointer(cfg.ClientID),
			ClientSecret: v3.Pointer(cfg.ClientSecret),
		}),
	)
}

// ensureLedger creates the ledger if it does not already exist.
func (s *Service) ensureLedger(ctx context.Context) error {
	_, err := s.client.Ledger.V2.CreateLedger(ctx, operations.V2CreateLedgerRequest{
		Ledger: s.ledger,
		V2CreateLedgerRequest: shared.V2CreateLedgerRequest{
			Metadata: map[string]string{
				"application": defaultLedgerName,
				"fund_id":     s.fundId,
			},
		},
	})
	if err != nil {
		var apiErr *sdkerrors.V2ErrorResponse
		if errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumLedgerAlreadyExists {
			zap.L().Info("Ledger already exists", zap.String("ledger", s.ledger))
			return nil
		}
		return err
	}
	zap.L().Info("Ledger created", zap.String("ledger", s.ledger))
	return nil
}

// Close releases nothing; the SDK client holds no connections of its own
func (s *Service) Close() {}

// isConflictError checks whether a Formance SDK error is a CONFLICT (duplicate reference).
func isConflictError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumConflict
}
