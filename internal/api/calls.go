package api

import (
	"context"

	"crowdfund-client-go/internal/models"
	"crowdfund-client-go/internal/store"
	"crowdfund-client-go/internal/synchronizer"
	"crowdfund-client-go/internal/tracker"

	"go.uber.org/zap"
)

// Donate sends amount from the connected account to the fund
func (s *FundService) Donate(ctx context.Context, amount string) (*tracker.Call, error) {
	account, ok := s.accounts.CurrentAccount()
	if !ok {
		return nil, ErrNoAccount
	}

	zap.L().Info("Donation requested",
		zap.String("sender", account.Address),
		zap.String("amount", amount))

	return s.tracker.Donate(ctx, account.Address, amount)
}

// Withdraw moves the whole fund balance to the connected admin account. The
// admin capability comes from the latest snapshot.
func (s *FundService) Withdraw(ctx context.Context) (*tracker.Call, error) {
	account, ok := s.accounts.CurrentAccount()
	if !ok {
		return nil, ErrNoAccount
	}

	view := s.synchronizer.View()
	if !view.IsAdmin() || view.Account.Address != account.Address {
		return nil, ErrNotAdmin
	}

	zap.L().Info("Withdrawal requested",
		zap.String("sender", account.Address),
		zap.String("admin_cap_id", view.AdminCap.Id),
		zap.String("balance", view.Fund.BalanceDisplay().String()))

	return s.tracker.Withdraw(ctx, account.Address, view.AdminCap.Id, view.Fund.BalanceDisplay())
}

// View returns the merged fund view
func (s *FundService) View() synchronizer.View {
	return s.synchronizer.View()
}

// Refresh forces one synchronizer cycle
func (s *FundService) Refresh(ctx context.Context) synchronizer.View {
	return s.synchronizer.Refresh(ctx)
}

// Notifications returns the visible notifications
func (s *FundService) Notifications() []models.Notification {
	if s.notifications == nil {
		return nil
	}
	return s.notifications.Active()
}

// DismissNotification removes a notification before it expires
func (s *FundService) DismissNotification(id string) bool {
	if s.notifications == nil {
		return false
	}
	return s.notifications.Dismiss(id)
}

// History returns journaled calls, newest first
func (s *FundService) History(ctx context.Context, params store.RecentCallsParams) ([]models.PendingCall, error) {
	return s.journal.RecentCalls(ctx, params)
}

// InFlight reports whether a call is currently being processed
func (s *FundService) InFlight() bool {
	return s.tracker.InFlight()
}
