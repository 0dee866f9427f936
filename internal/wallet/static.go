package wallet

import "crowdfund-client-go/internal/models"

// StaticAccount is an account provider for read-only tools that watch a
// fixed address without a wallet agent
type StaticAccount struct {
	Address string
}

// CurrentAccount returns the fixed address; an empty address is no account
func (s StaticAccount) CurrentAccount() (models.Account, bool) {
	if s.Address == "" {
		return models.Account{}, false
	}
	return models.Account{Address: s.Address}, true
}
