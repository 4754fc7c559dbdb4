package chain

import "fmt"

// Move-call entry points of the protocol package. The module and function
// names are fixed by the deployed contract.
const (
	targetCreateOffer      = "%s::book::create_offer"
	targetFillFull         = "%s::book::fill_full"
	targetFillPartial      = "%s::book::fill_partial"
	targetWithdrawOffer    = "%s::book::withdraw_offer"
	targetExpireOffer      = "%s::book::expire_offer"
	targetCreateIntent     = "%s::intent::create_intent"
	targetExecuteIntent    = "%s::intent::execute_against_offer_v2"
	targetExecuteEncrypted = "%s::intent::execute_encrypted_intent"
	targetCancelIntent     = "%s::intent::cancel_intent"
)

// Targets resolves fully-qualified move-call targets for one deployment of
// the protocol package.
type Targets struct {
	PackageID string
}

func (t Targets) CreateOffer() string      { return fmt.Sprintf(targetCreateOffer, t.PackageID) }
func (t Targets) FillFull() string         { return fmt.Sprintf(targetFillFull, t.PackageID) }
func (t Targets) FillPartial() string      { return fmt.Sprintf(targetFillPartial, t.PackageID) }
func (t Targets) WithdrawOffer() string    { return fmt.Sprintf(targetWithdrawOffer, t.PackageID) }
func (t Targets) ExpireOffer() string      { return fmt.Sprintf(targetExpireOffer, t.PackageID) }
func (t Targets) CreateIntent() string     { return fmt.Sprintf(targetCreateIntent, t.PackageID) }
func (t Targets) ExecuteIntent() string    { return fmt.Sprintf(targetExecuteIntent, t.PackageID) }
func (t Targets) ExecuteEncrypted() string { return fmt.Sprintf(targetExecuteEncrypted, t.PackageID) }
func (t Targets) CancelIntent() string     { return fmt.Sprintf(targetCancelIntent, t.PackageID) }
