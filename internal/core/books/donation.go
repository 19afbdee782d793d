package books

import (
	"fmt"

	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/core/ledger"
	"github.com/shopspring/decimal"
)

// Kinds of reference records checked alongside the transaction roots.
const (
	KindMonetaryDonationReward = "monetarydonationreward"
	KindCampaign               = "campaign"
)

// MonetaryDonationReward is a thank-you gift offered above a donation level.
type MonetaryDonationReward struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name" validate:"required,max=40"`
	MinDonation  decimal.Decimal `json:"minDonation" validate:"gte=0"`
	CostToOrg    decimal.Decimal `json:"costToOrg" validate:"gte=0"`
	FairMktValue decimal.Decimal `json:"fairMktValue" validate:"gte=0"`
	Description  string          `json:"description" validate:"max=1024"`
}

func (r *MonetaryDonationReward) AbsoluteURL() string {
	return ledger.AdminURL(KindMonetaryDonationReward, r.ID)
}

func (r *MonetaryDonationReward) Validate() error {
	if err := validateStruct("donation reward", r); err != nil {
		return err
	}
	if r.CostToOrg.GreaterThan(r.MinDonation) {
		return validationError("min donation should cover the cost of the reward")
	}
	return nil
}

func (r *MonetaryDonationReward) String() string {
	return fmt.Sprintf("%s ($%s+)", r.Name, r.MinDonation.StringFixed(2))
}

// Campaign is a fundraising drive with a revenue account of its own.
type Campaign struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name" validate:"required,max=40"`
	IsActive     bool            `json:"isActive"`
	IsPublic     bool            `json:"isPublic"`
	TargetAmount decimal.Decimal `json:"targetAmount" validate:"gte=0"`
	Account      *domain.Account `json:"account"`
	Description  string          `json:"description" validate:"max=1024"`
}

func (c *Campaign) AbsoluteURL() string { return ledger.AdminURL(KindCampaign, c.ID) }

func (c *Campaign) Validate() error {
	if err := validateStruct("campaign", c); err != nil {
		return err
	}
	if c.Account == nil {
		return validationError("campaign has no account")
	}
	if !c.Account.IsCategory(domain.Revenue) {
		return validationError("account chosen must have category REVENUE")
	}
	if !c.Account.IsCredit() {
		return validationError("account chosen must have type CREDIT")
	}
	return nil
}

func (c *Campaign) String() string { return c.Name }
