package mapping

import (
	"github.com/SscSPs/org_books/internal/core/books"
	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/models"
)

// AccountLookup resolves an account ID to the account, or nil when unknown.
type AccountLookup func(id int64) *domain.Account

// ToDomainSale converts a sale row without its details.
func ToDomainSale(m models.Sale) *books.Sale {
	return &books.Sale{
		ID:                  m.ID,
		SaleDate:            m.SaleDate,
		DepositDate:         m.DepositDate,
		PayerUserID:         m.PayerUserID,
		PayerName:           m.PayerName,
		PayerEmail:          m.PayerEmail,
		PaymentMethod:       books.PaymentMethod(m.PaymentMethod),
		MethodDetail:        m.MethodDetail,
		TotalPaidByCustomer: m.TotalPaidByCustomer,
		ProcessingFee:       m.ProcessingFee,
		FeePayer:            books.FeePayer(m.FeePayer),
		Ctrlid:              m.Ctrlid,
		Protected:           m.Protected,
	}
}

func ToDomainOtherItem(m models.OtherItem, accounts AccountLookup) *books.OtherItem {
	itemType := &books.OtherItemType{
		ID:          m.TypeID,
		Name:        m.TypeName,
		Description: m.TypeDescription,
	}
	if m.RevenueAccountID != nil {
		itemType.RevenueAccount = accounts(*m.RevenueAccountID)
	}
	return &books.OtherItem{
		ID:        m.ID,
		SaleID:    m.SaleID,
		Type:      itemType,
		SalePrice: m.SalePrice,
		QtySold:   m.QtySold,
		Ctrlid:    m.Ctrlid,
		Protected: m.Protected,
	}
}

func ToDomainMonetaryDonation(m models.MonetaryDonation) *books.MonetaryDonation {
	return &books.MonetaryDonation{
		ID:               m.ID,
		SaleID:           m.SaleID,
		Amount:           m.Amount,
		EarmarkAccountID: m.EarmarkAccountID,
		RewardID:         m.RewardID,
		Ctrlid:           m.Ctrlid,
		Protected:        m.Protected,
	}
}

func ToDomainReceivableInvoiceReference(m models.InvoiceReference) *books.ReceivableInvoiceReference {
	return &books.ReceivableInvoiceReference{
		ID:            m.ID,
		SaleID:        m.OwnerID,
		InvoiceID:     m.InvoiceID,
		InvoiceAmount: m.InvoiceAmount,
		Portion:       m.Portion,
	}
}

func ToDomainPayableInvoiceReference(m models.InvoiceReference) *books.PayableInvoiceReference {
	return &books.PayableInvoiceReference{
		ID:                   m.ID,
		ExpenseTransactionID: m.OwnerID,
		InvoiceID:            m.InvoiceID,
		InvoiceAmount:        m.InvoiceAmount,
		Portion:              m.Portion,
	}
}

// ToDomainReceivableInvoice converts an invoice row without its line items.
func ToDomainReceivableInvoice(m models.Invoice) *books.ReceivableInvoice {
	inv := &books.ReceivableInvoice{}
	inv.ID = m.ID
	inv.UserID = m.UserID
	inv.EntityID = m.EntityID
	inv.InvoiceDate = m.InvoiceDate
	inv.Description = m.Description
	inv.Amount = m.Amount
	return inv
}

// ToDomainPayableInvoice converts an invoice row without its line items.
func ToDomainPayableInvoice(m models.Invoice) *books.PayableInvoice {
	inv := &books.PayableInvoice{}
	inv.ID = m.ID
	inv.UserID = m.UserID
	inv.EntityID = m.EntityID
	inv.InvoiceDate = m.InvoiceDate
	inv.Description = m.Description
	inv.Amount = m.Amount
	return inv
}

func ToDomainReceivableInvoiceLineItem(m models.InvoiceLineItem, accounts AccountLookup) *books.ReceivableInvoiceLineItem {
	li := &books.ReceivableInvoiceLineItem{}
	li.ID = m.ID
	li.InvoiceID = m.InvoiceID
	li.Description = m.Description
	li.Account = accounts(m.AccountID)
	li.Amount = m.Amount
	return li
}

func ToDomainPayableInvoiceLineItem(m models.InvoiceLineItem, accounts AccountLookup) *books.PayableInvoiceLineItem {
	li := &books.PayableInvoiceLineItem{}
	li.ID = m.ID
	li.InvoiceID = m.InvoiceID
	li.Description = m.Description
	li.Account = accounts(m.AccountID)
	li.Amount = m.Amount
	return li
}

// ToDomainExpenseClaim converts a claim row without its line items or references.
func ToDomainExpenseClaim(m models.ExpenseClaim) *books.ExpenseClaim {
	return &books.ExpenseClaim{
		ID:                  m.ID,
		ClaimantID:          m.ClaimantID,
		Amount:              m.Amount,
		Submitted:           m.Submitted,
		Closed:              m.Closed,
		DonateReimbursement: m.DonateReimbursement,
	}
}

func ToDomainExpenseLineItem(m models.ExpenseLineItem, accounts AccountLookup) *books.ExpenseLineItem {
	return &books.ExpenseLineItem{
		ID:                   m.ID,
		ClaimID:              m.ClaimID,
		ExpenseTransactionID: m.ExpenseTransactionID,
		ReceiptNumber:        m.ReceiptNumber,
		ExpenseDate:          m.ExpenseDate,
		Description:          m.Description,
		Amount:               m.Amount,
		Account:              accounts(m.AccountID),
		Approved:             m.Approved,
	}
}

func ToDomainExpenseClaimReference(m models.ExpenseClaimReference) *books.ExpenseClaimReference {
	return &books.ExpenseClaimReference{
		ID:                   m.ID,
		ExpenseTransactionID: m.ExpenseTransactionID,
		ClaimID:              m.ClaimID,
		ClaimAmount:          m.ClaimAmount,
		Portion:              m.Portion,
	}
}

// ToDomainExpenseTransaction converts a transaction row without its details.
func ToDomainExpenseTransaction(m models.ExpenseTransaction) *books.ExpenseTransaction {
	return &books.ExpenseTransaction{
		ID:                m.ID,
		PaymentDate:       m.PaymentDate,
		RecipientUserID:   m.RecipientUserID,
		RecipientEntityID: m.RecipientEntityID,
		RecipientName:     m.RecipientName,
		RecipientEmail:    m.RecipientEmail,
		AmountPaid:        m.AmountPaid,
		PaymentMethod:     books.PaymentMethod(m.PaymentMethod),
		MethodDetail:      m.MethodDetail,
	}
}

func ToDomainDonationReward(m models.DonationReward) *books.MonetaryDonationReward {
	return &books.MonetaryDonationReward{
		ID:           m.ID,
		Name:         m.Name,
		MinDonation:  m.MinDonation,
		CostToOrg:    m.CostToOrg,
		FairMktValue: m.FairMktValue,
		Description:  m.Description,
	}
}

func ToDomainCampaign(m models.Campaign, accounts AccountLookup) *books.Campaign {
	return &books.Campaign{
		ID:           m.ID,
		Name:         m.Name,
		IsActive:     m.IsActive,
		IsPublic:     m.IsPublic,
		TargetAmount: m.TargetAmount,
		Account:      accounts(m.AccountID),
		Description:  m.Description,
	}
}
