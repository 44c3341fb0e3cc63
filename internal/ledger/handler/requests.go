package handler

import (
	"math/big"

	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	dErrors "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain-errors"
)

// Amounts travel as decimal strings so values above 2^53 survive JSON.

// TransferRequest is the HTTP request body for POST /transfers and
// POST /transfers/from.
type TransferRequest struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Data   []byte `json:"data,omitempty"`

	parsedFrom   domain.Address
	parsedTo     domain.Address
	parsedAmount *big.Int
}

func (r *TransferRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if r.From != "" {
		from, err := domain.ParseAddress(r.From)
		if err != nil {
			return err
		}
		r.parsedFrom = from
	}

	to, err := domain.ParseAddress(r.To)
	if err != nil {
		return err
	}
	r.parsedTo = to

	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.parsedAmount = amount
	return nil
}

func (r *TransferRequest) ParsedFrom() domain.Address { return r.parsedFrom }
func (r *TransferRequest) ParsedTo() domain.Address   { return r.parsedTo }
func (r *TransferRequest) ParsedAmount() *big.Int     { return r.parsedAmount }

// RedeemRequest is the HTTP request body for POST /redeem and
// POST /redeem/from.
type RedeemRequest struct {
	From   string `json:"from,omitempty"`
	Amount string `json:"amount"`
	Data   []byte `json:"data,omitempty"`

	parsedFrom   domain.Address
	parsedAmount *big.Int
}

func (r *RedeemRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if r.From != "" {
		from, err := domain.ParseAddress(r.From)
		if err != nil {
			return err
		}
		r.parsedFrom = from
	}

	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.parsedAmount = amount
	return nil
}

func (r *RedeemRequest) ParsedFrom() domain.Address { return r.parsedFrom }
func (r *RedeemRequest) ParsedAmount() *big.Int     { return r.parsedAmount }

// ApproveRequest is the HTTP request body for POST /approvals.
type ApproveRequest struct {
	Spender string `json:"spender"`
	Amount  string `json:"amount"`

	parsedSpender domain.Address
	parsedAmount  *big.Int
}

func (r *ApproveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	spender, err := domain.ParseAddress(r.Spender)
	if err != nil {
		return err
	}
	r.parsedSpender = spender

	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.parsedAmount = amount
	return nil
}

func (r *ApproveRequest) ParsedSpender() domain.Address { return r.parsedSpender }
func (r *ApproveRequest) ParsedAmount() *big.Int        { return r.parsedAmount }

// AmountRequest carries a bare amount, used by supply generation and the
// minimum setters.
type AmountRequest struct {
	Amount string `json:"amount"`

	parsedAmount *big.Int
}

func (r *AmountRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.parsedAmount = amount
	return nil
}

func (r *AmountRequest) ParsedAmount() *big.Int { return r.parsedAmount }

// AddressRequest carries a bare address, used by compensation targeting and
// the admin setters.
type AddressRequest struct {
	Address string `json:"address"`

	parsedAddress domain.Address
}

func (r *AddressRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	addr, err := domain.ParseAddress(r.Address)
	if err != nil {
		return err
	}
	r.parsedAddress = addr
	return nil
}

func (r *AddressRequest) ParsedAddress() domain.Address { return r.parsedAddress }

// ControllerRequest is the HTTP request body for the controller channel.
type ControllerRequest struct {
	From         string `json:"from"`
	To           string `json:"to,omitempty"`
	Amount       string `json:"amount"`
	Data         []byte `json:"data,omitempty"`
	OperatorData []byte `json:"operator_data,omitempty"`

	parsedFrom   domain.Address
	parsedTo     domain.Address
	parsedAmount *big.Int
}

func (r *ControllerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	from, err := domain.ParseAddress(r.From)
	if err != nil {
		return err
	}
	r.parsedFrom = from

	if r.To != "" {
		to, err := domain.ParseAddress(r.To)
		if err != nil {
			return err
		}
		r.parsedTo = to
	}

	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.parsedAmount = amount
	return nil
}

func (r *ControllerRequest) ParsedFrom() domain.Address { return r.parsedFrom }
func (r *ControllerRequest) ParsedTo() domain.Address   { return r.parsedTo }
func (r *ControllerRequest) ParsedAmount() *big.Int     { return r.parsedAmount }
