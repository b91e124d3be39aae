package multisig

import (
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/exp/slices"

	"github.com/arnac-io/ordercheck/pkg/core"
)

type fieldCheck struct {
	name  string
	equal func(storage *core.OrderObservation, getMethod *core.GetMethodObservation) bool
}

var crossCheckFields = []fieldCheck{
	{"multisigAddress", func(s *core.OrderObservation, g *core.GetMethodObservation) bool {
		return s.MultisigAddress == g.MultisigAddress
	}},
	{"orderSeqno", func(s *core.OrderObservation, g *core.GetMethodObservation) bool {
		return s.OrderSeqno.Cmp(g.OrderSeqno) == 0
	}},
	{"threshold", func(s *core.OrderObservation, g *core.GetMethodObservation) bool {
		return s.Threshold == g.Threshold
	}},
	{"isExecuted", func(s *core.OrderObservation, g *core.GetMethodObservation) bool {
		return s.IsExecuted == g.IsExecuted
	}},
	{"signers", func(s *core.OrderObservation, g *core.GetMethodObservation) bool {
		return slices.Equal(s.Signers, g.Signers)
	}},
	{"approvalsMask", func(s *core.OrderObservation, g *core.GetMethodObservation) bool {
		return s.ApprovalsMask.Cmp(g.ApprovalsMask) == 0
	}},
	{"approvalsNum", func(s *core.OrderObservation, g *core.GetMethodObservation) bool {
		return s.ApprovalsNum == g.ApprovalsNum
	}},
	{"expirationDate", func(s *core.OrderObservation, g *core.GetMethodObservation) bool {
		return s.ExpirationDate == g.ExpirationDate
	}},
	{"order", func(s *core.OrderObservation, g *core.GetMethodObservation) bool {
		a, err := cellHash(s.Order)
		if err != nil {
			return false
		}
		b, err := cellHash(g.Order)
		return err == nil && a == b
	}},
}

// CrossSourceError lists every field on which storage and get-method disagree.
type CrossSourceError struct {
	Fields []string
	err    error
}

func (e *CrossSourceError) Error() string {
	return fmt.Sprintf("%v: %v", core.ErrCrossSourceMismatch, e.err)
}

func (e *CrossSourceError) Unwrap() error {
	return core.ErrCrossSourceMismatch
}

func crossCheck(storage *core.OrderObservation, getMethod *core.GetMethodObservation) error {
	var errs error
	var fields []string
	for _, f := range crossCheckFields {
		if !f.equal(storage, getMethod) {
			fields = append(fields, f.name)
			errs = multierr.Append(errs, fmt.Errorf("invalid %s", f.name))
		}
	}
	if errs == nil {
		return nil
	}
	return &CrossSourceError{Fields: fields, err: errs}
}
