package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"credtrust/internal/credential/models"
	id "credtrust/pkg/domain"
	dErrors "credtrust/pkg/domain-errors"
)

// verifyConcurrency bounds parallel calls against the trust network.
const verifyConcurrency = 4

// PortfolioCheck is the advisory verification result for one credential.
type PortfolioCheck struct {
	CredentialID id.CredentialID `json:"credential_id"`
	Title        string          `json:"title"`
	HasPayload   bool            `json:"has_payload"`
	Verified     bool            `json:"verified"`
}

// VerifyPortfolio re-checks every signed credential a candidate holds against
// the trust network. Verification is advisory: a failed check reports false
// and mutates nothing. Credentials without a payload are reported unchecked.
func (s *Service) VerifyPortfolio(ctx context.Context, principal id.Principal, candidateID id.CandidateID) ([]PortfolioCheck, error) {
	credentials, err := s.List(ctx, principal, candidateID, &models.ListFilter{Limit: maxListLimit})
	if err != nil {
		return nil, err
	}

	checks := make([]PortfolioCheck, len(credentials))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(verifyConcurrency)
	for i, credential := range credentials {
		g.Go(func() error {
			check := PortfolioCheck{
				CredentialID: credential.ID,
				Title:        credential.Title,
				HasPayload:   credential.HasPayload(),
			}
			if check.HasPayload {
				check.Verified = s.gateway.VerifyCredential(gctx, credential.VCPayload)
				s.countVerification(check.Verified)
			}
			mu.Lock()
			checks[i] = check
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "portfolio verification failed")
	}
	return checks, nil
}

func (s *Service) countVerification(verified bool) {
	if s.metrics == nil {
		return
	}
	result := "failed"
	if verified {
		result = "verified"
	}
	s.metrics.VerificationCalls.WithLabelValues(result).Inc()
}
