package services

import (
	"context"

	"github.com/upstats/earnings-backend/internal/client/upwork"
	"github.com/upstats/earnings-backend/internal/dto"
	"github.com/upstats/earnings-backend/internal/errs"
)

const companySelectorQuery = `query {
  companySelector {
    items {
      title
      organizationId
    }
  }
}`

type TenantService struct {
	api APIFactory
}

func NewTenantService(api APIFactory) *TenantService {
	return &TenantService{api: api}
}

// ListCompanies returns the accounting entities the token can act
// under, in the order the marketplace reports them.
func (s *TenantService) ListCompanies(ctx context.Context, accessToken string) ([]dto.Company, error) {
	client := s.api.WithToken(accessToken, "")
	payload, err := client.Execute(ctx, companySelectorQuery, nil)
	if err != nil {
		return nil, err
	}
	if upworkclient.LooksLikeError(payload) {
		return nil, errs.NewUpstreamError("companySelector query failed")
	}

	items := rowList(dig(payload, "data", "companySelector", "items"))
	companies := make([]dto.Company, 0, len(items))
	for _, item := range items {
		id := asString(item["organizationId"])
		if id == "" {
			continue
		}
		companies = append(companies, dto.Company{ID: id, Name: asString(item["title"])})
	}
	return companies, nil
}
