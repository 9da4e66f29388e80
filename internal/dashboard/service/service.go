package service

import (
	"context"

	"github.com/formsink/formsink/internal/dashboard/domain"
	sdomain "github.com/formsink/formsink/internal/submissions/domain"
	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

// Ensure service implements domain.Service
var _ domain.Service = (*service)(nil)

type service struct {
	repos sdomain.RepositoryProvider
}

func New(repos sdomain.RepositoryProvider) domain.Service {
	return &service{repos: repos}
}

func (s *service) List(ctx context.Context, cfg *tdomain.TenantConfig, page int, form string) (domain.Page, error) {
	if page < 1 {
		page = 1
	}

	repo, err := s.repos.For(ctx, cfg)
	if err != nil {
		return domain.Page{}, err
	}

	names, err := repo.ListFormNames(ctx)
	if err != nil {
		return domain.Page{}, err
	}
	total, err := repo.CountSubmissions(ctx, form)
	if err != nil {
		return domain.Page{}, err
	}
	offset := (page - 1) * domain.PageSize
	items, err := repo.GetSubmissions(ctx, domain.PageSize, offset, form)
	if err != nil {
		return domain.Page{}, err
	}

	totalPages := int(total) / domain.PageSize
	if int(total)%domain.PageSize != 0 {
		totalPages++
	}
	return domain.Page{
		Items:      items,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		FormNames:  names,
		Form:       form,
	}, nil
}

func (s *service) Get(ctx context.Context, cfg *tdomain.TenantConfig, id int64) (*sdomain.Submission, bool, error) {
	repo, err := s.repos.For(ctx, cfg)
	if err != nil {
		return nil, false, err
	}
	return repo.GetSubmission(ctx, id)
}
