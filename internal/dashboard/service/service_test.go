package service

import (
	"context"
	"testing"

	"github.com/formsink/formsink/internal/dashboard/domain"
	sdomain "github.com/formsink/formsink/internal/submissions/domain"
	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

type fakeRepo struct {
	total      int64
	names      []string
	gotLimit   int
	gotOffset  int
	gotForm    string
	submission *sdomain.Submission
}

func (f *fakeRepo) SaveSubmission(ctx context.Context, fields *sdomain.FormData, formName string) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) GetSubmissions(ctx context.Context, limit, offset int, formName string) ([]sdomain.Submission, error) {
	f.gotLimit = limit
	f.gotOffset = offset
	f.gotForm = formName
	return []sdomain.Submission{{ID: 1}}, nil
}

func (f *fakeRepo) GetSubmission(ctx context.Context, id int64) (*sdomain.Submission, bool, error) {
	if f.submission != nil && f.submission.ID == id {
		return f.submission, true, nil
	}
	return nil, false, nil
}

func (f *fakeRepo) CountSubmissions(ctx context.Context, formName string) (int64, error) {
	return f.total, nil
}

func (f *fakeRepo) ListFormNames(ctx context.Context) ([]string, error) {
	return f.names, nil
}

type fakeProvider struct{ repo *fakeRepo }

func (f *fakeProvider) For(ctx context.Context, cfg *tdomain.TenantConfig) (sdomain.Repository, error) {
	return f.repo, nil
}

func TestList_Pagination(t *testing.T) {
	cases := []struct {
		name           string
		page           int
		total          int64
		wantPage       int
		wantOffset     int
		wantTotalPages int
	}{
		{"zero page clamps to first", 0, 5, 1, 0, 1},
		{"exact multiple", 1, 40, 1, 0, 2},
		{"partial last page", 3, 41, 3, 40, 3},
		{"empty result", 1, 0, 1, 0, 0},
	}

	for _, tc := range cases {
		repo := &fakeRepo{total: tc.total, names: []string{"contact", "default"}}
		svc := New(&fakeProvider{repo: repo})

		page, err := svc.List(context.Background(), &tdomain.TenantConfig{}, tc.page, "contact")
		if err != nil {
			t.Fatalf("%s: List: %v", tc.name, err)
		}
		if page.Page != tc.wantPage {
			t.Errorf("%s: page = %d, want %d", tc.name, page.Page, tc.wantPage)
		}
		if repo.gotOffset != tc.wantOffset {
			t.Errorf("%s: offset = %d, want %d", tc.name, repo.gotOffset, tc.wantOffset)
		}
		if repo.gotLimit != domain.PageSize {
			t.Errorf("%s: limit = %d, want %d", tc.name, repo.gotLimit, domain.PageSize)
		}
		if page.TotalPages != tc.wantTotalPages {
			t.Errorf("%s: totalPages = %d, want %d", tc.name, page.TotalPages, tc.wantTotalPages)
		}
		if repo.gotForm != "contact" {
			t.Errorf("%s: form filter = %q", tc.name, repo.gotForm)
		}
		if len(page.FormNames) != 2 {
			t.Errorf("%s: form names = %v", tc.name, page.FormNames)
		}
	}
}

func TestGet(t *testing.T) {
	repo := &fakeRepo{submission: &sdomain.Submission{ID: 9, FormName: "contact"}}
	svc := New(&fakeProvider{repo: repo})

	sub, found, err := svc.Get(context.Background(), &tdomain.TenantConfig{}, 9)
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if sub.FormName != "contact" {
		t.Fatalf("unexpected submission %+v", sub)
	}

	if _, found, _ := svc.Get(context.Background(), &tdomain.TenantConfig{}, 404); found {
		t.Fatalf("expected miss for unknown id")
	}
}
