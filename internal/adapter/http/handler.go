package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/velora/studioops/internal/app"
	"github.com/velora/studioops/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// ActorMiddleware lifts the authenticated caller from request headers into
// the context. Authentication itself happens upstream; these headers are
// trusted the way a reverse proxy's identity headers are.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := app.Actor{
			ID:   r.Header.Get("X-Actor-ID"),
			Role: r.Header.Get("X-Actor-Role"),
			IP:   r.RemoteAddr,
		}
		next.ServeHTTP(w, r.WithContext(app.WithActor(r.Context(), actor)))
	})
}

// TenantResponse is the API representation of a tenant.
type TenantResponse struct {
	ID                    string `json:"id" doc:"Unique identifier"`
	Name                  string `json:"name" doc:"Display name"`
	Slug                  string `json:"slug" doc:"URL-friendly identifier"`
	Status                string `json:"status" doc:"Lifecycle state"`
	Tier                  string `json:"tier" doc:"Subscription tier"`
	StudentAccessDisabled bool   `json:"student_access_disabled" doc:"Whether student-facing access is switched off"`
	ArchivedAt            string `json:"archived_at,omitempty" doc:"Archival timestamp (ISO 8601), empty unless archived"`
	CreatedAt             string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt             string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toTenantResponse(t domain.Tenant) TenantResponse {
	resp := TenantResponse{
		ID:                    t.ID,
		Name:                  t.Name,
		Slug:                  t.Slug,
		Status:                string(t.Status),
		Tier:                  string(t.Tier),
		StudentAccessDisabled: t.StudentAccessDisabled,
		CreatedAt:             t.CreatedAt.Format(timeFormat),
		UpdatedAt:             t.UpdatedAt.Format(timeFormat),
	}
	if t.ArchivedAt != nil {
		resp.ArchivedAt = t.ArchivedAt.Format(timeFormat)
	}
	return resp
}

// --- Create Tenant ---

type CreateTenantInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Slug string `json:"slug" minLength:"1" maxLength:"100" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$" doc:"URL-friendly identifier (lowercase, hyphens)"`
		Tier string `json:"tier,omitempty" default:"launch" doc:"Subscription tier"`
	}
}

type CreateTenantOutput struct {
	Body TenantResponse
}

// --- Get Tenant ---

type GetTenantInput struct {
	ID string `path:"id" doc:"Tenant ID"`
}

type GetTenantOutput struct {
	Body TenantResponse
}

// --- List Tenants ---

type ListTenantsInput struct {
	Status string `query:"status" required:"false" doc:"Filter by status"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListTenantsOutput struct {
	Body []TenantResponse
}

// --- Set Status ---

type SetStatusInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		Status string `json:"status" doc:"Desired lifecycle status" enum:"active,paused,suspended,archived"`
	}
}

type SetStatusOutput struct {
	Body TenantResponse
}

// --- Set Tier ---

type SetTierInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		Tier string `json:"tier" doc:"Subscription tier" enum:"launch,growth,scale"`
	}
}

type SetTierOutput struct {
	Body TenantResponse
}

// --- Patch Quotas ---

type PatchQuotasInput struct {
	ID   string           `path:"id" doc:"Tenant ID"`
	Body map[string]int64 `doc:"Quota keys to set; unknown keys reject the whole patch"`
}

type PatchQuotasOutput struct {
	Body map[string]int64
}

// --- Archive / Restore ---

type ArchiveTenantInput struct {
	ID string `path:"id" doc:"Tenant ID"`
}

type ArchiveTenantOutput struct {
	Body TenantResponse
}

// --- Delete ---

type DeleteTenantInput struct {
	ID string `path:"id" doc:"Tenant ID"`
}

type DeleteTenantOutput struct {
	Body struct {
		Success bool `json:"success" doc:"Whether the tenant and everything it owned were removed"`
	}
}

// --- Export ---

type ExportTenantInput struct {
	ID string `path:"id" doc:"Tenant ID"`
}

type ExportMemberResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type ExportClassResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Bookings int64  `json:"bookings"`
}

type ExportResponse struct {
	Tenant  TenantResponse         `json:"tenant"`
	Quotas  map[string]int64       `json:"quotas"`
	Members []ExportMemberResponse `json:"members"`
	Classes []ExportClassResponse  `json:"classes"`
	Counts  map[string]int64       `json:"counts"`
}

type ExportTenantOutput struct {
	Body ExportResponse
}

func toExportResponse(s domain.ExportSnapshot) ExportResponse {
	resp := ExportResponse{
		Tenant:  toTenantResponse(s.Tenant),
		Quotas:  s.Quotas,
		Members: make([]ExportMemberResponse, len(s.Members)),
		Classes: make([]ExportClassResponse, len(s.Classes)),
		Counts:  s.Counts,
	}
	for i, m := range s.Members {
		resp.Members[i] = ExportMemberResponse(m)
	}
	for i, c := range s.Classes {
		resp.Classes[i] = ExportClassResponse(c)
	}
	return resp
}

// Register adds all tenant API routes to the Huma API.
func Register(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "create-tenant",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants",
		Summary:     "Create a new tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *CreateTenantInput) (*CreateTenantOutput, error) {
		tenant, err := svc.Create(ctx, input.Body.Name, input.Body.Slug, domain.Tier(input.Body.Tier))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateTenantOutput{Body: toTenantResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenant",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}",
		Summary:     "Get a tenant by ID",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *GetTenantInput) (*GetTenantOutput, error) {
		tenant, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetTenantOutput{Body: toTenantResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants",
		Summary:     "List tenants",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ListTenantsInput) (*ListTenantsOutput, error) {
		filter := domain.ListFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		tenants, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]TenantResponse, len(tenants))
		for i, t := range tenants {
			resp[i] = toTenantResponse(t)
		}
		return &ListTenantsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-tenant-status",
		Method:      http.MethodPut,
		Path:        "/api/v1/tenants/{id}/status",
		Summary:     "Set the lifecycle status",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *SetStatusInput) (*SetStatusOutput, error) {
		tenant, err := svc.SetStatus(ctx, input.ID, domain.Status(input.Body.Status))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SetStatusOutput{Body: toTenantResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-tenant-tier",
		Method:      http.MethodPut,
		Path:        "/api/v1/tenants/{id}/tier",
		Summary:     "Change the subscription tier",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *SetTierInput) (*SetTierOutput, error) {
		tenant, err := svc.SetTier(ctx, input.ID, domain.Tier(input.Body.Tier))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SetTierOutput{Body: toTenantResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "patch-tenant-quotas",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tenants/{id}/quotas",
		Summary:     "Patch quota settings",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *PatchQuotasInput) (*PatchQuotasOutput, error) {
		quotas, err := svc.PatchQuotas(ctx, input.ID, input.Body)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PatchQuotasOutput{Body: quotas}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "archive-tenant",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/archive",
		Summary:     "Archive a tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ArchiveTenantInput) (*ArchiveTenantOutput, error) {
		tenant, err := svc.Archive(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ArchiveTenantOutput{Body: toTenantResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "restore-tenant",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/restore",
		Summary:     "Restore an archived tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ArchiveTenantInput) (*ArchiveTenantOutput, error) {
		tenant, err := svc.Restore(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ArchiveTenantOutput{Body: toTenantResponse(tenant)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-tenant",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tenants/{id}",
		Summary:     "Irreversibly delete a tenant and everything it owns",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *DeleteTenantInput) (*DeleteTenantOutput, error) {
		if err := svc.Delete(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		out := &DeleteTenantOutput{}
		out.Body.Success = true
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "export-tenant",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}/export",
		Summary:     "Export a tenant's core records",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ExportTenantInput) (*ExportTenantOutput, error) {
		snapshot, err := svc.Export(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ExportTenantOutput{Body: toExportResponse(snapshot)}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrNotOperator) {
		return huma.Error403Forbidden("platform operator role required")
	}
	if errors.Is(err, domain.ErrTenantNotFound) {
		return huma.Error404NotFound("tenant not found")
	}

	var slugErr *domain.SlugConflictError
	if errors.As(err, &slugErr) {
		return huma.Error409Conflict(slugErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}
	var tierErr *domain.TierError
	if errors.As(err, &tierErr) {
		return huma.Error422UnprocessableEntity(tierErr.Error())
	}
	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) {
		return huma.Error422UnprocessableEntity(statusErr.Error())
	}
	var quotaErr *domain.QuotaKeyError
	if errors.As(err, &quotaErr) {
		return huma.Error422UnprocessableEntity(quotaErr.Error())
	}

	// A partial deletion left the tenant needing operator attention, so
	// the cause goes back to the caller instead of a generic message.
	var partialErr *domain.PartialDeletionError
	if errors.As(err, &partialErr) {
		return huma.Error500InternalServerError(partialErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
