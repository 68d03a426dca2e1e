package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/calderaops/procurehub-backend/internal/approval"
	"github.com/calderaops/procurehub-backend/internal/billback"
	internalcarts "github.com/calderaops/procurehub-backend/internal/carts"
	"github.com/calderaops/procurehub-backend/internal/identity"
	internalorders "github.com/calderaops/procurehub-backend/internal/orders"
	"github.com/calderaops/procurehub-backend/internal/procurement"
	"github.com/calderaops/procurehub-backend/internal/receiving"
	pkgAuth "github.com/calderaops/procurehub-backend/pkg/auth"
	"github.com/calderaops/procurehub-backend/pkg/auth/session"
	"github.com/calderaops/procurehub-backend/pkg/config"
	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
	"github.com/calderaops/procurehub-backend/pkg/logger"
	"github.com/calderaops/procurehub-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubIdentityService struct{}

func (stubIdentityService) Login(ctx context.Context, req identity.LoginRequest) (*identity.LoginResponse, error) {
	return &identity.LoginResponse{}, nil
}

type stubCartsService struct{}

func (stubCartsService) Create(ctx context.Context, input internalcarts.CreateCartInput) (*models.Cart, error) {
	return &models.Cart{}, nil
}

func (stubCartsService) Get(ctx context.Context, cartID uuid.UUID) (*internalcarts.CartDetail, error) {
	panic("unimplemented")
}

func (stubCartsService) List(ctx context.Context, companyID uuid.UUID, params pagination.Params, filters internalcarts.CartFilters) (*internalcarts.CartList, error) {
	return &internalcarts.CartList{}, nil
}

func (stubCartsService) AddItem(ctx context.Context, cartID uuid.UUID, input internalcarts.ItemInput) (*models.CartItem, error) {
	panic("unimplemented")
}

func (stubCartsService) UpdateItem(ctx context.Context, input internalcarts.UpdateItemInput) error {
	panic("unimplemented")
}

func (stubCartsService) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	panic("unimplemented")
}

func (stubCartsService) UpdateStatus(ctx context.Context, cartID uuid.UUID, next enums.CartStatus) error {
	panic("unimplemented")
}

func (stubCartsService) Submit(ctx context.Context, input internalcarts.SubmitInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubCartsService) Delete(ctx context.Context, input internalcarts.DeleteInput) error {
	return nil
}

type stubOrdersService struct{}

func (stubOrdersService) Get(ctx context.Context, orderID uuid.UUID) (*internalorders.OrderDetail, error) {
	panic("unimplemented")
}

func (stubOrdersService) List(ctx context.Context, companyID uuid.UUID, params pagination.Params, filters internalorders.OrderFilters) (*internalorders.OrderList, error) {
	return &internalorders.OrderList{}, nil
}

type stubApprovalService struct {
	commits int
}

func (s *stubApprovalService) Commit(ctx context.Context, input approval.CommitInput) (*approval.CommitResult, error) {
	s.commits++
	return &approval.CommitResult{OrderID: input.OrderID}, nil
}

func (s *stubApprovalService) ApproveAll(ctx context.Context, input approval.BulkDecisionInput) (*approval.CommitResult, error) {
	return &approval.CommitResult{OrderID: input.OrderID}, nil
}

func (s *stubApprovalService) RejectAll(ctx context.Context, input approval.BulkDecisionInput) (*approval.CommitResult, error) {
	return &approval.CommitResult{OrderID: input.OrderID}, nil
}

type stubProcurementService struct{}

func (stubProcurementService) Procure(ctx context.Context, input procurement.ProcureInput) (*models.PurchaseOrder, error) {
	return &models.PurchaseOrder{}, nil
}

type stubReceivingService struct{}

func (stubReceivingService) Advance(ctx context.Context, input receiving.AdvanceInput) (*receiving.AdvanceResult, error) {
	return &receiving.AdvanceResult{}, nil
}

func (stubReceivingService) RecordPayment(ctx context.Context, input receiving.PaymentInput) error {
	return nil
}

type stubBillbackService struct{}

func (stubBillbackService) CreateFromPurchaseOrder(ctx context.Context, input billback.CreateInput) (*billback.CreateResult, error) {
	return &billback.CreateResult{}, nil
}

func (stubBillbackService) SyncMissing(ctx context.Context, companyID uuid.UUID) (*billback.SyncResult, error) {
	return &billback.SyncResult{CompanyID: companyID}, nil
}

func (stubBillbackService) ResetPendingMarkups(ctx context.Context, companyID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubBillbackService) List(ctx context.Context, companyID uuid.UUID, params pagination.Params, filters billback.ListFilters) (*billback.BillableList, error) {
	return &billback.BillableList{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config, approvals *stubApprovalService) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		nil, // redis client
		stubSessionManager{},
		stubIdentityService{},
		stubCartsService{},
		stubOrdersService{},
		approvals,
		stubProcurementService{},
		stubReceivingService{},
		stubBillbackService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.MemberRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:    uuid.New(),
		CompanyID: uuid.New(),
		Role:      role,
		JTI:       session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), &stubApprovalService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), &stubApprovalService{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestOrderListSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &stubApprovalService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleRequester))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for order list got %d", resp.Code)
	}
}

func TestApprovalCommitRequiresApproverRole(t *testing.T) {
	cfg := testConfig()
	approvals := &stubApprovalService{}
	router := newTestRouter(cfg, approvals)
	body := `{"decisions":[{"item_id":"` + uuid.NewString() + `","status":"approved"}]}`
	target := "/api/v1/orders/" + uuid.NewString() + "/approvals/commit"

	requester := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	requester.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleRequester))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, requester)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for requester commit got %d", resp.Code)
	}
	if approvals.commits != 0 {
		t.Fatalf("commit should not reach service for requester")
	}

	approver := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	approver.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleApprover))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, approver)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for approver commit got %d: %s", resp.Code, resp.Body.String())
	}
	if approvals.commits != 1 {
		t.Fatalf("expected one commit, got %d", approvals.commits)
	}
}

func TestProcurementRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &stubApprovalService{})
	body := `{"vendor_id":"` + uuid.NewString() + `","item_ids":["` + uuid.NewString() + `"]}`
	target := "/api/v1/orders/" + uuid.NewString() + "/purchase-orders"

	approver := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	approver.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleApprover))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, approver)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for approver procurement got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin procurement got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestBillablesSyncScopedToCompanyFromToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &stubApprovalService{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billables/sync", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for billables sync got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data billback.SyncResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.CompanyID == uuid.Nil {
		t.Fatalf("expected company id propagated from token")
	}
}
