package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// ProvisionAccountMessage carries the input for a full account provisioning
// run: local credential record plus the remote profile write.
type ProvisionAccountMessage struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	Password  string `json:"password"`
	UseHashid bool
}

func (e ProvisionAccountMessage) Type() string { return "account.provision" }

// ProvisionAccountHandler runs the provisioning saga. The local insert is
// the pivot: once it commits, a failed remote profile write triggers a
// compensating delete of the local record. A failed compensation is handed
// to the reconciler, never retried inline.
type ProvisionAccountHandler struct {
	repo          RepositoryManager
	profiles      ProfileCreator
	reconciler    ReconciliationSink
	remoteTimeout time.Duration
	logger        Logger
}

type ProvisionAccountOption func(*ProvisionAccountHandler)

// NewProvisionAccountHandler wires the saga over the local store and the
// remote profile service
func NewProvisionAccountHandler(repo RepositoryManager, profiles ProfileCreator, opts ...ProvisionAccountOption) *ProvisionAccountHandler {
	h := &ProvisionAccountHandler{
		repo:          repo,
		profiles:      profiles,
		remoteTimeout: time.Second * 10,
		logger:        defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h
}

// WithProvisionLogger overrides the handler logger
func WithProvisionLogger(logger Logger) ProvisionAccountOption {
	return func(h *ProvisionAccountHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithProvisionReconciler registers the sink for accounts whose
// compensating delete failed
func WithProvisionReconciler(sink ReconciliationSink) ProvisionAccountOption {
	return func(h *ProvisionAccountHandler) {
		h.reconciler = sink
	}
}

// WithProvisionRemoteTimeout bounds the remote profile call
func WithProvisionRemoteTimeout(timeout time.Duration) ProvisionAccountOption {
	return func(h *ProvisionAccountHandler) {
		if timeout > 0 {
			h.remoteTimeout = timeout
		}
	}
}

func (h *ProvisionAccountHandler) Execute(ctx context.Context, event ProvisionAccountMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account provisioning",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ProvisionAccountHandler) execute(ctx context.Context, event ProvisionAccountMessage) (*Account, error) {
	taken, err := h.repo.Accounts().ExistsByEmail(ctx, event.Email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "email uniqueness check failed")
	}

	if taken {
		return nil, ErrEmailTaken
	}

	account, err := h.createLocal(ctx, event)
	if err != nil {
		return nil, err
	}

	if err := h.createRemote(ctx, account); err != nil {
		h.compensate(ctx, account, err)
		return nil, goerrors.Wrap(err, ErrProvisioningFailed.Category, ErrProvisioningFailed.Message).
			WithTextCode(ErrProvisioningFailed.TextCode)
	}

	return account, nil
}

func (h *ProvisionAccountHandler) createLocal(ctx context.Context, event ProvisionAccountMessage) (*Account, error) {
	role, ok := ParseRole(event.Role)
	if !ok {
		return nil, goerrors.New("unknown role: "+event.Role, goerrors.CategoryBadInput)
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	account := &Account{
		Name:         event.Name,
		Email:        event.Email,
		Phone:        event.Phone,
		Role:         role,
		PasswordHash: hash,
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(event.Email); err == nil {
			account.ID = id
		}
	}

	if account, err = h.repo.Accounts().Create(ctx, account); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
	}

	return account, nil
}

// createRemote runs the profile write under its own deadline, detached from
// the caller's cancellation. Once the local insert committed we need a
// definite outcome for the remote call, not a cancellation mid-flight.
func (h *ProvisionAccountHandler) createRemote(ctx context.Context, account *Account) error {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.remoteTimeout)
	defer cancel()

	return h.profiles.CreateProfile(rctx, CreateProfileRequest{
		AccountID: account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Role:      account.Role,
		Phone:     account.Phone,
	})
}

func (h *ProvisionAccountHandler) compensate(ctx context.Context, account *Account, cause error) {
	h.logger.Warn("profile write failed, rolling back account %s: %v", account.ID, cause)

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.remoteTimeout)
	defer cancel()

	if err := h.repo.Accounts().DeleteByID(dctx, account.ID); err != nil {
		h.logger.Error("compensating delete failed for account %s: %v", account.ID, err)
		if h.reconciler != nil {
			h.reconciler.RecordOrphan(dctx, account, err)
		}
	}
}
