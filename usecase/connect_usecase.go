package usecase

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"foodcollab/domain/model"
	"foodcollab/domain/repository"
	"foodcollab/infrastructure/logger"
)

// ErrNotConfigured is returned when the OAuth client id is missing; the
// connect flow must not start without it.
var ErrNotConfigured = errors.New("instagram oauth not configured")

const (
	ReasonAccessDenied        = "access_denied"
	ReasonMissingParams       = "missing_params"
	ReasonInvalidState        = "invalid_state"
	ReasonTokenExchangeFailed = "token_exchange_failed"
	ReasonAccountFetchFailed  = "account_fetch_failed"
	ReasonNoLinkedAccount     = "no_linked_account"
	ReasonProfileUpdateFailed = "profile_update_failed"
)

type ConnectConfig struct {
	ClientID            string
	ClientSecret        string
	RedirectURI         string
	Scopes              []string
	DefaultRedirectPath string
	// TokenExpiryWindow is the safety margin before the declared expiry at
	// which a stored token is already treated as invalid.
	TokenExpiryWindow time.Duration
}

type CallbackParams struct {
	Code        string
	State       string
	Error       string
	ErrorReason string
}

// CallbackResult tells the handler where to send the browser. The callback
// always ends in a redirect, success or not.
type CallbackResult struct {
	RedirectPath string
	Success      bool
	Reason       string
}

type IConnectUsecase interface {
	AuthURL(ctx context.Context, userID, redirectPath string) (string, error)
	HandleCallback(ctx context.Context, params CallbackParams) CallbackResult
	Status(ctx context.Context, userID string) (*model.InstagramConnection, error)
	Disconnect(ctx context.Context, userID string) error
}

type connectUsecase struct {
	conf        ConnectConfig
	oauth       *oauth2.Config
	stateRepo   repository.IOAuthState
	profileRepo repository.IProfile
	ig          repository.IInstagram
}

func NewConnectUsecase(conf ConnectConfig, stateRepo repository.IOAuthState, profileRepo repository.IProfile, ig repository.IInstagram) IConnectUsecase {
	if conf.DefaultRedirectPath == "" {
		conf.DefaultRedirectPath = "/influencer"
	}
	if conf.TokenExpiryWindow == 0 {
		conf.TokenExpiryWindow = 24 * time.Hour
	}
	return &connectUsecase{
		conf: conf,
		oauth: &oauth2.Config{
			ClientID:     conf.ClientID,
			ClientSecret: conf.ClientSecret,
			RedirectURL:  conf.RedirectURI,
			Scopes:       conf.Scopes,
			Endpoint:     facebook.Endpoint,
		},
		stateRepo:   stateRepo,
		profileRepo: profileRepo,
		ig:          ig,
	}
}

// AuthURL mints a state token and builds the provider authorization URL.
// The state insert must succeed before any redirect is handed out.
func (u *connectUsecase) AuthURL(ctx context.Context, userID, redirectPath string) (string, error) {
	if u.conf.ClientID == "" {
		return "", ErrNotConfigured
	}
	if redirectPath == "" {
		redirectPath = u.conf.DefaultRedirectPath
	}
	state, err := u.stateRepo.Issue(ctx, userID, redirectPath)
	if err != nil {
		return "", err
	}
	return u.oauth.AuthCodeURL(state), nil
}

// HandleCallback runs the callback state machine. Any step's failure
// short-circuits to a failure redirect; the state consume is the only
// mutation before the final profile upsert.
func (u *connectUsecase) HandleCallback(ctx context.Context, params CallbackParams) CallbackResult {
	lg := logger.GetLogger()
	redirect := u.conf.DefaultRedirectPath

	if params.Error != "" {
		reason := params.Error
		if params.ErrorReason != "" {
			reason = params.ErrorReason
		}
		lg.WithField("error", params.Error).WithField("reason", params.ErrorReason).Warn("provider denied the authorization")
		return CallbackResult{RedirectPath: redirect, Reason: reason}
	}
	if params.Code == "" || params.State == "" {
		return CallbackResult{RedirectPath: redirect, Reason: ReasonMissingParams}
	}

	st, err := u.stateRepo.Consume(ctx, params.State)
	if err != nil {
		if !errors.Is(err, repository.ErrStateNotFound) {
			lg.WithField("error", err).Error("state consume failed")
		}
		return CallbackResult{RedirectPath: redirect, Reason: ReasonInvalidState}
	}
	if st.RedirectPath != "" {
		redirect = st.RedirectPath
	}

	tok, err := u.oauth.Exchange(ctx, params.Code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			lg.WithField("status", rerr.Response.StatusCode).WithField("body", string(rerr.Body)).Error("token exchange failed")
		} else {
			lg.WithField("error", err).Error("token exchange request error")
		}
		return CallbackResult{RedirectPath: redirect, Reason: ReasonTokenExchangeFailed}
	}

	longToken, expiresIn, err := u.ig.ExchangeLongLivedToken(ctx, tok.AccessToken)
	if err != nil {
		lg.WithField("error", err).Error("long-lived token exchange failed")
		return CallbackResult{RedirectPath: redirect, Reason: ReasonTokenExchangeFailed}
	}

	acct, err := u.ig.GetLinkedBusinessAccount(ctx, longToken)
	if err != nil {
		lg.WithField("error", err).Error("linked account fetch failed")
		return CallbackResult{RedirectPath: redirect, Reason: ReasonAccountFetchFailed}
	}
	if acct == nil {
		return CallbackResult{RedirectPath: redirect, Reason: ReasonNoLinkedAccount}
	}

	if expiresIn <= 0 {
		expiresIn = int64((60 * 24 * time.Hour).Seconds())
	}
	expiresAt := time.Now().UTC().Add(time.Duration(expiresIn) * time.Second)
	conn := &model.InstagramConnection{
		Connected:      true,
		BusinessID:     acct.BusinessID,
		Username:       acct.Username,
		AccessToken:    longToken,
		TokenExpiresAt: &expiresAt,
		AccountType:    acct.AccountType,
	}
	if err := u.profileRepo.UpsertInstagramConnection(ctx, st.UserID, conn); err != nil {
		lg.WithField("error", err).WithField("user_id", st.UserID).Error("profile update failed")
		return CallbackResult{RedirectPath: redirect, Reason: ReasonProfileUpdateFailed}
	}

	return CallbackResult{RedirectPath: redirect, Success: true}
}

// Status treats a connection whose token expires inside the safety window as
// already disconnected.
func (u *connectUsecase) Status(ctx context.Context, userID string) (*model.InstagramConnection, error) {
	conn, err := u.profileRepo.GetInstagramConnection(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.InstagramConnection{}, nil
	}
	if err != nil {
		return nil, err
	}
	if conn.Connected {
		if conn.AccessToken == "" {
			conn.Connected = false
		} else if conn.TokenExpiresAt != nil && time.Now().UTC().After(conn.TokenExpiresAt.Add(-u.conf.TokenExpiryWindow)) {
			conn.Connected = false
		}
	}
	return conn, nil
}

func (u *connectUsecase) Disconnect(ctx context.Context, userID string) error {
	return u.profileRepo.ClearInstagramConnection(ctx, userID)
}
