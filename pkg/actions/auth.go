package actions

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dwellio/go-formstate/pkg/actionstate"
	"github.com/dwellio/go-formstate/pkg/formerrors"
	"github.com/dwellio/go-formstate/pkg/listing"
)

// Credential flow messages.
const (
	MsgEmailTaken       = "Email is already registered"
	MsgEmailMismatch    = "Email does not match your account"
	MsgNoAccount        = "No account found for that email"
	MsgAlreadyLinked    = "Credentials are already linked to your account"
	MsgCredentialsAdded = "Email and password sign-in enabled"
)

// errAlreadyLinked aborts a credentials link that lost a race to another.
var errAlreadyLinked = errors.New("actions: credentials already linked")

// credentialsEcho is the formData returned by credential flows. The password
// is never echoed back.
type credentialsEcho struct {
	Email string `json:"email"`
}

// SignUp creates a credentials account. On success the state carries the
// new userId, the email and shouldAutoLogin so the client can sign straight in.
func (s *Service) SignUp(ctx context.Context, in listing.CredentialsInput) actionstate.State {
	in.Email = strings.TrimSpace(in.Email)
	echo := credentialsEcho{Email: in.Email}

	issues, err := s.validator.Validate(in)
	if err != nil {
		return s.storeFailure("sign up", err)
	}
	if len(issues) > 0 {
		return s.invalid(issues, echo)
	}

	if _, err := s.store.UserByEmail(ctx, in.Email); err == nil {
		return s.invalid([]formerrors.Issue{formerrors.NewIssue(MsgEmailTaken, "email")}, echo)
	} else if !errors.Is(err, ErrNotFound) {
		return s.storeFailure("load user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return s.storeFailure("hash password", err)
	}
	user, err := s.store.CreateUser(ctx, listing.User{
		Email:        in.Email,
		PasswordHash: hash,
		Providers:    []string{listing.ProviderCredentials},
	})
	if errors.Is(err, ErrConflict) {
		return s.invalid([]formerrors.Issue{formerrors.NewIssue(MsgEmailTaken, "email")}, echo)
	}
	if err != nil {
		return s.storeFailure("create user", err)
	}

	raw := success("Account created")
	raw.UserID = user.ID
	raw.Email = user.Email
	raw.ShouldAutoLogin = true
	return s.result(raw)
}

// SignIn checks an email and password pair.
func (s *Service) SignIn(ctx context.Context, in listing.CredentialsInput) actionstate.State {
	in.Email = strings.TrimSpace(in.Email)
	user, err := s.store.UserByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return s.storeFailure("load user", err)
	}
	if err != nil || len(user.PasswordHash) == 0 ||
		bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(in.Password)) != nil {
		return s.result(actionstate.RawResult{
			Status:   actionstate.StatusError,
			Message:  MsgBadCredentials,
			FormData: credentialsEcho{Email: in.Email},
		})
	}

	raw := success("Signed in")
	raw.UserID = user.ID
	raw.Email = user.Email
	return s.result(raw)
}

// SignInMethods reports which providers the account behind email can use.
// Unknown emails are an info state with no providers.
func (s *Service) SignInMethods(ctx context.Context, email string) actionstate.State {
	email = strings.TrimSpace(email)
	user, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return s.result(actionstate.RawResult{
			Status:        actionstate.StatusInfo,
			Message:       MsgNoAccount,
			Email:         email,
			CanSignInWith: []string{},
		})
	}
	if err != nil {
		return s.storeFailure("load user", err)
	}
	return s.result(actionstate.RawResult{
		Status:          actionstate.StatusSuccess,
		Email:           user.Email,
		CanSignInWith:   user.Providers,
		IsAccountLinked: user.HasProvider(listing.ProviderCredentials),
	})
}

// LinkCredentials adds email and password sign-in to the signed-in user's
// account, typically one created through an OAuth provider.
func (s *Service) LinkCredentials(ctx context.Context, userID string, in listing.CredentialsInput) actionstate.State {
	if userID == "" {
		return s.failure(MsgSignInRequired)
	}
	in.Email = strings.TrimSpace(in.Email)
	echo := credentialsEcho{Email: in.Email}

	issues, err := s.validator.Validate(in)
	if err != nil {
		return s.storeFailure("link credentials", err)
	}
	if len(issues) > 0 {
		return s.invalid(issues, echo)
	}

	user, err := s.store.User(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return s.failure(MsgSignInRequired)
	}
	if err != nil {
		return s.storeFailure("load user", err)
	}
	if !strings.EqualFold(user.Email, in.Email) {
		return s.invalid([]formerrors.Issue{formerrors.NewIssue(MsgEmailMismatch, "email")}, echo)
	}
	if user.HasProvider(listing.ProviderCredentials) {
		return s.alreadyLinked()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return s.storeFailure("hash password", err)
	}
	user, err = s.store.ModifyUser(ctx, userID, func(u *listing.User) error {
		if u.HasProvider(listing.ProviderCredentials) {
			return errAlreadyLinked
		}
		u.PasswordHash = hash
		u.Providers = append(u.Providers, listing.ProviderCredentials)
		return nil
	})
	switch {
	case errors.Is(err, errAlreadyLinked):
		return s.alreadyLinked()
	case errors.Is(err, ErrNotFound):
		return s.failure(MsgSignInRequired)
	case err != nil:
		return s.storeFailure("update user", err)
	}

	raw := success(MsgCredentialsAdded)
	raw.IsAccountLinked = true
	raw.CanSignInWith = user.Providers
	return s.result(raw)
}

func (s *Service) alreadyLinked() actionstate.State {
	return s.result(actionstate.RawResult{
		Status:          actionstate.StatusInfo,
		Message:         MsgAlreadyLinked,
		IsAccountLinked: true,
	})
}
