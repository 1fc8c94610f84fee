package actions

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/crypto/bcrypt"

	"github.com/dwellio/go-formstate/pkg/actionstate"
	"github.com/dwellio/go-formstate/pkg/formerrors"
	"github.com/dwellio/go-formstate/pkg/listing"
	"github.com/dwellio/go-formstate/pkg/validation"
)

// User-facing messages.
const (
	MsgFixErrors       = "Please fix the errors below"
	MsgSignInRequired  = "You must be signed in"
	MsgSomethingWrong  = "Something went wrong, please try again"
	MsgPropertyMissing = "Property not found"
	MsgMessageMissing  = "Message not found"
	MsgNotOwner        = "You are not allowed to change this property"
	MsgNotRecipient    = "You are not allowed to change this message"
	MsgSelfMessage     = "You can not send a message to yourself"
	MsgBadCredentials  = "Invalid email or password"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for diagnostics and store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithValidator replaces the struct validator.
func WithValidator(v *validation.StructValidator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithBcryptCost sets the password hashing cost. Values outside bcrypt's
// accepted range fall back to bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			cost = bcrypt.DefaultCost
		}
		s.cost = cost
	}
}

// WithPolicy replaces the sanitiser applied to free-text fields.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(s *Service) {
		if policy != nil {
			s.policy = policy
		}
	}
}

// WithMaxDepth sets the nesting depth of validation error maps.
func WithMaxDepth(depth int) Option {
	return func(s *Service) {
		s.depth = &depth
	}
}

// Service runs the mutations behind Dwellio's forms. Every mutation returns
// an actionstate.State; failures are reported in the state rather than as
// errors.
type Service struct {
	store      Store
	logger     *slog.Logger
	now        func() time.Time
	validator  *validation.StructValidator
	cost       int
	policy     *bluemonday.Policy
	depth      *int
	mapper     *formerrors.Mapper
	normalizer *actionstate.Normalizer
}

// NewService wires a Service over store.
func NewService(store Store, options ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		cost:   bcrypt.DefaultCost,
		policy: bluemonday.StrictPolicy(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.validator == nil {
		s.validator = validation.NewStructValidator()
	}

	mapperOpts := []formerrors.Option{formerrors.WithLogger(s.logger)}
	if s.depth != nil {
		mapperOpts = append(mapperOpts, formerrors.WithMaxDepth(*s.depth))
	}
	s.mapper = formerrors.New(mapperOpts...)
	s.normalizer = actionstate.New(actionstate.WithLogger(s.logger))
	return s
}

// Store returns the backing store.
func (s *Service) Store() Store { return s.store }

func (s *Service) result(raw actionstate.RawResult) actionstate.State {
	return s.normalizer.Normalize(raw)
}

func success(message string) actionstate.RawResult {
	return actionstate.RawResult{Status: actionstate.StatusSuccess, Message: message}
}

func (s *Service) failure(message string) actionstate.State {
	return s.result(actionstate.RawResult{Status: actionstate.StatusError, Message: message})
}

// invalid reports field-level failures and echoes the submitted values back.
func (s *Service) invalid(issues []formerrors.Issue, formData any) actionstate.State {
	return s.result(actionstate.RawResult{
		Status:       actionstate.StatusError,
		Message:      MsgFixErrors,
		FormErrorMap: s.mapper.Map(issues),
		FormData:     formData,
	})
}

func (s *Service) storeFailure(op string, err error) actionstate.State {
	s.logger.Error("actions: store failure", slog.String("op", op), slog.Any("error", err))
	return s.failure(MsgSomethingWrong)
}

// sanitize strips markup from user-supplied text. Entities are decoded
// before the policy runs so encoded tags are stripped too; the result stays
// HTML-escaped.
func (s *Service) sanitize(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(html.UnescapeString(text)))
}

// CreateProperty stores a new listing owned by userID. On success FormData
// carries the stored listing.Property.
func (s *Service) CreateProperty(ctx context.Context, userID string, in listing.PropertyInput) actionstate.State {
	if userID == "" {
		return s.failure(MsgSignInRequired)
	}
	issues, err := s.validator.Validate(in)
	if err != nil {
		return s.storeFailure("create property", err)
	}
	if len(issues) > 0 {
		return s.invalid(issues, in)
	}

	var p listing.Property
	p.Apply(in)
	p.Owner = userID
	p.Description = s.sanitize(p.Description)

	created, err := s.store.CreateProperty(ctx, p)
	if err != nil {
		return s.storeFailure("create property", err)
	}
	raw := success("Property added")
	raw.FormData = created
	return s.result(raw)
}

// UpdateProperty replaces the editable fields of a listing the user owns.
func (s *Service) UpdateProperty(ctx context.Context, userID, propertyID string, in listing.PropertyInput) actionstate.State {
	if userID == "" {
		return s.failure(MsgSignInRequired)
	}
	p, state, ok := s.ownedProperty(ctx, userID, propertyID)
	if !ok {
		return state
	}
	issues, err := s.validator.Validate(in)
	if err != nil {
		return s.storeFailure("update property", err)
	}
	if len(issues) > 0 {
		return s.invalid(issues, in)
	}

	p.Apply(in)
	p.Description = s.sanitize(p.Description)
	if err := s.store.UpdateProperty(ctx, p); err != nil {
		return s.storeFailure("update property", err)
	}
	raw := success("Property updated")
	raw.FormData = p
	return s.result(raw)
}

// DeleteProperty removes a listing the user owns.
func (s *Service) DeleteProperty(ctx context.Context, userID, propertyID string) actionstate.State {
	if userID == "" {
		return s.failure(MsgSignInRequired)
	}
	if _, state, ok := s.ownedProperty(ctx, userID, propertyID); !ok {
		return state
	}
	if err := s.store.DeleteProperty(ctx, propertyID); err != nil {
		return s.storeFailure("delete property", err)
	}
	return s.result(success("Property deleted"))
}

func (s *Service) ownedProperty(ctx context.Context, userID, propertyID string) (listing.Property, actionstate.State, bool) {
	p, err := s.store.Property(ctx, propertyID)
	switch {
	case errors.Is(err, ErrNotFound):
		return p, s.failure(MsgPropertyMissing), false
	case err != nil:
		return p, s.storeFailure("load property", err), false
	case p.Owner != userID:
		return p, s.failure(MsgNotOwner), false
	}
	return p, actionstate.State{}, true
}

// ToggleBookmark adds or removes propertyID from the user's bookmarks and
// reports the new state in IsFavorite.
func (s *Service) ToggleBookmark(ctx context.Context, userID, propertyID string) actionstate.State {
	if userID == "" {
		return s.failure(MsgSignInRequired)
	}
	if _, err := s.store.Property(ctx, propertyID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.failure(MsgPropertyMissing)
		}
		return s.storeFailure("load property", err)
	}
	var favorite bool
	_, err := s.store.ModifyUser(ctx, userID, func(u *listing.User) error {
		favorite = !u.HasBookmark(propertyID)
		if favorite {
			u.Bookmarks = append(u.Bookmarks, propertyID)
		} else {
			u.Bookmarks = without(u.Bookmarks, propertyID)
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return s.failure(MsgSignInRequired)
	}
	if err != nil {
		return s.storeFailure("update user", err)
	}

	message := "Bookmark removed"
	if favorite {
		message = "Bookmark added"
	}
	raw := success(message)
	raw.IsFavorite = favorite
	return s.result(raw)
}

// CheckBookmark reports whether the user bookmarked propertyID.
func (s *Service) CheckBookmark(ctx context.Context, userID, propertyID string) actionstate.State {
	if userID == "" {
		return s.failure(MsgSignInRequired)
	}
	user, err := s.store.User(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.failure(MsgSignInRequired)
		}
		return s.storeFailure("load user", err)
	}
	return s.result(actionstate.RawResult{
		Status:     actionstate.StatusSuccess,
		IsFavorite: user.HasBookmark(propertyID),
	})
}

// CreateMessage sends an enquiry to the owner of in.Property. The body is
// stripped of markup before it is stored.
func (s *Service) CreateMessage(ctx context.Context, userID string, in listing.MessageInput) actionstate.State {
	if userID == "" {
		return s.failure(MsgSignInRequired)
	}
	in.Body = s.sanitize(in.Body)
	in.Name = s.sanitize(in.Name)

	issues, err := s.validator.Validate(in)
	if err != nil {
		return s.storeFailure("create message", err)
	}
	if len(issues) > 0 {
		return s.invalid(issues, in)
	}

	p, err := s.store.Property(ctx, in.Property)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.invalid([]formerrors.Issue{formerrors.NewIssue(MsgPropertyMissing, "property")}, in)
		}
		return s.storeFailure("load property", err)
	}
	if p.Owner == userID {
		return s.failure(MsgSelfMessage)
	}

	if _, err := s.store.CreateMessage(ctx, listing.Message{
		Sender:    userID,
		Recipient: p.Owner,
		Property:  p.ID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Body:      in.Body,
	}); err != nil {
		return s.storeFailure("create message", err)
	}
	return s.result(success("Message sent"))
}

// ToggleMessageRead flips the read flag of a message addressed to the user.
func (s *Service) ToggleMessageRead(ctx context.Context, userID, messageID string) actionstate.State {
	if userID == "" {
		return s.failure(MsgSignInRequired)
	}
	m, state, ok := s.receivedMessage(ctx, userID, messageID)
	if !ok {
		return state
	}
	m.Read = !m.Read
	if err := s.store.UpdateMessage(ctx, m); err != nil {
		return s.storeFailure("update message", err)
	}

	message := "Marked as new"
	if m.Read {
		message = "Marked as read"
	}
	raw := success(message)
	raw.IsRead = m.Read
	return s.result(raw)
}

// DeleteMessage removes a message addressed to the user.
func (s *Service) DeleteMessage(ctx context.Context, userID, messageID string) actionstate.State {
	if userID == "" {
		return s.failure(MsgSignInRequired)
	}
	if _, state, ok := s.receivedMessage(ctx, userID, messageID); !ok {
		return state
	}
	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		return s.storeFailure("delete message", err)
	}
	return s.result(success("Message deleted"))
}

func (s *Service) receivedMessage(ctx context.Context, userID, messageID string) (listing.Message, actionstate.State, bool) {
	m, err := s.store.Message(ctx, messageID)
	switch {
	case errors.Is(err, ErrNotFound):
		return m, s.failure(MsgMessageMissing), false
	case err != nil:
		return m, s.storeFailure("load message", err), false
	case m.Recipient != userID:
		return m, s.failure(MsgNotRecipient), false
	}
	return m, actionstate.State{}, true
}

// UnreadCount returns how many of the user's messages are unread.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	messages, err := s.store.Messages(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range messages {
		if !m.Read {
			count++
		}
	}
	return count, nil
}
