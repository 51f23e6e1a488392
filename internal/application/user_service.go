package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/foodgram/internal/domain/entity"
	repo "github.com/oksasatya/foodgram/internal/domain/repository"
	"github.com/oksasatya/foodgram/pkg/helpers"
)

type UserService struct {
	Repo         repo.UserRepository
	Follows      repo.FollowRepository
	JWT          *helpers.JWTManager
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	Notifier     *Notifier
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func NewUserService(users repo.UserRepository, follows repo.FollowRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string, notifier *Notifier) *UserService {
	return &UserService{
		Repo:         users,
		Follows:      follows,
		JWT:          jwt,
		Redis:        rdb,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
		Notifier:     notifier,
	}
}

type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// Register creates a regular user. Email and username collisions are reported per field.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, invalid("password", "cannot be used")
	}
	u := &entity.User{
		Email:     strings.TrimSpace(in.Email),
		Username:  strings.TrimSpace(in.Username),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hash,
		Role:      entity.RoleUser,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, userConflict(err)
	}

	_ = s.indexUser(ctx, u)
	s.Notifier.Welcome(ctx, u)
	return u, nil
}

// userConflict turns unique violations on users into per-field validation errors.
func userConflict(err error) error {
	var ce *repo.ConstraintError
	if errors.As(err, &ce) {
		if strings.Contains(ce.Constraint, "email") {
			return invalid("email", "a user with this email already exists")
		}
		return invalid("username", "a user with this username already exists")
	}
	return err
}

// ProfileInput is a partial profile update; nil fields are left unchanged.
type ProfileInput struct {
	Email     *string
	Username  *string
	FirstName *string
	LastName  *string
}

// UpdateProfile applies in to the caller's own account and refreshes the search document.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	errs := fieldErrors{}
	set := func(dst *string, v *string, field string) {
		if v == nil {
			return
		}
		if strings.TrimSpace(*v) == "" {
			errs.add(field, "must not be blank")
			return
		}
		*dst = strings.TrimSpace(*v)
	}
	set(&u.Email, in.Email, "email")
	set(&u.Username, in.Username, "username")
	set(&u.FirstName, in.FirstName, "first_name")
	set(&u.LastName, in.LastName, "last_name")
	if err := errs.err(); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, userConflict(err)
	}
	if err := s.indexUser(ctx, u); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("user index refresh failed")
	}
	return u, nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if helpers.NeedsRehash(u.Password) {
		s.rehash(ctx, u, password)
	}
	return u, nil
}

// rehash stores a fresh hash of password at the current cost. Failures only get logged.
func (s *UserService) rehash(ctx context.Context, u *entity.User, password string) {
	hash, err := helpers.HashPassword(password)
	if err == nil {
		err = s.Repo.UpdatePassword(ctx, u.ID, hash)
	}
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("password rehash failed")
		}
		return
	}
	u.Password = hash
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *UserService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.signPair(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"username":   u.Username,
			"role":       u.Role,
			"sid":        sid,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		}
		if rErr := helpers.SaveSession(ctx, s.Redis, u.ID, fields, time.Until(pair.RefreshTokenExpiry)); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("user_id", u.ID).Warn("save session failed")
		}
	}

	return pair, nil
}

func (s *UserService) signPair(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh validates the refresh token against the current session and rotates both tokens.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if s.Redis != nil && !helpers.SessionMatches(ctx, s.Redis, u.ID, claims.SessionID) {
		return TokenPair{}, "", ErrInvalidCredentials
	}

	sid := uuid.NewString()
	pair, err := s.signPair(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		fields := map[string]any{"sid": sid, "updated_at": nowRFC3339()}
		if rErr := helpers.SaveSession(ctx, s.Redis, u.ID, fields, time.Until(pair.RefreshTokenExpiry)); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("user_id", u.ID).Warn("rotate session failed")
		}
	}
	return pair, u.ID, nil
}

// Logout drops the session so outstanding tokens stop working.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if s.Redis == nil || userID == "" {
		return nil
	}
	return helpers.RedisDel(ctx, s.Redis, helpers.SessionKey(userID))
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// GetUser returns id as seen by viewerID (empty for anonymous).
func (s *UserService) GetUser(ctx context.Context, viewerID, id string) (*entity.UserView, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	views, err := s.withSubscribed(ctx, viewerID, []entity.User{*u})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *UserService) ListUsers(ctx context.Context, viewerID string, limit, offset int) ([]entity.UserView, int, error) {
	users, count, err := s.Repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.withSubscribed(ctx, viewerID, users)
	if err != nil {
		return nil, 0, err
	}
	return views, count, nil
}

func (s *UserService) withSubscribed(ctx context.Context, viewerID string, users []entity.User) ([]entity.UserView, error) {
	followed := map[string]bool{}
	if viewerID != "" && len(users) > 0 {
		ids := make([]string, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		var err error
		if followed, err = s.Follows.FollowedAmong(ctx, viewerID, ids); err != nil {
			return nil, err
		}
	}
	out := make([]entity.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, entity.UserView{User: u, IsSubscribed: followed[u.ID]})
	}
	return out, nil
}

// SetPassword replaces the password after checking the current one, then ends the session.
func (s *UserService) SetPassword(ctx context.Context, userID, current, next string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUnauthenticated
		}
		return err
	}
	if !helpers.CompareHashAndPassword(u.Password, current) {
		return invalid("current_password", "is incorrect")
	}
	hash, err := helpers.HashPassword(next)
	if err != nil {
		return invalid("new_password", "cannot be used")
	}
	if err := s.Repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	return s.Logout(ctx, userID)
}

func (s *UserService) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"username":   u.Username,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

// SearchUsers runs a multi_match over username, names and email, then loads the hits from the database.
func (s *UserService) SearchUsers(ctx context.Context, viewerID, q string, size int) ([]entity.UserView, error) {
	if s.ES == nil || s.ESUsersIndex == "" || strings.TrimSpace(q) == "" {
		return []entity.UserView{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"type":   "bool_prefix",
				"fields": []string{"username^3", "username._2gram", "first_name", "last_name", "email^2"},
			},
		},
		"_source": false,
		"size":    size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.IsError() {
		return nil, errors.New("search failed: " + res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	users, err := s.Repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// keep relevance order
	byID := make(map[string]entity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]entity.User, 0, len(users))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return s.withSubscribed(ctx, viewerID, ordered)
}

// actor loads the calling user; a missing id or user counts as unauthenticated.
func actor(ctx context.Context, users repo.UserRepository, id string) (*entity.User, error) {
	if id == "" {
		return nil, ErrUnauthenticated
	}
	u, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return u, nil
}
