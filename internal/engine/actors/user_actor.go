package actors

import (
	stdctx "context"
	"log"
	"strings"
	"time"

	"english-tales/internal/database"
	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Message types for account operations
type (
	RegisterUserMsg struct {
		Username    string
		DisplayName string
		Email       string
		Password    string
	}

	LoginMsg struct {
		Email    string
		Password string
	}

	GetUserProfileMsg struct {
		UserID uuid.UUID
	}

	UpdateProfileMsg struct {
		UserID         uuid.UUID
		NewDisplayName string
		NewPhotoURL    string
	}

	refetchUserMsg struct {
		UserID uuid.UUID
	}
)

// LoginResponse is the auth result shape shared with the HTTP layer.
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
	UserID  string `json:"userId"`
}

// TokenFunc issues a signed auth token for a user id.
type TokenFunc func(userID uuid.UUID) (string, error)

// UserActor owns the account mirror. Registration and login hit the
// database synchronously since both must observe durable state; profile
// updates go through the optimistic protocol like everything else.
type UserActor struct {
	usersByID map[uuid.UUID]*models.User
	emailToID map[string]uuid.UUID
	db        database.DBAdapter
	metrics   *utils.MetricsCollector
	tokenFn   TokenFunc
}

func NewUserActor(db database.DBAdapter, metrics *utils.MetricsCollector, tokenFn TokenFunc) actor.Actor {
	return &UserActor{
		usersByID: make(map[uuid.UUID]*models.User),
		emailToID: make(map[string]uuid.UUID),
		db:        db,
		metrics:   metrics,
		tokenFn:   tokenFn,
	}
}

func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("UserActor started with PID: %v", context.Self())

	case *RegisterUserMsg:
		a.handleRegister(context, msg)

	case *LoginMsg:
		a.handleLogin(context, msg)

	case *GetUserProfileMsg:
		a.handleGetProfile(context, msg)

	case *UpdateProfileMsg:
		a.handleUpdateProfile(context, msg)

	case *remoteWriteOKMsg:
		confirmWrite(msg.Op)

	case *remoteWriteFailedMsg:
		failedWrite(context, msg)
		a.metrics.IncrementErrors()

	case *refetchUserMsg:
		a.refetchUser(context, msg.UserID)

	case *applyMirrorMsg:
		msg.Apply()

	default:
		log.Printf("UserActor: Unknown message type %T", msg)
	}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func (a *UserActor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	startTime := time.Now()

	email := strings.ToLower(strings.TrimSpace(msg.Email))
	if email == "" || msg.Username == "" || len(msg.Password) < 8 {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput,
			"Username, email and a password of at least 8 characters are required", nil))
		return
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
	defer cancel()

	if existing, _ := a.db.GetUserByEmail(ctx, email); existing != nil {
		context.Respond(utils.NewAppError(utils.ErrUserAlreadyExists, "Email already registered", nil))
		return
	}

	hashed, err := hashPassword(msg.Password)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Failed to process password", err))
		return
	}

	displayName := msg.DisplayName
	if displayName == "" {
		displayName = msg.Username
	}

	now := time.Now()
	user := &models.User{
		ID:             uuid.New(),
		Username:       msg.Username,
		DisplayName:    displayName,
		Email:          email,
		HashedPassword: hashed,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastActive:     now,
	}

	if err := a.db.SaveUser(ctx, user); err != nil {
		context.Respond(err)
		return
	}

	a.usersByID[user.ID] = user
	a.emailToID[email] = user.ID

	a.metrics.AddOperationLatency("register_user", time.Since(startTime))
	context.Respond(user)
}

func (a *UserActor) handleLogin(context actor.Context, msg *LoginMsg) {
	startTime := time.Now()

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(msg.Email))
	user, err := a.db.GetUserByEmail(ctx, email)
	if err != nil {
		context.Respond(&LoginResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		context.Respond(&LoginResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	token, err := a.tokenFn(user.ID)
	if err != nil {
		log.Printf("UserActor: Failed to issue token: %v", err)
		context.Respond(&LoginResponse{Success: false, Error: "Login failed"})
		return
	}

	a.usersByID[user.ID] = user
	a.emailToID[email] = user.ID

	userID := user.ID
	writeThrough(context, "update_user_activity", nil, func(ctx stdctx.Context) error {
		return a.db.UpdateUserActivity(ctx, userID)
	})

	a.metrics.AddOperationLatency("login_user", time.Since(startTime))
	context.Respond(&LoginResponse{
		Success: true,
		Token:   token,
		UserID:  user.ID.String(),
	})
}

func (a *UserActor) handleGetProfile(context actor.Context, msg *GetUserProfileMsg) {
	if user, ok := a.usersByID[msg.UserID]; ok {
		context.Respond(user)
		return
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
	defer cancel()

	user, err := a.db.GetUser(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	a.usersByID[user.ID] = user
	context.Respond(user)
}

func (a *UserActor) handleUpdateProfile(context actor.Context, msg *UpdateProfileMsg) {
	user, ok := a.usersByID[msg.UserID]
	if !ok {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
		defer cancel()

		fetched, err := a.db.GetUser(ctx, msg.UserID)
		if err != nil {
			context.Respond(err)
			return
		}
		user = fetched
		a.usersByID[user.ID] = user
	}

	if msg.NewDisplayName != "" {
		user.DisplayName = msg.NewDisplayName
	}
	if msg.NewPhotoURL != "" {
		user.PhotoURL = msg.NewPhotoURL
	}
	user.UpdatedAt = time.Now()
	context.Respond(user)

	snapshot := *user
	writeThrough(context, "update_profile", &refetchUserMsg{UserID: user.ID}, func(ctx stdctx.Context) error {
		return a.db.SaveUser(ctx, &snapshot)
	})
}

func (a *UserActor) refetchUser(context actor.Context, userID uuid.UUID) {
	reloadMirror(context, "user", func(ctx stdctx.Context) (func(), error) {
		user, err := a.db.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		return func() {
			a.usersByID[user.ID] = user
			a.emailToID[strings.ToLower(user.Email)] = user.ID
		}, nil
	})
}
