package actors

import (
	"testing"

	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenFn(userID uuid.UUID) (string, error) {
	return "token-" + userID.String(), nil
}

func TestUserRegistrationAndLogin(t *testing.T) {
	db := newFakeDB()
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewUserActor(db, utils.NewMetricsCollector(), testTokenFn)
	}))

	result, err := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Username: "testreader",
		Email:    "Test@Example.com",
		Password: "password123",
	}, askTimeout).Result()
	require.NoError(t, err)

	user, ok := result.(*models.User)
	require.True(t, ok, "expected a user, got %T", result)
	assert.Equal(t, "testreader", user.Username)
	assert.Equal(t, "testreader", user.DisplayName, "display name defaults to username")
	assert.Equal(t, "test@example.com", user.Email, "email is normalized")

	// Login with the original casing.
	result, err = system.Root.RequestFuture(pid, &LoginMsg{
		Email:    "Test@Example.com",
		Password: "password123",
	}, askTimeout).Result()
	require.NoError(t, err)

	login, ok := result.(*LoginResponse)
	require.True(t, ok)
	assert.True(t, login.Success)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, user.ID.String(), login.UserID)

	result, err = system.Root.RequestFuture(pid, &LoginMsg{
		Email:    "test@example.com",
		Password: "wrongpassword",
	}, askTimeout).Result()
	require.NoError(t, err)

	badLogin := result.(*LoginResponse)
	assert.False(t, badLogin.Success)
	assert.Equal(t, "Invalid credentials", badLogin.Error)
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	db := newFakeDB()
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewUserActor(db, utils.NewMetricsCollector(), testTokenFn)
	}))

	_, err := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Username: "first",
		Email:    "dup@example.com",
		Password: "password123",
	}, askTimeout).Result()
	require.NoError(t, err)

	result, err := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Username: "second",
		Email:    "DUP@example.com",
		Password: "password123",
	}, askTimeout).Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected an error, got %T", result)
	assert.Equal(t, utils.ErrUserAlreadyExists, appErr.Code)
}

func TestRegistrationValidation(t *testing.T) {
	db := newFakeDB()
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewUserActor(db, utils.NewMetricsCollector(), testTokenFn)
	}))

	result, err := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Username: "shortpass",
		Email:    "short@example.com",
		Password: "short",
	}, askTimeout).Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
}
