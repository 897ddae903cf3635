// Package handlers implements the HTTP orchestration for registration,
// account activation and token issuance.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"storefront-auth/internal/managers"
	"storefront-auth/internal/schemas"
	"storefront-auth/internal/tokens"
	"storefront-auth/internal/utils"
)

type UserHdl interface {
	RegisterUser(c *gin.Context)
	ActivateUser(c *gin.Context)
	ObtainTokenPair(c *gin.Context)
	RefreshToken(c *gin.Context)
	GetMe(c *gin.Context)
}

type UserHandler struct {
	DatabaseManager managers.DatabaseMgr
	JWTManager      managers.JWTMgr
	QueueManager    managers.QueueMgr
	TokenGenerator  *tokens.ActivationTokenGenerator
	Validator       *utils.Validator
	FrontendURL     string
	Environment     string
}

func NewUserHandler(databaseManager managers.DatabaseMgr, jwtManager managers.JWTMgr, queueManager managers.QueueMgr,
	tokenGenerator *tokens.ActivationTokenGenerator, frontendURL string) UserHdl {
	return &UserHandler{
		DatabaseManager: databaseManager,
		JWTManager:      jwtManager,
		QueueManager:    queueManager,
		TokenGenerator:  tokenGenerator,
		Validator:       utils.GetValidator(),
		FrontendURL:     frontendURL,
		Environment:     os.Getenv("ENVIRONMENT"),
	}
}

// RegisterUser creates a new inactive user and enqueues the activation email.
// The 201 response is returned as soon as the user row is committed; email
// delivery happens on the worker side.
func (handler *UserHandler) RegisterUser(c *gin.Context) {
	registrationRequest := &schemas.RegistrationRequest{}
	if err := utils.DecodeRequestBody(c, registrationRequest); err != nil {
		return
	}

	registrationRequest.Email = utils.NormalizeEmail(registrationRequest.Email)

	tx := utils.BeginTransaction(c, handler.DatabaseManager.GetPool())
	if tx == nil {
		return
	}
	var err error
	defer func() { utils.RollbackTransaction(c, tx, err) }()

	// Field phase: tag violations, email uniqueness and reachability are
	// collected into one map, so a taken email is still reported when the
	// password is also bad. The uniqueness and mailbox checks only run on an
	// email that is well-formed.
	fieldErrors, err := utils.FieldViolations(registrationRequest)
	if err != nil {
		utils.WriteAndLogError(c, schemas.ErrInternal, http.StatusInternalServerError, err)
		return
	}

	if len(fieldErrors["email"]) == 0 {
		var taken bool
		if taken, err = emailTaken(c, tx, registrationRequest.Email); err != nil {
			utils.WriteAndLogError(c, schemas.ErrInternal, http.StatusInternalServerError, err)
			return
		}
		if taken {
			fieldErrors["email"] = append(fieldErrors["email"], schemas.ErrEmailTaken)
		}
	}

	if len(fieldErrors["email"]) == 0 && !handler.emailReachable(registrationRequest.Email) {
		fieldErrors["email"] = append(fieldErrors["email"], schemas.ErrEmailUnreachable)
	}

	if len(fieldErrors) > 0 {
		utils.WriteValidationError(c, fieldErrors)
		err = errors.New("registration failed validation")
		return
	}

	// Cross-field phase, after every per-field check has passed.
	if err = checkPasswordPolicy(c, registrationRequest); err != nil {
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registrationRequest.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteAndLogError(c, schemas.ErrInternal, http.StatusInternalServerError, err)
		return
	}

	user := &schemas.User{
		Email:     registrationRequest.Email,
		FirstName: registrationRequest.FirstName,
		LastName:  registrationRequest.LastName,
		IsActive:  false,
	}

	queryString := "INSERT INTO users (email, first_name, last_name, password, is_active) VALUES ($1, $2, $3, $4, $5) RETURNING user_id"
	if err = tx.QueryRow(c, queryString, user.Email, user.FirstName, user.LastName, hashedPassword, false).Scan(&user.ID); err != nil {
		utils.WriteAndLogError(c, schemas.ErrInternal, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(c, tx); err != nil {
		return
	}

	activationLink := fmt.Sprintf("%s/activate-account?uid=%s&token=%s",
		handler.FrontendURL, tokens.EncodeUserID(user.ID), handler.TokenGenerator.MakeToken(user))

	if err = handler.QueueManager.EnqueueActivationEmail(c, user.ID, activationLink); err != nil {
		utils.WriteAndLogError(c, schemas.ErrInternal, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(c, &schemas.RegistrationDTO{
		Message: schemas.MsgRegistered,
		Email:   user.Email,
	}, http.StatusCreated)
}

// ActivateUser flips a pending account to active when presented with a valid
// {uid, token} pair. Decode failures, unknown users and bad tokens all get
// the same generic rejection; activating an already active account is a
// benign success.
func (handler *UserHandler) ActivateUser(c *gin.Context) {
	activationRequest := &schemas.ActivationRequest{}
	if err := utils.DecodeRequestBody(c, activationRequest); err != nil {
		return
	}

	if err := utils.ValidateStruct(c, activationRequest); err != nil {
		return
	}

	if activationRequest.UID == "" {
		utils.WriteAndLogError(c, schemas.ErrUIDRequired, http.StatusBadRequest, errors.New("uid missing"))
		return
	}

	user, ok := handler.lookupActivationTarget(c, activationRequest)
	if !ok {
		utils.WriteAndLogError(c, schemas.ErrInvalidActivationLink, http.StatusBadRequest, errors.New("invalid activation link"))
		return
	}

	// A consumed link never verifies again because is_active is part of the
	// token's MAC input, so the already-active case is answered before the
	// token check.
	if user.IsActive {
		utils.WriteAndLogResponse(c, &schemas.MessageDTO{Message: schemas.MsgAlreadyActivated}, http.StatusOK)
		return
	}

	if !handler.TokenGenerator.CheckToken(user, activationRequest.Token) {
		utils.WriteAndLogError(c, schemas.ErrInvalidActivationLink, http.StatusBadRequest, errors.New("invalid activation link"))
		return
	}

	// Only the is_active column is touched so concurrent profile edits are
	// never clobbered.
	queryString := "UPDATE users SET is_active = TRUE WHERE user_id = $1"
	if _, err := handler.DatabaseManager.GetPool().Exec(c, queryString, user.ID); err != nil {
		utils.WriteAndLogError(c, schemas.ErrInternal, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(c, &schemas.MessageDTO{Message: schemas.MsgActivated}, http.StatusOK)
}

// lookupActivationTarget collapses uid decoding and the user lookup into a
// single yes/no outcome so the response cannot leak which step rejected the
// link.
func (handler *UserHandler) lookupActivationTarget(c *gin.Context, request *schemas.ActivationRequest) (*schemas.User, bool) {
	userId, err := tokens.DecodeUserID(request.UID)
	if err != nil {
		utils.LogMessageWithFieldsAndError(c, "info", "Activation uid rejected", err)
		return nil, false
	}

	user, err := fetchUserById(c, handler.DatabaseManager, userId)
	if err != nil {
		utils.LogMessageWithFieldsAndError(c, "info", "Activation target not found", err)
		return nil, false
	}

	return user, true
}

// ObtainTokenPair exchanges credentials for an access/refresh token pair.
// Unknown email, wrong password and not-yet-activated accounts are
// indistinguishable to the caller.
func (handler *UserHandler) ObtainTokenPair(c *gin.Context) {
	tokenRequest := &schemas.TokenRequest{}
	if err := utils.DecodeRequestBody(c, tokenRequest); err != nil {
		return
	}

	if err := utils.ValidateStruct(c, tokenRequest); err != nil {
		return
	}

	email := utils.NormalizeEmail(tokenRequest.Email)

	user := &schemas.User{}
	queryString := "SELECT user_id, email, first_name, last_name, password, is_active FROM users WHERE email = $1"
	row := handler.DatabaseManager.GetPool().QueryRow(c, queryString, email)
	if err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Password, &user.IsActive); err != nil {
		utils.WriteAndLogError(c, schemas.ErrInvalidCredentials, http.StatusUnauthorized, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(tokenRequest.Password)); err != nil {
		utils.WriteAndLogError(c, schemas.ErrInvalidCredentials, http.StatusUnauthorized, err)
		return
	}

	if !user.IsActive {
		utils.WriteAndLogError(c, schemas.ErrInvalidCredentials, http.StatusUnauthorized, errors.New("account not activated"))
		return
	}

	access, refresh, err := handler.JWTManager.GenerateTokenPair(user)
	if err != nil {
		utils.WriteAndLogError(c, schemas.ErrInternal, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(c, &schemas.TokenPairDTO{
		Access:  access,
		Refresh: refresh,
		User: schemas.UserDTO{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name(),
		},
	}, http.StatusOK)
}

// RefreshToken issues a new access token for a valid refresh token.
func (handler *UserHandler) RefreshToken(c *gin.Context) {
	refreshTokenRequest := &schemas.RefreshTokenRequest{}
	if err := utils.DecodeRequestBody(c, refreshTokenRequest); err != nil {
		return
	}

	if err := utils.ValidateStruct(c, refreshTokenRequest); err != nil {
		return
	}

	claims, err := handler.JWTManager.ValidateJWT(refreshTokenRequest.Refresh)
	if err != nil {
		utils.WriteAndLogError(c, schemas.ErrInvalidRefreshToken, http.StatusUnauthorized, err)
		return
	}

	mapClaims, ok := claims.(jwt.MapClaims)
	if !ok {
		utils.WriteAndLogError(c, schemas.ErrInvalidRefreshToken, http.StatusUnauthorized, errors.New("unexpected claims type"))
		return
	}

	if refresh, _ := mapClaims["refresh"].(string); refresh != "true" {
		utils.WriteAndLogError(c, schemas.ErrInvalidRefreshToken, http.StatusUnauthorized, errors.New("not a refresh token"))
		return
	}

	userId, err := subjectUserId(mapClaims)
	if err != nil {
		utils.WriteAndLogError(c, schemas.ErrInvalidRefreshToken, http.StatusUnauthorized, err)
		return
	}

	email, _ := mapClaims["email"].(string)
	name, _ := mapClaims["name"].(string)

	access, err := handler.JWTManager.GenerateAccessToken(userId, email, name)
	if err != nil {
		utils.WriteAndLogError(c, schemas.ErrInternal, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(c, &schemas.AccessTokenDTO{Access: access}, http.StatusOK)
}

// GetMe returns the identity of the authenticated user.
func (handler *UserHandler) GetMe(c *gin.Context) {
	claims, ok := c.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	if !ok {
		utils.WriteAndLogError(c, schemas.ErrUnauthorized, http.StatusUnauthorized, errors.New("missing claims"))
		return
	}

	userId, err := subjectUserId(claims)
	if err != nil {
		utils.WriteAndLogError(c, schemas.ErrUnauthorized, http.StatusUnauthorized, err)
		return
	}

	user, err := fetchUserById(c, handler.DatabaseManager, userId)
	if err != nil {
		utils.WriteAndLogError(c, schemas.ErrUnauthorized, http.StatusUnauthorized, err)
		return
	}

	utils.WriteAndLogResponse(c, &schemas.UserDTO{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name(),
	}, http.StatusOK)
}

// emailTaken reports whether the normalized email is already registered.
func emailTaken(ctx context.Context, tx pgx.Tx, email string) (bool, error) {
	queryString := "SELECT user_id FROM users WHERE email = $1"

	var existingId int64
	err := tx.QueryRow(ctx, queryString, email).Scan(&existingId)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// emailReachable runs the MX lookup on the address. Outside production the
// check is skipped, same as mail delivery itself.
func (handler *UserHandler) emailReachable(email string) bool {
	if handler.Environment != "production" {
		return true
	}
	return handler.Validator.VerifyEmail(email)
}

// checkPasswordPolicy enforces the business-level password rules on a
// synthetic user built from the request: confirmation equality, then the
// checks that need the other attributes. Presence, length and character
// classes are already covered by the struct tags.
func checkPasswordPolicy(c *gin.Context, request *schemas.RegistrationRequest) error {
	if request.Password != request.PasswordConfirmation {
		utils.WriteValidationError(c, schemas.ValidationErrorDTO{
			"password_confirmation": {schemas.ErrPasswordMismatch},
		})
		return errors.New("password confirmation mismatch")
	}

	if utils.PasswordEntirelyNumeric(request.Password) {
		utils.WriteValidationError(c, schemas.ValidationErrorDTO{
			"password": {"This password is entirely numeric."},
		})
		return errors.New("password entirely numeric")
	}

	if utils.PasswordTooSimilar(request.Password, request.Email, request.FirstName, request.LastName) {
		utils.WriteValidationError(c, schemas.ValidationErrorDTO{
			"password": {"The password is too similar to your personal information."},
		})
		return errors.New("password too similar to user attributes")
	}

	return nil
}

// fetchUserById loads a user row by primary key.
func fetchUserById(ctx context.Context, databaseManager managers.DatabaseMgr, userId int64) (*schemas.User, error) {
	user := &schemas.User{}
	queryString := "SELECT user_id, email, first_name, last_name, is_active FROM users WHERE user_id = $1"
	row := databaseManager.GetPool().QueryRow(ctx, queryString, userId)
	if err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.IsActive); err != nil {
		return nil, err
	}
	return user, nil
}

// subjectUserId extracts the numeric user id from the sub claim.
func subjectUserId(claims jwt.MapClaims) (int64, error) {
	sub, _ := claims["sub"].(string)
	userId, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject claim: %w", err)
	}
	return userId, nil
}
