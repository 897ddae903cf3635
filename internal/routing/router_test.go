package routing

import (
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/pashagolub/pgxmock/v3"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"storefront-auth/internal/managers"
	"storefront-auth/internal/managers/mocks"
	"storefront-auth/internal/schemas"
	"storefront-auth/internal/tokens"
)

const testFrontendURL = "http://localhost:5173"

// registration payload as the frontend sends it
type registrationBody struct {
	Email                string `json:"email"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func setupMocks(t *testing.T) (*mocks.MockDatabaseManager, *mocks.MockQueueManager, managers.JWTMgr, *tokens.ActivationTokenGenerator) {
	poolMock, err := pgxmock.NewPool()
	if err != nil {
		log.Errorf("Error creating mock database pool: %v", err)
	}

	databaseMgrMock := &mocks.MockDatabaseManager{}
	databaseMgrMock.On("GetPool").Return(poolMock)

	queueMgrMock := &mocks.MockQueueManager{}

	t.Setenv("ENVIRONMENT", "test")
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		log.Errorf("Error generating key pair: %v", err)
	}
	jwtMgr := managers.NewJWTManager(privateKey, publicKey)

	tokenGenerator := tokens.NewActivationTokenGenerator("test-secret", 24*time.Hour, 3)

	return databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator
}

func startServer(t *testing.T, databaseMgrMock *mocks.MockDatabaseManager, queueMgrMock *mocks.MockQueueManager,
	jwtMgr managers.JWTMgr, tokenGenerator *tokens.ActivationTokenGenerator) (*httptest.Server, pgxmock.PgxPoolIface) {
	router := InitRouter(databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator, testFrontendURL)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
	return server, poolMock
}

func TestUserRegistration(t *testing.T) {
	validBody := func() registrationBody {
		return registrationBody{
			Email:                "jane@example.com",
			FirstName:            "Jane",
			LastName:             "Doe",
			Password:             "correct.Horse7",
			PasswordConfirmation: "correct.Horse7",
		}
	}

	t.Run("ValidRegistration", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id FROM users").
			WithArgs("jane@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}))
		poolMock.ExpectQuery("INSERT INTO users").
			WithArgs("jane@example.com", "Jane", "Doe", pgxmock.AnyArg(), false).
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
		poolMock.ExpectCommit()

		queueMgrMock.On("EnqueueActivationEmail", mock.Anything, int64(1), mock.AnythingOfType("string")).Return(nil)

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/users/register/").WithJSON(validBody()).Expect().Status(http.StatusCreated)
		response.JSON().IsEqual(map[string]interface{}{
			"message": schemas.MsgRegistered,
			"email":   "jane@example.com",
		})

		queueMgrMock.AssertNumberOfCalls(t, "EnqueueActivationEmail", 1)
		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("NormalizesEmailDomain", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		body := validBody()
		body.Email = "jane@EXAMPLE.com"

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id FROM users").
			WithArgs("jane@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}))
		poolMock.ExpectQuery("INSERT INTO users").
			WithArgs("jane@example.com", "Jane", "Doe", pgxmock.AnyArg(), false).
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(2)))
		poolMock.ExpectCommit()

		queueMgrMock.On("EnqueueActivationEmail", mock.Anything, int64(2), mock.AnythingOfType("string")).Return(nil)

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/users/register/").WithJSON(body).Expect().Status(http.StatusCreated)
		response.JSON().Object().HasValue("email", "jane@example.com")
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id FROM users").
			WithArgs("jane@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(7)))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/users/register/").WithJSON(validBody()).Expect().Status(http.StatusBadRequest)
		response.JSON().IsEqual(map[string]interface{}{
			"email": []string{schemas.ErrEmailTaken},
		})

		queueMgrMock.AssertNotCalled(t, "EnqueueActivationEmail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PasswordConfirmationMismatch", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		body := validBody()
		body.PasswordConfirmation = "different.Horse7"

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id FROM users").
			WithArgs("jane@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/users/register/").WithJSON(body).Expect().Status(http.StatusBadRequest)
		response.JSON().IsEqual(map[string]interface{}{
			"password_confirmation": []string{schemas.ErrPasswordMismatch},
		})
	})

	t.Run("WeakPassword", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		body := validBody()
		body.Password = "alllowercase"
		body.PasswordConfirmation = "alllowercase"

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id FROM users").
			WithArgs("jane@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/users/register/").WithJSON(body).Expect().Status(http.StatusBadRequest)
		response.JSON().Object().ContainsKey("password")
	})

	t.Run("TakenEmailReportedAlongsideWeakPassword", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		body := validBody()
		body.Password = "short"
		body.PasswordConfirmation = "short"

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id FROM users").
			WithArgs("jane@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(7)))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/users/register/").WithJSON(body).Expect().Status(http.StatusBadRequest)

		responseBody := response.JSON().Object()
		responseBody.Value("email").Array().IsEqual([]string{schemas.ErrEmailTaken})
		responseBody.ContainsKey("password")

		// The uniqueness query must run even though the password is bad.
		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		body := validBody()
		body.Email = "not-an-email"

		poolMock.ExpectBegin()
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/users/register/").WithJSON(body).Expect().Status(http.StatusBadRequest)
		response.JSON().Object().ContainsKey("email")
	})
}

func TestUserActivation(t *testing.T) {
	pendingUser := func() *schemas.User {
		return &schemas.User{
			ID:        42,
			Email:     "jane@example.com",
			FirstName: "Jane",
			LastName:  "Doe",
			IsActive:  false,
		}
	}

	userRow := func(user *schemas.User) *pgxmock.Rows {
		return pgxmock.NewRows([]string{"user_id", "email", "first_name", "last_name", "is_active"}).
			AddRow(user.ID, user.Email, user.FirstName, user.LastName, user.IsActive)
	}

	t.Run("ValidActivation", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		user := pendingUser()
		token := tokenGenerator.MakeToken(user)

		poolMock.ExpectQuery("SELECT user_id, email, first_name, last_name, is_active FROM users").
			WithArgs(user.ID).
			WillReturnRows(userRow(user))
		poolMock.ExpectExec("UPDATE users SET is_active").
			WithArgs(user.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/users/activate/").WithJSON(map[string]string{
			"uid":   tokens.EncodeUserID(user.ID),
			"token": token,
		}).Expect().Status(http.StatusOK)
		response.JSON().IsEqual(map[string]interface{}{"message": schemas.MsgActivated})

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("AlreadyActivatedIsBenign", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		user := pendingUser()
		token := tokenGenerator.MakeToken(user)

		// The account was activated in the meantime, the link is replayed.
		user.IsActive = true
		poolMock.ExpectQuery("SELECT user_id, email, first_name, last_name, is_active FROM users").
			WithArgs(user.ID).
			WillReturnRows(userRow(user))

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/users/activate/").WithJSON(map[string]string{
			"uid":   tokens.EncodeUserID(user.ID),
			"token": token,
		}).Expect().Status(http.StatusOK)
		response.JSON().IsEqual(map[string]interface{}{"message": schemas.MsgAlreadyActivated})

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("FabricatedToken", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		user := pendingUser()
		poolMock.ExpectQuery("SELECT user_id, email, first_name, last_name, is_active FROM users").
			WithArgs(user.ID).
			WillReturnRows(userRow(user))

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/users/activate/").WithJSON(map[string]string{
			"uid":   tokens.EncodeUserID(user.ID),
			"token": "1abc2-ffffffffffffffffffffffffffffffff",
		}).Expect().Status(http.StatusBadRequest)
		response.JSON().IsEqual(map[string]interface{}{"error": schemas.ErrInvalidActivationLink})
	})

	t.Run("MalformedUID", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, _ := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/users/activate/").WithJSON(map[string]string{
			"uid":   "!!!not-base64!!!",
			"token": "whatever-token",
		}).Expect().Status(http.StatusBadRequest)
		response.JSON().IsEqual(map[string]interface{}{"error": schemas.ErrInvalidActivationLink})
	})

	t.Run("UnknownUser", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		poolMock.ExpectQuery("SELECT user_id, email, first_name, last_name, is_active FROM users").
			WithArgs(int64(999)).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "email", "first_name", "last_name", "is_active"}))

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/users/activate/").WithJSON(map[string]string{
			"uid":   tokens.EncodeUserID(999),
			"token": "whatever-token",
		}).Expect().Status(http.StatusBadRequest)
		response.JSON().IsEqual(map[string]interface{}{"error": schemas.ErrInvalidActivationLink})
	})

	t.Run("MissingUID", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, _ := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/users/activate/").WithJSON(map[string]string{
			"token": "whatever-token",
		}).Expect().Status(http.StatusBadRequest)
		response.JSON().IsEqual(map[string]interface{}{"error": schemas.ErrUIDRequired})
	})
}

func TestTokenObtain(t *testing.T) {
	password := "correct.Horse7"
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	credentialRow := func(isActive bool) *pgxmock.Rows {
		return pgxmock.NewRows([]string{"user_id", "email", "first_name", "last_name", "password", "is_active"}).
			AddRow(int64(42), "jane@example.com", "Jane", "Doe", string(hash), isActive)
	}

	t.Run("ValidCredentials", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		poolMock.ExpectQuery("SELECT user_id, email, first_name, last_name, password, is_active FROM users").
			WithArgs("jane@example.com").
			WillReturnRows(credentialRow(true))

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/auth/token/").WithJSON(map[string]string{
			"email":    "jane@example.com",
			"password": password,
		}).Expect().Status(http.StatusOK)

		body := response.JSON().Object()
		body.Value("access").String().NotEmpty()
		body.Value("refresh").String().NotEmpty()
		body.Value("user").Object().IsEqual(map[string]interface{}{
			"id":    42,
			"email": "jane@example.com",
			"name":  "Jane Doe",
		})
	})

	t.Run("WrongPassword", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		poolMock.ExpectQuery("SELECT user_id, email, first_name, last_name, password, is_active FROM users").
			WithArgs("jane@example.com").
			WillReturnRows(credentialRow(true))

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/auth/token/").WithJSON(map[string]string{
			"email":    "jane@example.com",
			"password": "wrong.Horse7",
		}).Expect().Status(http.StatusUnauthorized)
		response.JSON().IsEqual(map[string]interface{}{"error": schemas.ErrInvalidCredentials})
	})

	t.Run("PendingAccount", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		poolMock.ExpectQuery("SELECT user_id, email, first_name, last_name, password, is_active FROM users").
			WithArgs("jane@example.com").
			WillReturnRows(credentialRow(false))

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/auth/token/").WithJSON(map[string]string{
			"email":    "jane@example.com",
			"password": password,
		}).Expect().Status(http.StatusUnauthorized)
		response.JSON().IsEqual(map[string]interface{}{"error": schemas.ErrInvalidCredentials})
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		poolMock.ExpectQuery("SELECT user_id, email, first_name, last_name, password, is_active FROM users").
			WithArgs("nobody@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "email", "first_name", "last_name", "password", "is_active"}))

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/auth/token/").WithJSON(map[string]string{
			"email":    "nobody@example.com",
			"password": password,
		}).Expect().Status(http.StatusUnauthorized)
		response.JSON().IsEqual(map[string]interface{}{"error": schemas.ErrInvalidCredentials})
	})
}

func TestTokenRefresh(t *testing.T) {
	activeUser := &schemas.User{
		ID:        42,
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		IsActive:  true,
	}

	t.Run("ValidRefreshToken", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, _ := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		_, refresh, err := jwtMgr.GenerateTokenPair(activeUser)
		if err != nil {
			t.Fatalf("error generating token pair: %v", err)
		}

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/auth/token/refresh/").WithJSON(map[string]string{
			"refresh": refresh,
		}).Expect().Status(http.StatusOK)
		response.JSON().Object().Value("access").String().NotEmpty()
	})

	t.Run("AccessTokenIsNotARefreshToken", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, _ := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		access, _, err := jwtMgr.GenerateTokenPair(activeUser)
		if err != nil {
			t.Fatalf("error generating token pair: %v", err)
		}

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/auth/token/refresh/").WithJSON(map[string]string{
			"refresh": access,
		}).Expect().Status(http.StatusUnauthorized)
		response.JSON().IsEqual(map[string]interface{}{"error": schemas.ErrInvalidRefreshToken})
	})

	t.Run("GarbageToken", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, _ := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/auth/token/refresh/").WithJSON(map[string]string{
			"refresh": "not.a.jwt",
		}).Expect().Status(http.StatusUnauthorized)
		response.JSON().IsEqual(map[string]interface{}{"error": schemas.ErrInvalidRefreshToken})
	})
}

func TestGetMe(t *testing.T) {
	activeUser := &schemas.User{
		ID:        42,
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		IsActive:  true,
	}

	t.Run("AuthenticatedUser", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, poolMock := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		access, _, err := jwtMgr.GenerateTokenPair(activeUser)
		if err != nil {
			t.Fatalf("error generating token pair: %v", err)
		}

		poolMock.ExpectQuery("SELECT user_id, email, first_name, last_name, is_active FROM users").
			WithArgs(activeUser.ID).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "email", "first_name", "last_name", "is_active"}).
				AddRow(activeUser.ID, activeUser.Email, activeUser.FirstName, activeUser.LastName, true))

		expect := httpexpect.Default(t, server.URL)
		response := expect.GET("/users/me").WithHeader("Authorization", "Bearer "+access).
			Expect().Status(http.StatusOK)
		response.JSON().IsEqual(map[string]interface{}{
			"id":    42,
			"email": "jane@example.com",
			"name":  "Jane Doe",
		})
	})

	t.Run("MissingToken", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, _ := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		expect := httpexpect.Default(t, server.URL)
		expect.GET("/users/me").Expect().Status(http.StatusUnauthorized)
	})

	t.Run("RefreshTokenRejected", func(t *testing.T) {
		databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator := setupMocks(t)
		server, _ := startServer(t, databaseMgrMock, queueMgrMock, jwtMgr, tokenGenerator)

		_, refresh, err := jwtMgr.GenerateTokenPair(activeUser)
		if err != nil {
			t.Fatalf("error generating token pair: %v", err)
		}

		expect := httpexpect.Default(t, server.URL)
		expect.GET("/users/me").WithHeader("Authorization", "Bearer "+refresh).
			Expect().Status(http.StatusUnauthorized)
	})
}
