package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"

	"brs/src/db"
	"brs/src/middlewares"
	"brs/src/models"
	"brs/src/types"
	"brs/src/utils"
)

type TestSuite struct {
	suite.Suite
	DB    *gorm.DB
	Token string
}

func (s *TestSuite) SetupSuite() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("birthdate", birthdateValidatorFunc)
	}

	d, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	if err := d.AutoMigrate(
		&models.Account{},
		&models.Customer{},
		&models.DeactivatedUser{},
		&models.BilliardTable{},
		&models.Reservation{},
		&models.SystemLog{},
		&models.Profile{},
	); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}
	db.NewDB(d)
	s.DB = d

	token, err := utils.GenerateJWT(types.ADMIN_SENTINEL_EMAIL, types.ADMIN_SENTINEL_ID, string(types.ROLE_ADMIN))
	if err != nil {
		log.Fatalf("Error generating JWT token: %s\n", err.Error())
	}
	s.Token = token
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Setenv("MAINTENANCE_MODE", "false")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestLoginBypass() {
	router := setupRouter()
	guestAuthRoutes(router)

	jbody := map[string]any{
		"email":    "admin",
		"password": "admin",
	}
	sbody, _ := json.Marshal(&jbody)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(string(sbody)))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	body := w.Body.String()
	assert.Equal(s.T(), "0000", gjson.Get(body, "session.account_id").String())
	assert.Equal(s.T(), "admin", gjson.Get(body, "session.role").String())
	assert.NotEmpty(s.T(), gjson.Get(body, "token").String())
}

func (s *TestSuite) TestLoginRejectsUnknownUser() {
	router := setupRouter()
	guestAuthRoutes(router)

	jbody := map[string]any{
		"email":    "nobody@example.com",
		"password": "whatever1",
	}
	sbody, _ := json.Marshal(&jbody)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(string(sbody)))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)
	errMsg := gjson.Get(w.Body.String(), "error").String()
	assert.NotEmpty(s.T(), errMsg)
}

func (s *TestSuite) TestRegisterValidation() {
	router := setupRouter()
	guestAuthRoutes(router)

	// Missing password and birthdate must fail binding.
	jbody := map[string]any{
		"email":      "someone@example.com",
		"first_name": "Some",
		"last_name":  "One",
	}
	sbody, _ := json.Marshal(&jbody)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(string(sbody)))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 400, w.Code)
}

func (s *TestSuite) TestDeviceRegistrationRequiresProviderToken() {
	router := setupRouter()
	guestAuthRoutes(router)

	jbody := map[string]any{"token": "device-token", "topics": []string{"Notifications"}}
	sbody, _ := json.Marshal(&jbody)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/fcm", strings.NewReader(string(sbody)))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)
}

func (s *TestSuite) TestCheckInRoutes() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(middlewares.AuthMiddleware)
	checkInHandlers(apiv1)

	s.Require().NoError(s.DB.Create(&models.BilliardTable{ID: 7, Name: "Table 7"}).Error)
	s.Require().NoError(s.DB.Create(&models.Reservation{
		ReservationNo: "202508291015304321",
		TableID:       7,
		Status:        "approved",
		PaymentMethod: types.PAYMENT_METHOD_GCASH,
	}).Error)

	s.Run("Should require a token", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"query": "202508291015304321"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/checkin/find", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)
		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("Should reject a bare bearer header", func() {
		for _, header := range []string{"Bearer", "Bearer "} {
			w := httptest.NewRecorder()
			jbody := map[string]any{"query": "202508291015304321"}
			sbody, _ := json.Marshal(&jbody)
			req, _ := http.NewRequest("POST", "/api/v1/checkin/find", strings.NewReader(string(sbody)))
			req.Header.Set("Authorization", header)
			router.ServeHTTP(w, req)
			assert.Equal(s.T(), 401, w.Code, "header %q", header)
		}
	})

	s.Run("Should find the reservation", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"query": "202508291015304321"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/checkin/find", strings.NewReader(string(sbody)))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		body := w.Body.String()
		assert.Equal(s.T(), "202508291015304321", gjson.Get(body, "data.reservation_no").String())
		assert.True(s.T(), gjson.Get(body, "verdict.auto_proceed").Bool())
	})

	s.Run("Should report a missing reservation", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"query": "000000000000000000"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/checkin/find", strings.NewReader(string(sbody)))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 404, w.Code)
		assert.Equal(s.T(), "000000000000000000", gjson.Get(w.Body.String(), "query").String())
	})

	s.Run("Should decode a QR payload", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"payload": `{"reservationNo":"202508291015304321"}`}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/checkin/decode", strings.NewReader(string(sbody)))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "202508291015304321", gjson.Get(w.Body.String(), "data.reservation_no").String())
	})

	s.Run("Should reject GCash confirmation without reference", func() {
		var reservation models.Reservation
		s.Require().NoError(s.DB.Where("reservation_no = ?", "202508291015304321").First(&reservation).Error)

		w := httptest.NewRecorder()
		jbody := map[string]any{"reservation_id": reservation.ID}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/checkin/confirm", strings.NewReader(string(sbody)))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 422, w.Code)
	})
}

func (s *TestSuite) TestReservationRoutes() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(middlewares.AuthMiddleware)
	reservationHandlers(apiv1)

	s.Run("Should return list of reservations with 200 status", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/reservations", nil)
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
	})

	s.Run("Should require q for suggestions", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/reservations/suggestions", nil)
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
