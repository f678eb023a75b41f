package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"brs/src/db"
	"brs/src/models"
	"brs/src/types"
	"brs/src/utils"
)

type AccountsTestSuite struct {
	suite.Suite
	conn *gorm.DB
}

func (s *AccountsTestSuite) SetupTest() {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(conn.AutoMigrate(
		&models.Account{},
		&models.Customer{},
		&models.DeactivatedUser{},
		&models.Profile{},
		&models.SystemLog{},
	))
	s.conn = conn
	db.NewDB(conn)
}

func (s *AccountsTestSuite) createAccount(email, password string) *models.Account {
	hashed, err := utils.HashPassword(password)
	s.Require().NoError(err)
	account := models.Account{
		Email:        utils.NormalizeEmail(email),
		Role:         string(types.ROLE_CUSTOMER),
		Status:       string(types.ACCOUNT_ACTIVE),
		AuthProvider: string(types.PROVIDER_LOCAL),
		Password:     &hashed,
	}
	s.Require().NoError(s.conn.Create(&account).Error)
	return &account
}

func (s *AccountsTestSuite) createCustomer(account *models.Account, first string, middle *string, last string) *models.Customer {
	customer := models.Customer{
		AccountID: account.ID,
		FirstName: first,
		MiddleName: middle,
		LastName:  last,
		Email:     account.Email,
	}
	s.Require().NoError(s.conn.Create(&customer).Error)
	return &customer
}

func (s *AccountsTestSuite) TestAdminBypass() {
	// The sentinel pair must work with no account rows at all. Both halves
	// compare trimmed and case-insensitive.
	pairs := [][2]string{
		{"admin", "admin"},
		{"ADMIN", "admin"},
		{"Admin", "admin"},
		{"admin", "ADMIN"},
		{"ADMIN", "ADMIN"},
		{"ADMIN", " Admin "},
		{" admin ", "admin"},
	}
	for _, pair := range pairs {
		session, err := AuthenticateLocal(context.Background(), pair[0], pair[1])
		s.Require().NoError(err, "pair %q/%q", pair[0], pair[1])
		s.Equal(types.ADMIN_SENTINEL_ID, session.AccountID)
		s.Equal(types.ADMIN_SENTINEL_EMAIL, session.Email)
		s.Equal(string(types.ROLE_ADMIN), session.Role)
		s.Equal(types.ADMIN_SENTINEL_NAME, session.FullName)
	}
}

func (s *AccountsTestSuite) TestAdminBypassWrongPassword() {
	_, err := AuthenticateLocal(context.Background(), "admin", "hunter2")
	s.ErrorIs(err, types.ErrInvalidCredentials)
}

func (s *AccountsTestSuite) TestAdminBypassWritesAudit() {
	_, err := AuthenticateLocal(context.Background(), "admin", "admin")
	s.Require().NoError(err)

	s.Eventually(func() bool {
		var count int64
		s.conn.Model(&models.SystemLog{}).
			Where("account_id = ? AND action = ?", types.ADMIN_SENTINEL_ID, "Admin login").
			Count(&count)
		return count >= 1
	}, time.Second, 10*time.Millisecond)
}

func (s *AccountsTestSuite) TestLocalLoginCaseInsensitiveEmail() {
	account := s.createAccount("A@X.com", "secret123")
	middle := "Q."
	s.createCustomer(account, "Jane", &middle, "Public")

	session, err := AuthenticateLocal(context.Background(), "a@x.COM", "secret123")
	s.Require().NoError(err)
	s.Equal(account.ID.String(), session.AccountID)
	s.Equal("Jane Q. Public", session.FullName)
}

func (s *AccountsTestSuite) TestLocalLoginWrongPassword() {
	s.createAccount("jane@example.com", "secret123")
	_, err := AuthenticateLocal(context.Background(), "jane@example.com", "wrong")
	s.ErrorIs(err, types.ErrInvalidCredentials)
}

func (s *AccountsTestSuite) TestLocalLoginUnknownEmail() {
	_, err := AuthenticateLocal(context.Background(), "nobody@example.com", "secret123")
	s.ErrorIs(err, types.ErrInvalidCredentials)
}

func (s *AccountsTestSuite) TestLocalLoginMissingProfileFallsBackToEmail() {
	s.createAccount("jane@example.com", "secret123")
	session, err := AuthenticateLocal(context.Background(), "jane@example.com", "secret123")
	s.Require().NoError(err)
	s.Equal("jane@example.com", session.FullName)
}

func (s *AccountsTestSuite) TestLocalLoginDeactivatedSingleDay() {
	account := s.createAccount("jane@example.com", "secret123")
	s.Require().NoError(s.conn.Model(&models.Account{}).
		Where(&models.Account{ID: account.ID}).
		Update("status", string(types.ACCOUNT_DEACTIVATED)).Error)
	s.Require().NoError(s.conn.Create(&models.DeactivatedUser{
		AccountID:    account.ID,
		DurationDays: 1,
	}).Error)

	_, err := AuthenticateLocal(context.Background(), "jane@example.com", "secret123")
	var deact *types.AccountDeactivatedError
	s.Require().True(errors.As(err, &deact))
	s.Equal("Your account has been deactivated for 1 day.", deact.Error())
}

func (s *AccountsTestSuite) TestLocalLoginDeactivatedPlural() {
	account := s.createAccount("jane@example.com", "secret123")
	s.Require().NoError(s.conn.Model(&models.Account{}).
		Where(&models.Account{ID: account.ID}).
		Update("status", string(types.ACCOUNT_DEACTIVATED)).Error)
	s.Require().NoError(s.conn.Create(&models.DeactivatedUser{
		AccountID:    account.ID,
		DurationDays: 7,
	}).Error)

	_, err := AuthenticateLocal(context.Background(), "jane@example.com", "secret123")
	var deact *types.AccountDeactivatedError
	s.Require().True(errors.As(err, &deact))
	s.Equal("Your account has been deactivated for 7 days.", deact.Error())
}

func (s *AccountsTestSuite) TestLocalLoginDeactivatedIgnoresLiftedRows() {
	account := s.createAccount("jane@example.com", "secret123")
	s.Require().NoError(s.conn.Model(&models.Account{}).
		Where(&models.Account{ID: account.ID}).
		Update("status", string(types.ACCOUNT_DEACTIVATED)).Error)
	s.Require().NoError(s.conn.Create(&models.DeactivatedUser{
		AccountID:    account.ID,
		DurationDays: 7,
	}).Error)
	// A newer, already lifted row must not supply the day count.
	s.Require().NoError(s.conn.Create(&models.DeactivatedUser{
		AccountID:    account.ID,
		DurationDays: 3,
		Status:       "lifted",
	}).Error)

	_, err := AuthenticateLocal(context.Background(), "jane@example.com", "secret123")
	var deact *types.AccountDeactivatedError
	s.Require().True(errors.As(err, &deact))
	s.Equal("Your account has been deactivated for 7 days.", deact.Error())
}

func (s *AccountsTestSuite) TestLocalLoginDeactivatedWithOnlyLiftedRows() {
	account := s.createAccount("jane@example.com", "secret123")
	s.Require().NoError(s.conn.Model(&models.Account{}).
		Where(&models.Account{ID: account.ID}).
		Update("status", string(types.ACCOUNT_DEACTIVATED)).Error)
	s.Require().NoError(s.conn.Create(&models.DeactivatedUser{
		AccountID:    account.ID,
		DurationDays: 3,
		Status:       "lifted",
	}).Error)

	_, err := AuthenticateLocal(context.Background(), "jane@example.com", "secret123")
	var deact *types.AccountDeactivatedError
	s.Require().True(errors.As(err, &deact))
	s.Equal("Your account has been deactivated.", deact.Error())
}

func (s *AccountsTestSuite) TestExternalFirstSignInProvisions() {
	user := &types.ProviderUser{
		Email:       "Jane.Doe@Gmail.com",
		DisplayName: "Jane Q. Public",
		AvatarURL:   "https://example.com/avatar.jpg",
	}
	session, _, err := AuthenticateExternal(context.Background(), "", user)
	s.Require().NoError(err)
	s.Equal("jane.doe@gmail.com", session.Email)
	s.Equal("Jane Q. Public", session.FullName)
	s.Equal(string(types.ROLE_CUSTOMER), session.Role)

	var customer models.Customer
	s.Require().NoError(s.conn.Where("email = ?", "jane.doe@gmail.com").First(&customer).Error)
	s.Equal("Jane", customer.FirstName)
	s.Require().NotNil(customer.MiddleName)
	s.Equal("Q.", *customer.MiddleName)
	s.Equal("Public", customer.LastName)
}

func (s *AccountsTestSuite) TestExternalSignInIsIdempotent() {
	user := &types.ProviderUser{Email: "jane@gmail.com", DisplayName: "Jane Doe"}
	_, _, err := AuthenticateExternal(context.Background(), "", user)
	s.Require().NoError(err)
	_, _, err = AuthenticateExternal(context.Background(), "", user)
	s.Require().NoError(err)

	var accounts int64
	s.conn.Model(&models.Account{}).Count(&accounts)
	s.Equal(int64(1), accounts)
	var customers int64
	s.conn.Model(&models.Customer{}).Count(&customers)
	s.Equal(int64(1), customers)
}

func (s *AccountsTestSuite) TestExternalCompensatingDelete() {
	// Dropping the customers table forces the second insert of the
	// provisioning sequence to fail.
	s.Require().NoError(s.conn.Migrator().DropTable(&models.Customer{}))

	user := &types.ProviderUser{Email: "jane@gmail.com", DisplayName: "Jane Doe"}
	_, _, err := AuthenticateExternal(context.Background(), "", user)
	s.ErrorIs(err, types.ErrProvisioningFailed)

	var accounts int64
	s.conn.Model(&models.Account{}).Where("email = ?", "jane@gmail.com").Count(&accounts)
	s.Equal(int64(0), accounts)
}

func (s *AccountsTestSuite) TestExternalDeactivatedAccount() {
	account := s.createAccount("jane@gmail.com", "irrelevant")
	s.Require().NoError(s.conn.Model(&models.Account{}).
		Where(&models.Account{ID: account.ID}).
		Update("status", string(types.ACCOUNT_DEACTIVATED)).Error)

	user := &types.ProviderUser{Email: "jane@gmail.com", DisplayName: "Jane Doe"}
	_, _, err := AuthenticateExternal(context.Background(), "", user)
	var deact *types.AccountDeactivatedError
	s.True(errors.As(err, &deact))
}

func (s *AccountsTestSuite) TestExternalHealsMissingCustomer() {
	s.createAccount("jane@gmail.com", "irrelevant")

	user := &types.ProviderUser{Email: "jane@gmail.com"}
	session, _, err := AuthenticateExternal(context.Background(), "", user)
	s.Require().NoError(err)
	s.NotEmpty(session.FullName)

	var customers int64
	s.conn.Model(&models.Customer{}).Count(&customers)
	s.Equal(int64(1), customers)
}

func (s *AccountsTestSuite) TestExternalRefreshesAvatar() {
	account := s.createAccount("jane@gmail.com", "irrelevant")
	s.createCustomer(account, "Jane", nil, "Doe")

	user := &types.ProviderUser{Email: "jane@gmail.com", AvatarURL: "https://example.com/new.jpg"}
	_, _, err := AuthenticateExternal(context.Background(), "", user)
	s.Require().NoError(err)

	var refreshed models.Account
	s.Require().NoError(s.conn.First(&refreshed, account.ID).Error)
	s.Require().NotNil(refreshed.ProfilePicture)
	s.Equal("https://example.com/new.jpg", *refreshed.ProfilePicture)
}

func TestAccountsTestSuite(t *testing.T) {
	suite.Run(t, new(AccountsTestSuite))
}
