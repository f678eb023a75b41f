package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"brs/src/config"
	"brs/src/db"
	"brs/src/lib"
	"brs/src/models"
	"brs/src/types"
	"brs/src/utils"
)

// AuthenticateLocal reconciles an email/password pair against the account
// store and returns the session the client caches. The admin/admin pair is a
// hardwired operator bypass: both halves compare trimmed and case-insensitive,
// and no account lookup happens. Only the audit append sees the store.
func AuthenticateLocal(ctx context.Context, email string, password string) (*types.SessionData, error) {
	if strings.EqualFold(strings.TrimSpace(email), "admin") && strings.EqualFold(strings.TrimSpace(password), "admin") {
		session := &types.SessionData{
			AccountID: types.ADMIN_SENTINEL_ID,
			Email:     types.ADMIN_SENTINEL_EMAIL,
			Role:      string(types.ROLE_ADMIN),
			FullName:  types.ADMIN_SENTINEL_NAME,
		}
		go lib.CacheSession(context.Background(), session)
		go writeAudit(types.ADMIN_SENTINEL_ID, "Admin login")
		return session, nil
	}

	norm := utils.NormalizeEmail(email)
	conn := db.GetDb()
	var account models.Account
	if err := conn.
		Model(&models.Account{}).
		Where("email = ?", norm).
		Preload("Customer").
		First(&account).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrInvalidCredentials
		}
		log.Printf("Error retrieving account [%s]: %s\n", norm, err.Error())
		return nil, utils.ClassifyStoreError(err)
	}

	if account.Status == string(types.ACCOUNT_DEACTIVATED) {
		return nil, deactivationError(conn, account.ID.String())
	}

	if !utils.VerifyPassword(account.Password, password) {
		return nil, types.ErrInvalidCredentials
	}

	session := sessionFor(&account)
	go lib.CacheSession(context.Background(), session)
	go writeAudit(account.ID.String(), fmt.Sprintf("%s login", capitalize(account.Role)))
	return session, nil
}

// AuthenticateExternal reconciles a provider-verified identity with the local
// account store, provisioning the account and customer profile on first
// sign-in. Side effects that do not gate the login come back as warnings.
func AuthenticateExternal(ctx context.Context, uid string, user *types.ProviderUser) (*types.SessionData, []string, error) {
	warnings := []string{}
	norm := utils.NormalizeEmail(user.Email)
	conn := db.GetDb()

	var account models.Account
	err := conn.
		Model(&models.Account{}).
		Where("email = ?", norm).
		Preload("Customer").
		First(&account).
		Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Error retrieving account [%s]: %s\n", norm, err.Error())
		return nil, warnings, utils.ClassifyStoreError(err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		created, warns, err := provisionExternalAccount(ctx, conn, uid, norm, user)
		warnings = append(warnings, warns...)
		if err != nil {
			return nil, warnings, err
		}
		account = *created
	} else {
		if account.Status == string(types.ACCOUNT_DEACTIVATED) {
			lib.RevokeProviderSession(ctx, uid)
			return nil, warnings, deactivationError(conn, account.ID.String())
		}
		if account.Customer == nil {
			if healErr := healMissingCustomer(conn, &account); healErr != nil {
				warnings = append(warnings, fmt.Sprintf("could not restore customer profile: %s", healErr.Error()))
			}
		}
		if user.AvatarURL != "" && (account.ProfilePicture == nil || *account.ProfilePicture != user.AvatarURL) {
			if err := conn.
				Model(&models.Account{}).
				Where(&models.Account{ID: account.ID}).
				Update("profile_picture", user.AvatarURL).
				Error; err != nil {
				warnings = append(warnings, fmt.Sprintf("could not refresh profile picture: %s", err.Error()))
			} else {
				account.ProfilePicture = &user.AvatarURL
			}
		}
	}

	if account.Customer == nil {
		// Unreachable once healing succeeded; an invariant violation, not a
		// normal login failure.
		lib.RevokeProviderSession(ctx, uid)
		return nil, warnings, types.ErrProfileNotFound
	}

	if err := mirrorProfile(conn, &account, user); err != nil {
		warnings = append(warnings, fmt.Sprintf("could not mirror profile: %s", err.Error()))
	}

	session := sessionFor(&account)
	go lib.CacheSession(context.Background(), session)
	go writeAudit(account.ID.String(), "Google OAuth login")
	return session, warnings, nil
}

// provisionExternalAccount creates the account row and its customer profile.
// The two inserts are deliberately not a transaction: a failed customer
// insert compensates by deleting the fresh account so a retry starts clean.
func provisionExternalAccount(ctx context.Context, conn *gorm.DB, uid string, email string, user *types.ProviderUser) (*models.Account, []string, error) {
	warnings := []string{}
	displayName := user.DisplayName
	if displayName == "" {
		displayName = user.Name
	}
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}
	first, middle, last := utils.ParseDisplayName(displayName)

	account := models.Account{
		Email:        email,
		Role:         string(types.ROLE_CUSTOMER),
		Status:       string(types.ACCOUNT_ACTIVE),
		AuthProvider: string(types.PROVIDER_GOOGLE),
	}
	if user.AvatarURL != "" {
		account.ProfilePicture = &user.AvatarURL
	}
	if err := conn.Create(&account).Error; err != nil {
		log.Printf("Error creating account for [%s]: %s\n", email, err.Error())
		lib.RevokeProviderSession(ctx, uid)
		return nil, warnings, types.ErrProvisioningFailed
	}

	username := user.Handle
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}
	customer := models.Customer{
		AccountID:     account.ID,
		FirstName:     first,
		MiddleName:    middle,
		LastName:      last,
		Email:         email,
		ContactNumber: user.Phone,
		Username:      username,
		Birthdate:     config.DEFAULT_BIRTHDATE,
	}
	if err := conn.Create(&customer).Error; err != nil {
		log.Printf("Error creating customer for [%s]: %s\n", email, err.Error())
		if delErr := conn.Unscoped().Delete(&models.Account{}, account.ID).Error; delErr != nil {
			log.Printf("Compensating delete failed for account [%s]: %s\n", account.ID, delErr.Error())
		}
		lib.RevokeProviderSession(ctx, uid)
		return nil, warnings, types.ErrProvisioningFailed
	}
	account.Customer = &customer
	go writeAudit(account.ID.String(), fmt.Sprintf("Provisioned account for %s via Google", email))
	return &account, warnings, nil
}

// healMissingCustomer restores the customer row for an account that lost it.
// The placeholder names let the customer fix them up in their profile later.
func healMissingCustomer(conn *gorm.DB, account *models.Account) error {
	local, _, _ := strings.Cut(account.Email, "@")
	first, middle, last := utils.ParseDisplayName(local)
	customer := models.Customer{
		AccountID:  account.ID,
		FirstName:  first,
		MiddleName: middle,
		LastName:   last,
		Email:      account.Email,
		Username:   local,
	}
	if err := conn.Create(&customer).Error; err != nil {
		log.Printf("Error restoring customer for [%s]: %s\n", account.Email, err.Error())
		return err
	}
	account.Customer = &customer
	return nil
}

func mirrorProfile(conn *gorm.DB, account *models.Account, user *types.ProviderUser) error {
	fullName := sessionFor(account).FullName
	var profile models.Profile
	err := conn.
		Model(&models.Profile{}).
		Where("email = ?", account.Email).
		First(&profile).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.Profile{
			Email:    account.Email,
			FullName: fullName,
			Phone:    user.Phone,
		}
		return conn.Create(&profile).Error
	}
	if err != nil {
		return err
	}
	updates := map[string]any{"full_name": fullName}
	if user.Phone != "" {
		updates["phone"] = user.Phone
	}
	return conn.Model(&profile).Updates(updates).Error
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sessionFor composes the full name from the customer profile, falling back
// to the account email when no profile exists.
func sessionFor(account *models.Account) *types.SessionData {
	fullName := account.Email
	if account.Customer != nil {
		fullName = utils.ComposeFullName(account.Customer.FirstName, account.Customer.MiddleName, account.Customer.LastName)
	}
	return &types.SessionData{
		AccountID: account.ID.String(),
		Email:     account.Email,
		Role:      account.Role,
		FullName:  fullName,
	}
}

func deactivationError(conn *gorm.DB, accountId string) error {
	var deact models.DeactivatedUser
	if err := conn.
		Model(&models.DeactivatedUser{}).
		Where("account_id = ? AND status = ?", accountId, "deactivated").
		Order("created_at DESC").
		First(&deact).
		Error; err != nil {
		return &types.AccountDeactivatedError{}
	}
	return &types.AccountDeactivatedError{DurationDays: deact.DurationDays}
}

// writeAudit appends to the system log and mirrors the event onto the audit
// topic. Neither failure gates the caller.
func writeAudit(accountId string, action string) {
	conn := db.GetDb()
	entry := models.SystemLog{AccountID: accountId, Action: action}
	if err := conn.Create(&entry).Error; err != nil {
		log.Printf("Error writing audit entry: %s\n", err.Error())
	}
	if err := lib.KafkaProduceMessage(lib.TOPIC_AUDIT, map[string]any{
		"account_id": accountId,
		"action":     action,
	}); err != nil {
		log.Printf("Error publishing audit event: %s\n", err.Error())
	}
}
