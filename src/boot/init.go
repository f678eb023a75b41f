package boot

import (
	"errors"
	"log"
	"os"
	"path"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"brs/src/common"
	"brs/src/db"
	"brs/src/lib"
	awslib "brs/src/lib/aws"
	"brs/src/models"
	"brs/src/types"
	"brs/src/utils"
)

func InitDb() *gorm.DB {
	conn := db.GetDb()

	err := conn.AutoMigrate(
		&models.Account{},
		&models.Customer{},
		&models.DeactivatedUser{},
		&models.BilliardTable{},
		&models.Reservation{},
		&models.SystemLog{},
		&models.Profile{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	SeedAdmin(conn)
	return conn
}

// SeedAdmin provisions a normally stored administrator account so staff are
// not dependent on the hardwired bypass pair.
func SeedAdmin(conn *gorm.DB) {
	email := utils.NormalizeEmail(os.Getenv("ADMIN_EMAIL"))
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set. Skipping admin seed")
		return
	}
	var count int64
	if err := conn.Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		log.Printf("Error checking for seeded admin: %s\n", err.Error())
		return
	}
	if count > 0 {
		return
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("Error hashing seeded admin password: %s\n", err.Error())
		return
	}
	account := models.Account{
		Email:        email,
		Role:         string(types.ROLE_ADMIN),
		Status:       string(types.ACCOUNT_ACTIVE),
		AuthProvider: string(types.PROVIDER_LOCAL),
		Password:     &hashed,
	}
	if err := conn.Create(&account).Error; err != nil {
		log.Printf("Error seeding admin account: %s\n", err.Error())
		return
	}
	customer := models.Customer{
		AccountID: account.ID,
		FirstName: "System",
		LastName:  "Administrator",
		Email:     email,
		Username:  "admin",
	}
	if err := conn.Create(&customer).Error; err != nil {
		log.Printf("Error seeding admin profile: %s\n", err.Error())
		if delErr := conn.Unscoped().Delete(&models.Account{}, account.ID).Error; delErr != nil {
			log.Printf("Compensating delete failed for seeded admin: %s\n", delErr.Error())
		}
		return
	}
	log.Printf("Seeded admin account [%s]\n", email)
}

func InitBroker() {
	go lib.KafkaCreateTopics(lib.TOPIC_AUDIT, lib.TOPIC_CHECKIN)
	go common.SNSSubscribes()
	go common.SQSConsumers()
}

func InitScheduler() {
	id, err := lib.CreateCronJob(ReactivateExpiredDeactivations, time.Hour)
	if err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return
	}
	log.Printf("Job ID: %s\n", *id)

	if _, err := lib.CreateCronJob(SweepTempAssets, 6*time.Hour); err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return
	}

	// Lift any deactivations that expired while the service was down.
	if _, err := lib.CreateOneTimeCronJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()),
		gocron.NewTask(ReactivateExpiredDeactivations),
	); err != nil {
		log.Printf("Error running job: %s\n", err.Error())
	}

	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}

// ReactivateExpiredDeactivations flips accounts back to active once their
// deactivation window has lapsed.
func ReactivateExpiredDeactivations() {
	conn := db.GetDb()
	now := time.Now()
	var expired []models.DeactivatedUser
	if err := conn.
		Model(&models.DeactivatedUser{}).
		Where("status = ? AND deactivated_until IS NOT NULL AND deactivated_until < ?", "deactivated", now).
		Find(&expired).
		Error; err != nil {
		log.Printf("Error retrieving expired deactivations: %s\n", err.Error())
		return
	}
	for _, record := range expired {
		if err := conn.Transaction(func(tx *gorm.DB) error {
			if err := tx.
				Model(&models.Account{}).
				Where("id = ?", record.AccountID).
				Update("status", string(types.ACCOUNT_ACTIVE)).
				Error; err != nil {
				return err
			}
			return tx.
				Model(&models.DeactivatedUser{}).
				Where("id = ?", record.ID).
				Update("status", "lifted").
				Error
		}); err != nil {
			log.Printf("Error reactivating account [%s]: %s\n", record.AccountID, err.Error())
			continue
		}
		log.Printf("Reactivated account [%s]\n", record.AccountID)
	}
}

// SweepTempAssets clears slip images older than a day from the temp dir.
func SweepTempAssets() {
	tempdir := os.Getenv("TEMP_DIR")
	entries, err := os.ReadDir(tempdir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(path.Join(tempdir, entry.Name()))
		}
	}
}

// DownloadServiceKeyFromS3 fetches the identity provider admin credentials
// at boot when they are not already mounted.
func DownloadServiceKeyFromS3() {
	filename := "admin-sdk-credentials.json"
	secretsDir := os.Getenv("SECRETS_DIR")
	keyFilePath := path.Join(secretsDir, filename)
	_, err := os.Stat(keyFilePath)
	if errors.Is(err, os.ErrNotExist) {
		log.Println("File not found. Downloading...")
		if err := awslib.S3DownloadSecret(filename); err != nil {
			log.Printf("[S3] Error retrieving object: %s\n", err.Error())
			return
		}
		log.Println("File has been written")
		return
	}
	log.Println("File exists!")
}
