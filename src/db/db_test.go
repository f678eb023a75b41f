package db

import (
	"log"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

func GetMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	gormDB, mock := NewMockDB()
	db = gormDB
	return gormDB, mock
}

func TestGetDbReturnsInjectedHandle(t *testing.T) {
	gormDB, _ := NewMockDB()
	NewDB(gormDB)

	assert.Same(t, gormDB, GetDb())
	assert.Equal(t, "postgres", GetDb().Name())
}

func TestQueriesReachTheConnPool(t *testing.T) {
	gormDB, mock := GetMockDB()

	mock.ExpectQuery(`SELECT \* FROM "reservations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_no"}).
			AddRow(1, "202508291015304321"))

	var row struct {
		ID            uint
		ReservationNo string
	}
	err := gormDB.Table("reservations").Take(&row).Error
	assert.NoError(t, err)
	assert.Equal(t, "202508291015304321", row.ReservationNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}
