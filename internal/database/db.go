package database

import (
	"log"
	"time"

	"taskhub/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var DB *gorm.DB

func Init(dsn, adminEmail, adminPassword string) {
	var err error

	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		log.Printf("trying to connect to DB (attempt %d/%d)...", i, maxAttempts)

		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			log.Println("connected to DB successfully")
			break
		}

		log.Printf("failed to connect to DB: %v", err)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		log.Fatalf("failed to connect to db after %d attempts: %v", maxAttempts, err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	// создаём дефолтного админа
	createDefaultAdmin(adminEmail, adminPassword)
}

// миграции
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Container{},
		&models.Member{},
		&models.Board{},
		&models.Task{},
		&models.TaskMember{},
		&models.TimeEntry{},
		&models.Log{},
		&models.Activity{},
		&models.Notification{},
		&models.Payment{},
	); err != nil {
		return err
	}

	// не больше одной открытой записи на пару (task, user)
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_time_entry ON time_entries (task_id, user_id) WHERE "end" IS NULL AND deleted_at IS NULL`).Error
}

// LockForUpdate блокирует выбранные строки до конца транзакции.
// sqlite (тесты) блокировок строк не поддерживает, там транзакции
// и так последовательны.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// админ только из кода/конфига
func createDefaultAdmin(email, password string) {
	var count int64
	if err := DB.Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		log.Printf("failed to check admin user: %v", err)
		return
	}
	if count > 0 {
		// админ уже есть — ничего не делаем
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("failed to hash default admin password: %v", err)
		return
	}

	admin := models.User{
		FirstName:    "Admin",
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}

	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("failed to create default admin: %v", err)
		return
	}

	log.Printf("created default admin user: %s (password: %s)", email, password)
}
