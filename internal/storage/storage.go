package storage

import (
	"errors"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cafelist/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// Store wraps the database handle. Handlers receive it explicitly
// rather than reading a package global.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the sqlite database at path and
// migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Cafe{},
		&models.Review{},
	); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// translate maps gorm/driver errors onto the store's sentinel errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	// Older sqlite driver versions surface the raw constraint message.
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return ErrDuplicate
	default:
		return err
	}
}

func (s *Store) CreateCafe(cafe *models.Cafe) error {
	return translate(s.db.Create(cafe).Error)
}

// CafeByID loads a cafe with its owner and reviews (review authors included).
func (s *Store) CafeByID(id uint) (*models.Cafe, error) {
	var cafe models.Cafe
	err := s.db.
		Preload("User").
		Preload("Reviews").
		Preload("Reviews.User").
		First(&cafe, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cafe, nil
}

// ListCafes returns all cafes ordered by name ascending.
func (s *Store) ListCafes() ([]models.Cafe, error) {
	var cafes []models.Cafe
	if err := s.db.Order("name asc").Find(&cafes).Error; err != nil {
		return nil, translate(err)
	}
	return cafes, nil
}

// DeleteCafe removes a cafe and its reviews in one transaction.
func (s *Store) DeleteCafe(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var cafe models.Cafe
		if err := tx.First(&cafe, id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("cafe_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return translate(err)
		}
		return translate(tx.Delete(&cafe).Error)
	})
}

func (s *Store) CreateUser(user *models.User) error {
	return translate(s.db.Create(user).Error)
}

func (s *Store) UserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) UserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) CreateReview(review *models.Review) error {
	return translate(s.db.Create(review).Error)
}
