package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-pos-terminal/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOperatorExists     = errors.New("operator already exists")
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

type Operators struct {
	db *gorm.DB
}

func NewOperators(db *gorm.DB) *Operators {
	return &Operators{db: db}
}

// Create hashes the password and stores a new operator.
func (o *Operators) Create(ctx context.Context, username, password, role string) (*models.Operator, error) {
	if role != RoleAdmin {
		role = RoleCashier
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	op := &models.Operator{Username: strings.TrimSpace(username), PasswordHash: string(hash), Role: role}
	var count int64
	if err := o.db.WithContext(ctx).Model(&models.Operator{}).Where("username = ?", op.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrOperatorExists
	}
	if err := o.db.WithContext(ctx).Create(op).Error; err != nil {
		return nil, fmt.Errorf("create operator: %w", err)
	}
	return op, nil
}

// Verify returns the operator when the password matches its bcrypt hash.
func (o *Operators) Verify(ctx context.Context, username, password string) (*models.Operator, error) {
	var op models.Operator
	err := o.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &op, nil
}

func (o *Operators) Count(ctx context.Context) (int64, error) {
	var n int64
	err := o.db.WithContext(ctx).Model(&models.Operator{}).Count(&n).Error
	return n, err
}
