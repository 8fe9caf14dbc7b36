package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kokonsdelche/dg-sub000/internal/domain"
	"github.com/Kokonsdelche/dg-sub000/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// DefaultAccessExpiry is used when the configured expiry is missing
	DefaultAccessExpiry = 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is deactivated")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims represents the JWT claims
type Claims struct {
	UserID  uuid.UUID `json:"user_id"`
	IsAdmin bool      `json:"is_admin"`
	jwt.RegisteredClaims
}

// RegisterInput carries the fields needed to open an account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Address   domain.Address
}

// ProfileUpdateInput carries the profile fields a user may edit.
type ProfileUpdateInput struct {
	FirstName string
	LastName  string
	Phone     string
	Address   domain.Address
}

// Profile is a user together with the storefront data shown on the account
// page.
type Profile struct {
	User         *domain.User      `json:"user"`
	RecentOrders []*domain.Order   `json:"recent_orders"`
	Favorites    []*domain.Product `json:"favorites"`
}

// UserService defines the interface for account business logic
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (token string, user *domain.User, err error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	ValidateToken(tokenString string) (*Claims, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileUpdateInput) (*domain.User, error)
	AddFavorite(ctx context.Context, userID, productID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, productID uuid.UUID) error
}

type userService struct {
	userRepo     repository.UserRepository
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	jwtSecret    string
	accessExpiry time.Duration
}

// NewUserService creates a new instance of UserService
func NewUserService(
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	jwtSecret string,
	accessExpiryMinutes int,
) UserService {
	expiry := DefaultAccessExpiry
	if accessExpiryMinutes > 0 {
		expiry = time.Duration(accessExpiryMinutes) * time.Minute
	}

	return &userService{
		userRepo:     userRepo,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		jwtSecret:    jwtSecret,
		accessExpiry: expiry,
	}
}

// Register creates a new active account with a hashed password and returns
// a signed token so the client is logged in immediately.
func (s *userService) Register(ctx context.Context, input RegisterInput) (string, *domain.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), BcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: string(hashedPassword),
		Address:      input.Address,
		IsAdmin:      false,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if err == repository.ErrUserAlreadyExists {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}

// Login authenticates a user and returns a JWT. A correct password on a
// deactivated account is still rejected and no token is issued.
func (s *userService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return "", nil, ErrAccountDisabled
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *userService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetProfile returns the user with their recent orders and favorites.
func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	orders, _, err := s.orderRepo.ListByUser(ctx, userID, repository.OrderFilter{PageSize: 5})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}

	favorites, err := s.userRepo.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}

	return &Profile{User: user, RecentOrders: orders, Favorites: favorites}, nil
}

// UpdateProfile applies the editable profile fields and returns the
// refreshed user.
func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileUpdateInput) (*domain.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Phone = input.Phone
	user.Address = input.Address

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if err == repository.ErrUserAlreadyExists {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.GetUserByID(ctx, userID)
}

// AddFavorite marks a product as a favorite of the user.
func (s *userService) AddFavorite(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return err
	}
	return s.userRepo.AddFavorite(ctx, userID, productID)
}

// RemoveFavorite removes a product from the user's favorites.
func (s *userService) RemoveFavorite(ctx context.Context, userID, productID uuid.UUID) error {
	return s.userRepo.RemoveFavorite(ctx, userID, productID)
}

// generateToken signs a JWT carrying the user id and admin flag.
func (s *userService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
