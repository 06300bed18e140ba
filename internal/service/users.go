package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/models"
	"storefront/internal/repository"
)

const minPasswordLength = 6

// ProfileUpdate son los cambios que un usuario puede hacer sobre su cuenta
type ProfileUpdate struct {
	Name     *string
	Password *string
	Image    *multipart.FileHeader
}

type UserService struct {
	users        UserStore
	images       ImageStore
	defaultImage string
	cost         int
	dummyHash    []byte
	log          *logrus.Logger
}

func NewUserService(users UserStore, images ImageStore, defaultImage string, logger *logrus.Logger) *UserService {
	return newUserService(users, images, defaultImage, bcrypt.DefaultCost, logger)
}

func newUserService(users UserStore, images ImageStore, defaultImage string, cost int, logger *logrus.Logger) *UserService {
	// Hash de relleno para que un email desconocido tarde lo mismo que una
	// contraseña incorrecta
	dummy, err := bcrypt.GenerateFromPassword([]byte("storefront-dummy-password"), cost)
	if err != nil {
		logger.Fatalf("Users: failed to prepare dummy hash: %v", err)
	}
	return &UserService{
		users:        users,
		images:       images,
		defaultImage: defaultImage,
		cost:         cost,
		dummyHash:    dummy,
		log:          logger,
	}
}

// Register crea siempre una cuenta de cliente activa
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	s.log.Infof("Users: attempting registration for email: %s", email)

	if name == "" {
		return nil, invalid("name", "name is required")
	}
	if !isValidEmail(email) {
		return nil, invalid("email", "invalid email format")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		StatusID:     models.StatusActive,
		RoleID:       models.RoleCustomer,
		ProfileImage: s.defaultImage,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			s.log.Warnf("Users: registration rejected, email already exists: %s", email)
			return nil, conflict("email is already registered")
		}
		s.log.Errorf("Users: failed to create user %s: %v", email, err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Infof("Users: user registered. ID: %s", user.ID.Hex())
	return user, nil
}

// Login devuelve el mismo error para email desconocido y contraseña
// incorrecta. El estado de la cuenta solo se revela con la contraseña correcta.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Errorf("Users: error retrieving user %s during login: %v", email, err)
			return nil, fmt.Errorf("find user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.log.Warnf("Users: login failed for %s", email)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warnf("Users: login failed for %s", email)
		return nil, ErrInvalidCredentials
	}

	if user.IsDeactivated() {
		s.log.Warnf("Users: deactivated account tried to log in: %s", user.ID.Hex())
		return nil, ErrUserDeactivated
	}

	s.log.Infof("Users: login successful for user %s", user.ID.Hex())
	return user, nil
}

func (s *UserService) Get(ctx context.Context, rawID string) (*models.User, error) {
	id, err := parseID("id", rawID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, rawID)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		s.log.Errorf("Users: failed to list users: %v", err)
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Authenticate resuelve el usuario que hace la petición. Un id mal formado
// o desconocido es ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, rawID string) (*models.User, error) {
	user, err := s.Get(ctx, rawID)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) || errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.IsDeactivated() {
		return nil, ErrUserDeactivated
	}
	return user, nil
}

// IsAdmin indica si el id pertenece a un administrador activo
func (s *UserService) IsAdmin(ctx context.Context, rawID string) (bool, error) {
	user, err := s.Authenticate(ctx, rawID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

// UpdateProfile aplica los cambios del propio usuario: nombre, contraseña e imagen
func (s *UserService) UpdateProfile(ctx context.Context, rawID string, in ProfileUpdate) (*models.User, error) {
	id, err := parseID("id", rawID)
	if err != nil {
		return nil, err
	}

	var upd models.UserUpdate
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name", "name cannot be empty")
		}
		upd.Name = &name
	}
	if in.Password != nil {
		if err := s.setPassword(&upd, *in.Password); err != nil {
			return nil, err
		}
	}
	if upd.Name == nil && upd.PasswordHash == nil && in.Image == nil {
		return nil, invalid("body", "no valid fields to update")
	}

	current, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, rawID)
	}

	if in.Image != nil {
		filename, err := s.UploadProfileImage(in.Image)
		if err != nil {
			return nil, err
		}
		upd.ProfileImage = &filename
	}

	user, err := s.users.Update(ctx, id, upd)
	if err != nil {
		if upd.ProfileImage != nil {
			s.removeImage(*upd.ProfileImage)
		}
		return nil, s.lookupError(err, rawID)
	}

	if upd.ProfileImage != nil {
		s.removeImage(current.ProfileImage)
	}
	s.log.Infof("Users: profile updated for user %s", rawID)
	return user, nil
}

// AdminUpdate permite a un administrador cambiar cualquier campo de la cuenta
func (s *UserService) AdminUpdate(ctx context.Context, rawID string, upd models.UserUpdate) (*models.User, error) {
	id, err := parseID("id", rawID)
	if err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		return nil, invalid("body", "no valid fields to update")
	}

	upd.PasswordHash = nil
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, invalid("name", "name cannot be empty")
		}
		upd.Name = &name
	}
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		if !isValidEmail(email) {
			return nil, invalid("email", "invalid email format")
		}
		upd.Email = &email
	}
	if upd.StatusID != nil && *upd.StatusID != models.StatusActive && *upd.StatusID != models.StatusDeactivated {
		return nil, invalid("status_id", "status_id must be %d or %d", models.StatusActive, models.StatusDeactivated)
	}
	if upd.RoleID != nil && *upd.RoleID != models.RoleAdmin && *upd.RoleID != models.RoleCustomer {
		return nil, invalid("role_id", "role_id must be %d or %d", models.RoleAdmin, models.RoleCustomer)
	}
	if upd.Password != nil {
		if err := s.setPassword(&upd, *upd.Password); err != nil {
			return nil, err
		}
	}
	upd.Password = nil

	user, err := s.users.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, conflict("email is already registered")
		}
		return nil, s.lookupError(err, rawID)
	}

	s.log.WithFields(logrus.Fields{"id": rawID, "role_id": user.RoleID, "status_id": user.StatusID}).Info("Users: account updated by admin")
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID("id", rawID)
	if err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return s.lookupError(err, rawID)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return s.lookupError(err, rawID)
	}

	s.removeImage(user.ProfileImage)
	s.log.Infof("Users: user %s deleted", rawID)
	return nil
}

// UploadProfileImage guarda la imagen y devuelve solo el nombre del archivo
func (s *UserService) UploadProfileImage(fh *multipart.FileHeader) (string, error) {
	publicPath, err := s.images.Save(fh, "profile")
	if err != nil {
		return "", err
	}
	return path.Base(publicPath), nil
}

// EnsureAdmin crea la cuenta de administrador configurada, o la reactiva y
// le devuelve el rol si ya existía.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() && !existing.IsDeactivated() {
			s.log.Infof("Users: admin account %s already present", email)
			return nil
		}
		role, status := models.RoleAdmin, models.StatusActive
		if _, err := s.users.Update(ctx, existing.ID, models.UserUpdate{RoleID: &role, StatusID: &status}); err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
		s.log.Infof("Users: account %s promoted to admin", email)
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("find admin: %w", err)
	}

	user, err := s.Register(ctx, name, email, password)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	role := models.RoleAdmin
	if _, err := s.users.Update(ctx, user.ID, models.UserUpdate{RoleID: &role}); err != nil {
		return fmt.Errorf("promote admin: %w", err)
	}
	s.log.Infof("Users: admin account %s created", email)
	return nil
}

func (s *UserService) setPassword(upd *models.UserUpdate, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	upd.PasswordHash = &hash
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		s.log.Errorf("Users: failed to hash password: %v", err)
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *UserService) lookupError(err error, rawID string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("user")
	}
	s.log.Errorf("Users: operation on user %s failed: %v", rawID, err)
	return fmt.Errorf("user %s: %w", rawID, err)
}

func (s *UserService) removeImage(ref string) {
	if s.images.IsPlaceholder(ref) {
		return
	}
	if err := s.images.Remove(ref); err != nil {
		s.log.Warnf("Users: could not remove image %s: %v", ref, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isValidEmail es una comprobación básica: una @ y un dominio con punto
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	domainParts := strings.Split(parts[1], ".")
	return len(domainParts) >= 2 && domainParts[0] != "" && domainParts[len(domainParts)-1] != ""
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return invalid("password", "password must be at least %d characters long", minPasswordLength)
	}
	return nil
}
