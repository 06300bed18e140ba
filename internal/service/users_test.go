package service

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func pngUpload(t *testing.T, field string) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 24)...))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File[field][0]
}

func (f *fixture) register(t *testing.T, name, email string) *models.User {
	t.Helper()
	u, err := f.userSvc.Register(f.ctx, name, email, "secret123")
	require.NoError(t, err)
	return u
}

func TestRegisterCreatesActiveCustomer(t *testing.T) {
	f := newFixture(t)

	u := f.register(t, " Ana ", "  Ana@Example.COM ")

	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, models.RoleCustomer, u.RoleID)
	assert.Equal(t, models.StatusActive, u.StatusID)
	assert.Equal(t, placeholderUser, u.ProfileImage)
	assert.NotEqual(t, "secret123", u.PasswordHash)
}

func TestRegisterValidationAndConflict(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ana", "ana@example.com")

	_, err := f.userSvc.Register(f.ctx, "Other", "ANA@example.com", "secret123")
	assert.ErrorIs(t, err, ErrConflict)

	var verr *ValidationError
	_, err = f.userSvc.Register(f.ctx, "", "x@example.com", "secret123")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = f.userSvc.Register(f.ctx, "X", "not-an-email", "secret123")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	_, err = f.userSvc.Register(f.ctx, "X", "x@example.com", "123")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)
}

func TestLoginDoesNotRevealWhichPartFailed(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ana", "ana@example.com")

	u, err := f.userSvc.Login(f.ctx, "ANA@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)

	_, wrongPassword := f.userSvc.Login(f.ctx, "ana@example.com", "wrong-password")
	_, unknownEmail := f.userSvc.Login(f.ctx, "nobody@example.com", "secret123")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginDeactivatedOnlyAfterCorrectPassword(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "Ana", "ana@example.com")

	_, err := f.userSvc.AdminUpdate(f.ctx, u.ID.Hex(), models.UserUpdate{StatusID: ptr(models.StatusDeactivated)})
	require.NoError(t, err)

	_, err = f.userSvc.Login(f.ctx, "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.userSvc.Login(f.ctx, "ana@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUserDeactivated)
}

func TestIsAdmin(t *testing.T) {
	f := newFixture(t)
	customer := f.register(t, "Ana", "ana@example.com")

	isAdmin, err := f.userSvc.IsAdmin(f.ctx, customer.ID.Hex())
	require.NoError(t, err)
	assert.False(t, isAdmin)

	_, err = f.userSvc.AdminUpdate(f.ctx, customer.ID.Hex(), models.UserUpdate{RoleID: ptr(models.RoleAdmin)})
	require.NoError(t, err)

	isAdmin, err = f.userSvc.IsAdmin(f.ctx, customer.ID.Hex())
	require.NoError(t, err)
	assert.True(t, isAdmin)

	_, err = f.userSvc.IsAdmin(f.ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.userSvc.IsAdmin(f.ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminUpdate(t *testing.T) {
	f := newFixture(t)
	ana := f.register(t, "Ana", "ana@example.com")
	f.register(t, "Bob", "bob@example.com")

	_, err := f.userSvc.AdminUpdate(f.ctx, ana.ID.Hex(), models.UserUpdate{Email: ptr("BOB@example.com")})
	assert.ErrorIs(t, err, ErrConflict)

	var verr *ValidationError
	_, err = f.userSvc.AdminUpdate(f.ctx, ana.ID.Hex(), models.UserUpdate{RoleID: ptr(7)})
	assert.ErrorAs(t, err, &verr)

	_, err = f.userSvc.AdminUpdate(f.ctx, ana.ID.Hex(), models.UserUpdate{StatusID: ptr(0)})
	assert.ErrorAs(t, err, &verr)

	updated, err := f.userSvc.AdminUpdate(f.ctx, ana.ID.Hex(), models.UserUpdate{Name: ptr("Ana María"), Password: ptr("newpass1")})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.Name)

	_, err = f.userSvc.Login(f.ctx, "ana@example.com", "newpass1")
	assert.NoError(t, err)
}

func TestUpdateProfileReplacesImage(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "Ana", "ana@example.com")
	f.writeUpload(t, placeholderUser)

	first, err := f.userSvc.UpdateProfile(f.ctx, u.ID.Hex(), ProfileUpdate{Image: pngUpload(t, "profileImage")})
	require.NoError(t, err)
	assert.NotEqual(t, placeholderUser, first.ProfileImage)
	assert.True(t, f.exists(first.ProfileImage))
	assert.True(t, f.exists(placeholderUser))

	second, err := f.userSvc.UpdateProfile(f.ctx, u.ID.Hex(), ProfileUpdate{Name: ptr("Ana B"), Image: pngUpload(t, "profileImage")})
	require.NoError(t, err)
	assert.Equal(t, "Ana B", second.Name)
	assert.False(t, f.exists(first.ProfileImage))
	assert.True(t, f.exists(second.ProfileImage))

	var verr *ValidationError
	_, err = f.userSvc.UpdateProfile(f.ctx, u.ID.Hex(), ProfileUpdate{})
	assert.ErrorAs(t, err, &verr)

	_, err = f.userSvc.UpdateProfile(f.ctx, u.ID.Hex(), ProfileUpdate{Password: ptr("123")})
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "Ana", "ana@example.com")

	require.NoError(t, f.userSvc.Delete(f.ctx, u.ID.Hex()))
	assert.ErrorIs(t, f.userSvc.Delete(f.ctx, u.ID.Hex()), ErrNotFound)

	_, err := f.userSvc.Get(f.ctx, u.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.userSvc.EnsureAdmin(f.ctx, "Root", "root@example.com", "rootpass"))
	admin, err := f.userSvc.Login(f.ctx, "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	// Idempotente
	require.NoError(t, f.userSvc.EnsureAdmin(f.ctx, "Root", "root@example.com", "rootpass"))
	users, err := f.userSvc.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	// Promueve una cuenta existente
	ana := f.register(t, "Ana", "ana@example.com")
	require.NoError(t, f.userSvc.EnsureAdmin(f.ctx, "Ana", "ana@example.com", "ignored"))
	isAdmin, err := f.userSvc.IsAdmin(f.ctx, ana.ID.Hex())
	require.NoError(t, err)
	assert.True(t, isAdmin)
}
