package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,max=8"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"password_confirm" validate:"eqfield=Password"`
}

func TestStruct_Valid(t *testing.T) {
	verr := Struct(signup{Username: "alice", Email: "a@example.com", Password: "12345678", Confirm: "12345678"})
	require.NotNil(t, verr)
	assert.Empty(t, verr.Fields)
	assert.NoError(t, verr.OrNil())
}

func TestStruct_FieldErrorsUseJSONNames(t *testing.T) {
	verr := Struct(signup{Username: "much-too-long", Email: "nope", Password: "short", Confirm: "other"})

	assert.Equal(t, []FieldError{
		{Field: "username", Message: "must be at most 8 characters"},
		{Field: "email", Message: "invalid email address"},
		{Field: "password", Message: "must be at least 8 characters"},
		{Field: "password_confirm", Message: "must match password"},
	}, verr.Fields)
}

func TestStruct_Required(t *testing.T) {
	verr := Struct(signup{})
	assert.True(t, verr.Has("username"))
	assert.True(t, verr.Has("email"))
	assert.True(t, verr.Has("password"))
	assert.Equal(t, "this field is required", verr.Fields[0].Message)
}

func TestStruct_MaxCountsRunes(t *testing.T) {
	type post struct {
		Body string `json:"body" validate:"required,max=3"`
	}
	assert.Empty(t, Struct(post{Body: "äöü"}).Fields)
	assert.True(t, Struct(post{Body: "äöüß"}).Has("body"))
}

func TestError_IsAndAs(t *testing.T) {
	err := fmt.Errorf("edit profile: %w", New("username", "please use a different username"))

	assert.True(t, errors.Is(err, common.ErrorValidation))
	assert.False(t, errors.Is(err, common.ErrorNotFound))

	verr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "username", verr.Fields[0].Field)
	assert.Equal(t, "validation error: username: please use a different username", verr.Error())

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestError_AddAndOrNil(t *testing.T) {
	var nilErr *Error
	assert.NoError(t, nilErr.OrNil())

	verr := &Error{}
	assert.NoError(t, verr.OrNil())

	verr.Add("email", "please use a different email address").Add("username", "taken")
	assert.Error(t, verr.OrNil())
	assert.Len(t, verr.Fields, 2)
}
