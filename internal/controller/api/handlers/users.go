package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kumarDivyanshu/summarizer/internal/database"
)

type UsersHandler struct {
	store *database.Store
}

func NewUsersHandler(store *database.Store) *UsersHandler {
	return &UsersHandler{store: store}
}

type CreateUserInput struct {
	Body struct {
		Email    string `json:"email" format:"email" minLength:"3" doc:"Owner email, receives summary notifications"`
		FullName string `json:"full_name,omitempty" doc:"Display name"`
	}
}

type UserBody struct {
	UserID    int32     `json:"user_id" doc:"User ID"`
	Email     string    `json:"email" doc:"Email address"`
	FullName  string    `json:"full_name,omitempty" doc:"Display name"`
	CreatedAt time.Time `json:"created_at" doc:"Registration time"`
}

func (h *UsersHandler) Create(ctx context.Context, input *CreateUserInput) (*DataOutput[UserBody], error) {
	u, err := h.store.InsertUser(ctx, strings.ToLower(strings.TrimSpace(input.Body.Email)), strings.TrimSpace(input.Body.FullName))
	if err != nil {
		// The unique constraint on email is the common failure here.
		return nil, huma.Error409Conflict("could not create user", err)
	}
	return OK(UserBody{
		UserID:    u.UserID,
		Email:     u.Email,
		FullName:  u.FullName.String,
		CreatedAt: u.CreatedAt,
	}), nil
}
