package service

import (
	"context"

	"TradeMirror/internal/domain/models"
)

// ProfileSource supplies reference investor style vectors. Vectors must live
// in the same [0,1]^4 coordinate space the engine emits, or alignment scores
// are meaningless.
type ProfileSource interface {
	Profiles(ctx context.Context) ([]models.ReferenceProfile, error)
	Vector(ctx context.Context, name string) (models.StyleVector, error)
}
