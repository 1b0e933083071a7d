package ports

import (
	"context"

	"dh-release/internal/types"
)

type CommandPort interface {
	Run(ctx context.Context, command types.Command) error
}
