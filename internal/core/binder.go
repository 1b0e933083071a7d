package core

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/rs/zerolog/log"

	"dh-release/internal/ports"
	"dh-release/internal/types"
)

// SymlinkBinder keeps a stable link pointing at a target. Binding is
// idempotent: a second identical call finds the resolved paths equal and
// leaves the link alone.
type SymlinkBinder struct {
	fs ports.LinkFSPort
}

func NewSymlinkBinder(fs ports.LinkFSPort) SymlinkBinder {
	return SymlinkBinder{fs: fs}
}

// Bind creates link -> target or repoints link when it currently resolves
// elsewhere. A relative target is interpreted from the link's directory,
// the same way the kernel resolves it. An existing dangling link counts
// as present and is compared like any other.
func (b SymlinkBinder) Bind(ctx context.Context, link string, target string) (types.BindingResult, error) {
	assert.NotEmpty(ctx, link, "link must be set")
	assert.NotEmpty(ctx, target, "target must be set")
	result := types.BindingResult{Binding: types.SymlinkBinding{Link: link, Target: target}}

	if _, err := b.fs.Lstat(link); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return result, types.SymlinkMutationError(link, "cannot inspect link", err)
		}
		log.Info().Str("link", link).Str("target", target).Msg("creating symlink")
		if err := b.fs.Symlink(target, link); err != nil {
			return result, types.SymlinkMutationError(link, "cannot create link", err)
		}
		result.Action = types.BindActionCreated
		return result, nil
	}

	current, err := b.fs.RealPath(link)
	if err != nil {
		return result, types.SymlinkMutationError(link, "cannot resolve link", err)
	}
	wanted, err := b.fs.RealPath(resolveTarget(link, target))
	if err != nil {
		return result, types.SymlinkMutationError(link, "cannot resolve target "+target, err)
	}
	if current == wanted {
		result.Action = types.BindActionUnchanged
		return result, nil
	}

	log.Info().Str("link", link).Str("target", target).Str("previous", current).Msg("updating symlink")
	if err := b.fs.Remove(link); err != nil {
		return result, types.SymlinkMutationError(link, "cannot remove existing entry", err)
	}
	if err := b.fs.Symlink(target, link); err != nil {
		return result, types.SymlinkMutationError(link, "removed but not recreated", err)
	}
	result.Action = types.BindActionUpdated
	return result, nil
}

func resolveTarget(link string, target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(filepath.Dir(link), target)
}
