// Package publish copies the synced profile to its destination.
package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"ovpnsync/internal/types"
	"ovpnsync/internal/utils"
)

// FolderLocator resolves the root of the external folder
type FolderLocator interface {
	LocateBusinessRoot() (string, error)
}

// Receipt describes a publish
type Receipt struct {
	// Target is the absolute path dest resolved to
	Target string
	// Copied is false when an existing target was left alone
	Copied bool
}

// Publisher copies files to local or external folder destinations
type Publisher struct {
	locator FolderLocator
	logger  *zap.Logger
}

// New creates a publisher. locator may be nil when no external folder
// destination is used.
func New(locator FolderLocator, logger *zap.Logger) *Publisher {
	return &Publisher{
		locator: locator,
		logger:  logger,
	}
}

// Resolve returns the absolute filesystem path of dest
func (p *Publisher) Resolve(dest Destination) (string, error) {
	switch dest.Kind {
	case KindLocal:
		return filepath.Abs(dest.Path)
	case KindExternalFolder:
		if p.locator == nil {
			return "", fmt.Errorf("no locator configured for %s", dest)
		}
		root, err := p.locator.LocateBusinessRoot()
		if err != nil {
			return "", err
		}
		return filepath.Abs(filepath.Join(root, filepath.FromSlash(dest.Path)))
	default:
		return "", fmt.Errorf("unsupported destination kind: %s", dest.Kind)
	}
}

// Publish copies source to dest. When dest already exists and overwrite is
// false nothing is written.
func (p *Publisher) Publish(ctx context.Context, source string, dest Destination, overwrite bool) (Receipt, error) {
	const op = "publish.Publish"

	if err := ctx.Err(); err != nil {
		return Receipt{}, types.NewError(types.KindPublish, op, err)
	}

	target, err := p.Resolve(dest)
	if err != nil {
		return Receipt{}, types.NewError(types.KindPublish, op, fmt.Errorf("failed to resolve %s: %w", dest, err))
	}

	if !overwrite && utils.IsFileExists(target) {
		p.logger.Debug("Destination exists, skipping publish",
			zap.String("destination", target))
		return Receipt{Target: target}, nil
	}

	src, err := filepath.Abs(source)
	if err != nil {
		return Receipt{Target: target}, types.NewError(types.KindPublish, op, err)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return Receipt{Target: target}, types.NewError(types.KindPublish, op, fmt.Errorf("failed to read source: %w", err))
	}

	perm := os.FileMode(0644)
	if st, err := os.Stat(target); err == nil {
		perm = st.Mode().Perm()
	}
	if err := utils.WriteFileAtomic(target, data, perm); err != nil {
		return Receipt{Target: target}, types.NewError(types.KindPublish, op, fmt.Errorf("failed to write %s: %w", target, err))
	}

	p.logger.Info(fmt.Sprintf("Published %q\nto %q.", src, target),
		zap.String("source", src),
		zap.String("destination", target),
		zap.Stringer("kind", dest.Kind))
	return Receipt{Target: target, Copied: true}, nil
}
