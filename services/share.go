package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/hamzab/drivebox-backend/apperrors"
	"github.com/hamzab/drivebox-backend/models"
	"github.com/hamzab/drivebox-backend/repository"
)

// ShareService mints and resolves share links. Passwords are stored only as
// bcrypt hashes; expiry is evaluated at resolve time, links are never swept.
type ShareService struct {
	links   *repository.ShareLinkRepository
	files   *repository.FileRepository
	folders *repository.FolderRepository
	audit   *repository.AuditLogRepository
	now     func() time.Time
}

func NewShareService(links *repository.ShareLinkRepository, files *repository.FileRepository, folders *repository.FolderRepository, audit *repository.AuditLogRepository) *ShareService {
	return &ShareService{
		links:   links,
		files:   files,
		folders: folders,
		audit:   audit,
		now:     time.Now,
	}
}

func (s *ShareService) CreateLink(ctx context.Context, creatorID uuid.UUID, kind models.ResourceType, resourceID uuid.UUID, expiresAt *time.Time, password string, allowDownload bool) (*models.ShareLink, error) {
	if err := s.checkResource(ctx, creatorID, kind, resourceID); err != nil {
		return nil, err
	}

	link := &models.ShareLink{
		ID:            shortuuid.New(),
		ResourceType:  kind,
		ResourceID:    resourceID,
		CreatorID:     creatorID,
		ExpiresAt:     expiresAt,
		AllowDownload: allowDownload,
	}
	if password != "" {
		hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash := string(hashBytes)
		link.PasswordHash = &hash
	}

	if err := s.links.Create(ctx, link); err != nil {
		return nil, err
	}

	s.audit.Append(ctx, &models.AuditLogEntry{
		ActorID:    creatorID,
		Action:     "share.create",
		TargetType: string(kind),
		TargetID:   resourceID.String(),
		Metadata:   fmt.Sprintf(`{"link":%q}`, link.ID),
	})
	return link, nil
}

// ResolvedShare is what a visitor gets back from a valid link.
type ResolvedShare struct {
	Link   *models.ShareLink
	File   *models.File
	Folder *models.Folder
}

// ResolveLink validates a link in order: existence, expiry, password, and
// finally the target itself — a target that was purged or trashed after the
// link was minted resolves to NotFound, never to stale content.
func (s *ShareService) ResolveLink(ctx context.Context, linkID, suppliedPassword string) (*ResolvedShare, error) {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.ExpiresAt != nil && s.now().After(*link.ExpiresAt) {
		return nil, fmt.Errorf("%w: link %s", apperrors.ErrExpired, linkID)
	}
	if link.PasswordHash != nil {
		// bcrypt's compare is constant-time over the supplied password.
		if bcrypt.CompareHashAndPassword([]byte(*link.PasswordHash), []byte(suppliedPassword)) != nil {
			return nil, apperrors.ErrWrongPassword
		}
	}

	resolved := &ResolvedShare{Link: link}
	switch link.ResourceType {
	case models.ResourceFile:
		file, err := s.files.GetByID(ctx, link.ResourceID)
		if err != nil {
			return nil, err
		}
		if file.DeletedAt != nil {
			return nil, fmt.Errorf("%w: shared file is gone", apperrors.ErrNotFound)
		}
		resolved.File = file
	case models.ResourceFolder:
		folder, err := s.folders.GetByID(ctx, link.ResourceID)
		if err != nil {
			return nil, err
		}
		if folder.DeletedAt != nil {
			return nil, fmt.Errorf("%w: shared folder is gone", apperrors.ErrNotFound)
		}
		resolved.Folder = folder
	default:
		return nil, fmt.Errorf("%w: unknown resource type %q", apperrors.ErrInvalidInput, link.ResourceType)
	}
	return resolved, nil
}

func (s *ShareService) ListLinks(ctx context.Context, creatorID uuid.UUID) ([]models.ShareLink, error) {
	return s.links.ListByCreator(ctx, creatorID.String())
}

func (s *ShareService) RevokeLink(ctx context.Context, creatorID uuid.UUID, linkID string) error {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return err
	}
	if link.CreatorID != creatorID {
		return fmt.Errorf("%w: link %s", apperrors.ErrUnauthorized, linkID)
	}
	if err := s.links.Delete(ctx, linkID); err != nil {
		return err
	}
	s.audit.Append(ctx, &models.AuditLogEntry{
		ActorID:    creatorID,
		Action:     "share.revoke",
		TargetType: string(link.ResourceType),
		TargetID:   link.ResourceID.String(),
		Metadata:   fmt.Sprintf(`{"link":%q}`, linkID),
	})
	return nil
}

// GetOwnedLink fetches a link for owner-side endpoints (QR rendering).
func (s *ShareService) GetOwnedLink(ctx context.Context, creatorID uuid.UUID, linkID string) (*models.ShareLink, error) {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.CreatorID != creatorID {
		return nil, fmt.Errorf("%w: link %s", apperrors.ErrUnauthorized, linkID)
	}
	return link, nil
}

// The resource must exist, be active, and belong to the creator at mint time.
func (s *ShareService) checkResource(ctx context.Context, creatorID uuid.UUID, kind models.ResourceType, resourceID uuid.UUID) error {
	switch kind {
	case models.ResourceFile:
		file, err := s.files.GetOwned(ctx, resourceID, creatorID)
		if err != nil {
			return err
		}
		if file.DeletedAt != nil {
			return fmt.Errorf("%w: file %s is in the trash", apperrors.ErrNotFound, resourceID)
		}
	case models.ResourceFolder:
		folder, err := s.folders.GetOwned(ctx, resourceID, creatorID)
		if err != nil {
			return err
		}
		if folder.DeletedAt != nil {
			return fmt.Errorf("%w: folder %s is in the trash", apperrors.ErrNotFound, resourceID)
		}
	default:
		return fmt.Errorf("%w: unknown resource type %q", apperrors.ErrInvalidInput, kind)
	}
	return nil
}
