package listings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"programhub/internal/app/commands"
	"programhub/internal/app/dto"
	"programhub/internal/app/handlers/support"
	"programhub/internal/app/outbox"
	"programhub/internal/app/policies"
)

const uploadPhotoKey = "host.listings.photos.upload"

type UploadPhotoCommand struct {
	HostID      string
	ListingID   string
	FileName    string
	ContentType string
	Data        []byte
}

func (c UploadPhotoCommand) Key() string { return uploadPhotoKey }

func (c UploadPhotoCommand) RequiredRole() string { return policies.RoleHost }

type UploadPhotoHandler struct {
	Uploader policies.PhotoUploader
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
	Now      func() time.Time
}

func (h *UploadPhotoHandler) Handle(ctx context.Context, cmd UploadPhotoCommand) (*dto.HostListingPhotoUploadResult, error) {
	if h.Uploader == nil {
		return nil, errors.New("photo uploader unavailable")
	}
	if len(cmd.Data) == 0 {
		return nil, ErrEmptyPhoto
	}
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := loadOwned(ctx, unit, cmd.HostID, cmd.ListingID)
	if err != nil {
		return nil, err
	}

	objectName := photoObjectName(cmd.ListingID, cmd.FileName)
	publicURL, err := h.Uploader.Upload(ctx, objectName, cmd.Data, cmd.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	if err := listing.AddPhoto(publicURL, now); err != nil {
		return nil, err
	}
	if err := saveAndRecord(ctx, unit.Listings(), h.Outbox, h.Encoder, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing photo added", "listing_id", listing.ID, "host_id", cmd.HostID, "object_key", objectName)
	}
	return &dto.HostListingPhotoUploadResult{
		ListingID: string(listing.ID),
		Photos:    append([]string(nil), listing.Photos...),
		URL:       publicURL,
	}, nil
}

// photoObjectName keeps the original extension so the storage backend can serve the right type.
func photoObjectName(listingID, fileName string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	return "listings/" + listingID + "/" + uuid.NewString() + ext
}

var _ commands.Handler[UploadPhotoCommand, *dto.HostListingPhotoUploadResult] = (*UploadPhotoHandler)(nil)
