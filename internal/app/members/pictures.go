package members

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/ports/out/blobstore"
)

// pictureTypes maps accepted image content types to the extension used in blob keys.
var pictureTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// SetPicture stores a new profile picture and releases the previous one. The declared
// content type must match the sniffed one.
func (s *Service) SetPicture(ctx context.Context, id domain.MemberID, up PictureUpload) (domain.Member, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return domain.Member{}, err
	}
	if up.Body == nil {
		return domain.Member{}, pictureInvalid("picture is required")
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, s.PictureMaxBytes+1))
	if err != nil {
		return domain.Member{}, fmt.Errorf("read picture: %w", err)
	}
	if int64(len(data)) > s.PictureMaxBytes {
		return domain.Member{}, &Error{
			Status:  http.StatusRequestEntityTooLarge,
			Code:    CodePictureTooBig,
			Message: "picture is too large",
			Details: map[string]any{"maxBytes": s.PictureMaxBytes},
		}
	}
	if len(data) == 0 {
		return domain.Member{}, pictureInvalid("picture is empty")
	}
	sniffed := http.DetectContentType(data)
	ext, ok := pictureTypes[sniffed]
	if !ok {
		return domain.Member{}, pictureInvalid("picture must be a JPEG, PNG, WebP or GIF image")
	}
	if up.ContentType != "" {
		declared, _, err := mime.ParseMediaType(up.ContentType)
		if err != nil || declared != sniffed {
			return domain.Member{}, pictureInvalid("declared content type does not match the image")
		}
	}

	key := fmt.Sprintf("members/%s/picture-%s.%s", m.ID, s.newBlobName(), ext)
	if err := s.blobs.Put(ctx, key, sniffed, bytes.NewReader(data), int64(len(data))); err != nil {
		return domain.Member{}, fmt.Errorf("store picture: %w", err)
	}

	previous := m.PictureKey
	m.PictureKey = &key
	m.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, m); err != nil {
		s.deleteBlob(ctx, key)
		return domain.Member{}, fmt.Errorf("update member picture: %w", err)
	}
	if previous != nil {
		s.deleteBlob(ctx, *previous)
	}
	s.logger.Info("member picture updated", zap.String("memberId", string(m.ID)), zap.Int("bytes", len(data)))
	return toDomain(m), nil
}

func (s *Service) RemovePicture(ctx context.Context, id domain.MemberID) error {
	m, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if m.PictureKey == nil {
		return pictureMissing()
	}
	key := *m.PictureKey
	m.PictureKey = nil
	m.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, m); err != nil {
		return fmt.Errorf("clear member picture: %w", err)
	}
	s.deleteBlob(ctx, key)
	return nil
}

// OpenPicture returns a presigned URL when the blob store supports it, and a stream otherwise.
// The caller closes Picture.Body.
func (s *Service) OpenPicture(ctx context.Context, id domain.MemberID) (Picture, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return Picture{}, err
	}
	if m.PictureKey == nil {
		return Picture{}, pictureMissing()
	}
	if p, ok := s.blobs.(blobstore.Presigner); ok {
		url, err := p.PresignGet(ctx, *m.PictureKey)
		if err != nil {
			return Picture{}, fmt.Errorf("presign picture: %w", err)
		}
		return Picture{RedirectURL: url}, nil
	}
	rc, obj, err := s.blobs.Get(ctx, *m.PictureKey)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return Picture{}, pictureMissing()
		}
		return Picture{}, fmt.Errorf("open picture: %w", err)
	}
	return Picture{Body: rc, ContentType: obj.ContentType, Size: obj.Size}, nil
}

func pictureInvalid(msg string) *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodePictureInvalid,
		Message: msg,
	}
}

func pictureMissing() *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    CodePictureMissing,
		Message: "member has no picture",
	}
}
