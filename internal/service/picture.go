package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/noteboard/internal/logger"
	"github.com/dtroode/noteboard/internal/model"
)

// MaxPictureSize bounds uploaded profile pictures.
const MaxPictureSize = 5 << 20

// PicturePath is the route prefix uploaded pictures are served under.
const PicturePath = "/pictures/"

const defaultProbeTimeout = 5 * time.Second

// sniffLen is how many leading bytes http.DetectContentType looks at.
const sniffLen = 512

// pictureTypes are the media types accepted for uploads, with the key
// extension each is stored under.
var pictureTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var errBlockedAddress = errors.New("address not allowed")

// Picture manages profile pictures: uploads kept in object storage and
// externally hosted picture URLs.
type Picture struct {
	storage   model.Storage
	client    *http.Client
	publicURL string
	logger    *logger.Logger
}

// NewPicture creates the picture service. storage may be nil, in which case
// uploads are refused and only external URLs are accepted. A nil client is
// replaced with ProbeClient.
func NewPicture(storage model.Storage, client *http.Client, publicURL string, logger *logger.Logger) *Picture {
	if client == nil {
		client = ProbeClient(defaultProbeTimeout)
	}
	return &Picture{
		storage:   storage,
		client:    client,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

// Upload stores a picture for userID and returns the URL it is served at.
// The stored type is detected from the content; declared is the type the
// browser reported and must name an accepted type when set.
func (s *Picture) Upload(ctx context.Context, userID string, reader io.Reader, size int64, declared string) (string, error) {
	if s.storage == nil {
		return "", model.ErrOperationNotAllowed
	}
	if size <= 0 || size > MaxPictureSize {
		return "", model.ErrInvalidPicture
	}
	if declared != "" {
		if _, ok := pictureTypes[mediaType(declared)]; !ok {
			return "", model.ErrInvalidPicture
		}
	}

	head := make([]byte, min(size, sniffLen))
	n, err := io.ReadFull(reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", model.ErrInvalidPicture
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := pictureTypes[contentType]
	if !ok {
		s.logger.Debug("Picture service: upload rejected",
			"user_id", userID,
			"declared", declared,
			"detected", contentType)
		return "", model.ErrInvalidPicture
	}

	key := userID + "-" + uuid.NewString() + ext
	body := io.MultiReader(bytes.NewReader(head), reader)
	if err := s.storage.Upload(ctx, key, body, size, contentType); err != nil {
		s.logger.Error("Picture service: failed to upload picture",
			"user_id", userID,
			"error", err.Error())
		return "", fmt.Errorf("failed to upload picture: %w", err)
	}

	s.logger.Info("Picture service: picture uploaded",
		"user_id", userID,
		"key", key,
		"size", size)

	return s.publicURL + PicturePath + key, nil
}

// Open returns an uploaded picture for serving.
func (s *Picture) Open(ctx context.Context, key string) (model.Object, error) {
	if s.storage == nil || key == "" || strings.Contains(key, "/") {
		return model.Object{}, model.ErrNotFound
	}

	obj, err := s.storage.Download(ctx, key)
	if err != nil {
		return model.Object{}, err
	}
	return obj, nil
}

// Remove deletes pictureURL from storage if it is an upload owned by userID.
// Foreign URLs are left alone.
func (s *Picture) Remove(ctx context.Context, userID, pictureURL string) error {
	key, ok := s.ownKey(pictureURL)
	if !ok || s.storage == nil || !strings.HasPrefix(key, userID+"-") {
		return nil
	}

	if err := s.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete picture: %w", err)
	}
	return nil
}

// Validate checks that pictureURL points to an image. An empty URL clears the
// picture and is always valid.
func (s *Picture) Validate(ctx context.Context, pictureURL string) error {
	pictureURL = strings.TrimSpace(pictureURL)
	if pictureURL == "" {
		return nil
	}

	if key, ok := s.ownKey(pictureURL); ok {
		if s.storage == nil {
			return model.ErrInvalidPicture
		}
		exists, err := s.storage.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to check picture: %w", err)
		}
		if !exists {
			return model.ErrInvalidPicture
		}
		return nil
	}

	u, err := url.Parse(pictureURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.ErrInvalidPicture
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return model.ErrInvalidPicture
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		s.logger.Debug("Picture service: probe failed",
			"url", pictureURL,
			"error", err.Error())
		return model.ErrInvalidPicture
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !isImage(resp.Header.Get("Content-Type")) {
		return model.ErrInvalidPicture
	}
	return nil
}

func (s *Picture) ownKey(pictureURL string) (string, bool) {
	prefix := s.publicURL + PicturePath
	if !strings.HasPrefix(pictureURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(pictureURL, prefix)
	if key == "" || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}

func isImage(contentType string) bool {
	return strings.HasPrefix(mediaType(contentType), "image/")
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}

// ProbeClient returns the client used to check external picture URLs. It
// only connects to public addresses and does not follow redirects.
func ProbeClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout: timeout,
		Control: refuseInternal,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// refuseInternal runs after name resolution, so it sees the address that is
// actually dialed.
func refuseInternal(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", errBlockedAddress, address)
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublic(ip) {
		return fmt.Errorf("%w: %s", errBlockedAddress, address)
	}
	return nil
}

func isPublic(ip net.IP) bool {
	return !ip.IsLoopback() &&
		!ip.IsPrivate() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsInterfaceLocalMulticast() &&
		!ip.IsMulticast() &&
		!ip.IsUnspecified()
}
