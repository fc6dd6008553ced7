// Package media acquires photos for tasks. On a desktop host the "gallery"
// is any image file on disk and the "camera" is a directory a capture device
// drops pictures into. Only the resulting file URI is ever stored.
package media

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-list/internal/config"
	"task-list/internal/errors"
)

// CameraPermissionMessage is shown when the camera cannot be used.
const CameraPermissionMessage = "camera permission is required to take photos"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".heic": true,
	".webp": true,
}

// Permission is the outcome of the camera permission check
type Permission int

const (
	PermissionDenied Permission = iota
	PermissionGranted
)

func (p Permission) String() string {
	if p == PermissionGranted {
		return "granted"
	}
	return "denied"
}

// Result is a picked or captured image. Canceled means the user backed out
// and URI is empty.
type Result struct {
	URI      string
	Canceled bool
}

// Service picks and captures images
type Service struct {
	cameraEnabled bool
	captureDir    string
	libraryDir    string
	logger        *zap.Logger
	newName       func() string
}

// NewService creates a media service from the media configuration
func NewService(cfg config.MediaConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cameraEnabled: cfg.CameraEnabled,
		captureDir:    cfg.CaptureDir,
		libraryDir:    cfg.LibraryDir,
		logger:        logger,
		newName:       func() string { return uuid.New().String() },
	}
}

// IsImagePath reports whether path has a supported image extension.
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// FileURI converts an absolute filesystem path into a file:// URI.
func FileURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// CheckCameraPermission reports whether photos can be captured. The camera
// must be enabled and its capture directory readable.
func (s *Service) CheckCameraPermission(ctx context.Context) Permission {
	if !s.cameraEnabled {
		s.logger.Debug("camera disabled by configuration")
		return PermissionDenied
	}
	if s.captureDir == "" {
		return PermissionDenied
	}
	if _, err := os.ReadDir(s.captureDir); err != nil {
		s.logger.Debug("camera capture directory not readable",
			zap.String("dir", s.captureDir),
			zap.Error(err))
		return PermissionDenied
	}
	return PermissionGranted
}

// PickImage selects an existing image from disk. An empty path means the
// user cancelled the picker.
func (s *Service) PickImage(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(path) == "" {
		return Result{Canceled: true}, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{}, errors.NewInvalidInputError("image", path, err.Error())
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, errors.NewInvalidInputError("image", path, "file does not exist")
		}
		return Result{}, errors.NewInvalidInputError("image", path, err.Error())
	}
	if !info.Mode().IsRegular() {
		return Result{}, errors.NewInvalidInputError("image", path, "not a regular file")
	}
	if !IsImagePath(abs) {
		return Result{}, errors.NewInvalidInputError("image", path, "unsupported image type")
	}

	uri := FileURI(abs)
	s.logger.Debug("image picked", zap.String("uri", uri))
	return Result{URI: uri}, nil
}

// CapturePhoto takes the newest image in the capture directory and copies it
// into the photo library under a fresh name. No image means the capture was
// cancelled.
func (s *Service) CapturePhoto(ctx context.Context) (Result, error) {
	if s.CheckCameraPermission(ctx) != PermissionGranted {
		permErr := errors.NewPermissionError("capture photo", "camera")
		permErr.Message = CameraPermissionMessage
		return Result{}, permErr
	}

	source, err := s.newestCapture()
	if err != nil {
		return Result{}, err
	}
	if source == "" {
		s.logger.Debug("no captured photo found", zap.String("dir", s.captureDir))
		return Result{Canceled: true}, nil
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(s.libraryDir, 0755); err != nil {
		return Result{}, fmt.Errorf("create photo library: %w", err)
	}

	dest := filepath.Join(s.libraryDir, s.newName()+strings.ToLower(filepath.Ext(source)))
	if err := copyFileAtomic(source, dest); err != nil {
		return Result{}, fmt.Errorf("store captured photo: %w", err)
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		return Result{}, err
	}
	uri := FileURI(abs)
	s.logger.Debug("photo captured", zap.String("source", source), zap.String("uri", uri))
	return Result{URI: uri}, nil
}

func (s *Service) newestCapture() (string, error) {
	entries, err := os.ReadDir(s.captureDir)
	if err != nil {
		return "", fmt.Errorf("read capture directory: %w", err)
	}

	var newest string
	var newestInfo fs.FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !IsImagePath(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newestInfo == nil || info.ModTime().After(newestInfo.ModTime()) {
			newest = filepath.Join(s.captureDir, entry.Name())
			newestInfo = info
		}
	}
	return newest, nil
}

// copyFileAtomic copies src to a temp file next to dst and renames it into
// place, so a reader never observes a partial photo.
func copyFileAtomic(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, dst)
}
