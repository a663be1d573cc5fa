package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Tkdue/magicsearch/internal/asset"
	"github.com/apibillme/cache"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// DriveAPI is the subset of Google Drive the sinks need.
type DriveAPI interface {
	CreateFolder(ctx context.Context, name, parent string) (string, error)
	Upload(ctx context.Context, name, parent string, data []byte) (string, error)
}

// NewDriveAPI authenticates with a service account key. When subject is set
// the account impersonates that user.
func NewDriveAPI(ctx context.Context, credentialsJSON []byte, subject string) (DriveAPI, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("drive credentials are required")
	}
	cfg, err := google.JWTConfigFromJSON(credentialsJSON, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parse drive credentials: %w", err)
	}
	cfg.Subject = subject
	svc, err := drive.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &driveService{files: svc.Files}, nil
}

type driveService struct {
	files *drive.FilesService
}

func (d *driveService) CreateFolder(ctx context.Context, name, parent string) (string, error) {
	f, err := d.files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parent},
	}).SupportsAllDrives(true).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

func (d *driveService) Upload(ctx context.Context, name, parent string, data []byte) (string, error) {
	f, err := d.files.Create(&drive.File{
		Name:    name,
		Parents: []string{parent},
	}).Media(bytes.NewReader(data)).SupportsAllDrives(true).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

// Drive hands out folder sinks below one root folder and remembers which
// subfolders it already created.
type Drive struct {
	api     DriveAPI
	root    string
	folders cache.Cache
	mu      sync.Mutex
	log     *zap.Logger
}

func NewDrive(api DriveAPI, rootFolderId string, logger *zap.Logger) *Drive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Drive{
		api:     api,
		root:    rootFolderId,
		folders: cache.New(256, cache.WithTTL(24*time.Hour)),
		log:     logger.Named("drive"),
	}
}

// FolderName builds "<topic>_<YYYY-MM-DD>_<unix ms>".
func FolderName(topic string, at time.Time) string {
	if topic == "" {
		topic = "images"
	}
	return asset.SafeName(topic) + "_" + at.Format("2006-01-02") + "_" + strconv.FormatInt(at.UnixMilli(), 10)
}

// Folder returns a sink for a new dated subfolder named after topic. The
// folder is created on the first Put and shared by every later Put of the
// run. Each distinct at gets its own folder; runs never share one.
func (d *Drive) Folder(topic string, at time.Time) *DriveSink {
	return &DriveSink{drive: d, name: FolderName(topic, at)}
}

func (d *Drive) resolve(ctx context.Context, name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.folders.Get(name); ok {
		return id.(string), nil
	}
	id, err := d.api.CreateFolder(ctx, name, d.root)
	if err != nil {
		return "", fmt.Errorf("create folder %s: %w", name, err)
	}
	d.log.Info("folder created", zap.String("name", name), zap.String("id", id))
	d.folders.Set(name, id)
	return id, nil
}

// DriveSink uploads payloads into one Drive subfolder.
type DriveSink struct {
	drive *Drive
	name  string
}

func (s *DriveSink) Put(ctx context.Context, name string, data []byte) (string, error) {
	folder, err := s.drive.resolve(ctx, s.name)
	if err != nil {
		return "", err
	}
	id, err := s.drive.api.Upload(ctx, name, folder, data)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return id, nil
}

func (s *DriveSink) String() string { return "drive:" + s.name }
