package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Uploader sube un respaldo a almacenamiento externo
type Uploader interface {
	Upload(ctx context.Context, objectName string, r io.Reader) error
}

// GCSUploader sube los respaldos a un bucket de Google Cloud Storage
type GCSUploader struct {
	client *storage.Client
	bucket string
}

// NewGCSUploader usa GCS_CREDENTIALS_JSON si está presente; si no, las credenciales por defecto
func NewGCSUploader(ctx context.Context, bucket, credentialsJSON string) (*GCSUploader, error) {
	var (
		client *storage.Client
		err    error
	)
	if strings.TrimSpace(credentialsJSON) != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credentialsJSON)))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("creando cliente GCS: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, objectName string, r io.Reader) error {
	wc := u.client.Bucket(u.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// RecordSource entrega los registros a respaldar (RecordService.All)
type RecordSource interface {
	All(ctx context.Context, month string) ([]models.DailyRecord, error)
}

type BackupService struct {
	records       RecordSource
	backupDir     string
	retentionDays int
	interval      time.Duration
	uploader      Uploader

	mu       sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
	now      func() time.Time
}

func NewBackupService(records RecordSource, backupDir string, interval time.Duration, retentionDays int, uploader Uploader) *BackupService {
	if backupDir == "" {
		backupDir = "./backups"
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &BackupService{
		records:       records,
		backupDir:     backupDir,
		retentionDays: retentionDays,
		interval:      interval,
		uploader:      uploader,
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
		now:           time.Now,
	}
}

// Start inicia el servicio de backups automáticos
func (s *BackupService) Start() error {
	if err := os.MkdirAll(s.backupDir, 0700); err != nil {
		return fmt.Errorf("error creando directorio de backups: %w", err)
	}

	utils.Logger.Info("🔄 Backup service started",
		zap.String("backup_dir", s.backupDir),
		zap.Duration("interval", s.interval),
		zap.Int("retention_days", s.retentionDays),
		zap.Bool("cloud_upload", s.uploader != nil),
	)

	go s.scheduleBackups()
	return nil
}

// Stop detiene el servicio y espera a que termine el respaldo en curso
func (s *BackupService) Stop() {
	close(s.stopChan)
	<-s.done
	utils.Logger.Info("🛑 Backup service stopped")
}

func (s *BackupService) scheduleBackups() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := s.RunNow(ctx); err != nil {
				utils.Logger.Error("❌ Backup failed", zap.Error(err))
			}
			cancel()
			s.cleanOldBackups()
		case <-s.stopChan:
			return
		}
	}
}

// RunNow escribe una planilla con todos los registros y la sube si hay uploader
func (s *BackupService) RunNow(ctx context.Context) (*models.BackupInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.backupDir, 0700); err != nil {
		return nil, fmt.Errorf("error creando directorio de backups: %w", err)
	}

	records, err := s.records.All(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("leyendo registros: %w", err)
	}

	f, err := BuildWorkbook(records)
	if err != nil {
		return nil, fmt.Errorf("armando planilla: %w", err)
	}
	defer f.Close()

	name := fmt.Sprintf("backup_%s.xlsx", s.now().Format("20060102_150405"))
	path := filepath.Join(s.backupDir, name)
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("guardando respaldo: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	utils.Logger.Info("✅ Backup completed successfully",
		zap.String("filename", name),
		zap.Int("records", len(records)),
		zap.Int64("size_bytes", info.Size()),
	)

	if s.uploader != nil {
		s.uploadToCloud(ctx, path, name)
	}

	utils.LogBusinessEvent("backup_completed", 0, map[string]interface{}{
		"filename": name,
		"records":  len(records),
	})

	return &models.BackupInfo{Filename: name, Size: info.Size(), CreatedAt: info.ModTime()}, nil
}

// uploadToCloud no hace fallar el respaldo local si la subida falla
func (s *BackupService) uploadToCloud(ctx context.Context, path, name string) {
	file, err := os.Open(path)
	if err != nil {
		utils.Logger.Error("❌ Backup upload failed", zap.Error(err))
		return
	}
	defer file.Close()

	if err := s.uploader.Upload(ctx, "backups/"+name, file); err != nil {
		utils.Logger.Error("❌ Backup upload failed",
			zap.String("file", name),
			zap.Error(err),
		)
		return
	}
	utils.Logger.Info("☁️ Backup uploaded", zap.String("file", name))
}

// cleanOldBackups elimina backups antiguos según retention policy
func (s *BackupService) cleanOldBackups() {
	cutoff := s.now().AddDate(0, 0, -s.retentionDays)

	files, err := filepath.Glob(filepath.Join(s.backupDir, "backup_*.xlsx"))
	if err != nil {
		utils.Logger.Error("Error listing backups", zap.Error(err))
		return
	}

	for _, file := range files {
		fileInfo, err := os.Stat(file)
		if err != nil {
			continue
		}
		if !fileInfo.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(file); err != nil {
			utils.Logger.Error("Error removing old backup",
				zap.String("file", file),
				zap.Error(err),
			)
		} else {
			utils.Logger.Info("🗑️ Old backup removed", zap.String("file", file))
		}
	}
}

// GetAvailableBackups lista los backups disponibles, del más nuevo al más viejo
func (s *BackupService) GetAvailableBackups() ([]models.BackupInfo, error) {
	files, err := filepath.Glob(filepath.Join(s.backupDir, "backup_*.xlsx"))
	if err != nil {
		return nil, err
	}

	backups := []models.BackupInfo{}
	for _, file := range files {
		fileInfo, err := os.Stat(file)
		if err != nil {
			continue
		}
		backups = append(backups, models.BackupInfo{
			Filename:  filepath.Base(file),
			Size:      fileInfo.Size(),
			CreatedAt: fileInfo.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].Filename > backups[j].Filename })
	return backups, nil
}
