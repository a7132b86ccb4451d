package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
	"github.com/drivedrcc-eng/central-senai-api/internal/scheduling"
	"github.com/drivedrcc-eng/central-senai-api/pkg/export"
	"github.com/drivedrcc-eng/central-senai-api/pkg/storage"
)

type exportBookingSource interface {
	ListAll(ctx context.Context) ([]models.Booking, error)
	CountClassSessions(ctx context.Context, classGroupID, subject, excludeID string) (int, error)
}

type exportGroupSource interface {
	ListAll(ctx context.Context) ([]models.ClassGroup, error)
}

type exportRoomSource interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type exportSubjectSource interface {
	ListSubjects(ctx context.Context, courseID string) ([]models.Subject, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds agenda datasets and persists rendered files.
type ExportService struct {
	bookings exportBookingSource
	groups   exportGroupSource
	rooms    exportRoomSource
	subjects exportSubjectSource
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(bookings exportBookingSource, groups exportGroupSource, rooms exportRoomSource, subjects exportSubjectSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		bookings: bookings,
		groups:   groups,
		rooms:    rooms,
		subjects: subjects,
		storage:  store,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate builds the dataset for a job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	rangePart := sanitizeFilename(job.Params.From + "_" + job.Params.To)
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), rangePart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeAgenda:
		return s.buildAgendaDataset(ctx, job.Params)
	case models.ReportTypeOccupancy:
		return s.buildOccupancyDataset(ctx, job.Params)
	case models.ReportTypeSubjectLog:
		return s.buildSubjectLogDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) bookingsInRange(ctx context.Context, params models.ReportJobParams) ([]models.Booking, error) {
	from, err := time.Parse(scheduling.DateLayout, params.From)
	if err != nil {
		return nil, fmt.Errorf("invalid report range start: %w", err)
	}
	to, err := time.Parse(scheduling.DateLayout, params.To)
	if err != nil {
		return nil, fmt.Errorf("invalid report range end: %w", err)
	}

	all, err := s.bookings.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	group := ""
	if params.ClassGroupID != nil {
		group = *params.ClassGroupID
	}
	filtered := make([]models.Booking, 0, len(all))
	for _, b := range all {
		if b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		if group != "" && b.GroupID() != group {
			continue
		}
		filtered = append(filtered, b)
	}
	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].Date.Equal(filtered[j].Date) {
			return filtered[i].Date.Before(filtered[j].Date)
		}
		return filtered[i].Shift < filtered[j].Shift
	})
	return filtered, nil
}

func (s *ExportService) buildAgendaDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	bookings, err := s.bookingsInRange(ctx, params)
	if err != nil {
		return export.Dataset{}, "", err
	}
	headers := []string{"Date", "Shift", "Type", "Title", "Class Group", "Subject", "Instructor", "Room"}
	rows := make([]map[string]string, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, map[string]string{
			"Date":        scheduling.DateKey(b.Date),
			"Shift":       string(b.Shift),
			"Type":        string(b.Type),
			"Title":       b.Title,
			"Class Group": b.GroupID(),
			"Subject":     b.SubjectName(),
			"Instructor":  b.InstructorID,
			"Room":        b.RoomID,
		})
	}
	title := fmt.Sprintf("Agenda %s to %s", params.From, params.To)
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (s *ExportService) buildOccupancyDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	bookings, err := s.bookingsInRange(ctx, params)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return export.Dataset{}, "", err
	}

	type tally struct{ morning, afternoon, evening int }
	byRoom := make(map[string]*tally, len(rooms))
	for _, b := range bookings {
		t := byRoom[b.RoomID]
		if t == nil {
			t = &tally{}
			byRoom[b.RoomID] = t
		}
		switch b.Shift {
		case models.ShiftMorning:
			t.morning++
		case models.ShiftAfternoon:
			t.afternoon++
		case models.ShiftEvening:
			t.evening++
		}
	}

	headers := []string{"Room", "Location", "Morning", "Afternoon", "Evening", "Total"}
	rows := make([]map[string]string, 0, len(rooms))
	for _, room := range rooms {
		t := byRoom[room.ID]
		if t == nil {
			t = &tally{}
		}
		rows = append(rows, map[string]string{
			"Room":      room.Name,
			"Location":  room.Location,
			"Morning":   fmt.Sprintf("%d", t.morning),
			"Afternoon": fmt.Sprintf("%d", t.afternoon),
			"Evening":   fmt.Sprintf("%d", t.evening),
			"Total":     fmt.Sprintf("%d", t.morning+t.afternoon+t.evening),
		})
	}
	title := fmt.Sprintf("Room Occupancy %s to %s", params.From, params.To)
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (s *ExportService) buildSubjectLogDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	groups, err := s.groups.ListAll(ctx)
	if err != nil {
		return export.Dataset{}, "", err
	}
	filter := ""
	if params.ClassGroupID != nil {
		filter = *params.ClassGroupID
	}

	headers := []string{"Class Group", "Subject", "Planned Hours", "Hours Per Day", "Days Needed", "Scheduled", "Remaining"}
	var rows []map[string]string
	for _, group := range groups {
		if filter != "" && group.ID != filter {
			continue
		}
		subjects, err := s.subjects.ListSubjects(ctx, group.CourseID)
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, subject := range subjects {
			scheduled, err := s.bookings.CountClassSessions(ctx, group.ID, subject.Name, "")
			if err != nil {
				return export.Dataset{}, "", err
			}
			rows = append(rows, map[string]string{
				"Class Group":   group.Name,
				"Subject":       subject.Name,
				"Planned Hours": fmt.Sprintf("%.1f", subject.Hours),
				"Hours Per Day": fmt.Sprintf("%.2f", scheduling.HoursPerLessonDay(group.ClassesPerDay)),
				"Days Needed":   fmt.Sprintf("%d", scheduling.LessonDaysNeeded(subject.Hours, group.ClassesPerDay)),
				"Scheduled":     fmt.Sprintf("%d", scheduled),
				"Remaining":     fmt.Sprintf("%d", scheduling.RemainingSessions(subject.Hours, group.ClassesPerDay, scheduled)),
			})
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}, "Subject Progress", nil
}
