package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quizhub/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrRowColumns marks a CSV data row whose field count does not match
// the header. Row errors never abort the batch.
var ErrRowColumns = errors.New("row column count does not match header")

type ProvisionService struct {
	db        *gorm.DB
	uploadDir string
}

func NewProvisionService(db *gorm.DB, uploadDir string) *ProvisionService {
	return &ProvisionService{db: db, uploadDir: uploadDir}
}

// ProvisionResult reports the outcome of one CSV data row.
type ProvisionResult struct {
	Row      int    `json:"row"`
	Username string `json:"username,omitempty"`
	Created  bool   `json:"created"`
	Error    string `json:"error,omitempty"`
}

// NormalizeHeader lowercases column names and replaces spaces with
// underscores, so "First Name" maps to "first_name".
func NormalizeHeader(fields []string) []string {
	normalized := make([]string, len(fields))
	for i, field := range fields {
		normalized[i] = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(field)), " ", "_")
	}
	return normalized
}

// ParseRows decodes the upload as UTF-8 CSV: a header row followed by
// data rows. Field counts are left unchecked here so each row can be
// judged against the header independently.
func ParseRows(raw []byte) (header []string, rows [][]string, err error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("malformed csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, errors.New("csv file is empty")
	}

	return NormalizeHeader(records[0]), records[1:], nil
}

// RowMap zips one data row against the header. It fails with
// ErrRowColumns when the counts disagree.
func RowMap(header, row []string) (map[string]string, error) {
	if len(row) != len(header) {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrRowColumns, len(header), len(row))
	}
	fields := make(map[string]string, len(header))
	for i, name := range header {
		fields[name] = strings.TrimSpace(row[i])
	}
	return fields, nil
}

// SaveUpload stores the raw file under a generated name and records the
// upload row. Processing happens separately and synchronously; there is
// no save-hook magic.
func (s *ProvisionService) SaveUpload(userID uint, title, originalName string, raw []byte) (*models.CSVUpload, error) {
	storedName := uuid.NewString() + filepath.Ext(originalName)

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(s.uploadDir, storedName), raw, 0o644); err != nil {
		return nil, err
	}

	upload := models.CSVUpload{
		Title:        title,
		UserID:       userID,
		OriginalName: originalName,
		StoredName:   storedName,
	}
	if err := s.db.Create(&upload).Error; err != nil {
		return nil, err
	}
	return &upload, nil
}

// ProcessUpload turns each data row into a new end-user account. Rows
// are independent: a malformed or conflicting row is reported in its
// result and the rest of the batch continues. A completed upload is
// skipped entirely.
func (s *ProvisionService) ProcessUpload(upload *models.CSVUpload, raw []byte) ([]ProvisionResult, error) {
	if upload.Completed {
		return nil, nil
	}

	header, rows, err := ParseRows(raw)
	if err != nil {
		return nil, err
	}

	results := make([]ProvisionResult, 0, len(rows))
	for i, row := range rows {
		result := ProvisionResult{Row: i + 1}

		fields, err := RowMap(header, row)
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.Username = fields["username"]
		if err := s.createUser(fields); err != nil {
			result.Error = err.Error()
		} else {
			result.Created = true
		}
		results = append(results, result)
	}

	upload.Completed = true
	if err := s.db.Save(upload).Error; err != nil {
		return results, err
	}

	return results, nil
}

// createUser provisions one account from a row's field map. Provisioned
// accounts never get staff or superuser privileges, whatever the file
// says.
func (s *ProvisionService) createUser(fields map[string]string) error {
	username := fields["username"]
	if username == "" {
		return errors.New("row has no username")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("username %q already exists", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(fields["password"]), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := models.User{
		Username:     username,
		Email:        fields["email"],
		FirstName:    fields["first_name"],
		LastName:     fields["last_name"],
		PasswordHash: string(hash),
		IsActive:     true,
		IsStaff:      false,
		IsSuperuser:  false,
	}
	return s.db.Create(&user).Error
}
