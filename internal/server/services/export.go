package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/xuri/excelize/v2"

	"github.com/dmitrijs2005/dayplanner/internal/common"
	sc "github.com/dmitrijs2005/dayplanner/internal/server/config"
	"github.com/dmitrijs2005/dayplanner/internal/server/models"
	"github.com/dmitrijs2005/dayplanner/internal/server/repositories/tasks"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// exportHeader matches the legacy CSV schema, so exports round-trip through
// the legacy import path.
var exportHeader = []string{"ID", "Title", "Priority", "DueDate", "Completed", "Note"}

// ExportService renders a task collection as CSV or as an xlsx workbook, and
// optionally parks the workbook in S3-compatible object storage behind a
// short-lived presigned link.
type ExportService struct {
	tasks  tasks.Repository
	config *sc.Config
}

func NewExportService(repo tasks.Repository, config *sc.Config) *ExportService {
	return &ExportService{tasks: repo, config: config}
}

// ExportCSV writes the owner's tasks in the flat export format.
func (s *ExportService) ExportCSV(ctx context.Context, owner string) ([]byte, error) {
	ts, err := s.tasks.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, t := range ts {
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			string(t.Priority),
			t.Due,
			strconv.FormatBool(t.Completed),
			t.Note,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ExportXLSX renders the owner's tasks as a single-sheet workbook.
func (s *ExportService) ExportXLSX(ctx context.Context, owner string) ([]byte, error) {
	ts, err := s.tasks.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Tasks"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for col, name := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, err
		}
	}

	for i, t := range ts {
		values := []any{t.ID, t.Title, string(t.Priority), t.Due, t.Completed, t.Note}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UploadEnabled reports whether object storage is configured.
func (s *ExportService) UploadEnabled() bool {
	return s.config.S3Bucket != ""
}

func (s *ExportService) s3Client() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func exportStorageKey(owner string) (string, error) {
	d := time.Now()
	if owner == models.GlobalOwner {
		owner = "shared"
	}
	suffix, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("exports/%s/%d/%d/%d/%s.xlsx", owner, d.Year(), d.Month(), d.Day(), suffix), nil
}

// UploadXLSX renders the workbook, puts it in the configured bucket, and
// returns a presigned GET link valid for 15 minutes.
func (s *ExportService) UploadXLSX(ctx context.Context, owner string) (string, error) {
	data, err := s.ExportXLSX(ctx, owner)
	if err != nil {
		return "", err
	}

	client, err := s.s3Client()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key, err := exportStorageKey(owner)
	if err != nil {
		return "", err
	}
	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	}); err != nil {
		return "", err
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
