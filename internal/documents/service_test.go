package documents

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/techcreator/storefront/pkg/db"
	"github.com/techcreator/storefront/pkg/db/models"
	"github.com/techcreator/storefront/pkg/enums"
	pkgerrors "github.com/techcreator/storefront/pkg/errors"
)

type stubProjects struct {
	known map[uuid.UUID]bool
}

func (s stubProjects) FindByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	if !s.known[id] {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
	}
	return &models.Project{ID: id}, nil
}

type stubSigner struct {
	err     error
	objects []string
	deleted []string
}

func (s *stubSigner) SignedURL(bucket, object, contentType string, _ time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.objects = append(s.objects, object)
	return "https://signed.example.com/" + bucket + "/" + object + "?ct=" + contentType, nil
}

func (s *stubSigner) DeleteObject(_ context.Context, bucket, object string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, bucket+"/"+object)
	return nil
}

func (s *stubSigner) ObjectURL(bucket, object string) string {
	return "https://storage.example.com/" + bucket + "/" + object
}

func newTestService(t *testing.T, signer *stubSigner) (Service, uuid.UUID) {
	t.Helper()
	client, err := db.OpenMemory(t.Name(), &models.ProjectDocument{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	projectID := uuid.New()
	upload := UploadConfig{Bucket: "project-documents", TTL: 15 * time.Minute, MaxBytes: 1024}
	if signer != nil {
		upload.Signer = signer
		upload.Remover = signer
	}
	svc, err := NewService(NewRepository(client.DB()), stubProjects{known: map[uuid.UUID]bool{projectID: true}}, upload)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, projectID
}

func mustCreateDocument(t *testing.T, svc Service, projectID uuid.UUID, name string, stage enums.ReviewStage) *DocumentDTO {
	t.Helper()
	doc, err := svc.Create(context.Background(), projectID, CreateInput{
		Name:        name,
		URL:         "https://files.example.com/" + name,
		Type:        "application/pdf",
		Size:        2048,
		ReviewStage: stage,
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc
}

func TestCreateDefaultsAndValidates(t *testing.T) {
	svc, projectID := newTestService(t, nil)

	doc := mustCreateDocument(t, svc, projectID, "brief.pdf", enums.ReviewStage1)
	if !doc.IsActive || doc.DocumentCategory != enums.DocumentCategoryDocument {
		t.Fatalf("unexpected defaults %+v", doc)
	}
	if doc.ReviewStageLabel != enums.ReviewStage1.Label() {
		t.Fatalf("unexpected label %q", doc.ReviewStageLabel)
	}

	_, err := svc.Create(context.Background(), projectID, CreateInput{Name: "x", URL: "u", Type: "application/pdf", ReviewStage: "review_9"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = svc.Create(context.Background(), uuid.New(), CreateInput{Name: "x", URL: "u", Type: "application/pdf", ReviewStage: enums.ReviewStage1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown project, got %v", err)
	}
}

func TestListFiltersStageAndInactive(t *testing.T) {
	svc, projectID := newTestService(t, nil)
	mustCreateDocument(t, svc, projectID, "b.pdf", enums.ReviewStage1)
	mustCreateDocument(t, svc, projectID, "a.pdf", enums.ReviewStage1)
	hidden := mustCreateDocument(t, svc, projectID, "final.pdf", enums.ReviewStage3)

	if err := svc.Deactivate(context.Background(), hidden.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := svc.ListActiveByProject(context.Background(), projectID)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 || active[0].Name != "a.pdf" {
		t.Fatalf("unexpected active documents %+v", active)
	}

	all, err := svc.List(context.Background(), ListQuery{ProjectID: projectID, IncludeInactive: true})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 documents including inactive, got %d", len(all))
	}

	stage := enums.ReviewStage3
	staged, err := svc.List(context.Background(), ListQuery{ProjectID: projectID, Stage: &stage, IncludeInactive: true})
	if err != nil {
		t.Fatalf("list stage: %v", err)
	}
	if len(staged) != 1 || staged[0].IsActive {
		t.Fatalf("unexpected stage listing %+v", staged)
	}

	bad := enums.ReviewStage("review_0")
	if _, err := svc.List(context.Background(), ListQuery{ProjectID: projectID, Stage: &bad}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateCanReactivate(t *testing.T) {
	svc, projectID := newTestService(t, nil)
	doc := mustCreateDocument(t, svc, projectID, "brief.pdf", enums.ReviewStage1)
	if err := svc.Deactivate(context.Background(), doc.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active := true
	stage := enums.ReviewStage2
	updated, err := svc.Update(context.Background(), doc.ID, UpdateInput{IsActive: &active, ReviewStage: &stage})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.IsActive || updated.ReviewStage != enums.ReviewStage2 {
		t.Fatalf("unexpected update %+v", updated)
	}

	if err := svc.Deactivate(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPresignUpload(t *testing.T) {
	signer := &stubSigner{}
	svc, projectID := newTestService(t, signer)

	out, err := svc.PresignUpload(context.Background(), projectID, PresignInput{
		FileName:    "Final Report.pdf",
		MimeType:    "application/pdf; charset=binary",
		SizeBytes:   512,
		ReviewStage: enums.ReviewStage3,
	})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(out.StoragePath, "documents/"+projectID.String()+"/review_3/") {
		t.Fatalf("unexpected storage path %q", out.StoragePath)
	}
	if !strings.HasSuffix(out.StoragePath, "/Final-Report.pdf") {
		t.Fatalf("file name not sanitized: %q", out.StoragePath)
	}
	if out.ContentType != "application/pdf" {
		t.Fatalf("unexpected content type %q", out.ContentType)
	}
	if out.FileURL != "https://storage.example.com/project-documents/"+out.StoragePath {
		t.Fatalf("unexpected file url %q", out.FileURL)
	}
	if len(signer.objects) != 1 {
		t.Fatalf("expected one signing call, got %d", len(signer.objects))
	}
}

func TestPresignUploadRejects(t *testing.T) {
	svc, projectID := newTestService(t, &stubSigner{})
	cases := map[string]PresignInput{
		"missing name": {MimeType: "application/pdf", SizeBytes: 10, ReviewStage: enums.ReviewStage1},
		"too large":    {FileName: "a.pdf", MimeType: "application/pdf", SizeBytes: 4096, ReviewStage: enums.ReviewStage1},
		"bad mime":     {FileName: "a.exe", MimeType: "application/x-msdownload", SizeBytes: 10, ReviewStage: enums.ReviewStage1},
		"bad stage":    {FileName: "a.pdf", MimeType: "application/pdf", SizeBytes: 10, ReviewStage: "draft"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.PresignUpload(context.Background(), projectID, input); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPresignUploadWithoutSigner(t *testing.T) {
	svc, projectID := newTestService(t, nil)
	_, err := svc.PresignUpload(context.Background(), projectID, PresignInput{FileName: "a.pdf", MimeType: "application/pdf", SizeBytes: 1, ReviewStage: enums.ReviewStage1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestPresignUploadSignerFailure(t *testing.T) {
	svc, projectID := newTestService(t, &stubSigner{err: errors.New("no key")})
	_, err := svc.PresignUpload(context.Background(), projectID, PresignInput{FileName: "a.pdf", MimeType: "application/pdf", SizeBytes: 1, ReviewStage: enums.ReviewStage1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestPurgeRemovesRowAndObject(t *testing.T) {
	signer := &stubSigner{}
	svc, projectID := newTestService(t, signer)

	path := "documents/" + projectID.String() + "/review_1/x/brief.pdf"
	doc, err := svc.Create(context.Background(), projectID, CreateInput{
		Name: "brief.pdf", URL: "https://storage.example.com/" + path, Type: "application/pdf",
		ReviewStage: enums.ReviewStage1, StoragePath: &path,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Purge(context.Background(), doc.ID); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if len(signer.deleted) != 1 || signer.deleted[0] != "project-documents/"+path {
		t.Fatalf("unexpected deletes %v", signer.deleted)
	}
	all, err := svc.List(context.Background(), ListQuery{ProjectID: projectID, IncludeInactive: true})
	if err != nil || len(all) != 0 {
		t.Fatalf("expected no rows after purge, got %d (%v)", len(all), err)
	}
	if err := svc.Purge(context.Background(), doc.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on second purge, got %v", err)
	}
}

func TestPurgeKeepsRowWhenObjectDeleteFails(t *testing.T) {
	signer := &stubSigner{}
	svc, projectID := newTestService(t, signer)
	path := "documents/broken.pdf"
	doc, err := svc.Create(context.Background(), projectID, CreateInput{
		Name: "broken.pdf", URL: "https://storage.example.com/" + path, Type: "application/pdf",
		ReviewStage: enums.ReviewStage1, StoragePath: &path,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	signer.err = errors.New("permission denied")
	if err := svc.Purge(context.Background(), doc.ID); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if docs, _ := svc.ListActiveByProject(context.Background(), projectID); len(docs) != 1 {
		t.Fatalf("row must survive a failed object delete")
	}
}
