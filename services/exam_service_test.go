package services

import (
	"testing"
	"time"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/models"
)

func newExamService(t *testing.T) (*ExamService, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	return NewExamService(newDB(t), store), store
}

func TestCreateExam(t *testing.T) {
	s, store := newExamService(t)
	ana := seedUser(t, s.db, "ana@example.com", models.RoleUser)

	_, err := s.Create(ana.ID, dto.CreateExamRequest{Title: "HbA1c"}, nil)
	wantKind(t, err, apperrors.KindValidation)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	_, err = s.Create(ana.ID, dto.CreateExamRequest{Title: "HbA1c", ExamDate: tomorrow}, upload("lab.pdf"))
	wantKind(t, err, apperrors.KindValidation)
	if store.count() != 0 {
		t.Errorf("rejected exam stored %d files", store.count())
	}

	today := time.Now().UTC().Format("2006-01-02")
	exam, err := s.Create(ana.ID, dto.CreateExamRequest{Title: " HbA1c ", ExamDate: today, ExamType: "Glycated Hemoglobin"}, upload("lab.pdf"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if exam.Title != "HbA1c" || exam.OriginalName != "lab.pdf" || exam.ExamType != models.ExamTypeGlycatedHemoglobin {
		t.Errorf("exam = %+v", exam)
	}
	if exam.UploadDate.IsZero() || exam.ExamDate == nil {
		t.Errorf("dates = %v / %v", exam.UploadDate, exam.ExamDate)
	}
	if !store.has(exam.FileURL) {
		t.Errorf("file %q not stored", exam.FileURL)
	}
}

func TestCreateExamRemovesFileWhenSaveFails(t *testing.T) {
	s, store := newExamService(t)

	// no such user: the foreign key rejects the row after the file is written
	_, err := s.Create("00000000-0000-0000-0000-000000000000", dto.CreateExamRequest{Title: "HbA1c"}, upload("lab.pdf"))
	wantKind(t, err, apperrors.KindInternal)
	if store.count() != 0 {
		t.Errorf("orphaned files = %d", store.count())
	}
}

func TestExamOwnershipAndDelete(t *testing.T) {
	s, store := newExamService(t)
	ana := seedUser(t, s.db, "ana@example.com", models.RoleUser)
	bo := seedUser(t, s.db, "bo@example.com", models.RoleUser)
	admin := seedUser(t, s.db, "admin@example.com", models.RoleAdmin)

	exam, err := s.Create(ana.ID, dto.CreateExamRequest{Title: "Lipids", ExamType: "Lipid Profile"}, upload("lipids.pdf"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = s.Get(ownerScope(bo), exam.ID)
	wantKind(t, err, apperrors.KindNotFound)
	_, err = s.Download(ownerScope(bo), exam.ID)
	wantKind(t, err, apperrors.KindNotFound)
	err = s.Delete(ownerScope(bo, models.RoleAdmin), exam.ID)
	wantKind(t, err, apperrors.KindNotFound)

	download, err := s.Download(ownerScope(ana), exam.ID)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if download.Name != "lipids.pdf" {
		t.Errorf("download = %+v", download)
	}

	updated, err := s.Update(ownerScope(ana), exam.ID, dto.UpdateExamRequest{Title: ptr("Lipid panel")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "Lipid panel" || updated.FileURL != exam.FileURL {
		t.Errorf("updated = %+v", updated)
	}

	store.removeErr = errDiskGone
	err = s.Delete(ownerScope(admin, models.RoleAdmin), exam.ID)
	wantKind(t, err, apperrors.KindInternal)
	if _, err := s.Get(ownerScope(ana), exam.ID); err != nil {
		t.Fatalf("exam row removed although its file was kept: %v", err)
	}

	store.removeErr = nil
	if err := s.Delete(ownerScope(admin, models.RoleAdmin), exam.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.has(exam.FileURL) {
		t.Error("file kept after delete")
	}
	_, err = s.Get(ownerScope(ana), exam.ID)
	wantKind(t, err, apperrors.KindNotFound)
}

func TestExamStats(t *testing.T) {
	s, _ := newExamService(t)
	ana := seedUser(t, s.db, "ana@example.com", models.RoleUser)
	bo := seedUser(t, s.db, "bo@example.com", models.RoleUser)

	for _, owner := range []models.User{ana, ana, bo} {
		if _, err := s.Create(owner.ID, dto.CreateExamRequest{Title: "Exam"}, upload("lab.pdf")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	old := models.MedicalExam{
		UserID: ana.ID, Title: "Old", FileURL: "/uploads/exams/old.pdf", OriginalName: "old.pdf",
		FileSize: 1024 * 1024, MimeType: "application/pdf", UploadDate: time.Now().UTC().AddDate(0, 0, -90),
	}
	if err := s.db.Create(&old).Error; err != nil {
		t.Fatalf("create old exam: %v", err)
	}

	stats, err := s.Stats(ana.ID)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalExams != 3 || stats.RecentExams != 2 || stats.ByType["Other"] != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalSizeMB != 1 {
		t.Errorf("size = %v MB, want 1", stats.TotalSizeMB)
	}

	admin, err := s.AdminStats()
	if err != nil {
		t.Fatalf("AdminStats() error = %v", err)
	}
	if admin.TotalExams != 4 || admin.TotalUsers != 2 {
		t.Errorf("admin stats = %+v", admin)
	}

	list, err := s.AdminList(dto.ExamFilter{PageRequest: dto.NewPageRequest(1, 2, 50)})
	if err != nil {
		t.Fatalf("AdminList() error = %v", err)
	}
	if len(list.Exams) != 2 || list.Pagination.Total != 4 || list.Exams[0].Owner == nil {
		t.Errorf("admin list = %+v", list)
	}
}
