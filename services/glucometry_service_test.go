package services

import (
	"testing"
	"time"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/glucose"
	"github.com/appcontrol-api/models"
)

func createReading(t *testing.T, s *GlucometryService, ownerID string, date time.Time, reading float64) dto.GlucometryRecordResponse {
	t.Helper()
	record, err := s.Create(ownerID, dto.CreateGlucometryRequest{
		Date:    date.Format(time.RFC3339),
		Reading: ptr(reading),
	})
	if err != nil {
		t.Fatalf("Create(%v) error = %v", reading, err)
	}
	return *record
}

func TestCreateReadingBounds(t *testing.T) {
	db := newDB(t)
	s := NewGlucometryService(db)
	owner := seedUser(t, db, "ana@example.com", models.RoleUser)
	today := time.Now().UTC().Format("2006-01-02")

	tests := []struct {
		reading float64
		wantErr bool
	}{
		{19, true},
		{20, false},
		{600, false},
		{601, true},
	}
	for _, tt := range tests {
		_, err := s.Create(owner.ID, dto.CreateGlucometryRequest{Date: today, Reading: ptr(tt.reading)})
		if tt.wantErr {
			wantKind(t, err, apperrors.KindValidation)
		} else if err != nil {
			t.Errorf("reading %v: error = %v", tt.reading, err)
		}
	}
}

func TestCreateReadingDates(t *testing.T) {
	db := newDB(t)
	s := NewGlucometryService(db)
	owner := seedUser(t, db, "ana@example.com", models.RoleUser)
	now := time.Now().UTC()

	record, err := s.Create(owner.ID, dto.CreateGlucometryRequest{Date: now.Format("2006-01-02"), Reading: ptr(110.0), Notes: "  after walk  "})
	if err != nil {
		t.Fatalf("dated today: error = %v", err)
	}
	if record.MealTime != models.MealTimeOther || record.Notes != "after walk" {
		t.Errorf("record = %+v", record.GlucometryRecord)
	}
	if record.Classification != glucose.Normal || record.HistoricalLevel != glucose.Normal {
		t.Errorf("classification = %s/%s", record.Classification, record.HistoricalLevel)
	}

	_, err = s.Create(owner.ID, dto.CreateGlucometryRequest{Date: now.AddDate(0, 0, 1).Format("2006-01-02"), Reading: ptr(110.0)})
	wantKind(t, err, apperrors.KindValidation)

	_, err = s.Create(owner.ID, dto.CreateGlucometryRequest{Date: now.Format(time.RFC3339), Reading: ptr(110.0), MealTime: "Brunch"})
	wantKind(t, err, apperrors.KindValidation)
}

func TestReadingOwnership(t *testing.T) {
	db := newDB(t)
	s := NewGlucometryService(db)
	ana := seedUser(t, db, "ana@example.com", models.RoleUser)
	bo := seedUser(t, db, "bo@example.com", models.RoleUser)
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)

	record := createReading(t, s, ana.ID, time.Now().Add(-time.Hour), 120)

	_, err := s.Get(ownerScope(bo), record.ID)
	wantKind(t, err, apperrors.KindNotFound)

	_, err = s.Update(ownerScope(bo), record.ID, dto.UpdateGlucometryRequest{Reading: ptr(90.0)})
	wantKind(t, err, apperrors.KindNotFound)

	err = s.Delete(ownerScope(bo, models.RoleAdmin), record.ID)
	wantKind(t, err, apperrors.KindNotFound)

	updated, err := s.Update(ownerScope(ana), record.ID, dto.UpdateGlucometryRequest{Reading: ptr(190.0)})
	if err != nil {
		t.Fatalf("owner Update() error = %v", err)
	}
	if updated.Classification != glucose.VeryHigh || updated.HistoricalLevel != glucose.High {
		t.Errorf("classification = %s/%s", updated.Classification, updated.HistoricalLevel)
	}

	if err := s.Delete(ownerScope(admin, models.RoleAdmin), record.ID); err != nil {
		t.Fatalf("admin Delete() error = %v", err)
	}
	_, err = s.Get(ownerScope(ana), record.ID)
	wantKind(t, err, apperrors.KindNotFound)
}

func TestListFiltersByLevel(t *testing.T) {
	db := newDB(t)
	s := NewGlucometryService(db)
	ana := seedUser(t, db, "ana@example.com", models.RoleUser)
	bo := seedUser(t, db, "bo@example.com", models.RoleUser)

	base := time.Now().Add(-48 * time.Hour)
	for i, reading := range []float64{65, 70, 140, 141, 250} {
		createReading(t, s, ana.ID, base.Add(time.Duration(i)*time.Hour), reading)
	}
	createReading(t, s, bo.ID, base, 300)

	tests := []struct {
		level glucose.Level
		want  int64
	}{
		{"", 5},
		{glucose.Low, 1},
		{glucose.Normal, 2},
		{glucose.High, 2},
	}
	for _, tt := range tests {
		list, err := s.List(ownerScope(ana), dto.GlucometryFilter{Level: tt.level, PageRequest: dto.NewPageRequest(1, 10, 10)})
		if err != nil {
			t.Fatalf("List(%q) error = %v", tt.level, err)
		}
		if list.Pagination.Total != tt.want {
			t.Errorf("List(%q) total = %d, want %d", tt.level, list.Pagination.Total, tt.want)
		}
	}

	list, err := s.List(ownerScope(ana), dto.GlucometryFilter{PageRequest: dto.NewPageRequest(1, 2, 10)})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list.Records) != 2 || list.Pagination.Pages != 3 || list.Records[0].Reading != 250 {
		t.Errorf("page 1 = %d records, pages %d", len(list.Records), list.Pagination.Pages)
	}
}

func TestStatsAndDashboard(t *testing.T) {
	db := newDB(t)
	s := NewGlucometryService(db)
	ana := seedUser(t, db, "ana@example.com", models.RoleUser)

	// oldest first: previous window 100s, recent window 150s
	base := time.Now().Add(-12 * time.Hour)
	for i, reading := range []float64{100, 100, 100, 160, 155, 150} {
		createReading(t, s, ana.ID, base.Add(time.Duration(i)*time.Hour), reading)
	}
	createReading(t, s, ana.ID, time.Now().AddDate(0, 0, -40), 50)

	stats, err := s.Stats(ana.ID, 0)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.PeriodDays != DefaultStatsPeriod || stats.Stats.Total != 6 || stats.Stats.High != 3 || stats.Stats.Low != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Trend != glucose.Rising {
		t.Errorf("trend = %s, want rising", stats.Trend)
	}
	if len(stats.ChartData) != 6 || stats.ChartData[0].Reading != 100 || stats.ChartData[5].Reading != 150 {
		t.Errorf("chart = %+v", stats.ChartData)
	}

	dashboard, err := s.Dashboard(ana.ID)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if len(dashboard.RecentRecords) != 5 || dashboard.LatestReading == nil || dashboard.LatestReading.Reading != 150 {
		t.Errorf("dashboard recent = %+v", dashboard.RecentRecords)
	}
	if dashboard.TotalRecords != 7 || dashboard.RecordsLast30Days != 6 || dashboard.Trend != glucose.Rising {
		t.Errorf("dashboard = %+v", dashboard)
	}
}

func TestAdminStats(t *testing.T) {
	db := newDB(t)
	s := NewGlucometryService(db)
	ana := seedUser(t, db, "ana@example.com", models.RoleUser)
	bo := seedUser(t, db, "bo@example.com", models.RoleUser)

	at := time.Now().Add(-time.Hour)
	createReading(t, s, ana.ID, at, 60)
	createReading(t, s, ana.ID, at, 150)
	createReading(t, s, bo.ID, at, 200)
	createReading(t, s, bo.ID, at, 100)

	stats, err := s.AdminStats()
	if err != nil {
		t.Fatalf("AdminStats() error = %v", err)
	}
	if stats.Total != 4 || stats.High != 2 || stats.VeryHigh != 1 || stats.Low != 1 || stats.Normal != 1 || stats.TotalUsers != 2 {
		t.Errorf("stats = %+v", stats)
	}

	list, err := s.AdminList(dto.AdminGlucometryFilter{UserID: bo.ID, PageRequest: dto.NewPageRequest(1, 50, 50)})
	if err != nil {
		t.Fatalf("AdminList() error = %v", err)
	}
	if len(list.Records) != 2 || list.Records[0].Owner == nil || list.Records[0].Owner.Email != "bo@example.com" {
		t.Errorf("admin list = %+v", list.Records)
	}
}
