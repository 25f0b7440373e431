package v1

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/authz"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/middleware"
	"github.com/appcontrol-api/models"
	"github.com/appcontrol-api/services"
	"github.com/gin-gonic/gin"
)

// ExamController handles medical exam uploads
type ExamController struct {
	examService *services.ExamService
	auth        middleware.Authenticator
	maxUpload   int64
}

// NewExamController creates a new exam controller. maxUpload caps the size
// of multipart bodies.
func NewExamController(examService *services.ExamService, auth middleware.Authenticator, maxUpload int64) *ExamController {
	return &ExamController{
		examService: examService,
		auth:        auth,
		maxUpload:   maxUpload,
	}
}

// RegisterRoutes registers exam routes
func (c *ExamController) RegisterRoutes(router *gin.RouterGroup) {
	owner := middleware.Authorize(c.auth, authz.AnyAuthenticated())
	ownerOrAdmin := middleware.Authorize(c.auth, authz.OwnerOrRole(models.RoleAdmin))

	exams := router.Group("/records/exams")
	{
		exams.GET("", owner, c.ListExams)
		exams.POST("", owner, middleware.BodyLimit(multipartLimit(c.maxUpload)), c.CreateExam)
		exams.GET("/stats", owner, c.GetStats)
		exams.GET("/admin/all", middleware.AdminMiddleware(c.auth), c.AdminListExams)
		exams.GET("/admin/stats", middleware.AdminMiddleware(c.auth), c.AdminGetStats)
		exams.GET("/:id", owner, c.GetExam)
		exams.GET("/:id/download", owner, c.DownloadExam)
		exams.PUT("/:id", owner, c.UpdateExam)
		exams.DELETE("/:id", ownerOrAdmin, c.DeleteExam)
	}
}

// multipartLimit leaves room for the form fields around a file of maxFile bytes
func multipartLimit(maxFile int64) int64 {
	return maxFile + 1<<20
}

// formFile returns the uploaded file of field, or nil when none was sent
func formFile(ctx *gin.Context, field string) (*multipart.FileHeader, error) {
	file, err := ctx.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, middleware.BindError(err)
	}
	return file, nil
}

// examFilter reads the listing filters shared by owner and admin lists
func examFilter(ctx *gin.Context, defaultLimit int) (dto.ExamFilter, error) {
	filter := dto.ExamFilter{PageRequest: pageRequest(ctx, defaultLimit)}

	if examType := ctx.Query("examType"); examType != "" {
		filter.ExamType = models.ExamType(examType)
		if !filter.ExamType.IsValid() {
			return filter, apperrors.Field("examType", "Invalid exam type")
		}
	}

	var err error
	filter.StartDate, filter.EndDate, err = dateRangeQuery(ctx, "startDate", "endDate")
	return filter, err
}

// CreateExam godoc
// @Summary Upload an exam file with its metadata
// @Accept multipart/form-data
// @Router /records/exams [post]
func (c *ExamController) CreateExam(ctx *gin.Context) {
	var req dto.CreateExamRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.Error(ctx, middleware.BindError(err))
		return
	}
	file, err := formFile(ctx, "examFile")
	if err != nil {
		middleware.Error(ctx, err)
		return
	}

	exam, err := c.examService.Create(middleware.GetUserID(ctx), req, file)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusCreated, "Exam uploaded successfully", gin.H{"exam": exam})
}

// ListExams godoc
// @Summary List the caller's exams
// @Param examType query string false "exam type"
// @Router /records/exams [get]
func (c *ExamController) ListExams(ctx *gin.Context) {
	filter, err := examFilter(ctx, recordPageSize)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}

	resp, err := c.examService.List(middleware.GetScope(ctx), filter)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", resp)
}

// GetExam returns one of the caller's exams
func (c *ExamController) GetExam(ctx *gin.Context) {
	exam, err := c.examService.Get(middleware.GetScope(ctx), ctx.Param("id"))
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", gin.H{"exam": exam})
}

// DownloadExam streams the stored file under its original name
func (c *ExamController) DownloadExam(ctx *gin.Context) {
	download, err := c.examService.Download(middleware.GetScope(ctx), ctx.Param("id"))
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	if download.MimeType != "" {
		ctx.Header("Content-Type", download.MimeType)
	}
	ctx.FileAttachment(download.Path, download.Name)
}

// UpdateExam changes the metadata of one of the caller's exams
func (c *ExamController) UpdateExam(ctx *gin.Context) {
	var req dto.UpdateExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.Error(ctx, middleware.BindError(err))
		return
	}

	exam, err := c.examService.Update(middleware.GetScope(ctx), ctx.Param("id"), req)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "Exam updated successfully", gin.H{"exam": exam})
}

// DeleteExam removes the exam file and its metadata
func (c *ExamController) DeleteExam(ctx *gin.Context) {
	if err := c.examService.Delete(middleware.GetScope(ctx), ctx.Param("id")); err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "Exam deleted successfully", nil)
}

// GetStats summarizes the caller's exams
func (c *ExamController) GetStats(ctx *gin.Context) {
	stats, err := c.examService.Stats(middleware.GetUserID(ctx))
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", stats)
}

// AdminListExams lists exams of every user
func (c *ExamController) AdminListExams(ctx *gin.Context) {
	filter, err := examFilter(ctx, adminPageSize)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	filter.UserID = ctx.Query("userId")

	resp, err := c.examService.AdminList(filter)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", resp)
}

// AdminGetStats summarizes exams of every user
func (c *ExamController) AdminGetStats(ctx *gin.Context) {
	stats, err := c.examService.AdminStats()
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", stats)
}
